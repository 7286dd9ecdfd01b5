package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// RatingRepository stores per-artifact ratings. Each artifact keeps a single
// row; re-rating overwrites the previous value.
type RatingRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewRatingRepository creates a rating repository on the given pool.
func NewRatingRepository(pool *pgxpool.Pool, logger *slog.Logger) *RatingRepository {
	return &RatingRepository{pool: pool, logger: logger}
}

// Rate upserts the rating for each artifact id in a single batch.
func (r *RatingRepository) Rate(ctx context.Context, artifactIDs []string, rating int) error {
	query := `
		INSERT INTO artifact_ratings (artifact_id, rating, rated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (artifact_id) DO UPDATE SET
			rating = EXCLUDED.rating,
			rated_at = EXCLUDED.rated_at
	`

	now := time.Now()
	for _, id := range artifactIDs {
		if _, err := r.pool.Exec(ctx, query, id, rating, now); err != nil {
			return fmt.Errorf("rate artifact %s: %w", id, err)
		}
	}

	r.logger.Debug("ratings persisted", "artifacts", len(artifactIDs), "rating", rating)
	return nil
}

// EnsureSchema creates the ratings table if it does not exist.
func (r *RatingRepository) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS artifact_ratings (
			artifact_id TEXT PRIMARY KEY,
			rating      INTEGER NOT NULL,
			rated_at    TIMESTAMPTZ NOT NULL
		)
	`
	if _, err := r.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("ensure ratings schema: %w", err)
	}
	return nil
}
