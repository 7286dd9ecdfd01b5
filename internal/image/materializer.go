// Package image turns raw upstream artifacts into renderable resources:
// either inline data URIs or public URLs backed by an object store.
package image

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/google/uuid"

	"latentchat/internal/domain"
	"latentchat/internal/generation"
)

// contentType of every generated artifact.
const contentType = "image/png"

// keyPrefix for stored artifacts; keys are generations/<uuid>.png.
const keyPrefix = "generations/"

// Materializer converts a batch of raw artifacts into renderable Artifacts.
// Materialization is atomic: the first failure fails the whole batch.
type Materializer interface {
	Materialize(ctx context.Context, raw []generation.RawArtifact) ([]domain.Artifact, error)
}

// ObjectStore persists image bytes under a key and returns a public URL.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte) (string, error)
}

// Inline materializes base64 artifacts as data URIs, keeping the bytes
// client-local. Already-hosted URLs pass through unchanged.
type Inline struct{}

func (Inline) Materialize(ctx context.Context, raw []generation.RawArtifact) ([]domain.Artifact, error) {
	artifacts := make([]domain.Artifact, 0, len(raw))

	for i, r := range raw {
		if r.URL != "" {
			artifacts = append(artifacts, domain.Artifact{Locator: r.URL, Seed: r.Seed, ID: r.ID})
			continue
		}

		// validate the payload decodes before handing it to the client
		if _, err := base64.StdEncoding.DecodeString(r.Base64); err != nil {
			return nil, fmt.Errorf("artifact %d: decode base64: %w", i, err)
		}

		artifacts = append(artifacts, domain.Artifact{
			Locator: "data:" + contentType + ";base64," + r.Base64,
			Seed:    r.Seed,
			ID:      r.ID,
		})
	}

	return artifacts, nil
}

// Stored decodes artifacts and uploads them to an object store under a
// freshly generated random key, producing a public URL.
type Stored struct {
	store ObjectStore
}

// NewStored creates a materializer backed by the given store.
func NewStored(store ObjectStore) *Stored {
	return &Stored{store: store}
}

func (s *Stored) Materialize(ctx context.Context, raw []generation.RawArtifact) ([]domain.Artifact, error) {
	artifacts := make([]domain.Artifact, 0, len(raw))

	for i, r := range raw {
		if r.URL != "" {
			artifacts = append(artifacts, domain.Artifact{Locator: r.URL, Seed: r.Seed, ID: r.ID})
			continue
		}

		data, err := base64.StdEncoding.DecodeString(r.Base64)
		if err != nil {
			return nil, fmt.Errorf("artifact %d: decode base64: %w", i, err)
		}

		key := NewKey()
		url, err := s.store.Put(ctx, key, data)
		if err != nil {
			return nil, fmt.Errorf("artifact %d: store %s: %w", i, key, err)
		}

		artifacts = append(artifacts, domain.Artifact{Locator: url, Seed: r.Seed, ID: r.ID})
	}

	return artifacts, nil
}

// NewKey returns a fresh random object key of the form generations/<uuid>.png.
func NewKey() string {
	return keyPrefix + uuid.NewString() + ".png"
}
