package image

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileStore is an ObjectStore writing under a local directory, served as
// static files by the HTTP server. URLs are <publicBaseURL>/<key>.
type FileStore struct {
	dir           string
	publicBaseURL string
}

// NewFileStore creates the backing directory if needed.
func NewFileStore(dir, publicBaseURL string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}
	return &FileStore{
		dir:           dir,
		publicBaseURL: strings.TrimSuffix(publicBaseURL, "/"),
	}, nil
}

// Put writes data under key and returns its public URL. Keys must stay
// inside the storage directory.
func (s *FileStore) Put(ctx context.Context, key string, data []byte) (string, error) {
	path := filepath.Join(s.dir, filepath.FromSlash(key))

	// key is store-generated, but reject traversal anyway
	if rel, err := filepath.Rel(s.dir, path); err != nil || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("invalid object key %q", key)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create key directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write object: %w", err)
	}

	return s.publicBaseURL + "/" + key, nil
}

// Dir returns the storage root, for wiring the static file handler.
func (s *FileStore) Dir() string {
	return s.dir
}
