// Package promptbook persists the user's saved prompts across sessions.
package promptbook

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// Book is a set of saved prompt strings, insertion order preserved,
// duplicates forbidden. The backing file is a JSON array of strings,
// loaded once at startup and rewritten on every mutation.
type Book struct {
	mu      sync.Mutex
	path    string
	prompts []string
	logger  *slog.Logger
}

// Open loads the book at path, tolerating a missing file.
func Open(path string, logger *slog.Logger) (*Book, error) {
	b := &Book{path: path, logger: logger}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return b, nil
		}
		return nil, fmt.Errorf("read prompt book: %w", err)
	}

	if err := json.Unmarshal(data, &b.prompts); err != nil {
		// a corrupt book is not fatal; start empty rather than refuse to boot
		logger.Warn("prompt book unreadable, starting empty", "path", path, "error", err)
		b.prompts = nil
	}

	return b, nil
}

// Add saves a prompt. Saving a prompt that is already present is a no-op.
func (b *Book) Add(prompt string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, p := range b.prompts {
		if p == prompt {
			return nil
		}
	}
	b.prompts = append(b.prompts, prompt)
	return b.persist()
}

// Remove deletes a prompt; absent prompts are a no-op.
func (b *Book) Remove(prompt string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, p := range b.prompts {
		if p == prompt {
			b.prompts = append(b.prompts[:i], b.prompts[i+1:]...)
			return b.persist()
		}
	}
	return nil
}

// Contains reports whether prompt is saved.
func (b *Book) Contains(prompt string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, p := range b.prompts {
		if p == prompt {
			return true
		}
	}
	return false
}

// All returns the saved prompts in insertion order.
func (b *Book) All() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	all := make([]string, len(b.prompts))
	copy(all, b.prompts)
	return all
}

// persist rewrites the backing file; callers hold b.mu.
func (b *Book) persist() error {
	data, err := json.Marshal(b.prompts)
	if err != nil {
		return fmt.Errorf("encode prompt book: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(b.path), 0o755); err != nil {
		return fmt.Errorf("create prompt book directory: %w", err)
	}
	if err := os.WriteFile(b.path, data, 0o644); err != nil {
		return fmt.Errorf("write prompt book: %w", err)
	}
	return nil
}
