package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/google/uuid"
)

// Store keeps product and review image blobs. Save returns the relative
// path that gets persisted on the entity and later handed back to Delete.
type Store interface {
	Save(dir, ext string, data []byte) (string, error)
	Delete(relpath string) error
}

type FileStore struct {
	Root string
}

func NewFileStore(root string) (*FileStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create root: %w", err)
	}
	return &FileStore{Root: root}, nil
}

func (s *FileStore) Save(dir, ext string, data []byte) (string, error) {
	name := uuid.NewString() + ext
	rel := path.Join(dir, name)

	full := filepath.Join(s.Root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("storage: create dir: %w", err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", fmt.Errorf("storage: write: %w", err)
	}
	return rel, nil
}

func (s *FileStore) Delete(relpath string) error {
	if relpath == "" {
		return nil
	}
	err := os.Remove(filepath.Join(s.Root, filepath.FromSlash(relpath)))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("storage: delete: %w", err)
	}
	return nil
}
