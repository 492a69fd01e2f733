package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FileStorage implements Storage on the local filesystem, one file per key.
// All files are confined to baseDir.
type FileStorage struct {
	baseDir string
}

// NewFileStorage creates a file storage rooted at dir. The directory is
// created with 0700 permissions if it does not exist.
func NewFileStorage(dir string) (*FileStorage, error) {
	if dir == "" {
		return nil, ErrInvalidConfig
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, errors.Join(ErrInvalidConfig, err)
	}

	if err := os.MkdirAll(abs, 0o700); err != nil {
		return nil, errors.Join(ErrInvalidConfig, err)
	}

	return &FileStorage{baseDir: abs}, nil
}

// Dir returns the absolute storage directory.
func (s *FileStorage) Dir() string {
	return s.baseDir
}

func (s *FileStorage) Get(ctx context.Context, key string) ([]byte, error) {
	path, err := s.path(key)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Set writes value to a temporary file in the same directory and renames it
// over the target, so readers never observe a half-written blob.
func (s *FileStorage) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path, err := s.path(key)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.baseDir, ".tmp-*")
	if err != nil {
		return errors.Join(ErrWriteFailed, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(value); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return errors.Join(ErrWriteFailed, err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return errors.Join(ErrWriteFailed, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return errors.Join(ErrWriteFailed, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return errors.Join(ErrWriteFailed, err)
	}
	return nil
}

func (s *FileStorage) Delete(ctx context.Context, key string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("storage: delete %q: %w", key, err)
	}
	return nil
}

// path maps a key to a file inside baseDir. Keys may contain dots but no
// path separators.
func (s *FileStorage) path(key string) (string, error) {
	if key == "" || key == "." || key == ".." || strings.ContainsAny(key, `/\`) || strings.HasPrefix(key, ".tmp-") {
		return "", ErrInvalidKey
	}
	return filepath.Join(s.baseDir, key), nil
}
