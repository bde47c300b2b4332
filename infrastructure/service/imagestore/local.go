package imagestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/glucon/glucon-api/application/port/outbound"
)

// LocalImageStore keeps images as files in one directory.
type LocalImageStore struct {
	dir string
}

func NewLocalImageStore(dir string) (*LocalImageStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	return &LocalImageStore{dir: dir}, nil
}

func (s *LocalImageStore) Save(ctx context.Context, filename string, contentType string, body io.Reader) (string, error) {
	name := storedName(filename)
	path := filepath.Join(s.dir, name)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to create image file: %w", err)
	}

	if _, err := io.Copy(f, body); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("failed to write image file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("failed to close image file: %w", err)
	}

	return name, nil
}

func (s *LocalImageStore) Open(ctx context.Context, name string) (io.ReadCloser, string, error) {
	if !validStoredName(name) {
		return nil, "", outbound.ErrImageNotFound
	}

	f, err := os.Open(filepath.Join(s.dir, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, "", outbound.ErrImageNotFound
		}
		return nil, "", fmt.Errorf("failed to open image: %w", err)
	}

	return f, contentTypeFor(name), nil
}
