// Package storage keeps uploaded property images on the local disk.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// ErrInvalidPath is returned for keys that would leave the upload root
var ErrInvalidPath = errors.New("invalid storage path")

// Storage saves and removes uploaded files
type Storage interface {
	// Save writes r under key (slash separated) and returns its public URL
	Save(ctx context.Context, key string, r io.Reader) (url string, err error)
	Remove(ctx context.Context, key string) error
}

// LocalStorage writes files below Root and serves them from BaseURL
type LocalStorage struct {
	Root    string
	BaseURL string
}

// NewLocalStorage creates a LocalStorage rooted at dir
func NewLocalStorage(dir, baseURL string) *LocalStorage {
	return &LocalStorage{Root: dir, BaseURL: strings.TrimRight(baseURL, "/")}
}

// Key builds the object key <tenant>/<property>/<file>
func Key(tenantID, propertyID, filename string) string {
	return path.Join(tenantID, propertyID, filename)
}

func (s *LocalStorage) resolve(key string) (string, error) {
	clean := path.Clean("/" + key)
	if clean == "/" || strings.Contains(key, "..") {
		return "", ErrInvalidPath
	}
	return filepath.Join(s.Root, filepath.FromSlash(clean)), nil
}

// Save writes to a temporary file first so readers never see a partial image
func (s *LocalStorage) Save(ctx context.Context, key string, r io.Reader) (string, error) {
	dst, err := s.resolve(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write upload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return "", fmt.Errorf("store upload: %w", err)
	}
	return s.BaseURL + "/" + strings.TrimPrefix(path.Clean("/"+key), "/"), nil
}

// Remove deletes the file; a missing file is not an error
func (s *LocalStorage) Remove(_ context.Context, key string) error {
	dst, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(dst); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
