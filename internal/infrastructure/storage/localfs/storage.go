package localfs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/kirillkom/meeting-assistant/internal/core/domain"
)

// Storage keeps raw transcripts as flat files under basePath.
type Storage struct {
	basePath string
}

func New(basePath string) (*Storage, error) {
	if basePath == "" {
		basePath = "./data/transcripts"
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &Storage{basePath: basePath}, nil
}

// Save writes to a temp file first so a reader never sees a partial transcript.
func (s *Storage) Save(_ context.Context, key string, data io.Reader) error {
	path, err := s.resolve(key)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.basePath, ".upload-*")
	if err != nil {
		return domain.WrapError(domain.ErrStorageUnavailable, "create file", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, data); err != nil {
		tmp.Close()
		return domain.WrapError(domain.ErrStorageUnavailable, "write file", err)
	}
	if err := tmp.Close(); err != nil {
		return domain.WrapError(domain.ErrStorageUnavailable, "close file", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return domain.WrapError(domain.ErrStorageUnavailable, "commit file", err)
	}
	return nil
}

func (s *Storage) Open(_ context.Context, key string) (io.ReadCloser, error) {
	path, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, domain.WrapError(domain.ErrStorageUnavailable, "open file", err)
	}
	return f, nil
}

// Delete is idempotent.
func (s *Storage) Delete(_ context.Context, key string) error {
	path, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return domain.WrapError(domain.ErrStorageUnavailable, "delete file", err)
	}
	return nil
}

func (s *Storage) resolve(key string) (string, error) {
	if key == "" || key == "." || key == ".." || strings.ContainsAny(key, `/\`) {
		return "", domain.WrapError(domain.ErrInvalidInput, "resolve storage key", fmt.Errorf("invalid key %q", key))
	}
	return filepath.Join(s.basePath, key), nil
}
