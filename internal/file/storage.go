package file

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ErrInvalidBlobName is returned for names that would escape the storage directory
var ErrInvalidBlobName = errors.New("invalid blob name")

// DiskStore keeps file contents as flat files in one directory
type DiskStore struct {
	dir string
}

// NewDiskStore creates the directory if needed and returns a store rooted there
func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &DiskStore{dir: dir}, nil
}

func (s *DiskStore) path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." {
		return "", ErrInvalidBlobName
	}
	return filepath.Join(s.dir, name), nil
}

// Save writes r to a new blob and returns the number of bytes written. A
// partially written blob is removed when copying fails.
func (s *DiskStore) Save(name string, r io.Reader) (int64, error) {
	p, err := s.path(name)
	if err != nil {
		return 0, err
	}

	f, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return 0, fmt.Errorf("failed to create blob: %w", err)
	}

	n, err := io.Copy(f, r)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(p)
		return 0, fmt.Errorf("failed to write blob: %w", err)
	}
	return n, nil
}

// Open returns the blob for reading. The error wraps os.ErrNotExist when the
// blob is missing.
func (s *DiskStore) Open(name string) (*os.File, error) {
	p, err := s.path(name)
	if err != nil {
		return nil, err
	}
	return os.Open(p)
}

// Remove deletes a blob. The error wraps os.ErrNotExist when it was already gone.
func (s *DiskStore) Remove(name string) error {
	p, err := s.path(name)
	if err != nil {
		return err
	}
	return os.Remove(p)
}
