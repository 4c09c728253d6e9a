package library

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/desertthunder/songbook/internal/shared"
)

// BlobStore abstracts binary artifact storage: upload-and-get-URL plus a
// presence check. The presence check doubles as the content-equality proxy
// for binary files, since the importer does no true content hashing.
type BlobStore interface {
	// Put stores data under key and returns a stable URL for it.
	Put(ctx context.Context, key string, data []byte) (string, error)

	// Exists reports whether a blob is already stored under key.
	Exists(ctx context.Context, key string) (bool, error)
}

// BlobKey derives the storage key for a version's binary content from its
// label and byte size.
func BlobKey(label string, size int) string {
	return fmt.Sprintf("%s-%d", shared.SlugKey(label), size)
}

// LocalBlobStore stores blobs as files under a directory and returns file:// URLs.
type LocalBlobStore struct {
	dir string
}

// NewLocalBlobStore creates the backing directory if needed.
func NewLocalBlobStore(dir string) (*LocalBlobStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("%w: failed to create blob directory: %v", shared.ErrBlobStore, err)
	}
	return &LocalBlobStore{dir: dir}, nil
}

func (s *LocalBlobStore) path(key string) string {
	return filepath.Join(s.dir, key)
}

// Put writes the blob to disk and returns its file URL.
func (s *LocalBlobStore) Put(ctx context.Context, key string, data []byte) (string, error) {
	path := s.path(key)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("%w: failed to write blob %s: %v", shared.ErrBlobStore, key, err)
	}
	return "file://" + path, nil
}

// Exists checks for the blob on disk.
func (s *LocalBlobStore) Exists(ctx context.Context, key string) (bool, error) {
	if _, err := os.Stat(s.path(key)); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("%w: failed to stat blob %s: %v", shared.ErrBlobStore, key, err)
	}
	return true, nil
}
