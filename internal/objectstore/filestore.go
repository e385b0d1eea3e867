package objectstore

import (
	"context"
	"os"
	"path/filepath"
)

// FileStore writes objects under a local directory root, mirroring the
// key as a relative path. Used by the request-scoped and edge deployments
// (which may have no network object store reachable at all, e.g. during
// local development) and by tests that want to assert on written bytes
// without a real S3-compatible backend.
type FileStore struct {
	root string
}

// NewFileStore creates a FileStore rooted at dir, creating it if absent.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &PermanentError{Err: err}
	}
	return &FileStore{root: dir}, nil
}

// Put writes content to root/key, creating any intermediate directories
// the Hive-style partition path requires.
func (f *FileStore) Put(ctx context.Context, key string, content []byte) error {
	path := filepath.Join(f.root, filepath.FromSlash(key))

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return &TransientError{Err: err}
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return &TransientError{Err: err}
	}
	return nil
}
