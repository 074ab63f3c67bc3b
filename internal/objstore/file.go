package objstore

import (
	"context"
	"os"
	"path/filepath"
)

// FileStore keeps objects as files under a root directory.
type FileStore struct {
	root string
}

// NewFileStore creates a store rooted at dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{root: dir}
}

// Location returns "file://<root>".
func (s *FileStore) Location() string {
	return "file://" + s.root
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.root, filepath.FromSlash(key))
}

// Upload copies the local file to key.
func (s *FileStore) Upload(ctx context.Context, localPath, key string) error {
	if err := s.copy(ctx, localPath, s.path(key)); err != nil {
		return &TransferError{Op: "upload", Key: key, Path: localPath, Err: err}
	}
	return nil
}

// Download copies key to the local file.
func (s *FileStore) Download(ctx context.Context, key, localPath string) error {
	if err := s.copy(ctx, s.path(key), localPath); err != nil {
		return &TransferError{Op: "download", Key: key, Path: localPath, Err: err}
	}
	return nil
}

func (s *FileStore) copy(ctx context.Context, src, dst string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f, err := os.Open(src)
	if err != nil {
		return err
	}
	defer f.Close()
	return writeFile(dst, f)
}
