// Package objstore copies artifact files to and from an object store.
//
// Keys follow the layout "<prefix>/<file name>". Transfers are not retried
// beyond what the backend SDK does itself, and a failed upload is not rolled back.
package objstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/hashicorp/go-multierror"

	"github.com/atalyaalon/patents-topic-modeling/internal/logging"
)

// ErrTransfer matches every *TransferError.
var ErrTransfer = errors.New("object store transfer failed")

// TransferError describes a failed upload or download.
type TransferError struct {
	Op   string // "upload" or "download"
	Key  string
	Path string
	Err  error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("%s %s (%s): %v", e.Op, e.Key, e.Path, e.Err)
}

func (e *TransferError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrTransfer.
func (e *TransferError) Is(target error) bool {
	return target == ErrTransfer
}

// Store moves single files between the local disk and an object store.
type Store interface {
	// Upload copies the local file to key.
	Upload(ctx context.Context, localPath, key string) error
	// Download copies key to the local file, replacing it.
	Download(ctx context.Context, key, localPath string) error
	// Location describes the store for logs, e.g. "s3://bucket".
	Location() string
}

// KeyFor returns the object key of a local file under prefix.
func KeyFor(prefix, localPath string) string {
	name := filepath.Base(localPath)
	if prefix == "" {
		return name
	}
	return path.Join(prefix, name)
}

// Mirror uploads every path under prefix. It keeps going after a failure and
// returns all failures combined.
func Mirror(ctx context.Context, s Store, prefix string, paths []string) error {
	var result *multierror.Error
	for _, p := range paths {
		key := KeyFor(prefix, p)
		if err := s.Upload(ctx, p, key); err != nil {
			logging.Errorf("Failed to upload %s to %s: %v", p, s.Location(), err)
			result = multierror.Append(result, err)
			continue
		}
		logging.Infof("Uploaded %s to %s/%s", p, s.Location(), key)
	}
	return result.ErrorOrNil()
}

// Fetch downloads each key under prefix into dir. It keeps going after a
// failure and returns all failures combined.
func Fetch(ctx context.Context, s Store, prefix string, keys []string, dir string) error {
	var result *multierror.Error
	for _, k := range keys {
		key := path.Join(prefix, k)
		dest := filepath.Join(dir, k)
		if err := s.Download(ctx, key, dest); err != nil {
			logging.Errorf("Failed to download %s/%s: %v", s.Location(), key, err)
			result = multierror.Append(result, err)
			continue
		}
		logging.Infof("Downloaded %s/%s", s.Location(), key)
	}
	return result.ErrorOrNil()
}

// writeFile streams r into path through a temp file so a failed download
// never replaces an existing file.
func writeFile(path string, r io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	tmpPath := path + ".part"
	f, err := os.Create(tmpPath)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}
