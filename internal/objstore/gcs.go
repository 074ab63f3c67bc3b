package objstore

import (
	"context"
	"fmt"
	"io"
	"os"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCSStore stores objects in a Google Cloud Storage bucket.
type GCSStore struct {
	client *storage.Client
	bucket string
}

// NewGCSStore creates a store for bucket using application default credentials
// unless opts say otherwise.
func NewGCSStore(ctx context.Context, bucket string, opts ...option.ClientOption) (*GCSStore, error) {
	if bucket == "" {
		return nil, fmt.Errorf("gcs bucket is required")
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating gcs client: %w", err)
	}
	return &GCSStore{client: client, bucket: bucket}, nil
}

// Location returns "gs://<bucket>".
func (s *GCSStore) Location() string {
	return "gs://" + s.bucket
}

// Upload copies the local file to key.
func (s *GCSStore) Upload(ctx context.Context, localPath, key string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return &TransferError{Op: "upload", Key: key, Path: localPath, Err: err}
	}
	defer f.Close()

	w := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	if _, err := io.Copy(w, f); err != nil {
		w.Close()
		return &TransferError{Op: "upload", Key: key, Path: localPath, Err: err}
	}
	// The object is only committed on Close.
	if err := w.Close(); err != nil {
		return &TransferError{Op: "upload", Key: key, Path: localPath, Err: err}
	}
	return nil
}

// Download copies key to the local file.
func (s *GCSStore) Download(ctx context.Context, key, localPath string) error {
	r, err := s.client.Bucket(s.bucket).Object(key).NewReader(ctx)
	if err != nil {
		return &TransferError{Op: "download", Key: key, Path: localPath, Err: err}
	}
	defer r.Close()

	if err := writeFile(localPath, r); err != nil {
		return &TransferError{Op: "download", Key: key, Path: localPath, Err: err}
	}
	return nil
}

// Close releases the client.
func (s *GCSStore) Close() error {
	return s.client.Close()
}
