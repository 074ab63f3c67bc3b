package objstore

import (
	"context"
	"fmt"
)

// Backend names accepted by New.
const (
	BackendS3   = "s3"
	BackendGCS  = "gcs"
	BackendFile = "file"
)

// Options selects and configures a backend.
type Options struct {
	Backend string
	Bucket  string // s3 and gcs
	Region  string // s3
	Root    string // file
}

// New creates the configured store.
func New(ctx context.Context, opts Options) (Store, error) {
	switch opts.Backend {
	case BackendS3, "":
		return NewS3Store(opts.Bucket, opts.Region)
	case BackendGCS:
		return NewGCSStore(ctx, opts.Bucket)
	case BackendFile:
		if opts.Root == "" {
			return nil, fmt.Errorf("file store root is required")
		}
		return NewFileStore(opts.Root), nil
	default:
		return nil, fmt.Errorf("unknown object store %q", opts.Backend)
	}
}
