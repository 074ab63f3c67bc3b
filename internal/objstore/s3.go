package objstore

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

// S3Store stores objects in an S3 bucket.
type S3Store struct {
	client s3iface.S3API
	bucket string
}

// S3Option configures the S3 session.
type S3Option func(*aws.Config)

// WithEndpoint points the client at an S3-compatible endpoint using path-style addressing.
func WithEndpoint(endpoint string) S3Option {
	return func(c *aws.Config) {
		c.Endpoint = aws.String(endpoint)
		c.S3ForcePathStyle = aws.Bool(true)
	}
}

// WithStaticCredentials uses fixed credentials instead of the default chain.
func WithStaticCredentials(id, secret string) S3Option {
	return func(c *aws.Config) {
		c.Credentials = credentials.NewStaticCredentials(id, secret, "")
	}
}

// NewS3Store creates a store for bucket. Credentials come from the standard
// AWS environment, shared config or instance role unless overridden.
func NewS3Store(bucket, region string, opts ...S3Option) (*S3Store, error) {
	if bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	cfg := aws.NewConfig()
	if region != "" {
		cfg = cfg.WithRegion(region)
	}
	for _, opt := range opts {
		opt(cfg)
	}

	sess, err := session.NewSessionWithOptions(session.Options{
		Config:            *cfg,
		SharedConfigState: session.SharedConfigEnable,
	})
	if err != nil {
		return nil, fmt.Errorf("creating aws session: %w", err)
	}
	return &S3Store{client: s3.New(sess), bucket: bucket}, nil
}

// Location returns "s3://<bucket>".
func (s *S3Store) Location() string {
	return "s3://" + s.bucket
}

// Upload copies the local file to key.
func (s *S3Store) Upload(ctx context.Context, localPath, key string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return &TransferError{Op: "upload", Key: key, Path: localPath, Err: err}
	}
	defer f.Close()

	_, err = s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   f,
	})
	if err != nil {
		return &TransferError{Op: "upload", Key: key, Path: localPath, Err: err}
	}
	return nil
}

// Download copies key to the local file.
func (s *S3Store) Download(ctx context.Context, key, localPath string) error {
	out, err := s.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return &TransferError{Op: "download", Key: key, Path: localPath, Err: err}
	}
	defer out.Body.Close()

	if err := writeFile(localPath, out.Body); err != nil {
		return &TransferError{Op: "download", Key: key, Path: localPath, Err: err}
	}
	return nil
}
