package store

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// S3Options configures the S3-compatible backend.
type S3Options struct {
	Endpoint  string
	Bucket    string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Prefix    string
}

// S3Backend stores each key as an object in an S3-compatible bucket.
type S3Backend struct {
	client *minio.Client
	bucket string
	prefix string
}

// NewS3Backend connects to the endpoint and creates the bucket when missing.
func NewS3Backend(ctx context.Context, opts S3Options) (*S3Backend, error) {
	if opts.Endpoint == "" || opts.Bucket == "" {
		return nil, fmt.Errorf("s3 store: endpoint and bucket are required")
	}

	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("s3 store: failed to create client: %w", err)
	}

	exists, err := client.BucketExists(ctx, opts.Bucket)
	if err != nil {
		return nil, fmt.Errorf("s3 store: failed to check bucket %s: %w", opts.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, opts.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("s3 store: failed to create bucket %s: %w", opts.Bucket, err)
		}
	}

	prefix := opts.Prefix
	if prefix == "" {
		prefix = "themeforge/"
	}
	return &S3Backend{client: client, bucket: opts.Bucket, prefix: prefix}, nil
}

// Name returns the backend identifier
func (s *S3Backend) Name() string { return "s3" }

func (s *S3Backend) object(key string) string {
	return s.prefix + key + ".json"
}

// Get downloads the object for key
func (s *S3Backend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := validateKey(key); err != nil {
		return nil, false, err
	}
	obj, err := s.client.GetObject(ctx, s.bucket, s.object(key), minio.GetObjectOptions{})
	if err != nil {
		return nil, false, err
	}
	defer obj.Close()

	// GetObject is lazy; a missing object only surfaces on the first read.
	data, err := io.ReadAll(obj)
	if err != nil {
		if minio.ToErrorResponse(err).Code == minio.NoSuchKey {
			return nil, false, nil
		}
		return nil, false, err
	}
	return data, true, nil
}

// Set uploads value as the object for key
func (s *S3Backend) Set(ctx context.Context, key string, value []byte) error {
	if err := validateKey(key); err != nil {
		return err
	}
	_, err := s.client.PutObject(ctx, s.bucket, s.object(key), bytes.NewReader(value), int64(len(value)),
		minio.PutObjectOptions{ContentType: "application/json"})
	return err
}

// Delete removes the object for key
func (s *S3Backend) Delete(ctx context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	return s.client.RemoveObject(ctx, s.bucket, s.object(key), minio.RemoveObjectOptions{})
}

// Close is a no-op; the minio client holds no persistent connections to release.
func (s *S3Backend) Close() error { return nil }
