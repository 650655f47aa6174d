package sink

import (
	"context"
	"fmt"
	"io"
	"path"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// S3Sink uploads to an S3-compatible bucket.
type S3Sink struct {
	api    *minio.Client
	bucket string
	key    string
}

// NewS3Sink creates an S3 sink for bucket/key.
func NewS3Sink(cfg S3Config, bucket, key string) (*S3Sink, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("s3 endpoint is required")
	}
	api, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create s3 client: %w", err)
	}
	return &S3Sink{api: api, bucket: bucket, key: key}, nil
}

// Put implements Sink. The object size is unknown up front, so the upload is streamed.
func (s *S3Sink) Put(ctx context.Context, r io.Reader) (string, error) {
	info, err := s.api.PutObject(ctx, s.bucket, s.key, r, -1, minio.PutObjectOptions{
		ContentType: contentType(s.key),
	})
	if err != nil {
		return "", fmt.Errorf("upload s3://%s/%s: %w", s.bucket, s.key, err)
	}
	return fmt.Sprintf("s3://%s/%s (%d bytes)", info.Bucket, info.Key, info.Size), nil
}

func contentType(key string) string {
	switch path.Ext(key) {
	case ".csv":
		return "text/csv"
	case ".json":
		return "application/json"
	case ".zip":
		return "application/zip"
	default:
		return "application/octet-stream"
	}
}
