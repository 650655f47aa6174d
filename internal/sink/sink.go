// Package sink stores downloaded export files.
package sink

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Sink receives the body of a finished export.
type Sink interface {
	// Put stores r and returns a human-readable location.
	Put(ctx context.Context, r io.Reader) (string, error)
}

// S3Config holds the connection settings for an S3-compatible bucket.
type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// Open resolves a target. "s3://bucket/key" selects an S3 sink, "-" writes to stdout,
// anything else is treated as a local file path. A nil stdout means os.Stdout.
func Open(target string, stdout io.Writer, s3cfg S3Config) (Sink, error) {
	switch {
	case target == "":
		return nil, fmt.Errorf("sink target is required")
	case target == "-":
		if stdout == nil {
			stdout = os.Stdout
		}
		return &WriterSink{W: stdout, Name: "stdout"}, nil
	case strings.HasPrefix(target, "s3://"):
		bucket, key, err := parseS3Target(target)
		if err != nil {
			return nil, err
		}
		return NewS3Sink(s3cfg, bucket, key)
	default:
		return &FileSink{Path: target}, nil
	}
}

func parseS3Target(target string) (bucket, key string, err error) {
	rest := strings.TrimPrefix(target, "s3://")
	bucket, key, ok := strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", fmt.Errorf("invalid s3 target %q: want s3://bucket/key", target)
	}
	return bucket, key, nil
}

// FileSink writes to a local file, creating parent directories as needed.
type FileSink struct {
	Path string
}

// Put implements Sink.
func (s *FileSink) Put(_ context.Context, r io.Reader) (string, error) {
	if dir := filepath.Dir(s.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("create directory: %w", err)
		}
	}
	f, err := os.Create(s.Path)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return "", fmt.Errorf("write file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close file: %w", err)
	}
	return s.Path, nil
}

// WriterSink copies to an arbitrary writer.
type WriterSink struct {
	W    io.Writer
	Name string
}

// Put implements Sink.
func (s *WriterSink) Put(_ context.Context, r io.Reader) (string, error) {
	if _, err := io.Copy(s.W, r); err != nil {
		return "", fmt.Errorf("write %s: %w", s.Name, err)
	}
	return s.Name, nil
}
