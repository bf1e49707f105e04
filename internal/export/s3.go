package export

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"tesoretto/internal/core"
)

// Uploader is the subset of manager.Uploader the sink needs.
type Uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

type S3Config struct {
	Bucket string
	Prefix string
	Region string
	// Endpoint targets S3-compatible stores; path-style addressing is used
	// when it is set.
	Endpoint string
}

// S3Sink uploads CSV snapshots of the entry store.
type S3Sink struct {
	uploader Uploader
	bucket   string
	prefix   string
}

// NewS3Sink builds a sink from the default AWS credential chain.
func NewS3Sink(ctx context.Context, cfg S3Config) (*S3Sink, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	var loadOpts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return NewS3SinkWithUploader(manager.NewUploader(client), cfg.Bucket, cfg.Prefix), nil
}

func NewS3SinkWithUploader(u Uploader, bucket, prefix string) *S3Sink {
	return &S3Sink{uploader: u, bucket: bucket, prefix: prefix}
}

// Key is the object key for a snapshot taken at t.
func (s *S3Sink) Key(t time.Time) string {
	return path.Join(s.prefix, fmt.Sprintf("entries_%s.csv", t.UTC().Format("2006-01-02_150405")))
}

// Upload writes entries as CSV to a timestamped object and returns its key.
func (s *S3Sink) Upload(ctx context.Context, entries []core.Entry, now time.Time) (string, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, entries); err != nil {
		return "", fmt.Errorf("render csv: %w", err)
	}
	key := s.Key(now)
	start := time.Now()
	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String("text/csv"),
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	slog.InfoContext(ctx, "Entry backup uploaded",
		"bucket", s.bucket,
		"key", key,
		"entries", len(entries),
		"bytes", buf.Len(),
		"duration", time.Since(start))
	return key, nil
}
