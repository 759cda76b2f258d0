// Package storage archives completed runs outside the database.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.uber.org/zap"

	app "github.com/shopdash/backend/internal/application/dashboard"
	infraconfig "github.com/shopdash/backend/internal/infrastructure/config"
)

const jsonContentType = "application/json"

// S3RunArchive writes every run to S3-compatible storage (AWS S3, MinIO, ...).
// Runs are stored under <prefix>/runs/YYYY/MM/DD/<id>.json and the payload of
// the newest run under <prefix>/latest.json.
type S3RunArchive struct {
	client *s3.Client
	bucket string
	prefix string
	logger *zap.Logger
}

// S3RunArchiveOption is a functional option for configuring S3RunArchive
type S3RunArchiveOption func(*S3RunArchive)

// WithLogger sets a custom logger for S3RunArchive
func WithLogger(logger *zap.Logger) S3RunArchiveOption {
	return func(s *S3RunArchive) {
		s.logger = logger
	}
}

// NewS3RunArchive creates an archive from configuration. Without static keys
// the default AWS credential chain is used.
func NewS3RunArchive(cfg *infraconfig.StorageConfig, opts ...S3RunArchiveOption) (*S3RunArchive, error) {
	if cfg == nil {
		return nil, errors.New("storage configuration is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("storage bucket is required")
	}
	if (cfg.AccessKeyID == "") != (cfg.SecretAccessKey == "") {
		return nil, errors.New("storage access key id and secret access key must be set together")
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}

	awsCfg, err := config.LoadDefaultConfig(context.Background(), loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	endpoint := cfg.Endpoint
	if endpoint != "" && !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		endpoint = "https://" + endpoint
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})

	archive := &S3RunArchive{
		client: client,
		bucket: cfg.Bucket,
		prefix: strings.Trim(cfg.Prefix, "/"),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(archive)
	}
	return archive, nil
}

// Name identifies the sink in run reports
func (s *S3RunArchive) Name() string { return "s3" }

// Bucket returns the bucket name
func (s *S3RunArchive) Bucket() string { return s.bucket }

// RunKey returns the object key of a run
func (s *S3RunArchive) RunKey(run *app.Run) string {
	return path.Join(s.prefix, "runs", run.FinishedAt.Format("2006/01/02"), run.ID+".json")
}

// LatestKey returns the object key of the latest payload
func (s *S3RunArchive) LatestKey() string {
	return path.Join(s.prefix, "latest.json")
}

// EnsureBucket creates the bucket if it doesn't exist
func (s *S3RunArchive) EnsureBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	if err == nil {
		return nil
	}

	var notFound *types.NotFound
	var noSuchBucket *types.NoSuchBucket
	if !errors.As(err, &notFound) && !errors.As(err, &noSuchBucket) {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	s.logger.Info("Creating archive bucket", zap.String("bucket", s.bucket))
	_, err = s.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(s.bucket)})
	if err != nil {
		var alreadyOwned *types.BucketAlreadyOwnedByYou
		if errors.As(err, &alreadyOwned) {
			return nil
		}
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

// Publish uploads the run and replaces the latest payload
func (s *S3RunArchive) Publish(ctx context.Context, run *app.Run) error {
	data, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("storage: encode run: %w", err)
	}
	if err := s.put(ctx, s.RunKey(run), data); err != nil {
		return err
	}

	payload, err := json.Marshal(run.Payload)
	if err != nil {
		return fmt.Errorf("storage: encode payload: %w", err)
	}
	if err := s.put(ctx, s.LatestKey(), payload); err != nil {
		return err
	}

	s.logger.Debug("Run archived",
		zap.String("bucket", s.bucket),
		zap.String("key", s.RunKey(run)),
	)
	return nil
}

func (s *S3RunArchive) put(ctx context.Context, key string, data []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(jsonContentType),
	})
	if err != nil {
		return fmt.Errorf("storage: upload %s: %w", key, err)
	}
	return nil
}
