// Package archive uploads backup exports to S3-compatible object storage.
package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"sitecanvas/internal/config"
	"sitecanvas/internal/domain"
)

// Swappable in tests
var (
	loadDefaultAWSConfig  = awsconfig.LoadDefaultConfig
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) PutObjectAPI {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

// PutObjectAPI is the subset of the S3 client the archiver needs
type PutObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Options configures the S3 connection
type Options struct {
	Bucket    string
	Region    string
	Endpoint  string // MinIO or other S3-compatible endpoint; empty for AWS
	AccessKey string // empty uses the default credential chain
	SecretKey string
}

// OptionsFromConfig extracts S3 options from the application config
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Bucket:    cfg.S3Bucket,
		Region:    cfg.S3Region,
		Endpoint:  cfg.S3Endpoint,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
	}
}

// S3Archiver stores objects in a single bucket
type S3Archiver struct {
	client PutObjectAPI
	bucket string
	logger *slog.Logger
}

// NewS3Archiver builds an S3 client from opts
func NewS3Archiver(ctx context.Context, opts Options, logger *slog.Logger) (*S3Archiver, error) {
	if opts.Bucket == "" {
		return nil, errors.New("S3 bucket cannot be empty")
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(opts.Region),
	}
	if opts.AccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		))
	}
	awsCfg, err := loadDefaultAWSConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	client := newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})

	logger.Info("S3 archiver initialized", "bucket", opts.Bucket, "region", opts.Region, "endpoint", opts.Endpoint)
	return NewS3ArchiverWithClient(client, opts.Bucket, logger), nil
}

// NewS3ArchiverWithClient wraps an existing client
func NewS3ArchiverWithClient(client PutObjectAPI, bucket string, logger *slog.Logger) *S3Archiver {
	return &S3Archiver{client: client, bucket: bucket, logger: logger}
}

// Put uploads body as a JSON object under key and returns the bucket name
func (a *S3Archiver) Put(ctx context.Context, key string, body []byte) (string, error) {
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(a.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentLength: aws.Int64(int64(len(body))),
		ContentType:   aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("put s3://%s/%s: %w: %w", a.bucket, key, domain.ErrPersistence, err)
	}
	a.logger.Debug("object stored", "bucket", a.bucket, "key", key, "bytes", len(body))
	return a.bucket, nil
}
