// Package storage archives rendered documents in S3.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"github.com/spec-kit/erp-desk/internal/config"
)

// S3Archive uploads files to one bucket and signs download links.
type S3Archive struct {
	client   *s3.Client
	uploader *manager.Uploader
	presign  *s3.PresignClient
	cfg      config.StorageConfig
	logger   *zap.Logger
}

// NewS3Archive returns nil, nil when no bucket is configured.
func NewS3Archive(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (*S3Archive, error) {
	if !cfg.Enabled() {
		logger.Info("S3_BUCKET not provided; rendered documents are not archived")
		return nil, nil
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	} else {
		logger.Info("S3 archive using default credential chain")
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	logger.Info("S3 archive enabled", zap.String("bucket", cfg.Bucket), zap.String("region", cfg.Region))
	return &S3Archive{
		client:   client,
		uploader: manager.NewUploader(client),
		presign:  s3.NewPresignClient(client),
		cfg:      cfg,
		logger:   logger,
	}, nil
}

// Key returns {prefix}/{company}/{filename}.
func Key(prefix, companyID, filename string) string {
	if prefix == "" {
		prefix = "documents"
	}
	return path.Join(prefix, companyID, path.Base(filename))
}

// Put stores body under the company's prefix and returns the object key.
func (a *S3Archive) Put(ctx context.Context, companyID, filename, contentType string, body []byte) (string, error) {
	key := Key(a.cfg.Prefix, companyID, filename)
	_, err := a.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.cfg.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("s3 upload %s: %w", key, err)
	}
	a.logger.Debug("archived document", zap.String("key", key), zap.Int("size", len(body)))
	return key, nil
}

// PresignGet returns a temporary download URL for key.
func (a *S3Archive) PresignGet(ctx context.Context, key string) (string, error) {
	expires := time.Duration(a.cfg.PresignExpireMinutes) * time.Minute
	if expires <= 0 {
		expires = 15 * time.Minute
	}
	req, err := a.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(a.cfg.Bucket),
		Key:    aws.String(key),
	}, func(o *s3.PresignOptions) {
		o.Expires = expires
	})
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", key, err)
	}
	return req.URL, nil
}
