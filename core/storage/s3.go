package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"tango-agenda/core/config"
	"tango-agenda/core/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Storage uploads flyer images to an S3-compatible bucket.
type Storage struct {
	client    *s3.Client
	bucket    string
	publicURL string
}

// NewStorage builds the S3 client from static credentials. An empty bucket
// disables uploads.
func NewStorage(cfg config.StorageConfig) *Storage {
	if cfg.Bucket == "" {
		return &Storage{}
	}

	client := s3.New(s3.Options{
		Region:       cfg.Region,
		BaseEndpoint: optionalEndpoint(cfg.Endpoint),
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
	})

	logger.Info("Object storage initialized", "bucket", cfg.Bucket, "region", cfg.Region)
	return &Storage{
		client:    client,
		bucket:    cfg.Bucket,
		publicURL: strings.TrimRight(cfg.PublicURL, "/"),
	}
}

// Enabled reports whether uploads are configured.
func (s *Storage) Enabled() bool {
	return s.client != nil
}

// Upload stores the object under key and returns its public URL.
func (s *Storage) Upload(ctx context.Context, key, contentType string, body io.Reader) (string, error) {
	if s.client == nil {
		return "", fmt.Errorf("object storage is not configured")
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
		Body:        body,
	})
	if err != nil {
		logger.Error("Storage:Upload", err, "key", key)
		return "", err
	}

	if s.publicURL != "" {
		return s.publicURL + "/" + key, nil
	}
	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.bucket, key), nil
}

func optionalEndpoint(endpoint string) *string {
	if endpoint == "" {
		return nil
	}
	return aws.String(endpoint)
}
