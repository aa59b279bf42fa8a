package r2

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	appconfig "github.com/olduvai-jp/ComfyUI-S3-IO/internal/config"
)

// Client wraps the S3 client for an S3-compatible bucket (R2, MinIO, AWS)
type Client struct {
	s3Client *s3.Client
	config   *appconfig.StorageConfig
}

// NewClient creates a new storage client from configuration
func NewClient(ctx context.Context, cfg *appconfig.StorageConfig) (*Client, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
		config.WithRegion(cfg.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	endpoint := Endpoint(cfg)
	s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			// custom endpoints rarely support virtual-hosted buckets
			o.UsePathStyle = cfg.AccountID == ""
		}
	})

	return &Client{
		s3Client: s3Client,
		config:   cfg,
	}, nil
}

// Endpoint resolves the base endpoint: an explicit endpoint wins, otherwise
// the R2 endpoint of the account. Empty means the AWS default.
func Endpoint(cfg *appconfig.StorageConfig) string {
	if e := strings.TrimSpace(cfg.Endpoint); e != "" && e != "auto" {
		return strings.TrimRight(e, "/")
	}
	if cfg.AccountID != "" {
		return fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.AccountID)
	}
	return ""
}

// GetS3Client returns the underlying S3 client
func (c *Client) GetS3Client() interface{} {
	return c.s3Client
}

// GetBucketName returns the configured bucket name
func (c *Client) GetBucketName() string {
	return c.config.Bucket
}
