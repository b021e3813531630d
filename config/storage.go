package config

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Config holds S3 client and bucket info for mirrored recipe covers
type S3Config struct {
	Client     *s3.Client
	BucketName string
	Region     string
}

// NewS3Config initializes the S3 client from the cover settings and the
// standard AWS credential chain
func NewS3Config(ctx context.Context, cover CoverConfig) (*S3Config, error) {
	if cover.Bucket == "" {
		return nil, fmt.Errorf("cover bucket is not configured")
	}

	var opts []func(*awsconfig.LoadOptions) error
	if cover.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cover.Region))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &S3Config{
		Client:     s3.NewFromConfig(awsCfg),
		BucketName: cover.Bucket,
		Region:     awsCfg.Region,
	}, nil
}

// PublicURL returns the virtual-hosted URL of an object in the bucket
func (s *S3Config) PublicURL(key string) string {
	if s.Region == "" {
		return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.BucketName, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.BucketName, s.Region, key)
}

// Bucket returns the bucket name as an SDK string pointer
func (s *S3Config) Bucket() *string {
	return aws.String(s.BucketName)
}
