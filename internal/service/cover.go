package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pageza/recipe-pages/backend/internal/metrics"
)

const (
	coverKeyPrefix = "recipe-covers/"
	maxCoverBytes  = 10 << 20
)

// ObjectUploader is the S3 call the mirror needs
type ObjectUploader interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3CoverMirror downloads cover images and re-uploads them to S3
type S3CoverMirror struct {
	uploader  ObjectUploader
	bucket    string
	publicURL func(key string) string
	client    *http.Client
	logger    *zap.Logger
}

// NewS3CoverMirror creates a new S3CoverMirror instance. publicURL maps an
// object key to the URL the page API will load the cover from.
func NewS3CoverMirror(uploader ObjectUploader, bucket string, publicURL func(key string) string, logger *zap.Logger) *S3CoverMirror {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &S3CoverMirror{
		uploader:  uploader,
		bucket:    bucket,
		publicURL: publicURL,
		client:    &http.Client{Timeout: 30 * time.Second},
		logger:    logger,
	}
}

// Mirror returns the S3 URL of a copy of imageURL, or imageURL itself when
// the copy could not be made
func (m *S3CoverMirror) Mirror(ctx context.Context, imageURL string) string {
	mirrored, err := m.downloadAndUpload(ctx, imageURL)
	if err != nil {
		m.logger.Warn("Failed to mirror cover, using original URL", zap.String("url", imageURL), zap.Error(err))
		return imageURL
	}
	return mirrored
}

// downloadAndUpload downloads an image from URL and uploads it to S3
func (m *S3CoverMirror) downloadAndUpload(ctx context.Context, imageURL string) (_ string, err error) {
	start := time.Now()
	defer func() { metrics.ObserveUpstream(metrics.TargetCoverMirror, start, err) }()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download image: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to download image, status: %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxCoverBytes+1))
	if err != nil {
		return "", fmt.Errorf("failed to read image data: %w", err)
	}
	if len(data) > maxCoverBytes {
		return "", fmt.Errorf("image exceeds %d bytes", maxCoverBytes)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	key := coverKeyPrefix + uuid.New().String() + coverExtension(imageURL, contentType)

	_, err = m.uploader.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(m.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	publicURL := m.publicURL(key)
	m.logger.Debug("Mirrored cover image", zap.String("url", publicURL))
	return publicURL, nil
}

// coverExtension picks a file extension from the URL path, then the content type
func coverExtension(imageURL, contentType string) string {
	if u, err := url.Parse(imageURL); err == nil {
		if ext := strings.ToLower(path.Ext(u.Path)); ext != "" && len(ext) <= 5 {
			return ext
		}
	}
	if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ""
}
