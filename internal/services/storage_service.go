package services

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// StorageService stores and removes publicly served objects.
type StorageService interface {
	Upload(ctx context.Context, key, contentType string, body []byte) (string, error)
	Delete(ctx context.Context, key string) error
	PublicURL(key string) string
}

// S3Storage implements StorageService on top of an S3 bucket.
type S3Storage struct {
	client  *s3.Client
	bucket  string
	region  string
	cdnBase string
}

// NewS3Storage builds an S3-backed store. Static credentials are used when
// provided, otherwise the default AWS credential chain applies.
func NewS3Storage(ctx context.Context, region, bucket, accessKey, secretKey, cdnBase string) (*S3Storage, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(region),
	}
	if accessKey != "" && secretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(strings.TrimSpace(accessKey), strings.TrimSpace(secretKey), ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return &S3Storage{
		client:  s3.NewFromConfig(cfg),
		bucket:  bucket,
		region:  region,
		cdnBase: strings.TrimRight(cdnBase, "/"),
	}, nil
}

// Upload writes the object and returns its public URL.
func (s *S3Storage) Upload(ctx context.Context, key, contentType string, body []byte) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("s3 put object: %w", err)
	}
	return s.PublicURL(key), nil
}

// Delete removes the object. Callers treat failures as best-effort.
func (s *S3Storage) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("s3 delete object: %w", err)
	}
	return nil
}

// PublicURL builds the serving URL for a stored key, preferring the CDN
// base when one is configured.
func (s *S3Storage) PublicURL(key string) string {
	if s.cdnBase != "" {
		return s.cdnBase + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, (&url.URL{Path: key}).EscapedPath())
}

// ImageKey derives a fresh object key for an uploaded category image.
func ImageKey(folder, filename string) string {
	ext := "jpeg"
	if i := strings.LastIndex(filename, "."); i >= 0 && i < len(filename)-1 {
		ext = strings.ToLower(filename[i+1:])
	}
	if ext == "jfif" || ext == "octet-stream" {
		ext = "jpeg"
	}
	return fmt.Sprintf("%s/%d.%s", folder, time.Now().UnixNano(), ext)
}

// KeyFromURL recovers the object key embedded in a public URL. Used when a
// row predates key tracking.
func KeyFromURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(parsed.Path, "/")
}

// CleanupUpload deletes an already-uploaded object after a later
// validation failure; errors are logged, not propagated.
func CleanupUpload(ctx context.Context, storage StorageService, key string) {
	if key == "" {
		return
	}
	if err := storage.Delete(ctx, key); err != nil {
		log.Printf("[Storage] cleanup of %s failed: %v", key, err)
	}
}
