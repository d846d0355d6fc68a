package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	gcs "cloud.google.com/go/storage"
	"go.uber.org/zap"
)

const defaultGCSBaseURL = "https://storage.googleapis.com"

// GCSUploader writes images to a Cloud Storage bucket.
type GCSUploader struct {
	client  *gcs.Client
	bucket  string
	baseURL string
	prefix  string
	logger  *zap.Logger
}

// NewGCSUploader constructs an uploader backed by the provided Cloud Storage client.
func NewGCSUploader(client *gcs.Client, bucket, baseURL, prefix string, logger *zap.Logger) (*GCSUploader, error) {
	if client == nil {
		return nil, errors.New("storage uploader: client is required")
	}
	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		return nil, errors.New("storage uploader: bucket is required")
	}
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultGCSBaseURL
	}
	return &GCSUploader{client: client, bucket: bucket, baseURL: baseURL, prefix: prefix, logger: logger}, nil
}

func (u *GCSUploader) Upload(ctx context.Context, blobs []Blob) ([]string, error) {
	return uploadAll(ctx, u.prefix, blobs, u.put)
}

func (u *GCSUploader) put(ctx context.Context, obj object, data []byte) (string, error) {
	w := u.client.Bucket(u.bucket).Object(obj.Name).NewWriter(ctx)
	w.ContentType = obj.ContentType
	w.CacheControl = "public, max-age=31536000"

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("failed to write object %s: %w", obj.Name, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize object %s: %w", obj.Name, err)
	}

	u.logger.Debug("Image stored",
		zap.String("bucket", u.bucket),
		zap.String("object", obj.Name),
		zap.Int("bytes", len(data)),
	)
	return joinURL(u.baseURL, u.bucket, obj.Name), nil
}
