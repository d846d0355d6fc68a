package storage

import (
	"context"
	"fmt"

	"storefront-catalog/internal/config"

	gcs "cloud.google.com/go/storage"
	"go.uber.org/zap"
)

// New builds the uploader selected by cfg.Driver. The returned close func
// releases any client the uploader holds.
func New(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (Uploader, func() error, error) {
	switch cfg.Driver {
	case "gcs":
		client, err := gcs.NewClient(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create storage client: %w", err)
		}
		uploader, err := NewGCSUploader(client, cfg.Bucket, cfg.PublicBaseURL, cfg.Prefix, logger)
		if err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		return uploader, client.Close, nil
	case "local", "":
		uploader, err := NewLocalUploader(cfg.LocalDir, cfg.PublicBaseURL, cfg.Prefix)
		if err != nil {
			return nil, nil, err
		}
		return uploader, func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
