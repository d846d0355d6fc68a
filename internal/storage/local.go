package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LocalUploader writes images under a directory served at baseURL.
type LocalUploader struct {
	dir     string
	baseURL string
	prefix  string
}

func NewLocalUploader(dir, baseURL, prefix string) (*LocalUploader, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("storage uploader: directory is required")
	}
	return &LocalUploader{dir: dir, baseURL: baseURL, prefix: prefix}, nil
}

// Dir is the root directory images are written to.
func (u *LocalUploader) Dir() string {
	return u.dir
}

func (u *LocalUploader) Upload(ctx context.Context, blobs []Blob) ([]string, error) {
	return uploadAll(ctx, u.prefix, blobs, u.put)
}

func (u *LocalUploader) put(ctx context.Context, obj object, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	target := filepath.Join(u.dir, filepath.FromSlash(obj.Name))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("failed to create image directory: %w", err)
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write image %s: %w", obj.Name, err)
	}
	return joinURL(u.baseURL, obj.Name), nil
}
