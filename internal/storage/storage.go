// Package storage persists uploaded product images and hands back the
// public URLs that end up in a product's image list.
package storage

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/errgroup"
)

var (
	ErrEmptyImage       = errors.New("image is empty")
	ErrInvalidEncoding  = errors.New("image is not valid base64")
	ErrUnsupportedImage = errors.New("file is not an image")
)

// maxConcurrentUploads bounds the writes in flight for one request.
const maxConcurrentUploads = 4

// Blob is a single image waiting to be stored.
type Blob struct {
	Data []byte
}

// Uploader stores blobs and returns one URL per blob, in input order.
type Uploader interface {
	Upload(ctx context.Context, blobs []Blob) ([]string, error)
}

// DecodeBase64 accepts either raw base64 or a data URI
// ("data:image/png;base64,....").
func DecodeBase64(payload string) (Blob, error) {
	payload = strings.TrimSpace(payload)
	if strings.HasPrefix(payload, "data:") {
		comma := strings.IndexByte(payload, ',')
		if comma < 0 || !strings.HasSuffix(payload[:comma], ";base64") {
			return Blob{}, ErrInvalidEncoding
		}
		payload = payload[comma+1:]
	}
	if payload == "" {
		return Blob{}, ErrEmptyImage
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return Blob{}, fmt.Errorf("%w: %v", ErrInvalidEncoding, err)
	}
	if len(data) == 0 {
		return Blob{}, ErrEmptyImage
	}
	return Blob{Data: data}, nil
}

// object describes where a blob goes once its type is known.
type object struct {
	Name        string
	ContentType string
}

// describe sniffs the blob's type and picks a sortable unique object name.
func describe(prefix string, blob Blob) (object, error) {
	if len(blob.Data) == 0 {
		return object{}, ErrEmptyImage
	}

	mt := mimetype.Detect(blob.Data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return object{}, fmt.Errorf("%w: detected %s", ErrUnsupportedImage, mt.String())
	}

	name := strings.ToLower(ulid.Make().String()) + mt.Extension()
	if prefix = strings.Trim(prefix, "/"); prefix != "" {
		name = path.Join(prefix, name)
	}
	return object{Name: name, ContentType: mt.String()}, nil
}

// uploadAll runs put for every blob with bounded concurrency. The first
// failure cancels the rest.
func uploadAll(ctx context.Context, prefix string, blobs []Blob, put func(context.Context, object, []byte) (string, error)) ([]string, error) {
	objects := make([]object, len(blobs))
	for i, blob := range blobs {
		obj, err := describe(prefix, blob)
		if err != nil {
			return nil, fmt.Errorf("image %d: %w", i, err)
		}
		objects[i] = obj
	}

	urls := make([]string, len(blobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentUploads)
	for i := range blobs {
		g.Go(func() error {
			url, err := put(gctx, objects[i], blobs[i].Data)
			if err != nil {
				return fmt.Errorf("image %d: %w", i, err)
			}
			urls[i] = url
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return urls, nil
}

func joinURL(base string, parts ...string) string {
	base = strings.TrimRight(base, "/")
	for _, p := range parts {
		base += "/" + strings.Trim(p, "/")
	}
	return base
}
