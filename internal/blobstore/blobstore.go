// Package blobstore defines the object storage used for gallery media.
package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("blob not found")

// BlobStore stores media under flat keys and issues a public URL for each.
type BlobStore interface {
	Put(ctx context.Context, key, contentType string, r io.Reader, size int64) error
	PublicURL(key string) string
	Delete(ctx context.Context, key string) error
}

// Opener is implemented by stores whose blobs are served by this process.
type Opener interface {
	Open(ctx context.Context, key string) (io.ReadCloser, string, error)
}

// NewKey returns a storage key of the form <unix-millis>-<random><ext>,
// keeping the extension of the uploaded file name.
func NewKey(fileName string, now time.Time) string {
	ext := strings.ToLower(path.Ext(fileName))
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return fmt.Sprintf("%d-%s%s", now.UnixMilli(), suffix, ext)
}

// KeyFromURL returns the last path segment of a public blob URL.
func KeyFromURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid blob url: %w", err)
	}
	key := path.Base(u.Path)
	if key == "." || key == "/" || key == "" {
		return "", fmt.Errorf("blob url %q has no key", raw)
	}
	return key, nil
}

// ValidKey reports whether key is a single safe path segment.
func ValidKey(key string) bool {
	return key != "" && key != "." && key != ".." &&
		!strings.ContainsAny(key, `/\`)
}
