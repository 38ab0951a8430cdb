package gateway

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Bucket stores an object and returns the URL it can be fetched from.
type Bucket interface {
	Put(ctx context.Context, key string, contentType string, data []byte) (string, error)
}

// DiskBucket writes objects under a root directory that the HTTP server
// exposes at publicBaseURL.
type DiskBucket struct {
	root          string
	publicBaseURL string
}

var _ Bucket = &DiskBucket{}

func NewDiskBucket(root, publicBaseURL string) *DiskBucket {
	return &DiskBucket{
		root:          root,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

func (b *DiskBucket) Put(ctx context.Context, key string, contentType string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	clean := path.Clean("/" + key)
	if clean == "/" || strings.Contains(key, "..") {
		return "", fmt.Errorf("invalid object key %q", key)
	}

	dst := filepath.Join(b.root, filepath.FromSlash(clean))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("create bucket dir: %w", err)
	}

	tmp := dst + ".part"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("write object: %w", err)
	}
	if err := os.Rename(tmp, dst); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("commit object: %w", err)
	}

	return b.publicBaseURL + clean, nil
}
