// Package storage defines the interface for object storage operations.
// Swap implementations by changing the concrete type injected at startup —
// the MinIO implementation works with any S3-compatible provider (MinIO,
// Backblaze B2, AWS S3), the local implementation serves files from disk.
package storage

import (
	"context"
	"io"
	"time"
)

// Link is a time-limited, browser-usable download URL. The authorizing token
// is embedded in the URL's query string, so no custom headers are needed to
// follow it.
type Link struct {
	URL       string
	ExpiresAt time.Time
}

// Storage is the interface for uploading objects and issuing download links.
type Storage interface {
	// Upload streams data to the store under the given key and returns the
	// backend-assigned version identifier for the created object.
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (string, error)
	// PresignLink issues a download link for key that expires after ttl.
	// Each call mints a fresh token; links are never cached or persisted.
	PresignLink(ctx context.Context, key string, ttl time.Duration) (*Link, error)
}
