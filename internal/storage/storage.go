package storage

import (
	"context"
	"time"
)

// Default expiry duration for presigned URLs
const DefaultPresignedURLExpiry = 15 * time.Minute

// FileStorage is the object store holding generated badge media. Badge
// bytes are produced server-side, so uploads go through the backend;
// clients only ever receive short-lived download URLs.
type FileStorage interface {
	// Upload writes an object under the given key.
	Upload(ctx context.Context, objectKey string, contentType string, data []byte) error

	// GeneratePresignedDownloadURL creates a temporary URL that allows GET
	// requests for the object directly from the storage provider.
	GeneratePresignedDownloadURL(ctx context.Context, objectKey string, expires time.Duration) (string, error)
}
