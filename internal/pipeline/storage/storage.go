package storage

import (
	"context"
	"io"
	"time"
)

type Storage interface {
	// ListByPrefix returns every object key under the given prefix. No retry
	// policy here; callers own retries for listing failures.
	ListByPrefix(ctx context.Context, prefix string) ([]string, error)
	Upload(ctx context.Context, key string, body io.Reader) error
	Download(ctx context.Context, key string) ([]byte, error)
	// PresignUpload returns a URL a client can PUT the object to directly.
	PresignUpload(ctx context.Context, key, contentType string, ttl time.Duration) (string, error)
	// PresignDownload returns a temporary GET URL for an object.
	PresignDownload(ctx context.Context, key string, ttl time.Duration) (string, error)
}
