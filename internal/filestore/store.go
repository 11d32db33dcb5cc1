// Package filestore defines the interface for object storage backends.
//
// Callers depend only on this package, never on a specific provider package.
//
// Usage:
//
//	cfg := filestore.DefaultConfig("localhost:9000", "minioadmin", "minioadmin")
//	store, err := minio.New(ctx, cfg)
//	if err != nil { ... }
//	defer store.Close()
//
//	err = store.PutObject(ctx, cfg.Bucket, "sync/state.json", r, size, "application/json")
package filestore

import (
	"context"
	"io"
)

// Store is the single interface all file storage providers must implement.
type Store interface {
	// Ping verifies the storage backend is reachable.
	Ping(ctx context.Context) error

	// Close releases any held resources.
	Close() error

	// EnsureBucket creates bucket if it does not exist yet.
	EnsureBucket(ctx context.Context, bucket string) error

	// GetObject opens a streaming handle to the object at key inside bucket.
	// A missing object is reported as errs.ErrKindNotFound.
	GetObject(ctx context.Context, bucket, key string) (Object, error)

	// PutObject stores size bytes from r at key, replacing any previous
	// object. The write is all-or-nothing: readers see either the old or the
	// new content.
	PutObject(ctx context.Context, bucket, key string, r io.Reader, size int64, contentType string) error

	// StatObject returns metadata for the object at key inside bucket
	// without downloading its content.
	StatObject(ctx context.Context, bucket, key string) (*ObjectInfo, error)
}
