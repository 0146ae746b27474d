// Package storage provides the object store shared by the pipeline stages.
package storage

import (
	"context"
	"errors"
	"path"
	"strings"
	"time"
)

// Common errors.
var (
	// ErrNotFound is returned when an object does not exist.
	ErrNotFound = errors.New("object not found")

	// ErrMissingBucket is returned when the S3 backend has no bucket configured.
	ErrMissingBucket = errors.New("missing S3_BUCKET environment variable")

	// ErrUnknownBackend is returned for an unsupported STORAGE_BACKEND value.
	ErrUnknownBackend = errors.New("unknown storage backend")
)

// Object describes a stored object.
type Object struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// Store is a flat key/value object store with prefix listing.
// Each operation is atomic per object; nothing spans objects.
type Store interface {
	// List returns every object under prefix in lexicographic key order.
	List(ctx context.Context, prefix string) ([]Object, error)

	// Get returns an object's body or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put writes an object, replacing any existing one.
	Put(ctx context.Context, key string, body []byte, metadata map[string]string) error

	// Copy duplicates src to dst. It returns ErrNotFound when src is missing.
	Copy(ctx context.Context, src, dst string) error

	// Delete removes an object. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// contentType picks the Content-Type stored alongside an object.
func contentType(key string) string {
	switch strings.ToLower(path.Ext(key)) {
	case ".json":
		return "application/json"
	case ".csv":
		return "text/csv"
	case ".parquet":
		return "application/vnd.apache.parquet"
	default:
		return "application/octet-stream"
	}
}
