// Package storage provides object storage for cached map previews.
//
// This package defines a Storage interface with implementations for:
// - LocalStorage: File system storage for development
// - S3Storage: S3-compatible object storage for production
package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/DukeRupert/wayfind/internal/i18n"
	"github.com/DukeRupert/wayfind/internal/maps"
)

// Storage defines the interface for object storage operations.
//
// All methods are context-aware for timeout and cancellation support.
type Storage interface {
	// Put stores data at the specified key with the given options.
	// Returns ErrKeyExists if the key exists and overwrite is disabled.
	Put(ctx context.Context, key string, data io.Reader, opts PutOptions) error

	// Get retrieves the data at the specified key.
	// Returns the data as an io.ReadCloser (caller must close), object
	// metadata, and an error. Returns ErrNotFound if the key doesn't exist.
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)

	// Delete removes the object at the specified key.
	// This operation is idempotent - no error is returned if the key doesn't exist.
	Delete(ctx context.Context, key string) error

	// Exists checks if an object exists at the specified key.
	Exists(ctx context.Context, key string) (bool, error)

	// List returns metadata for all objects whose key starts with prefix.
	// Used by the maintenance worker to prune stale previews.
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)
}

// PutOptions configures how an object is stored.
type PutOptions struct {
	// ContentType specifies the MIME type of the object.
	// If empty, it will be detected from the key extension or content.
	ContentType string

	// MaxSize specifies the maximum allowed size in bytes.
	// If the data exceeds this size, ErrTooLarge is returned.
	// A value of 0 means no limit.
	MaxSize int64

	// Overwrite allows replacing an existing object at the same key.
	// If false and the key exists, ErrKeyExists is returned.
	Overwrite bool
}

// ObjectInfo contains metadata about a stored object.
type ObjectInfo struct {
	Key          string    // Object key/path
	Size         int64     // Size in bytes
	ContentType  string    // MIME type
	LastModified time.Time // Last modification time
	ETag         string    // Entity tag (if available)
}

// LocalConfig holds configuration for local filesystem storage.
type LocalConfig struct {
	// BasePath is the root directory where objects are stored.
	BasePath string

	// BaseURL is the public URL prefix for accessing objects.
	BaseURL string
}

// S3Config holds configuration for S3-compatible object storage.
type S3Config struct {
	// Endpoint is the storage endpoint URL. Leave empty for AWS S3 proper;
	// set it for R2, MinIO and other compatible providers.
	Endpoint string

	// Region is the region to use. Compatible providers usually accept "auto".
	Region string

	AccessKeyID     string
	SecretAccessKey string
	BucketName      string

	// PublicURL is the public URL for the bucket when fronted by a CDN or
	// custom domain. Informational only for the preview cache.
	PublicURL string
}

// Provider identifiers accepted by STORAGE_PROVIDER.
const (
	ProviderLocal = "local"
	ProviderS3    = "s3"
)

// PreviewPrefix is the key prefix shared by all cached previews.
const PreviewPrefix = "previews/"

// PreviewKey generates the cache key for a composed map preview.
// Format: previews/{locationKey}/{format}_{lang}.png
func PreviewKey(locationKey string, format maps.Format, lang i18n.Lang) string {
	return fmt.Sprintf("%s%s/%s_%s.png", PreviewPrefix, locationKey, format, lang)
}
