// Package storage provides a uniform interface over heterogeneous object
// storage providers. Concrete backends exist for AWS S3, Aliyun OSS and
// self-hosted S3-compatible gateways (MinIO); the factory selects one from
// configuration at startup.
package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"time"
)

// Backend is the capability set every storage provider implements.
// All calls may block on network I/O; production instances are wrapped by
// Throttled so they never starve concurrent request handling.
type Backend interface {
	// Type returns the backend's registry tag.
	Type() string

	// Upload transfers a local file to the backend under the exact key
	// given and returns the key. The local file is left untouched;
	// cleanup is the caller's responsibility.
	Upload(ctx context.Context, localPath, storageKey, contentType string) (string, error)

	// Presign produces a time-limited signed URL granting read access to
	// the object. Pure computation over key, ttl and credentials; never
	// mutates anything.
	Presign(ctx context.Context, storageKey string, ttl time.Duration, overrides *ResponseOverrides) (string, error)

	// Delete removes the object. Returns false, not an error, when the
	// backend reports the object already absent. Safe to repeat.
	Delete(ctx context.Context, storageKey string) (bool, error)

	// Stat returns object metadata, or a NotFound error if absent.
	Stat(ctx context.Context, storageKey string) (*ObjectInfo, error)

	// Exists reports object presence. A missing object is not an error;
	// only connectivity failures are.
	Exists(ctx context.Context, storageKey string) (bool, error)
}

// ResponseOverrides optionally forces response headers on the representation
// returned by a presigned URL.
type ResponseOverrides struct {
	ContentDisposition string
	ContentType        string
}

// ObjectInfo is backend-reported object metadata.
type ObjectInfo struct {
	Size         int64
	ContentType  string
	LastModified time.Time
	ETag         string
}

// Config holds storage backend construction settings. Required fields are
// validated by each backend constructor before any network call.
type Config struct {
	Type            string // s3, aws, oss, aliyun, minio
	Bucket          string
	Region          string // optional, backend-dependent
	Endpoint        string // required for minio, optional override otherwise
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
	PrivateStorage  bool // private vs public-read objects
	PresignExpire   time.Duration
}

// ObjectKey derives the backend object path for a report file:
// reports/YYYYMMDD/<fileID><ext>. Deterministic, never reused.
func ObjectKey(fileID, originalFilename string, at time.Time) string {
	return fmt.Sprintf("reports/%s/%s%s", at.Format("20060102"), fileID, filepath.Ext(originalFilename))
}
