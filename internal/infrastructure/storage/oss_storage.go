package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"github.com/rs/zerolog"

	"github.com/reportstack/report-file-api/internal/utils/platformerrors"
)

// OSSBackend stores report files in Aliyun OSS. The OSS SDK is synchronous
// and context-unaware; the Throttled wrapper bounds its calls.
type OSSBackend struct {
	cfg    Config
	bucket *oss.Bucket
	log    zerolog.Logger
}

// NewOSSBackend validates the configuration and builds the bucket client.
// The endpoint defaults to the region's public OSS endpoint when unset.
func NewOSSBackend(ctx context.Context, cfg Config, log zerolog.Logger) (Backend, error) {
	if err := requireFields(ctx, cfg, false); err != nil {
		return nil, err
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://oss-%s.aliyuncs.com", cfg.Region)
	}

	client, err := oss.New(endpoint, cfg.AccessKeyID, cfg.SecretAccessKey)
	if err != nil {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerInfrastructure,
			platformerrors.ErrorTypeConfiguration,
			"failed to create oss client",
			err,
			"2e3f4a5b-6c7d-4e8f-9a0b-1c2d3e4f5a6b",
		)
	}

	bucket, err := client.Bucket(cfg.Bucket)
	if err != nil {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerInfrastructure,
			platformerrors.ErrorTypeConfiguration,
			"failed to open oss bucket",
			err,
			"4f5a6b7c-8d9e-4f0a-8b1c-2d3e4f5a6b7c",
		)
	}

	return &OSSBackend{
		cfg:    cfg,
		bucket: bucket,
		log:    log.With().Str("component", "oss-storage").Logger(),
	}, nil
}

func (b *OSSBackend) Type() string { return "oss" }

func (b *OSSBackend) Upload(ctx context.Context, localPath, storageKey, contentType string) (string, error) {
	opts := []oss.Option{
		oss.ContentType(contentType),
		oss.ObjectACL(b.objectACL()),
	}
	if err := b.bucket.PutObjectFromFile(storageKey, localPath, opts...); err != nil {
		return "", transferError(ctx, "failed to upload object to oss", err)
	}
	b.log.Debug().Str("key", storageKey).Msg("object uploaded")
	return storageKey, nil
}

func (b *OSSBackend) Presign(ctx context.Context, storageKey string, ttl time.Duration, overrides *ResponseOverrides) (string, error) {
	var opts []oss.Option
	if overrides != nil {
		if overrides.ContentDisposition != "" {
			opts = append(opts, oss.ResponseContentDisposition(overrides.ContentDisposition))
		}
		if overrides.ContentType != "" {
			opts = append(opts, oss.ResponseContentType(overrides.ContentType))
		}
	}

	url, err := b.bucket.SignURL(storageKey, oss.HTTPGet, int64(ttl.Seconds()), opts...)
	if err != nil {
		return "", signingError(ctx, "failed to sign oss url", err)
	}
	return url, nil
}

func (b *OSSBackend) Delete(ctx context.Context, storageKey string) (bool, error) {
	existed, err := b.Exists(ctx, storageKey)
	if err != nil {
		return false, err
	}

	if err := b.bucket.DeleteObject(storageKey); err != nil {
		return false, transferError(ctx, "failed to delete oss object", err)
	}
	return existed, nil
}

func (b *OSSBackend) Stat(ctx context.Context, storageKey string) (*ObjectInfo, error) {
	headers, err := b.bucket.GetObjectDetailedMeta(storageKey)
	if err != nil {
		if isOSSNotFound(err) {
			return nil, platformerrors.NewError(
				ctx,
				platformerrors.LayerInfrastructure,
				platformerrors.ErrorTypeNotFound,
				"object not found in oss",
				err,
				"5a6b7c8d-9e0f-4a1b-8c2d-3e4f5a6b7c8d",
			)
		}
		return nil, transferError(ctx, "failed to stat oss object", err)
	}

	info := &ObjectInfo{
		ContentType: headers.Get("Content-Type"),
		ETag:        headers.Get("Etag"),
	}
	if raw := headers.Get("Content-Length"); raw != "" {
		if size, convErr := strconv.ParseInt(raw, 10, 64); convErr == nil {
			info.Size = size
		}
	}
	if raw := headers.Get("Last-Modified"); raw != "" {
		if ts, parseErr := time.Parse(time.RFC1123, raw); parseErr == nil {
			info.LastModified = ts
		}
	}
	return info, nil
}

func (b *OSSBackend) Exists(ctx context.Context, storageKey string) (bool, error) {
	exists, err := b.bucket.IsObjectExist(storageKey)
	if err != nil {
		return false, transferError(ctx, "failed to check oss object existence", err)
	}
	return exists, nil
}

func (b *OSSBackend) objectACL() oss.ACLType {
	if b.cfg.PrivateStorage {
		return oss.ACLPrivate
	}
	return oss.ACLPublicRead
}

func isOSSNotFound(err error) bool {
	var serviceErr oss.ServiceError
	if errors.As(err, &serviceErr) {
		return serviceErr.StatusCode == 404
	}
	return false
}
