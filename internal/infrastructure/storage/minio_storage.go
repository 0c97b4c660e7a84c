package storage

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog"

	"github.com/reportstack/report-file-api/internal/utils/platformerrors"
)

// MinioBackend stores report files in a self-hosted S3-compatible gateway
// (MinIO or any provider speaking the same protocol).
type MinioBackend struct {
	cfg    Config
	client *minio.Client
	log    zerolog.Logger
}

// NewMinioBackend validates the configuration, including the mandatory
// endpoint, and builds the client.
func NewMinioBackend(ctx context.Context, cfg Config, log zerolog.Logger) (Backend, error) {
	if err := requireFields(ctx, cfg, true); err != nil {
		return nil, err
	}

	endpoint := cfg.Endpoint
	useSSL := strings.HasPrefix(endpoint, "https://")
	if parsed, err := url.Parse(endpoint); err == nil && parsed.Host != "" {
		endpoint = parsed.Host
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: useSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerInfrastructure,
			platformerrors.ErrorTypeConfiguration,
			"failed to create minio client",
			err,
			"7c8d9e0f-1a2b-4c3d-8e4f-5a6b7c8d9e0f",
		)
	}

	return &MinioBackend{
		cfg:    cfg,
		client: client,
		log:    log.With().Str("component", "minio-storage").Logger(),
	}, nil
}

func (b *MinioBackend) Type() string { return "minio" }

func (b *MinioBackend) Upload(ctx context.Context, localPath, storageKey, contentType string) (string, error) {
	opts := minio.PutObjectOptions{ContentType: contentType}
	if !b.cfg.PrivateStorage {
		opts.UserMetadata = map[string]string{"x-amz-acl": "public-read"}
	}
	if _, err := b.client.FPutObject(ctx, b.cfg.Bucket, storageKey, localPath, opts); err != nil {
		return "", transferError(ctx, "failed to upload object to minio", err)
	}
	b.log.Debug().Str("key", storageKey).Msg("object uploaded")
	return storageKey, nil
}

func (b *MinioBackend) Presign(ctx context.Context, storageKey string, ttl time.Duration, overrides *ResponseOverrides) (string, error) {
	reqParams := make(url.Values)
	if overrides != nil {
		if overrides.ContentDisposition != "" {
			reqParams.Set("response-content-disposition", overrides.ContentDisposition)
		}
		if overrides.ContentType != "" {
			reqParams.Set("response-content-type", overrides.ContentType)
		}
	}

	signed, err := b.client.PresignedGetObject(ctx, b.cfg.Bucket, storageKey, ttl, reqParams)
	if err != nil {
		return "", signingError(ctx, "failed to presign minio object", err)
	}
	return signed.String(), nil
}

func (b *MinioBackend) Delete(ctx context.Context, storageKey string) (bool, error) {
	existed, err := b.Exists(ctx, storageKey)
	if err != nil {
		return false, err
	}

	if err := b.client.RemoveObject(ctx, b.cfg.Bucket, storageKey, minio.RemoveObjectOptions{}); err != nil {
		return false, transferError(ctx, "failed to delete minio object", err)
	}
	return existed, nil
}

func (b *MinioBackend) Stat(ctx context.Context, storageKey string) (*ObjectInfo, error) {
	stat, err := b.client.StatObject(ctx, b.cfg.Bucket, storageKey, minio.StatObjectOptions{})
	if err != nil {
		if isMinioNotFound(err) {
			return nil, platformerrors.NewError(
				ctx,
				platformerrors.LayerInfrastructure,
				platformerrors.ErrorTypeNotFound,
				"object not found in minio",
				err,
				"9e0f1a2b-3c4d-4e5f-8a6b-7c8d9e0f1a2b",
			)
		}
		return nil, transferError(ctx, "failed to stat minio object", err)
	}

	return &ObjectInfo{
		Size:         stat.Size,
		ContentType:  stat.ContentType,
		LastModified: stat.LastModified,
		ETag:         stat.ETag,
	}, nil
}

func (b *MinioBackend) Exists(ctx context.Context, storageKey string) (bool, error) {
	_, err := b.client.StatObject(ctx, b.cfg.Bucket, storageKey, minio.StatObjectOptions{})
	if err != nil {
		if isMinioNotFound(err) {
			return false, nil
		}
		return false, transferError(ctx, "failed to check minio object existence", err)
	}
	return true, nil
}

func isMinioNotFound(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.Code == "NoSuchKey" || resp.StatusCode == 404
}
