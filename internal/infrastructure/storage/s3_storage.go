package storage

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog"

	"github.com/reportstack/report-file-api/internal/utils/platformerrors"
)

// S3Backend stores report files in AWS S3.
type S3Backend struct {
	cfg     Config
	client  *s3.Client
	presign *s3.PresignClient
	log     zerolog.Logger
}

// NewS3Backend validates the configuration and builds the S3 client. No
// network call happens here; credential problems surface on first use.
func NewS3Backend(ctx context.Context, cfg Config, log zerolog.Logger) (Backend, error) {
	if err := requireFields(ctx, cfg, false); err != nil {
		return nil, err
	}

	resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		if cfg.Endpoint != "" {
			return aws.Endpoint{
				URL:           cfg.Endpoint,
				PartitionID:   "aws",
				SigningRegion: cfg.Region,
			}, nil
		}
		return aws.Endpoint{}, &aws.EndpointNotFoundError{}
	})

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")),
		awsconfig.WithEndpointResolverWithOptions(resolver),
	)
	if err != nil {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerInfrastructure,
			platformerrors.ErrorTypeConfiguration,
			"failed to load aws config",
			err,
			"4d8e2f1a-6b3c-4e7d-9f0a-1b2c3d4e5f6a",
		)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
	})

	return &S3Backend{
		cfg:     cfg,
		client:  client,
		presign: s3.NewPresignClient(client),
		log:     log.With().Str("component", "s3-storage").Logger(),
	}, nil
}

func (b *S3Backend) Type() string { return "s3" }

func (b *S3Backend) Upload(ctx context.Context, localPath, storageKey, contentType string) (string, error) {
	file, err := os.Open(localPath)
	if err != nil {
		return "", transferError(ctx, "failed to open local file", err)
	}
	defer file.Close()

	input := &s3.PutObjectInput{
		Bucket:      aws.String(b.cfg.Bucket),
		Key:         aws.String(storageKey),
		Body:        file,
		ContentType: aws.String(contentType),
		ACL:         b.objectACL(),
	}
	if _, err := b.client.PutObject(ctx, input); err != nil {
		return "", transferError(ctx, "failed to upload object to s3", err)
	}

	b.log.Debug().Str("key", storageKey).Msg("object uploaded")
	return storageKey, nil
}

func (b *S3Backend) Presign(ctx context.Context, storageKey string, ttl time.Duration, overrides *ResponseOverrides) (string, error) {
	input := &s3.GetObjectInput{
		Bucket: aws.String(b.cfg.Bucket),
		Key:    aws.String(storageKey),
	}
	if overrides != nil {
		if overrides.ContentDisposition != "" {
			input.ResponseContentDisposition = aws.String(overrides.ContentDisposition)
		}
		if overrides.ContentType != "" {
			input.ResponseContentType = aws.String(overrides.ContentType)
		}
	}

	req, err := b.presign.PresignGetObject(ctx, input, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", signingError(ctx, "failed to presign s3 object", err)
	}
	return req.URL, nil
}

func (b *S3Backend) Delete(ctx context.Context, storageKey string) (bool, error) {
	// S3 delete succeeds for absent keys, so presence is confirmed first.
	existed, err := b.Exists(ctx, storageKey)
	if err != nil {
		return false, err
	}

	_, err = b.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(b.cfg.Bucket),
		Key:    aws.String(storageKey),
	})
	if err != nil {
		return false, transferError(ctx, "failed to delete s3 object", err)
	}
	return existed, nil
}

func (b *S3Backend) Stat(ctx context.Context, storageKey string) (*ObjectInfo, error) {
	out, err := b.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(b.cfg.Bucket),
		Key:    aws.String(storageKey),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return nil, platformerrors.NewError(
				ctx,
				platformerrors.LayerInfrastructure,
				platformerrors.ErrorTypeNotFound,
				"object not found in s3",
				err,
				"8c1d2e3f-4a5b-4c6d-9e7f-0a1b2c3d4e5f",
			)
		}
		return nil, transferError(ctx, "failed to stat s3 object", err)
	}

	info := &ObjectInfo{}
	if out.ContentLength != nil {
		info.Size = *out.ContentLength
	}
	if out.ContentType != nil {
		info.ContentType = *out.ContentType
	}
	if out.LastModified != nil {
		info.LastModified = *out.LastModified
	}
	if out.ETag != nil {
		info.ETag = *out.ETag
	}
	return info, nil
}

func (b *S3Backend) Exists(ctx context.Context, storageKey string) (bool, error) {
	_, err := b.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(b.cfg.Bucket),
		Key:    aws.String(storageKey),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, transferError(ctx, "failed to check s3 object existence", err)
	}
	return true, nil
}

func (b *S3Backend) objectACL() types.ObjectCannedACL {
	if b.cfg.PrivateStorage {
		return types.ObjectCannedACLPrivate
	}
	return types.ObjectCannedACLPublicRead
}
