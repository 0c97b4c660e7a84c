package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/reportstack/report-file-api/internal/utils/platformerrors"
)

// requireFields checks construction-time settings and fails fast with a
// Configuration error before any network call is attempted.
func requireFields(ctx context.Context, cfg Config, endpointRequired bool) error {
	var missing []string
	if cfg.Bucket == "" {
		missing = append(missing, "bucket")
	}
	if cfg.AccessKeyID == "" {
		missing = append(missing, "access key id")
	}
	if cfg.SecretAccessKey == "" {
		missing = append(missing, "secret access key")
	}
	if endpointRequired && cfg.Endpoint == "" {
		missing = append(missing, "endpoint")
	}
	if len(missing) == 0 {
		return nil
	}
	return platformerrors.NewError(
		ctx,
		platformerrors.LayerInfrastructure,
		platformerrors.ErrorTypeConfiguration,
		fmt.Sprintf("storage backend %q missing required settings: %s", cfg.Type, strings.Join(missing, ", ")),
		nil,
		"6a7b8c9d-0e1f-4a2b-8c3d-4e5f6a7b8c9d",
	)
}

func transferError(ctx context.Context, message string, err error) error {
	return platformerrors.NewError(
		ctx,
		platformerrors.LayerInfrastructure,
		platformerrors.ErrorTypeTransfer,
		message,
		err,
		"1b2c3d4e-5f6a-4b7c-8d9e-0f1a2b3c4d5e",
	)
}

func signingError(ctx context.Context, message string, err error) error {
	return platformerrors.NewError(
		ctx,
		platformerrors.LayerInfrastructure,
		platformerrors.ErrorTypeSigning,
		message,
		err,
		"3d4e5f6a-7b8c-4d9e-8f0a-1b2c3d4e5f6a",
	)
}
