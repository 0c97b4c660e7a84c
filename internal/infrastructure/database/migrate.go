package database

import (
	"context"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/reportstack/report-file-api/internal/infrastructure/database/entities"
)

// AutoMigrate applies database schema changes.
func AutoMigrate(ctx context.Context, db *gorm.DB, log zerolog.Logger) error {
	if err := db.WithContext(ctx).AutoMigrate(
		&entities.ReportFile{},
		&entities.FileAccessLog{},
	); err != nil {
		return err
	}
	log.Info().Msg("applied report file migrations")
	return nil
}
