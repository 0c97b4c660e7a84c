//go:build wireinject

package main

import (
	"context"

	"github.com/google/wire"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/reportstack/report-file-api/internal/config"
	domain "github.com/reportstack/report-file-api/internal/domain/reportfile"
	"github.com/reportstack/report-file-api/internal/infrastructure/database"
	"github.com/reportstack/report-file-api/internal/infrastructure/logger"
	repo "github.com/reportstack/report-file-api/internal/infrastructure/repository/reportfile"
	"github.com/reportstack/report-file-api/internal/interfaces/httpserver"
)

var reportFileSet = wire.NewSet(
	repo.NewRepository,
	wire.Bind(new(domain.Store), new(*repo.Repository)),
	newStorageBackend,
	domain.NewService,
)

// BuildApplication assembles the report file API with Wire.
func BuildApplication(ctx context.Context) (*Application, error) {
	wire.Build(
		config.Load,
		logger.New,
		newDatabaseConfig,
		newGormDB,
		reportFileSet,
		httpserver.New,
		NewApplication,
	)
	return nil, nil
}

func newDatabaseConfig(cfg *config.Config) database.Config {
	return database.Config{
		DSN:             cfg.DatabaseDSN,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		ConnMaxLifetime: cfg.DBConnLifetime,
		LogLevel:        gormlogger.Warn,
	}
}

func newGormDB(ctx context.Context, cfg database.Config, log zerolog.Logger) (*gorm.DB, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, err
	}
	if err := database.AutoMigrate(ctx, db, log); err != nil {
		return nil, err
	}
	return db, nil
}
