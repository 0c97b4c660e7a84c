package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	gormlogger "gorm.io/gorm/logger"

	"github.com/reportstack/report-file-api/internal/config"
	domain "github.com/reportstack/report-file-api/internal/domain/reportfile"
	"github.com/reportstack/report-file-api/internal/infrastructure/database"
	"github.com/reportstack/report-file-api/internal/infrastructure/logger"
	"github.com/reportstack/report-file-api/internal/infrastructure/observability"
	repo "github.com/reportstack/report-file-api/internal/infrastructure/repository/reportfile"
	"github.com/reportstack/report-file-api/internal/infrastructure/storage"
	"github.com/reportstack/report-file-api/internal/interfaces/httpserver"
)

// @title Report File API
// @version 1.0
// @description Report file lifecycle and delivery service
// @BasePath /
type Application struct {
	httpServer *httpserver.HttpServer
	log        zerolog.Logger
}

func NewApplication(httpServer *httpserver.HttpServer, log zerolog.Logger) *Application {
	return &Application{
		httpServer: httpServer,
		log:        log,
	}
}

func (a *Application) Start(ctx context.Context) error {
	return a.httpServer.Run(ctx)
}

func main() {
	loadEnvFiles()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := observability.Setup(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize observability")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown telemetry")
		}
	}()

	db, err := database.Connect(database.Config{
		DSN:             cfg.DatabaseDSN,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		ConnMaxLifetime: cfg.DBConnLifetime,
		LogLevel:        gormlogger.Warn,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("connect database")
	}

	if err := database.AutoMigrate(ctx, db, log); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	backend, err := newStorageBackend(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize storage backend")
	}

	reportFileRepository := repo.NewRepository(db)
	reportFileService := domain.NewService(cfg, reportFileRepository, backend, log)

	httpServer := httpserver.New(cfg, log, reportFileService)
	app := NewApplication(httpServer, log)

	if err := app.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("application stopped with error")
	}

	log.Info().Msg("application exited cleanly")
}

// newStorageBackend builds the configured backend and wraps it in the
// concurrency gate.
func newStorageBackend(ctx context.Context, cfg *config.Config, log zerolog.Logger) (storage.Backend, error) {
	backend, err := storage.NewFactory().Create(ctx, newStorageConfig(cfg), log)
	if err != nil {
		return nil, err
	}
	return storage.Throttle(backend, cfg.StorageMaxConcurrentOps, cfg.StorageOpTimeout), nil
}

func newStorageConfig(cfg *config.Config) storage.Config {
	return storage.Config{
		Type:            cfg.StorageType,
		Bucket:          cfg.StorageBucket,
		Region:          cfg.StorageRegion,
		Endpoint:        cfg.StorageEndpoint,
		AccessKeyID:     cfg.StorageAccessKeyID,
		SecretAccessKey: cfg.StorageSecretKey,
		UsePathStyle:    cfg.StorageUsePathStyle,
		PrivateStorage:  cfg.StoragePrivate,
		PresignExpire:   cfg.PresignExpire,
	}
}

func loadEnvFiles() {
	paths := []string{".env", "../.env"}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Overload(path); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", path, err)
			}
		}
	}
}
