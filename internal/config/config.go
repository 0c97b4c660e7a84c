package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds the environment driven configuration for the report file service.
type Config struct {
	// Service Configuration
	ServiceName     string        `env:"SERVICE_NAME" envDefault:"report-file-api"`
	Environment     string        `env:"ENVIRONMENT" envDefault:"development"`
	HTTPPort        int           `env:"REPORT_API_PORT" envDefault:"8290"`
	LogLevel        string        `env:"REPORT_LOG_LEVEL" envDefault:"info"`
	OTLPEndpoint    string        `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:""`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// Database (required)
	DatabaseDSN string `env:"DB_POSTGRESQL_DSN,notEmpty"`

	// Database Connection Pool
	DBMaxIdleConns int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	DBMaxOpenConns int           `env:"DB_MAX_OPEN_CONNS" envDefault:"15"`
	DBConnLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"30m"`

	// Storage Backend Selection
	StorageType string `env:"STORAGE_TYPE" envDefault:"s3"` // s3, aws, oss, aliyun, minio

	// Storage Configuration
	StorageBucket       string        `env:"STORAGE_BUCKET"`
	StorageRegion       string        `env:"STORAGE_REGION"`
	StorageEndpoint     string        `env:"STORAGE_ENDPOINT"` // required for minio, optional for oss
	StorageAccessKeyID  string        `env:"STORAGE_ACCESS_KEY_ID"`
	StorageSecretKey    string        `env:"STORAGE_SECRET_ACCESS_KEY"`
	StorageUsePathStyle bool          `env:"STORAGE_USE_PATH_STYLE" envDefault:"true"`
	StoragePrivate      bool          `env:"STORAGE_PRIVATE" envDefault:"true"`
	PresignExpire       time.Duration `env:"STORAGE_PRESIGN_EXPIRE" envDefault:"1h"`

	// Every backend SDK call runs through a bounded gate so blocking
	// calls never starve concurrent request handling.
	StorageMaxConcurrentOps int64         `env:"STORAGE_MAX_CONCURRENT_OPS" envDefault:"8"`
	StorageOpTimeout        time.Duration `env:"STORAGE_OP_TIMEOUT" envDefault:"30s"`

	// Report File Configuration
	DefaultTTLDays     int    `env:"REPORT_DEFAULT_TTL_DAYS" envDefault:"30"`
	DefaultContentType string `env:"REPORT_DEFAULT_CONTENT_TYPE" envDefault:"application/vnd.openxmlformats-officedocument.wordprocessingml.document"`
}

// Load parses environment variables into Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env config: %w", err)
	}

	cfg.StorageType = strings.ToLower(strings.TrimSpace(cfg.StorageType))
	cfg.StorageBucket = strings.TrimSpace(cfg.StorageBucket)
	cfg.StorageAccessKeyID = strings.TrimSpace(cfg.StorageAccessKeyID)
	cfg.StorageSecretKey = strings.TrimSpace(cfg.StorageSecretKey)
	cfg.StorageEndpoint = strings.TrimSpace(cfg.StorageEndpoint)

	if cfg.PresignExpire <= 0 {
		cfg.PresignExpire = time.Hour
	}
	if cfg.StorageMaxConcurrentOps <= 0 {
		cfg.StorageMaxConcurrentOps = 8
	}

	return cfg, nil
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}
