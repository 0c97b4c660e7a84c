package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/reportstack/report-file-api/internal/utils/platformerrors"
)

// Constructor builds a concrete backend from configuration.
type Constructor func(ctx context.Context, cfg Config, log zerolog.Logger) (Backend, error)

// Factory maps lowercase type tags to backend constructors. New providers
// register a tag; nothing else changes.
type Factory struct {
	mu           sync.RWMutex
	constructors map[string]Constructor
}

// NewFactory returns a factory with the built-in backends registered.
func NewFactory() *Factory {
	f := &Factory{constructors: make(map[string]Constructor)}
	f.Register("s3", NewS3Backend)
	f.Register("aws", NewS3Backend)
	f.Register("oss", NewOSSBackend)
	f.Register("aliyun", NewOSSBackend)
	f.Register("minio", NewMinioBackend)
	return f
}

// Register adds or replaces a constructor for the given tag.
func (f *Factory) Register(tag string, ctor Constructor) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.constructors[strings.ToLower(tag)] = ctor
}

// Tags returns the registered type tags, sorted.
func (f *Factory) Tags() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	tags := make([]string, 0, len(f.constructors))
	for tag := range f.constructors {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// Create builds the backend named by cfg.Type. Constructor failures
// propagate unchanged; only an unknown tag is translated here.
func (f *Factory) Create(ctx context.Context, cfg Config, log zerolog.Logger) (Backend, error) {
	tag := strings.ToLower(strings.TrimSpace(cfg.Type))

	f.mu.RLock()
	ctor, ok := f.constructors[tag]
	f.mu.RUnlock()

	if !ok {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerInfrastructure,
			platformerrors.ErrorTypeUnsupportedBackend,
			fmt.Sprintf("unsupported storage type %q, supported types: %s", tag, strings.Join(f.Tags(), ", ")),
			nil,
			"0f1a2b3c-4d5e-4f6a-8b7c-8d9e0f1a2b3c",
		)
	}

	log.Info().Str("backend", tag).Msg("creating storage backend")
	return ctor(ctx, cfg, log)
}
