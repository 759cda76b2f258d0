package cache

import (
	"fmt"

	"go.uber.org/zap"

	app "github.com/shopdash/backend/internal/application/dashboard"
	"github.com/shopdash/backend/internal/infrastructure/config"
)

// RunCache is a run sink that also serves the latest run
type RunCache interface {
	app.Sink
	app.RunReader
	Close() error
}

// Factory creates run caches based on configuration
type Factory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// FactoryOption is a functional option for configuring the factory
type FactoryOption func(*Factory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) FactoryOption {
	return func(f *Factory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether an unreachable Redis degrades to
// the in-memory cache. Default is true.
func WithInMemoryFallback(allow bool) FactoryOption {
	return func(f *Factory) {
		f.allowInMemoryFallback = allow
	}
}

// NewFactory creates a new factory
func NewFactory(cfg config.RedisConfig, opts ...FactoryOption) *Factory {
	f := &Factory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Create returns a Redis cache when enabled and reachable, otherwise an
// in-memory cache.
func (f *Factory) Create() (RunCache, error) {
	if !f.redisConfig.Enabled {
		f.logger.Info("Redis disabled, using in-memory run cache")
		return NewInMemoryRunCache(f.redisConfig.PayloadTTL), nil
	}

	store, err := NewRedisRunCache(RedisConfig{
		Host:      f.redisConfig.Host,
		Port:      f.redisConfig.Port,
		Password:  f.redisConfig.Password,
		DB:        f.redisConfig.DB,
		KeyPrefix: f.redisConfig.KeyPrefix,
		TTL:       f.redisConfig.PayloadTTL,
	})
	if err == nil {
		f.logger.Info("Using Redis run cache", zap.String("addr", f.redisConfig.Addr()))
		return store, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("redis run cache unavailable: %w", err)
	}
	f.logger.Warn("Redis unavailable, falling back to in-memory run cache", zap.Error(err))
	return NewInMemoryRunCache(f.redisConfig.PayloadTTL), nil
}

var (
	_ RunCache = (*RedisRunCache)(nil)
	_ RunCache = (*InMemoryRunCache)(nil)
)
