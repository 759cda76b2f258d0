// Package cache keeps the latest aggregation run close to the HTTP layer.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	app "github.com/shopdash/backend/internal/application/dashboard"
)

const latestRunKey = "run:latest"

// RedisRunCache stores the latest run in Redis so that several API instances
// serve the same data.
type RedisRunCache struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host      string
	Port      int
	Password  string
	DB        int
	KeyPrefix string
	TTL       time.Duration
}

// NewRedisRunCache connects to Redis and verifies the connection
func NewRedisRunCache(cfg RedisConfig) (*RedisRunCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return NewRedisRunCacheWithClient(client, cfg.KeyPrefix, cfg.TTL), nil
}

// NewRedisRunCacheWithClient creates a cache over an existing client.
// A zero ttl keeps the entry until the next run replaces it.
func NewRedisRunCacheWithClient(client *redis.Client, keyPrefix string, ttl time.Duration) *RedisRunCache {
	return &RedisRunCache{client: client, keyPrefix: keyPrefix, ttl: ttl}
}

// Name identifies the sink in run reports
func (c *RedisRunCache) Name() string { return "redis" }

// Key returns the Redis key holding the latest run
func (c *RedisRunCache) Key() string { return c.keyPrefix + latestRunKey }

// Publish replaces the cached run
func (c *RedisRunCache) Publish(ctx context.Context, run *app.Run) error {
	data, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("cache: encode run: %w", err)
	}
	if err := c.client.Set(ctx, c.Key(), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache: store run: %w", err)
	}
	return nil
}

// LatestRun returns the cached run or app.ErrRunNotFound
func (c *RedisRunCache) LatestRun(ctx context.Context) (*app.Run, error) {
	data, err := c.client.Get(ctx, c.Key()).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, app.ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("cache: load run: %w", err)
	}

	var run app.Run
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, fmt.Errorf("cache: decode run: %w", err)
	}
	return &run, nil
}

// Ping checks the Redis connection
func (c *RedisRunCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis client
func (c *RedisRunCache) Close() error {
	return c.client.Close()
}
