package cache

import (
	"context"
	"sync"
	"time"

	app "github.com/shopdash/backend/internal/application/dashboard"
)

// InMemoryRunCache keeps the latest run in process memory.
// Suitable for single-instance deployments and tests.
type InMemoryRunCache struct {
	mu        sync.RWMutex
	run       *app.Run
	expiresAt time.Time
	ttl       time.Duration
	now       func() time.Time
}

// NewInMemoryRunCache creates an in-memory cache. A zero ttl never expires.
func NewInMemoryRunCache(ttl time.Duration) *InMemoryRunCache {
	return &InMemoryRunCache{ttl: ttl, now: time.Now}
}

// Name identifies the sink in run reports
func (c *InMemoryRunCache) Name() string { return "memory" }

// Publish replaces the cached run
func (c *InMemoryRunCache) Publish(_ context.Context, run *app.Run) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.run = run
	if c.ttl > 0 {
		c.expiresAt = c.now().Add(c.ttl)
	}
	return nil
}

// LatestRun returns the cached run or app.ErrRunNotFound once it expired
func (c *InMemoryRunCache) LatestRun(context.Context) (*app.Run, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.run == nil {
		return nil, app.ErrRunNotFound
	}
	if c.ttl > 0 && !c.now().Before(c.expiresAt) {
		return nil, app.ErrRunNotFound
	}
	return c.run, nil
}

// Close drops the cached run
func (c *InMemoryRunCache) Close() error {
	c.mu.Lock()
	c.run = nil
	c.mu.Unlock()
	return nil
}
