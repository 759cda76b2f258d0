package dashboard

import (
	"context"
	"errors"
	"time"

	"github.com/shopdash/backend/internal/domain/dashboard"
	"github.com/shopdash/backend/internal/domain/sales"
	"github.com/shopdash/backend/internal/domain/stock"
)

// Errors
var (
	ErrNoSources        = errors.New("dashboard: no channel sources configured")
	ErrRunNotFound      = errors.New("dashboard: no aggregation run available")
	ErrInvalidThreshold = errors.New("dashboard: low stock threshold must not be negative")
)

// Source produces one channel's raw snapshot. Implementations cover live
// marketplace APIs, the admin page scraper, cached files and fixtures.
type Source interface {
	Channel() sales.Channel
	// Name identifies the implementation in run outcomes (e.g. "api", "file")
	Name() string
	Fetch(ctx context.Context) (dashboard.ChannelSnapshot, error)
}

// InventoryProvider returns the externally maintained stock list
type InventoryProvider interface {
	Items(ctx context.Context) ([]stock.Item, error)
}

// Sink receives every completed run
type Sink interface {
	Name() string
	Publish(ctx context.Context, run *Run) error
}

// RunReader returns the most recent stored run or ErrRunNotFound
type RunReader interface {
	LatestRun(ctx context.Context) (*Run, error)
}

// RunHistory lists and loads stored runs, newest first
type RunHistory interface {
	List(ctx context.Context, limit int) ([]RunSummary, error)
	FindByID(ctx context.Context, id string) (*Run, error)
}

// Recorder observes runs for metrics
type Recorder interface {
	RunCompleted(d time.Duration, orders int, revenue int64)
	FetchCompleted(ch sales.Channel, status OutcomeStatus, d time.Duration)
	OrdersNormalized(ch sales.Channel, status sales.OrderStatus, n int)
	PlaceholdersDropped(ch sales.Channel, n int)
}

// NopRecorder discards all observations
type NopRecorder struct{}

func (NopRecorder) RunCompleted(time.Duration, int, int64)                   {}
func (NopRecorder) FetchCompleted(sales.Channel, OutcomeStatus, time.Duration) {}
func (NopRecorder) OrdersNormalized(sales.Channel, sales.OrderStatus, int)     {}
func (NopRecorder) PlaceholdersDropped(sales.Channel, int)                     {}
