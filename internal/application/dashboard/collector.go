package dashboard

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopdash/backend/internal/application/aggregate"
	"github.com/shopdash/backend/internal/application/normalize"
	"github.com/shopdash/backend/internal/domain/dashboard"
	"github.com/shopdash/backend/internal/domain/sales"
	"github.com/shopdash/backend/internal/domain/stock"
	"github.com/shopdash/backend/internal/infrastructure/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const tracerName = "github.com/shopdash/backend/internal/application/dashboard"

// CollectorConfig holds run parameters
type CollectorConfig struct {
	Location          *time.Location
	Policy            sales.StatusPolicy
	Placeholders      []normalize.PlaceholderFilter
	LowStockThreshold int
	// FetchTimeout bounds each source fetch; zero means no extra bound
	FetchTimeout time.Duration
}

// DefaultCollectorConfig returns the production defaults
func DefaultCollectorConfig() CollectorConfig {
	loc, err := time.LoadLocation("Asia/Seoul")
	if err != nil {
		loc = time.FixedZone("KST", 9*60*60)
	}
	return CollectorConfig{
		Location:          loc,
		Policy:            sales.DefaultStatusPolicy,
		Placeholders:      []normalize.PlaceholderFilter{{Channel: sales.ChannelNaver, Prefix: "EST-"}},
		LowStockThreshold: stock.DefaultThreshold,
		FetchTimeout:      30 * time.Second,
	}
}

// CollectorOption configures a Collector
type CollectorOption func(*Collector)

// WithInventory sets the inventory provider
func WithInventory(p InventoryProvider) CollectorOption {
	return func(c *Collector) { c.inventory = p }
}

// WithSinks appends sinks; they receive runs in the given order
func WithSinks(sinks ...Sink) CollectorOption {
	return func(c *Collector) { c.sinks = append(c.sinks, sinks...) }
}

// WithRecorder sets the metrics recorder
func WithRecorder(r Recorder) CollectorOption {
	return func(c *Collector) { c.recorder = r }
}

// WithClock overrides the run clock
func WithClock(now func() time.Time) CollectorOption {
	return func(c *Collector) { c.now = now }
}

// Collector executes aggregation runs
type Collector struct {
	cfg       CollectorConfig
	sources   []Source
	inventory InventoryProvider
	sinks     []Sink
	recorder  Recorder
	pipeline  *normalize.Pipeline
	logger    *zap.Logger
	tracer    trace.Tracer
	now       func() time.Time

	mu sync.Mutex
}

// NewCollector creates a collector over the given sources. Each channel may
// have at most one source; wrap alternatives in a FallbackSource.
func NewCollector(cfg CollectorConfig, sources []Source, log *zap.Logger, opts ...CollectorOption) (*Collector, error) {
	if len(sources) == 0 {
		return nil, ErrNoSources
	}
	seen := make(map[sales.Channel]bool, len(sources))
	for _, src := range sources {
		if !src.Channel().IsValid() {
			return nil, fmt.Errorf("%w: %q", sales.ErrUnknownChannel, src.Channel())
		}
		if seen[src.Channel()] {
			return nil, fmt.Errorf("dashboard: duplicate source for channel %s", src.Channel())
		}
		seen[src.Channel()] = true
	}

	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if len(cfg.Policy.Order) == 0 {
		cfg.Policy = sales.DefaultStatusPolicy
	}
	if cfg.LowStockThreshold < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidThreshold, cfg.LowStockThreshold)
	}
	if log == nil {
		log = zap.NewNop()
	}

	c := &Collector{
		cfg:      cfg,
		sources:  sources,
		recorder: NopRecorder{},
		pipeline: normalize.NewPipeline(cfg.Policy, cfg.Location, cfg.Placeholders...),
		logger:   log,
		tracer:   otel.Tracer(tracerName),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Location returns the run time zone
func (c *Collector) Location() *time.Location {
	return c.cfg.Location
}

// Run performs one aggregation. Source and inventory failures degrade the
// run instead of failing it; only cancellation of ctx aborts it.
func (c *Collector) Run(ctx context.Context) (*Run, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	run := &Run{ID: uuid.NewString(), StartedAt: c.now().In(c.cfg.Location)}
	ctx, log := logger.WithRunID(ctx, c.logger, run.ID)

	ctx, span := c.tracer.Start(ctx, "dashboard.Run", trace.WithAttributes(attribute.String("run.id", run.ID)))
	defer span.End()

	started := time.Now()
	snapshots := make([]dashboard.ChannelSnapshot, len(c.sources))
	run.Outcomes = make([]SourceOutcome, len(c.sources))
	var items []stock.Item
	var inventoryErr error

	var g errgroup.Group
	for i, src := range c.sources {
		g.Go(func() error {
			snapshots[i], run.Outcomes[i] = c.fetch(ctx, src, log)
			return nil
		})
	}
	if c.inventory != nil {
		g.Go(func() error {
			items, inventoryErr = c.inventory.Items(ctx)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		span.SetStatus(codes.Error, "cancelled")
		return nil, err
	}

	if inventoryErr != nil {
		log.Warn("Inventory unavailable, continuing without stock data", zap.Error(inventoryErr))
		run.Warnings = append(run.Warnings, "inventory: "+inventoryErr.Error())
		items = nil
	}

	normalized := c.pipeline.Normalize(snapshots)
	for i := range run.Outcomes {
		o := &run.Outcomes[i]
		o.Orders = normalized.PerChannel[o.Channel]
		o.Dropped = normalized.Placeholders[o.Channel]
		c.reconcile(log, *o)
		if o.Dropped > 0 {
			c.recorder.PlaceholdersDropped(o.Channel, o.Dropped)
		}
	}

	now := c.now().In(c.cfg.Location)
	res := aggregate.Aggregate(normalized.Orders, now)
	run.Payload = BuildPayload(res, stock.Merge(items, c.cfg.LowStockThreshold), now)
	run.Orders = res.Orders
	run.FinishedAt = now

	for _, ch := range sales.AllChannels() {
		perStatus := make(map[sales.OrderStatus]int)
		for _, o := range res.Orders {
			if o.Channel == ch {
				perStatus[o.Status]++
			}
		}
		for st, n := range perStatus {
			c.recorder.OrdersNormalized(ch, st, n)
		}
	}
	c.recorder.RunCompleted(time.Since(started), res.TotalOrders, res.TotalRevenue)

	span.SetAttributes(
		attribute.Int("run.orders", res.TotalOrders),
		attribute.Int64("run.revenue", res.TotalRevenue),
		attribute.Bool("run.degraded", run.Degraded()),
	)

	// a run without any channel data never replaces the published one
	if run.AllFailed() {
		log.Warn("Every channel source failed, keeping the previously published run")
		run.Warnings = append(run.Warnings, "publish skipped: every channel source failed")
	} else {
		c.publish(ctx, run, log)
	}

	log.Info("Aggregation run completed",
		zap.Int("total_orders", res.TotalOrders),
		zap.Int64("total_revenue", res.TotalRevenue),
		zap.Int("pending_shipments", res.PendingCount),
		zap.Int("low_stock_alerts", run.Payload.Summary.LowStockAlerts),
		zap.Bool("degraded", run.Degraded()),
		zap.Duration("duration", time.Since(started)),
	)
	return run, nil
}

func (c *Collector) fetch(ctx context.Context, src Source, log *zap.Logger) (dashboard.ChannelSnapshot, SourceOutcome) {
	ch := src.Channel()
	outcome := SourceOutcome{Channel: ch, Source: src.Name(), Status: OutcomeOK}

	ctx, span := c.tracer.Start(ctx, "dashboard.Fetch", trace.WithAttributes(
		attribute.String("channel", string(ch)),
		attribute.String("source", src.Name()),
	))
	defer span.End()

	start := time.Now()
	snap, err := fetchWithin(ctx, src, c.cfg.FetchTimeout)
	outcome.Duration = time.Since(start)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Warn("Channel fetch failed, using empty order set",
			zap.String("channel", string(ch)),
			zap.String("source", src.Name()),
			zap.Error(err),
		)
		outcome.Status = OutcomeFailed
		outcome.Error = err.Error()
		c.recorder.FetchCompleted(ch, outcome.Status, outcome.Duration)
		return dashboard.EmptySnapshot(ch), outcome
	}

	snap.Channel = ch
	if snap.Orders == nil {
		snap.Orders = []sales.RawRecord{}
	}
	if snap.FallbackReason != "" {
		outcome.Status = OutcomeFallback
		outcome.Error = snap.FallbackReason
		log.Warn("Channel served by fallback source",
			zap.String("channel", string(ch)),
			zap.String("reason", snap.FallbackReason),
		)
	}
	outcome.RawCount = len(snap.Orders)
	outcome.Reported = snap.Summary
	span.SetAttributes(attribute.Int("raw_count", outcome.RawCount))

	c.recorder.FetchCompleted(ch, outcome.Status, outcome.Duration)
	return snap, outcome
}

// reconcile logs the channel's self-reported summary next to what was
// actually normalized. The reported figures never feed the payload.
func (c *Collector) reconcile(log *zap.Logger, o SourceOutcome) {
	if o.Status == OutcomeFailed {
		return
	}
	if o.Reported.TotalOrders != 0 && o.Reported.TotalOrders != o.Orders {
		log.Info("Channel summary differs from normalized orders",
			zap.String("channel", string(o.Channel)),
			zap.Int("reported_orders", o.Reported.TotalOrders),
			zap.Int("normalized_orders", o.Orders),
			zap.Int("placeholders_dropped", o.Dropped),
		)
	}
}

func (c *Collector) publish(ctx context.Context, run *Run, log *zap.Logger) {
	for _, sink := range c.sinks {
		if err := sink.Publish(ctx, run); err != nil {
			log.Error("Failed to publish run", zap.String("sink", sink.Name()), zap.Error(err))
			if run.SinkErrors == nil {
				run.SinkErrors = make(map[string]string)
			}
			run.SinkErrors[sink.Name()] = err.Error()
		}
	}
}
