package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	app "github.com/shopdash/backend/internal/application/dashboard"
	"github.com/shopdash/backend/internal/domain/sales"
)

const meterName = "github.com/shopdash/backend/internal/infrastructure/telemetry"

var (
	attrChannel = attribute.Key("channel")
	attrStatus  = attribute.Key("status")
)

// OTelRecorder pushes run metrics through an OpenTelemetry meter
type OTelRecorder struct {
	runs          metric.Int64Counter
	runDuration   metric.Float64Histogram
	fetches       metric.Int64Counter
	fetchDuration metric.Float64Histogram
	orders        metric.Int64Counter
	dropped       metric.Int64Counter
}

// NewOTelRecorder creates the instruments on the provider's meter
func NewOTelRecorder(mp *MeterProvider) (*OTelRecorder, error) {
	meter := mp.Meter(meterName)
	r := &OTelRecorder{}

	var err error
	if r.runs, err = meter.Int64Counter("dashboard.runs",
		metric.WithDescription("Completed aggregation runs"), metric.WithUnit("{run}")); err != nil {
		return nil, fmt.Errorf("failed to create counter dashboard.runs: %w", err)
	}
	if r.runDuration, err = meter.Float64Histogram("dashboard.run.duration",
		metric.WithDescription("Wall time of aggregation runs"), metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(RunDurationBuckets...)); err != nil {
		return nil, fmt.Errorf("failed to create histogram dashboard.run.duration: %w", err)
	}
	if r.fetches, err = meter.Int64Counter("dashboard.fetches",
		metric.WithDescription("Channel fetches by outcome"), metric.WithUnit("{fetch}")); err != nil {
		return nil, fmt.Errorf("failed to create counter dashboard.fetches: %w", err)
	}
	if r.fetchDuration, err = meter.Float64Histogram("dashboard.fetch.duration",
		metric.WithDescription("Wall time of channel fetches"), metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(RunDurationBuckets...)); err != nil {
		return nil, fmt.Errorf("failed to create histogram dashboard.fetch.duration: %w", err)
	}
	if r.orders, err = meter.Int64Counter("dashboard.orders.normalized",
		metric.WithDescription("Canonical orders per channel and status"), metric.WithUnit("{order}")); err != nil {
		return nil, fmt.Errorf("failed to create counter dashboard.orders.normalized: %w", err)
	}
	if r.dropped, err = meter.Int64Counter("dashboard.placeholders.dropped",
		metric.WithDescription("Estimate placeholder orders removed"), metric.WithUnit("{order}")); err != nil {
		return nil, fmt.Errorf("failed to create counter dashboard.placeholders.dropped: %w", err)
	}
	return r, nil
}

func (r *OTelRecorder) RunCompleted(d time.Duration, _ int, _ int64) {
	ctx := context.Background()
	r.runs.Add(ctx, 1)
	r.runDuration.Record(ctx, d.Seconds())
}

func (r *OTelRecorder) FetchCompleted(ch sales.Channel, status app.OutcomeStatus, d time.Duration) {
	ctx := context.Background()
	r.fetches.Add(ctx, 1, metric.WithAttributes(attrChannel.String(string(ch)), attrStatus.String(string(status))))
	r.fetchDuration.Record(ctx, d.Seconds(), metric.WithAttributes(attrChannel.String(string(ch))))
}

func (r *OTelRecorder) OrdersNormalized(ch sales.Channel, status sales.OrderStatus, n int) {
	r.orders.Add(context.Background(), int64(n),
		metric.WithAttributes(attrChannel.String(string(ch)), attrStatus.String(string(status))))
}

func (r *OTelRecorder) PlaceholdersDropped(ch sales.Channel, n int) {
	r.dropped.Add(context.Background(), int64(n), metric.WithAttributes(attrChannel.String(string(ch))))
}

// Recorders fans observations out to several recorders
type Recorders []app.Recorder

func (rs Recorders) RunCompleted(d time.Duration, orders int, revenue int64) {
	for _, r := range rs {
		r.RunCompleted(d, orders, revenue)
	}
}

func (rs Recorders) FetchCompleted(ch sales.Channel, status app.OutcomeStatus, d time.Duration) {
	for _, r := range rs {
		r.FetchCompleted(ch, status, d)
	}
}

func (rs Recorders) OrdersNormalized(ch sales.Channel, status sales.OrderStatus, n int) {
	for _, r := range rs {
		r.OrdersNormalized(ch, status, n)
	}
}

func (rs Recorders) PlaceholdersDropped(ch sales.Channel, n int) {
	for _, r := range rs {
		r.PlaceholdersDropped(ch, n)
	}
}

var (
	_ app.Recorder = (*OTelRecorder)(nil)
	_ app.Recorder = Recorders(nil)
)
