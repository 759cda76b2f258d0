package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"

	app "github.com/shopdash/backend/internal/application/dashboard"
	"github.com/shopdash/backend/internal/domain/sales"
)

func newManualMeterProvider() (*MeterProvider, *sdkmetric.ManualReader) {
	reader := sdkmetric.NewManualReader()
	return &MeterProvider{
		provider: sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)),
		logger:   zap.NewNop(),
		config:   MetricsConfig{Enabled: true},
	}, reader
}

func sumOf(t *testing.T, rm metricdata.ResourceMetrics, name string) int64 {
	t.Helper()
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, "%s is not an int64 sum", name)
			var total int64
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
			return total
		}
	}
	t.Fatalf("metric %s not collected", name)
	return 0
}

func TestOTelRecorder(t *testing.T) {
	mp, reader := newManualMeterProvider()
	rec, err := NewOTelRecorder(mp)
	require.NoError(t, err)

	rec.FetchCompleted(sales.ChannelCafe24, app.OutcomeOK, time.Second)
	rec.FetchCompleted(sales.ChannelNaver, app.OutcomeFallback, time.Second)
	rec.OrdersNormalized(sales.ChannelCafe24, sales.OrderStatusPending, 6)
	rec.PlaceholdersDropped(sales.ChannelNaver, 2)
	rec.RunCompleted(3*time.Second, 6, 90000)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	assert.Equal(t, int64(1), sumOf(t, rm, "dashboard.runs"))
	assert.Equal(t, int64(2), sumOf(t, rm, "dashboard.fetches"))
	assert.Equal(t, int64(6), sumOf(t, rm, "dashboard.orders.normalized"))
	assert.Equal(t, int64(2), sumOf(t, rm, "dashboard.placeholders.dropped"))
}

type countingRecorder struct {
	app.NopRecorder
	runs int
}

func (c *countingRecorder) RunCompleted(time.Duration, int, int64) { c.runs++ }

func TestRecorders_FanOut(t *testing.T) {
	a, b := &countingRecorder{}, &countingRecorder{}
	rs := Recorders{a, b}

	rs.RunCompleted(time.Second, 1, 1)
	rs.FetchCompleted(sales.ChannelCoupang, app.OutcomeOK, time.Second)
	rs.OrdersNormalized(sales.ChannelCoupang, sales.OrderStatusDelivered, 1)
	rs.PlaceholdersDropped(sales.ChannelCoupang, 0)

	assert.Equal(t, 1, a.runs)
	assert.Equal(t, 1, b.runs)
}
