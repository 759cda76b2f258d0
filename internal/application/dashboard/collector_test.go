package dashboard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopdash/backend/internal/application/normalize"
	"github.com/shopdash/backend/internal/domain/dashboard"
	"github.com/shopdash/backend/internal/domain/sales"
	"github.com/shopdash/backend/internal/domain/stock"
	"github.com/shopdash/backend/internal/infrastructure/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var kst = time.FixedZone("KST", 9*60*60)

func fixedClock() time.Time {
	return time.Date(2024, 3, 5, 18, 30, 0, 0, kst)
}

type stubSource struct {
	ch    sales.Channel
	name  string
	snap  dashboard.ChannelSnapshot
	err   error
	delay time.Duration
	calls int
	mu    sync.Mutex
}

func (s *stubSource) Channel() sales.Channel { return s.ch }

func (s *stubSource) Name() string {
	if s.name == "" {
		return "stub"
	}
	return s.name
}

func (s *stubSource) Fetch(ctx context.Context) (dashboard.ChannelSnapshot, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return dashboard.ChannelSnapshot{}, ctx.Err()
		}
	}
	if s.err != nil {
		return dashboard.ChannelSnapshot{}, s.err
	}
	return s.snap, nil
}

type stubInventory struct {
	items []stock.Item
	err   error
}

func (s stubInventory) Items(context.Context) ([]stock.Item, error) {
	return s.items, s.err
}

type recordingSink struct {
	name string
	err  error
	runs []*Run
}

func (s *recordingSink) Name() string { return s.name }

func (s *recordingSink) Publish(_ context.Context, run *Run) error {
	s.runs = append(s.runs, run)
	return s.err
}

type contextSink struct {
	runIDs []string
}

func (s *contextSink) Name() string { return "context" }

func (s *contextSink) Publish(ctx context.Context, _ *Run) error {
	s.runIDs = append(s.runIDs, logger.GetRunID(ctx))
	return nil
}

type countingRecorder struct {
	NopRecorder
	mu       sync.Mutex
	runs     int
	fetches  map[OutcomeStatus]int
	dropped  map[sales.Channel]int
	byStatus map[sales.OrderStatus]int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{
		fetches:  map[OutcomeStatus]int{},
		dropped:  map[sales.Channel]int{},
		byStatus: map[sales.OrderStatus]int{},
	}
}

func (r *countingRecorder) RunCompleted(time.Duration, int, int64) { r.runs++ }

func (r *countingRecorder) FetchCompleted(_ sales.Channel, st OutcomeStatus, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fetches[st]++
}

func (r *countingRecorder) OrdersNormalized(_ sales.Channel, st sales.OrderStatus, n int) {
	r.byStatus[st] += n
}

func (r *countingRecorder) PlaceholdersDropped(ch sales.Channel, n int) { r.dropped[ch] += n }

func raw(kv ...any) sales.RawRecord {
	r := sales.RawRecord{}
	for i := 0; i+1 < len(kv); i += 2 {
		r[kv[i].(string)] = kv[i+1]
	}
	return r
}

func testConfig() CollectorConfig {
	cfg := DefaultCollectorConfig()
	cfg.Location = kst
	cfg.FetchTimeout = time.Second
	return cfg
}

func cafe24Source() *stubSource {
	return &stubSource{ch: sales.ChannelCafe24, snap: dashboard.ChannelSnapshot{
		Orders: []sales.RawRecord{
			raw("order_id", "C-1", "order_date", "2024-03-05 10:00:00", "total_amount", "15,000", "status", "배송준비중"),
			raw("order_id", "C-2", "order_date", "2024-03-04 09:00:00", "total_amount", 5000, "status", "배송완료"),
		},
		Summary: dashboard.ChannelSummary{TotalOrders: 2},
	}}
}

func naverSource() *stubSource {
	return &stubSource{ch: sales.ChannelNaver, snap: dashboard.ChannelSnapshot{
		Orders: []sales.RawRecord{
			raw("orderId", "N-1", "orderDate", "2024-03-05T08:00:00", "totalPaymentAmount", 20000, "status", "PAYED"),
			raw("orderId", "EST-1", "orderDate", "2024-03-05T08:00:00", "totalPaymentAmount", 99999, "status", "PAYED"),
		},
	}}
}

func coupangSource() *stubSource {
	return &stubSource{ch: sales.ChannelCoupang, snap: dashboard.ChannelSnapshot{
		Orders: []sales.RawRecord{
			raw("orderId", "P-1", "orderedAt", "2024-03-03T12:00:00", "totalPrice", 10000, "status", "DEPARTURE"),
		},
	}}
}

func newTestCollector(t *testing.T, sources []Source, opts ...CollectorOption) *Collector {
	t.Helper()
	opts = append([]CollectorOption{WithClock(fixedClock)}, opts...)
	c, err := NewCollector(testConfig(), sources, zap.NewNop(), opts...)
	require.NoError(t, err)
	return c
}

func TestNewCollector_Validation(t *testing.T) {
	_, err := NewCollector(testConfig(), nil, nil)
	assert.ErrorIs(t, err, ErrNoSources)

	_, err = NewCollector(testConfig(), []Source{&stubSource{ch: "amazon"}}, nil)
	assert.ErrorIs(t, err, sales.ErrUnknownChannel)

	_, err = NewCollector(testConfig(), []Source{
		&stubSource{ch: sales.ChannelNaver},
		&stubSource{ch: sales.ChannelNaver},
	}, nil)
	assert.Error(t, err)

	cfg := testConfig()
	cfg.LowStockThreshold = -1
	_, err = NewCollector(cfg, []Source{cafe24Source()}, nil)
	assert.ErrorIs(t, err, ErrInvalidThreshold)
}

func TestCollector_ZeroThreshold(t *testing.T) {
	cfg := testConfig()
	cfg.LowStockThreshold = 0
	c, err := NewCollector(cfg, []Source{cafe24Source()}, nil, WithClock(fixedClock),
		WithInventory(stubInventory{items: []stock.Item{
			{ProductID: "P001", CurrentStock: 1},
			{ProductID: "P002", CurrentStock: 0},
		}}))
	require.NoError(t, err)

	run, err := c.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, run.Payload.Inventory, 2)
	assert.Equal(t, stock.StatusNormal, run.Payload.Inventory[0].Status)
	assert.Equal(t, stock.StatusOutOfStock, run.Payload.Inventory[1].Status)
	assert.Equal(t, 1, run.Payload.Summary.LowStockAlerts)
}

func TestCollector_Run(t *testing.T) {
	sink := &recordingSink{name: "memory"}
	rec := newCountingRecorder()
	c := newTestCollector(t, []Source{cafe24Source(), naverSource(), coupangSource()},
		WithSinks(sink),
		WithRecorder(rec),
		WithInventory(stubInventory{items: []stock.Item{
			{ProductID: "P001", CurrentStock: 50, ReservedStock: 45},
			{ProductID: "P002", CurrentStock: 100},
		}}),
	)

	run, err := c.Run(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, run.ID)
	assert.False(t, run.Degraded())
	assert.Len(t, run.Orders, 4)

	p := run.Payload
	assert.Equal(t, "2024-03-05", p.Summary.Date)
	assert.Equal(t, 4, p.Summary.TotalOrders)
	assert.Equal(t, int64(50000), p.Summary.TotalRevenue)
	assert.Equal(t, 3, p.Summary.PendingShipments)
	assert.Equal(t, 1, p.Summary.LowStockAlerts)
	assert.Equal(t, "2024-03-05T18:30:00+09:00", p.CollectedAt)
	require.Len(t, p.WeeklySales, 7)
	assert.Equal(t, int64(35000), p.WeeklySales[6].Total)
	require.Len(t, p.Inventory, 2)
	assert.Equal(t, stock.StatusLow, p.Inventory[0].Status)
	assert.Equal(t, 5, p.Inventory[0].AvailableStock)

	require.Len(t, run.Outcomes, 3)
	naver := run.Outcomes[1]
	assert.Equal(t, sales.ChannelNaver, naver.Channel)
	assert.Equal(t, OutcomeOK, naver.Status)
	assert.Equal(t, 2, naver.RawCount)
	assert.Equal(t, 1, naver.Orders)
	assert.Equal(t, 1, naver.Dropped)
	assert.Equal(t, 2, run.Outcomes[0].Reported.TotalOrders)

	require.Len(t, sink.runs, 1)
	assert.Same(t, run, sink.runs[0])
	assert.Empty(t, run.SinkErrors)

	assert.Equal(t, 1, rec.runs)
	assert.Equal(t, 3, rec.fetches[OutcomeOK])
	assert.Equal(t, 1, rec.dropped[sales.ChannelNaver])
	assert.Equal(t, 4, rec.byStatus[sales.OrderStatusPending]+rec.byStatus[sales.OrderStatusShipping]+rec.byStatus[sales.OrderStatusDelivered])
}

func TestCollector_LogsCarryRunID(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)
	sink := &contextSink{}
	failing := &stubSource{ch: sales.ChannelNaver, err: errors.New("connection refused")}
	c, err := NewCollector(testConfig(), []Source{cafe24Source(), failing}, zap.New(core),
		WithClock(fixedClock), WithSinks(sink))
	require.NoError(t, err)

	run, err := c.Run(context.Background())
	require.NoError(t, err)

	entries := recorded.All()
	require.NotEmpty(t, entries)
	for _, e := range entries {
		assert.Equal(t, run.ID, e.ContextMap()["run_id"], e.Message)
	}
	assert.Equal(t, []string{run.ID}, sink.runIDs)
}

func TestCollector_FailedSourceDegradesRun(t *testing.T) {
	failing := &stubSource{ch: sales.ChannelNaver, err: errors.New("connection refused")}
	c := newTestCollector(t, []Source{cafe24Source(), failing, coupangSource()})

	run, err := c.Run(context.Background())
	require.NoError(t, err)

	assert.True(t, run.Degraded())
	assert.False(t, run.AllFailed())
	assert.Equal(t, OutcomeFailed, run.Outcomes[1].Status)
	assert.Contains(t, run.Outcomes[1].Error, "connection refused")
	assert.Equal(t, 3, run.Payload.Summary.TotalOrders)

	for _, b := range run.Payload.ChannelBreakdown {
		if b.Channel == sales.ChannelNaver {
			assert.Equal(t, 0, b.OrderCount)
			assert.Equal(t, 0.0, b.Percentage)
		}
	}
}

func TestCollector_AllSourcesFail(t *testing.T) {
	boom := errors.New("boom")
	sink := &recordingSink{name: "cache"}
	c := newTestCollector(t, []Source{
		&stubSource{ch: sales.ChannelCafe24, err: boom},
		&stubSource{ch: sales.ChannelNaver, err: boom},
		&stubSource{ch: sales.ChannelCoupang, err: boom},
	}, WithSinks(sink))

	run, err := c.Run(context.Background())
	require.NoError(t, err)

	assert.True(t, run.AllFailed())
	assert.Equal(t, 0, run.Payload.Summary.TotalOrders)
	assert.Len(t, run.Payload.WeeklySales, 7)
	assert.NotNil(t, run.Payload.PendingShipments)
	assert.NotNil(t, run.Payload.Inventory)

	assert.Empty(t, sink.runs, "an all-failed run must not replace the published one")
	require.Len(t, run.Warnings, 1)
	assert.Contains(t, run.Warnings[0], "publish skipped")
}

func TestCollector_FetchTimeout(t *testing.T) {
	slow := &stubSource{ch: sales.ChannelCoupang, delay: time.Minute}
	cfg := testConfig()
	cfg.FetchTimeout = 20 * time.Millisecond
	c, err := NewCollector(cfg, []Source{cafe24Source(), slow}, nil, WithClock(fixedClock))
	require.NoError(t, err)

	run, err := c.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, OutcomeOK, run.Outcomes[0].Status)
	assert.Equal(t, OutcomeFailed, run.Outcomes[1].Status)
	assert.Contains(t, run.Outcomes[1].Error, context.DeadlineExceeded.Error())
}

func TestCollector_CancelledContextAborts(t *testing.T) {
	c := newTestCollector(t, []Source{cafe24Source()})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	run, err := c.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, run)
}

func TestCollector_InventoryFailureIsWarning(t *testing.T) {
	c := newTestCollector(t, []Source{cafe24Source()},
		WithInventory(stubInventory{err: errors.New("file missing")}))

	run, err := c.Run(context.Background())
	require.NoError(t, err)

	assert.Empty(t, run.Payload.Inventory)
	assert.Equal(t, 0, run.Payload.Summary.LowStockAlerts)
	require.Len(t, run.Warnings, 1)
	assert.Contains(t, run.Warnings[0], "file missing")
}

func TestCollector_SinkErrorsKeepPayload(t *testing.T) {
	broken := &recordingSink{name: "store", err: errors.New("disk full")}
	ok := &recordingSink{name: "cache"}
	c := newTestCollector(t, []Source{cafe24Source()}, WithSinks(broken, ok))

	run, err := c.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"store": "disk full"}, run.SinkErrors)
	assert.Len(t, ok.runs, 1)
	assert.Equal(t, 2, run.Payload.Summary.TotalOrders)
}

func TestCollector_FallbackOutcome(t *testing.T) {
	primary := &stubSource{ch: sales.ChannelCafe24, name: "api", err: errors.New("401 unauthorized")}
	backup := cafe24Source()
	backup.name = "file"
	fb, err := NewFallbackSource(primary, backup)
	require.NoError(t, err)

	c := newTestCollector(t, []Source{fb})
	run, err := c.Run(context.Background())
	require.NoError(t, err)

	o := run.Outcomes[0]
	assert.Equal(t, OutcomeFallback, o.Status)
	assert.Equal(t, "api|file", o.Source)
	assert.Contains(t, o.Error, "401 unauthorized")
	assert.Equal(t, 2, o.Orders)
	assert.True(t, run.Degraded())
}

func TestCollector_FallbackAfterPrimaryTimeout(t *testing.T) {
	hanging := &stubSource{ch: sales.ChannelCafe24, name: "api", delay: time.Hour}
	backup := cafe24Source()
	backup.name = "file"
	fb, err := NewFallbackSource(hanging, backup)
	require.NoError(t, err)

	cfg := testConfig()
	cfg.FetchTimeout = 50 * time.Millisecond
	c, err := NewCollector(cfg, []Source{fb}, nil, WithClock(fixedClock))
	require.NoError(t, err)

	run, err := c.Run(context.Background())
	require.NoError(t, err)

	o := run.Outcomes[0]
	assert.Equal(t, OutcomeFallback, o.Status)
	assert.Contains(t, o.Error, context.DeadlineExceeded.Error())
	assert.Equal(t, 2, o.Orders)
	assert.Equal(t, 2, run.Payload.Summary.TotalOrders)
	assert.Equal(t, 1, backup.calls)
}

func TestFallbackSource_NestedChainTimesOutPerAttempt(t *testing.T) {
	api := &stubSource{ch: sales.ChannelCafe24, name: "api", delay: time.Hour}
	scraper := &stubSource{ch: sales.ChannelCafe24, name: "scraper", delay: time.Hour}
	file := cafe24Source()
	file.name = "file"
	inner, err := NewFallbackSource(api, scraper)
	require.NoError(t, err)
	outer, err := NewFallbackSource(inner, file)
	require.NoError(t, err)

	snap, err := outer.FetchWithin(context.Background(), 20*time.Millisecond)
	require.NoError(t, err)
	assert.Len(t, snap.Orders, 2)
	assert.Contains(t, snap.FallbackReason, "api|scraper")
	assert.Equal(t, 1, scraper.calls)
}

func TestFallbackSource_CancelledParentSkipsSecondary(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	primary := &stubSource{ch: sales.ChannelCafe24, name: "api", delay: time.Hour}
	backup := cafe24Source()
	fb, err := NewFallbackSource(primary, backup)
	require.NoError(t, err)

	_, err = fb.FetchWithin(ctx, time.Second)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, backup.calls)
}

func TestCollector_CustomPlaceholderFilter(t *testing.T) {
	cfg := testConfig()
	cfg.Placeholders = []normalize.PlaceholderFilter{{Channel: sales.ChannelCafe24, Prefix: "C-1"}}
	c, err := NewCollector(cfg, []Source{cafe24Source(), naverSource()}, nil, WithClock(fixedClock))
	require.NoError(t, err)

	run, err := c.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, run.Outcomes[0].Dropped)
	assert.Equal(t, 0, run.Outcomes[1].Dropped)
	assert.Equal(t, 3, run.Payload.Summary.TotalOrders)
}

func TestCollector_RunsAreIndependent(t *testing.T) {
	src := cafe24Source()
	c := newTestCollector(t, []Source{src})

	first, err := c.Run(context.Background())
	require.NoError(t, err)
	second, err := c.Run(context.Background())
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, first.Payload, second.Payload)
	assert.Equal(t, 2, src.calls)
}
