package ecommerce

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/chromedp/cdproto/target"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopdash/backend/internal/application/normalize"
	"github.com/shopdash/backend/internal/domain/dashboard"
	"github.com/shopdash/backend/internal/domain/sales"
)

var kst = time.FixedZone("KST", 9*60*60)

func fixedNow() time.Time {
	return time.Date(2024, 3, 5, 18, 30, 0, 0, kst)
}

// ---------------------------------------------------------------------------
// FileSource
// ---------------------------------------------------------------------------

func TestFileSource_Envelope(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "naver"), 0o755))
	require.NoError(t, os.WriteFile(ChannelFile(dir, sales.ChannelNaver), []byte(`{
		"channel": "naver",
		"collected_at": "2024-03-05T09:00:00",
		"orders": [{"orderId": "N1", "totalPaymentAmount": 1000}, "junk"],
		"summary": {"total_orders": 7, "pending_shipments": 2, "total_revenue": 70000}
	}`), 0o644))

	src := NewFileSource(dir, sales.ChannelNaver)
	assert.Equal(t, sales.ChannelNaver, src.Channel())
	assert.Equal(t, "file", src.Name())

	snap, err := src.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Orders, 1)
	assert.Equal(t, 7, snap.Summary.TotalOrders)
	assert.Equal(t, int64(70000), snap.Summary.TotalRevenue)
	assert.Equal(t, "2024-03-05T09:00:00", snap.CollectedAt)
}

func TestFileSource_BareList(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "coupang"), 0o755))
	require.NoError(t, os.WriteFile(ChannelFile(dir, sales.ChannelCoupang), []byte(`[{"orderId": 1}, {"orderId": 2}]`), 0o644))

	snap, err := NewFileSource(dir, sales.ChannelCoupang).Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, snap.Orders, 2)
	assert.Equal(t, dashboard.ChannelSummary{}, snap.Summary)
}

func TestFileSource_MissingFileIsEmpty(t *testing.T) {
	snap, err := NewFileSource(t.TempDir(), sales.ChannelCafe24).Fetch(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, snap.Orders)
	assert.Empty(t, snap.Orders)
}

func TestFileSource_InvalidFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "cafe24"), 0o755))
	require.NoError(t, os.WriteFile(ChannelFile(dir, sales.ChannelCafe24), []byte(`"just a string"`), 0o644))

	_, err := NewFileSource(dir, sales.ChannelCafe24).Fetch(context.Background())
	assert.ErrorIs(t, err, dashboard.ErrInvalidSnapshot)
}

// ---------------------------------------------------------------------------
// FixtureSource
// ---------------------------------------------------------------------------

func fixtureFor(ch sales.Channel, seed uint64) *FixtureSource {
	s := NewFixtureSource(ch, seed, kst)
	s.now = fixedNow
	return s
}

func TestFixtureSource_Deterministic(t *testing.T) {
	for _, ch := range sales.AllChannels() {
		a, err := fixtureFor(ch, 42).Fetch(context.Background())
		require.NoError(t, err)
		b, err := fixtureFor(ch, 42).Fetch(context.Background())
		require.NoError(t, err)

		assert.Equal(t, a, b, ch)
		assert.GreaterOrEqual(t, len(a.Orders), 12, ch)
	}

	a, _ := fixtureFor(sales.ChannelCafe24, 1).Fetch(context.Background())
	b, _ := fixtureFor(sales.ChannelCafe24, 2).Fetch(context.Background())
	assert.NotEqual(t, a.Orders, b.Orders)
}

func TestFixtureSource_NormalizesCleanly(t *testing.T) {
	pipeline := normalize.NewPipeline(sales.DefaultStatusPolicy, kst,
		normalize.PlaceholderFilter{Channel: sales.ChannelNaver, Prefix: "EST-"})

	snapshots := make([]dashboard.ChannelSnapshot, 0, 3)
	for _, ch := range sales.AllChannels() {
		snap, err := fixtureFor(ch, 7).Fetch(context.Background())
		require.NoError(t, err)
		snapshots = append(snapshots, snap)
	}

	res := pipeline.Normalize(snapshots)
	assert.GreaterOrEqual(t, res.Placeholders[sales.ChannelNaver], 1)
	for _, o := range res.Orders {
		assert.NotEmpty(t, o.OrderID)
		assert.NotEqual(t, sales.OrderStatusUnknown, o.Status, o.OrderID)
		assert.Positive(t, o.TotalAmount, o.OrderID)
		assert.NotEmpty(t, o.ProductName, o.OrderID)
		assert.NotEmpty(t, o.CustomerName, o.OrderID)
		assert.True(t, o.OrderedAt >= "2024-02-28" && o.OrderedAt <= "2024-03-05T23:59:59", o.OrderedAt)
	}
	assert.Equal(t, len(res.Orders),
		res.PerChannel[sales.ChannelCafe24]+res.PerChannel[sales.ChannelNaver]+res.PerChannel[sales.ChannelCoupang])
}

func TestFixtureSource_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := fixtureFor(sales.ChannelNaver, 1).Fetch(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

// ---------------------------------------------------------------------------
// Scraper helpers
// ---------------------------------------------------------------------------

func TestNewCafe24AdminScraper(t *testing.T) {
	_, err := NewCafe24AdminScraper(&ScraperConfig{})
	assert.ErrorIs(t, err, ErrSourceNotConfigured)

	cfg := &ScraperConfig{RemoteURL: "http://127.0.0.1:18800"}
	s, err := NewCafe24AdminScraper(cfg)
	require.NoError(t, err)
	assert.Equal(t, "cafe24.com/admin", cfg.TabURLPattern)
	assert.Equal(t, sales.ChannelCafe24, s.Channel())
	assert.Equal(t, "scraper", s.Name())
}

func TestSelectTab(t *testing.T) {
	targets := []*target.Info{
		{TargetID: "1", Type: "service_worker", URL: "https://shop.cafe24.com/admin/sw.js"},
		{TargetID: "2", Type: "page", URL: "https://sell.smartstore.naver.com/"},
		{TargetID: "3", Type: "page", URL: "https://shop.cafe24.com/admin/php/shop1/s_new/shipped_begin_list.php"},
	}

	tab := selectTab(targets, "cafe24.com/admin")
	require.NotNil(t, tab)
	assert.Equal(t, target.ID("3"), tab.TargetID)

	assert.Nil(t, selectTab(targets, "wing.coupang.com"))
}

func TestParseScrapeResult_PendingPage(t *testing.T) {
	raw := []byte(`[
		{"order_id": "20240305-0000012", "product_name": "LOCK IN COFFEE::HOUSE", "customer_name": "김민준",
		 "ordered_at": "2024-03-05 10:12:00", "total_amount": 32000, "quantity": 1, "channel": "cafe24", "status": "processing"}
	]`)

	snap, err := parseScrapeResult(raw, true)
	require.NoError(t, err)
	require.Len(t, snap.Orders, 1)
	assert.Equal(t, 1, snap.Summary.PendingShipments)

	n, _ := normalize.NewPipeline(sales.DefaultStatusPolicy, kst).Normalizer(sales.ChannelCafe24)
	o := n.Normalize(snap.Orders[0])
	assert.Equal(t, sales.OrderStatusPending, o.Status)
	assert.Equal(t, int64(32000), o.TotalAmount)
	assert.Equal(t, "2024-03-05T10:12:00", o.OrderedAt)
}

func TestParseScrapeResult_DashboardPage(t *testing.T) {
	snap, err := parseScrapeResult([]byte(`{"total_orders": 12, "pending_shipments": 4, "total_revenue": 480000}`), false)
	require.NoError(t, err)
	assert.Empty(t, snap.Orders)
	assert.Equal(t, dashboard.ChannelSummary{TotalOrders: 12, PendingShipments: 4, TotalRevenue: 480000}, snap.Summary)

	snap, err = parseScrapeResult([]byte("null"), false)
	require.NoError(t, err)
	assert.Empty(t, snap.Orders)
}
