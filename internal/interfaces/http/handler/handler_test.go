package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopdash/backend/internal/application/aggregate"
	app "github.com/shopdash/backend/internal/application/dashboard"
	"github.com/shopdash/backend/internal/domain/sales"
	"github.com/shopdash/backend/internal/domain/stock"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeService struct {
	run        *app.Run
	err        error
	refreshErr error
	refreshes  int
}

func (f *fakeService) Latest(context.Context) (*app.Run, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.run, nil
}

func (f *fakeService) Refresh(context.Context) (*app.Run, error) {
	f.refreshes++
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	return f.run, nil
}

func (f *fakeService) View(ctx context.Context) (*app.View, error) {
	run, err := f.Latest(ctx)
	if err != nil {
		return nil, err
	}
	return app.NewView(run), nil
}

func (f *fakeService) Mode() string { return "fixture" }

type fakeReader struct {
	run *app.Run
	err error
}

func (f fakeReader) LatestRun(context.Context) (*app.Run, error) { return f.run, f.err }

func testRun() *app.Run {
	now := time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)
	orders := []sales.Order{
		{OrderID: "A1", Channel: sales.ChannelCafe24, TotalAmount: 1000, Status: sales.OrderStatusPending, OrderedAt: "2024-03-05T10:00:00", Quantity: 1},
		{OrderID: "X", Channel: sales.ChannelNaver, TotalAmount: 2000, Status: sales.OrderStatusDelivered, OrderedAt: "2024-03-04T10:00:00", Quantity: 2},
		{OrderID: "X", Channel: sales.ChannelCoupang, TotalAmount: 3000, Status: sales.OrderStatusShipping, OrderedAt: "2024-03-05T11:00:00", Quantity: 1, TrackingNumber: "CJ123"},
	}
	items := stock.Merge([]stock.Item{
		{ProductID: "P001", CurrentStock: 100},
		{ProductID: "P002", CurrentStock: 0},
	}, stock.DefaultThreshold)
	res := aggregate.Aggregate(orders, now)
	return &app.Run{
		ID:         "run-1",
		StartedAt:  now.Add(-2 * time.Second),
		FinishedAt: now,
		Orders:     res.Orders,
		Payload:    app.BuildPayload(res, items, now),
		Outcomes: []app.SourceOutcome{
			{Channel: sales.ChannelCafe24, Source: "fixture", Status: app.OutcomeOK, Orders: 1},
			{Channel: sales.ChannelNaver, Source: "fixture", Status: app.OutcomeOK, Orders: 1},
			{Channel: sales.ChannelCoupang, Source: "fixture", Status: app.OutcomeOK, Orders: 1},
		},
	}
}

func newTestEngine(svc DashboardService) *gin.Engine {
	r := gin.New()
	dh := NewDashboardHandler(svc)
	oh := NewOrderHandler(svc)
	ah := NewAnalyticsHandler(svc)
	r.GET("/dashboard", dh.GetDashboard)
	r.POST("/dashboard/refresh", dh.Refresh)
	r.GET("/orders", oh.List)
	r.GET("/orders/pending-shipments", oh.PendingShipments)
	r.GET("/orders/:order_id", oh.Get)
	r.GET("/shipping", oh.Shipping)
	r.GET("/inventory", ah.Inventory)
	r.GET("/analytics/weekly", ah.Weekly)
	r.GET("/analytics/channels", ah.Channels)
	return r
}

func get(r http.Handler, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Meta *struct {
		RunID string `json:"run_id"`
		Count int    `json:"count"`
	} `json:"meta"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func TestGetDashboard(t *testing.T) {
	r := newTestEngine(&fakeService{run: testRun()})
	w := get(r, http.MethodGet, "/dashboard")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	for _, key := range []string{"summary", "channel_breakdown", "weekly_sales", "pending_shipments", "inventory", "collected_at"} {
		assert.Contains(t, body, key)
	}
	assert.NotContains(t, body, "success")

	var summary struct {
		TotalOrders  int   `json:"total_orders"`
		TotalRevenue int64 `json:"total_revenue"`
	}
	require.NoError(t, json.Unmarshal(body["summary"], &summary))
	assert.Equal(t, 3, summary.TotalOrders)
	assert.Equal(t, int64(6000), summary.TotalRevenue)
}

func TestGetDashboard_NoData(t *testing.T) {
	r := newTestEngine(&fakeService{err: app.ErrRunNotFound})
	w := get(r, http.MethodGet, "/dashboard")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	env := decode(t, w)
	assert.False(t, env.Success)
	assert.Equal(t, "ERR_NO_DATA", env.Error.Code)
}

func TestRefresh(t *testing.T) {
	svc := &fakeService{run: testRun()}
	r := newTestEngine(svc)

	w := get(r, http.MethodPost, "/dashboard/refresh")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, svc.refreshes)

	var report RefreshReport
	env := decode(t, w)
	require.NoError(t, json.Unmarshal(env.Data, &report))
	assert.Equal(t, "run-1", report.RunID)
	assert.Equal(t, "fixture", report.Mode)
	assert.Equal(t, int64(2000), report.DurationMS)
	assert.False(t, report.Degraded)
	assert.Len(t, report.Sources, 3)
	assert.Equal(t, 1, report.Stats.OrdersByChannel[sales.ChannelNaver])
	assert.Equal(t, 2, report.Stats.InventoryItems)
}

func TestRefresh_Failure(t *testing.T) {
	r := newTestEngine(&fakeService{refreshErr: errors.New("sink down")})
	w := get(r, http.MethodPost, "/dashboard/refresh")
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, decode(t, w).Error.Message, "sink down")
}

func TestListOrders(t *testing.T) {
	r := newTestEngine(&fakeService{run: testRun()})

	tests := []struct {
		name  string
		query string
		code  int
		count int
	}{
		{"all", "", http.StatusOK, 3},
		{"by channel", "?channel=naver", http.StatusOK, 1},
		{"by status", "?status=shipping", http.StatusOK, 1},
		{"by date", "?start_date=2024-03-05", http.StatusOK, 2},
		{"limit", "?limit=1", http.StatusOK, 1},
		{"bad channel", "?channel=amazon", http.StatusBadRequest, 0},
		{"bad date", "?start_date=03-05-2024", http.StatusBadRequest, 0},
		{"zero limit", "?limit=0", http.StatusBadRequest, 0},
		{"limit too large", "?limit=500", http.StatusBadRequest, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(r, http.MethodGet, "/orders"+tt.query)
			require.Equal(t, tt.code, w.Code, w.Body.String())
			env := decode(t, w)
			if tt.code != http.StatusOK {
				assert.Equal(t, "ERR_VALIDATION", env.Error.Code)
				return
			}
			assert.Equal(t, "run-1", env.Meta.RunID)
			assert.Equal(t, tt.count, env.Meta.Count)
		})
	}
}

func TestGetOrder(t *testing.T) {
	r := newTestEngine(&fakeService{run: testRun()})

	w := get(r, http.MethodGet, "/orders/X?channel=coupang")
	require.Equal(t, http.StatusOK, w.Code)
	var order sales.Order
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &order))
	assert.Equal(t, sales.ChannelCoupang, order.Channel)

	assert.Equal(t, http.StatusNotFound, get(r, http.MethodGet, "/orders/NOPE").Code)
	assert.Equal(t, http.StatusBadRequest, get(r, http.MethodGet, "/orders/X?channel=amazon").Code)
}

func TestShipmentViews(t *testing.T) {
	r := newTestEngine(&fakeService{run: testRun()})

	pending := decode(t, get(r, http.MethodGet, "/orders/pending-shipments"))
	assert.Equal(t, 2, pending.Meta.Count)

	shipping := decode(t, get(r, http.MethodGet, "/shipping"))
	assert.Equal(t, 1, shipping.Meta.Count)
}

func TestInventory(t *testing.T) {
	r := newTestEngine(&fakeService{run: testRun()})

	assert.Equal(t, 2, decode(t, get(r, http.MethodGet, "/inventory")).Meta.Count)
	assert.Equal(t, 1, decode(t, get(r, http.MethodGet, "/inventory?low_stock_only=true")).Meta.Count)
	assert.Equal(t, 1, decode(t, get(r, http.MethodGet, "/inventory?status=out_of_stock")).Meta.Count)
	assert.Equal(t, http.StatusBadRequest, get(r, http.MethodGet, "/inventory?status=plenty").Code)
}

func TestAnalytics(t *testing.T) {
	r := newTestEngine(&fakeService{run: testRun()})

	weekly := decode(t, get(r, http.MethodGet, "/analytics/weekly"))
	assert.Equal(t, 7, weekly.Meta.Count)

	channels := decode(t, get(r, http.MethodGet, "/analytics/channels"))
	assert.Equal(t, 3, channels.Meta.Count)
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name   string
		reader app.RunReader
		checks map[string]HealthCheck
		status string
	}{
		{"healthy", fakeReader{run: testRun()}, nil, HealthOK},
		{"no data", fakeReader{err: app.ErrRunNotFound}, nil, HealthNoData},
		{"dependency down", fakeReader{run: testRun()}, map[string]HealthCheck{
			"database": func(context.Context) error { return errors.New("refused") },
		}, HealthDegraded},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewSystemHandler("1.0.0", "fixture", tt.reader, tt.checks)
			r := gin.New()
			r.GET("/health", h.Health)

			w := get(r, http.MethodGet, "/health")
			require.Equal(t, http.StatusOK, w.Code)
			var resp HealthResponse
			require.NoError(t, json.Unmarshal(decode(t, w).Data, &resp))
			assert.Equal(t, tt.status, resp.Status)
			assert.True(t, resp.MockMode)
		})
	}
}
