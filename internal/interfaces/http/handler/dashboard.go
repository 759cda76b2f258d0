package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	app "github.com/shopdash/backend/internal/application/dashboard"
	"github.com/shopdash/backend/internal/domain/dashboard"
	"github.com/shopdash/backend/internal/domain/sales"
	"github.com/shopdash/backend/internal/interfaces/http/dto"
)

// DashboardHandler serves the dashboard payload and manual refreshes
type DashboardHandler struct {
	BaseHandler
	service DashboardService
}

// NewDashboardHandler creates a new DashboardHandler
func NewDashboardHandler(service DashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// GetDashboard returns the latest payload as-is, without the envelope.
// The payload shape is consumed directly by the dashboard UI.
func (h *DashboardHandler) GetDashboard(c *gin.Context) {
	run, err := h.service.Latest(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, run.Payload)
}

// RefreshStats summarizes the data a refresh produced
type RefreshStats struct {
	TotalOrders      int                   `json:"total_orders"`
	TotalRevenue     int64                 `json:"total_revenue"`
	PendingShipments int                   `json:"pending_shipments"`
	LowStockAlerts   int                   `json:"low_stock_alerts"`
	OrdersByChannel  map[sales.Channel]int `json:"orders_by_channel"`
	InventoryItems   int                   `json:"inventory_items"`
}

// RefreshReport is the response of a manual refresh
type RefreshReport struct {
	RunID      string              `json:"run_id"`
	Mode       string              `json:"mode,omitempty"`
	StartedAt  time.Time           `json:"started_at"`
	FinishedAt time.Time           `json:"finished_at"`
	DurationMS int64               `json:"duration_ms"`
	Degraded   bool                `json:"degraded"`
	Sources    []app.SourceOutcome `json:"sources"`
	Stats      RefreshStats        `json:"stats"`
	Warnings   []string            `json:"warnings,omitempty"`
	SinkErrors map[string]string   `json:"sink_errors,omitempty"`
}

// NewRefreshReport builds the report of a completed run
func NewRefreshReport(run *app.Run, mode string) RefreshReport {
	byChannel := make(map[sales.Channel]int, len(sales.AllChannels()))
	for _, ch := range sales.AllChannels() {
		byChannel[ch] = 0
	}
	for _, o := range run.Orders {
		byChannel[o.Channel]++
	}
	return RefreshReport{
		RunID:      run.ID,
		Mode:       mode,
		StartedAt:  run.StartedAt,
		FinishedAt: run.FinishedAt,
		DurationMS: run.FinishedAt.Sub(run.StartedAt).Milliseconds(),
		Degraded:   run.Degraded(),
		Sources:    run.Outcomes,
		Stats:      statsOf(run.Payload, byChannel),
		Warnings:   run.Warnings,
		SinkErrors: run.SinkErrors,
	}
}

func statsOf(p dashboard.Payload, byChannel map[sales.Channel]int) RefreshStats {
	return RefreshStats{
		TotalOrders:      p.Summary.TotalOrders,
		TotalRevenue:     p.Summary.TotalRevenue,
		PendingShipments: p.Summary.PendingShipments,
		LowStockAlerts:   p.Summary.LowStockAlerts,
		OrdersByChannel:  byChannel,
		InventoryItems:   len(p.Inventory),
	}
}

// Refresh runs an aggregation now and reports per-source results
func (h *DashboardHandler) Refresh(c *gin.Context) {
	run, err := h.service.Refresh(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		h.ErrorWithCode(c, dto.ErrCodeRefreshFailed, "Refresh failed: "+err.Error())
		return
	}
	h.Success(c, NewRefreshReport(run, h.service.Mode()))
}
