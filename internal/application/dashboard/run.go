package dashboard

import (
	"time"

	"github.com/shopdash/backend/internal/domain/dashboard"
	"github.com/shopdash/backend/internal/domain/sales"
)

// OutcomeStatus is the result of fetching one channel
type OutcomeStatus string

const (
	OutcomeOK       OutcomeStatus = "ok"
	OutcomeFallback OutcomeStatus = "fallback"
	OutcomeFailed   OutcomeStatus = "failed"
)

// SourceOutcome reports how one channel fetch went. A failed fetch
// contributes an empty order set; the run carries on.
type SourceOutcome struct {
	Channel  sales.Channel            `json:"channel"`
	Source   string                   `json:"source"`
	Status   OutcomeStatus            `json:"status"`
	Error    string                   `json:"error,omitempty"`
	RawCount int                      `json:"raw_count"`
	Orders   int                      `json:"orders"`
	Dropped  int                      `json:"placeholders_dropped"`
	Reported dashboard.ChannelSummary `json:"reported_summary"`
	Duration time.Duration            `json:"duration_ns"`
}

// Run is one complete aggregation: the payload plus the canonical orders and
// per-channel outcomes it was built from. Runs are never updated.
type Run struct {
	ID         string            `json:"id"`
	StartedAt  time.Time         `json:"started_at"`
	FinishedAt time.Time         `json:"finished_at"`
	Payload    dashboard.Payload `json:"payload"`
	Orders     []sales.Order     `json:"orders"`
	Outcomes   []SourceOutcome   `json:"outcomes"`
	Warnings   []string          `json:"warnings,omitempty"`
	SinkErrors map[string]string `json:"sink_errors,omitempty"`
}

// Degraded reports whether any channel failed or fell back
func (r *Run) Degraded() bool {
	for _, o := range r.Outcomes {
		if o.Status != OutcomeOK {
			return true
		}
	}
	return false
}

// AllFailed reports whether every channel fetch failed
func (r *Run) AllFailed() bool {
	if len(r.Outcomes) == 0 {
		return false
	}
	for _, o := range r.Outcomes {
		if o.Status != OutcomeFailed {
			return false
		}
	}
	return true
}

// RunSummary is the listing form of a stored run
type RunSummary struct {
	ID               string    `json:"id"`
	FinishedAt       time.Time `json:"finished_at"`
	Date             string    `json:"date"`
	TotalOrders      int       `json:"total_orders"`
	TotalRevenue     int64     `json:"total_revenue"`
	PendingShipments int       `json:"pending_shipments"`
	LowStockAlerts   int       `json:"low_stock_alerts"`
	Degraded         bool      `json:"degraded"`
}
