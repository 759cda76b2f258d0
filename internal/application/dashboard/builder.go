// Package dashboard runs aggregation: it fetches channel snapshots, normalizes
// and aggregates them, builds the dashboard payload and hands the run to sinks.
package dashboard

import (
	"time"

	"github.com/shopdash/backend/internal/application/aggregate"
	"github.com/shopdash/backend/internal/domain/dashboard"
	"github.com/shopdash/backend/internal/domain/stock"
)

// BuildPayload assembles the dashboard payload. Inventory items must already
// be merged; no statistic is computed here beyond counting alerts.
func BuildPayload(res aggregate.Result, inventory []stock.Item, now time.Time) dashboard.Payload {
	if inventory == nil {
		inventory = []stock.Item{}
	}

	pending := make([]dashboard.PendingShipment, 0, len(res.Pending))
	for _, o := range res.Pending {
		pending = append(pending, dashboard.NewPendingShipment(o))
	}

	return dashboard.Payload{
		Summary: dashboard.Summary{
			Date:             now.Format(dashboard.DateLayout),
			TotalOrders:      res.TotalOrders,
			TotalRevenue:     res.TotalRevenue,
			PendingShipments: res.PendingCount,
			LowStockAlerts:   stock.CountAlerts(inventory),
		},
		ChannelBreakdown: res.Breakdown,
		WeeklySales:      res.Weekly,
		PendingShipments: pending,
		Inventory:        inventory,
		CollectedAt:      now.Format(time.RFC3339),
	}
}
