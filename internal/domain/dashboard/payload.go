// Package dashboard defines the dashboard payload contract and the per-channel
// raw snapshots it is built from.
package dashboard

import (
	"github.com/shopdash/backend/internal/domain/sales"
	"github.com/shopdash/backend/internal/domain/stock"
)

// Payload limits and formats
const (
	// MaxPendingShipments bounds the pending shipment list in the payload
	MaxPendingShipments = 20
	// WeeklySeriesDays is the fixed length of the weekly sales series
	WeeklySeriesDays = 7

	DateLayout       = "2006-01-02"
	WeeklyDateLayout = "01/02"
)

// Payload is the aggregate consumed by the dashboard UI and the run store.
// Field names and nesting are a compatibility contract.
type Payload struct {
	Summary          Summary            `json:"summary"`
	ChannelBreakdown []ChannelBreakdown `json:"channel_breakdown"`
	WeeklySales      []WeeklySalesPoint `json:"weekly_sales"`
	PendingShipments []PendingShipment  `json:"pending_shipments"`
	Inventory        []stock.Item       `json:"inventory"`
	CollectedAt      string             `json:"collected_at"`
}

// Summary is the headline block of the dashboard
type Summary struct {
	Date             string `json:"date"`
	TotalOrders      int    `json:"total_orders"`
	TotalRevenue     int64  `json:"total_revenue"`
	PendingShipments int    `json:"pending_shipments"`
	LowStockAlerts   int    `json:"low_stock_alerts"`
}

// ChannelBreakdown is one channel's share of revenue
type ChannelBreakdown struct {
	Channel    sales.Channel `json:"channel"`
	OrderCount int           `json:"order_count"`
	Revenue    int64         `json:"revenue"`
	Percentage float64       `json:"percentage"`
}

// WeeklySalesPoint is one day of the trailing weekly series
type WeeklySalesPoint struct {
	Date    string `json:"date"`
	Cafe24  int64  `json:"cafe24"`
	Naver   int64  `json:"naver"`
	Coupang int64  `json:"coupang"`
	Total   int64  `json:"total"`
}

// Add books an amount against a channel and the day total
func (p *WeeklySalesPoint) Add(ch sales.Channel, amount int64) {
	switch ch {
	case sales.ChannelCafe24:
		p.Cafe24 += amount
	case sales.ChannelNaver:
		p.Naver += amount
	case sales.ChannelCoupang:
		p.Coupang += amount
	default:
		return
	}
	p.Total += amount
}

// Revenue returns the amount booked for a channel
func (p WeeklySalesPoint) Revenue(ch sales.Channel) int64 {
	switch ch {
	case sales.ChannelCafe24:
		return p.Cafe24
	case sales.ChannelNaver:
		return p.Naver
	case sales.ChannelCoupang:
		return p.Coupang
	}
	return 0
}

// PendingShipment is the display row for an order awaiting shipment
type PendingShipment struct {
	OrderID      string        `json:"order_id"`
	Channel      sales.Channel `json:"channel"`
	ProductName  string        `json:"product_name"`
	Quantity     int           `json:"quantity"`
	OrderedAt    string        `json:"ordered_at"`
	CustomerName string        `json:"customer_name"`
}

// NewPendingShipment projects a canonical order onto a pending shipment row
func NewPendingShipment(o sales.Order) PendingShipment {
	return PendingShipment{
		OrderID:      o.OrderID,
		Channel:      o.Channel,
		ProductName:  o.ProductName,
		Quantity:     o.Quantity,
		OrderedAt:    o.OrderedAt,
		CustomerName: o.CustomerName,
	}
}
