package dashboard

import (
	"errors"

	"github.com/shopdash/backend/internal/domain/dashboard"
	"github.com/shopdash/backend/internal/domain/sales"
	"github.com/shopdash/backend/internal/domain/stock"
)

// ErrOrderNotFound is returned when a view holds no order with the given ID
var ErrOrderNotFound = errors.New("dashboard: order not found")

// Order listing limits
const (
	DefaultOrderLimit = 50
	MaxOrderLimit     = 200
)

// OrderFilter narrows an order listing. Zero values match everything.
type OrderFilter struct {
	Channel sales.Channel
	Status  sales.OrderStatus
	// From and To are inclusive YYYY-MM-DD bounds on the order date
	From  string
	To    string
	Limit int
}

func (f OrderFilter) matches(o sales.Order) bool {
	if f.Channel != "" && o.Channel != f.Channel {
		return false
	}
	if f.Status != "" && o.Status != f.Status {
		return false
	}
	if f.From == "" && f.To == "" {
		return true
	}
	day := o.OrderedAt
	if len(day) > len("2006-01-02") {
		day = day[:len("2006-01-02")]
	}
	if f.From != "" && day < f.From {
		return false
	}
	if f.To != "" && day > f.To {
		return false
	}
	return true
}

// ChannelAnalytics is the channel breakdown plus per-status order counts
type ChannelAnalytics struct {
	Breakdown    []dashboard.ChannelBreakdown                  `json:"channel_breakdown"`
	StatusCounts map[sales.Channel]map[sales.OrderStatus]int `json:"status_counts"`
	TotalRevenue int64                                         `json:"total_revenue"`
}

// View is a read-only session over one run. It is built per request and
// holds no state beyond the run it wraps.
type View struct {
	run *Run
}

// NewView wraps a run
func NewView(run *Run) *View {
	return &View{run: run}
}

// Run returns the underlying run
func (v *View) Run() *Run {
	return v.run
}

// Payload returns the dashboard payload of the run
func (v *View) Payload() dashboard.Payload {
	return v.run.Payload
}

// Orders lists canonical orders in merge order
func (v *View) Orders(f OrderFilter) []sales.Order {
	limit := f.Limit
	if limit <= 0 {
		limit = DefaultOrderLimit
	}
	limit = min(limit, MaxOrderLimit)

	out := make([]sales.Order, 0, min(limit, len(v.run.Orders)))
	for _, o := range v.run.Orders {
		if len(out) == limit {
			break
		}
		if f.matches(o) {
			out = append(out, o)
		}
	}
	return out
}

// Order finds an order by ID, optionally restricted to one channel. Order IDs
// are only unique within a channel; without one the first match wins.
func (v *View) Order(id string, ch sales.Channel) (sales.Order, error) {
	for _, o := range v.run.Orders {
		if o.OrderID != id {
			continue
		}
		if ch != "" && o.Channel != ch {
			continue
		}
		return o, nil
	}
	return sales.Order{}, ErrOrderNotFound
}

// PendingShipments returns every order awaiting shipment, uncapped
func (v *View) PendingShipments() []dashboard.PendingShipment {
	out := []dashboard.PendingShipment{}
	for _, o := range v.run.Orders {
		if o.AwaitingShipment() {
			out = append(out, dashboard.NewPendingShipment(o))
		}
	}
	return out
}

// Shipping returns orders in transit or carrying a tracking number
func (v *View) Shipping() []sales.Order {
	out := []sales.Order{}
	for _, o := range v.run.Orders {
		if o.Status == sales.OrderStatusShipping || o.TrackingNumber != "" {
			out = append(out, o)
		}
	}
	return out
}

// Inventory filters the run's inventory
func (v *View) Inventory(status stock.Status, lowOnly bool) []stock.Item {
	return stock.Filter(v.run.Payload.Inventory, status, lowOnly)
}

// Weekly returns the seven-day revenue series
func (v *View) Weekly() []dashboard.WeeklySalesPoint {
	return v.run.Payload.WeeklySales
}

// Channels returns the channel breakdown with per-status counts
func (v *View) Channels() ChannelAnalytics {
	counts := make(map[sales.Channel]map[sales.OrderStatus]int, len(sales.AllChannels()))
	for _, ch := range sales.AllChannels() {
		counts[ch] = make(map[sales.OrderStatus]int, len(sales.AllOrderStatuses()))
		for _, st := range sales.AllOrderStatuses() {
			counts[ch][st] = 0
		}
	}
	for _, o := range v.run.Orders {
		if m, ok := counts[o.Channel]; ok {
			m[o.Status]++
		}
	}
	return ChannelAnalytics{
		Breakdown:    v.run.Payload.ChannelBreakdown,
		StatusCounts: counts,
		TotalRevenue: v.run.Payload.Summary.TotalRevenue,
	}
}
