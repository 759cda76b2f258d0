// Package stock classifies product stock levels for the dashboard.
package stock

// DefaultThreshold is the available quantity at or below which stock is low
const DefaultThreshold = 10

// Status is the derived stock classification
type Status string

const (
	StatusNormal     Status = "normal"
	StatusLow        Status = "low"
	StatusOutOfStock Status = "out_of_stock"
)

// IsValid returns true for a known stock status
func (s Status) IsValid() bool {
	switch s {
	case StatusNormal, StatusLow, StatusOutOfStock:
		return true
	}
	return false
}

// NeedsAttention reports whether the status should raise a low-stock alert
func (s Status) NeedsAttention() bool {
	return s == StatusLow || s == StatusOutOfStock
}

// Item is one product's stock position
type Item struct {
	ProductID      string `json:"product_id" yaml:"product_id"`
	ProductName    string `json:"product_name" yaml:"product_name"`
	SKU            string `json:"sku,omitempty" yaml:"sku,omitempty"`
	CurrentStock   int    `json:"current_stock" yaml:"current_stock"`
	ReservedStock  int    `json:"reserved_stock" yaml:"reserved_stock"`
	AvailableStock int    `json:"available_stock" yaml:"available_stock"`
	Status         Status `json:"status" yaml:"status"`
}

// Available returns current minus reserved stock, never below zero.
// Negative inputs are treated as zero.
func Available(current, reserved int) int {
	current = max(current, 0)
	reserved = max(reserved, 0)
	return max(current-reserved, 0)
}

// Classify derives the stock status from the available quantity
func Classify(available, threshold int) Status {
	switch {
	case available <= 0:
		return StatusOutOfStock
	case available <= threshold:
		return StatusLow
	default:
		return StatusNormal
	}
}

// Merge recomputes available stock and status for every item using the
// given threshold. Stored available/status values are ignored. The input
// slice is not modified.
func Merge(items []Item, threshold int) []Item {
	out := make([]Item, 0, len(items))
	for _, it := range items {
		it.CurrentStock = max(it.CurrentStock, 0)
		it.ReservedStock = max(it.ReservedStock, 0)
		it.AvailableStock = Available(it.CurrentStock, it.ReservedStock)
		it.Status = Classify(it.AvailableStock, threshold)
		out = append(out, it)
	}
	return out
}

// CountAlerts returns how many items are low or out of stock
func CountAlerts(items []Item) int {
	n := 0
	for _, it := range items {
		if it.Status.NeedsAttention() {
			n++
		}
	}
	return n
}

// Filter returns the items matching status, or only alerting items when
// alertsOnly is set. An empty status matches every item.
func Filter(items []Item, status Status, alertsOnly bool) []Item {
	out := make([]Item, 0, len(items))
	for _, it := range items {
		if alertsOnly && !it.Status.NeedsAttention() {
			continue
		}
		if status != "" && it.Status != status {
			continue
		}
		out = append(out, it)
	}
	return out
}
