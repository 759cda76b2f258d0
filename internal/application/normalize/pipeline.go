package normalize

import (
	"strings"
	"time"

	"github.com/shopdash/backend/internal/domain/dashboard"
	"github.com/shopdash/backend/internal/domain/sales"
)

// PlaceholderFilter drops synthetic orders a channel emits to stand in for
// orders it has not reported yet. They are recognized by an order ID prefix
// read from the raw record, so they never reach normalization.
type PlaceholderFilter struct {
	Channel sales.Channel
	Prefix  string
}

// Matches reports whether the order ID marks a placeholder
func (f PlaceholderFilter) Matches(orderID string) bool {
	return f.Prefix != "" && strings.HasPrefix(orderID, f.Prefix)
}

// Result is the canonical order set produced from one run's snapshots
type Result struct {
	// Orders in snapshot order, then source order within each snapshot
	Orders []sales.Order
	// Placeholders counts the raw records dropped per channel
	Placeholders map[sales.Channel]int
	// PerChannel counts the normalized orders per channel
	PerChannel map[sales.Channel]int
}

// Pipeline applies placeholder filters and channel normalizers to snapshots
type Pipeline struct {
	normalizers map[sales.Channel]*SchemaNormalizer
	filters     map[sales.Channel][]PlaceholderFilter
}

// NewPipeline creates a pipeline with the built-in schema of every channel
func NewPipeline(policy sales.StatusPolicy, loc *time.Location, filters ...PlaceholderFilter) *Pipeline {
	p := &Pipeline{
		normalizers: make(map[sales.Channel]*SchemaNormalizer),
		filters:     make(map[sales.Channel][]PlaceholderFilter),
	}
	for _, ch := range sales.AllChannels() {
		schema, _ := SchemaFor(ch)
		p.normalizers[ch] = NewSchemaNormalizer(schema, policy, loc)
	}
	for _, f := range filters {
		if f.Prefix == "" {
			continue
		}
		p.filters[f.Channel] = append(p.filters[f.Channel], f)
	}
	return p
}

// Normalizer returns the normalizer for a channel
func (p *Pipeline) Normalizer(ch sales.Channel) (Normalizer, bool) {
	n, ok := p.normalizers[ch]
	return n, ok
}

// IsPlaceholder reports whether a raw record of ch is a placeholder order
func (p *Pipeline) IsPlaceholder(ch sales.Channel, raw sales.RawRecord) bool {
	filters := p.filters[ch]
	if len(filters) == 0 {
		return false
	}
	n, ok := p.normalizers[ch]
	if !ok {
		return false
	}
	id := n.schema.OrderID.String(raw, "")
	for _, f := range filters {
		if f.Matches(id) {
			return true
		}
	}
	return false
}

// Normalize turns snapshots into one canonical order set. Snapshots of
// unknown channels contribute nothing.
func (p *Pipeline) Normalize(snapshots []dashboard.ChannelSnapshot) Result {
	res := Result{
		Orders:       []sales.Order{},
		Placeholders: make(map[sales.Channel]int),
		PerChannel:   make(map[sales.Channel]int),
	}

	for _, snap := range snapshots {
		n, ok := p.normalizers[snap.Channel]
		if !ok {
			continue
		}
		for _, raw := range snap.Orders {
			if p.IsPlaceholder(snap.Channel, raw) {
				res.Placeholders[snap.Channel]++
				continue
			}
			res.Orders = append(res.Orders, n.Normalize(raw))
			res.PerChannel[snap.Channel]++
		}
	}
	return res
}
