package dashboard

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopdash/backend/internal/domain/sales"
)

// ErrInvalidSnapshot is returned when channel input is neither an envelope nor a list
var ErrInvalidSnapshot = errors.New("dashboard: invalid channel snapshot")

// ChannelSummary is the summary a channel source reports about itself.
// It is informational; aggregates are always computed from orders.
type ChannelSummary struct {
	TotalOrders      int   `json:"total_orders"`
	PendingShipments int   `json:"pending_shipments"`
	TotalRevenue     int64 `json:"total_revenue"`
}

// ChannelSnapshot is one channel's raw input for an aggregation run
type ChannelSnapshot struct {
	Channel     sales.Channel     `json:"channel"`
	CollectedAt string            `json:"collected_at,omitempty"`
	Orders      []sales.RawRecord `json:"orders"`
	Summary     ChannelSummary    `json:"summary"`
	// FallbackReason is set when a backup source produced the snapshot
	// because the preferred one failed
	FallbackReason string `json:"fallback_reason,omitempty"`
}

// EmptySnapshot returns a snapshot with no orders and a zeroed summary
func EmptySnapshot(ch sales.Channel) ChannelSnapshot {
	return ChannelSnapshot{Channel: ch, Orders: []sales.RawRecord{}}
}

// ParseChannelSnapshot decodes channel input given either as an envelope
// {"orders": [...], "summary": {...}} or as a bare list of orders. A bare
// list gets a zeroed summary. List elements that are not objects are skipped.
// Empty input yields an empty snapshot.
func ParseChannelSnapshot(ch sales.Channel, data []byte) (ChannelSnapshot, error) {
	snap := EmptySnapshot(ch)

	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return snap, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var root any
	if err := dec.Decode(&root); err != nil {
		return snap, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}

	switch v := root.(type) {
	case []any:
		snap.Orders = recordsFrom(v)
	case map[string]any:
		env := sales.RawRecord(v)
		if list, ok := v["orders"].([]any); ok {
			snap.Orders = recordsFrom(list)
		}
		snap.Summary = ChannelSummary{
			TotalOrders:      int(sales.FieldChain{"summary.total_orders"}.Int(env, 0)),
			PendingShipments: int(sales.FieldChain{"summary.pending_shipments"}.Int(env, 0)),
			TotalRevenue:     sales.FieldChain{"summary.total_revenue"}.Amount(env, 0),
		}
		snap.CollectedAt = sales.FieldChain{"collected_at"}.String(env, "")
	default:
		return snap, fmt.Errorf("%w: unexpected %T at top level", ErrInvalidSnapshot, root)
	}

	return snap, nil
}

func recordsFrom(list []any) []sales.RawRecord {
	out := make([]sales.RawRecord, 0, len(list))
	for _, item := range list {
		if m, ok := item.(map[string]any); ok {
			out = append(out, sales.RawRecord(m))
		}
	}
	return out
}
