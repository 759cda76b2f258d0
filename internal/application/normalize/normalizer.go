// Package normalize maps channel-specific raw orders onto the canonical order.
package normalize

import (
	"time"

	"github.com/shopdash/backend/internal/domain/sales"
)

// Normalizer converts one channel's raw records into canonical orders.
// Normalize is total: missing or malformed fields resolve to defaults.
type Normalizer interface {
	Channel() sales.Channel
	Normalize(raw sales.RawRecord) sales.Order
}

// Schema describes where a channel keeps each canonical field.
// Each chain lists the current field name first and legacy aliases after.
type Schema struct {
	Channel        sales.Channel
	OrderID        sales.FieldChain
	OrderedAt      sales.FieldChain
	CustomerName   sales.FieldChain
	ProductName    sales.FieldChain
	TotalAmount    sales.FieldChain
	Quantity       sales.FieldChain
	StatusLabel    sales.FieldChain
	TrackingNumber sales.FieldChain
	Vocabulary     sales.StatusVocabulary
}

// SchemaNormalizer is a Normalizer driven entirely by a Schema
type SchemaNormalizer struct {
	schema Schema
	policy sales.StatusPolicy
	loc    *time.Location
}

// NewSchemaNormalizer creates a normalizer for schema. A nil location
// falls back to time.Local for epoch timestamps.
func NewSchemaNormalizer(schema Schema, policy sales.StatusPolicy, loc *time.Location) *SchemaNormalizer {
	if loc == nil {
		loc = time.Local
	}
	if len(policy.Order) == 0 {
		policy = sales.DefaultStatusPolicy
	}
	return &SchemaNormalizer{schema: schema, policy: policy, loc: loc}
}

// Channel returns the channel this normalizer reads
func (n *SchemaNormalizer) Channel() sales.Channel {
	return n.schema.Channel
}

// Schema returns the field layout used by the normalizer
func (n *SchemaNormalizer) Schema() Schema {
	return n.schema
}

// Normalize maps one raw record to a canonical order
func (n *SchemaNormalizer) Normalize(raw sales.RawRecord) sales.Order {
	s := n.schema

	quantity := s.Quantity.Int(raw, 1)
	if quantity < 1 {
		quantity = 1
	}

	return sales.Order{
		OrderID:        s.OrderID.String(raw, ""),
		Channel:        s.Channel,
		OrderedAt:      NormalizeTimestamp(s.OrderedAt.String(raw, ""), n.loc),
		CustomerName:   s.CustomerName.String(raw, ""),
		ProductName:    s.ProductName.String(raw, ""),
		TotalAmount:    max(s.TotalAmount.Amount(raw, 0), 0),
		Status:         n.status(raw),
		Quantity:       int(quantity),
		TrackingNumber: s.TrackingNumber.String(raw, ""),
	}
}

// status resolves the canonical status. A present status label decides on
// its own; legacy numeric flags are only read when no label exists.
func (n *SchemaNormalizer) status(raw sales.RawRecord) sales.OrderStatus {
	if label, ok := firstString(n.schema.StatusLabel, raw); ok {
		return n.schema.Vocabulary.ClassifyLabel(n.policy, label)
	}
	if st, present := n.schema.Vocabulary.ClassifyFlags(n.policy, raw); present {
		return st
	}
	return sales.OrderStatusUnknown
}

func firstString(chain sales.FieldChain, raw sales.RawRecord) (string, bool) {
	for _, path := range chain {
		if s, ok := raw.String(path); ok {
			return s, true
		}
	}
	return "", false
}

var _ Normalizer = (*SchemaNormalizer)(nil)
