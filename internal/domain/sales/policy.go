package sales

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// ---------------------------------------------------------------------------
// Status priority policies
// ---------------------------------------------------------------------------

// StatusPolicy fixes the order in which canonical status buckets are tested
// against a raw status label. The first bucket with a matching token wins.
type StatusPolicy struct {
	Name  string
	Order []OrderStatus
}

// Named policies
var (
	// CancelFirst tests cancellation and refund tokens before completion,
	// completion before in-transit and in-transit before pending.
	CancelFirst = StatusPolicy{
		Name: "cancel_first",
		Order: []OrderStatus{
			OrderStatusCancelled,
			OrderStatusDelivered,
			OrderStatusShipping,
			OrderStatusPending,
		},
	}

	// CompleteFirst lets completion tokens win over cancellation tokens.
	// Kept selectable for data that was classified under that ordering.
	CompleteFirst = StatusPolicy{
		Name: "complete_first",
		Order: []OrderStatus{
			OrderStatusDelivered,
			OrderStatusCancelled,
			OrderStatusShipping,
			OrderStatusPending,
		},
	}
)

// DefaultStatusPolicy is the policy used when none is configured
var DefaultStatusPolicy = CancelFirst

// PolicyByName looks up a named status policy
func PolicyByName(name string) (StatusPolicy, error) {
	switch name {
	case "", CancelFirst.Name:
		return CancelFirst, nil
	case CompleteFirst.Name:
		return CompleteFirst, nil
	}
	return StatusPolicy{}, ErrUnknownPolicy
}

// ---------------------------------------------------------------------------
// Channel status vocabulary
// ---------------------------------------------------------------------------

// StatusVocabulary is one channel's closed mapping from raw status
// representations to canonical statuses.
type StatusVocabulary struct {
	// Codes are exact status codes (e.g. "N40"), checked before tokens
	Codes map[string]OrderStatus
	// Tokens are case-sensitive substrings searched in free-text labels
	Tokens map[OrderStatus][]string
	// Flags are legacy numeric fields counting units in a shipment state
	Flags map[OrderStatus][]string
}

// ClassifyLabel maps a free-text or coded status label.
// Labels are NFC-normalized so decomposed Hangul matches composed tokens.
func (v StatusVocabulary) ClassifyLabel(policy StatusPolicy, label string) OrderStatus {
	label = norm.NFC.String(strings.TrimSpace(label))
	if label == "" {
		return OrderStatusUnknown
	}

	if st, ok := v.Codes[label]; ok {
		return st
	}

	for _, st := range policy.Order {
		for _, token := range v.Tokens[st] {
			if strings.Contains(label, norm.NFC.String(token)) {
				return st
			}
		}
	}
	return OrderStatusUnknown
}

// ClassifyFlags maps legacy numeric shipment-state counters. The first flag
// with a positive count, in policy order, decides the status. The boolean
// reports whether the record carries any of the channel's flag fields.
func (v StatusVocabulary) ClassifyFlags(policy StatusPolicy, r RawRecord) (OrderStatus, bool) {
	present := false
	for _, st := range policy.Order {
		for _, field := range v.Flags[st] {
			n, ok := r.Int(field)
			if !ok {
				continue
			}
			present = true
			if n > 0 {
				return st, true
			}
		}
	}
	return OrderStatusUnknown, present
}
