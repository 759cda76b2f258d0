package sales

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

// ---------------------------------------------------------------------------
// Raw records
// ---------------------------------------------------------------------------

// RawRecord is one upstream order exactly as a channel reported it.
// Upstream shapes change without notice, so fields are only read through the
// total accessors below and never through direct map indexing.
type RawRecord map[string]any

// Lookup resolves a dotted path such as "receiver.name" or
// "items.0.product_name". Numeric segments index into lists.
// Missing keys, nil values and type mismatches report false.
func (r RawRecord) Lookup(path string) (any, bool) {
	if r == nil || path == "" {
		return nil, false
	}

	var cur any = map[string]any(r)
	for _, seg := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case map[string]any:
			v, ok := node[seg]
			if !ok {
				return nil, false
			}
			cur = v
		case RawRecord:
			v, ok := node[seg]
			if !ok {
				return nil, false
			}
			cur = v
		case []any:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, false
			}
			cur = node[idx]
		default:
			return nil, false
		}
	}

	if cur == nil {
		return nil, false
	}
	return cur, true
}

// String returns the value at path as a trimmed string.
// Empty strings, maps and lists are reported as absent.
func (r RawRecord) String(path string) (string, bool) {
	v, ok := r.Lookup(path)
	if !ok {
		return "", false
	}
	switch v.(type) {
	case map[string]any, []any, RawRecord:
		return "", false
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return "", false
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	return s, true
}

// Int returns the value at path as an integer.
// Numeric strings are accepted; fractional values are truncated.
func (r RawRecord) Int(path string) (int64, bool) {
	v, ok := r.Lookup(path)
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case bool:
		return 0, false
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(n))
		if err != nil {
			return 0, false
		}
		return d.IntPart(), true
	case json.Number:
		d, err := decimal.NewFromString(n.String())
		if err != nil {
			return 0, false
		}
		return d.IntPart(), true
	}
	i, err := cast.ToInt64E(v)
	if err != nil {
		return 0, false
	}
	return i, true
}

// Amount returns the value at path as a whole KRW amount.
// Display strings such as "₩12,300" or "12,300원" are accepted and
// fractional amounts are rounded half away from zero.
func (r RawRecord) Amount(path string) (int64, bool) {
	v, ok := r.Lookup(path)
	if !ok {
		return 0, false
	}

	var d decimal.Decimal
	switch n := v.(type) {
	case bool:
		return 0, false
	case string:
		cleaned := cleanAmount(n)
		if cleaned == "" {
			return 0, false
		}
		parsed, err := decimal.NewFromString(cleaned)
		if err != nil {
			return 0, false
		}
		d = parsed
	case json.Number:
		parsed, err := decimal.NewFromString(n.String())
		if err != nil {
			return 0, false
		}
		d = parsed
	case float64:
		d = decimal.NewFromFloat(n)
	case float32:
		d = decimal.NewFromFloat32(n)
	default:
		i, err := cast.ToInt64E(v)
		if err != nil {
			return 0, false
		}
		d = decimal.NewFromInt(i)
	}
	return d.Round(0).IntPart(), true
}

// cleanAmount keeps digits, a leading minus and the decimal point
func cleanAmount(s string) string {
	var b strings.Builder
	for i, ch := range strings.TrimSpace(s) {
		switch {
		case ch >= '0' && ch <= '9', ch == '.':
			b.WriteRune(ch)
		case ch == '-' && i == 0:
			b.WriteRune(ch)
		}
	}
	out := b.String()
	if out == "-" || out == "." {
		return ""
	}
	return out
}

// ---------------------------------------------------------------------------
// Field chains
// ---------------------------------------------------------------------------

// FieldChain lists raw field paths for one canonical field in preference
// order: current schema name first, legacy aliases after.
type FieldChain []string

// String returns the first present string in the chain, or def
func (fc FieldChain) String(r RawRecord, def string) string {
	for _, path := range fc {
		if s, ok := r.String(path); ok {
			return s
		}
	}
	return def
}

// Int returns the first present integer in the chain, or def
func (fc FieldChain) Int(r RawRecord, def int64) int64 {
	for _, path := range fc {
		if i, ok := r.Int(path); ok {
			return i
		}
	}
	return def
}

// Amount returns the first present amount in the chain, or def
func (fc FieldChain) Amount(r RawRecord, def int64) int64 {
	for _, path := range fc {
		if a, ok := r.Amount(path); ok {
			return a
		}
	}
	return def
}

// Present reports whether any field in the chain resolves
func (fc FieldChain) Present(r RawRecord) bool {
	for _, path := range fc {
		if _, ok := r.Lookup(path); ok {
			return true
		}
	}
	return false
}
