package ecommerce

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopdash/backend/internal/domain/sales"
)

// lookbackDays is how far back order listings reach; it covers the weekly series
const lookbackDays = 7

// decodeRecords decodes a JSON response and returns the order objects found
// at listPath (a dotted path, empty for a top-level list).
func decodeRecords(body []byte, listPath string) ([]sales.RawRecord, sales.RawRecord, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var root any
	if err := dec.Decode(&root); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrSourceInvalidResponse, err)
	}

	var list any = root
	var env sales.RawRecord
	if m, ok := root.(map[string]any); ok {
		env = sales.RawRecord(m)
		if listPath != "" {
			v, found := env.Lookup(listPath)
			if !found {
				return []sales.RawRecord{}, env, nil
			}
			list = v
		}
	}

	items, ok := list.([]any)
	if !ok {
		if list == nil {
			return []sales.RawRecord{}, env, nil
		}
		return nil, env, fmt.Errorf("%w: expected list at %q, got %T", ErrSourceInvalidResponse, listPath, list)
	}

	out := make([]sales.RawRecord, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			out = append(out, sales.RawRecord(m))
		}
	}
	return out, env, nil
}

// window returns the listing range ending at now, in now's location
func window(now time.Time) (time.Time, time.Time) {
	end := now
	y, m, d := now.AddDate(0, 0, -(lookbackDays - 1)).Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	return start, end
}
