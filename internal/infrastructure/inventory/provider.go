// Package inventory loads the externally maintained stock list.
package inventory

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/shopdash/backend/internal/domain/stock"
)

// ErrInvalidInventory is returned for an unreadable stock file
var ErrInvalidInventory = errors.New("inventory: invalid stock file")

// DefaultItems is the stock list used when no file is configured
func DefaultItems() []stock.Item {
	return []stock.Item{
		{ProductID: "P001", ProductName: "LOCK IN COFFEE::HOUSE", CurrentStock: 50, ReservedStock: 5},
		{ProductID: "P002", ProductName: "LOCK IN COFFEE::VIBRANT", CurrentStock: 35, ReservedStock: 3},
		{ProductID: "P003", ProductName: "LOCK IN COFFEE::DECAF", CurrentStock: 8, ReservedStock: 2},
		{ProductID: "P004", ProductName: "[1+1 EVENT] LOCK IN COFFEE", CurrentStock: 25, ReservedStock: 4},
	}
}

// StaticInventory serves a fixed list
type StaticInventory struct {
	items []stock.Item
}

// NewStaticInventory creates a provider over items; nil means DefaultItems
func NewStaticInventory(items []stock.Item) *StaticInventory {
	if items == nil {
		items = DefaultItems()
	}
	return &StaticInventory{items: items}
}

// Items returns a copy of the list
func (s *StaticInventory) Items(context.Context) ([]stock.Item, error) {
	out := make([]stock.Item, len(s.items))
	copy(out, s.items)
	return out, nil
}

// FileInventory reads the stock list from a JSON or YAML file on every call.
// The file holds a list of items or an object with an "items" list. When the
// file does not exist the fallback list is served.
type FileInventory struct {
	path     string
	fallback []stock.Item
}

// NewFileInventory creates a file provider. fallback may be nil.
func NewFileInventory(path string, fallback []stock.Item) *FileInventory {
	return &FileInventory{path: path, fallback: fallback}
}

// Path returns the file read by the provider
func (f *FileInventory) Path() string { return f.path }

// Items reads and decodes the file
func (f *FileInventory) Items(ctx context.Context) ([]stock.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return NewStaticInventory(f.fallback).Items(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("inventory: read %s: %w", f.path, err)
	}
	return Decode(data, filepath.Ext(f.path))
}

// itemsEnvelope is the object form of a stock file
type itemsEnvelope struct {
	Items []stock.Item `json:"items" yaml:"items"`
}

// Decode parses a stock list. ext selects YAML for ".yaml" and ".yml";
// anything else is read as JSON.
func Decode(data []byte, ext string) ([]stock.Item, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return []stock.Item{}, nil
	}

	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		var items []stock.Item
		if err := yaml.Unmarshal(data, &items); err == nil {
			return items, nil
		}
		var env itemsEnvelope
		if err := yaml.Unmarshal(data, &env); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInventory, err)
		}
		return env.Items, nil
	}

	if data[0] == '[' {
		var items []stock.Item
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInventory, err)
		}
		return items, nil
	}
	var env itemsEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInventory, err)
	}
	return env.Items, nil
}
