package inventory

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopdash/backend/internal/domain/stock"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestStaticInventory_Defaults(t *testing.T) {
	items, err := NewStaticInventory(nil).Items(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 4)
	assert.Equal(t, "P001", items[0].ProductID)
	assert.Equal(t, "LOCK IN COFFEE::DECAF", items[2].ProductName)

	merged := stock.Merge(items, stock.DefaultThreshold)
	assert.Equal(t, 6, merged[2].AvailableStock)
	assert.Equal(t, stock.StatusLow, merged[2].Status)
	assert.Equal(t, 1, stock.CountAlerts(merged))
}

func TestStaticInventory_ReturnsCopy(t *testing.T) {
	inv := NewStaticInventory(nil)
	items, _ := inv.Items(context.Background())
	items[0].CurrentStock = -1

	again, _ := inv.Items(context.Background())
	assert.Equal(t, 50, again[0].CurrentStock)
}

func TestFileInventory_JSONList(t *testing.T) {
	path := writeFile(t, "inventory.json", `[
		{"product_id": "X1", "product_name": "Drip Bag", "current_stock": 3, "reserved_stock": 1, "available_stock": 999, "status": "normal"}
	]`)

	items, err := NewFileInventory(path, nil).Items(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "X1", items[0].ProductID)
	assert.Equal(t, 3, items[0].CurrentStock)
}

func TestFileInventory_JSONEnvelope(t *testing.T) {
	path := writeFile(t, "inventory.json", `{"items": [{"product_id": "X2", "current_stock": 40}]}`)

	items, err := NewFileInventory(path, nil).Items(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 40, items[0].CurrentStock)
}

func TestFileInventory_YAML(t *testing.T) {
	path := writeFile(t, "inventory.yaml", `
- product_id: Y1
  product_name: Cold Brew
  current_stock: 12
  reserved_stock: 4
- product_id: Y2
  product_name: Capsule
  current_stock: 0
`)

	items, err := NewFileInventory(path, nil).Items(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, 4, items[0].ReservedStock)

	merged := stock.Merge(items, stock.DefaultThreshold)
	assert.Equal(t, stock.StatusLow, merged[0].Status)
	assert.Equal(t, stock.StatusOutOfStock, merged[1].Status)
}

func TestFileInventory_YAMLEnvelope(t *testing.T) {
	path := writeFile(t, "inventory.yml", "items:\n  - product_id: Z1\n    current_stock: 100\n")

	items, err := NewFileInventory(path, nil).Items(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Z1", items[0].ProductID)
}

func TestFileInventory_MissingFileUsesFallback(t *testing.T) {
	inv := NewFileInventory(filepath.Join(t.TempDir(), "missing.json"), nil)

	items, err := inv.Items(context.Background())
	require.NoError(t, err)
	assert.Len(t, items, 4)

	custom := NewFileInventory(filepath.Join(t.TempDir(), "missing.json"), []stock.Item{})
	items, err = custom.Items(context.Background())
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestFileInventory_Invalid(t *testing.T) {
	path := writeFile(t, "inventory.json", `{"items": "nope"}`)

	_, err := NewFileInventory(path, nil).Items(context.Background())
	assert.ErrorIs(t, err, ErrInvalidInventory)
}

func TestDecode_Empty(t *testing.T) {
	items, err := Decode([]byte("  "), ".json")
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}
