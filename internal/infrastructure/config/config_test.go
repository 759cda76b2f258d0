package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("loads default values when env vars not set", func(t *testing.T) {
		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "shopdash", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8000", cfg.App.Port)
		assert.Equal(t, "postgres", cfg.Database.Driver)
		assert.Equal(t, ModeFile, cfg.Collector.Mode)
		assert.Equal(t, "cancel_first", cfg.Collector.StatusPolicy)
		assert.Equal(t, "naver", cfg.Collector.PlaceholderChannel)
		assert.Equal(t, "EST-", cfg.Collector.PlaceholderPrefix)
		assert.Equal(t, 10, cfg.Inventory.LowStockThreshold)
		assert.Equal(t, 30*time.Second, cfg.Collector.FetchTimeout)
		assert.Equal(t, "http://127.0.0.1:18800", cfg.Scraper.RemoteURL)
		assert.Equal(t, "cafe24.com/admin", cfg.Scraper.TabURLPattern)
		assert.Equal(t, "localhost:6379", cfg.Redis.Addr())
	})

	t.Run("environment overrides defaults", func(t *testing.T) {
		t.Setenv("SHOPDASH_COLLECTOR_MODE", "fixture")
		t.Setenv("SHOPDASH_COLLECTOR_STATUS_POLICY", "complete_first")
		t.Setenv("SHOPDASH_INVENTORY_LOW_STOCK_THRESHOLD", "5")
		t.Setenv("SHOPDASH_COUPANG_VENDOR_ID", "A00012345")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, ModeFixture, cfg.Collector.Mode)
		assert.Equal(t, "complete_first", cfg.Collector.StatusPolicy)
		assert.Equal(t, 5, cfg.Inventory.LowStockThreshold)
		assert.Equal(t, "A00012345", cfg.Coupang.VendorID)
	})

	t.Run("accepts a zero low stock threshold", func(t *testing.T) {
		t.Setenv("SHOPDASH_INVENTORY_LOW_STOCK_THRESHOLD", "0")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, 0, cfg.Inventory.LowStockThreshold)
	})

	t.Run("reads the run retention window", func(t *testing.T) {
		t.Setenv("SHOPDASH_DATABASE_RETENTION", "168h")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, 168*time.Hour, cfg.Database.Retention)
	})

	t.Run("rejects a negative retention window", func(t *testing.T) {
		t.Setenv("SHOPDASH_DATABASE_RETENTION", "-1h")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Retention")
	})

	t.Run("rejects a negative low stock threshold", func(t *testing.T) {
		t.Setenv("SHOPDASH_INVENTORY_LOW_STOCK_THRESHOLD", "-1")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "LowStockThreshold")
	})

	t.Run("rejects unknown collector mode", func(t *testing.T) {
		t.Setenv("SHOPDASH_COLLECTOR_MODE", "mock")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid configuration")
	})

	t.Run("rejects unknown timezone", func(t *testing.T) {
		t.Setenv("SHOPDASH_COLLECTOR_TIMEZONE", "Mars/Olympus")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "collector.timezone")
	})

	t.Run("storage requires bucket when enabled", func(t *testing.T) {
		t.Setenv("SHOPDASH_STORAGE_ENABLED", "true")

		_, err := Load()
		require.Error(t, err)
	})

	t.Run("reads config.toml from working directory", func(t *testing.T) {
		dir := t.TempDir()
		content := "[collector]\nmode = \"live\"\nplaceholder_prefix = \"TMP-\"\n[inventory]\nlow_stock_threshold = 3\n"
		require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0o600))
		t.Chdir(dir)

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, ModeLive, cfg.Collector.Mode)
		assert.Equal(t, "TMP-", cfg.Collector.PlaceholderPrefix)
		assert.Equal(t, 3, cfg.Inventory.LowStockThreshold)
	})
}

func TestValidate_Production(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)
	cfg.App.Env = "production"
	cfg.Database.Enabled = true

	err := cfg.validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database.password")

	cfg.Database.Password = "secret"
	cfg.HTTP.CORSAllowOrigins = []string{"*"}
	require.Error(t, cfg.validate())

	cfg.HTTP.CORSAllowOrigins = []string{"https://dash.example.com"}
	assert.NoError(t, cfg.validate())
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5432, User: "shop", Password: "p@ss word", DBName: "shopdash", SSLMode: "require"}
	assert.Equal(t, "postgres://shop:p%40ss%20word@db:5432/shopdash?sslmode=require", d.DSN())
}

func TestCollectorConfig_Location(t *testing.T) {
	c := CollectorConfig{Timezone: "Asia/Seoul"}
	assert.Equal(t, "Asia/Seoul", c.Location().String())

	c.Timezone = "nowhere"
	assert.Equal(t, time.Local, c.Location())
}
