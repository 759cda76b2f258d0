package ecommerce

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopdash/backend/internal/domain/sales"
	"github.com/shopdash/backend/internal/infrastructure/config"
)

func factoryConfig(mode string) *config.Config {
	return &config.Config{
		Collector: config.CollectorConfig{
			Mode:         mode,
			DataDir:      "testdata",
			Timezone:     "Asia/Seoul",
			FixtureSeed:  7,
			FetchTimeout: 5 * time.Second,
		},
		Scraper: config.ScraperConfig{RemoteURL: "http://127.0.0.1:18800"},
	}
}

func sourceNames(t *testing.T, cfg *config.Config) map[sales.Channel]string {
	t.Helper()
	sources, err := NewSourceFactory(cfg, nil).Sources()
	require.NoError(t, err)
	require.Len(t, sources, len(sales.AllChannels()))

	names := make(map[sales.Channel]string, len(sources))
	for _, src := range sources {
		names[src.Channel()] = src.Name()
	}
	return names
}

func TestSourceFactory_Modes(t *testing.T) {
	for ch, name := range sourceNames(t, factoryConfig(config.ModeFixture)) {
		assert.Equal(t, "fixture", name, ch)
	}
	for ch, name := range sourceNames(t, factoryConfig(config.ModeFile)) {
		assert.Equal(t, "file", name, ch)
	}
}

func TestSourceFactory_LiveWithoutCredentials(t *testing.T) {
	names := sourceNames(t, factoryConfig(config.ModeLive))
	for ch, name := range names {
		assert.Equal(t, "file", name, ch)
	}

	cfg := factoryConfig(config.ModeLive)
	cfg.Collector.FallbackToFixture = true
	for ch, name := range sourceNames(t, cfg) {
		assert.Equal(t, "fixture", name, ch)
	}
}

func TestSourceFactory_LiveChains(t *testing.T) {
	cfg := factoryConfig(config.ModeLive)
	cfg.Cafe24 = config.Cafe24Config{MallID: "shop", AccessToken: "token"}
	cfg.Coupang = config.CoupangConfig{VendorID: "A001", AccessKey: "ak", SecretKey: "sk"}
	cfg.Scraper.Enabled = true

	names := sourceNames(t, cfg)
	assert.Equal(t, "api|scraper|file", names[sales.ChannelCafe24])
	assert.Equal(t, "file", names[sales.ChannelNaver])
	assert.Equal(t, "api|file", names[sales.ChannelCoupang])
}

func TestSourceFactory_ScraperOnly(t *testing.T) {
	cfg := factoryConfig(config.ModeLive)
	cfg.Scraper.Enabled = true
	cfg.Collector.FallbackToFixture = true

	names := sourceNames(t, cfg)
	assert.Equal(t, "scraper|fixture", names[sales.ChannelCafe24])
}

func TestSourceFactory_UnknownMode(t *testing.T) {
	_, err := NewSourceFactory(factoryConfig("replay"), nil).Sources()
	assert.ErrorIs(t, err, ErrSourceNotConfigured)
}
