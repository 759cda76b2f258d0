package ecommerce

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	app "github.com/shopdash/backend/internal/application/dashboard"
	"github.com/shopdash/backend/internal/domain/sales"
	"github.com/shopdash/backend/internal/infrastructure/config"
)

// SourceFactory builds the per-channel sources for the configured mode
type SourceFactory struct {
	cfg    *config.Config
	loc    *time.Location
	logger *zap.Logger
}

// NewSourceFactory creates a new factory
func NewSourceFactory(cfg *config.Config, logger *zap.Logger) *SourceFactory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SourceFactory{
		cfg:    cfg,
		loc:    cfg.Collector.Location(),
		logger: logger,
	}
}

// Sources returns exactly one source per channel.
//
// In live mode a channel without credentials is served by its backup
// (cached file, or fixtures when fallback_to_fixture is set). Configured
// channels try the API first, then the Cafe24 admin scraper when enabled,
// then the backup.
func (f *SourceFactory) Sources() ([]app.Source, error) {
	channels := sales.AllChannels()
	sources := make([]app.Source, 0, len(channels))
	for _, ch := range channels {
		var (
			src app.Source
			err error
		)
		switch f.cfg.Collector.Mode {
		case config.ModeFixture:
			src = f.fixture(ch)
		case config.ModeFile:
			src = f.file(ch)
		case config.ModeLive:
			src, err = f.live(ch)
		default:
			return nil, fmt.Errorf("%w: unknown collector mode %q", ErrSourceNotConfigured, f.cfg.Collector.Mode)
		}
		if err != nil {
			return nil, fmt.Errorf("%s source: %w", ch, err)
		}
		sources = append(sources, src)
	}
	return sources, nil
}

func (f *SourceFactory) fixture(ch sales.Channel) app.Source {
	return NewFixtureSource(ch, f.cfg.Collector.FixtureSeed, f.loc)
}

func (f *SourceFactory) file(ch sales.Channel) app.Source {
	return NewFileSource(f.cfg.Collector.DataDir, ch)
}

func (f *SourceFactory) backup(ch sales.Channel) app.Source {
	if f.cfg.Collector.FallbackToFixture {
		return f.fixture(ch)
	}
	return f.file(ch)
}

func (f *SourceFactory) live(ch sales.Channel) (app.Source, error) {
	primary, err := f.api(ch)
	if err != nil {
		return nil, err
	}

	if ch == sales.ChannelCafe24 && f.cfg.Scraper.Enabled {
		scraper, err := NewCafe24AdminScraper(&ScraperConfig{
			RemoteURL:     f.cfg.Scraper.RemoteURL,
			TabURLPattern: f.cfg.Scraper.TabURLPattern,
			Timeout:       f.cfg.Scraper.Timeout,
		})
		if err != nil {
			return nil, err
		}
		if primary == nil {
			primary = scraper
		} else if primary, err = app.NewFallbackSource(primary, scraper); err != nil {
			return nil, err
		}
	}

	backup := f.backup(ch)
	if primary == nil {
		f.logger.Warn("No credentials for channel, serving backup source",
			zap.String("channel", string(ch)),
			zap.String("source", backup.Name()),
		)
		return backup, nil
	}
	return app.NewFallbackSource(primary, backup)
}

// api returns the channel's API client, or nil when its credentials are unset
func (f *SourceFactory) api(ch sales.Channel) (app.Source, error) {
	timeout := f.cfg.Collector.FetchTimeout

	switch ch {
	case sales.ChannelCafe24:
		c := f.cfg.Cafe24
		if c.AccessToken == "" {
			return nil, nil
		}
		return NewCafe24Client(&Cafe24Config{
			MallID:            c.MallID,
			AccessToken:       c.AccessToken,
			APIBaseURL:        c.BaseURL,
			RequestsPerSecond: c.RequestsPerSecond,
			Timeout:           timeout,
		}, f.loc)
	case sales.ChannelNaver:
		c := f.cfg.Naver
		if c.ClientID == "" || c.ClientSecret == "" {
			return nil, nil
		}
		return NewNaverClient(&NaverConfig{
			ClientID:          c.ClientID,
			ClientSecret:      c.ClientSecret,
			APIBaseURL:        c.BaseURL,
			RequestsPerSecond: c.RequestsPerSecond,
			Timeout:           timeout,
		}, f.loc)
	case sales.ChannelCoupang:
		c := f.cfg.Coupang
		if c.VendorID == "" || c.AccessKey == "" || c.SecretKey == "" {
			return nil, nil
		}
		return NewCoupangClient(&CoupangConfig{
			VendorID:          c.VendorID,
			AccessKey:         c.AccessKey,
			SecretKey:         c.SecretKey,
			APIBaseURL:        c.BaseURL,
			RequestsPerSecond: c.RequestsPerSecond,
			Timeout:           timeout,
		}, f.loc)
	}
	return nil, fmt.Errorf("%w: %s", sales.ErrUnknownChannel, ch)
}
