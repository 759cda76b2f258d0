// Package bootstrap turns the loaded configuration into a ready collector,
// its stores and telemetry. Both binaries share it.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	app "github.com/shopdash/backend/internal/application/dashboard"
	"github.com/shopdash/backend/internal/application/normalize"
	"github.com/shopdash/backend/internal/domain/sales"
	"github.com/shopdash/backend/internal/infrastructure/cache"
	"github.com/shopdash/backend/internal/infrastructure/config"
	"github.com/shopdash/backend/internal/infrastructure/ecommerce"
	"github.com/shopdash/backend/internal/infrastructure/inventory"
	"github.com/shopdash/backend/internal/infrastructure/logger"
	"github.com/shopdash/backend/internal/infrastructure/migration"
	"github.com/shopdash/backend/internal/infrastructure/persistence"
	"github.com/shopdash/backend/internal/infrastructure/storage"
	"github.com/shopdash/backend/internal/infrastructure/telemetry"
)

// Stack is everything a run needs, plus the stores the API reads from
type Stack struct {
	Config    *config.Config
	Logger    *zap.Logger
	Collector *app.Collector
	Service   *app.Service

	Cache    cache.RunCache
	Database *persistence.Database // nil when disabled
	Runs     *persistence.GormRunRepository
	Archive  *storage.S3RunArchive // nil when disabled
	Metrics  *telemetry.PrometheusRecorder
	Tracer   *telemetry.TracerProvider
	Meter    *telemetry.MeterProvider

	closers []func(context.Context) error
}

// NewLogger creates the process logger from the log section
func NewLogger(cfg config.LogConfig) (*zap.Logger, error) {
	return logger.New(&logger.Config{
		Level:      cfg.Level,
		Format:     cfg.Format,
		Output:     cfg.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
		MaxSizeMB:  cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAgeDays: cfg.MaxAgeDays,
	})
}

// CollectorConfigFrom converts the collector and inventory sections
func CollectorConfigFrom(cfg config.CollectorConfig, inv config.InventoryConfig) (app.CollectorConfig, error) {
	policy, err := sales.PolicyByName(cfg.StatusPolicy)
	if err != nil {
		return app.CollectorConfig{}, fmt.Errorf("collector.status_policy: %w", err)
	}

	out := app.DefaultCollectorConfig()
	out.Location = cfg.Location()
	out.Policy = policy
	out.LowStockThreshold = inv.LowStockThreshold
	out.FetchTimeout = cfg.FetchTimeout
	out.Placeholders = nil
	if cfg.PlaceholderChannel != "" && cfg.PlaceholderPrefix != "" {
		ch, err := sales.ParseChannel(cfg.PlaceholderChannel)
		if err != nil {
			return app.CollectorConfig{}, fmt.Errorf("collector.placeholder_channel: %w", err)
		}
		out.Placeholders = []normalize.PlaceholderFilter{{Channel: ch, Prefix: cfg.PlaceholderPrefix}}
	}
	return out, nil
}

// InventoryProvider returns the file-backed stock list, or the built-in one
func InventoryProvider(cfg config.InventoryConfig) app.InventoryProvider {
	if cfg.File == "" {
		return inventory.NewStaticInventory(inventory.DefaultItems())
	}
	return inventory.NewFileInventory(cfg.File, inventory.DefaultItems())
}

// Build assembles the stack. Optional stores that fail to come up are
// logged and skipped; only a broken collector setup is fatal.
func Build(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Stack, error) {
	s := &Stack{Config: cfg, Logger: log}

	if err := s.initTelemetry(ctx); err != nil {
		s.Close(ctx)
		return nil, err
	}

	sources, err := ecommerce.NewSourceFactory(cfg, log).Sources()
	if err != nil {
		s.Close(ctx)
		return nil, err
	}

	var sinks []app.Sink
	var readers []app.RunReader

	s.Cache, err = cache.NewFactory(cfg.Redis, cache.WithLogger(log)).Create()
	if err != nil {
		s.Close(ctx)
		return nil, err
	}
	s.closers = append(s.closers, func(context.Context) error { return s.Cache.Close() })
	sinks = append(sinks, s.Cache)
	readers = append(readers, s.Cache)

	if cfg.Database.Enabled {
		if err := s.initDatabase(); err != nil {
			log.Error("Run store unavailable, continuing without it", zap.Error(err))
		} else {
			sinks = append(sinks, s.Runs)
			readers = append(readers, s.Runs)
		}
	}

	if cfg.Storage.Enabled {
		if err := s.initArchive(ctx); err != nil {
			log.Error("Run archive unavailable, continuing without it", zap.Error(err))
		} else {
			sinks = append(sinks, s.Archive)
		}
	}

	if cfg.Collector.WriteLatestFile {
		sinks = append(sinks, storage.NewLatestFileSink(storage.LatestFile(cfg.Collector.DataDir)))
	}

	collectorCfg, err := CollectorConfigFrom(cfg.Collector, cfg.Inventory)
	if err != nil {
		s.Close(ctx)
		return nil, err
	}

	s.Metrics = telemetry.NewPrometheusRecorder()
	recorders := telemetry.Recorders{s.Metrics}
	if s.Meter.IsEnabled() {
		otelRecorder, err := telemetry.NewOTelRecorder(s.Meter)
		if err != nil {
			s.Close(ctx)
			return nil, err
		}
		recorders = append(recorders, otelRecorder)
	}

	s.Collector, err = app.NewCollector(collectorCfg, sources, log,
		app.WithInventory(InventoryProvider(cfg.Inventory)),
		app.WithSinks(sinks...),
		app.WithRecorder(recorders),
	)
	if err != nil {
		s.Close(ctx)
		return nil, err
	}
	s.Service = app.NewService(s.Collector, cfg.Collector.Mode, log, readers...)

	log.Info("Collector ready",
		zap.String("mode", cfg.Collector.Mode),
		zap.Int("sources", len(sources)),
		zap.Int("sinks", len(sinks)),
	)
	return s, nil
}

func (s *Stack) initTelemetry(ctx context.Context) error {
	tcfg := telemetry.ConfigFrom(s.Config.Telemetry)

	tp, err := telemetry.NewTracerProvider(ctx, tcfg, s.Logger)
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	s.Tracer = tp
	s.closers = append(s.closers, tp.Shutdown)

	mp, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           tcfg.Enabled,
		CollectorEndpoint: tcfg.CollectorEndpoint,
		ServiceName:       tcfg.ServiceName,
		Insecure:          tcfg.Insecure,
	}, s.Logger)
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}
	s.Meter = mp
	s.closers = append(s.closers, mp.Shutdown)
	return nil
}

func (s *Stack) initDatabase() error {
	cfg := s.Config
	db, err := persistence.NewDatabase(&cfg.Database,
		persistence.WithLogger(s.Logger, logger.MapGormLogLevel(cfg.Log.Level)),
		persistence.WithTracing(cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled),
	)
	if err != nil {
		return err
	}

	if cfg.Database.AutoMigrate {
		if err := migrateSchema(db, s.Logger); err != nil {
			_ = db.Close()
			return fmt.Errorf("migrate: %w", err)
		}
	}

	s.Database = db
	s.Runs = persistence.NewGormRunRepository(db.DB)
	s.closers = append(s.closers, func(context.Context) error { return db.Close() })
	return nil
}

// migrateSchema applies the versioned SQL on postgres and AutoMigrate on sqlite
func migrateSchema(db *persistence.Database, log *zap.Logger) error {
	if db.Driver() == "sqlite" {
		return db.AutoMigrate()
	}

	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	m, err := migration.New(sqlDB, log)
	if err != nil {
		return err
	}
	// m shares the gorm pool and is not closed
	return m.Up()
}

func (s *Stack) initArchive(ctx context.Context) error {
	archive, err := storage.NewS3RunArchive(&s.Config.Storage, storage.WithLogger(s.Logger))
	if err != nil {
		return err
	}
	if err := archive.EnsureBucket(ctx); err != nil {
		return err
	}
	s.Archive = archive
	return nil
}

// HealthChecks returns a check per store the API depends on
func (s *Stack) HealthChecks() map[string]func(context.Context) error {
	checks := make(map[string]func(context.Context) error)
	if s.Database != nil {
		checks["database"] = func(context.Context) error { return s.Database.Ping() }
	}
	if pinger, ok := s.Cache.(interface{ Ping(context.Context) error }); ok {
		checks["cache"] = pinger.Ping
	}
	return checks
}

// Close releases everything Build opened, newest first
func (s *Stack) Close(ctx context.Context) error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}
