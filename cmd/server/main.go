package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/shopdash/backend/internal/bootstrap"
	"github.com/shopdash/backend/internal/infrastructure/config"
	"github.com/shopdash/backend/internal/infrastructure/logger"
	"github.com/shopdash/backend/internal/infrastructure/scheduler"
	"github.com/shopdash/backend/internal/infrastructure/telemetry"
	"github.com/shopdash/backend/internal/interfaces/http/handler"
	"github.com/shopdash/backend/internal/interfaces/http/middleware"
	"github.com/shopdash/backend/internal/interfaces/http/router"
)

const version = "1.0.0"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := bootstrap.NewLogger(cfg.Log)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting dashboard API",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("mode", cfg.Collector.Mode),
	)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stack, err := bootstrap.Build(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to build collector", zap.Error(err))
	}
	defer func() {
		if err := stack.Close(context.Background()); err != nil {
			log.Error("Error releasing resources", zap.Error(err))
		}
	}()

	// Scheduled refresh
	var refresher *scheduler.RefreshScheduler
	if cfg.Collector.RefreshEnabled {
		refresher, err = newRefresher(cfg, stack, log)
		if err != nil {
			log.Fatal("Failed to create refresh scheduler", zap.Error(err))
		}
		if err := refresher.Start(ctx); err != nil {
			log.Fatal("Failed to start refresh scheduler", zap.Error(err))
		}
	}

	engine, err := newEngine(cfg, stack, refresher)
	if err != nil {
		log.Fatal("Failed to set up HTTP routes", zap.Error(err))
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if refresher != nil {
		if err := refresher.Stop(shutdownCtx); err != nil {
			log.Warn("Refresh scheduler did not stop cleanly", zap.Error(err))
		}
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// newRefresher builds the refresh scheduler; stored runs are pruned only
// when the database is available
func newRefresher(cfg *config.Config, stack *bootstrap.Stack, log *zap.Logger) (*scheduler.RefreshScheduler, error) {
	schedCfg := scheduler.RefreshSchedulerConfigFrom(cfg.Collector)
	var opts []scheduler.SchedulerOption
	if stack.Runs != nil {
		schedCfg.Retention = cfg.Database.Retention
		opts = append(opts, scheduler.WithPruner(stack.Runs))
	}
	return scheduler.NewRefreshScheduler(schedCfg, stack.Collector, log, opts...)
}

func newEngine(cfg *config.Config, stack *bootstrap.Stack, refresher *scheduler.RefreshScheduler) (*gin.Engine, error) {
	checks := make(map[string]handler.HealthCheck)
	for name, check := range stack.HealthChecks() {
		checks[name] = check
	}

	deps := router.Dependencies{
		Service:         stack.Service,
		System:          handler.NewSystemHandler(version, cfg.Collector.Mode, stack.Service, checks),
		Logger:          stack.Logger,
		CORS:            middleware.CORSConfigFrom(cfg.HTTP),
		TrustedProxies:  cfg.HTTP.TrustedProxies,
		TracingEnabled:  cfg.Telemetry.Enabled,
		ServiceName:     cfg.Telemetry.ServiceName,
		RefreshInterval: time.Minute,
		RefreshBurst:    3,
	}
	if stack.Runs != nil {
		deps.History = stack.Runs
	}
	if refresher != nil {
		deps.Jobs = refresher
	}

	if cfg.Telemetry.MetricsEnabled {
		httpMetrics, err := middleware.NewHTTPMetrics(stack.Metrics.Registry(), telemetry.MetricsNamespace)
		if err != nil {
			return nil, err
		}
		deps.Metrics = stack.Metrics.Handler()
		deps.HTTPMetrics = httpMetrics
	}
	return router.New(deps)
}
