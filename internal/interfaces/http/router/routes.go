package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	app "github.com/shopdash/backend/internal/application/dashboard"
	"github.com/shopdash/backend/internal/infrastructure/logger"
	"github.com/shopdash/backend/internal/interfaces/http/handler"
	"github.com/shopdash/backend/internal/interfaces/http/middleware"
)

// Dependencies are the collaborators of the HTTP API
type Dependencies struct {
	Service handler.DashboardService
	System  *handler.SystemHandler
	Logger  *zap.Logger

	// History serves /runs when set
	History app.RunHistory
	// Jobs serves /system/refresh-jobs when set
	Jobs handler.RefreshJobs

	CORS           middleware.CORSConfig
	TrustedProxies []string

	TracingEnabled bool
	ServiceName    string

	// Metrics is served on /metrics when set
	Metrics     http.Handler
	HTTPMetrics *middleware.HTTPMetrics

	// RefreshInterval and RefreshBurst limit manual refreshes per client.
	// A zero interval disables the limit.
	RefreshInterval time.Duration
	RefreshBurst    int
}

// New builds the engine with middleware and every route registered
func New(deps Dependencies) (*gin.Engine, error) {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	engine := gin.New()
	if err := engine.SetTrustedProxies(deps.TrustedProxies); err != nil {
		return nil, err
	}

	engine.Use(
		logger.Recovery(log),
		middleware.Tracing(deps.ServiceName, deps.TracingEnabled),
		logger.GinMiddleware(log),
		middleware.SpanEnricher(),
		middleware.Secure(),
		middleware.CORSWithConfig(deps.CORS),
	)
	if deps.HTTPMetrics != nil {
		engine.Use(deps.HTTPMetrics.Middleware())
	}

	if deps.Metrics != nil {
		engine.GET("/metrics", gin.WrapH(deps.Metrics))
	}

	dashboardHandler := handler.NewDashboardHandler(deps.Service)
	orderHandler := handler.NewOrderHandler(deps.Service)
	analyticsHandler := handler.NewAnalyticsHandler(deps.Service)

	refresh := []gin.HandlerFunc{dashboardHandler.Refresh}
	if deps.RefreshInterval > 0 {
		burst := max(deps.RefreshBurst, 1)
		limiter := middleware.NewRateLimiter(deps.RefreshInterval, burst)
		refresh = append([]gin.HandlerFunc{middleware.RateLimit(limiter)}, refresh...)
	}

	r := NewRouter(engine)
	r.Register(NewDomainGroup("dashboard", "/dashboard").
		GET("", dashboardHandler.GetDashboard).
		POST("/refresh", refresh...))
	r.Register(NewDomainGroup("orders", "/orders").
		GET("", orderHandler.List).
		GET("/pending-shipments", orderHandler.PendingShipments).
		GET("/:order_id", orderHandler.Get))
	r.Register(NewDomainGroup("shipping", "/shipping").
		GET("", orderHandler.Shipping))
	r.Register(NewDomainGroup("inventory", "/inventory").
		GET("", analyticsHandler.Inventory))
	r.Register(NewDomainGroup("analytics", "/analytics").
		GET("/weekly", analyticsHandler.Weekly).
		GET("/channels", analyticsHandler.Channels))
	if deps.History != nil {
		runHandler := handler.NewRunHandler(deps.History)
		r.Register(NewDomainGroup("runs", "/runs").
			GET("", runHandler.List).
			GET("/:run_id", runHandler.Get))
	}
	system := NewDomainGroup("system", "/system")
	if deps.System != nil {
		system.GET("/health", deps.System.Health).
			GET("/ping", deps.System.Ping)
	}
	if deps.Jobs != nil {
		jobHandler := handler.NewRefreshJobHandler(deps.Jobs)
		system.GET("/refresh-jobs", jobHandler.List).
			POST("/refresh-jobs", jobHandler.Trigger)
	}
	r.Register(system)
	r.Setup()

	return engine, nil
}
