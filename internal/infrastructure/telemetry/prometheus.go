package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	app "github.com/shopdash/backend/internal/application/dashboard"
	"github.com/shopdash/backend/internal/domain/sales"
)

// MetricsNamespace prefixes every exported metric
const MetricsNamespace = "shopdash"

// PrometheusRecorder exposes run metrics for scraping. It owns a private
// registry so tests and multiple instances never collide.
type PrometheusRecorder struct {
	registry *prometheus.Registry

	runsTotal           prometheus.Counter
	runDuration         prometheus.Histogram
	lastRunOrders       prometheus.Gauge
	lastRunRevenue      prometheus.Gauge
	lastRunTimestamp    prometheus.Gauge
	fetchesTotal        *prometheus.CounterVec
	fetchDuration       *prometheus.HistogramVec
	ordersNormalized    *prometheus.CounterVec
	placeholdersDropped *prometheus.CounterVec

	now func() time.Time
}

// NewPrometheusRecorder registers all run metrics plus the Go runtime and
// process collectors.
func NewPrometheusRecorder() *PrometheusRecorder {
	r := &PrometheusRecorder{
		registry: prometheus.NewRegistry(),
		now:      time.Now,
	}

	r.runsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "runs_total",
		Help:      "Completed aggregation runs.",
	})
	r.runDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: MetricsNamespace,
		Name:      "run_duration_seconds",
		Help:      "Wall time of aggregation runs.",
		Buckets:   RunDurationBuckets,
	})
	r.lastRunOrders = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "last_run_orders",
		Help:      "Orders counted by the most recent run.",
	})
	r.lastRunRevenue = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "last_run_revenue_won",
		Help:      "Revenue in won counted by the most recent run.",
	})
	r.lastRunTimestamp = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "last_run_timestamp_seconds",
		Help:      "Unix time the most recent run completed.",
	})
	r.fetchesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "channel_fetches_total",
		Help:      "Channel fetches by outcome.",
	}, []string{"channel", "status"})
	r.fetchDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: MetricsNamespace,
		Name:      "channel_fetch_duration_seconds",
		Help:      "Wall time of channel fetches.",
		Buckets:   RunDurationBuckets,
	}, []string{"channel"})
	r.ordersNormalized = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "orders_normalized_total",
		Help:      "Canonical orders produced per channel and status.",
	}, []string{"channel", "status"})
	r.placeholdersDropped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "placeholders_dropped_total",
		Help:      "Estimate placeholder orders removed before aggregation.",
	}, []string{"channel"})

	r.registry.MustRegister(
		r.runsTotal,
		r.runDuration,
		r.lastRunOrders,
		r.lastRunRevenue,
		r.lastRunTimestamp,
		r.fetchesTotal,
		r.fetchDuration,
		r.ordersNormalized,
		r.placeholdersDropped,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// Registry returns the underlying registry
func (r *PrometheusRecorder) Registry() *prometheus.Registry { return r.registry }

// Handler serves the registry in the exposition format
func (r *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

func (r *PrometheusRecorder) RunCompleted(d time.Duration, orders int, revenue int64) {
	r.runsTotal.Inc()
	r.runDuration.Observe(d.Seconds())
	r.lastRunOrders.Set(float64(orders))
	r.lastRunRevenue.Set(float64(revenue))
	r.lastRunTimestamp.Set(float64(r.now().Unix()))
}

func (r *PrometheusRecorder) FetchCompleted(ch sales.Channel, status app.OutcomeStatus, d time.Duration) {
	r.fetchesTotal.WithLabelValues(string(ch), string(status)).Inc()
	r.fetchDuration.WithLabelValues(string(ch)).Observe(d.Seconds())
}

func (r *PrometheusRecorder) OrdersNormalized(ch sales.Channel, status sales.OrderStatus, n int) {
	r.ordersNormalized.WithLabelValues(string(ch), string(status)).Add(float64(n))
}

func (r *PrometheusRecorder) PlaceholdersDropped(ch sales.Channel, n int) {
	r.placeholdersDropped.WithLabelValues(string(ch)).Add(float64(n))
}

var _ app.Recorder = (*PrometheusRecorder)(nil)
