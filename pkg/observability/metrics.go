package observability

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Billing metrics
	SchedulesGeneratedTotal  prometheus.Counter
	InstallmentsCreatedTotal prometheus.Counter
	FeesPaidTotal            prometheus.Counter
	FeesSweptTotal           prometheus.Counter
	SweepRunsTotal           *prometheus.CounterVec

	// Access metrics
	PermissionChecksTotal *prometheus.CounterVec
	AccessCacheHitsTotal  prometheus.Counter
	AccessCacheMissesTotal prometheus.Counter

	// Database metrics
	DBConnectionsActive prometheus.Gauge
	DBConnectionsIdle   prometheus.Gauge
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auraclub_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "auraclub_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		SchedulesGeneratedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "auraclub_schedules_generated_total",
				Help: "Total number of installment schedules generated",
			},
		),
		InstallmentsCreatedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "auraclub_installments_created_total",
				Help: "Total number of installment fees created",
			},
		),
		FeesPaidTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "auraclub_fees_paid_total",
				Help: "Total number of fees marked paid",
			},
		),
		FeesSweptTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "auraclub_fees_swept_total",
				Help: "Total number of fees transitioned to overdue",
			},
		),
		SweepRunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auraclub_sweep_runs_total",
				Help: "Total number of overdue sweep runs",
			},
			[]string{"status"},
		),

		PermissionChecksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auraclub_permission_checks_total",
				Help: "Total number of permission checks",
			},
			[]string{"decision"},
		),
		AccessCacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "auraclub_access_cache_hits_total",
				Help: "Total number of access cache hits",
			},
		),
		AccessCacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "auraclub_access_cache_misses_total",
				Help: "Total number of access cache misses",
			},
		),

		DBConnectionsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "auraclub_db_connections_active",
				Help: "Number of active database connections",
			},
		),
		DBConnectionsIdle: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "auraclub_db_connections_idle",
				Help: "Number of idle database connections",
			},
		),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.SchedulesGeneratedTotal,
		m.InstallmentsCreatedTotal,
		m.FeesPaidTotal,
		m.FeesSweptTotal,
		m.SweepRunsTotal,
		m.PermissionChecksTotal,
		m.AccessCacheHitsTotal,
		m.AccessCacheMissesTotal,
		m.DBConnectionsActive,
		m.DBConnectionsIdle,
	)

	return m
}

// CollectDBStats copies pool statistics into the database gauges
func (m *Metrics) CollectDBStats(db *sql.DB) {
	stats := db.Stats()
	m.DBConnectionsActive.Set(float64(stats.InUse))
	m.DBConnectionsIdle.Set(float64(stats.Idle))
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// HTTPMetricsMiddleware instruments HTTP requests with Prometheus metrics
func HTTPMetricsMiddleware(metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			rw := &responseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			next.ServeHTTP(rw, r)

			duration := time.Since(start).Seconds()
			status := strconv.Itoa(rw.statusCode)

			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, r.URL.Path, status).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(duration)
		})
	}
}

// RegisterMetricsEndpoint registers the /metrics endpoint
func RegisterMetricsEndpoint(mux *http.ServeMux, registry *prometheus.Registry) {
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
}
