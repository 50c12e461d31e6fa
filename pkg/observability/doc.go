// Package observability provides structured logging, Prometheus metrics, and
// health checks.
//
// # Structured Logging
//
// Create logger:
//
//	logger := observability.NewLogger(observability.InfoLevel, os.Stdout)
//	logger.WithField("tenant_id", tenantID).Info("schedule generated")
//
// # Prometheus Metrics
//
// Metrics register against a caller-supplied registry and are exposed on
// the health server via RegisterMetricsEndpoint. HTTPMetricsMiddleware
// instruments request counts and latencies.
//
// # Health Checks
//
// HealthChecker exposes liveness and readiness probes. The database is a
// hard dependency; Redis only degrades readiness since the access cache
// falls back to the store.
package observability
