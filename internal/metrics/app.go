// Package metrics records crosspost counters and gauges through the global
// gofulmen telemetry system. Every helper is a no-op until metrics are
// initialized, so CLI commands can call them freely.
package metrics

import (
	"time"

	"github.com/crosspost/crosspost/internal/observability"
)

// Metric names
const (
	PreviewFetchTotal        = "preview_fetch_total"
	RateLimitDecisionsTotal  = "rate_limit_decisions_total"
	VisitEventsTotal         = "visit_events_total"
	VariationOperationsTotal = "variation_operations_total"
	ComposeRequestsTotal     = "compose_requests_total"

	HealthCheckTotal    = "app_health_check_total"
	HealthCheckDuration = "app_health_check_duration_ms"

	ServerStartTime = "app_server_start_time_seconds"
	ServerUptime    = "app_server_uptime_seconds"
)

// Rate limiter tiers
const (
	TierServer = "server"
	TierClient = "client"
)

func counter(name string, labels map[string]string) {
	if observability.TelemetrySystem == nil {
		return
	}
	_ = observability.TelemetrySystem.Counter(name, 1, labels)
}

func gauge(name string, value float64) {
	if observability.TelemetrySystem == nil {
		return
	}
	_ = observability.TelemetrySystem.Gauge(name, value, nil)
}

// RecordPreviewFetch counts one preview attempt by outcome
// (success, invalid_url, rate_limited, upstream_error, timeout).
func RecordPreviewFetch(outcome string) {
	counter(PreviewFetchTotal, map[string]string{"outcome": outcome})
}

// RecordRateLimitDecision counts an allow or deny from either limiter tier.
func RecordRateLimitDecision(tier string, allowed bool) {
	decision := "allowed"
	if !allowed {
		decision = "denied"
	}
	counter(RateLimitDecisionsTotal, map[string]string{"tier": tier, "decision": decision})
}

// RecordVisitEvent counts what happened to a visit event
// (delivered, dropped, failed).
func RecordVisitEvent(outcome string) {
	counter(VisitEventsTotal, map[string]string{"outcome": outcome})
}

// RecordVariationOperation counts variation create/delete calls.
func RecordVariationOperation(operation string, success bool) {
	status := "success"
	if !success {
		status = "failure"
	}
	counter(VariationOperationsTotal, map[string]string{"operation": operation, "status": status})
}

// RecordCompose counts compose requests served over HTTP.
func RecordCompose(platforms int) {
	bucket := "single"
	if platforms > 1 {
		bucket = "multi"
	}
	counter(ComposeRequestsTotal, map[string]string{"platforms": bucket})
}

// RecordHealthCheck records a health check execution
func RecordHealthCheck(checkName string, healthy bool, duration time.Duration) {
	status := "healthy"
	if !healthy {
		status = "unhealthy"
	}
	counter(HealthCheckTotal, map[string]string{"check": checkName, "status": status})

	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Histogram(
			HealthCheckDuration,
			duration,
			map[string]string{"check": checkName},
		)
	}
}

// SetServerStartTime records the server start time (Unix timestamp)
func SetServerStartTime(timestamp int64) {
	gauge(ServerStartTime, float64(timestamp))
}

// SetServerUptime records the server uptime in seconds
func SetServerUptime(seconds int64) {
	gauge(ServerUptime, float64(seconds))
}
