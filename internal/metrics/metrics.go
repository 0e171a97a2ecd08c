// Package metrics provides Prometheus metrics collectors for the tournament service.
//
// Purpose:
//
//	This package defines and exports Prometheus metrics for the osu!
//	authentication flow and the Redis cache layer. Metrics are registered
//	globally and served via the /metrics endpoint.
//
// Dependencies:
//   - github.com/prometheus/client_golang/prometheus: Prometheus Go client
//
// Usage:
//
//	Metrics are automatically registered when the package is imported.
//	Use the exported functions to record metric values:
//	  metrics.RecordAuthSuccess("osu")
//	  metrics.RecordAuthFailure("osu", "csrf_mismatch")
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "tourney_server"
	subsystem = "auth"
)

var (
	// AuthAttemptsTotal counts authentication attempts by method and result.
	AuthAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "attempts_total",
			Help:      "Total number of authentication attempts by method and result",
		},
		[]string{"method", "result"}, // method: osu, bearer; result: success, failure
	)

	// AuthFailuresTotal counts authentication failures by method and reason.
	AuthFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "failures_total",
			Help:      "Total number of authentication failures by method and reason",
		},
		[]string{"method", "reason"}, // reason: missing_csrf, csrf_mismatch, exchange_failed, etc.
	)

	// SessionsCreatedTotal counts API sessions minted after successful handshakes.
	SessionsCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "sessions_created_total",
			Help:      "Total number of API sessions created",
		},
	)

	// AuthURLsIssuedTotal counts issued osu! authorization URLs.
	AuthURLsIssuedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "authorization_urls_issued_total",
			Help:      "Total number of osu! authorization URLs issued",
		},
	)

	// CacheHitsTotal counts cache hits by value kind.
	CacheHitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Total number of cache hits by value kind",
		},
		[]string{"kind"},
	)

	// CacheMissesTotal counts cache misses by value kind.
	CacheMissesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "misses_total",
			Help:      "Total number of cache misses by value kind",
		},
		[]string{"kind"},
	)

	// CacheErrorsTotal counts cache operation failures by operation.
	CacheErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "errors_total",
			Help:      "Total number of cache operation failures by operation",
		},
		[]string{"op"},
	)
)

// RecordAuthSuccess records a successful authentication attempt.
func RecordAuthSuccess(method string) {
	AuthAttemptsTotal.WithLabelValues(method, "success").Inc()
}

// RecordAuthFailure records a failed authentication attempt.
func RecordAuthFailure(method, reason string) {
	AuthAttemptsTotal.WithLabelValues(method, "failure").Inc()
	AuthFailuresTotal.WithLabelValues(method, reason).Inc()
}

// RecordSessionCreated records a minted API session.
func RecordSessionCreated() {
	SessionsCreatedTotal.Inc()
}

// RecordAuthURLIssued records an issued authorization URL.
func RecordAuthURLIssued() {
	AuthURLsIssuedTotal.Inc()
}

// RecordCacheHit records a cache hit for the given value kind.
func RecordCacheHit(kind string) {
	CacheHitsTotal.WithLabelValues(kind).Inc()
}

// RecordCacheMiss records a cache miss for the given value kind.
func RecordCacheMiss(kind string) {
	CacheMissesTotal.WithLabelValues(kind).Inc()
}

// RecordCacheError records a failed cache operation.
func RecordCacheError(op string) {
	CacheErrorsTotal.WithLabelValues(op).Inc()
}
