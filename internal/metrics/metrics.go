// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "ethical_choice"

var (
	// HTTPRequestsTotal counts requests by route pattern, method and status.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPRequestDuration observes handler latency.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// CacheOperations counts cache calls by operation and outcome
	// (hit, miss, ok, error).
	CacheOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "operations_total",
			Help:      "Cache operations by outcome.",
		},
		[]string{"op", "outcome"},
	)

	RecommendationsSaved = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "recommendations",
		Name:      "saved_total",
		Help:      "Recommendations persisted, manual or computed.",
	})

	RecommendationsComputed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "recommendations",
		Name:      "compute_runs_total",
		Help:      "Survey-driven scoring runs.",
	})

	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notifications",
			Name:      "sent_total",
			Help:      "Notifications stored, by type.",
		},
		[]string{"type"},
	)

	// StreamSubscribers tracks open SSE and WebSocket connections.
	StreamSubscribers = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "notifications",
			Name:      "stream_subscribers",
			Help:      "Currently connected notification streams.",
		},
		[]string{"transport"},
	)

	SECRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sec",
			Name:      "requests_total",
			Help:      "EDGAR submissions requests by outcome.",
		},
		[]string{"outcome"},
	)

	// SECBreakerState is 0 closed, 1 half-open, 2 open.
	SECBreakerState = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "sec",
		Name:      "circuit_breaker_state",
		Help:      "EDGAR client circuit breaker state.",
	})
)

// RecordCache is a shorthand used by the cache client.
func RecordCache(op, outcome string) {
	CacheOperations.WithLabelValues(op, outcome).Inc()
}
