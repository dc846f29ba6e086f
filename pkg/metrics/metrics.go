package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PermissionChecks counts permission evaluations by outcome (allow|deny|error).
	PermissionChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inkwell_permission_checks_total",
			Help: "Total number of permission checks",
		},
		[]string{"result"},
	)

	// CacheLookups counts decision-cache lookups by result (hit|miss).
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inkwell_permission_cache_lookups_total",
			Help: "Total number of permission cache lookups",
		},
		[]string{"result"},
	)

	// CacheInvalidations counts invalidation events by scope (principal|asset).
	CacheInvalidations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inkwell_permission_cache_invalidations_total",
			Help: "Total number of permission cache invalidations",
		},
		[]string{"scope"},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "inkwell_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
