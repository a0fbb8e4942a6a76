package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exposes the engine's Prometheus instrumentation.
var (
	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_runs_total",
		Help: "Orchestrated runs by feature, provider and classified status",
	}, []string{"feature", "provider", "status"})

	runDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "inkwell_run_duration_seconds",
		Help:    "End-to-end run latency including rate-limit waits",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
	}, []string{"provider"})

	cacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "inkwell_cache_hits_total",
		Help: "Runs served from the response cache",
	})

	retriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "inkwell_retries_total",
		Help: "Malformed-JSON retries issued",
	})

	rateLimitWaits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "inkwell_rate_limit_waits_total",
		Help: "Runs that had to wait for a rate-limit slot",
	})

	budgetRejections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "inkwell_budget_rejections_total",
		Help: "Runs rejected by the pre-flight input budget guard",
	})
)

func recordRun(feature, provider, status string, seconds float64) {
	runsTotal.WithLabelValues(feature, provider, status).Inc()
	runDuration.WithLabelValues(provider).Observe(seconds)
}
