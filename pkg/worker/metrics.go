package worker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for worker operations.
var (
	fetchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sitecache_fetches_total",
		Help: "Total intercepted fetches by source and partition",
	}, []string{"source", "partition"}) // source: "cache", "network", "fallback", "passthrough"

	fetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sitecache_fetch_duration_seconds",
		Help:    "Intercepted fetch duration in seconds by source",
		Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 2, 5},
	}, []string{"source"})

	revalidationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sitecache_revalidations_total",
		Help: "Total background revalidations by outcome",
	}, []string{"outcome"}) // "updated", "failed", "skipped"

	installsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sitecache_installs_total",
		Help: "Total install attempts by result",
	}, []string{"result"}) // "success", "failure"

	installRetriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sitecache_install_retries_total",
		Help: "Total number of install retry attempts",
	})

	controlMessagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sitecache_control_messages_total",
		Help: "Total control messages handled by type",
	}, []string{"type"})
)
