package gate

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Rebuilds tracks snapshot rebuilds by trigger
	Rebuilds = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sitecache_gate_rebuilds_total",
			Help: "Total number of snapshot rebuilds",
		},
		[]string{"trigger"}, // "version_change", "first_visit", "corrupt_blob"
	)

	// ForceUpdates tracks explicit forced updates
	ForceUpdates = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sitecache_gate_force_updates_total",
			Help: "Total number of forced gate updates",
		},
	)

	// Loads tracks successful snapshot loads from storage
	Loads = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sitecache_gate_loads_total",
			Help: "Total number of snapshot loads from storage",
		},
	)

	// RegistrationFailures tracks worker registration failures
	RegistrationFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sitecache_gate_registration_failures_total",
			Help: "Total number of worker registration failures",
		},
	)

	// StoreErrors tracks storage operation errors by operation
	StoreErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sitecache_gate_store_errors_total",
			Help: "Total number of gate storage operation errors",
		},
		[]string{"operation"}, // "get", "set", "delete"
	)
)
