// Package metrics provides the centralized Prometheus metrics registry for
// the site cache. All metrics are defined in their respective packages
// (gate, partition, worker) to maintain modularity and avoid circular
// dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the site cache.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Gate Metrics (pkg/gate):
//   - sitecache_gate_rebuilds_total{trigger} (Counter): Snapshot rebuilds by trigger
//     (version_change, first_visit, corrupt_blob)
//   - sitecache_gate_loads_total (Counter): Snapshot loads from storage
//   - sitecache_gate_force_updates_total (Counter): Explicit forced updates
//   - sitecache_gate_registration_failures_total (Counter): Worker registration failures
//   - sitecache_gate_store_errors_total{operation} (Counter): Gate storage errors
//
// Partition Metrics (pkg/partition):
//   - sitecache_partition_hits_total{partition} (Counter): Cache hits by partition
//   - sitecache_partition_misses_total (Counter): Cache misses
//   - sitecache_partition_errors_total{operation} (Counter): Partition operation errors
//   - sitecache_partition_drops_total (Counter): Whole-partition deletions
//
// Worker Metrics (pkg/worker):
//   - sitecache_fetches_total{source, partition} (Counter): Intercepted fetches by
//     source (cache, network, fallback, passthrough)
//   - sitecache_fetch_duration_seconds{source} (Histogram): Fetch duration by source
//   - sitecache_revalidations_total{outcome} (Counter): Background revalidations by
//     outcome (updated, failed, skipped)
//   - sitecache_installs_total{result} (Counter): Install attempts by result
//   - sitecache_install_retries_total (Counter): Install retry attempts
//   - sitecache_control_messages_total{type} (Counter): Control messages handled
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(sitecache_partition_hits_total[5m])) /
//   (sum(rate(sitecache_partition_hits_total[5m])) + sum(rate(sitecache_partition_misses_total[5m])))
//
//   # Revalidation Failure Rate
//   rate(sitecache_revalidations_total{outcome="failed"}[5m])
//
//   # Offline Fallback Serves
//   rate(sitecache_fetches_total{source="fallback"}[5m])
//
//   # P95 Cache-Serve Latency
//   histogram_quantile(0.95, rate(sitecache_fetch_duration_seconds_bucket{source="cache"}[5m]))
