package partition

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks cache hits by partition name
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sitecache_partition_hits_total",
			Help: "Total number of partition cache hits",
		},
		[]string{"partition"},
	)

	// CacheMisses tracks cache misses
	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sitecache_partition_misses_total",
			Help: "Total number of partition cache misses",
		},
	)

	// CacheErrors tracks partition operation errors
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sitecache_partition_errors_total",
			Help: "Total number of partition operation errors",
		},
		[]string{"operation"}, // "get", "put", "delete", "drop"
	)

	// PartitionDrops tracks whole-partition deletions
	PartitionDrops = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sitecache_partition_drops_total",
			Help: "Total number of partitions dropped",
		},
	)
)
