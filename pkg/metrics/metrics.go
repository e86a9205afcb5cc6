// Copyright 2025 Grug Framework
//
// Prometheus metrics for the execution core. These are operational only;
// nothing here feeds back into consensus.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BlocksExecuted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "grug",
		Subsystem: "app",
		Name:      "blocks_executed_total",
		Help:      "Number of blocks finalized.",
	})

	BlockExecutionSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "grug",
		Subsystem: "app",
		Name:      "block_execution_seconds",
		Help:      "Wall-clock time spent executing one block.",
		Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14),
	})

	TxsExecuted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "grug",
		Subsystem: "app",
		Name:      "txs_executed_total",
		Help:      "Number of transactions executed, by result.",
	}, []string{"result"})

	GasUsed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "grug",
		Subsystem: "app",
		Name:      "gas_used_total",
		Help:      "Total gas consumed by executed transactions.",
	})

	ModuleCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "grug",
		Subsystem: "vm",
		Name:      "module_cache_hits_total",
		Help:      "Module cache hits.",
	})

	ModuleCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "grug",
		Subsystem: "vm",
		Name:      "module_cache_misses_total",
		Help:      "Module cache misses (compilations).",
	})

	ModuleCacheBytes = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "grug",
		Subsystem: "vm",
		Name:      "module_cache_bytes",
		Help:      "Total byte weight of cached modules.",
	})
)
