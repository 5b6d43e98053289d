// VibeMatch - Listener Matching by Music Taste
// Copyright 2026 The VibeMatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Fraga9/VibeMatch

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Resolution Cache Metrics
	ResolutionCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vibematch_resolution_cache_hits_total",
			Help: "Total number of entity resolution cache hits",
		},
	)

	ResolutionCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vibematch_resolution_cache_misses_total",
			Help: "Total number of entity resolution cache misses",
		},
	)

	ResolutionCacheEvictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vibematch_resolution_cache_evictions_total",
			Help: "Total number of entries evicted from the resolution cache",
		},
	)

	ResolutionCacheSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vibematch_resolution_cache_entries",
			Help: "Current number of entries in the resolution cache",
		},
	)

	// Entity Resolution Metrics
	Resolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vibematch_resolutions_total",
			Help: "Entity resolutions by entity type and tier",
		},
		[]string{"entity", "tier"}, // tier: exact, fuzzy, zero_shot, missing
	)

	// Catalog Metrics
	CatalogEntries = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "vibematch_catalog_entries",
			Help: "Number of vectors in the loaded catalog",
		},
		[]string{"entity"},
	)

	CatalogSynthetic = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vibematch_catalog_synthetic",
			Help: "1 when the synthetic development catalog is in use",
		},
	)

	// Aggregation Metrics
	AggregateDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vibematch_aggregate_duration_seconds",
			Help:    "Time to build one user embedding",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
		},
	)

	AggregateResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vibematch_aggregate_results_total",
			Help: "Embedding calls by outcome",
		},
		[]string{"outcome"}, // ok, degenerate, timeout, error
	)

	// Similarity Store Metrics
	SimilarityStoreOps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vibematch_similarity_store_operations_total",
			Help: "Similarity store operations by type and result",
		},
		[]string{"operation", "result"},
	)

	SimilarityStoreDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vibematch_similarity_store_duration_seconds",
			Help:    "Similarity store operation latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "vibematch_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vibematch_circuit_breaker_requests_total",
			Help: "Requests through a circuit breaker by result",
		},
		[]string{"name", "result"}, // success, failure, rejected
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vibematch_circuit_breaker_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// Regeneration Metrics
	RegenerateUsers = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vibematch_regenerate_users_total",
			Help: "Users processed by batch regeneration by outcome",
		},
		[]string{"outcome"},
	)

	RegenerateDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vibematch_regenerate_run_duration_seconds",
			Help:    "Duration of a full regeneration run",
			Buckets: []float64{1, 5, 15, 60, 300, 900, 3600},
		},
	)

	RegenerateLastRun = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vibematch_regenerate_last_run_timestamp_seconds",
			Help: "Unix time of the last completed regeneration run",
		},
	)

	// Ops HTTP Metrics
	OpsRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vibematch_ops_http_requests_total",
			Help: "Ops endpoint requests by method, route and status",
		},
		[]string{"method", "route", "status"},
	)

	OpsRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vibematch_ops_http_request_duration_seconds",
			Help:    "Ops endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	OpsActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vibematch_ops_http_active_requests",
			Help: "Ops requests currently being served",
		},
	)
)

// RecordOpsRequest records one finished ops request.
func RecordOpsRequest(method, route, status string, duration time.Duration) {
	OpsRequests.WithLabelValues(method, route, status).Inc()
	OpsRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// TrackOpsRequest moves the active-request gauge.
func TrackOpsRequest(start bool) {
	if start {
		OpsActiveRequests.Inc()
	} else {
		OpsActiveRequests.Dec()
	}
}

// RecordResolution counts one resolution outcome.
func RecordResolution(entity, tier string) {
	Resolutions.WithLabelValues(entity, tier).Inc()
}

// RecordAggregate records one embedding call.
func RecordAggregate(duration time.Duration, outcome string) {
	AggregateDuration.Observe(duration.Seconds())
	AggregateResults.WithLabelValues(outcome).Inc()
}

// RecordSimilarityOp records one similarity store call.
func RecordSimilarityOp(operation string, duration time.Duration, err error) {
	SimilarityStoreDuration.WithLabelValues(operation).Observe(duration.Seconds())
	result := "success"
	if err != nil {
		result = "error"
	}
	SimilarityStoreOps.WithLabelValues(operation, result).Inc()
}

// RecordRegenerateUser counts one user outcome of a regeneration run.
func RecordRegenerateUser(outcome string) {
	RegenerateUsers.WithLabelValues(outcome).Inc()
}

// RecordRegenerateRun records the end of a regeneration run.
func RecordRegenerateRun(duration time.Duration, finished time.Time) {
	RegenerateDuration.Observe(duration.Seconds())
	RegenerateLastRun.Set(float64(finished.Unix()))
}

// SetCatalog publishes catalog size and mode.
func SetCatalog(artists, tracks int, synthetic bool) {
	CatalogEntries.WithLabelValues("artist").Set(float64(artists))
	CatalogEntries.WithLabelValues("track").Set(float64(tracks))
	if synthetic {
		CatalogSynthetic.Set(1)
	} else {
		CatalogSynthetic.Set(0)
	}
}

// cacheSnapshot remembers the last published counters so that cumulative
// cache stats can be turned into counter increments.
type cacheSnapshot struct {
	hits, misses, evictions uint64
}

var lastCache cacheSnapshot

// PublishCacheStats converts cumulative cache counters into Prometheus
// counter increments and sets the size gauge. It must be called from a
// single goroutine (the cache stats reporter).
func PublishCacheStats(hits, misses, evictions uint64, size int) {
	if hits >= lastCache.hits {
		ResolutionCacheHits.Add(float64(hits - lastCache.hits))
	}
	if misses >= lastCache.misses {
		ResolutionCacheMisses.Add(float64(misses - lastCache.misses))
	}
	if evictions >= lastCache.evictions {
		ResolutionCacheEvictions.Add(float64(evictions - lastCache.evictions))
	}
	lastCache = cacheSnapshot{hits: hits, misses: misses, evictions: evictions}
	ResolutionCacheSize.Set(float64(size))
}
