// VibeMatch - Listener Matching by Music Taste
// Copyright 2026 The VibeMatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Fraga9/VibeMatch

/*
Package metrics defines the Prometheus collectors exported by VibeMatch.

Collectors are package-level promauto variables registered with the default
registry; the ops HTTP service serves them on /metrics via promhttp.

# Metric Families

  - vibematch_resolution_cache_*: hits, misses, evictions, entries
  - vibematch_resolutions_total{entity,tier}: exact, fuzzy, zero_shot, missing
  - vibematch_catalog_*: catalog size and synthetic flag
  - vibematch_aggregate_*: embedding latency and outcomes
  - vibematch_similarity_store_*: store operation counts and latency
  - vibematch_circuit_breaker_*: breaker state, requests, transitions
  - vibematch_regenerate_*: batch regeneration outcomes and run duration

# Usage

Packages record through the helper functions rather than touching the
collectors directly:

	metrics.RecordResolution("artist", "fuzzy")
	metrics.RecordAggregate(time.Since(start), "ok")

Cache counters are cumulative inside the cache itself, so they are exported
by a periodic reporter calling PublishCacheStats.
*/
package metrics
