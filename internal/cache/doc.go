// VibeMatch - Listener Matching by Music Taste
// Copyright 2026 The VibeMatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Fraga9/VibeMatch

/*
Package cache holds the bounded resolution cache shared by every embedding
call of an engine.

Entries map a namespaced key to one of three values:

	Key("artist", name)         -> canonical catalog key (fuzzy hit)
	Key("artist", name)         -> not found (recorded miss)
	ZeroShotKey("artist", name) -> synthesized unit vector

Keys are namespaced by entity type so an artist and a track with the same
normalized name never collide.

# Eviction

The cache uses second-chance LRU over a recency list. A hit only sets the
entry's reference bit. When a Set finds the cache full it examines the
tail: a referenced tail entry has its bit cleared and goes back to the
front, an unreferenced one is evicted. Capacity is fixed at construction.

# Thread Safety

ResolutionCache is safe for concurrent use. Reads go through a sync.Map
and atomics and never take the lock; writes serialize on one mutex that
guards the recency list. Stats are published to Prometheus by the cache
reporter service.
*/
package cache
