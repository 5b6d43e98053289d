// VibeMatch - Listener Matching by Music Taste
// Copyright 2026 The VibeMatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Fraga9/VibeMatch

package cache

import (
	"sync"
	"sync/atomic"
)

// DefaultResolutionCapacity is used when a non-positive capacity is given.
const DefaultResolutionCapacity = 10000

// Kind tags the variant stored in a Value.
type Kind uint8

const (
	// KindCanonicalKey points at a catalog key chosen by fuzzy matching.
	KindCanonicalKey Kind = iota + 1
	// KindVector holds a synthesized zero-shot vector.
	KindVector
	// KindNotFound records that resolution failed for the key.
	KindNotFound
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindCanonicalKey:
		return "canonical_key"
	case KindVector:
		return "vector"
	case KindNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// Value is the tagged payload of a resolution cache entry.
// Only the field matching Kind is meaningful. Values are never mutated
// after construction.
type Value struct {
	Kind   Kind
	Key    string
	Vector []float32
}

// CanonicalValue builds a KindCanonicalKey value.
func CanonicalValue(key string) Value {
	return Value{Kind: KindCanonicalKey, Key: key}
}

// VectorValue builds a KindVector value holding a private copy of vec.
func VectorValue(vec []float32) Value {
	cp := make([]float32, len(vec))
	copy(cp, vec)
	return Value{Kind: KindVector, Vector: cp}
}

// NotFoundValue builds a KindNotFound value.
func NotFoundValue() Value {
	return Value{Kind: KindNotFound}
}

// Key builds the cache key for a normalized name of the given entity type.
//
//	cache.Key("artist", "radiohead") // "artist:radiohead"
func Key(entityType, normalized string) string {
	return entityType + ":" + normalized
}

// ZeroShotKey builds the cache key under which zero-shot vectors are stored.
//
//	cache.ZeroShotKey("track", "creep||radiohead") // "zero_shot:track:creep||radiohead"
func ZeroShotKey(entityType, normalized string) string {
	return "zero_shot:" + entityType + ":" + normalized
}

type resolutionEntry struct {
	key        string
	value      atomic.Pointer[Value]
	referenced atomic.Bool

	// guarded by ResolutionCache.mu
	prev *resolutionEntry
	next *resolutionEntry
}

// ResolutionStats is a point-in-time snapshot of cache counters.
type ResolutionStats struct {
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	Evictions uint64 `json:"evictions"`
	Size      int    `json:"size"`
	Capacity  int    `json:"capacity"`
}

// HitRate returns hits / (hits + misses), or 0 with no lookups.
func (s ResolutionStats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// ResolutionCache is a fixed-capacity map from resolution keys to tagged
// values shared by all concurrent embedding calls.
//
// Reads never take a lock: the key index is a sync.Map and each entry
// carries an atomic reference bit. Writes serialize on a single mutex that
// guards the recency list, so the number of entries never exceeds the
// capacity once a Set returns. Eviction is second-chance over the recency
// list: an entry read since it last reached the tail is moved back to the
// front once before it can be evicted, which approximates LRU without
// making readers reorder the list. Get never moves an entry; it only sets
// the reference bit, so list order is write order plus those rescues.
type ResolutionCache struct {
	mu       sync.Mutex
	capacity int
	items    sync.Map // string -> *resolutionEntry

	// head.next is the most recently written or rescued entry
	head *resolutionEntry
	tail *resolutionEntry

	size      atomic.Int64
	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

// NewResolutionCache creates a cache holding at most capacity entries.
func NewResolutionCache(capacity int) *ResolutionCache {
	if capacity <= 0 {
		capacity = DefaultResolutionCapacity
	}
	c := &ResolutionCache{
		capacity: capacity,
		head:     &resolutionEntry{},
		tail:     &resolutionEntry{},
	}
	c.head.next = c.tail
	c.tail.prev = c.head
	return c
}

// Get returns the value stored under key. It is safe to call from any
// number of goroutines and never blocks on writers.
func (c *ResolutionCache) Get(key string) (Value, bool) {
	e, ok := c.load(key)
	if !ok {
		c.misses.Add(1)
		return Value{}, false
	}
	v := e.value.Load()
	if v == nil {
		c.misses.Add(1)
		return Value{}, false
	}
	if !e.referenced.Load() {
		e.referenced.Store(true)
	}
	c.hits.Add(1)
	return *v, true
}

// Contains reports whether key is present without touching counters or
// recency.
func (c *ResolutionCache) Contains(key string) bool {
	_, ok := c.load(key)
	return ok
}

func (c *ResolutionCache) load(key string) (*resolutionEntry, bool) {
	raw, ok := c.items.Load(key)
	if !ok {
		return nil, false
	}
	return raw.(*resolutionEntry), true
}

// Set stores value under key. An existing key is overwritten and moves to
// the front of the recency list. A new key at capacity first evicts one
// entry.
func (c *ResolutionCache) Set(key string, value Value) {
	v := value

	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.load(key); ok {
		e.value.Store(&v)
		c.moveToFront(e)
		return
	}

	for int(c.size.Load()) >= c.capacity {
		c.evict()
	}

	e := &resolutionEntry{key: key}
	e.value.Store(&v)
	c.addToFront(e)
	c.items.Store(key, e)
	c.size.Add(1)
}

// Len returns the number of entries.
func (c *ResolutionCache) Len() int {
	return int(c.size.Load())
}

// Capacity returns the configured maximum number of entries.
func (c *ResolutionCache) Capacity() int {
	return c.capacity
}

// Stats returns a snapshot of the counters.
func (c *ResolutionCache) Stats() ResolutionStats {
	return ResolutionStats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
		Size:      c.Len(),
		Capacity:  c.capacity,
	}
}

// Clear drops every entry. Counters are kept.
func (c *ResolutionCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for e := c.head.next; e != c.tail; e = e.next {
		c.items.Delete(e.key)
	}
	c.head.next = c.tail
	c.tail.prev = c.head
	c.size.Store(0)
}

// evict removes one entry. Must be called with mu held and size > 0.
func (c *ResolutionCache) evict() {
	// Every rescued entry loses its bit, so one full pass always ends.
	for {
		victim := c.tail.prev
		if victim == c.head {
			return
		}
		if victim.referenced.Load() {
			victim.referenced.Store(false)
			c.moveToFront(victim)
			continue
		}
		c.unlink(victim)
		c.items.Delete(victim.key)
		c.size.Add(-1)
		c.evictions.Add(1)
		return
	}
}

func (c *ResolutionCache) addToFront(e *resolutionEntry) {
	e.prev = c.head
	e.next = c.head.next
	c.head.next.prev = e
	c.head.next = e
}

func (c *ResolutionCache) unlink(e *resolutionEntry) {
	e.prev.next = e.next
	e.next.prev = e.prev
	e.prev = nil
	e.next = nil
}

func (c *ResolutionCache) moveToFront(e *resolutionEntry) {
	if c.head.next == e {
		return
	}
	c.unlink(e)
	c.addToFront(e)
}
