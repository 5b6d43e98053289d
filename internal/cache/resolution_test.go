// VibeMatch - Listener Matching by Music Taste
// Copyright 2026 The VibeMatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Fraga9/VibeMatch

package cache

import (
	"fmt"
	"sync"
	"testing"
)

func TestResolutionCache_BasicOperations(t *testing.T) {
	c := NewResolutionCache(3)

	c.Set(Key("artist", "radiohed"), CanonicalValue("radiohead"))
	c.Set(Key("artist", "zzz"), NotFoundValue())
	c.Set(ZeroShotKey("artist", "radio band"), VectorValue([]float32{0.6, 0.8}))

	v, ok := c.Get("artist:radiohed")
	if !ok || v.Kind != KindCanonicalKey || v.Key != "radiohead" {
		t.Errorf("expected canonical key radiohead, got %+v ok=%v", v, ok)
	}
	v, ok = c.Get("artist:zzz")
	if !ok || v.Kind != KindNotFound {
		t.Errorf("expected not_found, got %+v ok=%v", v, ok)
	}
	v, ok = c.Get("zero_shot:artist:radio band")
	if !ok || v.Kind != KindVector || len(v.Vector) != 2 {
		t.Errorf("expected vector, got %+v ok=%v", v, ok)
	}
	if _, ok := c.Get("artist:missing"); ok {
		t.Error("expected miss for unknown key")
	}

	if c.Len() != 3 {
		t.Errorf("expected len 3, got %d", c.Len())
	}
	stats := c.Stats()
	if stats.Hits != 3 || stats.Misses != 1 {
		t.Errorf("expected 3 hits 1 miss, got %+v", stats)
	}
}

func TestResolutionCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := NewResolutionCache(3)

	c.Set("a", NotFoundValue())
	c.Set("b", NotFoundValue())
	c.Set("c", NotFoundValue())

	c.Get("a")
	c.Set("d", NotFoundValue())

	if c.Contains("b") {
		t.Error("expected 'b' to be evicted")
	}
	for _, k := range []string{"a", "c", "d"} {
		if !c.Contains(k) {
			t.Errorf("expected %q to be present", k)
		}
	}
	if c.Stats().Evictions != 1 {
		t.Errorf("expected 1 eviction, got %d", c.Stats().Evictions)
	}
}

func TestResolutionCache_ReadGrantsOneRescue(t *testing.T) {
	c := NewResolutionCache(2)

	c.Set("a", NotFoundValue())
	c.Set("b", NotFoundValue())
	c.Get("a")

	// The read left "a" at the tail; the eviction rescues it once.
	c.Set("c", NotFoundValue())
	if !c.Contains("a") || c.Contains("b") {
		t.Fatalf("expected 'a' rescued and 'b' evicted")
	}

	// The rescue cleared the bit, so without another read "a" goes next.
	c.Set("d", NotFoundValue())
	if c.Contains("a") {
		t.Error("expected 'a' evicted after its rescue was spent")
	}
	for _, k := range []string{"c", "d"} {
		if !c.Contains(k) {
			t.Errorf("expected %q to be present", k)
		}
	}
}

func TestResolutionCache_SetExistingMovesToFront(t *testing.T) {
	c := NewResolutionCache(2)

	c.Set("a", CanonicalValue("x"))
	c.Set("b", CanonicalValue("y"))
	c.Set("a", CanonicalValue("z"))
	c.Set("c", CanonicalValue("w"))

	if c.Contains("b") {
		t.Error("expected 'b' to be evicted after 'a' was rewritten")
	}
	v, ok := c.Get("a")
	if !ok || v.Key != "z" {
		t.Errorf("expected overwritten value z, got %+v", v)
	}
	if c.Len() != 2 {
		t.Errorf("expected len 2, got %d", c.Len())
	}
}

func TestResolutionCache_ContainsDoesNotCountStats(t *testing.T) {
	c := NewResolutionCache(2)
	c.Set("a", NotFoundValue())

	c.Contains("a")
	c.Contains("b")

	stats := c.Stats()
	if stats.Hits != 0 || stats.Misses != 0 {
		t.Errorf("Contains should not touch stats, got %+v", stats)
	}
}

func TestResolutionCache_VectorValueCopies(t *testing.T) {
	src := []float32{1, 0}
	v := VectorValue(src)
	src[0] = 42

	if v.Vector[0] != 1 {
		t.Errorf("expected stored vector to be isolated from caller slice, got %v", v.Vector)
	}
}

func TestResolutionCache_Clear(t *testing.T) {
	c := NewResolutionCache(4)
	c.Set("a", NotFoundValue())
	c.Set("b", NotFoundValue())

	c.Clear()

	if c.Len() != 0 || c.Contains("a") {
		t.Errorf("expected empty cache after Clear, len=%d", c.Len())
	}
	c.Set("c", NotFoundValue())
	if !c.Contains("c") {
		t.Error("expected cache usable after Clear")
	}
}

func TestResolutionCache_DefaultCapacity(t *testing.T) {
	if got := NewResolutionCache(0).Capacity(); got != DefaultResolutionCapacity {
		t.Errorf("expected default capacity %d, got %d", DefaultResolutionCapacity, got)
	}
}

func TestResolutionCache_ConcurrentWritersRespectCapacity(t *testing.T) {
	const capacity = 64
	c := NewResolutionCache(capacity)

	var wg sync.WaitGroup
	for w := 0; w < 16; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 2000; i++ {
				key := fmt.Sprintf("artist:%d-%d", w, i)
				c.Set(key, CanonicalValue(key))
				c.Get(fmt.Sprintf("artist:%d-%d", w, i/2))
				if n := c.Len(); n > capacity {
					t.Errorf("size %d exceeds capacity %d", n, capacity)
					return
				}
			}
		}(w)
	}
	wg.Wait()

	if c.Len() > capacity {
		t.Errorf("final size %d exceeds capacity %d", c.Len(), capacity)
	}
	count := 0
	c.items.Range(func(_, _ any) bool {
		count++
		return true
	})
	if count != c.Len() {
		t.Errorf("index holds %d keys but size reports %d", count, c.Len())
	}
}

func TestKindString(t *testing.T) {
	tests := map[Kind]string{
		KindCanonicalKey: "canonical_key",
		KindVector:       "vector",
		KindNotFound:     "not_found",
		Kind(0):          "unknown",
	}
	for k, want := range tests {
		if got := k.String(); got != want {
			t.Errorf("Kind(%d).String() = %q, want %q", k, got, want)
		}
	}
}

func BenchmarkResolutionCache_Get(b *testing.B) {
	c := NewResolutionCache(10000)
	for i := 0; i < 10000; i++ {
		c.Set(fmt.Sprintf("artist:%d", i), NotFoundValue())
	}
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			c.Get(fmt.Sprintf("artist:%d", i%10000))
			i++
		}
	})
}
