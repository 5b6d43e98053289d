// VibeMatch - Listener Matching by Music Taste
// Copyright 2026 The VibeMatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Fraga9/VibeMatch

// Package catalog holds the precomputed artist and track taste vectors.
//
// A Catalog is built once (from a msgpack or JSON file, a BadgerDB snapshot,
// or the synthetic development fallback) and is read-only afterwards, so it
// can be shared by any number of goroutines without locking. Keys are
// normalized names; tracks are keyed either by "track||artist" or by the
// bare track name.
package catalog

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// DefaultDimension is the vector dimension of the synthetic catalog.
const DefaultDimension = 128

// ErrUnavailable is returned when no usable catalog could be loaded.
var ErrUnavailable = errors.New("catalog unavailable")

// ErrDimensionMismatch is returned when entries disagree on vector length.
var ErrDimensionMismatch = errors.New("catalog dimension mismatch")

// EntityType selects the artist or track namespace.
type EntityType uint8

const (
	Artist EntityType = iota
	Track
)

// String returns "artist" or "track".
func (t EntityType) String() string {
	if t == Track {
		return "track"
	}
	return "artist"
}

// ParseEntityType parses "artist" or "track".
func ParseEntityType(s string) (EntityType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "artist", "artists":
		return Artist, nil
	case "track", "tracks":
		return Track, nil
	default:
		return Artist, fmt.Errorf("unknown entity type %q", s)
	}
}

// Mode says where the vectors came from.
type Mode uint8

const (
	// ModeProduction means vectors were loaded from a trained catalog.
	ModeProduction Mode = iota
	// ModeSynthetic means the development fallback is in use and
	// similarity results are meaningless.
	ModeSynthetic
)

// String returns "production" or "synthetic".
func (m Mode) String() string {
	if m == ModeSynthetic {
		return "synthetic"
	}
	return "production"
}

// Entry is one named vector.
type Entry struct {
	Name   string    `msgpack:"name" json:"name"`
	Vector []float32 `msgpack:"vector" json:"vector"`
}

type namespace struct {
	keys    []string
	vectors map[string][]float32
	aliases map[string]string
}

func newNamespace(n int) namespace {
	return namespace{
		keys:    make([]string, 0, n),
		vectors: make(map[string][]float32, n),
		aliases: make(map[string]string),
	}
}

// Catalog maps normalized names to vectors for both entity types.
type Catalog struct {
	dim     int
	mode    Mode
	source  string
	artists namespace
	tracks  namespace
}

// Option customizes a Catalog built with New.
type Option func(*Catalog)

// WithMode sets the catalog mode. Default: ModeProduction.
func WithMode(m Mode) Option {
	return func(c *Catalog) { c.mode = m }
}

// WithSource records where the catalog was loaded from.
func WithSource(src string) Option {
	return func(c *Catalog) { c.source = src }
}

// WithAliases registers alternative spellings for an entity type. Both sides
// are normalized; aliases whose target is absent are dropped.
func WithAliases(t EntityType, aliases map[string]string) Option {
	return func(c *Catalog) {
		ns := c.ns(t)
		for alias, canonical := range aliases {
			a, k := Normalize(alias), Normalize(canonical)
			if a == "" || a == k {
				continue
			}
			if _, ok := ns.vectors[k]; !ok {
				continue
			}
			if _, taken := ns.vectors[a]; taken {
				continue
			}
			ns.aliases[a] = k
		}
	}
}

// New builds a catalog from ordered entries. Names are normalized and the
// first occurrence of a duplicate wins. dim <= 0 takes the dimension of the
// first entry. Entries with a different length fail with
// ErrDimensionMismatch.
func New(dim int, artists, tracks []Entry, opts ...Option) (*Catalog, error) {
	if dim <= 0 {
		switch {
		case len(artists) > 0:
			dim = len(artists[0].Vector)
		case len(tracks) > 0:
			dim = len(tracks[0].Vector)
		default:
			dim = DefaultDimension
		}
	}
	if dim == 0 {
		return nil, fmt.Errorf("%w: empty vectors", ErrDimensionMismatch)
	}

	c := &Catalog{
		dim:     dim,
		artists: newNamespace(len(artists)),
		tracks:  newNamespace(len(tracks)),
	}
	if err := c.artists.fill(artists, dim); err != nil {
		return nil, fmt.Errorf("artists: %w", err)
	}
	if err := c.tracks.fill(tracks, dim); err != nil {
		return nil, fmt.Errorf("tracks: %w", err)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (ns *namespace) fill(entries []Entry, dim int) error {
	for _, e := range entries {
		key := Normalize(e.Name)
		if key == "" {
			continue
		}
		if len(e.Vector) != dim {
			return fmt.Errorf("%w: %q has %d values, want %d", ErrDimensionMismatch, e.Name, len(e.Vector), dim)
		}
		if _, dup := ns.vectors[key]; dup {
			continue
		}
		vec := make([]float32, dim)
		copy(vec, e.Vector)
		ns.keys = append(ns.keys, key)
		ns.vectors[key] = vec
	}
	return nil
}

func (c *Catalog) ns(t EntityType) *namespace {
	if t == Track {
		return &c.tracks
	}
	return &c.artists
}

// Lookup returns the vector stored under an already normalized name,
// following aliases. The returned slice must not be modified.
func (c *Catalog) Lookup(t EntityType, normalized string) ([]float32, bool) {
	_, vec, ok := c.Find(t, normalized)
	return vec, ok
}

// Find is Lookup that also reports the canonical key holding the vector.
func (c *Catalog) Find(t EntityType, normalized string) (string, []float32, bool) {
	ns := c.ns(t)
	if vec, ok := ns.vectors[normalized]; ok {
		return normalized, vec, true
	}
	if target, ok := ns.aliases[normalized]; ok {
		return target, ns.vectors[target], true
	}
	return "", nil, false
}

// Keys returns the namespace keys in catalog order. The slice is shared and
// must not be modified.
func (c *Catalog) Keys(t EntityType) []string {
	return c.ns(t).keys
}

// Len returns the number of vectors of an entity type.
func (c *Catalog) Len(t EntityType) int {
	return len(c.ns(t).keys)
}

// Aliases returns a copy of the alias map of an entity type.
func (c *Catalog) Aliases(t EntityType) map[string]string {
	src := c.ns(t).aliases
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

// Entries returns the entries of an entity type in catalog order.
func (c *Catalog) Entries(t EntityType) []Entry {
	ns := c.ns(t)
	out := make([]Entry, 0, len(ns.keys))
	for _, k := range ns.keys {
		out = append(out, Entry{Name: k, Vector: ns.vectors[k]})
	}
	return out
}

// Dim returns the vector dimension.
func (c *Catalog) Dim() int { return c.dim }

// Mode reports whether the catalog is production or synthetic.
func (c *Catalog) Mode() Mode { return c.mode }

// Source returns the location the catalog was loaded from, if known.
func (c *Catalog) Source() string { return c.source }

// Normalize lowercases and trims a name.
func Normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// TrackKey builds the compound key "track||artist" from raw names.
func TrackKey(track, artist string) string {
	return Normalize(track) + "||" + Normalize(artist)
}

// L2Normalize scales vec in place to unit length and returns its original
// norm. A zero vector is left unchanged.
func L2Normalize(vec []float32) float64 {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	norm := math.Sqrt(sum)
	if norm == 0 {
		return 0
	}
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return norm
}
