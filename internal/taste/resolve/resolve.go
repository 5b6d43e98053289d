// VibeMatch - Listener Matching by Music Taste
// Copyright 2026 The VibeMatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Fraga9/VibeMatch

// Package resolve maps noisy artist and track names to catalog vectors.
//
// Resolution walks a fixed ladder and stops at the first tier that
// produces a vector:
//
//	exact     catalog key or alias
//	cached    earlier fuzzy key, zero-shot vector, or recorded miss
//	fuzzy     best index candidate at or above FuzzyMinScore
//	zero-shot score-weighted mean of the top index candidates
//	missing   nothing usable; the miss is cached
//
// Every tier helper returns (Result, error) with ErrTierMiss meaning "try
// the next tier", so the ladder in Resolve reads top to bottom.
package resolve

import (
	"errors"
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/Fraga9/VibeMatch/internal/cache"
	"github.com/Fraga9/VibeMatch/internal/metrics"
	"github.com/Fraga9/VibeMatch/internal/taste/catalog"
	"github.com/Fraga9/VibeMatch/internal/taste/index"
)

// ErrTierMiss is returned by a tier that could not produce a vector.
var ErrTierMiss = errors.New("resolution tier miss")

// Tier is how a name was resolved.
type Tier uint8

const (
	TierMissing Tier = iota
	TierExact
	TierFuzzy
	TierZeroShot
)

// String returns the tier label used in metadata and metrics.
func (t Tier) String() string {
	switch t {
	case TierExact:
		return "exact"
	case TierFuzzy:
		return "fuzzy"
	case TierZeroShot:
		return "zero_shot"
	default:
		return "missing"
	}
}

// Result is the outcome of resolving one name.
type Result struct {
	Tier Tier

	// Vector is nil when Tier is TierMissing. It may be shared with the
	// catalog or cache and must not be modified.
	Vector []float32

	// MatchedKey is the catalog key that supplied the vector. For tracks
	// resolved through their artist it is "artist:<name>".
	MatchedKey string

	// Score is the index score for fuzzy results, 1 for exact.
	Score float64

	// CacheHit is true when the result came from the resolution cache.
	CacheHit bool
}

// Found reports whether the result carries a vector.
func (r Result) Found() bool { return r.Tier != TierMissing }

// Config holds resolver thresholds.
type Config struct {
	// FuzzyMinScore is the lowest index score accepted as a fuzzy match.
	// Weaker candidates only contribute to zero-shot synthesis.
	// Default: 0.7
	FuzzyMinScore float64 `json:"fuzzy_min_score"`

	// ZeroShotTopK is how many candidates are blended for zero-shot.
	// Zero disables zero-shot synthesis. Default: 5
	ZeroShotTopK int `json:"zero_shot_top_k"`

	// MaxCandidates bounds each index query. Default: 10
	MaxCandidates int `json:"max_candidates"`
}

// DefaultConfig returns the standard thresholds.
func DefaultConfig() Config {
	return Config{
		FuzzyMinScore: 0.7,
		ZeroShotTopK:  5,
		MaxCandidates: 10,
	}
}

// Validate checks explicit thresholds. The zero Config stands for
// DefaultConfig and is accepted.
func (c Config) Validate() error {
	if c == (Config{}) {
		return nil
	}
	if c.FuzzyMinScore < 0 || c.FuzzyMinScore > 1 {
		return fmt.Errorf("resolver.fuzzy_min_score must be in [0, 1], got %f", c.FuzzyMinScore)
	}
	if c.ZeroShotTopK < 0 {
		return fmt.Errorf("resolver.zero_shot_top_k must be non-negative, got %d", c.ZeroShotTopK)
	}
	if c.MaxCandidates < 1 {
		return fmt.Errorf("resolver.max_candidates must be positive, got %d", c.MaxCandidates)
	}
	return nil
}

// Resolver resolves names against a catalog, an index over it and a shared
// cache. It is safe for concurrent use.
type Resolver struct {
	catalog *catalog.Catalog
	index   *index.Index
	cache   *cache.ResolutionCache
	cfg     Config
	logger  zerolog.Logger
}

// New creates a resolver. The zero Config selects DefaultConfig; any other
// value is used as given and should have passed Validate.
//
//nolint:gocritic // zerolog.Logger is passed by value
func New(c *catalog.Catalog, ix *index.Index, rc *cache.ResolutionCache, cfg Config, logger zerolog.Logger) *Resolver {
	if cfg == (Config{}) {
		cfg = DefaultConfig()
	}
	return &Resolver{
		catalog: c,
		index:   ix,
		cache:   rc,
		cfg:     cfg,
		logger:  logger.With().Str("component", "resolver").Logger(),
	}
}

// Config returns the effective configuration.
func (r *Resolver) Config() Config { return r.cfg }

// Resolve maps a raw name to a vector. It never fails; an unresolvable name
// yields TierMissing.
func (r *Resolver) Resolve(name string, t catalog.EntityType) Result {
	res := r.resolve(catalog.Normalize(name), t)
	metrics.RecordResolution(t.String(), res.Tier.String())
	return res
}

func (r *Resolver) resolve(n string, t catalog.EntityType) Result {
	if n == "" {
		return Result{Tier: TierMissing}
	}
	if res, err := r.exact(n, t); err == nil {
		return res
	}
	if res, err := r.cached(n, t); err == nil {
		return res
	}

	candidates := r.index.Query(n, t, r.cfg.MaxCandidates)
	if res, err := r.fuzzy(n, t, candidates); err == nil {
		return res
	}
	if res, err := r.zeroShot(n, t, candidates); err == nil {
		return res
	}

	r.cache.Set(cache.Key(t.String(), n), cache.NotFoundValue())
	r.logger.Debug().Str("entity", t.String()).Str("name", n).Msg("unresolved")
	return Result{Tier: TierMissing}
}

// ResolveTrack resolves a track by title and artist. Fallbacks in order:
// exact "track||artist", exact bare title, the artist's exact vector, the
// full ladder on the compound key, the full ladder on the artist.
func (r *Resolver) ResolveTrack(track, artist string) Result {
	res := r.resolveTrack(catalog.Normalize(track), catalog.Normalize(artist))
	metrics.RecordResolution(catalog.Track.String(), res.Tier.String())
	return res
}

func (r *Resolver) resolveTrack(title, artist string) Result {
	compound := title + "||" + artist

	if res, err := r.exact(compound, catalog.Track); err == nil {
		return res
	}
	if title != "" {
		if res, err := r.exact(title, catalog.Track); err == nil {
			return res
		}
	}
	if artist != "" {
		if res, err := r.exact(artist, catalog.Artist); err == nil {
			res.Tier = TierFuzzy
			res.MatchedKey = "artist:" + res.MatchedKey
			return res
		}
	}
	if title != "" {
		if res := r.resolve(compound, catalog.Track); res.Found() {
			return res
		}
	}
	if artist == "" {
		return Result{Tier: TierMissing}
	}
	res := r.resolve(artist, catalog.Artist)
	if res.Found() && res.MatchedKey != "" {
		res.MatchedKey = "artist:" + res.MatchedKey
	}
	return res
}

func (r *Resolver) exact(n string, t catalog.EntityType) (Result, error) {
	key, vec, ok := r.catalog.Find(t, n)
	if !ok {
		return Result{}, ErrTierMiss
	}
	return Result{Tier: TierExact, Vector: vec, MatchedKey: key, Score: 1}, nil
}

func (r *Resolver) cached(n string, t catalog.EntityType) (Result, error) {
	et := t.String()
	if v, ok := r.cache.Get(cache.Key(et, n)); ok {
		switch v.Kind {
		case cache.KindCanonicalKey:
			if vec, found := r.catalog.Lookup(t, v.Key); found {
				return Result{Tier: TierFuzzy, Vector: vec, MatchedKey: v.Key, CacheHit: true}, nil
			}
		case cache.KindNotFound:
			return Result{Tier: TierMissing, CacheHit: true}, nil
		}
	}
	if v, ok := r.cache.Get(cache.ZeroShotKey(et, n)); ok && v.Kind == cache.KindVector {
		return Result{Tier: TierZeroShot, Vector: v.Vector, CacheHit: true}, nil
	}
	return Result{}, ErrTierMiss
}

func (r *Resolver) fuzzy(n string, t catalog.EntityType, candidates []index.Candidate) (Result, error) {
	if len(candidates) == 0 || candidates[0].Score < r.cfg.FuzzyMinScore {
		return Result{}, ErrTierMiss
	}
	best := candidates[0]
	vec, ok := r.catalog.Lookup(t, best.Key)
	if !ok {
		return Result{}, ErrTierMiss
	}
	r.cache.Set(cache.Key(t.String(), n), cache.CanonicalValue(best.Key))
	return Result{Tier: TierFuzzy, Vector: vec, MatchedKey: best.Key, Score: best.Score}, nil
}

func (r *Resolver) zeroShot(n string, t catalog.EntityType, candidates []index.Candidate) (Result, error) {
	if r.cfg.ZeroShotTopK == 0 {
		return Result{}, ErrTierMiss
	}
	if len(candidates) > r.cfg.ZeroShotTopK {
		candidates = candidates[:r.cfg.ZeroShotTopK]
	}

	var (
		sum    []float64
		weight float64
	)
	for _, c := range candidates {
		vec, ok := r.catalog.Lookup(t, c.Key)
		if !ok || c.Score <= 0 {
			continue
		}
		if sum == nil {
			sum = make([]float64, len(vec))
		}
		for i, v := range vec {
			sum[i] += c.Score * float64(v)
		}
		weight += c.Score
	}
	if weight == 0 {
		return Result{}, ErrTierMiss
	}

	var norm float64
	for i := range sum {
		sum[i] /= weight
		norm += sum[i] * sum[i]
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		return Result{}, ErrTierMiss
	}
	vec := make([]float32, len(sum))
	for i, v := range sum {
		vec[i] = float32(v / norm)
	}

	v := cache.VectorValue(vec)
	r.cache.Set(cache.ZeroShotKey(t.String(), n), v)
	return Result{Tier: TierZeroShot, Vector: v.Vector, Score: candidates[0].Score}, nil
}
