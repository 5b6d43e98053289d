// VibeMatch - Listener Matching by Music Taste
// Copyright 2026 The VibeMatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Fraga9/VibeMatch

package taste

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/Fraga9/VibeMatch/internal/cache"
	"github.com/Fraga9/VibeMatch/internal/metrics"
	"github.com/Fraga9/VibeMatch/internal/models"
	"github.com/Fraga9/VibeMatch/internal/taste/catalog"
	"github.com/Fraga9/VibeMatch/internal/taste/index"
	"github.com/Fraga9/VibeMatch/internal/taste/resolve"
)

// Engine owns the catalog, the approximate index and the resolution cache,
// and turns listening profiles into taste vectors. It is safe for
// concurrent use.
type Engine struct {
	cfg    *Config
	logger zerolog.Logger

	catalog  *catalog.Catalog
	index    *index.Index
	cache    *cache.ResolutionCache
	resolver *resolve.Resolver

	now func() time.Time

	// Source of degenerate fallback vectors (protected by rngMu)
	rng   *rand.Rand
	rngMu sync.Mutex

	closed     atomic.Bool
	embeds     atomic.Uint64
	degenerate atomic.Uint64
	timeouts   atomic.Uint64
	tiers      [4]atomic.Uint64 // indexed by resolve.Tier
}

// Option customizes an Engine.
type Option func(*Engine)

// WithClock replaces time.Now for recency decay.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// Result is what Embed hands to the similarity layer.
type Result struct {
	Embedding  *UserEmbedding `json:"embedding"`
	Metadata   *Metadata      `json:"metadata"`
	TopArtists []string       `json:"top_artists"`
	TopGenres  []string       `json:"top_genres"`
}

// Stats is a read-only snapshot of engine counters.
type Stats struct {
	CatalogMode   string                `json:"catalog_mode"`
	CatalogSource string                `json:"catalog_source"`
	Artists       int                   `json:"artists"`
	Tracks        int                   `json:"tracks"`
	Dimension     int                   `json:"dimension"`
	Cache         cache.ResolutionStats `json:"cache"`
	Embeds        uint64                `json:"embeds"`
	Degenerate    uint64                `json:"degenerate"`
	Timeouts      uint64                `json:"timeouts"`
	Tiers         map[string]uint64     `json:"tiers"`
}

// New loads the configured catalog and builds an Engine over it. A failed
// catalog load falls back to synthetic vectors unless
// cfg.Catalog.RequireProduction is set, in which case the error wraps
// ErrCatalogUnavailable.
//
//nolint:gocritic // zerolog.Logger is passed by value
func New(cfg *Config, logger zerolog.Logger, opts ...Option) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	c, err := catalog.LoadOrSynthetic(cfg.Catalog, logger.With().Str("component", "catalog").Logger())
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	return NewWithCatalog(c, cfg, logger, opts...)
}

// NewWithCatalog builds an Engine over an already loaded catalog.
//
//nolint:gocritic // zerolog.Logger is passed by value
func NewWithCatalog(c *catalog.Catalog, cfg *Config, logger zerolog.Logger, opts ...Option) (*Engine, error) {
	if c == nil {
		return nil, ErrCatalogUnavailable
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = 42
	}

	ix := index.New(c, cfg.Index)
	rc := cache.NewResolutionCache(cfg.CacheCapacity)
	e := &Engine{
		cfg:      cfg,
		logger:   logger.With().Str("component", "taste").Logger(),
		catalog:  c,
		index:    ix,
		cache:    rc,
		resolver: resolve.New(c, ix, rc, cfg.Resolver, logger),
		now:      time.Now,
		rng:      rand.New(rand.NewPCG(uint64(seed), uint64(seed)>>1|1)), //nolint:gosec // fallback vectors need no crypto
	}
	for _, opt := range opts {
		opt(e)
	}

	metrics.SetCatalog(c.Len(catalog.Artist), c.Len(catalog.Track), c.Mode() == catalog.ModeSynthetic)
	e.logger.Info().
		Str("catalog_mode", c.Mode().String()).
		Int("artists", c.Len(catalog.Artist)).
		Int("tracks", c.Len(catalog.Track)).
		Int("cache_capacity", cfg.CacheCapacity).
		Msg("embedding engine ready")
	return e, nil
}

// Embed aggregates a profile under the configured timeout and derives the
// top artists and genres stored next to the vector.
func (e *Engine) Embed(ctx context.Context, p *models.UserProfile) (*Result, error) {
	if p == nil {
		return nil, errors.New("nil profile")
	}
	if e.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.Timeout)
		defer cancel()
	}

	start := time.Now()
	agg, err := e.aggregate(ctx, p)
	if err != nil {
		if errors.Is(err, ErrTimeout) {
			e.timeouts.Add(1)
			metrics.RecordAggregate(time.Since(start), "timeout")
			e.logger.Warn().Str("username", p.Username).Dur("elapsed", time.Since(start)).Msg("embedding timed out")
		}
		return nil, err
	}
	e.embeds.Add(1)

	outcome := "ok"
	if agg.meta.Degenerate {
		outcome = "degenerate"
		e.degenerate.Add(1)
		e.logger.Warn().
			Str("username", p.Username).
			Int("artists_missing", agg.meta.Artists.Missing).
			Int("tracks_missing", agg.meta.Tracks.Missing).
			Msg("no items resolved, using degenerate embedding")
	}
	metrics.RecordAggregate(time.Since(start), outcome)

	top := make([]string, 0, e.cfg.TopArtists)
	for _, c := range capList(agg.artists, e.cfg.TopArtists) {
		top = append(top, c.name)
	}

	return &Result{
		Embedding:  agg.embedding,
		Metadata:   agg.meta,
		TopArtists: top,
		TopGenres:  InferGenres(p.ArtistTags, agg.ranked, e.cfg.TopGenres),
	}, nil
}

// randomUnit draws the degenerate fallback vector.
func (e *Engine) randomUnit(dim int) []float32 {
	e.rngMu.Lock()
	defer e.rngMu.Unlock()

	vec := make([]float32, dim)
	for {
		var sq float64
		for i := range vec {
			x := e.rng.NormFloat64()
			vec[i] = float32(x)
			sq += x * x
		}
		if sq > 0 {
			inv := 1 / math.Sqrt(sq)
			for i := range vec {
				vec[i] = float32(float64(vec[i]) * inv)
			}
			return vec
		}
	}
}

// Resolver exposes the entity resolver for single lookups.
func (e *Engine) Resolver() *resolve.Resolver { return e.resolver }

// Catalog returns the loaded catalog.
func (e *Engine) Catalog() *catalog.Catalog { return e.catalog }

// Cache returns the shared resolution cache.
func (e *Engine) Cache() *cache.ResolutionCache { return e.cache }

// Synthetic reports whether the engine runs on the synthetic catalog.
func (e *Engine) Synthetic() bool { return e.catalog.Mode() == catalog.ModeSynthetic }

// Stats returns a snapshot of engine and cache counters.
func (e *Engine) Stats() Stats {
	tiers := make(map[string]uint64, len(e.tiers))
	for t := range e.tiers {
		tiers[resolve.Tier(t).String()] = e.tiers[t].Load()
	}
	return Stats{
		CatalogMode:   e.catalog.Mode().String(),
		CatalogSource: e.catalog.Source(),
		Artists:       e.catalog.Len(catalog.Artist),
		Tracks:        e.catalog.Len(catalog.Track),
		Dimension:     e.catalog.Dim(),
		Cache:         e.cache.Stats(),
		Embeds:        e.embeds.Load(),
		Degenerate:    e.degenerate.Load(),
		Timeouts:      e.timeouts.Load(),
		Tiers:         tiers,
	}
}

// Closed reports whether Close has been called.
func (e *Engine) Closed() bool { return e.closed.Load() }

// Close releases the resolution cache. Later calls fail with ErrClosed.
func (e *Engine) Close() error {
	if !e.closed.CompareAndSwap(false, true) {
		return nil
	}
	e.cache.Clear()
	e.logger.Info().Msg("embedding engine closed")
	return nil
}
