// VibeMatch - Listener Matching by Music Taste
// Copyright 2026 The VibeMatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Fraga9/VibeMatch

package taste

import (
	"fmt"
	"math"
	"time"

	"github.com/Fraga9/VibeMatch/internal/taste/catalog"
	"github.com/Fraga9/VibeMatch/internal/taste/index"
	"github.com/Fraga9/VibeMatch/internal/taste/resolve"
)

// Config contains all configuration for the embedding engine.
type Config struct {
	// Catalog selects the vector source and the synthetic fallback.
	Catalog catalog.LoadOptions `json:"catalog"`

	// CacheCapacity bounds the shared resolution cache.
	CacheCapacity int `json:"cache_capacity"`

	// Index holds approximate matching thresholds.
	Index index.Config `json:"index"`

	// Resolver holds fuzzy and zero-shot thresholds.
	Resolver resolve.Config `json:"resolver"`

	// Weights holds the aggregation weighting model.
	Weights WeightConfig `json:"weights"`

	// Timeout bounds one Embed call. Zero disables it.
	Timeout time.Duration `json:"timeout"`

	// TopArtists is how many contributing artists are reported.
	TopArtists int `json:"top_artists"`

	// TopGenres is how many inferred genres are reported.
	TopGenres int `json:"top_genres"`

	// MaxItemsPerList caps each artist/track list of a period. Zero keeps
	// every item.
	MaxItemsPerList int `json:"max_items_per_list"`

	// Seed drives the degenerate fallback vectors. If zero, 42 is used.
	Seed int64 `json:"seed"`
}

// WeightConfig is the aggregation weighting model. All values are tuning
// choices and may be overridden.
type WeightConfig struct {
	// Period budgets. They are expected to sum to 1.
	Overall    float64 `json:"overall"`
	SixMonth   float64 `json:"six_month"`
	ThreeMonth float64 `json:"three_month"`
	Recent     float64 `json:"recent"`

	// ArtistShare is the artist part of each period budget; tracks get the
	// remainder.
	ArtistShare float64 `json:"artist_share"`

	// Consistency multipliers by the periods an item appears in.
	ConsistencyThreePlus    float64 `json:"consistency_three_plus"`    // >= 3 periods
	ConsistencyPairOverall  float64 `json:"consistency_pair_overall"`  // 2 periods incl. overall
	ConsistencyPair         float64 `json:"consistency_pair"`          // 2 periods, no overall
	ConsistencyOverallOnly  float64 `json:"consistency_overall_only"`  // overall only
	ConsistencySingleRecent float64 `json:"consistency_single_recent"` // one non-overall period

	// RecentHalfLife is the decay half-life of recent plays.
	RecentHalfLife time.Duration `json:"recent_half_life"`

	// UnconfirmedRecent discounts recent tracks absent from every period.
	UnconfirmedRecent float64 `json:"unconfirmed_recent"`
}

// DefaultWeights returns the standard weighting model.
func DefaultWeights() WeightConfig {
	return WeightConfig{
		Overall:                 0.45,
		SixMonth:                0.25,
		ThreeMonth:              0.15,
		Recent:                  0.15,
		ArtistShare:             0.4,
		ConsistencyThreePlus:    1.4,
		ConsistencyPairOverall:  1.2,
		ConsistencyPair:         1.0,
		ConsistencyOverallOnly:  1.0,
		ConsistencySingleRecent: 0.7,
		RecentHalfLife:          30 * 24 * time.Hour,
		UnconfirmedRecent:       0.8,
	}
}

// DefaultConfig returns a configuration using the synthetic catalog.
func DefaultConfig() *Config {
	return &Config{
		Catalog:       catalog.LoadOptions{Dimension: catalog.DefaultDimension, Seed: 42},
		CacheCapacity: 10000,
		Index:         index.DefaultConfig(),
		Resolver:      resolve.DefaultConfig(),
		Weights:       DefaultWeights(),
		Timeout:       30 * time.Second,
		TopArtists:    10,
		TopGenres:     5,
		Seed:          42,
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.CacheCapacity < 1 {
		return fmt.Errorf("cache_capacity must be positive, got %d", c.CacheCapacity)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must be non-negative, got %v", c.Timeout)
	}
	if c.TopArtists < 0 || c.TopGenres < 0 || c.MaxItemsPerList < 0 {
		return fmt.Errorf("top_artists, top_genres and max_items_per_list must be non-negative")
	}
	if err := c.Index.Validate(); err != nil {
		return err
	}
	if err := c.Resolver.Validate(); err != nil {
		return err
	}
	return c.Weights.Validate()
}

// Validate checks the weighting model.
func (w *WeightConfig) Validate() error {
	budgets := []float64{w.Overall, w.SixMonth, w.ThreeMonth, w.Recent}
	var sum float64
	for _, b := range budgets {
		if b < 0 {
			return fmt.Errorf("weights: period budgets must be non-negative, got %v", budgets)
		}
		sum += b
	}
	if math.Abs(sum-1) > 1e-6 {
		return fmt.Errorf("weights: period budgets must sum to 1, got %f", sum)
	}
	if w.ArtistShare < 0 || w.ArtistShare > 1 {
		return fmt.Errorf("weights.artist_share must be in [0, 1], got %f", w.ArtistShare)
	}
	for _, m := range []float64{w.ConsistencyThreePlus, w.ConsistencyPairOverall, w.ConsistencyPair,
		w.ConsistencyOverallOnly, w.ConsistencySingleRecent, w.UnconfirmedRecent} {
		if m <= 0 {
			return fmt.Errorf("weights: multipliers must be positive")
		}
	}
	if w.RecentHalfLife <= 0 {
		return fmt.Errorf("weights.recent_half_life must be positive, got %v", w.RecentHalfLife)
	}
	return nil
}
