// VibeMatch - Listener Matching by Music Taste
// Copyright 2026 The VibeMatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Fraga9/VibeMatch

// Package app turns a loaded config.Config into the engine, similarity
// store and regenerator shared by cmd/server and cmd/vibematch.
package app

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Fraga9/VibeMatch/internal/config"
	"github.com/Fraga9/VibeMatch/internal/regenerate"
	"github.com/Fraga9/VibeMatch/internal/similarity"
	"github.com/Fraga9/VibeMatch/internal/taste"
	"github.com/Fraga9/VibeMatch/internal/taste/catalog"
	"github.com/Fraga9/VibeMatch/internal/taste/index"
	"github.com/Fraga9/VibeMatch/internal/taste/resolve"
)

// EngineConfig maps the engine-related config sections onto taste.Config.
func EngineConfig(cfg *config.Config) *taste.Config {
	w := cfg.Weights
	return &taste.Config{
		Catalog: catalog.LoadOptions{
			Path:              cfg.Catalog.Path,
			Dimension:         cfg.Catalog.Dimension,
			Seed:              cfg.Catalog.Seed,
			RequireProduction: cfg.Catalog.RequireProduction,
		},
		CacheCapacity: cfg.Cache.Capacity,
		Index: index.Config{
			ContainBase:    cfg.Index.ContainBase,
			ContainSpan:    cfg.Index.ContainSpan,
			KeyInQuery:     cfg.Index.KeyInQuery,
			MinContainLen:  cfg.Index.MinContainLen,
			TokenMin:       cfg.Index.TokenMin,
			EarlyExitScore: cfg.Index.EarlyExitScore,
			EarlyExitCount: cfg.Index.EarlyExitCount,
			ScanLimit:      cfg.Index.ScanLimit,
			MaxCandidates:  cfg.Index.MaxCandidates,
		},
		Resolver: resolve.Config{
			FuzzyMinScore: cfg.Resolver.FuzzyMinScore,
			ZeroShotTopK:  cfg.Resolver.ZeroShotTopK,
			MaxCandidates: cfg.Index.MaxCandidates,
		},
		Weights: taste.WeightConfig{
			Overall:                 w.Overall,
			SixMonth:                w.SixMonth,
			ThreeMonth:              w.ThreeMonth,
			Recent:                  w.Recent,
			ArtistShare:             w.ArtistShare,
			ConsistencyThreePlus:    w.ConsistencyThreePlus,
			ConsistencyPairOverall:  w.ConsistencyPairOverall,
			ConsistencyPair:         w.ConsistencyPair,
			ConsistencyOverallOnly:  w.ConsistencyOverallOnly,
			ConsistencySingleRecent: w.ConsistencySingleRecent,
			RecentHalfLife:          w.RecentHalfLife,
			UnconfirmedRecent:       w.UnconfirmedRecent,
		},
		Timeout:         cfg.Engine.Timeout,
		TopArtists:      cfg.Engine.TopArtists,
		TopGenres:       cfg.Engine.TopGenres,
		MaxItemsPerList: cfg.Engine.MaxItemsPerList,
		Seed:            cfg.Engine.Seed,
	}
}

// NewEngine builds the embedding engine from cfg.
//
//nolint:gocritic // zerolog.Logger is passed by value
func NewEngine(cfg *config.Config, logger zerolog.Logger) (*taste.Engine, error) {
	return taste.New(EngineConfig(cfg), logger)
}

// OpenStore opens the chromem similarity store for vectors of dim, wrapped
// in a circuit breaker when similarity.breaker.enabled is set.
//
//nolint:gocritic // zerolog.Logger is passed by value
func OpenStore(cfg *config.Config, dim int, logger zerolog.Logger) (similarity.Store, error) {
	sc := cfg.Similarity
	store, err := similarity.NewChromemStore(similarity.ChromemOptions{
		Path:            sc.Path,
		Collection:      sc.Collection,
		Compress:        sc.Compress,
		AllowDegenerate: sc.AllowDegenerate,
		Dimension:       dim,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("open similarity store: %w", err)
	}
	if !sc.Breaker.Enabled {
		return store, nil
	}
	return similarity.NewBreakerStore(store, similarity.BreakerSettings{
		Name:         "similarity-store",
		MaxRequests:  sc.Breaker.MaxRequests,
		Interval:     sc.Breaker.Interval,
		Timeout:      sc.Breaker.Timeout,
		FailureRatio: sc.Breaker.FailureRatio,
		MinRequests:  sc.Breaker.MinRequests,
	}), nil
}

// RegenerateOptions maps the regenerate section onto regenerate.Options.
func RegenerateOptions(cfg *config.Config) regenerate.Options {
	rc := cfg.Regenerate
	return regenerate.Options{
		Workers:     rc.Workers,
		RateLimit:   rc.RateLimit,
		RateBurst:   rc.RateBurst,
		UserTimeout: rc.UserTimeout,
		MinArtists:  rc.MinArtists,
		DryRun:      rc.DryRun,
	}
}

// NewRegenerator builds a Regenerator reading profiles from
// regenerate.profiles_dir. store may be nil for dry runs.
//
//nolint:gocritic // zerolog.Logger is passed by value
func NewRegenerator(cfg *config.Config, engine regenerate.Embedder, store similarity.Store, logger zerolog.Logger) *regenerate.Regenerator {
	source := regenerate.NewDirSource(cfg.Regenerate.ProfilesDir)
	return regenerate.New(engine, source, store, RegenerateOptions(cfg), logger)
}
