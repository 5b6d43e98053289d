// VibeMatch - Listener Matching by Music Taste
// Copyright 2026 The VibeMatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Fraga9/VibeMatch

package config

import (
	"fmt"
	"math"
)

// Validate checks every configuration section.
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateEngine,
		c.validateCatalog,
		c.validateCache,
		c.validateIndex,
		c.validateResolver,
		c.validateWeights,
		c.validateSimilarity,
		c.validateRegenerate,
		c.validateServer,
		c.validateLogging,
	}
	for _, validate := range validators {
		if err := validate(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateEngine() error {
	if c.Engine.Timeout < 0 {
		return fmt.Errorf("engine.timeout must be non-negative, got %v", c.Engine.Timeout)
	}
	if c.Engine.TopArtists < 0 || c.Engine.TopGenres < 0 {
		return fmt.Errorf("engine.top_artists and engine.top_genres must be non-negative")
	}
	if c.Engine.MaxItemsPerList < 0 {
		return fmt.Errorf("engine.max_items_per_list must be non-negative, got %d", c.Engine.MaxItemsPerList)
	}
	return nil
}

func (c *Config) validateCatalog() error {
	if c.Catalog.Dimension < 1 {
		return fmt.Errorf("catalog.dimension must be positive, got %d", c.Catalog.Dimension)
	}
	if c.Catalog.RequireProduction && c.Catalog.Path == "" {
		return fmt.Errorf("catalog.path is required when catalog.require_production is set")
	}
	return nil
}

func (c *Config) validateCache() error {
	if c.Cache.Capacity < 1 {
		return fmt.Errorf("cache.capacity must be positive, got %d", c.Cache.Capacity)
	}
	if c.Cache.ReportInterval <= 0 {
		return fmt.Errorf("cache.report_interval must be positive, got %v", c.Cache.ReportInterval)
	}
	return nil
}

func (c *Config) validateIndex() error {
	ix := c.Index
	if ix.ScanLimit < 1 || ix.MaxCandidates < 1 || ix.EarlyExitCount < 1 {
		return fmt.Errorf("index.scan_limit, index.max_candidates and index.early_exit_count must be positive")
	}
	if ix.MinContainLen < 0 {
		return fmt.Errorf("index.min_contain_len must be non-negative, got %d", ix.MinContainLen)
	}
	// Zero is a real setting for every score: key_in_query 0 turns the
	// key-in-query direction off and token_min 0 keeps any overlap.
	for name, v := range map[string]float64{
		"index.contain_base":     ix.ContainBase,
		"index.contain_span":     ix.ContainSpan,
		"index.token_min":        ix.TokenMin,
		"index.early_exit_score": ix.EarlyExitScore,
		"index.key_in_query":     ix.KeyInQuery,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%s must be in [0, 1], got %f", name, v)
		}
	}
	return nil
}

func (c *Config) validateResolver() error {
	if c.Resolver.FuzzyMinScore < 0 || c.Resolver.FuzzyMinScore > 1 {
		return fmt.Errorf("resolver.fuzzy_min_score must be in [0, 1], got %f", c.Resolver.FuzzyMinScore)
	}
	if c.Resolver.ZeroShotTopK < 0 {
		return fmt.Errorf("resolver.zero_shot_top_k must be non-negative, got %d", c.Resolver.ZeroShotTopK)
	}
	return nil
}

func (c *Config) validateWeights() error {
	w := c.Weights
	sum := w.Overall + w.SixMonth + w.ThreeMonth + w.Recent
	if math.Abs(sum-1) > 1e-6 {
		return fmt.Errorf("weights: period budgets must sum to 1, got %f", sum)
	}
	if w.ArtistShare < 0 || w.ArtistShare > 1 {
		return fmt.Errorf("weights.artist_share must be in [0, 1], got %f", w.ArtistShare)
	}
	if w.RecentHalfLife <= 0 {
		return fmt.Errorf("weights.recent_half_life must be positive, got %v", w.RecentHalfLife)
	}
	return nil
}

func (c *Config) validateSimilarity() error {
	if !c.Similarity.Enabled {
		return nil
	}
	if c.Similarity.Collection == "" {
		return fmt.Errorf("similarity.collection is required when similarity is enabled")
	}
	if c.Similarity.MatchLimit < 1 {
		return fmt.Errorf("similarity.match_limit must be positive, got %d", c.Similarity.MatchLimit)
	}
	b := c.Similarity.Breaker
	if b.Enabled && (b.FailureRatio <= 0 || b.FailureRatio > 1) {
		return fmt.Errorf("similarity.breaker.failure_ratio must be in (0, 1], got %f", b.FailureRatio)
	}
	return nil
}

func (c *Config) validateRegenerate() error {
	r := c.Regenerate
	if r.Workers < 1 {
		return fmt.Errorf("regenerate.workers must be positive, got %d", r.Workers)
	}
	if r.RateLimit < 0 {
		return fmt.Errorf("regenerate.rate_limit must be non-negative, got %f", r.RateLimit)
	}
	if r.Enabled && r.Interval <= 0 {
		return fmt.Errorf("regenerate.interval must be positive when regeneration is enabled")
	}
	if r.Enabled && r.ProfilesDir == "" {
		return fmt.Errorf("regenerate.profiles_dir is required when regeneration is enabled")
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in [0, 65535], got %d", c.Server.Port)
	}
	if c.Server.RateLimitRequests < 0 {
		return fmt.Errorf("server.rate_limit_requests must be non-negative, got %d", c.Server.RateLimitRequests)
	}
	if c.Server.RateLimitRequests > 0 && c.Server.RateLimitWindow <= 0 {
		return fmt.Errorf("server.rate_limit_window must be positive when rate limiting is enabled")
	}
	return nil
}

var validLogLevels = map[string]bool{
	"trace": true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validLogFormats = map[string]bool{
	"json":    true,
	"console": true,
}

func (c *Config) validateLogging() error {
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of trace, debug, info, warn, error, got %q", c.Logging.Level)
	}
	if !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}
	return nil
}
