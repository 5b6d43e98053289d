// VibeMatch - Listener Matching by Music Taste
// Copyright 2026 The VibeMatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Fraga9/VibeMatch

package config

import "time"

// Config holds all application configuration.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: built-in values from defaultConfig()
//  2. Config File: optional YAML file (CONFIG_PATH or DefaultConfigPaths)
//  3. Environment Variables: explicit mapping in envTransformFunc
//
// Config is immutable after LoadWithKoanf() and safe for concurrent reads.
type Config struct {
	Engine     EngineConfig     `koanf:"engine"`
	Catalog    CatalogConfig    `koanf:"catalog"`
	Cache      CacheConfig      `koanf:"cache"`
	Index      IndexConfig      `koanf:"index"`
	Resolver   ResolverConfig   `koanf:"resolver"`
	Weights    WeightsConfig    `koanf:"weights"`
	Similarity SimilarityConfig `koanf:"similarity"`
	Regenerate RegenerateConfig `koanf:"regenerate"`
	Server     ServerConfig     `koanf:"server"`
	Logging    LoggingConfig    `koanf:"logging"`
	Supervisor SupervisorConfig `koanf:"supervisor"`
}

// EngineConfig holds per-call embedding settings.
//
// Environment Variables:
//   - ENGINE_TIMEOUT: Per-call timeout (default: 30s)
//   - ENGINE_TOP_ARTISTS: Contributing artists reported (default: 10)
//   - ENGINE_TOP_GENRES: Inferred genres reported (default: 5)
//   - ENGINE_MAX_ITEMS_PER_LIST: Cap per chart, 0 keeps all (default: 0)
//   - ENGINE_SEED: Seed for degenerate fallback vectors (default: 42)
type EngineConfig struct {
	Timeout         time.Duration `koanf:"timeout"`
	TopArtists      int           `koanf:"top_artists"`
	TopGenres       int           `koanf:"top_genres"`
	MaxItemsPerList int           `koanf:"max_items_per_list"`
	Seed            int64         `koanf:"seed"`
}

// CatalogConfig selects the embedding catalog.
type CatalogConfig struct {
	// Path is a msgpack or JSON file, a badger directory, or a
	// badger:// URL. Empty means synthetic vectors.
	Path string `koanf:"path"`

	// Dimension of the synthetic fallback.
	// Default: 128
	Dimension int `koanf:"dimension"`

	// Seed of the synthetic fallback.
	Seed uint64 `koanf:"seed"`

	// RequireProduction makes a failed load fatal instead of falling back
	// to synthetic vectors.
	// Default: false
	RequireProduction bool `koanf:"require_production"`
}

// CacheConfig sizes the resolution cache.
type CacheConfig struct {
	// Capacity is the maximum number of cached resolutions.
	// Default: 10000
	Capacity int `koanf:"capacity"`

	// ReportInterval is how often cache stats are published as metrics.
	// Default: 15s
	ReportInterval time.Duration `koanf:"report_interval"`
}

// IndexConfig holds approximate matching thresholds.
type IndexConfig struct {
	ScanLimit      int     `koanf:"scan_limit"`
	MaxCandidates  int     `koanf:"max_candidates"`
	ContainBase    float64 `koanf:"contain_base"`
	ContainSpan    float64 `koanf:"contain_span"`
	KeyInQuery     float64 `koanf:"key_in_query"`
	MinContainLen  int     `koanf:"min_contain_len"`
	TokenMin       float64 `koanf:"token_min"`
	EarlyExitScore float64 `koanf:"early_exit_score"`
	EarlyExitCount int     `koanf:"early_exit_count"`
}

// ResolverConfig holds the fuzzy and zero-shot thresholds.
type ResolverConfig struct {
	FuzzyMinScore float64 `koanf:"fuzzy_min_score"`
	ZeroShotTopK  int     `koanf:"zero_shot_top_k"`
}

// WeightsConfig holds the aggregation weighting model. These are tuning
// values, not invariants.
type WeightsConfig struct {
	Overall                 float64       `koanf:"overall"`
	SixMonth                float64       `koanf:"six_month"`
	ThreeMonth              float64       `koanf:"three_month"`
	Recent                  float64       `koanf:"recent"`
	ArtistShare             float64       `koanf:"artist_share"`
	ConsistencyThreePlus    float64       `koanf:"consistency_three_plus"`
	ConsistencyPairOverall  float64       `koanf:"consistency_pair_overall"`
	ConsistencyPair         float64       `koanf:"consistency_pair"`
	ConsistencyOverallOnly  float64       `koanf:"consistency_overall_only"`
	ConsistencySingleRecent float64       `koanf:"consistency_single_recent"`
	RecentHalfLife          time.Duration `koanf:"recent_half_life"`
	UnconfirmedRecent       float64       `koanf:"unconfirmed_recent"`
}

// SimilarityConfig configures the embedded vector store.
//
// Environment Variables:
//   - SIMILARITY_ENABLED: Persist and match embeddings (default: true)
//   - SIMILARITY_PATH: Store directory, empty for in-memory (default: /data/similarity)
//   - SIMILARITY_COLLECTION: Collection name (default: users)
type SimilarityConfig struct {
	Enabled         bool          `koanf:"enabled"`
	Path            string        `koanf:"path"`
	Collection      string        `koanf:"collection"`
	Compress        bool          `koanf:"compress"`
	AllowDegenerate bool          `koanf:"allow_degenerate"`
	MatchLimit      int           `koanf:"match_limit"`
	Breaker         BreakerConfig `koanf:"breaker"`
}

// BreakerConfig configures the circuit breaker in front of the store.
type BreakerConfig struct {
	Enabled      bool          `koanf:"enabled"`
	MaxRequests  uint32        `koanf:"max_requests"`
	Interval     time.Duration `koanf:"interval"`
	Timeout      time.Duration `koanf:"timeout"`
	FailureRatio float64       `koanf:"failure_ratio"`
	MinRequests  uint32        `koanf:"min_requests"`
}

// RegenerateConfig configures batch regeneration of stored embeddings.
//
// Environment Variables:
//   - REGENERATE_ENABLED: Run on a schedule inside the server (default: false)
//   - REGENERATE_INTERVAL: Schedule interval (default: 24h)
//   - REGENERATE_PROFILES_DIR: Directory of profile JSON files
//   - REGENERATE_WORKERS: Concurrent users (default: 4)
type RegenerateConfig struct {
	Enabled     bool          `koanf:"enabled"`
	Interval    time.Duration `koanf:"interval"`
	OnStartup   bool          `koanf:"on_startup"`
	ProfilesDir string        `koanf:"profiles_dir"`
	Workers     int           `koanf:"workers"`
	RateLimit   float64       `koanf:"rate_limit"` // source fetches per second, 0 disables
	RateBurst   int           `koanf:"rate_burst"`
	UserTimeout time.Duration `koanf:"user_timeout"`
	MinArtists  int           `koanf:"min_artists"`
	ReportPath  string        `koanf:"report_path"`
	DryRun      bool          `koanf:"dry_run"`
	Usernames   []string      `koanf:"usernames"`
}

// ServerConfig holds the operations HTTP listener settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// RateLimitRequests is the per-IP request budget of the ops endpoints
	// within RateLimitWindow. 0 disables limiting. Default: 120
	RateLimitRequests int           `koanf:"rate_limit_requests"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	// Default: info
	Level string `koanf:"level"`

	// Format is the output format: json or console.
	// Default: json
	Format string `koanf:"format"`

	// Caller includes caller file and line number in logs.
	// Default: false
	Caller bool `koanf:"caller"`
}

// SupervisorConfig holds suture tree settings.
type SupervisorConfig struct {
	FailureThreshold float64       `koanf:"failure_threshold"`
	FailureDecay     float64       `koanf:"failure_decay"`
	FailureBackoff   time.Duration `koanf:"failure_backoff"`
	ShutdownTimeout  time.Duration `koanf:"shutdown_timeout"`
}
