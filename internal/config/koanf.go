// VibeMatch - Listener Matching by Music Taste
// Copyright 2026 The VibeMatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Fraga9/VibeMatch

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/vibematch/config.yaml",
	"/etc/vibematch/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config struct with all default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Engine: EngineConfig{
			Timeout:    30 * time.Second,
			TopArtists: 10,
			TopGenres:  5,
			Seed:       42,
		},
		Catalog: CatalogConfig{
			Path:      "/data/catalog.msgpack",
			Dimension: 128,
			Seed:      42,
		},
		Cache: CacheConfig{
			Capacity:       10000,
			ReportInterval: 15 * time.Second,
		},
		Index: IndexConfig{
			ScanLimit:      5000,
			MaxCandidates:  10,
			ContainBase:    0.8,
			ContainSpan:    0.2,
			KeyInQuery:     0.7,
			MinContainLen:  3,
			TokenMin:       0.3,
			EarlyExitScore: 0.95,
			EarlyExitCount: 3,
		},
		Resolver: ResolverConfig{
			FuzzyMinScore: 0.7,
			ZeroShotTopK:  5,
		},
		Weights: WeightsConfig{
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
		},
		Similarity: SimilarityConfig{
			Enabled:    true,
			Path:       "/data/similarity",
			Collection: "users",
			Compress:   true,
			MatchLimit: 10,
			Breaker: BreakerConfig{
				Enabled:      true,
				MaxRequests:  3,
				Interval:     time.Minute,
				Timeout:      2 * time.Minute,
				FailureRatio: 0.6,
				MinRequests:  10,
			},
		},
		Regenerate: RegenerateConfig{
			Enabled:     false,
			Interval:    24 * time.Hour,
			ProfilesDir: "/data/profiles",
			Workers:     4,
			RateLimit:   5,
			RateBurst:   1,
			UserTimeout: 30 * time.Second,
			MinArtists:  5,
			ReportPath:  "/data/regeneration_report.json",
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            9464,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,

			RateLimitRequests: 120,
			RateLimitWindow:   time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Supervisor: SupervisorConfig{
			FailureThreshold: 5,
			FailureDecay:     30,
			FailureBackoff:   15 * time.Second,
			ShutdownTimeout:  10 * time.Second,
		},
	}
}

// Default returns the built-in defaults without reading a file or the
// environment.
func Default() *Config {
	return defaultConfig()
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Defaults
//  2. Config File (optional YAML)
//  3. Environment Variables
func LoadWithKoanf() (*Config, error) {
	return load(findConfigFile())
}

// LoadFile is LoadWithKoanf with an explicit config file path. An empty
// path falls back to the default search.
func LoadFile(path string) (*Config, error) {
	if path == "" {
		path = findConfigFile()
	}
	return load(path)
}

func load(configPath string) (*Config, error) {
	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file (optional)
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: Environment variables (highest priority)
	// CATALOG_PATH -> catalog.path
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices
var sliceConfigPaths = []string{
	"regenerate.usernames",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
// Env vars arrive as strings, YAML lists are left alone.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envMappings maps environment variable names (lowercased) to koanf paths.
var envMappings = map[string]string{
	// Engine
	"engine_timeout":            "engine.timeout",
	"engine_top_artists":        "engine.top_artists",
	"engine_top_genres":         "engine.top_genres",
	"engine_max_items_per_list": "engine.max_items_per_list",
	"engine_seed":               "engine.seed",

	// Catalog
	"catalog_path":               "catalog.path",
	"embeddings_path":            "catalog.path",
	"catalog_dimension":          "catalog.dimension",
	"catalog_seed":               "catalog.seed",
	"catalog_require_production": "catalog.require_production",

	// Resolution cache
	"cache_capacity":        "cache.capacity",
	"resolution_cache_size": "cache.capacity",
	"cache_report_interval": "cache.report_interval",

	// Index and resolver
	"index_scan_limit":           "index.scan_limit",
	"index_max_candidates":       "index.max_candidates",
	"index_token_min":            "index.token_min",
	"index_key_in_query":         "index.key_in_query",
	"index_early_exit_score":     "index.early_exit_score",
	"resolver_fuzzy_min_score":   "resolver.fuzzy_min_score",
	"resolver_zero_shot_top_k":   "resolver.zero_shot_top_k",
	"weights_recent_half_life":   "weights.recent_half_life",
	"weights_unconfirmed_recent": "weights.unconfirmed_recent",

	// Similarity store
	"similarity_enabled":          "similarity.enabled",
	"similarity_path":             "similarity.path",
	"similarity_collection":       "similarity.collection",
	"similarity_compress":         "similarity.compress",
	"similarity_allow_degenerate": "similarity.allow_degenerate",
	"similarity_match_limit":      "similarity.match_limit",
	"similarity_breaker_enabled":  "similarity.breaker.enabled",
	"similarity_breaker_timeout":  "similarity.breaker.timeout",

	// Regeneration
	"regenerate_enabled":      "regenerate.enabled",
	"regenerate_interval":     "regenerate.interval",
	"regenerate_on_startup":   "regenerate.on_startup",
	"regenerate_profiles_dir": "regenerate.profiles_dir",
	"regenerate_workers":      "regenerate.workers",
	"regenerate_rate_limit":   "regenerate.rate_limit",
	"regenerate_user_timeout": "regenerate.user_timeout",
	"regenerate_min_artists":  "regenerate.min_artists",
	"regenerate_report_path":  "regenerate.report_path",
	"regenerate_dry_run":      "regenerate.dry_run",
	"regenerate_usernames":    "regenerate.usernames",

	// Server
	"http_host":        "server.host",
	"http_port":        "server.port",
	"server_host":      "server.host",
	"server_port":      "server.port",
	"shutdown_timeout": "server.shutdown_timeout",
	"ops_rate_limit":   "server.rate_limit_requests",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	// Supervisor
	"supervisor_failure_threshold": "supervisor.failure_threshold",
	"supervisor_failure_backoff":   "supervisor.failure_backoff",
	"supervisor_shutdown_timeout":  "supervisor.shutdown_timeout",
}

// envTransformFunc transforms environment variable names to koanf config paths.
//
// Examples:
//   - CATALOG_PATH -> catalog.path
//   - RESOLUTION_CACHE_SIZE -> cache.capacity
//   - HTTP_PORT -> server.port
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	// Unmapped keys are skipped so unrelated environment variables do not
	// pollute the config.
	return ""
}

// WatchConfigFile calls callback whenever the file at path changes. The
// caller is responsible for reloading and swapping configuration safely.
func WatchConfigFile(path string, callback func()) error {
	return file.Provider(path).Watch(func(event interface{}, err error) {
		if err != nil {
			return
		}
		callback()
	})
}
