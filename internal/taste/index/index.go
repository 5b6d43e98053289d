// VibeMatch - Listener Matching by Music Taste
// Copyright 2026 The VibeMatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Fraga9/VibeMatch

// Package index finds catalog keys that approximately match a name.
//
// Scoring runs in two tiers per catalog key:
//
//  1. Containment. If the query occurs inside the key the score is
//     ContainBase + len(query)/len(key)*ContainSpan, so a query covering
//     most of the key scores near 1. If the key occurs inside the query
//     the score is the flat KeyInQuery.
//  2. Token overlap, only when neither contains the other:
//     |T(query) ∩ T(key)| / max(|T(query)|, |T(key)|), kept when above
//     TokenMin.
//
// Only the first ScanLimit keys of a namespace are examined, and the scan
// stops early once a near-exact candidate and a few alternatives are
// known. Results are sorted by score, best first.
package index

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/Fraga9/VibeMatch/internal/taste/catalog"
)

// Config holds the scoring thresholds.
type Config struct {
	// ContainBase is the score floor when the query is inside a key.
	ContainBase float64 `json:"contain_base"`

	// ContainSpan is scaled by len(query)/len(key) and added to ContainBase.
	ContainSpan float64 `json:"contain_span"`

	// KeyInQuery is the flat score when a key is inside the query. Zero
	// turns that direction off.
	KeyInQuery float64 `json:"key_in_query"`

	// MinContainLen ignores keys shorter than this for the key-in-query
	// direction, so "a" or "mc" do not match every query.
	MinContainLen int `json:"min_contain_len"`

	// TokenMin is the exclusive lower bound for token-overlap scores.
	TokenMin float64 `json:"token_min"`

	// EarlyExitScore and EarlyExitCount stop the scan once a candidate
	// scores above EarlyExitScore and at least EarlyExitCount are held.
	EarlyExitScore float64 `json:"early_exit_score"`
	EarlyExitCount int     `json:"early_exit_count"`

	// ScanLimit caps how many keys are examined per query.
	ScanLimit int `json:"scan_limit"`

	// MaxCandidates is used when Query is called with max <= 0.
	MaxCandidates int `json:"max_candidates"`
}

// DefaultConfig returns the standard thresholds.
func DefaultConfig() Config {
	return Config{
		ContainBase:    0.8,
		ContainSpan:    0.2,
		KeyInQuery:     0.7,
		MinContainLen:  3,
		TokenMin:       0.3,
		EarlyExitScore: 0.95,
		EarlyExitCount: 3,
		ScanLimit:      5000,
		MaxCandidates:  10,
	}
}

// Validate checks explicit thresholds. Zero is a valid value for every
// score and for MinContainLen; the zero Config as a whole stands for
// DefaultConfig and is accepted.
func (c Config) Validate() error {
	if c == (Config{}) {
		return nil
	}
	for name, v := range map[string]float64{
		"contain_base":     c.ContainBase,
		"contain_span":     c.ContainSpan,
		"key_in_query":     c.KeyInQuery,
		"token_min":        c.TokenMin,
		"early_exit_score": c.EarlyExitScore,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("index.%s must be in [0, 1], got %f", name, v)
		}
	}
	if c.MinContainLen < 0 {
		return fmt.Errorf("index.min_contain_len must be non-negative, got %d", c.MinContainLen)
	}
	if c.EarlyExitCount < 1 || c.ScanLimit < 1 || c.MaxCandidates < 1 {
		return fmt.Errorf("index.early_exit_count, scan_limit and max_candidates must be positive")
	}
	return nil
}

// Candidate is a scored catalog key.
type Candidate struct {
	Key   string
	Score float64
}

type keyTokens struct {
	key    string
	tokens map[string]struct{}
}

// Index is a read-only approximate matcher over a catalog. Token sets are
// precomputed for the scanned prefix of each namespace.
type Index struct {
	cfg     Config
	artists []keyTokens
	tracks  []keyTokens
}

// New builds an index over the first cfg.ScanLimit keys of each namespace.
// The zero Config selects DefaultConfig; any other value is used as given
// and should have passed Validate.
func New(c *catalog.Catalog, cfg Config) *Index {
	if cfg == (Config{}) {
		cfg = DefaultConfig()
	}
	return &Index{
		cfg:     cfg,
		artists: prepare(c.Keys(catalog.Artist), cfg.ScanLimit),
		tracks:  prepare(c.Keys(catalog.Track), cfg.ScanLimit),
	}
}

func prepare(keys []string, limit int) []keyTokens {
	if len(keys) > limit {
		keys = keys[:limit]
	}
	out := make([]keyTokens, len(keys))
	for i, k := range keys {
		out[i] = keyTokens{key: k, tokens: Tokenize(k)}
	}
	return out
}

// Config returns the effective configuration.
func (ix *Index) Config() Config { return ix.cfg }

// Query returns up to max candidates for an already normalized name, best
// first. An empty result means nothing cleared the thresholds.
func (ix *Index) Query(normalized string, t catalog.EntityType, max int) []Candidate {
	if normalized == "" {
		return nil
	}
	if max <= 0 {
		max = ix.cfg.MaxCandidates
	}
	keys := ix.artists
	if t == catalog.Track {
		keys = ix.tracks
	}

	var (
		out         []Candidate
		best        float64
		queryTokens map[string]struct{}
	)
	for _, kt := range keys {
		score, ok := ix.containScore(normalized, kt.key)
		if !ok {
			if queryTokens == nil {
				queryTokens = Tokenize(normalized)
			}
			score = overlap(queryTokens, kt.tokens)
			if score <= ix.cfg.TokenMin {
				continue
			}
		}

		out = append(out, Candidate{Key: kt.key, Score: score})
		if score > best {
			best = score
		}
		if len(out) >= max {
			break
		}
		if best > ix.cfg.EarlyExitScore && len(out) >= ix.cfg.EarlyExitCount {
			break
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

func (ix *Index) containScore(query, key string) (float64, bool) {
	if key == query {
		return 1, true
	}
	if strings.Contains(key, query) {
		return ix.cfg.ContainBase + float64(len(query))/float64(len(key))*ix.cfg.ContainSpan, true
	}
	if ix.cfg.KeyInQuery > 0 && len(key) >= ix.cfg.MinContainLen && strings.Contains(query, key) {
		return ix.cfg.KeyInQuery, true
	}
	return 0, false
}

func overlap(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}
	shared := 0
	for tok := range small {
		if _, ok := large[tok]; ok {
			shared++
		}
	}
	return float64(shared) / float64(len(large))
}

// Tokenize splits s into a set of letter/digit runs.
func Tokenize(s string) map[string]struct{} {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		out[f] = struct{}{}
	}
	return out
}
