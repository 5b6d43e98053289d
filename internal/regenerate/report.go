// VibeMatch - Listener Matching by Music Taste
// Copyright 2026 The VibeMatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Fraga9/VibeMatch

package regenerate

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/Fraga9/VibeMatch/internal/taste"
)

// Outcome classifies how one user went.
type Outcome string

const (
	OutcomeProcessed       Outcome = "processed"
	OutcomeNoData          Outcome = "no_data"
	OutcomeFetchError      Outcome = "fetch_error"
	OutcomeRateLimited     Outcome = "rate_limited"
	OutcomeNotFound        Outcome = "not_found"
	OutcomeEmbeddingFailed Outcome = "embedding_failed"
	OutcomeStoreFailed     Outcome = "store_failed"
	OutcomeTimeout         Outcome = "timeout"
)

// Outcomes lists every outcome in report order.
var Outcomes = []Outcome{
	OutcomeProcessed, OutcomeNoData, OutcomeFetchError, OutcomeRateLimited,
	OutcomeNotFound, OutcomeEmbeddingFailed, OutcomeStoreFailed, OutcomeTimeout,
}

// problematicLimit caps each problematic-artist list of a report.
const problematicLimit = 100

// TierTotals sums resolution tiers over all processed users.
type TierTotals struct {
	Exact    int `json:"exact"`
	Fuzzy    int `json:"fuzzy"`
	ZeroShot int `json:"zero_shot"`
	Missing  int `json:"missing"`
}

func (t *TierTotals) add(c taste.CategoryStats) {
	t.Exact += c.Exact
	t.Fuzzy += c.Fuzzy
	t.ZeroShot += c.ZeroShot
	t.Missing += c.Missing
}

// NameCount is an artist and the number of users it affected.
type NameCount struct {
	Name  string `json:"name"`
	Users int    `json:"users"`
}

// Problematic lists the artists that most often failed to resolve exactly.
type Problematic struct {
	Missing  []NameCount `json:"missing"`
	Fuzzy    []NameCount `json:"fuzzy"`
	ZeroShot []NameCount `json:"zero_shot"`
}

// Report summarizes one regeneration run.
type Report struct {
	GeneratedAt   time.Time           `json:"generated_at"`
	Duration      string              `json:"duration"`
	DryRun        bool                `json:"dry_run"`
	Users         int                 `json:"users"`
	Summary       map[Outcome]int     `json:"summary"`
	ArtistMatches TierTotals          `json:"artist_matches"`
	TrackMatches  TierTotals          `json:"track_matches"`
	Degenerate    int                 `json:"degenerate"`
	QualityGrades map[taste.Grade]int `json:"quality_grades"`
	Problematic   Problematic         `json:"problematic_artists"`
}

// Processed is the number of users whose embedding was computed.
func (r *Report) Processed() int { return r.Summary[OutcomeProcessed] }

// WriteFile writes the report as indented JSON, creating parent
// directories.
func (r *Report) WriteFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// matchStats accumulates per-user results of a run. Safe for concurrent
// use.
type matchStats struct {
	mu         sync.Mutex
	outcomes   map[Outcome]int
	artists    TierTotals
	tracks     TierTotals
	degenerate int
	grades     map[taste.Grade]int
	missing    map[string]int
	fuzzy      map[string]int
	zeroShot   map[string]int
}

func newMatchStats() *matchStats {
	return &matchStats{
		outcomes: make(map[Outcome]int, len(Outcomes)),
		grades:   make(map[taste.Grade]int, len(taste.Grades)),
		missing:  make(map[string]int),
		fuzzy:    make(map[string]int),
		zeroShot: make(map[string]int),
	}
}

func (m *matchStats) outcome(o Outcome) {
	m.mu.Lock()
	m.outcomes[o]++
	m.mu.Unlock()
}

func (m *matchStats) addUser(meta *taste.Metadata) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.artists.add(meta.Artists)
	m.tracks.add(meta.Tracks)
	m.grades[meta.Grade]++
	if meta.Degenerate {
		m.degenerate++
	}
	for _, n := range meta.Artists.MissingNames {
		m.missing[n]++
	}
	for _, n := range meta.Artists.FuzzyNames {
		m.fuzzy[n]++
	}
	for _, n := range meta.Artists.ZeroShotNames {
		m.zeroShot[n]++
	}
}

func (m *matchStats) report(users int, dryRun bool, started, finished time.Time) *Report {
	m.mu.Lock()
	defer m.mu.Unlock()

	summary := make(map[Outcome]int, len(Outcomes))
	for _, o := range Outcomes {
		summary[o] = m.outcomes[o]
	}
	grades := make(map[taste.Grade]int, len(taste.Grades))
	for _, g := range taste.Grades {
		grades[g] = m.grades[g]
	}
	return &Report{
		GeneratedAt:   finished.UTC(),
		Duration:      finished.Sub(started).Round(time.Millisecond).String(),
		DryRun:        dryRun,
		Users:         users,
		Summary:       summary,
		ArtistMatches: m.artists,
		TrackMatches:  m.tracks,
		Degenerate:    m.degenerate,
		QualityGrades: grades,
		Problematic: Problematic{
			Missing:  topNames(m.missing, problematicLimit),
			Fuzzy:    topNames(m.fuzzy, problematicLimit),
			ZeroShot: topNames(m.zeroShot, problematicLimit),
		},
	}
}

// topNames ranks names by count, then alphabetically.
func topNames(counts map[string]int, limit int) []NameCount {
	out := make([]NameCount, 0, len(counts))
	for name, n := range counts {
		out = append(out, NameCount{Name: name, Users: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Users != out[j].Users {
			return out[i].Users > out[j].Users
		}
		return out[i].Name < out[j].Name
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
