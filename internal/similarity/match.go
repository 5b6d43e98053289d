// VibeMatch - Listener Matching by Music Taste
// Copyright 2026 The VibeMatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Fraga9/VibeMatch

package similarity

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/rs/zerolog"
)

// maxShared bounds the shared artist list of a match.
const maxShared = 10

// Match is one recommended listener.
type Match struct {
	Username      string   `json:"username"`
	Compatibility int      `json:"compatibility"`
	Similarity    float64  `json:"similarity"`
	SharedArtists []string `json:"shared_artists"`
	TopArtists    []string `json:"top_artists"`
	TopGenres     []string `json:"top_genres"`
	Country       string   `json:"country,omitempty"`
	ProfileImage  string   `json:"profile_image,omitempty"`
	IsReal        bool     `json:"is_real"`
}

// Compatibility maps cosine similarity to a 0-100 score.
func Compatibility(sim float64) int {
	if math.IsNaN(sim) {
		return 0
	}
	return min(max(int(sim*100), 0), 100)
}

// SharedArtists returns the artists of a also in b, in a's order, compared
// case-insensitively, at most ten.
func SharedArtists(a, b []string) []string {
	in := make(map[string]struct{}, len(b))
	for _, name := range b {
		in[strings.ToLower(strings.TrimSpace(name))] = struct{}{}
	}
	var out []string
	for _, name := range a {
		key := strings.ToLower(strings.TrimSpace(name))
		if _, ok := in[key]; ok {
			out = append(out, name)
			delete(in, key)
			if len(out) == maxShared {
				break
			}
		}
	}
	return out
}

// Matcher finds the closest listeners of a stored user.
type Matcher struct {
	store  Store
	limit  int
	logger zerolog.Logger
}

// NewMatcher creates a matcher. limit is used when TopMatches gets 0.
//
//nolint:gocritic // zerolog.Logger is passed by value
func NewMatcher(store Store, limit int, logger zerolog.Logger) *Matcher {
	if limit <= 0 {
		limit = 10
	}
	return &Matcher{store: store, limit: limit, logger: logger.With().Str("component", "matcher").Logger()}
}

// TopMatches returns the nearest listeners of username, excluding the user
// and degenerate records. A degenerate user gets ErrDegenerate.
func (m *Matcher) TopMatches(ctx context.Context, username string, limit int) ([]Match, error) {
	if limit <= 0 {
		limit = m.limit
	}
	rec, err := m.store.Get(ctx, username)
	if err != nil {
		return nil, err
	}
	if rec.Degenerate {
		return nil, fmt.Errorf("match %s: %w", username, ErrDegenerate)
	}

	neighbors, err := m.store.FindSimilar(ctx, rec.Vector, limit, rec.ID)
	if err != nil {
		return nil, fmt.Errorf("match %s: %w", username, err)
	}

	out := make([]Match, 0, len(neighbors))
	for _, n := range neighbors {
		out = append(out, Match{
			Username:      n.Username,
			Compatibility: Compatibility(n.Similarity),
			Similarity:    n.Similarity,
			SharedArtists: SharedArtists(rec.TopArtists, n.TopArtists),
			TopArtists:    n.TopArtists,
			TopGenres:     n.TopGenres,
			Country:       n.Country,
			ProfileImage:  n.ProfileImage,
			IsReal:        n.IsReal,
		})
	}
	m.logger.Debug().Str("username", username).Int("matches", len(out)).Msg("matches computed")
	return out, nil
}
