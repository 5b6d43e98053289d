// VibeMatch - Listener Matching by Music Taste
// Copyright 2026 The VibeMatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Fraga9/VibeMatch

package catalog

import (
	"fmt"
	"math/rand/v2"

	"github.com/rs/zerolog"
)

// SyntheticArtists is the fixed seed set used when no trained catalog is
// available.
var SyntheticArtists = []string{
	"Radiohead",
	"The Beatles",
	"Pink Floyd",
	"Led Zeppelin",
	"Nirvana",
	"Daft Punk",
	"Aphex Twin",
	"Boards of Canada",
}

// Synthetic builds the development catalog: one seeded random unit vector
// per artist in SyntheticArtists and no tracks. The same seed always yields
// the same vectors.
func Synthetic(dim int, seed uint64) *Catalog {
	if dim <= 0 {
		dim = DefaultDimension
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	entries := make([]Entry, 0, len(SyntheticArtists))
	for _, name := range SyntheticArtists {
		vec := make([]float32, dim)
		for i := range vec {
			vec[i] = float32(rng.NormFloat64())
		}
		L2Normalize(vec)
		entries = append(entries, Entry{Name: name, Vector: vec})
	}

	c, err := New(dim, entries, nil, WithMode(ModeSynthetic), WithSource("synthetic"))
	if err != nil {
		// Entries are generated with the requested dimension.
		panic(fmt.Sprintf("catalog: synthetic build: %v", err))
	}
	return c
}

// LoadOptions controls LoadOrSynthetic.
type LoadOptions struct {
	// Path of the catalog; see Load for accepted forms.
	Path string

	// Dimension of the synthetic fallback. Default: 128
	Dimension int

	// Seed of the synthetic fallback vectors.
	Seed uint64

	// RequireProduction turns a failed load into an error instead of
	// falling back to the synthetic catalog.
	RequireProduction bool
}

// LoadOrSynthetic loads the configured catalog. When that fails it logs the
// failure and returns the synthetic catalog, unless RequireProduction is set.
//
//nolint:gocritic // zerolog.Logger is passed by value
func LoadOrSynthetic(opts LoadOptions, logger zerolog.Logger) (*Catalog, error) {
	c, err := Load(opts.Path)
	if err == nil {
		logger.Info().
			Str("source", c.Source()).
			Int("artists", c.Len(Artist)).
			Int("tracks", c.Len(Track)).
			Int("dim", c.Dim()).
			Msg("catalog loaded")
		return c, nil
	}
	if opts.RequireProduction {
		return nil, err
	}

	c = Synthetic(opts.Dimension, opts.Seed)
	logger.Warn().
		Err(err).
		Str("path", opts.Path).
		Int("artists", c.Len(Artist)).
		Int("dim", c.Dim()).
		Msg("catalog unavailable, using synthetic vectors; similarity results are not meaningful")
	return c, nil
}
