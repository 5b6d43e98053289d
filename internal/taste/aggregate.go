// VibeMatch - Listener Matching by Music Taste
// Copyright 2026 The VibeMatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Fraga9/VibeMatch

package taste

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/Fraga9/VibeMatch/internal/models"
	"github.com/Fraga9/VibeMatch/internal/taste/catalog"
	"github.com/Fraga9/VibeMatch/internal/taste/resolve"
)

// UserEmbedding is the aggregated taste vector of one user. Vector has unit
// L2 norm. When Degenerate is set the vector is random and carries no taste
// signal; it must not be used as a match candidate.
type UserEmbedding struct {
	Vector     []float32 `json:"vector"`
	Degenerate bool      `json:"degenerate"`
}

// CategoryStats counts resolution tiers for one entity type and lists the
// names that did not resolve exactly.
type CategoryStats struct {
	Exact    int `json:"exact"`
	Fuzzy    int `json:"fuzzy"`
	ZeroShot int `json:"zero_shot"`
	Missing  int `json:"missing"`

	FuzzyNames    []string `json:"fuzzy_names,omitempty"`
	ZeroShotNames []string `json:"zero_shot_names,omitempty"`
	MissingNames  []string `json:"missing_names,omitempty"`
}

// Total is the number of unique items of the category.
func (c CategoryStats) Total() int {
	return c.Exact + c.Fuzzy + c.ZeroShot + c.Missing
}

func (c *CategoryStats) record(name string, tier resolve.Tier) {
	switch tier {
	case resolve.TierExact:
		c.Exact++
	case resolve.TierFuzzy:
		c.Fuzzy++
		c.FuzzyNames = append(c.FuzzyNames, name)
	case resolve.TierZeroShot:
		c.ZeroShot++
		c.ZeroShotNames = append(c.ZeroShotNames, name)
	default:
		c.Missing++
		c.MissingNames = append(c.MissingNames, name)
	}
}

// Metadata describes how a profile resolved. Each unique item counts once.
type Metadata struct {
	Artists CategoryStats `json:"artists"`
	Tracks  CategoryStats `json:"tracks"`

	// Contributing is the number of items whose vectors entered the sum.
	Contributing int `json:"contributing"`

	Degenerate bool    `json:"degenerate"`
	Confidence float64 `json:"confidence"`
	Grade      Grade   `json:"grade"`

	// Err is ErrEmptyAggregate for degenerate embeddings, wraps
	// ErrResolutionMiss when some items were skipped, and is nil otherwise.
	Err error `json:"-"`
}

// Counts flattens the tier counts into artists_exact ... tracks_missing.
func (m *Metadata) Counts() map[string]int {
	out := make(map[string]int, 8)
	for prefix, c := range map[string]CategoryStats{"artists": m.Artists, "tracks": m.Tracks} {
		out[prefix+"_exact"] = c.Exact
		out[prefix+"_fuzzy"] = c.Fuzzy
		out[prefix+"_zero_shot"] = c.ZeroShot
		out[prefix+"_missing"] = c.Missing
	}
	return out
}

// contribution tracks one artist's planned weight and the part of it that
// entered the sum.
type contribution struct {
	name    string
	planned float64
	weight  float64
}

// aggregation is the full outcome of one Aggregate call.
type aggregation struct {
	embedding *UserEmbedding
	meta      *Metadata
	artists   []contribution // resolved artists, heaviest first
	ranked    []string       // every artist, heaviest first
}

// Aggregate turns a profile into a unit taste vector plus resolution
// metadata. Missing items are skipped and Metadata.Err wraps
// ErrResolutionMiss. When nothing resolves the result is
// a flagged random vector and Metadata.Err is ErrEmptyAggregate; the call
// itself still succeeds. Context cancellation returns ErrTimeout.
func (e *Engine) Aggregate(ctx context.Context, p *models.UserProfile) (*UserEmbedding, *Metadata, error) {
	agg, err := e.aggregate(ctx, p)
	if err != nil {
		return nil, nil, err
	}
	return agg.embedding, agg.meta, nil
}

func (e *Engine) aggregate(ctx context.Context, p *models.UserProfile) (*aggregation, error) {
	if e.closed.Load() {
		return nil, ErrClosed
	}
	pl := buildPlan(p, &e.cfg.Weights, e.cfg.MaxItemsPerList, e.now())

	dim := e.catalog.Dim()
	sum := make([]float64, dim)
	var totalWeight float64
	meta := &Metadata{}
	agg := &aggregation{meta: meta}

	var artists []contribution
	for _, it := range pl.items {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrTimeout, err)
		}

		var res resolve.Result
		if it.entity == catalog.Artist {
			res = e.resolver.Resolve(it.name, catalog.Artist)
			meta.Artists.record(it.name, res.Tier)
			artists = append(artists, contribution{name: it.name, planned: it.weight})
		} else {
			res = e.resolver.ResolveTrack(it.name, it.artist)
			meta.Tracks.record(trackLabel(it), res.Tier)
		}
		e.tiers[res.Tier].Add(1)

		if !res.Found() || len(res.Vector) != dim {
			continue
		}
		if it.entity == catalog.Artist {
			artists[len(artists)-1].weight = it.weight
		}
		for i, x := range res.Vector {
			sum[i] += it.weight * float64(x)
		}
		totalWeight += it.weight
		meta.Contributing++
	}

	agg.ranked = rankArtists(artists)
	agg.artists = rankContributions(artists)

	vec, ok := weightedUnit(sum, totalWeight)
	if !ok {
		vec = e.randomUnit(dim)
		meta.Degenerate = true
		meta.Err = ErrEmptyAggregate
		agg.artists = nil
	} else if missing := meta.Artists.Missing + meta.Tracks.Missing; missing > 0 {
		meta.Err = fmt.Errorf("%w: %d of %d items skipped", ErrResolutionMiss, missing, len(pl.items))
	}
	meta.Confidence = Confidence(meta.Artists)
	meta.Grade = GradeFor(meta.Artists)
	agg.embedding = &UserEmbedding{Vector: vec, Degenerate: meta.Degenerate}
	return agg, nil
}

// weightedUnit divides by the weight total and scales to unit length. It
// reports false when there is nothing to normalize.
func weightedUnit(sum []float64, total float64) ([]float32, bool) {
	if total <= 0 {
		return nil, false
	}
	var sq float64
	for i := range sum {
		sum[i] /= total
		sq += sum[i] * sum[i]
	}
	norm := math.Sqrt(sq)
	if norm == 0 || math.IsNaN(norm) || math.IsInf(norm, 0) {
		return nil, false
	}
	out := make([]float32, len(sum))
	for i, x := range sum {
		out[i] = float32(x / norm)
	}
	return out, true
}

func trackLabel(it *item) string {
	if it.artist == "" {
		return it.name
	}
	return it.name + " - " + it.artist
}

// rankContributions returns the artists that contributed, heaviest first.
func rankContributions(all []contribution) []contribution {
	out := make([]contribution, 0, len(all))
	for _, c := range all {
		if c.weight > 0 {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].weight > out[j].weight })
	return out
}

// rankArtists orders every artist name by planned weight, resolved or not.
func rankArtists(all []contribution) []string {
	sorted := make([]contribution, len(all))
	copy(sorted, all)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].planned > sorted[j].planned })
	out := make([]string, 0, len(sorted))
	for _, c := range sorted {
		out = append(out, c.name)
	}
	return out
}
