// VibeMatch - Listener Matching by Music Taste
// Copyright 2026 The VibeMatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Fraga9/VibeMatch

package taste

import (
	"math"
	"time"

	"github.com/Fraga9/VibeMatch/internal/models"
	"github.com/Fraga9/VibeMatch/internal/taste/catalog"
)

// periodSet is a bit set over the tracked periods.
type periodSet uint8

const (
	inOverall periodSet = 1 << iota
	inSixMonth
	inThreeMonth
)

func periodBit(p models.Period) periodSet {
	switch p {
	case models.PeriodOverall:
		return inOverall
	case models.PeriodSixMonth:
		return inSixMonth
	case models.PeriodThreeMonth:
		return inThreeMonth
	}
	return 0
}

func (s periodSet) count() int {
	n := 0
	for b := inOverall; b <= inThreeMonth; b <<= 1 {
		if s&b != 0 {
			n++
		}
	}
	return n
}

// consistency returns the multiplier for an item seen in the given periods.
func (w *WeightConfig) consistency(s periodSet) float64 {
	switch n := s.count(); {
	case n >= 3:
		return w.ConsistencyThreePlus
	case n == 2 && s&inOverall != 0:
		return w.ConsistencyPairOverall
	case n == 2:
		return w.ConsistencyPair
	case n == 1 && s&inOverall != 0:
		return w.ConsistencyOverallOnly
	case n == 1:
		return w.ConsistencySingleRecent
	}
	return 1
}

// budget returns the share of the total weight given to period p.
func (w *WeightConfig) budget(p models.Period) float64 {
	switch p {
	case models.PeriodOverall:
		return w.Overall
	case models.PeriodSixMonth:
		return w.SixMonth
	case models.PeriodThreeMonth:
		return w.ThreeMonth
	}
	return 0
}

// Decay returns 0.5^(age/half-life). Future times count as now.
func (w *WeightConfig) Decay(age time.Duration) float64 {
	if age <= 0 {
		return 1
	}
	return math.Pow(0.5, float64(age)/float64(w.RecentHalfLife))
}

// playRatio is log1p(pc)/log1p(max), 1 when the maximum is zero.
func playRatio(pc, maxPC int) float64 {
	den := math.Log1p(float64(max(maxPC, 0)))
	if den == 0 {
		return 1
	}
	return math.Log1p(float64(max(pc, 0))) / den
}

// item is one unique artist or track of a profile with its summed weight.
type item struct {
	entity catalog.EntityType
	key    string // normalized name, or compound key for tracks
	name   string // first spelling seen
	artist string // tracks only
	weight float64
}

// plan collects the unique items of a profile with their weights.
type plan struct {
	items []*item
	byKey map[string]*item
}

func newPlan() *plan {
	return &plan{byKey: make(map[string]*item)}
}

func (p *plan) add(t catalog.EntityType, key, name, artist string, weight float64) {
	mapKey := t.String() + ":" + key
	it, ok := p.byKey[mapKey]
	if !ok {
		it = &item{entity: t, key: key, name: name, artist: artist}
		p.items = append(p.items, it)
		p.byKey[mapKey] = it
	}
	it.weight += weight
}

// recentPlay is a deduplicated (track, artist) pair of the recent feed.
type recentPlay struct {
	name, artist string
	count        int
	last         time.Time
	hasTime      bool
	nowPlaying   bool
}

// buildPlan applies the weighting model to a profile.
func buildPlan(p *models.UserProfile, w *WeightConfig, maxItems int, now time.Time) *plan {
	out := newPlan()

	artistSeen := make(map[string]periodSet)
	trackSeen := make(map[string]periodSet)
	for _, period := range models.Periods {
		h := p.Period(period)
		for _, a := range capList(h.Artists, maxItems) {
			if n := catalog.Normalize(a.Name); n != "" {
				artistSeen[n] |= periodBit(period)
			}
		}
		for _, t := range capList(h.Tracks, maxItems) {
			if catalog.Normalize(t.Name) != "" {
				trackSeen[catalog.TrackKey(t.Name, t.Artist)] |= periodBit(period)
			}
		}
	}

	for _, period := range models.Periods {
		h := p.Period(period)
		share := w.budget(period)

		artists := capList(h.Artists, maxItems)
		maxPC := 0
		for _, a := range artists {
			maxPC = max(maxPC, a.Playcount)
		}
		for _, a := range artists {
			n := catalog.Normalize(a.Name)
			if n == "" {
				continue
			}
			weight := share * w.ArtistShare * playRatio(a.Playcount, maxPC) * w.consistency(artistSeen[n])
			if weight > 0 {
				out.add(catalog.Artist, n, a.Name, "", weight)
			}
		}

		tracks := capList(h.Tracks, maxItems)
		maxPC = 0
		for _, t := range tracks {
			maxPC = max(maxPC, t.Playcount)
		}
		for _, t := range tracks {
			if catalog.Normalize(t.Name) == "" {
				continue
			}
			key := catalog.TrackKey(t.Name, t.Artist)
			weight := share * (1 - w.ArtistShare) * playRatio(t.Playcount, maxPC) * w.consistency(trackSeen[key])
			if weight > 0 {
				out.add(catalog.Track, key, t.Name, t.Artist, weight)
			}
		}
	}

	plays, order := dedupeRecent(p.RecentTracks)
	maxCount := 0
	for _, rp := range plays {
		maxCount = max(maxCount, rp.count)
	}
	for _, key := range order {
		rp := plays[key]
		var decay float64
		switch {
		case rp.nowPlaying:
			decay = 1
		case rp.hasTime:
			decay = w.Decay(now.Sub(rp.last))
		default:
			continue
		}
		mult := w.UnconfirmedRecent
		if seen := trackSeen[key]; seen != 0 {
			mult = w.consistency(seen)
		}
		weight := w.Recent * decay * playRatio(rp.count, maxCount) * mult
		if weight > 0 {
			out.add(catalog.Track, key, rp.name, rp.artist, weight)
		}
	}
	return out
}

func dedupeRecent(tracks []models.RecentTrack) (map[string]*recentPlay, []string) {
	plays := make(map[string]*recentPlay, len(tracks))
	var order []string
	for _, rt := range tracks {
		if catalog.Normalize(rt.Name) == "" {
			continue
		}
		key := catalog.TrackKey(rt.Name, rt.Artist)
		rp, ok := plays[key]
		if !ok {
			rp = &recentPlay{name: rt.Name, artist: rt.Artist}
			plays[key] = rp
			order = append(order, key)
		}
		rp.count++
		if rt.NowPlaying {
			rp.nowPlaying = true
		}
		if at, ok := rt.PlayedAt(); ok && (!rp.hasTime || at.After(rp.last)) {
			rp.last, rp.hasTime = at, true
		}
	}
	return plays, order
}

func capList[T any](list []T, limit int) []T {
	if limit > 0 && len(list) > limit {
		return list[:limit]
	}
	return list
}
