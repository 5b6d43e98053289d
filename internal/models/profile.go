// VibeMatch - Listener Matching by Music Taste
// Copyright 2026 The VibeMatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Fraga9/VibeMatch

package models

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/Fraga9/VibeMatch/internal/validation"
)

// Period labels a listening-history window.
type Period string

const (
	PeriodOverall    Period = "overall"
	PeriodSixMonth   Period = "6month"
	PeriodThreeMonth Period = "3month"
)

// Periods lists the tracked periods in weight order.
var Periods = []Period{PeriodOverall, PeriodSixMonth, PeriodThreeMonth}

// Tracked reports whether p is one of Periods.
func (p Period) Tracked() bool {
	for _, tracked := range Periods {
		if p == tracked {
			return true
		}
	}
	return false
}

// ArtistPlay is one entry of a top-artists chart. A blank name is allowed;
// the engine skips it.
type ArtistPlay struct {
	Name      string `json:"name"`
	Playcount int    `json:"playcount" validate:"gte=0"`
}

// TrackPlay is one entry of a top-tracks chart.
type TrackPlay struct {
	Name      string `json:"name"`
	Artist    string `json:"artist"`
	Playcount int    `json:"playcount" validate:"gte=0"`
}

// RecentTrack is one scrobble from the recent-tracks feed.
type RecentTrack struct {
	Name       string `json:"name"`
	Artist     string `json:"artist"`
	Timestamp  *int64 `json:"timestamp,omitempty"` // unix seconds; nil when unknown
	NowPlaying bool   `json:"now_playing"`
}

// PlayedAt returns the scrobble time, if known.
func (r RecentTrack) PlayedAt() (time.Time, bool) {
	if r.Timestamp == nil {
		return time.Time{}, false
	}
	return time.Unix(*r.Timestamp, 0), true
}

// PeriodHistory is the chart for one period.
type PeriodHistory struct {
	Artists []ArtistPlay `json:"artists" validate:"dive"`
	Tracks  []TrackPlay  `json:"tracks" validate:"dive"`
}

// UserProfile is the listening history fed to the embedding engine.
type UserProfile struct {
	Username     string                   `json:"username" validate:"required,max=128"`
	Periods      map[Period]PeriodHistory `json:"periods" validate:"omitempty,dive,keys,period,endkeys"`
	RecentTracks []RecentTrack            `json:"recent_tracks" validate:"dive"`
	ArtistTags   map[string][]string      `json:"artist_tags,omitempty"`
	Country      string                   `json:"country,omitempty"`
	ProfileImage string                   `json:"profile_image,omitempty"`

	// Single-period exports carry their overall chart at the top level.
	TopArtists []ArtistPlay `json:"top_artists,omitempty" validate:"dive"`
	TopTracks  []TrackPlay  `json:"top_tracks,omitempty" validate:"dive"`
}

// Period returns the history of p; a missing period is empty.
func (p *UserProfile) Period(period Period) PeriodHistory {
	return p.Periods[period]
}

// Normalize trims the username, drops periods that carry no weight (such
// as "7day" or "12month" exports) and folds top-level TopArtists/TopTracks
// into the overall period when that period is absent.
func (p *UserProfile) Normalize() {
	p.Username = strings.TrimSpace(p.Username)
	for period := range p.Periods {
		if !period.Tracked() {
			delete(p.Periods, period)
		}
	}
	if len(p.TopArtists) == 0 && len(p.TopTracks) == 0 {
		return
	}
	if p.Periods == nil {
		p.Periods = make(map[Period]PeriodHistory, len(Periods))
	}
	if _, ok := p.Periods[PeriodOverall]; !ok {
		p.Periods[PeriodOverall] = PeriodHistory{Artists: p.TopArtists, Tracks: p.TopTracks}
	}
	p.TopArtists, p.TopTracks = nil, nil
}

// DecodeProfile reads, normalizes and validates one profile document.
func DecodeProfile(r io.Reader) (*UserProfile, error) {
	var p UserProfile
	if err := json.NewDecoder(r).Decode(&p); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	p.Normalize()
	if err := validation.ValidateStruct(&p); err != nil {
		return nil, fmt.Errorf("invalid profile %q: %w", p.Username, err)
	}
	return &p, nil
}
