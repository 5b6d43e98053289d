// VibeMatch - Listener Matching by Music Taste
// Copyright 2026 The VibeMatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Fraga9/VibeMatch

package models

import (
	"errors"
	"strings"
	"testing"

	"github.com/Fraga9/VibeMatch/internal/validation"
)

func TestDecodeProfile(t *testing.T) {
	doc := `{
		"username": " alice ",
		"periods": {
			"overall": {"artists": [{"name": "Radiohead", "playcount": 120}], "tracks": [{"name": "Creep", "artist": "Radiohead", "playcount": 30}]},
			"3month": {"artists": [{"name": "Daft Punk", "playcount": 12}]}
		},
		"recent_tracks": [
			{"name": "Around the World", "artist": "Daft Punk", "timestamp": 1700000000},
			{"name": "Windowlicker", "artist": "Aphex Twin", "now_playing": true}
		],
		"artist_tags": {"Radiohead": ["alternative", "rock"]}
	}`

	p, err := DecodeProfile(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("DecodeProfile failed: %v", err)
	}
	if p.Username != "alice" {
		t.Errorf("expected trimmed username, got %q", p.Username)
	}
	if got := p.Period(PeriodOverall).Tracks[0].Artist; got != "Radiohead" {
		t.Errorf("unexpected overall track artist %q", got)
	}
	if len(p.Period(PeriodSixMonth).Artists) != 0 {
		t.Error("expected missing period to be empty")
	}
	if ts, ok := p.RecentTracks[0].PlayedAt(); !ok || ts.Unix() != 1700000000 {
		t.Errorf("unexpected timestamp %v %v", ts, ok)
	}
	if _, ok := p.RecentTracks[1].PlayedAt(); ok {
		t.Error("expected unknown timestamp for now-playing entry")
	}
}

func TestDecodeProfileLegacyTopLists(t *testing.T) {
	doc := `{"username": "bob", "top_artists": [{"name": "Nirvana", "playcount": 5}], "top_tracks": [{"name": "Lithium", "artist": "Nirvana", "playcount": 2}]}`

	p, err := DecodeProfile(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("DecodeProfile failed: %v", err)
	}
	overall := p.Period(PeriodOverall)
	if len(overall.Artists) != 1 || len(overall.Tracks) != 1 {
		t.Errorf("expected top lists folded into overall, got %+v", overall)
	}
	if p.TopArtists != nil {
		t.Error("expected top-level lists cleared")
	}
}

func TestDecodeProfileToleratesNoisyInput(t *testing.T) {
	doc := `{
		"username": "carol",
		"periods": {
			"overall": {"artists": [{"name": "Radiohead", "playcount": 50}, {"name": "", "playcount": 3}]},
			"7day": {"artists": [{"name": "Burial", "playcount": 9}]}
		},
		"recent_tracks": [{"name": "", "artist": "Radiohead", "timestamp": 1700000000}]
	}`

	p, err := DecodeProfile(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("DecodeProfile failed: %v", err)
	}
	if _, ok := p.Periods["7day"]; ok {
		t.Error("expected untracked period to be dropped")
	}
	if got := len(p.Period(PeriodOverall).Artists); got != 2 {
		t.Errorf("expected blank artist to be kept for the engine to skip, got %d entries", got)
	}
	if len(p.RecentTracks) != 1 {
		t.Errorf("expected recent track with blank name to be kept, got %d", len(p.RecentTracks))
	}
}

func TestPeriodTracked(t *testing.T) {
	tests := []struct {
		period Period
		want   bool
	}{
		{PeriodOverall, true},
		{PeriodSixMonth, true},
		{PeriodThreeMonth, true},
		{"7day", false},
		{"12month", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := tt.period.Tracked(); got != tt.want {
			t.Errorf("Period(%q).Tracked() = %v, want %v", tt.period, got, tt.want)
		}
	}
}

func TestDecodeProfileInvalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"missing username", `{"periods": {}}`},
		{"negative playcount", `{"username": "x", "periods": {"overall": {"artists": [{"name": "a", "playcount": -1}]}}}`},
		{"malformed json", `{"username": `},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeProfile(strings.NewReader(tt.doc)); err == nil {
				t.Error("expected error")
			}
		})
	}

	_, err := DecodeProfile(strings.NewReader(`{"username": ""}`))
	var ve *validation.RequestValidationError
	if !errors.As(err, &ve) {
		t.Errorf("expected validation error, got %T", err)
	}
}
