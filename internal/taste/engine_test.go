// VibeMatch - Listener Matching by Music Taste
// Copyright 2026 The VibeMatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Fraga9/VibeMatch

package taste

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/Fraga9/VibeMatch/internal/models"
	"github.com/Fraga9/VibeMatch/internal/taste/catalog"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	artists := []catalog.Entry{
		{Name: "A", Vector: []float32{1, 0, 0, 0}},
		{Name: "B", Vector: []float32{0, 1, 0, 0}},
		{Name: "Radiohead", Vector: []float32{0, 0, 1, 0}},
		{Name: "Daft Punk", Vector: []float32{0, 0, 0, 1}},
	}
	tracks := []catalog.Entry{
		{Name: "Creep||Radiohead", Vector: []float32{0, 0, 1, 0}},
		{Name: "One More Time||Daft Punk", Vector: []float32{0, 0, 0, 1}},
	}
	c, err := catalog.New(4, artists, tracks)
	if err != nil {
		t.Fatalf("catalog.New failed: %v", err)
	}
	e, err := NewWithCatalog(c, nil, zerolog.Nop(), WithClock(func() time.Time { return testNow }))
	if err != nil {
		t.Fatalf("NewWithCatalog failed: %v", err)
	}
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func norm(vec []float32) float64 {
	var s float64
	for _, v := range vec {
		s += float64(v) * float64(v)
	}
	return math.Sqrt(s)
}

func overallOnly(artists ...models.ArtistPlay) *models.UserProfile {
	return &models.UserProfile{
		Username: "tester",
		Periods: map[models.Period]models.PeriodHistory{
			models.PeriodOverall: {Artists: artists},
		},
	}
}

func unix(t time.Time) *int64 {
	ts := t.Unix()
	return &ts
}

func TestAggregateUnitNorm(t *testing.T) {
	e := newTestEngine(t)
	p := &models.UserProfile{
		Username: "tester",
		Periods: map[models.Period]models.PeriodHistory{
			models.PeriodOverall: {
				Artists: []models.ArtistPlay{{Name: "Radiohead", Playcount: 300}, {Name: "Daft Punk", Playcount: 50}},
				Tracks:  []models.TrackPlay{{Name: "Creep", Artist: "Radiohead", Playcount: 40}},
			},
			models.PeriodSixMonth: {
				Artists: []models.ArtistPlay{{Name: "Radiohead", Playcount: 30}},
			},
		},
		RecentTracks: []models.RecentTrack{
			{Name: "One More Time", Artist: "Daft Punk", Timestamp: unix(testNow.Add(-48 * time.Hour))},
		},
	}

	emb, meta, err := e.Aggregate(context.Background(), p)
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	if math.Abs(norm(emb.Vector)-1) > 1e-5 {
		t.Errorf("expected unit norm, got %f", norm(emb.Vector))
	}
	if emb.Degenerate || meta.Degenerate || meta.Err != nil {
		t.Errorf("expected a real embedding, got degenerate=%v err=%v", emb.Degenerate, meta.Err)
	}
	if meta.Artists.Exact != 2 || meta.Tracks.Exact != 2 {
		t.Errorf("expected 2 exact artists and 2 exact tracks, got %+v / %+v", meta.Artists, meta.Tracks)
	}
	if meta.Contributing != 4 {
		t.Errorf("expected 4 contributing items, got %d", meta.Contributing)
	}
	if meta.Grade != GradeA {
		t.Errorf("expected grade A, got %s", meta.Grade)
	}
}

func TestAggregateDegenerate(t *testing.T) {
	e := newTestEngine(t)
	p := overallOnly(models.ArtistPlay{Name: "zzz_nonexistent_artist_zzz", Playcount: 5})

	emb, meta, err := e.Aggregate(context.Background(), p)
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	if !emb.Degenerate || !meta.Degenerate {
		t.Error("expected degenerate flag")
	}
	if !errors.Is(meta.Err, ErrEmptyAggregate) {
		t.Errorf("expected ErrEmptyAggregate in metadata, got %v", meta.Err)
	}
	if math.Abs(norm(emb.Vector)-1) > 1e-5 {
		t.Errorf("degenerate vector should still be unit length, got %f", norm(emb.Vector))
	}
	if meta.Artists.Missing != 1 || len(meta.Artists.MissingNames) != 1 {
		t.Errorf("expected one missing artist, got %+v", meta.Artists)
	}
	if meta.Grade != GradeF {
		t.Errorf("expected grade F, got %s", meta.Grade)
	}

	empty, meta, err := e.Aggregate(context.Background(), &models.UserProfile{Username: "nobody"})
	if err != nil {
		t.Fatalf("Aggregate of empty profile failed: %v", err)
	}
	if !empty.Degenerate || meta.Contributing != 0 {
		t.Errorf("empty profile should be degenerate, got %+v", meta)
	}
}

func TestAggregateDeterministic(t *testing.T) {
	e := newTestEngine(t)
	p := overallOnly(
		models.ArtistPlay{Name: "Radiohead", Playcount: 120},
		models.ArtistPlay{Name: "Daft Punk", Playcount: 80},
		models.ArtistPlay{Name: "Radio", Playcount: 20},
	)

	first, _, err := e.Aggregate(context.Background(), p)
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	second, _, err := e.Aggregate(context.Background(), p)
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	for i := range first.Vector {
		if math.Abs(float64(first.Vector[i]-second.Vector[i])) > 1e-5 {
			t.Fatalf("component %d differs: %f vs %f", i, first.Vector[i], second.Vector[i])
		}
	}
}

func TestCloserToHeavierArtist(t *testing.T) {
	e := newTestEngine(t)
	p := overallOnly(models.ArtistPlay{Name: "A", Playcount: 1000}, models.ArtistPlay{Name: "B", Playcount: 10})

	emb, _, err := e.Aggregate(context.Background(), p)
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	// A and B are basis vectors, so the cosine is the component itself.
	if emb.Vector[0] <= emb.Vector[1] {
		t.Errorf("expected embedding closer to A, got cos(A)=%f cos(B)=%f", emb.Vector[0], emb.Vector[1])
	}
}

func TestUnresolvableNameExcluded(t *testing.T) {
	e := newTestEngine(t)

	res := e.Resolver().Resolve("zzz_nonexistent_artist_zzz", catalog.Artist)
	if res.Found() {
		t.Fatalf("expected missing, got %+v", res)
	}

	p := overallOnly(
		models.ArtistPlay{Name: "A", Playcount: 10},
		models.ArtistPlay{Name: "zzz_nonexistent_artist_zzz", Playcount: 1000},
	)
	emb, meta, err := e.Aggregate(context.Background(), p)
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	if meta.Artists.Missing != 1 || meta.Contributing != 1 {
		t.Errorf("expected the missing artist to be skipped, got %+v", meta)
	}
	if !errors.Is(meta.Err, ErrResolutionMiss) || errors.Is(meta.Err, ErrEmptyAggregate) {
		t.Errorf("expected ErrResolutionMiss in metadata, got %v", meta.Err)
	}
	if math.Abs(float64(emb.Vector[0])-1) > 1e-6 {
		t.Errorf("expected embedding equal to A, got %v", emb.Vector)
	}
}

func TestAggregateDecodedNoisyProfile(t *testing.T) {
	e := newTestEngine(t)
	doc := `{
		"username": "dana",
		"periods": {
			"overall": {"artists": [{"name": "Radiohead", "playcount": 80}, {"name": "", "playcount": 40}, {"name": "Daft Punk", "playcount": 20}]},
			"7day": {"artists": [{"name": "B", "playcount": 500}]}
		},
		"recent_tracks": [{"name": "", "artist": "", "now_playing": true}]
	}`
	p, err := models.DecodeProfile(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("DecodeProfile failed: %v", err)
	}

	emb, meta, err := e.Aggregate(context.Background(), p)
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	if emb.Degenerate || meta.Degenerate {
		t.Fatal("expected a real embedding from the valid items")
	}
	if meta.Contributing != 2 || meta.Artists.Exact != 2 {
		t.Errorf("expected only Radiohead and Daft Punk to contribute, got %+v", meta)
	}
	if emb.Vector[1] != 0 {
		t.Errorf("artist from the untracked period leaked into the embedding: %v", emb.Vector)
	}
	if math.Abs(norm(emb.Vector)-1) > 1e-5 {
		t.Errorf("expected unit norm, got %f", norm(emb.Vector))
	}
}

func TestEmbed(t *testing.T) {
	e := newTestEngine(t)
	p := overallOnly(
		models.ArtistPlay{Name: "Radiohead", Playcount: 500},
		models.ArtistPlay{Name: "Daft Punk", Playcount: 100},
		models.ArtistPlay{Name: "zzz_nonexistent_artist_zzz", Playcount: 900},
	)
	p.ArtistTags = map[string][]string{
		"Radiohead":                  {"alternative", "rock", "seen live"},
		"Daft Punk":                  {"electronic", "french", "house"},
		"zzz_nonexistent_artist_zzz": {"electronic"},
	}

	res, err := e.Embed(context.Background(), p)
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if len(res.TopArtists) != 2 || res.TopArtists[0] != "Radiohead" {
		t.Errorf("expected [Radiohead Daft Punk], got %v", res.TopArtists)
	}
	if len(res.TopGenres) == 0 || res.TopGenres[0] != "electronic" {
		t.Errorf("expected electronic first, got %v", res.TopGenres)
	}

	st := e.Stats()
	if st.Embeds != 1 || st.Tiers["exact"] != 2 || st.Tiers["missing"] != 1 {
		t.Errorf("unexpected stats %+v", st)
	}
	if st.CatalogMode != "production" || st.Dimension != 4 {
		t.Errorf("unexpected catalog stats %+v", st)
	}
}

func TestEmbedCanceled(t *testing.T) {
	e := newTestEngine(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Embed(ctx, overallOnly(models.ArtistPlay{Name: "A", Playcount: 1}))
	if !errors.Is(err, ErrTimeout) || !errors.Is(err, context.Canceled) {
		t.Errorf("expected ErrTimeout wrapping context.Canceled, got %v", err)
	}
	if e.Stats().Timeouts != 1 {
		t.Errorf("expected 1 timeout, got %d", e.Stats().Timeouts)
	}
}

func TestEngineClose(t *testing.T) {
	e := newTestEngine(t)
	if _, err := e.Embed(context.Background(), overallOnly(models.ArtistPlay{Name: "Radio", Playcount: 3})); err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if err := e.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if e.Cache().Len() != 0 {
		t.Errorf("expected cache cleared on close, got %d", e.Cache().Len())
	}
	if _, err := e.Embed(context.Background(), overallOnly()); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
	if err := e.Close(); err != nil {
		t.Errorf("second Close should be a no-op, got %v", err)
	}
}

func TestNewCatalogFallback(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Catalog.Path = filepath.Join(t.TempDir(), "missing.msgpack")

	e, err := New(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer e.Close()
	if !e.Synthetic() {
		t.Error("expected synthetic catalog")
	}
	if e.Catalog().Dim() != catalog.DefaultDimension {
		t.Errorf("expected dim %d, got %d", catalog.DefaultDimension, e.Catalog().Dim())
	}

	cfg.Catalog.RequireProduction = true
	if _, err := New(cfg, zerolog.Nop()); !errors.Is(err, ErrCatalogUnavailable) {
		t.Errorf("expected ErrCatalogUnavailable, got %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"zero capacity", func(c *Config) { c.CacheCapacity = 0 }},
		{"negative timeout", func(c *Config) { c.Timeout = -time.Second }},
		{"budgets do not sum", func(c *Config) { c.Weights.Overall = 0.9 }},
		{"artist share", func(c *Config) { c.Weights.ArtistShare = 1.5 }},
		{"multiplier", func(c *Config) { c.Weights.ConsistencyPair = 0 }},
		{"half-life", func(c *Config) { c.Weights.RecentHalfLife = 0 }},
		{"fuzzy score", func(c *Config) { c.Resolver.FuzzyMinScore = 2 }},
		{"token min", func(c *Config) { c.Index.TokenMin = -0.1 }},
		{"zero-shot top k", func(c *Config) { c.Resolver.ZeroShotTopK = -1 }},
	}

	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
