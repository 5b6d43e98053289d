// VibeMatch - Listener Matching by Music Taste
// Copyright 2026 The VibeMatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Fraga9/VibeMatch

package catalog

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
)

func testEntries() ([]Entry, []Entry) {
	artists := []Entry{
		{Name: "Radiohead", Vector: []float32{1, 0, 0}},
		{Name: " The Beatles ", Vector: []float32{0, 1, 0}},
		{Name: "radiohead", Vector: []float32{0, 0, 1}},
	}
	tracks := []Entry{
		{Name: "Creep||Radiohead", Vector: []float32{0.6, 0.8, 0}},
		{Name: "Yesterday", Vector: []float32{0, 0.6, 0.8}},
	}
	return artists, tracks
}

func TestNew(t *testing.T) {
	artists, tracks := testEntries()
	c, err := New(0, artists, tracks)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if c.Dim() != 3 {
		t.Errorf("expected dim 3, got %d", c.Dim())
	}
	if c.Len(Artist) != 2 {
		t.Errorf("expected duplicate artist to be dropped, got %d artists", c.Len(Artist))
	}
	vec, ok := c.Lookup(Artist, "radiohead")
	if !ok || vec[0] != 1 {
		t.Errorf("expected first radiohead entry to win, got %v ok=%v", vec, ok)
	}
	if _, ok := c.Lookup(Artist, "the beatles"); !ok {
		t.Error("expected normalized key 'the beatles'")
	}
	if _, ok := c.Lookup(Track, "creep||radiohead"); !ok {
		t.Error("expected compound track key")
	}
	if keys := c.Keys(Artist); keys[0] != "radiohead" || keys[1] != "the beatles" {
		t.Errorf("expected catalog order preserved, got %v", keys)
	}
	if c.Mode() != ModeProduction {
		t.Errorf("expected production mode, got %s", c.Mode())
	}
}

func TestNewDimensionMismatch(t *testing.T) {
	_, err := New(3, []Entry{{Name: "a", Vector: []float32{1, 2}}}, nil)
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestAliases(t *testing.T) {
	artists, _ := testEntries()
	c, err := New(0, artists, nil, WithAliases(Artist, map[string]string{
		"Radio Head": "Radiohead",
		"Beatles":    "The Beatles",
		"Ghost":      "Nobody",
	}))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	key, vec, ok := c.Find(Artist, "radio head")
	if !ok || key != "radiohead" || vec[0] != 1 {
		t.Errorf("expected alias to resolve to radiohead, got key=%q ok=%v", key, ok)
	}
	if _, ok := c.Lookup(Artist, "ghost"); ok {
		t.Error("alias to missing target should be dropped")
	}
	if len(c.Aliases(Artist)) != 2 {
		t.Errorf("expected 2 aliases, got %v", c.Aliases(Artist))
	}
}

func TestNormalizeAndTrackKey(t *testing.T) {
	if got := Normalize("  Boards of CANADA "); got != "boards of canada" {
		t.Errorf("Normalize = %q", got)
	}
	if got := TrackKey(" Creep", "RADIOHEAD "); got != "creep||radiohead" {
		t.Errorf("TrackKey = %q", got)
	}
}

func TestParseEntityType(t *testing.T) {
	if et, err := ParseEntityType("Track"); err != nil || et != Track {
		t.Errorf("expected track, got %v %v", et, err)
	}
	if _, err := ParseEntityType("album"); err == nil {
		t.Error("expected error for album")
	}
}

func TestL2Normalize(t *testing.T) {
	vec := []float32{3, 4}
	norm := L2Normalize(vec)
	if norm != 5 {
		t.Errorf("expected norm 5, got %f", norm)
	}
	if math.Abs(float64(vec[0])-0.6) > 1e-6 || math.Abs(float64(vec[1])-0.8) > 1e-6 {
		t.Errorf("unexpected normalized vector %v", vec)
	}
	zero := []float32{0, 0}
	if L2Normalize(zero) != 0 || zero[0] != 0 {
		t.Error("zero vector must stay zero")
	}
}

func TestMsgpackRoundTrip(t *testing.T) {
	artists, tracks := testEntries()
	c, err := New(0, artists, tracks, WithAliases(Artist, map[string]string{"radio head": "radiohead"}))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "catalog.msgpack")
	if err := WriteMsgpack(c, path); err != nil {
		t.Fatalf("WriteMsgpack failed: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Len(Artist) != 2 || loaded.Len(Track) != 2 {
		t.Errorf("unexpected sizes artists=%d tracks=%d", loaded.Len(Artist), loaded.Len(Track))
	}
	if _, ok := loaded.Lookup(Artist, "radio head"); !ok {
		t.Error("expected alias to survive round trip")
	}
	if loaded.Source() != path {
		t.Errorf("expected source %q, got %q", path, loaded.Source())
	}
}

func TestLoadLegacyMaps(t *testing.T) {
	doc := map[string]any{
		"dim": 2,
		"artist_embeddings": map[string][]float32{
			"Nirvana":   {1, 0},
			"Daft Punk": {0, 1},
		},
		"track_embeddings": map[string][]float32{
			"smells like teen spirit||nirvana": {1, 0},
		},
	}
	data, err := msgpack.Marshal(doc)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "legacy.mpk")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if keys := c.Keys(Artist); len(keys) != 2 || keys[0] != "daft punk" {
		t.Errorf("expected sorted legacy keys, got %v", keys)
	}
	if c.Len(Track) != 1 {
		t.Errorf("expected 1 track, got %d", c.Len(Track))
	}
}

func TestLoadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	body := `{"dim":2,"artists":[{"name":"Aphex Twin","vector":[1,0]}],"embeddings":{"Boards of Canada":[0,1]}}`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if keys := c.Keys(Artist); len(keys) != 2 || keys[0] != "aphex twin" || keys[1] != "boards of canada" {
		t.Errorf("unexpected keys %v", keys)
	}
}

func TestLoadFailures(t *testing.T) {
	dir := t.TempDir()
	corrupt := filepath.Join(dir, "bad.msgpack")
	if err := os.WriteFile(corrupt, []byte{0xc1, 0xff, 0x00}, 0o600); err != nil {
		t.Fatal(err)
	}
	empty := filepath.Join(dir, "empty.json")
	if err := os.WriteFile(empty, []byte(`{"dim":4}`), 0o600); err != nil {
		t.Fatal(err)
	}

	for _, path := range []string{"", filepath.Join(dir, "missing.msgpack"), corrupt, empty} {
		if _, err := Load(path); !errors.Is(err, ErrUnavailable) {
			t.Errorf("Load(%q): expected ErrUnavailable, got %v", path, err)
		}
	}
}

func TestBadgerRoundTrip(t *testing.T) {
	artists, tracks := testEntries()
	c, err := New(0, artists, tracks, WithAliases(Artist, map[string]string{"beatles": "the beatles"}))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	dir := filepath.Join(t.TempDir(), "snapshot")
	if err := WriteBadger(c, dir); err != nil {
		t.Fatalf("WriteBadger failed: %v", err)
	}
	loaded, err := Load("badger://" + dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.Dim() != 3 {
		t.Errorf("expected dim 3, got %d", loaded.Dim())
	}
	if keys := loaded.Keys(Artist); len(keys) != 2 || keys[0] != "radiohead" {
		t.Errorf("expected write order restored, got %v", keys)
	}
	if _, ok := loaded.Lookup(Track, "creep||radiohead"); !ok {
		t.Error("expected track in snapshot")
	}
	if _, ok := loaded.Lookup(Artist, "beatles"); !ok {
		t.Error("expected alias in snapshot")
	}
}

func TestSynthetic(t *testing.T) {
	a := Synthetic(16, 7)
	b := Synthetic(16, 7)

	if a.Mode() != ModeSynthetic {
		t.Errorf("expected synthetic mode")
	}
	if a.Len(Artist) != len(SyntheticArtists) || a.Len(Track) != 0 {
		t.Errorf("unexpected sizes %d/%d", a.Len(Artist), a.Len(Track))
	}
	va, _ := a.Lookup(Artist, "daft punk")
	vb, _ := b.Lookup(Artist, "daft punk")
	for i := range va {
		if va[i] != vb[i] {
			t.Fatal("expected deterministic synthetic vectors")
		}
	}
	var sum float64
	for _, v := range va {
		sum += float64(v) * float64(v)
	}
	if math.Abs(sum-1) > 1e-5 {
		t.Errorf("expected unit vector, got squared norm %f", sum)
	}
}

func TestLoadOrSynthetic(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.msgpack")

	c, err := LoadOrSynthetic(LoadOptions{Path: missing, Dimension: 8}, zerolog.Nop())
	if err != nil {
		t.Fatalf("expected synthetic fallback, got %v", err)
	}
	if c.Mode() != ModeSynthetic || c.Dim() != 8 {
		t.Errorf("expected synthetic dim 8 catalog, got %s dim %d", c.Mode(), c.Dim())
	}

	_, err = LoadOrSynthetic(LoadOptions{Path: missing, RequireProduction: true}, zerolog.Nop())
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable when production required, got %v", err)
	}
}
