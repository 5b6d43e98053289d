// VibeMatch - Listener Matching by Music Taste
// Copyright 2026 The VibeMatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Fraga9/VibeMatch

package catalog

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goccy/go-json"
	"github.com/vmihailenco/msgpack/v5"
)

// fileFormat is the on-disk layout shared by the msgpack and JSON codecs.
//
// The ordered Artists/Tracks lists are preferred. The map-shaped fields
// accept exports produced by the training notebooks (artist_embeddings,
// track_embeddings) and single-namespace static embedders (embeddings,
// read as artists); their keys are loaded in sorted order.
type fileFormat struct {
	Dim     int                          `msgpack:"dim" json:"dim"`
	Artists []Entry                      `msgpack:"artists,omitempty" json:"artists,omitempty"`
	Tracks  []Entry                      `msgpack:"tracks,omitempty" json:"tracks,omitempty"`
	Aliases map[string]map[string]string `msgpack:"aliases,omitempty" json:"aliases,omitempty"`

	ArtistEmbeddings map[string][]float32 `msgpack:"artist_embeddings,omitempty" json:"artist_embeddings,omitempty"`
	TrackEmbeddings  map[string][]float32 `msgpack:"track_embeddings,omitempty" json:"track_embeddings,omitempty"`
	Embeddings       map[string][]float32 `msgpack:"embeddings,omitempty" json:"embeddings,omitempty"`
}

// Load reads a catalog from path. The format is chosen by prefix or
// extension:
//
//	badger:///data/catalog   BadgerDB snapshot directory
//	catalog.msgpack|.mpk     msgpack file
//	catalog.json             JSON file
//
// A directory without a prefix is opened as a BadgerDB snapshot.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: no path configured", ErrUnavailable)
	}
	if dir, ok := strings.CutPrefix(path, "badger://"); ok {
		return LoadBadger(dir)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	if info.IsDir() {
		return LoadBadger(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	var ff fileFormat
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, &ff)
	default:
		err = msgpack.Unmarshal(data, &ff)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", ErrUnavailable, path, err)
	}

	c, err := ff.build(WithSource(path))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrUnavailable, path, err)
	}
	return c, nil
}

// DecodeMsgpack builds a catalog from an in-memory msgpack document.
func DecodeMsgpack(data []byte) (*Catalog, error) {
	var ff fileFormat
	if err := msgpack.NewDecoder(bytes.NewReader(data)).Decode(&ff); err != nil {
		return nil, fmt.Errorf("%w: decode msgpack: %w", ErrUnavailable, err)
	}
	return ff.build()
}

func (ff *fileFormat) build(opts ...Option) (*Catalog, error) {
	artists := append(ff.Artists, sortedEntries(ff.ArtistEmbeddings)...)
	artists = append(artists, sortedEntries(ff.Embeddings)...)
	tracks := append(ff.Tracks, sortedEntries(ff.TrackEmbeddings)...)

	if len(artists) == 0 && len(tracks) == 0 {
		return nil, fmt.Errorf("no entries")
	}
	for et, aliases := range ff.Aliases {
		t, err := ParseEntityType(et)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithAliases(t, aliases))
	}
	return New(ff.Dim, artists, tracks, opts...)
}

func sortedEntries(m map[string][]float32) []Entry {
	if len(m) == 0 {
		return nil
	}
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]Entry, 0, len(names))
	for _, name := range names {
		out = append(out, Entry{Name: name, Vector: m[name]})
	}
	return out
}

func (c *Catalog) toFile() *fileFormat {
	ff := &fileFormat{
		Dim:     c.dim,
		Artists: c.Entries(Artist),
		Tracks:  c.Entries(Track),
		Aliases: map[string]map[string]string{},
	}
	for _, t := range []EntityType{Artist, Track} {
		if a := c.Aliases(t); len(a) > 0 {
			ff.Aliases[t.String()] = a
		}
	}
	return ff
}

// WriteMsgpack writes the catalog to path in the ordered msgpack layout.
func WriteMsgpack(c *Catalog, path string) error {
	data, err := msgpack.Marshal(c.toFile())
	if err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}
	return writeFileAtomic(path, data)
}

// WriteJSON writes the catalog to path as JSON.
func WriteJSON(c *Catalog, path string) error {
	data, err := json.Marshal(c.toFile())
	if err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}
	return writeFileAtomic(path, data)
}

func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename %s: %w", tmp, err)
	}
	return nil
}
