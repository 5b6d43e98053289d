// VibeMatch - Listener Matching by Music Taste
// Copyright 2026 The VibeMatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Fraga9/VibeMatch

package similarity

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog"

	"github.com/Fraga9/VibeMatch/internal/metrics"
)

// Metadata keys of stored documents.
const (
	metaUsername     = "username"
	metaIsReal       = "is_real"
	metaDegenerate   = "degenerate"
	metaGrade        = "grade"
	metaCountry      = "country"
	metaProfileImage = "profile_image"
	metaTopArtists   = "top_artists"
	metaTopGenres    = "top_genres"
	metaUpdatedAt    = "updated_at"
)

// maxTopArtists bounds the stored artist payload.
const maxTopArtists = 10

var errTextQuery = errors.New("similarity: text embedding is not supported")

// ChromemOptions configures a ChromemStore.
type ChromemOptions struct {
	// Path of the persistent database directory. Empty keeps everything
	// in memory.
	Path string

	// Collection name. Default: users
	Collection string

	// Compress persisted documents with gzip.
	Compress bool

	// AllowDegenerate stores degenerate embeddings (flagged, never
	// returned by FindSimilar). Otherwise Upsert rejects them.
	AllowDegenerate bool

	// Dimension of stored vectors. Zero accepts any length.
	Dimension int
}

// ChromemStore is a Store on an embedded chromem-go database.
type ChromemStore struct {
	db     *chromem.DB
	col    *chromem.Collection
	opts   ChromemOptions
	logger zerolog.Logger
}

// NewChromemStore opens or creates the collection.
//
//nolint:gocritic // zerolog.Logger is passed by value
func NewChromemStore(opts ChromemOptions, logger zerolog.Logger) (*ChromemStore, error) {
	if opts.Collection == "" {
		opts.Collection = "users"
	}

	var db *chromem.DB
	if opts.Path == "" {
		db = chromem.NewDB()
	} else {
		if err := os.MkdirAll(opts.Path, 0o750); err != nil {
			return nil, fmt.Errorf("create similarity dir: %w", err)
		}
		var err error
		db, err = chromem.NewPersistentDB(opts.Path, opts.Compress)
		if err != nil {
			return nil, fmt.Errorf("open similarity db: %w", err)
		}
	}

	// Vectors are always supplied; text queries are refused.
	noText := func(context.Context, string) ([]float32, error) { return nil, errTextQuery }
	col, err := db.GetOrCreateCollection(opts.Collection, nil, noText)
	if err != nil {
		return nil, fmt.Errorf("open collection %s: %w", opts.Collection, err)
	}

	s := &ChromemStore{
		db:     db,
		col:    col,
		opts:   opts,
		logger: logger.With().Str("component", "similarity").Logger(),
	}
	s.logger.Info().
		Str("path", opts.Path).
		Str("collection", opts.Collection).
		Int("records", col.Count()).
		Msg("similarity store opened")
	return s, nil
}

// Upsert stores rec under UserID(rec.Username).
func (s *ChromemStore) Upsert(ctx context.Context, rec Record) (err error) {
	defer observe("upsert", time.Now(), &err)

	if rec.Degenerate && !s.opts.AllowDegenerate {
		return fmt.Errorf("upsert %s: %w", rec.Username, ErrDegenerate)
	}
	if err := s.checkDim(rec.Vector); err != nil {
		return fmt.Errorf("upsert %s: %w", rec.Username, err)
	}
	if rec.ID == "" {
		rec.ID = UserID(rec.Username)
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now().UTC()
	}

	meta, err := encodeMetadata(&rec)
	if err != nil {
		return err
	}
	doc := chromem.Document{
		ID:        rec.ID,
		Content:   rec.Username,
		Metadata:  meta,
		Embedding: rec.Vector,
	}
	if err := s.col.AddDocument(ctx, doc); err != nil {
		return fmt.Errorf("upsert %s: %w", rec.Username, err)
	}
	s.logger.Debug().Str("username", rec.Username).Bool("degenerate", rec.Degenerate).Msg("embedding stored")
	return nil
}

// FindSimilar returns the nearest non-degenerate neighbors of vector.
func (s *ChromemStore) FindSimilar(ctx context.Context, vector []float32, limit int, excludeID string) (_ []Neighbor, err error) {
	defer observe("find_similar", time.Now(), &err)

	if limit <= 0 {
		return nil, nil
	}
	if err := s.checkDim(vector); err != nil {
		return nil, err
	}

	// chromem-go rejects nResults above the collection size.
	n := min(limit+1, s.col.Count())
	if n == 0 {
		return nil, nil
	}
	results, err := s.col.QueryEmbedding(ctx, vector, n, map[string]string{metaDegenerate: "false"}, nil)
	if err != nil {
		return nil, fmt.Errorf("query neighbors: %w", err)
	}

	out := make([]Neighbor, 0, min(limit, len(results)))
	for _, r := range results {
		if r.ID == excludeID {
			continue
		}
		rec, err := decodeRecord(r.ID, r.Metadata, r.Embedding)
		if err != nil {
			s.logger.Warn().Err(err).Str("id", r.ID).Msg("skipping undecodable record")
			continue
		}
		out = append(out, Neighbor{Record: *rec, Similarity: float64(r.Similarity)})
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// Get returns the record of username.
func (s *ChromemStore) Get(ctx context.Context, username string) (_ *Record, err error) {
	defer observe("get", time.Now(), &err)

	id := UserID(username)
	doc, err := s.col.GetByID(ctx, id)
	if err != nil {
		// GetByID only fails for unknown IDs once id is non-empty.
		return nil, fmt.Errorf("get %s: %w", username, ErrNotFound)
	}
	return decodeRecord(doc.ID, doc.Metadata, doc.Embedding)
}

// Count returns the number of records matching f.
func (s *ChromemStore) Count(ctx context.Context, f Filter) (_ int, err error) {
	defer observe("count", time.Now(), &err)

	total := s.col.Count()
	where := f.where()
	if len(where) == 0 || total == 0 {
		return total, nil
	}
	if s.opts.Dimension <= 0 {
		return 0, fmt.Errorf("count with filter: %w: store dimension unknown", ErrDimension)
	}

	// There is no filtered count; a full query with any probe vector
	// returns every matching document.
	probe := make([]float32, s.opts.Dimension)
	probe[0] = 1
	results, err := s.col.QueryEmbedding(ctx, probe, total, where, nil)
	if err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return len(results), nil
}

// Delete removes one record.
func (s *ChromemStore) Delete(ctx context.Context, id string) (err error) {
	defer observe("delete", time.Now(), &err)
	return s.col.Delete(ctx, nil, nil, id)
}

// DeleteWhere removes every record matching f. An empty filter is refused.
func (s *ChromemStore) DeleteWhere(ctx context.Context, f Filter) (err error) {
	defer observe("delete_where", time.Now(), &err)

	where := f.where()
	if len(where) == 0 {
		return errors.New("delete_where: empty filter")
	}
	if s.col.Count() == 0 {
		return nil
	}
	return s.col.Delete(ctx, where, nil)
}

// Close is a no-op; persistent databases write through on every change.
func (s *ChromemStore) Close() error { return nil }

func (s *ChromemStore) checkDim(vec []float32) error {
	if len(vec) == 0 {
		return fmt.Errorf("%w: empty vector", ErrDimension)
	}
	if s.opts.Dimension > 0 && len(vec) != s.opts.Dimension {
		return fmt.Errorf("%w: got %d, want %d", ErrDimension, len(vec), s.opts.Dimension)
	}
	return nil
}

func (f Filter) where() map[string]string {
	if f.IsReal == nil {
		return nil
	}
	return map[string]string{metaIsReal: strconv.FormatBool(*f.IsReal)}
}

func observe(op string, start time.Time, err *error) {
	metrics.RecordSimilarityOp(op, time.Since(start), *err)
}

func encodeMetadata(rec *Record) (map[string]string, error) {
	artists := rec.TopArtists
	if len(artists) > maxTopArtists {
		artists = artists[:maxTopArtists]
	}
	a, err := json.Marshal(artists)
	if err != nil {
		return nil, fmt.Errorf("encode top artists: %w", err)
	}
	g, err := json.Marshal(rec.TopGenres)
	if err != nil {
		return nil, fmt.Errorf("encode top genres: %w", err)
	}
	return map[string]string{
		metaUsername:     rec.Username,
		metaIsReal:       strconv.FormatBool(rec.IsReal),
		metaDegenerate:   strconv.FormatBool(rec.Degenerate),
		metaGrade:        rec.Grade,
		metaCountry:      rec.Country,
		metaProfileImage: rec.ProfileImage,
		metaTopArtists:   string(a),
		metaTopGenres:    string(g),
		metaUpdatedAt:    rec.UpdatedAt.UTC().Format(time.RFC3339),
	}, nil
}

func decodeRecord(id string, meta map[string]string, vec []float32) (*Record, error) {
	rec := &Record{
		ID:           id,
		Username:     meta[metaUsername],
		Vector:       vec,
		Country:      meta[metaCountry],
		ProfileImage: meta[metaProfileImage],
		Grade:        meta[metaGrade],
		IsReal:       meta[metaIsReal] == "true",
		Degenerate:   meta[metaDegenerate] == "true",
	}
	if v := meta[metaTopArtists]; v != "" {
		if err := json.Unmarshal([]byte(v), &rec.TopArtists); err != nil {
			return nil, fmt.Errorf("decode top artists: %w", err)
		}
	}
	if v := meta[metaTopGenres]; v != "" && v != "null" {
		if err := json.Unmarshal([]byte(v), &rec.TopGenres); err != nil {
			return nil, fmt.Errorf("decode top genres: %w", err)
		}
	}
	if v := meta[metaUpdatedAt]; v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			rec.UpdatedAt = t
		}
	}
	return rec, nil
}
