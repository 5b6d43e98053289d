// VibeMatch - Listener Matching by Music Taste
// Copyright 2026 The VibeMatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Fraga9/VibeMatch

// Package similarity persists user taste vectors and finds nearest
// neighbors by cosine similarity.
package similarity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when no record exists for a user.
	ErrNotFound = errors.New("user not found")

	// ErrDegenerate is returned when a degenerate embedding would be stored
	// or used as a match query.
	ErrDegenerate = errors.New("degenerate embedding")

	// ErrDimension is returned for vectors of the wrong length.
	ErrDimension = errors.New("vector dimension mismatch")
)

// userNamespace scopes the name-based user IDs.
var userNamespace = uuid.MustParse("6f1c9a52-3f0e-4b8e-9a51-2c7d2f6d1e90")

// UserID derives the stable record ID of a username. Case and surrounding
// whitespace are ignored so one listener maps to one record.
func UserID(username string) string {
	return uuid.NewSHA1(userNamespace, []byte(strings.ToLower(strings.TrimSpace(username)))).String()
}

// Record is one stored user embedding with its display payload.
type Record struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Vector       []float32 `json:"-"`
	TopArtists   []string  `json:"top_artists"`
	TopGenres    []string  `json:"top_genres"`
	Country      string    `json:"country,omitempty"`
	ProfileImage string    `json:"profile_image,omitempty"`
	IsReal       bool      `json:"is_real"`
	Degenerate   bool      `json:"degenerate"`
	Grade        string    `json:"grade,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Neighbor is a query hit.
type Neighbor struct {
	Record
	Similarity float64 `json:"similarity"`
}

// Filter restricts Count and DeleteWhere. Nil fields match everything.
type Filter struct {
	IsReal *bool
}

// Real and Ghost are the two IsReal filters.
var (
	Real  = Filter{IsReal: boolPtr(true)}
	Ghost = Filter{IsReal: boolPtr(false)}
)

func boolPtr(b bool) *bool { return &b }

// Store persists and queries user embeddings.
type Store interface {
	// Upsert inserts or replaces the record of rec.Username.
	Upsert(ctx context.Context, rec Record) error

	// FindSimilar returns up to limit non-degenerate records closest to
	// vector, most similar first, skipping excludeID.
	FindSimilar(ctx context.Context, vector []float32, limit int, excludeID string) ([]Neighbor, error)

	// Get returns the record of a username or ErrNotFound.
	Get(ctx context.Context, username string) (*Record, error)

	// Count returns the number of records matching f.
	Count(ctx context.Context, f Filter) (int, error)

	// Delete removes one record by ID.
	Delete(ctx context.Context, id string) error

	// DeleteWhere removes every record matching f.
	DeleteWhere(ctx context.Context, f Filter) error

	Close() error
}
