// VibeMatch - Listener Matching by Music Taste
// Copyright 2026 The VibeMatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Fraga9/VibeMatch

package regenerate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Fraga9/VibeMatch/internal/models"
)

var (
	// ErrUserNotFound is returned by a ProfileSource for unknown users.
	ErrUserNotFound = errors.New("user not found at source")

	// ErrRateLimited is returned by a ProfileSource when the upstream
	// provider throttles requests.
	ErrRateLimited = errors.New("rate limited by source")
)

// ProfileSource provides listening histories. It stands in for the
// upstream history provider.
type ProfileSource interface {
	// FetchProfile returns the profile of username or ErrUserNotFound.
	FetchProfile(ctx context.Context, username string) (*models.UserProfile, error)

	// ListUsers returns every username the source knows.
	ListUsers(ctx context.Context) ([]string, error)
}

// DirSource reads profiles from <dir>/<username>.json.
type DirSource struct {
	dir string
}

// NewDirSource creates a DirSource over dir.
func NewDirSource(dir string) *DirSource {
	return &DirSource{dir: dir}
}

// FetchProfile decodes and validates the profile file of username.
func (s *DirSource) FetchProfile(ctx context.Context, username string) (*models.UserProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(username)
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return nil, fmt.Errorf("%w: invalid username %q", ErrUserNotFound, username)
	}

	f, err := os.Open(filepath.Join(s.dir, name+".json"))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("open profile %s: %w", name, err)
	}
	defer f.Close()

	p, err := models.DecodeProfile(f)
	if err != nil {
		return nil, err
	}
	if p.Username == "" {
		p.Username = name
	}
	return p, nil
}

// ListUsers returns the base names of all .json files, sorted.
func (s *DirSource) ListUsers(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	var users []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		users = append(users, strings.TrimSuffix(e.Name(), ".json"))
	}
	sort.Strings(users)
	return users, nil
}
