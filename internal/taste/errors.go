// VibeMatch - Listener Matching by Music Taste
// Copyright 2026 The VibeMatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Fraga9/VibeMatch

package taste

import (
	"errors"

	"github.com/Fraga9/VibeMatch/internal/taste/catalog"
)

var (
	// ErrCatalogUnavailable means no production catalog could be loaded.
	// Without RequireProduction it is only logged and the synthetic catalog
	// is used.
	ErrCatalogUnavailable = catalog.ErrUnavailable

	// ErrResolutionMiss marks items without a vector. Metadata.Err wraps it
	// when a non-degenerate embedding skipped items; Embed never returns it.
	ErrResolutionMiss = errors.New("resolution miss")

	// ErrEmptyAggregate means no item of a profile resolved. Embed still
	// succeeds with a degenerate embedding; Metadata.Err carries this.
	ErrEmptyAggregate = errors.New("no items resolved")

	// ErrTimeout is returned when the call deadline passes or the context
	// is canceled.
	ErrTimeout = errors.New("embedding timed out")

	// ErrClosed is returned by calls on a closed Engine.
	ErrClosed = errors.New("engine closed")
)
