// VibeMatch - Listener Matching by Music Taste
// Copyright 2026 The VibeMatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Fraga9/VibeMatch

/*
Package taste turns multi-period listening histories into unit-length taste
vectors.

An Engine owns three shared parts:

  - a catalog.Catalog of precomputed artist and track vectors (read-only)
  - an index.Index for approximate name matching (read-only)
  - a cache.ResolutionCache of resolution outcomes (shared, bounded)

Each profile item is resolved through resolve.Resolver, weighted and summed:

	period budget   overall 0.45, 6month 0.25, 3month 0.15, recent 0.15
	category split  artists 40%, tracks 60% of each period budget
	play ratio      log1p(playcount) / log1p(max playcount in the list)
	consistency     1.4 (3 periods), 1.2 (2 incl. overall), 1.0 (2 without
	                overall or overall only), 0.7 (one non-overall period)
	recency         0.5^(days/30); unconfirmed recent tracks get 0.8

The weighted average is scaled to unit L2 norm. A profile where nothing
resolves gets a random unit vector flagged as degenerate.

Usage:

	engine, err := taste.New(cfg, logger)
	if err != nil {
	    return err
	}
	defer engine.Close()

	res, err := engine.Embed(ctx, profile)
	if err != nil {
	    return err // ErrTimeout or ErrClosed
	}
	if res.Embedding.Degenerate {
	    // do not use as a match candidate
	}

All weights and thresholds live in Config and can be overridden from the
configuration file.
*/
package taste
