// VibeMatch - Listener Matching by Music Taste
// Copyright 2026 The VibeMatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Fraga9/VibeMatch

/*
Package models defines the listening-history documents consumed by the
embedding engine.

A UserProfile carries per-period top charts (overall, 6month, 3month), the
recent-tracks feed and optional artist tags. Profiles arrive as JSON, either
one file per user in the regeneration profiles directory or on stdin for
the CLI. DecodeProfile folds the single-period export shape into the
overall period and validates the result with the validation package:

	p, err := models.DecodeProfile(f)
	if err != nil {
		return err
	}
	res, err := engine.Embed(ctx, p)

Recent track timestamps are unix seconds. A nil timestamp means the time is
unknown; a now-playing track is treated as played at the current instant.
*/
package models
