// VibeMatch - Listener Matching by Music Taste
// Copyright 2026 The VibeMatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Fraga9/VibeMatch

// Package logging provides the process-wide zerolog logger for VibeMatch.
//
// # Overview
//
// Every binary calls Init once from main with the values loaded by the
// config package. Components do not log through the package functions
// directly; they receive a zerolog.Logger and derive a child with a
// "component" field:
//
//	logger := logging.WithComponent("resolver")
//	logger.Debug().Str("name", n).Msg("cache miss")
//
// # Correlation
//
// Batch jobs and HTTP handlers attach a short correlation ID to the context
// so that every line emitted while embedding one profile can be grepped
// together:
//
//	ctx = logging.ContextWithNewCorrelationID(ctx)
//	logging.Ctx(ctx).Info().Str("user", u).Msg("embedding profile")
//
// # slog
//
// The supervisor tree (suture via sutureslog) expects a *slog.Logger.
// NewSlogLogger returns one that writes through zerolog so all output
// shares a single format.
//
// # Configuration
//
//	LOG_LEVEL   trace, debug, info, warn, error (default: info)
//	LOG_FORMAT  json, console (default: json)
//	LOG_CALLER  true, false (default: false)
package logging
