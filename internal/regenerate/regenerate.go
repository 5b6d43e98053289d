// VibeMatch - Listener Matching by Music Taste
// Copyright 2026 The VibeMatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Fraga9/VibeMatch

// Package regenerate recomputes stored embeddings in bulk: it fetches
// fresh profiles, embeds them with bounded concurrency and writes the
// results to the similarity store, producing a quality report.
package regenerate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/Fraga9/VibeMatch/internal/metrics"
	"github.com/Fraga9/VibeMatch/internal/models"
	"github.com/Fraga9/VibeMatch/internal/similarity"
	"github.com/Fraga9/VibeMatch/internal/taste"
)

// Embedder turns a profile into an embedding. *taste.Engine satisfies it.
type Embedder interface {
	Embed(ctx context.Context, p *models.UserProfile) (*taste.Result, error)
}

// Options tunes a run.
type Options struct {
	// Workers is the number of users processed concurrently. Default: 4
	Workers int

	// RateLimit is the maximum source fetches per second. Zero disables
	// limiting.
	RateLimit float64
	RateBurst int

	// UserTimeout bounds fetching and embedding one user. Default: 30s
	UserTimeout time.Duration

	// MinArtists is the fewest overall artists a usable profile has.
	// Default: 5
	MinArtists int

	// DryRun computes embeddings and the report without writing to the
	// store.
	DryRun bool
}

func (o Options) withDefaults() Options {
	if o.Workers <= 0 {
		o.Workers = 4
	}
	if o.UserTimeout <= 0 {
		o.UserTimeout = 30 * time.Second
	}
	if o.MinArtists <= 0 {
		o.MinArtists = 5
	}
	if o.RateBurst <= 0 {
		o.RateBurst = 1
	}
	return o
}

// Regenerator runs regeneration passes. A nil store is allowed for dry
// runs.
type Regenerator struct {
	engine  Embedder
	source  ProfileSource
	store   similarity.Store
	opts    Options
	limiter *rate.Limiter
	logger  zerolog.Logger
}

// New creates a Regenerator.
//
//nolint:gocritic // zerolog.Logger is passed by value
func New(engine Embedder, source ProfileSource, store similarity.Store, opts Options, logger zerolog.Logger) *Regenerator {
	opts = opts.withDefaults()
	limit := rate.Inf
	if opts.RateLimit > 0 {
		limit = rate.Limit(opts.RateLimit)
	}
	return &Regenerator{
		engine:  engine,
		source:  source,
		store:   store,
		opts:    opts,
		limiter: rate.NewLimiter(limit, opts.RateBurst),
		logger:  logger.With().Str("component", "regenerate").Logger(),
	}
}

// Run regenerates usernames, or every user of the source when usernames
// is empty. Per-user failures are counted in the report; only context
// cancellation and source listing errors fail the run.
func (r *Regenerator) Run(ctx context.Context, usernames []string) (*Report, error) {
	start := time.Now()
	if len(usernames) == 0 {
		var err error
		if usernames, err = r.source.ListUsers(ctx); err != nil {
			return nil, fmt.Errorf("list users: %w", err)
		}
	}

	r.logger.Info().
		Int("users", len(usernames)).
		Int("workers", r.opts.Workers).
		Bool("dry_run", r.opts.DryRun).
		Msg("regeneration started")

	stats := newMatchStats()
	sem := semaphore.NewWeighted(int64(r.opts.Workers))
	g, gctx := errgroup.WithContext(ctx)

	for _, username := range usernames {
		if err := sem.Acquire(gctx, 1); err != nil {
			break
		}
		g.Go(func() error {
			defer sem.Release(1)
			outcome, meta := r.user(gctx, username)
			if meta != nil {
				stats.addUser(meta)
			}
			stats.outcome(outcome)
			metrics.RecordRegenerateUser(string(outcome))
			return nil
		})
	}
	_ = g.Wait() // workers never return errors

	finished := time.Now()
	report := stats.report(len(usernames), r.opts.DryRun, start, finished)
	metrics.RecordRegenerateRun(finished.Sub(start), finished)

	if err := ctx.Err(); err != nil {
		r.logger.Warn().Err(err).Int("processed", report.Processed()).Msg("regeneration interrupted")
		return report, err
	}
	r.logger.Info().
		Int("processed", report.Processed()).
		Int("no_data", report.Summary[OutcomeNoData]).
		Int("failed", len(usernames)-report.Processed()-report.Summary[OutcomeNoData]).
		Str("duration", report.Duration).
		Msg("regeneration finished")
	return report, nil
}

// RegenerateUser processes a single user outside of a run.
func (r *Regenerator) RegenerateUser(ctx context.Context, username string) (Outcome, *taste.Metadata) {
	outcome, meta := r.user(ctx, username)
	metrics.RecordRegenerateUser(string(outcome))
	return outcome, meta
}

// user fetches, embeds and stores one user. Metadata is returned whenever
// an embedding was computed.
func (r *Regenerator) user(ctx context.Context, username string) (Outcome, *taste.Metadata) {
	log := r.logger.With().Str("username", username).Logger()

	ctx, cancel := context.WithTimeout(ctx, r.opts.UserTimeout)
	defer cancel()

	if err := r.limiter.Wait(ctx); err != nil {
		log.Debug().Err(err).Msg("rate limiter wait aborted")
		return OutcomeTimeout, nil
	}

	profile, err := r.source.FetchProfile(ctx, username)
	switch {
	case err == nil:
	case errors.Is(err, ErrUserNotFound):
		log.Debug().Msg("user not found")
		return OutcomeNotFound, nil
	case errors.Is(err, ErrRateLimited):
		log.Warn().Msg("source rate limited")
		return OutcomeRateLimited, nil
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return OutcomeTimeout, nil
	default:
		log.Warn().Err(err).Msg("profile fetch failed")
		return OutcomeFetchError, nil
	}

	if n := len(profile.Period(models.PeriodOverall).Artists); n < r.opts.MinArtists {
		log.Debug().Int("artists", n).Msg("not enough listening data")
		return OutcomeNoData, nil
	}

	res, err := r.engine.Embed(ctx, profile)
	if err != nil {
		if errors.Is(err, taste.ErrTimeout) {
			log.Warn().Msg("embedding timed out")
			return OutcomeTimeout, nil
		}
		log.Warn().Err(err).Msg("embedding failed")
		return OutcomeEmbeddingFailed, nil
	}
	if res.Embedding.Degenerate {
		log.Warn().Msg("no catalog signal, embedding is degenerate")
	}

	if r.opts.DryRun || r.store == nil {
		return OutcomeProcessed, res.Metadata
	}
	if err := r.store.Upsert(ctx, r.record(ctx, profile, res)); err != nil {
		if errors.Is(err, similarity.ErrDegenerate) {
			// Counted as processed; degenerate vectors are not stored.
			return OutcomeProcessed, res.Metadata
		}
		log.Warn().Err(err).Msg("storing embedding failed")
		return OutcomeStoreFailed, res.Metadata
	}
	return OutcomeProcessed, res.Metadata
}

// record builds the stored record, keeping payload fields of an existing
// record that the profile does not carry.
func (r *Regenerator) record(ctx context.Context, p *models.UserProfile, res *taste.Result) similarity.Record {
	rec := similarity.Record{
		Username:     p.Username,
		Vector:       res.Embedding.Vector,
		TopArtists:   res.TopArtists,
		TopGenres:    res.TopGenres,
		Country:      p.Country,
		ProfileImage: p.ProfileImage,
		IsReal:       true,
		Degenerate:   res.Embedding.Degenerate,
		Grade:        string(res.Metadata.Grade),
		UpdatedAt:    time.Now().UTC(),
	}
	if prev, err := r.store.Get(ctx, p.Username); err == nil {
		rec.IsReal = prev.IsReal
		if rec.Country == "" {
			rec.Country = prev.Country
		}
		if rec.ProfileImage == "" {
			rec.ProfileImage = prev.ProfileImage
		}
	}
	return rec
}
