// VibeMatch - Listener Matching by Music Taste
// Copyright 2026 The VibeMatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Fraga9/VibeMatch

package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/Fraga9/VibeMatch/internal/regenerate"
)

// Regenerator runs one batch regeneration.
type Regenerator interface {
	Run(ctx context.Context, usernames []string) (*regenerate.Report, error)
}

// RegenerateServiceConfig schedules regeneration runs.
type RegenerateServiceConfig struct {
	// OnStartup triggers a run as soon as the service starts.
	OnStartup bool

	// Interval between scheduled runs. Default: 24h
	Interval time.Duration

	// RunTimeout bounds a single run. Default: 2h
	RunTimeout time.Duration

	// ReportPath receives the JSON report of each run; empty disables it.
	ReportPath string

	// Usernames restricts runs to these users; empty means every user.
	Usernames []string
}

// RegenerateService re-embeds users on a schedule.
type RegenerateService struct {
	runner Regenerator
	config RegenerateServiceConfig
	logger zerolog.Logger
}

// NewRegenerateService creates the service.
//
//nolint:gocritic // zerolog.Logger is passed by value
func NewRegenerateService(runner Regenerator, cfg RegenerateServiceConfig, logger zerolog.Logger) *RegenerateService {
	if cfg.Interval <= 0 {
		cfg.Interval = 24 * time.Hour
	}
	if cfg.RunTimeout <= 0 {
		cfg.RunTimeout = 2 * time.Hour
	}
	return &RegenerateService{
		runner: runner,
		config: cfg,
		logger: logger.With().Str("service", "regenerate").Logger(),
	}
}

// Serve implements suture.Service. Failed runs are logged and retried at
// the next tick; only cancellation stops the service.
func (s *RegenerateService) Serve(ctx context.Context) error {
	s.logger.Info().
		Bool("on_startup", s.config.OnStartup).
		Dur("interval", s.config.Interval).
		Msg("regeneration service starting")

	if s.config.OnStartup {
		s.run(ctx)
	}

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("regeneration service shutting down")
			return ctx.Err()
		case <-ticker.C:
			s.run(ctx)
		}
	}
}

func (s *RegenerateService) run(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, s.config.RunTimeout)
	defer cancel()

	report, err := s.runner.Run(runCtx, s.config.Usernames)
	if err != nil {
		s.logger.Warn().Err(err).Msg("regeneration run failed")
	}
	if report == nil || s.config.ReportPath == "" {
		return
	}
	if err := report.WriteFile(s.config.ReportPath); err != nil {
		s.logger.Warn().Err(err).Str("path", s.config.ReportPath).Msg("writing regeneration report failed")
		return
	}
	s.logger.Info().
		Int("processed", report.Processed()).
		Str("path", s.config.ReportPath).
		Msg("regeneration report written")
}

func (s *RegenerateService) String() string {
	return "regenerate-service"
}
