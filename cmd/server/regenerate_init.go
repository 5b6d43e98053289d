// VibeMatch - Listener Matching by Music Taste
// Copyright 2026 The VibeMatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Fraga9/VibeMatch

package main

import (
	"github.com/Fraga9/VibeMatch/internal/app"
	"github.com/Fraga9/VibeMatch/internal/config"
	"github.com/Fraga9/VibeMatch/internal/logging"
	"github.com/Fraga9/VibeMatch/internal/supervisor"
	"github.com/Fraga9/VibeMatch/internal/supervisor/services"
)

// initRegenerate adds the scheduled regeneration service when enabled.
func initRegenerate(cfg *config.Config, c *Components, tree *supervisor.SupervisorTree) *services.RegenerateService {
	rc := cfg.Regenerate
	if !rc.Enabled {
		logging.Info().Msg("Scheduled regeneration disabled (REGENERATE_ENABLED=false)")
		return nil
	}
	if c.Store == nil && !rc.DryRun {
		logging.Warn().Msg("Regeneration needs the similarity store; running as dry run")
		cfg.Regenerate.DryRun = true
		rc = cfg.Regenerate
	}

	logger := logging.WithComponent("regenerate")
	regen := app.NewRegenerator(cfg, c.Engine, c.Store, logger)
	service := services.NewRegenerateService(regen, services.RegenerateServiceConfig{
		OnStartup:  rc.OnStartup,
		Interval:   rc.Interval,
		ReportPath: rc.ReportPath,
		Usernames:  rc.Usernames,
	}, logger)
	tree.AddWorkerService(service)

	logging.Info().
		Str("profiles_dir", rc.ProfilesDir).
		Dur("interval", rc.Interval).
		Bool("on_startup", rc.OnStartup).
		Int("workers", rc.Workers).
		Bool("dry_run", rc.DryRun).
		Msg("Regeneration service added to supervisor tree")
	return service
}
