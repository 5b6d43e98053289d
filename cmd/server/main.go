// VibeMatch - Listener Matching by Music Taste
// Copyright 2026 The VibeMatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Fraga9/VibeMatch

// Package main runs the VibeMatch server: the taste-embedding engine, the
// similarity store, scheduled regeneration and the ops HTTP endpoints,
// all under one supervisor tree.
//
// Startup order:
//
//  1. Configuration (koanf: defaults, CONFIG_PATH or /etc/vibematch/config.yaml, env)
//  2. Embedding engine over the catalog (synthetic fallback unless
//     CATALOG_REQUIRE_PRODUCTION is set)
//  3. Similarity store (chromem-go, behind a circuit breaker)
//  4. Supervisor tree: cache reporter, regeneration, ops HTTP
//
// SIGINT and SIGTERM cancel the tree; services get
// supervisor.shutdown_timeout to stop, then the store and engine close.
//
//	CATALOG_PATH=/data/catalog.msgpack REGENERATE_ENABLED=true ./vibematch-server
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/Fraga9/VibeMatch/internal/api"
	"github.com/Fraga9/VibeMatch/internal/config"
	"github.com/Fraga9/VibeMatch/internal/logging"
	"github.com/Fraga9/VibeMatch/internal/supervisor"
	"github.com/Fraga9/VibeMatch/internal/supervisor/services"
)

func main() {
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})
	logging.Info().Msg("Starting VibeMatch with supervisor tree")

	components, err := initComponents(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize components")
	}
	defer components.Close()

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		FailureThreshold: cfg.Supervisor.FailureThreshold,
		FailureDecay:     cfg.Supervisor.FailureDecay,
		FailureBackoff:   cfg.Supervisor.FailureBackoff,
		ShutdownTimeout:  cfg.Supervisor.ShutdownTimeout,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	// Data layer
	tree.AddDataService(services.NewCacheReporterService(components.Engine.Cache(), cfg.Cache.ReportInterval))

	// Workers layer
	initRegenerate(cfg, components, tree)

	// API layer
	router := api.NewRouter(components.Engine, components.Store,
		api.WithRateLimit(cfg.Server.RateLimitRequests, cfg.Server.RateLimitWindow))
	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router.Handler(),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}
	tree.AddAPIService(services.NewOpsHTTPService(server, cfg.Server.ShutdownTimeout))
	logging.Info().Str("addr", server.Addr).Msg("Ops HTTP service added")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logging.Info().Msg("Starting supervisor tree...")
	for err := range tree.ServeBackground(ctx) {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}
	logging.Info().Msg("VibeMatch stopped")
}
