// VibeMatch - Listener Matching by Music Taste
// Copyright 2026 The VibeMatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Fraga9/VibeMatch

package main

import (
	"fmt"

	"github.com/Fraga9/VibeMatch/internal/app"
	"github.com/Fraga9/VibeMatch/internal/config"
	"github.com/Fraga9/VibeMatch/internal/logging"
	"github.com/Fraga9/VibeMatch/internal/similarity"
	"github.com/Fraga9/VibeMatch/internal/taste"
)

// Components are the long-lived objects shared by the services.
type Components struct {
	Engine *taste.Engine
	Store  similarity.Store // nil when similarity.enabled is false
}

// initComponents builds the engine and, if enabled, the similarity store.
func initComponents(cfg *config.Config) (*Components, error) {
	engine, err := app.NewEngine(cfg, logging.WithComponent("engine"))
	if err != nil {
		return nil, fmt.Errorf("embedding engine: %w", err)
	}
	if engine.Synthetic() {
		logging.Warn().Msg("Running on the synthetic catalog; matches are not meaningful")
	}

	c := &Components{Engine: engine}
	if !cfg.Similarity.Enabled {
		logging.Info().Msg("Similarity store disabled (SIMILARITY_ENABLED=false)")
		return c, nil
	}

	store, err := app.OpenStore(cfg, engine.Catalog().Dim(), logging.WithComponent("similarity"))
	if err != nil {
		_ = engine.Close()
		return nil, err
	}
	c.Store = store
	logging.Info().
		Str("path", cfg.Similarity.Path).
		Bool("breaker", cfg.Similarity.Breaker.Enabled).
		Msg("Similarity store opened")
	return c, nil
}

// Close releases the store, then the engine.
func (c *Components) Close() {
	if c.Store != nil {
		if err := c.Store.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing similarity store")
		}
	}
	if err := c.Engine.Close(); err != nil {
		logging.Error().Err(err).Msg("Error closing embedding engine")
	}
}
