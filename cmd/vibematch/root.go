// VibeMatch - Listener Matching by Music Taste
// Copyright 2026 The VibeMatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Fraga9/VibeMatch

package main

import (
	"fmt"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Fraga9/VibeMatch/internal/app"
	"github.com/Fraga9/VibeMatch/internal/config"
	"github.com/Fraga9/VibeMatch/internal/logging"
	"github.com/Fraga9/VibeMatch/internal/similarity"
	"github.com/Fraga9/VibeMatch/internal/taste"
)

// env is the state shared by all subcommands, filled in by the root
// command's PersistentPreRunE.
type env struct {
	cfg    *config.Config
	logger zerolog.Logger
}

func NewRootCmd(version string) *cobra.Command {
	e := &env{logger: zerolog.Nop()}

	rootCmd := &cobra.Command{
		Use:           "vibematch",
		Short:         "Taste embeddings and listener matching",
		Long:          `Build taste embeddings from listening histories and find listeners with similar taste.`,
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return e.load(cmd)
		},
		Run: func(cmd *cobra.Command, _ []string) {
			_ = cmd.Help()
		},
	}

	rootCmd.PersistentFlags().String("config", "", "Config file (default: $CONFIG_PATH or /etc/vibematch/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "Override logging.level")
	rootCmd.PersistentFlags().Bool("json", false, "Output in JSON format")

	rootCmd.AddCommand(
		NewEmbedCmd(e),
		NewMatchCmd(e),
		NewCatalogCmd(e),
		NewRegenerateCmd(e),
	)
	return rootCmd
}

func (e *env) load(cmd *cobra.Command) error {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadFile(path)
	if err != nil {
		return err
	}
	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		cfg.Logging.Level = lvl
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: "console",
		Caller: cfg.Logging.Caller,
		Output: cmd.ErrOrStderr(),
	})
	e.cfg = cfg
	e.logger = logging.Logger()
	return nil
}

func (e *env) engine() (*taste.Engine, error) {
	return app.NewEngine(e.cfg, e.logger)
}

func (e *env) store(dim int) (similarity.Store, error) {
	if !e.cfg.Similarity.Enabled {
		return nil, fmt.Errorf("similarity store is disabled (similarity.enabled=false)")
	}
	return app.OpenStore(e.cfg, dim, e.logger)
}

func wantJSON(cmd *cobra.Command) bool {
	v, _ := cmd.Flags().GetBool("json")
	return v
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
