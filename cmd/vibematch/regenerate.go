// VibeMatch - Listener Matching by Music Taste
// Copyright 2026 The VibeMatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Fraga9/VibeMatch

package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Fraga9/VibeMatch/internal/app"
	"github.com/Fraga9/VibeMatch/internal/regenerate"
	"github.com/Fraga9/VibeMatch/internal/similarity"
	"github.com/Fraga9/VibeMatch/internal/taste"
)

func NewRegenerateCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "regenerate",
		Short: "Re-embed users from the profiles directory",
		Long: `Re-embed every profile in regenerate.profiles_dir, or only the users given
with --username, and write a JSON report.`,
		Args: cobra.NoArgs,
		RunE: makeRegenerateRunner(e),
	}
	cmd.Flags().Bool("dry-run", false, "Compute embeddings and the report without storing")
	cmd.Flags().StringSlice("username", nil, "Only regenerate these users (repeatable)")
	cmd.Flags().String("profiles", "", "Profiles directory (default: regenerate.profiles_dir)")
	cmd.Flags().String("report", "", "Report path (default: regenerate.report_path)")
	return cmd
}

func makeRegenerateRunner(e *env) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		cfg := e.cfg
		if dry, _ := cmd.Flags().GetBool("dry-run"); dry {
			cfg.Regenerate.DryRun = true
		}
		if dir, _ := cmd.Flags().GetString("profiles"); dir != "" {
			cfg.Regenerate.ProfilesDir = dir
		}
		reportPath := cfg.Regenerate.ReportPath
		if p, _ := cmd.Flags().GetString("report"); p != "" {
			reportPath = p
		}
		usernames, _ := cmd.Flags().GetStringSlice("username")
		if len(usernames) == 0 {
			usernames = cfg.Regenerate.Usernames
		}

		engine, err := e.engine()
		if err != nil {
			return err
		}
		defer engine.Close()

		var store similarity.Store
		if !cfg.Regenerate.DryRun {
			if store, err = e.store(engine.Catalog().Dim()); err != nil {
				return err
			}
			defer store.Close()
		}

		report, runErr := app.NewRegenerator(cfg, engine, store, e.logger).Run(cmd.Context(), usernames)
		if report == nil {
			return runErr
		}
		if reportPath != "" {
			if err := report.WriteFile(reportPath); err != nil {
				return err
			}
		}
		if wantJSON(cmd) {
			if err := writeJSON(cmd, report); err != nil {
				return err
			}
		} else {
			printReport(cmd.OutOrStdout(), report, reportPath)
		}
		return runErr
	}
}

func printReport(w io.Writer, r *regenerate.Report, path string) {
	fmt.Fprintf(w, "users:      %d (dry run: %t) in %s\n", r.Users, r.DryRun, r.Duration)
	for _, o := range regenerate.Outcomes {
		if n := r.Summary[o]; n > 0 {
			fmt.Fprintf(w, "  %-17s %d\n", o, n)
		}
	}
	fmt.Fprintf(w, "artists:    exact=%d fuzzy=%d zero_shot=%d missing=%d\n",
		r.ArtistMatches.Exact, r.ArtistMatches.Fuzzy, r.ArtistMatches.ZeroShot, r.ArtistMatches.Missing)
	fmt.Fprint(w, "grades:    ")
	for _, g := range taste.Grades {
		fmt.Fprintf(w, " %s=%d", g, r.QualityGrades[g])
	}
	fmt.Fprintln(w)
	if r.Degenerate > 0 {
		fmt.Fprintf(w, "degenerate: %d\n", r.Degenerate)
	}
	if path != "" {
		fmt.Fprintf(w, "report:     %s\n", path)
	}
}
