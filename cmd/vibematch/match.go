// VibeMatch - Listener Matching by Music Taste
// Copyright 2026 The VibeMatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Fraga9/VibeMatch

package main

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Fraga9/VibeMatch/internal/similarity"
)

func NewMatchCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "match <username>",
		Short: "List the listeners closest to a stored user",
		Args:  cobra.ExactArgs(1),
		RunE:  makeMatchRunner(e),
	}
	cmd.Flags().Int("limit", 0, "Number of matches (default: similarity.match_limit)")
	cmd.Flags().Int("dim", 0, "Vector dimension of the store (default: catalog.dimension)")
	return cmd
}

func makeMatchRunner(e *env) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		dim, _ := cmd.Flags().GetInt("dim")
		if dim <= 0 {
			dim = e.cfg.Catalog.Dimension
		}

		store, err := e.store(dim)
		if err != nil {
			return err
		}
		defer store.Close()

		matcher := similarity.NewMatcher(store, e.cfg.Similarity.MatchLimit, e.logger)
		matches, err := matcher.TopMatches(cmd.Context(), args[0], limit)
		switch {
		case errors.Is(err, similarity.ErrNotFound):
			return fmt.Errorf("no embedding stored for %q; run embed --store first", args[0])
		case errors.Is(err, similarity.ErrDegenerate):
			return fmt.Errorf("%q has no usable embedding (no catalog artists)", args[0])
		case err != nil:
			return err
		}

		if wantJSON(cmd) {
			return writeJSON(cmd, matches)
		}
		if len(matches) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "no matches")
			return nil
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "USER\tCOMPAT\tSHARED ARTISTS")
		for _, m := range matches {
			fmt.Fprintf(tw, "%s\t%d%%\t%s\n", m.Username, m.Compatibility, strings.Join(m.SharedArtists, ", "))
		}
		return tw.Flush()
	}
}
