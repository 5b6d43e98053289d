// VibeMatch - Listener Matching by Music Taste
// Copyright 2026 The VibeMatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Fraga9/VibeMatch

package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Fraga9/VibeMatch/internal/taste/catalog"
)

func NewCatalogCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect and convert embedding catalogs",
	}
	cmd.AddCommand(newCatalogConvertCmd(), newCatalogStatsCmd(e))
	return cmd
}

func newCatalogConvertCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "convert <in> <out>",
		Short: "Convert a catalog between msgpack, JSON and BadgerDB",
		Long: `Convert a catalog. The output format follows the output path:
"badger://dir" writes a BadgerDB snapshot, ".json" writes JSON, anything
else writes msgpack. Legacy layouts are accepted as input.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := catalog.Load(args[0])
			if err != nil {
				return err
			}
			if err := writeCatalog(c, args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d artists, %d tracks (dim %d) to %s\n",
				c.Len(catalog.Artist), c.Len(catalog.Track), c.Dim(), args[1])
			return nil
		},
	}
}

func writeCatalog(c *catalog.Catalog, out string) error {
	if dir, ok := strings.CutPrefix(out, "badger://"); ok {
		return catalog.WriteBadger(c, dir)
	}
	if strings.EqualFold(filepath.Ext(out), ".json") {
		return catalog.WriteJSON(c, out)
	}
	return catalog.WriteMsgpack(c, out)
}

// catalogStats is the JSON form of catalog stats.
type catalogStats struct {
	Source    string `json:"source"`
	Mode      string `json:"mode"`
	Dimension int    `json:"dimension"`
	Artists   int    `json:"artists"`
	Tracks    int    `json:"tracks"`
	Aliases   int    `json:"aliases"`
}

func newCatalogStatsCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "stats [path]",
		Short: "Show catalog size and dimension",
		Long:  `Show catalog statistics. Without a path the configured catalog.path is used.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := e.cfg.Catalog.Path
			if len(args) == 1 {
				path = args[0]
			}
			c, err := catalog.Load(path)
			if err != nil {
				return err
			}
			s := catalogStats{
				Source:    c.Source(),
				Mode:      c.Mode().String(),
				Dimension: c.Dim(),
				Artists:   c.Len(catalog.Artist),
				Tracks:    c.Len(catalog.Track),
				Aliases:   len(c.Aliases(catalog.Artist)) + len(c.Aliases(catalog.Track)),
			}
			if wantJSON(cmd) {
				return writeJSON(cmd, s)
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "source:    %s\n", s.Source)
			fmt.Fprintf(w, "mode:      %s\n", s.Mode)
			fmt.Fprintf(w, "dimension: %d\n", s.Dimension)
			fmt.Fprintf(w, "artists:   %d\n", s.Artists)
			fmt.Fprintf(w, "tracks:    %d\n", s.Tracks)
			fmt.Fprintf(w, "aliases:   %d\n", s.Aliases)
			return nil
		},
	}
}
