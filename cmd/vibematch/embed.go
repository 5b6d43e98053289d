// VibeMatch - Listener Matching by Music Taste
// Copyright 2026 The VibeMatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Fraga9/VibeMatch

package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Fraga9/VibeMatch/internal/models"
	"github.com/Fraga9/VibeMatch/internal/similarity"
	"github.com/Fraga9/VibeMatch/internal/taste"
)

func NewEmbedCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "embed <profile.json>",
		Short: "Embed one listening profile",
		Long: `Build the taste embedding of a profile document and print its resolution
metadata. Use "-" to read the profile from stdin. With --store the embedding
is written to the similarity store.`,
		Args: cobra.ExactArgs(1),
		RunE: makeEmbedRunner(e),
	}
	cmd.Flags().Bool("store", false, "Write the embedding to the similarity store")
	cmd.Flags().Bool("vector", false, "Include the vector in JSON output")
	return cmd
}

// embedOutput is the JSON form of an embed result.
type embedOutput struct {
	Username   string         `json:"username"`
	Degenerate bool           `json:"degenerate"`
	Grade      taste.Grade    `json:"grade"`
	Confidence float64        `json:"confidence"`
	Counts     map[string]int `json:"counts"`
	Missing    []string       `json:"missing_artists,omitempty"`
	TopArtists []string       `json:"top_artists"`
	TopGenres  []string       `json:"top_genres"`
	Stored     bool           `json:"stored"`
	Catalog    string         `json:"catalog"`
	Vector     []float32      `json:"vector,omitempty"`
}

func makeEmbedRunner(e *env) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		profile, err := readProfile(cmd, args[0])
		if err != nil {
			return err
		}

		engine, err := e.engine()
		if err != nil {
			return err
		}
		defer engine.Close()

		res, err := engine.Embed(cmd.Context(), profile)
		if err != nil {
			return fmt.Errorf("embed %s: %w", profile.Username, err)
		}

		out := embedOutput{
			Username:   profile.Username,
			Degenerate: res.Embedding.Degenerate,
			Grade:      res.Metadata.Grade,
			Confidence: res.Metadata.Confidence,
			Counts:     res.Metadata.Counts(),
			Missing:    res.Metadata.Artists.MissingNames,
			TopArtists: res.TopArtists,
			TopGenres:  res.TopGenres,
			Catalog:    engine.Catalog().Mode().String(),
		}
		if withVector, _ := cmd.Flags().GetBool("vector"); withVector {
			out.Vector = res.Embedding.Vector
		}

		if doStore, _ := cmd.Flags().GetBool("store"); doStore {
			if err := storeEmbedding(cmd, e, engine, profile, res); err != nil {
				return err
			}
			out.Stored = !res.Embedding.Degenerate || e.cfg.Similarity.AllowDegenerate
		}

		if wantJSON(cmd) {
			return writeJSON(cmd, out)
		}
		printEmbed(cmd.OutOrStdout(), &out)
		return nil
	}
}

func readProfile(cmd *cobra.Command, path string) (*models.UserProfile, error) {
	var r io.Reader = cmd.InOrStdin()
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open profile: %w", err)
		}
		defer f.Close()
		r = f
	}
	return models.DecodeProfile(r)
}

func storeEmbedding(cmd *cobra.Command, e *env, engine *taste.Engine, p *models.UserProfile, res *taste.Result) error {
	store, err := e.store(engine.Catalog().Dim())
	if err != nil {
		return err
	}
	defer store.Close()

	err = store.Upsert(cmd.Context(), similarity.Record{
		Username:     p.Username,
		Vector:       res.Embedding.Vector,
		TopArtists:   res.TopArtists,
		TopGenres:    res.TopGenres,
		Country:      p.Country,
		ProfileImage: p.ProfileImage,
		IsReal:       true,
		Degenerate:   res.Embedding.Degenerate,
		Grade:        string(res.Metadata.Grade),
	})
	if errors.Is(err, similarity.ErrDegenerate) {
		e.logger.Warn().Str("username", p.Username).Msg("degenerate embedding not stored")
		return nil
	}
	return err
}

func printEmbed(w io.Writer, out *embedOutput) {
	fmt.Fprintf(w, "user:        %s\n", out.Username)
	fmt.Fprintf(w, "grade:       %s (confidence %.2f)\n", out.Grade, out.Confidence)
	fmt.Fprintf(w, "artists:     exact=%d fuzzy=%d zero_shot=%d missing=%d\n",
		out.Counts["artists_exact"], out.Counts["artists_fuzzy"], out.Counts["artists_zero_shot"], out.Counts["artists_missing"])
	fmt.Fprintf(w, "tracks:      exact=%d fuzzy=%d zero_shot=%d missing=%d\n",
		out.Counts["tracks_exact"], out.Counts["tracks_fuzzy"], out.Counts["tracks_zero_shot"], out.Counts["tracks_missing"])
	fmt.Fprintf(w, "top artists: %s\n", strings.Join(out.TopArtists, ", "))
	fmt.Fprintf(w, "top genres:  %s\n", strings.Join(out.TopGenres, ", "))
	if out.Catalog == "synthetic" {
		fmt.Fprintln(w, "warning:     synthetic catalog, matches are not meaningful")
	}
	if out.Degenerate {
		fmt.Fprintln(w, "warning:     no catalog signal, embedding is random")
	}
	if out.Stored {
		fmt.Fprintln(w, "stored:      yes")
	}
}
