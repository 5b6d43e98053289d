// VibeMatch - Listener Matching by Music Taste
// Copyright 2026 The VibeMatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Fraga9/VibeMatch

package taste

import (
	"regexp"
	"sort"
	"strings"

	"github.com/Fraga9/VibeMatch/internal/taste/catalog"
)

// genreArtists is how many leading artists feed genre inference.
const genreArtists = 10

// noisyTags are user tags that say nothing about genre.
var noisyTags = map[string]struct{}{
	"seen live": {}, "favorites": {}, "favourites": {}, "favorite": {}, "favourite": {},
	"albums i own": {}, "love": {}, "awesome": {}, "beautiful": {}, "amazing": {},
	"male vocalists": {}, "female vocalists": {}, "male vocalist": {}, "female vocalist": {},
	"american": {}, "british": {}, "uk": {}, "usa": {}, "english": {}, "canadian": {},
	"german": {}, "french": {}, "swedish": {}, "japanese": {}, "australian": {},
	"mexican": {}, "spanish": {}, "brazilian": {}, "korean": {}, "irish": {},
	"under 2000 listeners": {}, "spotify": {}, "check out": {},
}

var decadeTag = regexp.MustCompile(`^(19|20)?\d0s$`)

// keywordGenres is used when a profile carries no tags at all.
var keywordGenres = []struct {
	genre   string
	artists []string
}{
	{"electronic", []string{"daft punk", "aphex twin", "boards of canada", "autechre"}},
	{"rock", []string{"radiohead", "the beatles", "pink floyd", "led zeppelin", "nirvana"}},
	{"hip-hop", []string{"kendrick lamar", "kanye west", "jay-z", "eminem"}},
	{"indie", []string{"arcade fire", "the national", "vampire weekend"}},
}

func isNoisyTag(tag string) bool {
	if _, ok := noisyTags[tag]; ok {
		return true
	}
	return decadeTag.MatchString(tag)
}

// InferGenres ranks the tags of the first ten artists by how many of them
// carry the tag, breaking ties by first appearance. Noisy tags (favourites,
// decades, nationalities and the like) are dropped. Without tags a small
// keyword table over the artist names is used.
func InferGenres(artistTags map[string][]string, artists []string, limit int) []string {
	if limit <= 0 {
		return nil
	}
	artists = capList(artists, genreArtists)

	tagsByArtist := make(map[string][]string, len(artistTags))
	for name, tags := range artistTags {
		tagsByArtist[catalog.Normalize(name)] = tags
	}
	if len(tagsByArtist) == 0 {
		return keywordFallback(artists, limit)
	}

	type tally struct {
		tag   string
		count int
		first int
	}
	counts := make(map[string]*tally)
	for _, a := range artists {
		seen := make(map[string]struct{})
		for _, raw := range tagsByArtist[catalog.Normalize(a)] {
			tag := catalog.Normalize(raw)
			if tag == "" || isNoisyTag(tag) {
				continue
			}
			if _, dup := seen[tag]; dup {
				continue
			}
			seen[tag] = struct{}{}
			t, ok := counts[tag]
			if !ok {
				t = &tally{tag: tag, first: len(counts)}
				counts[tag] = t
			}
			t.count++
		}
	}

	ranked := make([]*tally, 0, len(counts))
	for _, t := range counts {
		ranked = append(ranked, t)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].first < ranked[j].first
	})

	out := make([]string, 0, min(limit, len(ranked)))
	for _, t := range capList(ranked, limit) {
		out = append(out, t.tag)
	}
	return out
}

func keywordFallback(artists []string, limit int) []string {
	var out []string
	for _, kg := range keywordGenres {
		for _, a := range artists {
			if containsAny(catalog.Normalize(a), kg.artists) {
				out = append(out, kg.genre)
				break
			}
		}
	}
	return capList(out, limit)
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
