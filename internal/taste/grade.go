// VibeMatch - Listener Matching by Music Taste
// Copyright 2026 The VibeMatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Fraga9/VibeMatch

package taste

// Grade summarizes how well a profile's artists resolved.
type Grade string

const (
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
	GradeF Grade = "F"
)

// Grades lists all grades, best first.
var Grades = []Grade{GradeA, GradeB, GradeC, GradeD, GradeF}

// Confidence weighs artist resolutions by tier: exact 1, fuzzy 0.5,
// zero-shot 0.3, missing 0. It is 0 when there are no artists.
func Confidence(c CategoryStats) float64 {
	total := c.Total()
	if total == 0 {
		return 0
	}
	return (float64(c.Exact) + 0.5*float64(c.Fuzzy) + 0.3*float64(c.ZeroShot)) / float64(total)
}

// GradeFor maps artist resolution stats to a grade.
func GradeFor(c CategoryStats) Grade {
	switch conf := Confidence(c); {
	case conf > 0.8:
		return GradeA
	case conf > 0.6:
		return GradeB
	case conf > 0.4:
		return GradeC
	case conf > 0.2:
		return GradeD
	default:
		return GradeF
	}
}
