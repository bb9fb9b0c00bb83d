// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package spell

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// Suggest returns the candidate closest to word, or "" when none is close
// enough to be a plausible misspelling.
func Suggest(word string, candidates []string) string {
	best, bestDist := "", -1
	limit := maxDistance(word)

	for _, candidate := range candidates {
		if candidate == word {
			continue
		}
		if strings.EqualFold(candidate, word) {
			return candidate
		}
		dist := Distance(word, candidate)
		if dist > limit {
			continue
		}
		if bestDist == -1 || dist < bestDist {
			best, bestDist = candidate, dist
		}
	}
	return best
}

func maxDistance(word string) int {
	switch n := len([]rune(word)); {
	case n <= 3:
		return 1
	case n <= 8:
		return 2
	default:
		return 3
	}
}

// Distance is the Levenshtein edit distance between a and b, counted in
// runes.
func Distance(a, b string) int {
	return levenshtein.ComputeDistance(a, b)
}
