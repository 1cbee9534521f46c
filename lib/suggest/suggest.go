// Copyright 2026 The ECS Authors
// SPDX-License-Identifier: Apache-2.0

// Package suggest finds the closest known name to a mistyped one, for
// "did you mean" hints on commands, flags, and scene identifiers.
package suggest

import "strings"

// MaxDistance is the largest edit distance Closest will suggest across.
// Three catches common typos (transpositions, dropped characters, extra
// characters) without proposing unrelated names.
const MaxDistance = 3

// Closest returns the candidate nearest to input by case-insensitive
// edit distance, or "" if none is within MaxDistance. Ties go to the
// earliest candidate.
func Closest(input string, candidates []string) string {
	bestName := ""
	bestDistance := MaxDistance + 1

	lowered := strings.ToLower(input)
	for _, candidate := range candidates {
		distance := Distance(lowered, strings.ToLower(candidate))
		if distance < bestDistance {
			bestDistance = distance
			bestName = candidate
		}
	}

	return bestName
}

// Distance computes the Levenshtein edit distance between two strings:
// the minimum number of single-byte insertions, deletions, or
// substitutions required to change one into the other.
func Distance(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	// Use a single row of the distance matrix, updated in place.
	// This is O(min(m,n)) space instead of O(m*n).
	if len(a) > len(b) {
		a, b = b, a
	}

	previous := make([]int, len(a)+1)
	for i := range previous {
		previous[i] = i
	}

	for j := 1; j <= len(b); j++ {
		current := make([]int, len(a)+1)
		current[0] = j

		for i := 1; i <= len(a); i++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}

			deletion := previous[i] + 1
			insertion := current[i-1] + 1
			substitution := previous[i-1] + cost

			current[i] = min(deletion, min(insertion, substitution))
		}

		previous = current
	}

	return previous[len(a)]
}
