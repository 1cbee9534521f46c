// Copyright 2026 The ECS Authors
// SPDX-License-Identifier: Apache-2.0

package scenario

import "slices"

// naturalLess orders strings with embedded decimal numbers compared by
// value, so "2" sorts before "10" and "scene9" before "scene10". Runs
// of digits that compare equal by value fall back to their length
// ("01" after "1") so distinct strings never compare equal.
func naturalLess(a, b string) bool {
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		ca, cb := a[i], b[j]
		if isDigit(ca) && isDigit(cb) {
			startA, startB := i, j
			for i < len(a) && isDigit(a[i]) {
				i++
			}
			for j < len(b) && isDigit(b[j]) {
				j++
			}
			numberA := trimZeros(a[startA:i])
			numberB := trimZeros(b[startB:j])
			if len(numberA) != len(numberB) {
				return len(numberA) < len(numberB)
			}
			if numberA != numberB {
				return numberA < numberB
			}
			if i-startA != j-startB {
				return i-startA < j-startB
			}
			continue
		}
		if ca != cb {
			return ca < cb
		}
		i++
		j++
	}
	return len(a)-i < len(b)-j
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func trimZeros(digits string) string {
	for len(digits) > 1 && digits[0] == '0' {
		digits = digits[1:]
	}
	return digits
}

// sortedKeys returns the keys of m in natural order.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	slices.SortFunc(keys, func(a, b string) int {
		switch {
		case naturalLess(a, b):
			return -1
		case naturalLess(b, a):
			return 1
		default:
			return 0
		}
	})
	return keys
}
