package library

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// Similarity returns how alike two strings are as a value in [0,1], using
// classic edit distance (unit-cost insert/delete/substitute) over the
// case-folded inputs: (maxLen - distance) / maxLen. Two empty strings are
// identical (1.0).
func Similarity(a, b string) float64 {
	a = strings.ToLower(a)
	b = strings.ToLower(b)
	if a == b {
		return 1.0
	}

	la := len([]rune(a))
	lb := len([]rune(b))
	maxLen := la
	if lb > maxLen {
		maxLen = lb
	}
	if maxLen == 0 {
		return 1.0
	}

	dist := levenshtein.ComputeDistance(a, b)
	return float64(maxLen-dist) / float64(maxLen)
}
