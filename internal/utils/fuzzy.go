package utils

import (
	"sort"
	"strings"
)

// MaxSuggestDistance is the largest edit distance FindSimilar accepts
const MaxSuggestDistance = 3

// FindSimilar returns up to limit candidates within MaxSuggestDistance of
// target, closest first, compared case-insensitively. Ties keep candidate
// order.
//
//	FindSimilar("Vectr", []string{"Vector", "Color"}, 3) // ["Vector"]
func FindSimilar(target string, candidates []string, limit int) []string {
	type match struct {
		value    string
		distance int
	}

	var matches []match
	lowered := strings.ToLower(target)
	for _, c := range candidates {
		if c == target {
			continue
		}
		if d := LevenshteinDistance(lowered, strings.ToLower(c)); d <= MaxSuggestDistance {
			matches = append(matches, match{c, d})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].distance < matches[j].distance
	})

	out := make([]string, 0, limit)
	for i := 0; i < len(matches) && i < limit; i++ {
		out = append(out, matches[i].value)
	}
	return out
}

// LevenshteinDistance is the minimum number of single-rune insertions,
// deletions or substitutions turning a into b.
func LevenshteinDistance(a, b string) int {
	s, t := []rune(a), []rune(b)
	if len(s) == 0 {
		return len(t)
	}

	prev := make([]int, len(t)+1)
	curr := make([]int, len(t)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(s); i++ {
		curr[0] = i
		for j := 1; j <= len(t); j++ {
			cost := 1
			if s[i-1] == t[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(t)]
}
