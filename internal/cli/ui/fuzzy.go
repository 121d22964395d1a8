package ui

import (
	"sort"
	"strings"
)

const (
	// DefaultMaxDistance is the largest edit distance FindSimilar accepts
	DefaultMaxDistance = 3
	// DefaultMaxSuggestions caps the number of suggestions returned
	DefaultMaxSuggestions = 3
)

// FuzzyMatchOptions configures fuzzy matching behavior
type FuzzyMatchOptions struct {
	MaxDistance    int
	MaxSuggestions int
	CaseSensitive  bool
}

// FindSimilar returns the candidates within MaxDistance edits of target,
// closest first. Ties keep candidate order.
//
//	FindSimilar("jsno", []string{"debug", "sexpr", "json"}, nil) // ["json"]
func FindSimilar(target string, candidates []string, opts *FuzzyMatchOptions) []string {
	o := FuzzyMatchOptions{MaxDistance: DefaultMaxDistance, MaxSuggestions: DefaultMaxSuggestions}
	if opts != nil {
		o.CaseSensitive = opts.CaseSensitive
		if opts.MaxDistance > 0 {
			o.MaxDistance = opts.MaxDistance
		}
		if opts.MaxSuggestions > 0 {
			o.MaxSuggestions = opts.MaxSuggestions
		}
	}

	type match struct {
		value    string
		distance int
	}

	var matches []match
	for _, candidate := range candidates {
		a, b := target, candidate
		if !o.CaseSensitive {
			a, b = strings.ToLower(a), strings.ToLower(b)
		}
		if d := LevenshteinDistance(a, b); d <= o.MaxDistance {
			matches = append(matches, match{candidate, d})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].distance < matches[j].distance
	})

	result := make([]string, 0, min(len(matches), o.MaxSuggestions))
	for i := 0; i < len(matches) && i < o.MaxSuggestions; i++ {
		result = append(result, matches[i].value)
	}
	return result
}

// LevenshteinDistance counts the single-rune insertions, deletions and
// substitutions needed to turn s1 into s2.
func LevenshteinDistance(s1, s2 string) int {
	a, b := []rune(s1), []rune(s2)
	if len(a) == 0 {
		return len(b)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}

	return prev[len(b)]
}
