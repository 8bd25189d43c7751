package ui

import (
	"sort"
	"strings"

	cerrors "github.com/dimc-lang/dimc/compiler/errors"
)

const (
	// DefaultMaxDistance is the default maximum edit distance to consider for fuzzy matching
	DefaultMaxDistance = 3
	// DefaultMaxSuggestions is the default maximum number of suggestions to return
	DefaultMaxSuggestions = 3
)

// FuzzyMatchOptions configures fuzzy matching behavior
type FuzzyMatchOptions struct {
	MaxDistance    int  // default 3
	MaxSuggestions int  // default 3
	CaseSensitive  bool
}

// FindSimilar returns the candidates closest to target, nearest first.
//
//	FindSimilar("metres", []string{"meters", "seconds", "metres_per_second"}, nil)
//	// ["meters"]
func FindSimilar(target string, candidates []string, opts *FuzzyMatchOptions) []string {
	maxDistance, maxSuggestions := DefaultMaxDistance, DefaultMaxSuggestions
	caseSensitive := false
	if opts != nil {
		if opts.MaxDistance > 0 {
			maxDistance = opts.MaxDistance
		}
		if opts.MaxSuggestions > 0 {
			maxSuggestions = opts.MaxSuggestions
		}
		caseSensitive = opts.CaseSensitive
	}

	type match struct {
		value    string
		distance int
	}
	var matches []match

	for _, candidate := range candidates {
		a, b := target, candidate
		if !caseSensitive {
			a, b = strings.ToLower(a), strings.ToLower(b)
		}
		if d := cerrors.EditDistance(a, b); d <= maxDistance {
			matches = append(matches, match{candidate, d})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].distance < matches[j].distance
	})

	result := make([]string, 0, min(len(matches), maxSuggestions))
	for i := 0; i < len(matches) && i < maxSuggestions; i++ {
		result = append(result, matches[i].value)
	}
	return result
}
