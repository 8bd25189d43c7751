package errors

import (
	"strings"
)

// suggestFix returns a generic suggestion for codes that have one. Phases
// that know better (e.g. a closest declared name) attach their own.
func suggestFix(err CompilerError) *FixSuggestion {
	switch err.Code {
	case ErrUnterminatedString:
		return suggestCloseString(err)
	case ErrUnmatchedParen:
		return &FixSuggestion{Description: "Add the missing ')'", Confidence: 0.8}
	case ErrBaseUnitWithDefinition:
		return &FixSuggestion{
			Description: "A unit is either a base unit (@base(Dimension)) or defined by an expression, not both",
			Confidence:  0.9,
		}
	case ErrMissingUnitDefinition:
		return &FixSuggestion{
			Description: "Declare the unit as @base(Dimension) or give it a definition",
			NewCode:     "unit name = factor * other_unit",
			Confidence:  0.7,
		}
	case ErrRationalExponent:
		return &FixSuggestion{
			Description: "Enable rational exponents",
			NewCode:     "build:\n  rational_exponents: true",
			Confidence:  0.9,
		}
	case ErrInvalidDimensionLiteral:
		return &FixSuggestion{
			Description: "Dimensions carry no magnitude; use 1 for a dimensionless quantity",
			Confidence:  0.9,
		}
	case ErrCyclicDefinition:
		return &FixSuggestion{
			Description: "Define one of the entries in the cycle without referring back to the others",
			Confidence:  0.6,
		}
	case ErrInvalidRootOperation:
		return &FixSuggestion{
			Description: "Every exponent must be divisible by the degree of the root; enable build.rational_exponents for fractional dimensions",
			Confidence:  0.6,
		}
	default:
		return nil
	}
}

func suggestCloseString(err CompilerError) *FixSuggestion {
	suggestion := &FixSuggestion{Description: "Add the closing '\"'", Confidence: 0.9}
	if len(err.Context.SourceLines) == 0 {
		return suggestion
	}

	line := err.Context.SourceLines[err.Context.Highlight.Line]
	suggestion.OldCode = strings.TrimSpace(line)
	suggestion.NewCode = strings.TrimSpace(line) + `"`
	return suggestion
}

// ClosestMatch returns the candidate nearest to name by edit distance, or
// "" when none is close enough to be a plausible typo.
func ClosestMatch(name string, candidates []string) string {
	best := ""
	bestDistance := len(name)/3 + 1
	for _, c := range candidates {
		if c == name {
			continue
		}
		if d := EditDistance(strings.ToLower(name), strings.ToLower(c)); d <= bestDistance {
			if d < bestDistance || best == "" {
				best, bestDistance = c, d
			}
		}
	}
	return best
}

// EditDistance is the Levenshtein distance between a and b, counted in runes.
func EditDistance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}
