package errors

import (
	"sort"
	"strings"

	"github.com/agext/levenshtein"
)

// ============================================================================
// Fuzzy Matching - "Did you mean?" suggestions
// ============================================================================

// FuzzyMatch represents a fuzzy match result with its distance.
type FuzzyMatch struct {
	Value    string
	Distance int
}

// threshold scales the allowed edit distance with the input length:
// 1 edit for short names, 2 for medium, 3 for long ones.
func threshold(input string) int {
	switch {
	case len(input) >= 7:
		return 3
	case len(input) >= 4:
		return 2
	default:
		return 1
	}
}

// FindClosestMatch returns the candidate nearest to input, or "" when none is
// close enough. Exact matches are never suggested.
func FindClosestMatch(input string, candidates []string) string {
	matches := FindTopMatches(input, candidates, 1)
	if len(matches) == 0 {
		return ""
	}
	return matches[0]
}

// FindTopMatches returns up to n candidates within the distance threshold,
// nearest first.
func FindTopMatches(input string, candidates []string, n int) []string {
	if len(input) == 0 || len(candidates) == 0 || n <= 0 {
		return nil
	}

	inputLower := strings.ToLower(input)
	limit := threshold(input)

	var matches []FuzzyMatch
	for _, candidate := range candidates {
		dist := levenshtein.Distance(inputLower, strings.ToLower(candidate), nil)
		if dist > 0 && dist <= limit {
			matches = append(matches, FuzzyMatch{Value: candidate, Distance: dist})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Distance != matches[j].Distance {
			return matches[i].Distance < matches[j].Distance
		}
		return matches[i].Value < matches[j].Value
	})

	var result []string
	for i := 0; i < len(matches) && i < n; i++ {
		result = append(result, matches[i].Value)
	}
	return result
}

// NewUndefinedVariable creates an unbound-variable error with a
// "Did you mean" hint when a known name is close.
func NewUndefinedVariable(name string, known []string) *TracerError {
	err := New("UNDEF-0001", map[string]any{"Name": name})
	if suggestion := FindClosestMatch(name, known); suggestion != "" {
		err.Hints = append(err.Hints, "Did you mean `"+suggestion+"`?")
	}
	return err
}

// Keywords are the reader's special forms, offered as suggestions for
// misspelled names.
var Keywords = []string{
	"gen", "if", "block", "define", "this", "with-address",
	"true", "false", "nil",
}
