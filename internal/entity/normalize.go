package entity

import (
	"regexp"
	"strings"
)

var (
	whitespaceRe  = regexp.MustCompile(`\s+`)
	punctuationRe = regexp.MustCompile(`[.,!?;:'"()&/\-]+`)
)

// NormalizeName standardizes an external name for cache keys and matching:
// lowercase, punctuation stripped, whitespace collapsed. "The Dance-Hall,
// Cambridge" and "the dance hall cambridge" key the same entry.
func NormalizeName(name string) string {
	normalized := strings.ToLower(name)
	normalized = punctuationRe.ReplaceAllString(normalized, " ")
	normalized = whitespaceRe.ReplaceAllString(normalized, " ")
	return strings.TrimSpace(normalized)
}

// editDistance computes the Levenshtein distance between two strings using a
// two-row table.
func editDistance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)

	for j := 0; j <= len(rb); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min3(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}

	return prev[len(rb)]
}

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}

// candidate is one catalog name eligible for fuzzy matching, carrying the id
// to return when it wins.
type candidate struct {
	name string // normalized
	id   string
}

// bestFuzzyMatch returns the candidate closest to name under the edit
// distance budget. Names shorter than minLen never fuzzy-match; exact
// matching should have caught those already, and a two-edit budget on a
// four-letter name matches half the catalog.
func bestFuzzyMatch(name string, candidates []candidate, maxDistance, minLen int) (candidate, bool) {
	if len(name) < minLen {
		return candidate{}, false
	}

	best := candidate{}
	bestDist := maxDistance + 1

	for _, c := range candidates {
		if c.name == "" || len(c.name) < minLen {
			continue
		}
		d := editDistance(name, c.name)
		if d < bestDist {
			best = c
			bestDist = d
		}
	}

	return best, bestDist <= maxDistance
}
