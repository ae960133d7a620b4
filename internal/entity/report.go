package entity

import (
	"sort"
	"time"
)

// UnmatchedName is one external name that failed resolution, with how many
// times it was seen this run.
type UnmatchedName struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// UnmatchedReport summarizes the cache into a review report: the unresolved
// names per kind plus total/unmatched counts over every distinct name seen.
type UnmatchedReport struct {
	Venues     []UnmatchedName `json:"venues"`
	Organizers []UnmatchedName `json:"organizers"`
	Categories []UnmatchedName `json:"categories"`

	TotalVenues         int `json:"totalVenues"`
	UnmatchedVenues     int `json:"unmatchedVenues"`
	TotalOrganizers     int `json:"totalOrganizers"`
	UnmatchedOrganizers int `json:"unmatchedOrganizers"`
	TotalCategories     int `json:"totalCategories"`
	UnmatchedCategories int `json:"unmatchedCategories"`

	GeneratedAt time.Time `json:"generatedAt"`

	// Suggestions is filled by the optional AI suggester, never by the
	// report itself.
	Suggestions []Suggestion `json:"suggestions,omitempty"`
}

// UnmatchedReport reads the current cache state into a report. Pure read:
// callable at any point during or after a run without mutating anything.
func (c *Cache) UnmatchedReport() UnmatchedReport {
	c.mu.Lock()
	defer c.mu.Unlock()

	report := UnmatchedReport{
		Venues:      sortedUnmatched(c.unmatchedVenues),
		Organizers:  sortedUnmatched(c.unmatchedOrganizers),
		Categories:  sortedUnmatched(c.unmatchedCategories),
		GeneratedAt: time.Now().UTC(),
	}

	report.UnmatchedVenues = len(c.unmatchedVenues)
	report.TotalVenues = len(c.venues) + len(c.unmatchedVenues)
	report.UnmatchedOrganizers = len(c.unmatchedOrganizers)
	report.TotalOrganizers = len(c.organizers) + len(c.unmatchedOrganizers)
	report.UnmatchedCategories = len(c.unmatchedCategories)
	report.TotalCategories = len(c.categories) + len(c.unmatchedCategories)

	return report
}

// sortedUnmatched flattens an unmatched map, most-seen first, name as
// tiebreak so output is stable.
func sortedUnmatched(m map[string]int) []UnmatchedName {
	out := make([]UnmatchedName, 0, len(m))
	for name, count := range m {
		out = append(out, UnmatchedName{Name: name, Count: count})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})

	return out
}
