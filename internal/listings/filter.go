// Package listings turns fetched marketplace listings plus the viewer's
// filter state into the set shown on screen. Everything here is pure: no
// I/O, no clocks, and no function mutates its input slice.
package listings

import (
	"strings"

	"github.com/tgienger/tung/internal/models"
)

// StatusFilter selects listings by status. FilterAll disables the filter.
type StatusFilter string

// FilterAll passes every listing regardless of status
const FilterAll StatusFilter = "all"

// StatusFilters lists the filter values in the order the UI cycles them
var StatusFilters = []StatusFilter{
	FilterAll,
	StatusFilter(models.StatusOpen),
	StatusFilter(models.StatusTaken),
	StatusFilter(models.StatusCompleted),
	StatusFilter(models.StatusCancelled),
}

// Next returns the filter after f in StatusFilters, wrapping around
func (f StatusFilter) Next() StatusFilter {
	for i, s := range StatusFilters {
		if s == f {
			return StatusFilters[(i+1)%len(StatusFilters)]
		}
	}
	return FilterAll
}

// FilterByStatus keeps listings whose status equals f exactly.
// FilterAll returns the input unchanged.
func FilterByStatus(ls []models.Listing, f StatusFilter) []models.Listing {
	if f == FilterAll || f == "" {
		return ls
	}
	out := make([]models.Listing, 0, len(ls))
	for _, l := range ls {
		if string(l.Status) == string(f) {
			out = append(out, l)
		}
	}
	return out
}

// FilterByCategoryAndStatus applies the client-held filters to a fetched set.
// Category restriction is performed by the server when the set is fetched,
// so selectedCategories only documents the state the set was fetched with
// and the status filter is the only one applied here.
func FilterByCategoryAndStatus(ls []models.Listing, selectedCategories []int64, f StatusFilter) []models.Listing {
	return FilterByStatus(ls, f)
}

// MatchesQuery reports whether the trimmed, lowercased query is a substring
// of the listing's name, description or address. An empty query matches.
func MatchesQuery(l models.Listing, query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(l.Name), q) ||
		strings.Contains(strings.ToLower(l.Description), q) ||
		strings.Contains(strings.ToLower(l.Address), q)
}

// Search keeps the listings matching query
func Search(ls []models.Listing, query string) []models.Listing {
	if strings.TrimSpace(query) == "" {
		return ls
	}
	out := make([]models.Listing, 0, len(ls))
	for _, l := range ls {
		if MatchesQuery(l, query) {
			out = append(out, l)
		}
	}
	return out
}

// Apply composes the local filters, cheapest first
func Apply(ls []models.Listing, f StatusFilter, query string) []models.Listing {
	return Search(FilterByStatus(ls, f), query)
}

// CountByStatus tallies listings per known status
func CountByStatus(ls []models.Listing) map[models.ListingStatus]int {
	counts := make(map[models.ListingStatus]int, len(models.Statuses))
	for _, l := range ls {
		counts[l.Status]++
	}
	return counts
}
