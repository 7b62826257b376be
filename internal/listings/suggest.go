package listings

import (
	"strings"
	"unicode/utf8"

	"github.com/tgienger/tung/internal/models"
)

// SuggestionKind identifies what a suggestion points at
type SuggestionKind string

const (
	SuggestListing  SuggestionKind = "listing"
	SuggestLocation SuggestionKind = "location"
	SuggestCategory SuggestionKind = "category"
)

const (
	// MaxSuggestions caps the combined suggestion list
	MaxSuggestions = 8
	// MinSuggestionQuery is the minimum trimmed query length, in runes
	MinSuggestionQuery = 2

	descriptionPrefix = 50
)

// Keywords is the static category vocabulary offered as suggestions
var Keywords = []string{
	"cleaning", "tutoring", "gardening", "cooking", "tech", "repair",
	"assembly", "painting", "moving", "delivery", "pet", "babysitting",
}

// Suggestion is one autocomplete entry
type Suggestion struct {
	Kind      SuggestionKind
	Text      string
	ListingID int64  // listing suggestions
	Category  string // category keyword
	Location  string // derived location segment
}

// SearchTerm returns the query that selecting s should run
func (s Suggestion) SearchTerm() string {
	switch s.Kind {
	case SuggestListing:
		if name, _, found := strings.Cut(s.Text, " - "); found {
			return name
		}
		return s.Text
	case SuggestCategory:
		if s.Category != "" {
			return s.Category
		}
	case SuggestLocation:
		if s.Location != "" {
			return s.Location
		}
	}
	return s.Text
}

// GenerateSuggestions derives autocomplete entries for query from ls.
// Listing matches come first, then locations, then category keywords, and
// the result is truncated to MaxSuggestions. Each kind deduplicates on its
// own key set.
func GenerateSuggestions(ls []models.Listing, query string) []Suggestion {
	q := strings.ToLower(strings.TrimSpace(query))
	if utf8.RuneCountInString(q) < MinSuggestionQuery {
		return nil
	}

	var out []Suggestion

	seenNames := make(map[string]bool)
	for _, l := range ls {
		name := strings.ToLower(l.Name)
		if seenNames[name] {
			continue
		}
		switch {
		case strings.Contains(name, q):
			out = append(out, Suggestion{Kind: SuggestListing, Text: l.Name, ListingID: l.ID})
		case strings.Contains(strings.ToLower(l.Description), q):
			text := l.Name + " - " + prefix(l.Description, descriptionPrefix) + "..."
			out = append(out, Suggestion{Kind: SuggestListing, Text: text, ListingID: l.ID})
		default:
			continue
		}
		seenNames[name] = true
	}

	seenLocations := make(map[string]bool)
	for _, l := range ls {
		if !strings.Contains(strings.ToLower(l.Address), q) {
			continue
		}
		loc := lastSegment(l.Address)
		key := strings.ToLower(loc)
		if seenLocations[key] {
			continue
		}
		seenLocations[key] = true
		out = append(out, Suggestion{Kind: SuggestLocation, Text: "Near " + loc, Location: loc})
	}

	seenKeywords := make(map[string]bool)
	for _, kw := range Keywords {
		if seenKeywords[kw] || !strings.Contains(kw, q) || !anyMentions(ls, kw) {
			continue
		}
		seenKeywords[kw] = true
		out = append(out, Suggestion{
			Kind:     SuggestCategory,
			Text:     strings.ToUpper(kw[:1]) + kw[1:] + " services",
			Category: kw,
		})
	}

	if len(out) > MaxSuggestions {
		out = out[:MaxSuggestions]
	}
	return out
}

func anyMentions(ls []models.Listing, keyword string) bool {
	for _, l := range ls {
		if strings.Contains(strings.ToLower(l.Name), keyword) ||
			strings.Contains(strings.ToLower(l.Description), keyword) {
			return true
		}
	}
	return false
}

// lastSegment returns the trimmed text after the last comma, or the whole
// address when that segment is empty
func lastSegment(address string) string {
	parts := strings.Split(address, ",")
	if seg := strings.TrimSpace(parts[len(parts)-1]); seg != "" {
		return seg
	}
	return address
}

func prefix(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
