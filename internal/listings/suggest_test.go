package listings

import (
	"fmt"
	"strings"
	"testing"

	"github.com/tgienger/tung/internal/models"
)

func TestGenerateSuggestionsKeepsKindsSeparate(t *testing.T) {
	ls := []models.Listing{{ID: 4, Name: "Deep Cleaning", Address: "Waterloo"}}

	got := GenerateSuggestions(ls, "clea")
	if len(got) != 2 {
		t.Fatalf("expected listing and category suggestions, got %+v", got)
	}
	if got[0].Kind != SuggestListing || got[0].Text != "Deep Cleaning" || got[0].ListingID != 4 {
		t.Fatalf("unexpected first suggestion: %+v", got[0])
	}
	if got[1].Kind != SuggestCategory || got[1].Text != "Cleaning services" || got[1].Category != "cleaning" {
		t.Fatalf("unexpected second suggestion: %+v", got[1])
	}
}

func TestGenerateSuggestionsOrderAndDedupe(t *testing.T) {
	ls := []models.Listing{
		{ID: 1, Name: "Garden help", Address: "1 Main St, Kitchener"},
		{ID: 2, Name: "garden help", Address: "2 Main St, Kitchener"},
		{ID: 3, Name: "Mow lawn", Description: "Some gardening in the back yard", Address: "9 Park Rd, Guelph"},
	}

	got := GenerateSuggestions(ls, "gard")
	var kinds []string
	for _, s := range got {
		kinds = append(kinds, string(s.Kind)+":"+s.Text)
	}
	want := []string{
		"listing:Garden help",
		"listing:Mow lawn - Some gardening in the back yard...",
		"category:Gardening services",
	}
	if strings.Join(kinds, "|") != strings.Join(want, "|") {
		t.Fatalf("got %v, want %v", kinds, want)
	}
}

func TestGenerateSuggestionsLocations(t *testing.T) {
	ls := []models.Listing{
		{ID: 1, Name: "A", Address: "1 Main St, Kitchener"},
		{ID: 2, Name: "B", Address: "7 King St, kitchener"},
		{ID: 3, Name: "C", Address: "Kitchener,"},
	}
	got := GenerateSuggestions(ls, "kitch")
	if len(got) != 2 {
		t.Fatalf("expected two distinct locations, got %+v", got)
	}
	if got[0].Text != "Near Kitchener" || got[0].Location != "Kitchener" {
		t.Fatalf("unexpected location suggestion: %+v", got[0])
	}
	if got[1].Location != "Kitchener," {
		t.Fatalf("empty last segment should fall back to the full address, got %+v", got[1])
	}
}

func TestGenerateSuggestionsMinimumLength(t *testing.T) {
	ls := []models.Listing{{ID: 1, Name: "cc"}}
	if got := GenerateSuggestions(ls, " c "); got != nil {
		t.Fatalf("expected nil for short query, got %+v", got)
	}
	if got := GenerateSuggestions(ls, "cc"); len(got) != 1 {
		t.Fatalf("expected one suggestion, got %+v", got)
	}
}

func TestGenerateSuggestionsCapped(t *testing.T) {
	var ls []models.Listing
	for i := range 20 {
		ls = append(ls, models.Listing{ID: int64(i), Name: fmt.Sprintf("Task %d", i)})
	}
	if got := GenerateSuggestions(ls, "task"); len(got) != MaxSuggestions {
		t.Fatalf("expected %d suggestions, got %d", MaxSuggestions, len(got))
	}
}

func TestSuggestionSearchTerm(t *testing.T) {
	tests := []struct {
		s    Suggestion
		want string
	}{
		{Suggestion{Kind: SuggestListing, Text: "Mow lawn - cut grass..."}, "Mow lawn"},
		{Suggestion{Kind: SuggestListing, Text: "Mow lawn"}, "Mow lawn"},
		{Suggestion{Kind: SuggestCategory, Text: "Pet services", Category: "pet"}, "pet"},
		{Suggestion{Kind: SuggestLocation, Text: "Near Guelph", Location: "Guelph"}, "Guelph"},
	}
	for _, tt := range tests {
		if got := tt.s.SearchTerm(); got != tt.want {
			t.Fatalf("%+v: got %q, want %q", tt.s, got, tt.want)
		}
	}
}

func TestGenerateSuggestionsMixedKindsUnderCap(t *testing.T) {
	towns := []string{"Cleanwater", "Cleanfield", "Cleanbrook"}
	mixed := func(n int) []models.Listing {
		var ls []models.Listing
		for i := 1; i <= n; i++ {
			town := "Waterloo"
			if i <= len(towns) {
				town = towns[i-1]
			}
			ls = append(ls, models.Listing{
				ID:          int64(i),
				Name:        fmt.Sprintf("Clean room %d", i),
				Description: "deep cleaning",
				Address:     fmt.Sprintf("%d Main St, %s", i, town),
			})
		}
		return ls
	}

	tests := []struct {
		name string
		ls   []models.Listing
		want []string
	}{
		{
			name: "all kinds fit",
			ls:   mixed(3),
			want: []string{
				"listing:Clean room 1", "listing:Clean room 2", "listing:Clean room 3",
				"location:Near Cleanwater", "location:Near Cleanfield", "location:Near Cleanbrook",
				"category:Cleaning services",
			},
		},
		{
			name: "categories truncated first",
			ls:   mixed(6),
			want: []string{
				"listing:Clean room 1", "listing:Clean room 2", "listing:Clean room 3",
				"listing:Clean room 4", "listing:Clean room 5", "listing:Clean room 6",
				"location:Near Cleanwater", "location:Near Cleanfield",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, s := range GenerateSuggestions(tt.ls, "clean") {
				got = append(got, string(s.Kind)+":"+s.Text)
			}
			if strings.Join(got, "|") != strings.Join(tt.want, "|") {
				t.Fatalf("got  %v\nwant %v", got, tt.want)
			}
		})
	}
}
