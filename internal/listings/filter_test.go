package listings

import (
	"testing"

	"github.com/tgienger/tung/internal/models"
)

func sample() []models.Listing {
	return []models.Listing{
		{ID: 1, Status: models.StatusOpen, Name: "Fix sink", Address: "12 King St, Waterloo"},
		{ID: 2, Status: models.StatusTaken, Name: "Clean house", Description: "Two floors"},
		{ID: 3, Status: models.StatusOpen, Name: "Walk dog", Description: "Needs a clean leash"},
	}
}

func ids(ls []models.Listing) []int64 {
	out := make([]int64, len(ls))
	for i, l := range ls {
		out[i] = l.ID
	}
	return out
}

func equalIDs(a []int64, b ...int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestFilterByStatus(t *testing.T) {
	ls := sample()[:2]

	got := FilterByStatus(ls, StatusFilter(models.StatusOpen))
	if !equalIDs(ids(got), 1) {
		t.Fatalf("open filter: got %v", ids(got))
	}

	if got := FilterByStatus(ls, FilterAll); !equalIDs(ids(got), 1, 2) {
		t.Fatalf("all filter: got %v", ids(got))
	}
	if got := FilterByStatus(ls, StatusFilter(models.StatusCancelled)); len(got) != 0 {
		t.Fatalf("cancelled filter: expected nothing, got %v", ids(got))
	}
	if ls[1].Status != models.StatusTaken || len(ls) != 2 {
		t.Fatalf("input mutated: %+v", ls)
	}
}

func TestFilterByCategoryAndStatusIgnoresCategories(t *testing.T) {
	got := FilterByCategoryAndStatus(sample(), []int64{99}, StatusFilter(models.StatusOpen))
	if !equalIDs(ids(got), 1, 3) {
		t.Fatalf("got %v", ids(got))
	}
}

func TestSearch(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  []int64
	}{
		{"name match", "clean", []int64{2, 3}},
		{"case and whitespace", "  CLEAN HOUSE ", []int64{2}},
		{"address match", "waterloo", []int64{1}},
		{"empty query", "", []int64{1, 2, 3}},
		{"blank query", "   ", []int64{1, 2, 3}},
		{"no match", "plumbing", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Search(sample(), tt.query)
			if !equalIDs(ids(got), tt.want...) {
				t.Fatalf("got %v, want %v", ids(got), tt.want)
			}
		})
	}
}

func TestSearchExcludesNonMatching(t *testing.T) {
	got := Search(sample()[:2], "clean")
	if !equalIDs(ids(got), 2) {
		t.Fatalf("expected only listing 2, got %v", ids(got))
	}
}

func TestApplyComposesStatusAndQuery(t *testing.T) {
	got := Apply(sample(), StatusFilter(models.StatusOpen), "clean")
	if !equalIDs(ids(got), 3) {
		t.Fatalf("got %v", ids(got))
	}
}

func TestStatusFilterNextWraps(t *testing.T) {
	f := FilterAll
	for range StatusFilters {
		f = f.Next()
	}
	if f != FilterAll {
		t.Fatalf("expected to wrap back to all, got %q", f)
	}
	if StatusFilter("bogus").Next() != FilterAll {
		t.Fatalf("unknown filter should reset to all")
	}
}

func TestCountByStatus(t *testing.T) {
	counts := CountByStatus(sample())
	if counts[models.StatusOpen] != 2 || counts[models.StatusTaken] != 1 || counts[models.StatusCompleted] != 0 {
		t.Fatalf("unexpected counts: %v", counts)
	}
}
