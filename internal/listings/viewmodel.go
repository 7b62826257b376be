package listings

import (
	"slices"
	"strings"

	"github.com/tgienger/tung/internal/models"
)

// SortOption is the server-side ordering requested for the listing set
type SortOption string

const (
	SortNone      SortOption = "--"
	SortBestMatch SortOption = "best-match"
	SortDistance  SortOption = "distance"
	SortPrice     SortOption = "price"
	SortCategory  SortOption = "category"
	SortDeadline  SortOption = "deadline"
)

// SortOptions lists the options in the order the UI cycles them
var SortOptions = []SortOption{SortNone, SortBestMatch, SortDistance, SortPrice, SortCategory, SortDeadline}

// Next returns the option after s, wrapping around
func (s SortOption) Next() SortOption {
	for i, o := range SortOptions {
		if o == s {
			return SortOptions[(i+1)%len(SortOptions)]
		}
	}
	return SortNone
}

// Label is the human readable name of s
func (s SortOption) Label() string {
	switch s {
	case SortBestMatch:
		return "Best Match"
	case SortDistance:
		return "Distance"
	case SortPrice:
		return "Price"
	case SortCategory:
		return "Category Match"
	case SortDeadline:
		return "Deadline"
	}
	return "--"
}

// NeedsLocation reports whether the server needs the viewer's position to order by s
func (s SortOption) NeedsLocation() bool {
	return s == SortDistance || s == SortBestMatch
}

// Filters is the user-driven part of the view state. It is what gets
// persisted between sessions.
type Filters struct {
	Categories []int64      `json:"categories,omitempty"`
	Status     StatusFilter `json:"status"`
	Sort       SortOption   `json:"sort"`
	Query      string       `json:"query,omitempty"`
}

// DefaultFilters shows everything in server order
func DefaultFilters() Filters {
	return Filters{Status: FilterAll, Sort: SortNone}
}

// ViewModel is the complete state behind the listings screen. It changes
// only through its methods; fetch responses are applied with Resolve, which
// drops any response that is not for the most recently issued request.
type ViewModel struct {
	Listings   []models.Listing      `json:"listings"`
	Categories []models.TaskCategory `json:"categories"`
	Filters    Filters               `json:"filters"`
	ViewerUID  int64                 `json:"viewer_uid"`
	Location   models.Coordinates    `json:"location"`
	Located    bool                  `json:"located"` // false while on fallback coordinates
	Loading    bool                  `json:"loading"`
	Err        string                `json:"error,omitempty"`

	latest uint64
}

// NewViewModel returns an empty view model positioned at fallback
func NewViewModel(fallback models.Coordinates) *ViewModel {
	return &ViewModel{
		Filters:  DefaultFilters(),
		Location: fallback,
	}
}

// SetFilters replaces the filters, normalizing empty values
func (vm *ViewModel) SetFilters(f Filters) {
	if f.Status == "" {
		f.Status = FilterAll
	}
	if f.Sort == "" {
		f.Sort = SortNone
	}
	f.Categories = slices.Clone(f.Categories)
	vm.Filters = f
	vm.pruneCategories()
}

// SetQuery stores the trimmed search text
func (vm *ViewModel) SetQuery(q string) {
	vm.Filters.Query = strings.TrimSpace(q)
}

func (vm *ViewModel) SetStatus(f StatusFilter) {
	vm.Filters.Status = f
}

func (vm *ViewModel) SetSort(s SortOption) {
	vm.Filters.Sort = s
}

// SetViewer records who is browsing; 0 means anonymous
func (vm *ViewModel) SetViewer(uid int64) {
	vm.ViewerUID = uid
}

// Registry indexes the installed categories by id
func (vm *ViewModel) Registry() Categories {
	return NewCategories(vm.Categories)
}

// Selected reports whether category id is part of the filter
func (vm *ViewModel) Selected(id int64) bool {
	return slices.Contains(vm.Filters.Categories, id)
}

func (vm *ViewModel) ClearCategories() {
	vm.Filters.Categories = nil
}

// Suggestions derives autocomplete entries from the fetched set
func (vm *ViewModel) Suggestions() []Suggestion {
	return GenerateSuggestions(vm.Listings, vm.Filters.Query)
}

// Counts tallies the fetched set per status
func (vm *ViewModel) Counts() map[models.ListingStatus]int {
	return CountByStatus(vm.Listings)
}

// SetLocation records the viewer's resolved position
func (vm *ViewModel) SetLocation(c models.Coordinates, located bool) {
	vm.Location = c
	vm.Located = located
}

// SetCategories installs the category vocabulary and drops selections
// that no longer exist in it
func (vm *ViewModel) SetCategories(cats []models.TaskCategory) {
	vm.Categories = slices.Clone(cats)
	vm.pruneCategories()
}

func (vm *ViewModel) pruneCategories() {
	if len(vm.Categories) == 0 || len(vm.Filters.Categories) == 0 {
		return
	}
	reg := vm.Registry()
	vm.Filters.Categories = slices.DeleteFunc(vm.Filters.Categories, func(id int64) bool {
		_, ok := reg.Name(id)
		return !ok
	})
}

// ToggleCategory flips the selection of id and reports whether it is now selected
func (vm *ViewModel) ToggleCategory(id int64) bool {
	if i := slices.Index(vm.Filters.Categories, id); i >= 0 {
		vm.Filters.Categories = slices.Delete(vm.Filters.Categories, i, i+1)
		return false
	}
	vm.Filters.Categories = append(vm.Filters.Categories, id)
	return true
}

// Request builds the filter-and-sort query for the current state
func (vm *ViewModel) Request() models.ListingQuery {
	return models.ListingQuery{
		Categories: vm.Registry().Names(vm.Filters.Categories),
		Status:     string(vm.Filters.Status),
		Sort:       string(vm.Filters.Sort),
		Search:     vm.Filters.Query,
		UID:        vm.ViewerUID,
		Location:   vm.Location,
	}
}

// Begin issues a new request token and marks the view as loading
func (vm *ViewModel) Begin() uint64 {
	vm.latest++
	vm.Loading = true
	return vm.latest
}

// Resolve applies the outcome of the request identified by token. It
// returns false, changing nothing, when a newer request has been issued.
// On error the previous listings are kept.
func (vm *ViewModel) Resolve(token uint64, ls []models.Listing, err error) bool {
	if token != vm.latest {
		return false
	}
	vm.Loading = false
	if err != nil {
		vm.Err = err.Error()
		return true
	}
	vm.Err = ""
	vm.Listings = ls
	return true
}

// Invalidate abandons every in-flight request
func (vm *ViewModel) Invalidate() {
	vm.latest++
	vm.Loading = false
}

// Visible is the listing set to display
func (vm *ViewModel) Visible() []models.Listing {
	return Apply(vm.Listings, vm.Filters.Status, vm.Filters.Query)
}

// Patch replaces a listing with its server-confirmed state
func (vm *ViewModel) Patch(l models.Listing) {
	vm.Listings = ApplyPatch(vm.Listings, l.ID, l)
}
