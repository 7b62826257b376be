package views

import (
	"slices"
	"strings"
	"testing"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/tgienger/tung/internal/listings"
	"github.com/tgienger/tung/internal/models"
)

var waterloo = models.Coordinates{Latitude: 43.4723, Longitude: -80.5449}

func newListingsView(t *testing.T, session *Session) (*ListingsView, *fakeMarket) {
	t.Helper()
	svc, fm, _ := newTestService(t)
	v := NewListingsView(svc, session, waterloo, 0)
	v.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return v, fm
}

func deliver(v *ListingsView, cmd tea.Cmd) []tea.Msg {
	return pump(v, cmd)
}

func visibleIDs(v *ListingsView) []int64 {
	var ids []int64
	for _, l := range v.vm.Visible() {
		ids = append(ids, l.ID)
	}
	return ids
}

func TestListingsInitLoads(t *testing.T) {
	v, _ := newListingsView(t, &Session{})
	deliver(v, v.Init())

	if got := visibleIDs(v); !slices.Equal(got, []int64{1, 2, 3}) {
		t.Fatalf("visible = %v", got)
	}
	if len(v.vm.Categories) != 3 {
		t.Fatalf("categories = %+v", v.vm.Categories)
	}
	if v.vm.Loading {
		t.Fatal("still loading after response")
	}
	if out := v.View(); !strings.Contains(out, "Fix sink") {
		t.Fatalf("view missing listing:\n%s", out)
	}
}

func TestListingsIgnoresStaleResponse(t *testing.T) {
	v, _ := newListingsView(t, &Session{})

	first := collect(v.Refresh())
	second := collect(v.Refresh())

	stale, ok := find[listingsLoadedMsg](first)
	if !ok {
		t.Fatal("first fetch produced no response")
	}
	v.Update(stale)
	if v.vm.Listings != nil || !v.vm.Loading {
		t.Fatalf("stale response applied: %+v", v.vm.Listings)
	}

	latest, _ := find[listingsLoadedMsg](second)
	v.Update(latest)
	if len(v.vm.Listings) != 3 || v.vm.Loading {
		t.Fatalf("latest response not applied: loading=%v listings=%d", v.vm.Loading, len(v.vm.Listings))
	}
}

func TestListingsStatusCycleRefetchesAndPersists(t *testing.T) {
	v, fm := newListingsView(t, &Session{})
	deliver(v, v.Init())

	_, cmd := v.Update(keyRunes("s"))
	deliver(v, cmd)

	if v.vm.Filters.Status != listings.StatusFilter(models.StatusOpen) {
		t.Fatalf("status = %q", v.vm.Filters.Status)
	}
	if got := visibleIDs(v); !slices.Equal(got, []int64{1}) {
		t.Fatalf("visible = %v", got)
	}

	fm.mu.Lock()
	last := fm.queries[len(fm.queries)-1]
	fm.mu.Unlock()
	if !strings.Contains(last, "status=open") {
		t.Fatalf("query = %s", last)
	}
	if f := v.svc.LoadFilters(); f.Status != listings.StatusFilter(models.StatusOpen) {
		t.Fatalf("persisted status = %q", f.Status)
	}
}

func TestListingsSearchAndSuggestion(t *testing.T) {
	v, fm := newListingsView(t, &Session{})
	deliver(v, v.Init())

	_, cmd := v.Update(keyRunes("/"))
	deliver(v, cmd)
	if v.focus != FocusSearch {
		t.Fatalf("focus = %v", v.focus)
	}

	_, cmd = v.Update(keyRunes("sink"))
	deliver(v, cmd)
	if v.vm.Filters.Query != "sink" {
		t.Fatalf("query = %q", v.vm.Filters.Query)
	}
	if got := visibleIDs(v); !slices.Equal(got, []int64{1}) {
		t.Fatalf("visible = %v", got)
	}
	if len(v.suggestions) == 0 || v.suggestions[0].Kind != listings.SuggestListing {
		t.Fatalf("suggestions = %+v", v.suggestions)
	}

	fm.mu.Lock()
	last := fm.queries[len(fm.queries)-1]
	fm.mu.Unlock()
	if !strings.Contains(last, "search=sink") {
		t.Fatalf("query = %s", last)
	}

	v.Update(keyType(tea.KeyDown))
	_, cmd = v.Update(keyType(tea.KeyEnter))
	deliver(v, cmd)
	if v.vm.Filters.Query != "Fix sink" || v.search.Value() != "Fix sink" {
		t.Fatalf("query after pick = %q / %q", v.vm.Filters.Query, v.search.Value())
	}
	if v.focus != FocusList {
		t.Fatalf("focus after pick = %v", v.focus)
	}
}

func TestListingsCategoryToggle(t *testing.T) {
	v, fm := newListingsView(t, &Session{})
	deliver(v, v.Init())

	v.Update(keyRunes("f"))
	v.Update(keyRunes("l"))
	_, cmd := v.Update(keyRunes(" "))
	deliver(v, cmd)

	if !slices.Equal(v.vm.Filters.Categories, []int64{2}) {
		t.Fatalf("categories = %v", v.vm.Filters.Categories)
	}
	fm.mu.Lock()
	last := fm.queries[len(fm.queries)-1]
	fm.mu.Unlock()
	if !strings.Contains(last, "categories=Plumbing") {
		t.Fatalf("query = %s", last)
	}

	_, cmd = v.Update(keyRunes("x"))
	deliver(v, cmd)
	if len(v.vm.Filters.Categories) != 0 {
		t.Fatalf("categories after clear = %v", v.vm.Filters.Categories)
	}
}

func TestListingsSuspendDropsInFlight(t *testing.T) {
	v, _ := newListingsView(t, &Session{})

	cmd := v.Refresh()
	v.Suspend()
	deliver(v, cmd)
	if v.vm.Listings != nil || v.vm.Err != "" {
		t.Fatalf("response applied after suspend: %+v err=%q", v.vm.Listings, v.vm.Err)
	}

	deliver(v, v.Resume())
	if len(v.vm.Listings) != 3 {
		t.Fatalf("listings after resume = %d", len(v.vm.Listings))
	}
}

func TestListingsPatch(t *testing.T) {
	v, _ := newListingsView(t, &Session{})
	deliver(v, v.Init())

	taken := testListings[0]
	taken.Status = models.StatusTaken
	v.Update(ListingChanged{Listing: taken})

	if v.vm.Listings[0].Status != models.StatusTaken || v.vm.Listings[1].Status != models.StatusTaken || v.vm.Listings[2].ID != 3 {
		t.Fatalf("listings = %+v", v.vm.Listings)
	}

	// unknown ids are not inserted
	v.Update(ListingChanged{Listing: models.Listing{ID: 99}})
	if len(v.vm.Listings) != 3 {
		t.Fatalf("len = %d", len(v.vm.Listings))
	}
}

func TestListingsNavigation(t *testing.T) {
	v, _ := newListingsView(t, &Session{})
	deliver(v, v.Init())

	v.Update(keyRunes("j"))
	_, cmd := v.Update(keyType(tea.KeyEnter))
	open, ok := find[OpenListing](collect(cmd))
	if !ok || open.Listing.ID != 2 {
		t.Fatalf("open = %+v, %v", open, ok)
	}

	_, cmd = v.Update(keyRunes("n"))
	if _, ok := find[OpenAuth](collect(cmd)); !ok {
		t.Fatal("anonymous new should ask to log in")
	}

	v.session.User = &models.User{UID: 9, Name: "Sam"}
	_, cmd = v.Update(keyRunes("n"))
	if _, ok := find[OpenCreate](collect(cmd)); !ok {
		t.Fatal("logged in new should open the form")
	}
}

func TestListingsRestoresFilters(t *testing.T) {
	svc, fm, _ := newTestService(t)
	f := listings.Filters{Status: listings.FilterAll, Sort: listings.SortPrice, Categories: []int64{1}, Query: "clean"}
	if err := svc.SaveFilters(f); err != nil {
		t.Fatalf("save filters: %v", err)
	}

	v := NewListingsView(svc, &Session{}, waterloo, 0)
	if v.search.Value() != "clean" || v.vm.Filters.Sort != listings.SortPrice {
		t.Fatalf("filters = %+v", v.vm.Filters)
	}
	deliver(v, v.Init())

	// once categories are known the selection is sent by name
	fm.mu.Lock()
	defer fm.mu.Unlock()
	last := fm.queries[len(fm.queries)-1]
	if !strings.Contains(last, "categories=Cleaning") || !strings.Contains(last, "sort=price") {
		t.Fatalf("query = %s", last)
	}
}

func lastQuery(fm *fakeMarket) string {
	fm.mu.Lock()
	defer fm.mu.Unlock()
	if len(fm.queries) == 0 {
		return ""
	}
	return fm.queries[len(fm.queries)-1]
}

func TestListingsRetriesCategoriesOnRefresh(t *testing.T) {
	svc, fm, _ := newTestService(t)
	fm.failCategories = 1
	if err := svc.SaveFilters(listings.Filters{Categories: []int64{1}}); err != nil {
		t.Fatalf("save filters: %v", err)
	}

	v := NewListingsView(svc, &Session{}, waterloo, 0)
	deliver(v, v.Init())
	if len(v.vm.Categories) != 0 || !slices.Equal(v.vm.Filters.Categories, []int64{1}) {
		t.Fatalf("categories = %+v selected = %v", v.vm.Categories, v.vm.Filters.Categories)
	}

	_, cmd := v.Update(keyRunes("r"))
	deliver(v, cmd)

	fm.mu.Lock()
	calls := fm.categoryCalls
	fm.mu.Unlock()
	if calls != 2 || len(v.vm.Categories) != 3 {
		t.Fatalf("category calls = %d, registry = %d", calls, len(v.vm.Categories))
	}
	if q := lastQuery(fm); !strings.Contains(q, "categories=Cleaning") {
		t.Fatalf("query = %s", q)
	}
}

func TestListingsResumeReloadsDroppedCategories(t *testing.T) {
	svc, fm, _ := newTestService(t)
	if err := svc.SaveFilters(listings.Filters{Categories: []int64{1}}); err != nil {
		t.Fatalf("save filters: %v", err)
	}
	v := NewListingsView(svc, &Session{}, waterloo, 0)

	// the screen is left before the first load is delivered
	_ = v.Init()
	v.Suspend()

	deliver(v, v.Resume())
	if len(v.vm.Categories) != 3 {
		t.Fatalf("registry = %d", len(v.vm.Categories))
	}
	if q := lastQuery(fm); !strings.Contains(q, "categories=Cleaning") {
		t.Fatalf("query = %s", q)
	}
}

func TestListingsLocationWhileSuspended(t *testing.T) {
	svc, fm, _ := newTestService(t)
	if err := svc.SaveFilters(listings.Filters{Sort: listings.SortDistance}); err != nil {
		t.Fatalf("save filters: %v", err)
	}
	v := NewListingsView(svc, &Session{}, waterloo, 0)
	deliver(v, v.Init())

	v.Suspend()
	_, cmd := v.Update(LocationResolved{Coordinates: models.Coordinates{Latitude: 40, Longitude: -79}, Located: true})
	if cmd != nil || v.vm.Loading {
		t.Fatalf("fetched while suspended: loading=%v", v.vm.Loading)
	}

	msgs := collect(v.Resume())
	if _, ok := find[spinner.TickMsg](msgs); !ok {
		t.Fatalf("resume did not start the spinner: %#v", msgs)
	}
	for _, m := range msgs {
		v.Update(m)
	}
	if q := lastQuery(fm); !strings.Contains(q, "latitude=40") || !strings.Contains(q, "sort=distance") {
		t.Fatalf("query = %s", q)
	}
	if v.vm.Loading {
		t.Fatal("still loading after resume")
	}
}
