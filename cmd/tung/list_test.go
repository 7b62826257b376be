package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/tgienger/tung/internal/api"
	"github.com/tgienger/tung/internal/config"
	"github.com/tgienger/tung/internal/db"
	"github.com/tgienger/tung/internal/listings"
	"github.com/tgienger/tung/internal/market"
	"github.com/tgienger/tung/internal/models"
)

type listServer struct {
	mu       sync.Mutex
	paths    []string
	queries  []string
	failWith string
}

func (s *listServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.URL.Path == "/taskcategories" {
		_ = json.NewEncoder(w).Encode([]models.TaskCategory{{ID: 1, Name: "Cleaning"}, {ID: 2, Name: "Plumbing"}})
		return
	}
	s.paths = append(s.paths, r.URL.Path)
	s.queries = append(s.queries, r.URL.RawQuery)
	if s.failWith != "" {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": s.failWith})
		return
	}
	_ = json.NewEncoder(w).Encode([]models.Listing{
		{ID: 1, Name: "Fix sink", Status: models.StatusOpen, Price: 40, Address: "12 King St"},
		{ID: 2, Name: "Clean house", Status: models.StatusTaken, Price: 80, Address: "3 Queen St"},
	})
}

func newListDeps(t *testing.T) (*deps, *listServer) {
	t.Helper()
	ls := &listServer{}
	srv := httptest.NewServer(ls)
	t.Cleanup(srv.Close)

	store, err := db.New(t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	svc := market.New(market.Options{
		Client: api.New(api.Options{BaseURL: srv.URL, Timeout: 2 * time.Second}),
		Store:  store,
	})
	return &deps{cfg: &config.Config{}, log: zap.NewNop(), store: store, svc: svc}, ls
}

func defaultFlags() listFlags {
	return listFlags{status: string(listings.FilterAll), sort: string(listings.SortNone)}
}

func TestListEndpointSelection(t *testing.T) {
	tests := []struct {
		name  string
		flags func(*listFlags)
		path  string
		query string
	}{
		{"no filters", func(*listFlags) {}, "/listings", ""},
		{"status only", func(f *listFlags) { f.status = "open" }, "/listings", ""},
		{"categories only", func(f *listFlags) { f.categories = []string{"cleaning"} }, "/listings/filter", "categories=Cleaning"},
		{"sorted", func(f *listFlags) { f.sort = "price" }, "/listings/filterAndSort", "sort=price"},
		{"searched", func(f *listFlags) { f.search = "sink" }, "/listings/filterAndSort", "search=sink"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, ls := newListDeps(t)
			f := defaultFlags()
			tt.flags(&f)

			var out bytes.Buffer
			if err := runList(context.Background(), &out, d, f); err != nil {
				t.Fatalf("run list: %v", err)
			}

			ls.mu.Lock()
			defer ls.mu.Unlock()
			if len(ls.paths) != 1 || ls.paths[0] != tt.path {
				t.Fatalf("paths = %v, want %s", ls.paths, tt.path)
			}
			if !strings.Contains(ls.queries[0], tt.query) {
				t.Fatalf("query = %s, want %s", ls.queries[0], tt.query)
			}
		})
	}
}

func TestListAppliesStatusLocally(t *testing.T) {
	d, _ := newListDeps(t)
	f := defaultFlags()
	f.status = "open"

	var out bytes.Buffer
	if err := runList(context.Background(), &out, d, f); err != nil {
		t.Fatalf("run list: %v", err)
	}
	got := out.String()
	if !strings.Contains(got, "Fix sink") || strings.Contains(got, "Clean house") || !strings.Contains(got, "1 listing(s)") {
		t.Fatalf("output:\n%s", got)
	}
}

func TestListErrorKeepsCause(t *testing.T) {
	d, ls := newListDeps(t)
	ls.failWith = "Database unavailable"

	err := runList(context.Background(), &bytes.Buffer{}, d, defaultFlags())
	var serr *api.ServerError
	if !errors.As(err, &serr) || serr.Status != http.StatusInternalServerError {
		t.Fatalf("cause lost: %v", err)
	}
	if err.Error() != "fetch listings: Database unavailable" {
		t.Fatalf("message = %q", err.Error())
	}
}

func TestListRejectsUnknownCategory(t *testing.T) {
	d, _ := newListDeps(t)
	f := defaultFlags()
	f.categories = []string{"Gardening"}

	if err := runList(context.Background(), &bytes.Buffer{}, d, f); err == nil || !strings.Contains(err.Error(), "Gardening") {
		t.Fatalf("err = %v", err)
	}
}
