package views

import (
	"encoding/json"
	"go/token"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strconv"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tgienger/tung/internal/api"
	"github.com/tgienger/tung/internal/db"
	"github.com/tgienger/tung/internal/market"
	"github.com/tgienger/tung/internal/models"
)

var testListings = []models.Listing{
	{ID: 1, Name: "Fix sink", Description: "Leaky kitchen sink", Address: "12 King St, Waterloo", Status: models.StatusOpen, Price: 40, Capacity: 1, Duration: 60},
	{ID: 2, Name: "Clean house", Description: "Deep cleaning", Address: "3 Queen St, Toronto", Status: models.StatusTaken, Price: 80, Capacity: 2, Duration: 180},
	{ID: 3, Name: "Walk dog", Description: "Pet care for an afternoon", Address: "9 Erb St, Waterloo", Status: models.StatusCompleted, Price: 20, Capacity: 1, Duration: 30},
}

// fakeMarket serves the marketplace routes the views use
type fakeMarket struct {
	mu       sync.Mutex
	queries  []string
	reviews  []models.NewReview
	prefs    []int64
	drafts   []models.Draft
	geocodes []string

	// the first failCategories category requests answer 500
	failCategories int
	categoryCalls  int
}

func (f *fakeMarket) handler() http.Handler {
	mux := http.NewServeMux()
	writeJSON := func(w http.ResponseWriter, v any) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(v)
	}

	mux.HandleFunc("GET /taskcategories", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.categoryCalls++
		fail := f.categoryCalls <= f.failCategories
		f.mu.Unlock()
		if fail {
			w.WriteHeader(http.StatusInternalServerError)
			writeJSON(w, map[string]string{"error": "database unavailable"})
			return
		}
		writeJSON(w, []models.TaskCategory{{ID: 1, Name: "Cleaning"}, {ID: 2, Name: "Plumbing"}, {ID: 3, Name: "Pet Care"}})
	})
	mux.HandleFunc("GET /listings/filterAndSort", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.queries = append(f.queries, r.URL.RawQuery)
		f.mu.Unlock()
		writeJSON(w, testListings)
	})
	mux.HandleFunc("GET /listings/{id}", func(w http.ResponseWriter, r *http.Request) {
		for _, l := range testListings {
			if r.PathValue("id") == strconv.FormatInt(l.ID, 10) {
				writeJSON(w, l)
				return
			}
		}
		w.WriteHeader(http.StatusNotFound)
		writeJSON(w, map[string]string{"error": "Listing not found"})
	})
	mux.HandleFunc("GET /listings/{id}/reviews", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []models.Review{})
	})
	mux.HandleFunc("GET /listings/{id}/assigned-users", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []models.AssignedUser{{UID: 8, Name: "Ana"}})
	})
	mux.HandleFunc("POST /listings/{id}/assign/{uid}", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "Successfully assigned task.")
	})
	mux.HandleFunc("POST /listings/{id}/complete", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "Task marked as complete")
	})
	mux.HandleFunc("POST /listings", func(w http.ResponseWriter, r *http.Request) {
		var d models.Draft
		_ = json.NewDecoder(r.Body).Decode(&d)
		f.mu.Lock()
		f.drafts = append(f.drafts, d)
		f.mu.Unlock()
		// the created listing is not readable back, so the client falls
		// back to the submitted draft
		writeJSON(w, map[string]any{"listid": 40, "message": "Listing created successfully"})
	})
	mux.HandleFunc("POST /reviews", func(w http.ResponseWriter, r *http.Request) {
		var nr models.NewReview
		_ = json.NewDecoder(r.Body).Decode(&nr)
		f.mu.Lock()
		f.reviews = append(f.reviews, nr)
		f.mu.Unlock()
		writeJSON(w, map[string]string{"message": "ok"})
	})
	mux.HandleFunc("POST /preferences/{uid}", func(w http.ResponseWriter, r *http.Request) {
		var ids []int64
		_ = json.NewDecoder(r.Body).Decode(&ids)
		f.mu.Lock()
		f.prefs = ids
		f.mu.Unlock()
		writeJSON(w, true)
	})
	mux.HandleFunc("POST /login", func(w http.ResponseWriter, r *http.Request) {
		var cr models.Credentials
		_ = json.NewDecoder(r.Body).Decode(&cr)
		if cr.Password != "secret" {
			w.WriteHeader(http.StatusBadRequest)
			writeJSON(w, map[string]string{"error": "Incorrect credentials"})
			return
		}
		writeJSON(w, models.User{UID: 9, Name: "Sam", Email: cr.Email})
	})
	mux.HandleFunc("GET /search", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.geocodes = append(f.geocodes, r.URL.Query().Get("q"))
		f.mu.Unlock()
		writeJSON(w, []map[string]string{{"display_name": "200 University Ave W, Waterloo", "lat": "43.47", "lon": "-80.54"}})
	})
	return mux
}

// newTestService returns a service backed by a fake marketplace and a
// temporary local store
func newTestService(t *testing.T) (*market.Service, *fakeMarket, string) {
	t.Helper()
	fm := &fakeMarket{}
	srv := httptest.NewServer(fm.handler())
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
	return svc, fm, srv.URL
}

var cmdType = reflect.TypeOf(tea.Cmd(nil))

// collect runs cmd and every command it batches, returning the messages
// that arrive promptly. Timers such as notice expiry are dropped.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	ch := make(chan tea.Msg, 1)
	go func() { ch <- cmd() }()

	var msg tea.Msg
	select {
	case msg = <-ch:
	case <-time.After(500 * time.Millisecond):
		return nil
	}

	if msg == nil {
		return nil
	}
	// batches and sequences are both slices of commands
	if rv := reflect.ValueOf(msg); rv.Kind() == reflect.Slice && rv.Type().Elem() == cmdType {
		var out []tea.Msg
		for i := 0; i < rv.Len(); i++ {
			c, _ := rv.Index(i).Interface().(tea.Cmd)
			out = append(out, collect(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

// pump feeds the view's own messages back into m until it settles and
// returns every message addressed to someone else
func pump(m tea.Model, cmd tea.Cmd) []tea.Msg {
	var rest []tea.Msg
	for _, msg := range collect(cmd) {
		if !internal(msg) {
			rest = append(rest, msg)
			continue
		}
		_, next := m.Update(msg)
		rest = append(rest, pump(m, next)...)
	}
	return rest
}

var viewsPkg = reflect.TypeOf(Notice{}).PkgPath()

func internal(msg tea.Msg) bool {
	t := reflect.TypeOf(msg)
	return t.PkgPath() == viewsPkg && !token.IsExported(t.Name())
}

func find[T any](msgs []tea.Msg) (T, bool) {
	for _, m := range msgs {
		if t, ok := m.(T); ok {
			return t, true
		}
	}
	var zero T
	return zero, false
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func keyType(k tea.KeyType) tea.KeyMsg {
	return tea.KeyMsg{Type: k}
}
