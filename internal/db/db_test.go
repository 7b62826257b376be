package db

import (
	"context"
	"testing"
	"time"

	"github.com/tgienger/tung/internal/models"
)

func openTemp(t *testing.T) (*DB, string) {
	t.Helper()
	dir := t.TempDir()
	d, err := New(dir)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return d, dir
}

func TestSettings(t *testing.T) {
	d, _ := openTemp(t)

	if v, err := d.GetSetting("missing"); err != nil || v != "" {
		t.Fatalf("missing setting: %q, %v", v, err)
	}
	if err := d.SetSetting("theme", "dark"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := d.SetSetting("theme", "light"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if v, _ := d.GetSetting("theme"); v != "light" {
		t.Fatalf("theme = %q", v)
	}

	type filters struct {
		Sort string `json:"sort"`
	}
	if err := d.SetJSON("filters", filters{Sort: "price"}); err != nil {
		t.Fatalf("set json: %v", err)
	}
	var f filters
	ok, err := d.GetJSON("filters", &f)
	if err != nil || !ok || f.Sort != "price" {
		t.Fatalf("get json: %+v %v %v", f, ok, err)
	}
}

func TestSessionSurvivesReopen(t *testing.T) {
	d, dir := openTemp(t)

	if u, err := d.LoadSession(); err != nil || u != nil {
		t.Fatalf("expected no session, got %+v %v", u, err)
	}
	if err := d.SaveSession(models.User{UID: 5, Name: "Sam", Email: "sam@example.com"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	d.Close()

	reopened, err := New(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	u, err := reopened.LoadSession()
	if err != nil || u == nil || u.UID != 5 || u.Name != "Sam" {
		t.Fatalf("session = %+v, %v", u, err)
	}
	if err := reopened.ClearSession(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if u, _ := reopened.LoadSession(); u != nil {
		t.Fatalf("session not cleared: %+v", u)
	}
}

func TestLookupCacheExpiry(t *testing.T) {
	d, _ := openTemp(t)
	ctx := context.Background()
	now := time.Date(2025, 7, 20, 12, 0, 0, 0, time.UTC)

	if err := d.CacheSet(ctx, "name:5", []byte(`"Sam"`), now.Add(time.Minute)); err != nil {
		t.Fatalf("set: %v", err)
	}
	v, ok, err := d.CacheGet(ctx, "name:5", now)
	if err != nil || !ok || string(v) != `"Sam"` {
		t.Fatalf("get: %q %v %v", v, ok, err)
	}
	if _, ok, _ := d.CacheGet(ctx, "name:5", now.Add(2*time.Minute)); ok {
		t.Fatalf("expired entry returned")
	}
	n, err := d.CachePurge(ctx, now.Add(2*time.Minute))
	if err != nil || n != 1 {
		t.Fatalf("purge: %d %v", n, err)
	}
}
