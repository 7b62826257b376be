package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("HOME", dir)
	return dir
}

func TestLoadDefaults(t *testing.T) {
	dir := isolate(t)

	c, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.API.BaseURL != "http://localhost:8080" || c.API.Timeout != 10*time.Second {
		t.Fatalf("api = %+v", c.API)
	}
	if c.Search.Debounce != 300*time.Millisecond {
		t.Fatalf("debounce = %v", c.Search.Debounce)
	}
	fb := c.Geo.Fallback()
	if fb.Latitude != 43.4723 || fb.Longitude != -80.5449 {
		t.Fatalf("fallback = %+v", fb)
	}
	if c.DataDir != filepath.Join(dir, "data", "tung") {
		t.Fatalf("data dir = %q", c.DataDir)
	}
	if c.LogFile() != filepath.Join(c.DataDir, "tung.log") {
		t.Fatalf("log file = %q", c.LogFile())
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "tung.yaml")
	yaml := "api:\n  base_url: http://api.example.com\n  timeout: 3s\ncache:\n  backend: memory\n"
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("TUNG_CACHE_BACKEND", "none")
	t.Setenv("TUNG_SEARCH_DEBOUNCE", "150ms")

	c, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.API.BaseURL != "http://api.example.com" || c.API.Timeout != 3*time.Second {
		t.Fatalf("api = %+v", c.API)
	}
	if c.Cache.Backend != "none" {
		t.Fatalf("env should override file, backend = %q", c.Cache.Backend)
	}
	if c.Search.Debounce != 150*time.Millisecond {
		t.Fatalf("debounce = %v", c.Search.Debounce)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	isolate(t)
	t.Setenv("TUNG_CACHE_BACKEND", "memcached")
	if _, err := Load(""); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	dir := isolate(t)
	if _, err := Load(filepath.Join(dir, "nope.yaml")); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}
