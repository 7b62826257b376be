package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewWritesToRotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "tung.log")
	l, cleanup, err := New(Options{
		Level:  "debug",
		JSON:   true,
		Rotate: FileRotate{Enable: true, Filename: path, MaxSizeMB: 1},
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	l.Info("listing fetched")
	cleanup()

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(b), `"msg":"listing fetched"`) {
		t.Fatalf("log content = %s", b)
	}
}

func TestNewConsoleLevel(t *testing.T) {
	var buf bytes.Buffer
	l, cleanup, err := New(Options{Level: "warn", Console: &buf})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	l.Info("hidden")
	l.Warn("shown")
	cleanup()

	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "shown") {
		t.Fatalf("console output = %q", out)
	}
}

func TestNewWithoutSinks(t *testing.T) {
	l, cleanup, err := New(Options{Level: "bogus"})
	if err != nil || l == nil {
		t.Fatalf("new: %v", err)
	}
	cleanup()
}
