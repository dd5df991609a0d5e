package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{"debug": slog.LevelDebug, "": slog.LevelInfo, "WARN": slog.LevelWarn, "error": slog.LevelError}
	for in, want := range cases {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Fatalf("ParseLevel(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestNew_WritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.log")
	l, err := New("debug", path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	l.Debug("flight plan submitted", "flight_id", 7)
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	out := string(b)
	if !strings.Contains(out, `"msg":"flight plan submitted"`) || !strings.Contains(out, `"flight_id":7`) {
		t.Fatalf("log output missing record: %s", out)
	}
	if l.LogFile != path {
		t.Fatalf("LogFile = %q", l.LogFile)
	}
}

func TestNew_StderrHasNothingToClose(t *testing.T) {
	l, err := New("info", "")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}
