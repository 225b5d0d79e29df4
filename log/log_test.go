package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestLevels(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf, slog.LevelInfo)
	l.Debug("hidden")
	l.Infof("shown %d", 1)
	l.With("query", 7).Warn("careful", slog.Int("n", 2))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d records:\n%s", len(lines), buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[1]), &rec); err != nil {
		t.Fatalf("bad JSON: %v", err)
	}
	if rec["msg"] != "careful" || rec["level"] != "WARN" || rec["query"] != float64(7) {
		t.Fatalf("record %v", rec)
	}
}

func TestNilLogger(t *testing.T) {
	var l *Logger
	l.Debug("x")
	l.Infof("y %d", 1)
	if l.With("a", 1) != nil {
		t.Fatalf("With on nil logger should stay nil")
	}
}

func TestParseLevel(t *testing.T) {
	for _, s := range []string{"debug", "info", "warn", "error", ""} {
		if _, err := ParseLevel(s); err != nil {
			t.Errorf("ParseLevel(%q): %v", s, err)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Errorf("ParseLevel accepted a bad level")
	}
}

func TestNewWritesToDir(t *testing.T) {
	dir := t.TempDir()
	l := New("debug", dir)
	l.Debug("table build", slog.Float64("radius", 2))
	if !strings.HasPrefix(l.LogFile, dir) {
		t.Fatalf("log file %s not in %s", l.LogFile, dir)
	}
}
