package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/pithecene-io/emotes/types"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("unmarshal log line: %v (%s)", err, buf.String())
	}
	return entry
}

func TestLogger_SessionContext(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(&types.SessionMeta{SessionID: "sess-1"}, Options{Level: "debug", Output: &buf})
	if err != nil {
		t.Fatal(err)
	}

	l.Info("channel loaded", map[string]any{"channel": "alpha", "keys": 6})

	entry := decodeLine(t, &buf)
	want := map[string]any{
		"session_id": "sess-1",
		"message":    "channel loaded",
		"level":      "info",
		"channel":    "alpha",
		"keys":       float64(6),
	}
	for k, v := range want {
		if entry[k] != v {
			t.Errorf("%s = %v, want %v", k, entry[k], v)
		}
	}
}

func TestLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(nil, Options{Level: "warn", Output: &buf})
	if err != nil {
		t.Fatal(err)
	}

	l.Debug("dropped", nil)
	l.Info("dropped", nil)
	l.Warn("kept", nil)

	if strings.Count(buf.String(), "\n") != 1 {
		t.Errorf("expected exactly one line, got %q", buf.String())
	}
	if !strings.Contains(buf.String(), "kept") {
		t.Errorf("warn entry missing: %q", buf.String())
	}
}

func TestLogger_NamedAndWith(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(nil, Options{Output: &buf})
	if err != nil {
		t.Fatal(err)
	}

	l.Named("engine").Named("download").With(map[string]any{"key": "Kappa"}).
		Error("fetch failed", map[string]any{"error": errors.New("status 503")})

	entry := decodeLine(t, &buf)
	if entry["logger"] != "engine.download" {
		t.Errorf("logger = %v", entry["logger"])
	}
	if entry["key"] != "Kappa" || entry["error"] != "status 503" {
		t.Errorf("entry = %v", entry)
	}
}

func TestLogger_ConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(&types.SessionMeta{SessionID: "s"}, Options{Format: FormatConsole, Output: &buf})
	if err != nil {
		t.Fatal(err)
	}
	l.Warn("mirror write failed", nil)

	got := buf.String()
	if !strings.Contains(got, "WARN") || !strings.Contains(got, "mirror write failed") {
		t.Errorf("console line = %q", got)
	}
	if json.Valid(bytes.TrimSpace(buf.Bytes())) {
		t.Error("console output should not be JSON")
	}
}

func TestNew_RejectsInvalidOptions(t *testing.T) {
	if _, err := New(nil, Options{Level: "loud"}); err == nil {
		t.Error("expected error for invalid level")
	}
	if _, err := New(nil, Options{Format: "xml"}); err == nil {
		t.Error("expected error for invalid format")
	}
}

func TestNop_Discards(_ *testing.T) {
	l := Nop()
	l.Info("nothing", map[string]any{"k": "v"})
	l.Named("x").Debug("nothing", nil)
}
