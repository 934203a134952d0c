package render

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/pithecene-io/emotes/cli/reader"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Format
		wantErr bool
	}{
		{"json lowercase", "json", FormatJSON, false},
		{"json uppercase", "JSON", FormatJSON, false},
		{"table", "table", FormatTable, false},
		{"yaml", "yaml", FormatYAML, false},
		{"empty", "", "", false},
		{"invalid", "xml", "", true},
		{"invalid with message", "csv", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseFormat(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
				return
			}
			if got != tt.want {
				t.Errorf("ParseFormat(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseFormat_InvalidErrorMessage(t *testing.T) {
	_, err := ParseFormat("xml")
	if err == nil {
		t.Fatal("expected error for invalid format")
	}
	if !strings.Contains(err.Error(), "json, table, or yaml") {
		t.Errorf("error message should mention valid formats, got: %v", err)
	}
}

func TestRenderer_JSON(t *testing.T) {
	var buf bytes.Buffer
	r := NewRendererWithWriter(FormatJSON, false, &buf)

	data := map[string]string{"key": "value"}
	if err := r.Render(data); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	got := buf.String()
	if !strings.Contains(got, `"key"`) || !strings.Contains(got, `"value"`) {
		t.Errorf("JSON output missing expected content: %s", got)
	}
}

func TestRenderer_YAML(t *testing.T) {
	var buf bytes.Buffer
	r := NewRendererWithWriter(FormatYAML, false, &buf)

	data := map[string]string{"key": "value"}
	if err := r.Render(data); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	got := buf.String()
	if !strings.Contains(got, "key:") || !strings.Contains(got, "value") {
		t.Errorf("YAML output missing expected content: %s", got)
	}
}

func TestRenderer_Table_Struct(t *testing.T) {
	var buf bytes.Buffer
	r := NewRendererWithWriter(FormatTable, false, &buf)

	type TestStruct struct {
		Name  string `json:"name"`
		Value int    `json:"value"`
	}

	data := TestStruct{Name: "test", Value: 42}
	if err := r.Render(data); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	got := buf.String()
	if !strings.Contains(got, "name:") || !strings.Contains(got, "test") {
		t.Errorf("Table output missing name field: %s", got)
	}
	if !strings.Contains(got, "value:") || !strings.Contains(got, "42") {
		t.Errorf("Table output missing value field: %s", got)
	}
}

func TestRenderer_Table_Slice(t *testing.T) {
	var buf bytes.Buffer
	r := NewRendererWithWriter(FormatTable, false, &buf)

	type Item struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}

	data := []Item{
		{ID: "1", Name: "first"},
		{ID: "2", Name: "second"},
	}

	if err := r.Render(data); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	got := buf.String()
	// Should have header row
	if !strings.Contains(got, "id") || !strings.Contains(got, "name") {
		t.Errorf("Table output missing headers: %s", got)
	}
	// Should have data rows
	if !strings.Contains(got, "first") || !strings.Contains(got, "second") {
		t.Errorf("Table output missing data: %s", got)
	}
}

func TestRenderer_Table_EmptySlice(t *testing.T) {
	var buf bytes.Buffer
	r := NewRendererWithWriter(FormatTable, false, &buf)

	data := []string{}
	if err := r.Render(data); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	got := buf.String()
	if !strings.Contains(got, "(no results)") {
		t.Errorf("Empty slice should show '(no results)', got: %s", got)
	}
}

func TestRenderer_NoColor_DoesNotAffectJSON(t *testing.T) {
	// --no-color should not change JSON output
	var bufColor, bufNoColor bytes.Buffer

	rColor := NewRendererWithWriter(FormatJSON, false, &bufColor)
	rNoColor := NewRendererWithWriter(FormatJSON, true, &bufNoColor)

	data := map[string]string{"key": "value"}

	if err := rColor.Render(data); err != nil {
		t.Fatalf("Render with color failed: %v", err)
	}
	if err := rNoColor.Render(data); err != nil {
		t.Fatalf("Render without color failed: %v", err)
	}

	if bufColor.String() != bufNoColor.String() {
		t.Errorf("--no-color should not affect JSON output")
	}
}

func TestRenderer_Table_ChannelRows(t *testing.T) {
	var buf bytes.Buffer
	r := NewRendererWithWriter(FormatTable, true, &buf)

	rows := []reader.ChannelItem{
		{Channel: "twitch", Status: reader.ChannelLoaded, Emotes: 2, Keys: 12},
		{Channel: "ghost", Status: reader.ChannelSkipped, Error: "channel not found"},
	}
	if err := r.Render(rows); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got %d lines:\n%s", len(lines), buf.String())
	}
	for _, h := range []string{"channel", "channel_id", "status", "emotes", "keys", "duration_ms", "error"} {
		if !strings.Contains(lines[0], h) {
			t.Errorf("header missing %q: %s", h, lines[0])
		}
	}
	if !strings.Contains(lines[2], "skipped") || !strings.Contains(lines[2], "channel not found") {
		t.Errorf("row 2 = %q", lines[2])
	}
	if strings.Contains(buf.String(), "\x1b[") {
		t.Error("--no-color table output must not contain ANSI escapes")
	}
}

func TestRenderer_Table_MapSorted(t *testing.T) {
	var buf bytes.Buffer
	r := NewRendererWithWriter(FormatTable, false, &buf)

	if err := r.Render(map[string]int{"zeta": 1, "alpha": 2, "mid": 3}); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	got := buf.String()
	a, m, z := strings.Index(got, "alpha"), strings.Index(got, "mid"), strings.Index(got, "zeta")
	if a >= m || m >= z {
		t.Errorf("map keys not sorted:\n%s", got)
	}
}

func TestRenderer_Table_Duration(t *testing.T) {
	var buf bytes.Buffer
	r := NewRendererWithWriter(FormatTable, false, &buf)

	data := struct {
		Elapsed time.Duration `json:"elapsed"`
	}{Elapsed: 1500 * time.Millisecond}
	if err := r.Render(data); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !strings.Contains(buf.String(), "1.5s") {
		t.Errorf("duration not humanized: %s", buf.String())
	}
}

func TestRenderer_YAML_StatsResponse(t *testing.T) {
	var buf bytes.Buffer
	r := NewRendererWithWriter(FormatYAML, false, &buf)

	if err := r.Render(&reader.StatsResponse{SessionID: "s1", BaseKeys: 3, VariantKeys: 15}); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	got := buf.String()
	for _, want := range []string{"session_id: s1", "base_keys: 3", "variant_keys: 15"} {
		if !strings.Contains(got, want) {
			t.Errorf("YAML missing %q:\n%s", want, got)
		}
	}
}

func TestRenderTUI_Unsupported(t *testing.T) {
	r := NewRendererWithWriter(FormatTable, false, &bytes.Buffer{})
	if err := r.RenderTUI("list_keys", nil); err == nil {
		t.Error("expected error for unsupported TUI view")
	}
}

func TestRenderer_Table_SkipsHiddenFields(t *testing.T) {
	var buf bytes.Buffer
	r := NewRendererWithWriter(FormatTable, true, &buf)

	type row struct {
		Key    string `json:"key"`
		Secret string `json:"-"`
		note   string
	}
	if err := r.Render([]*row{{Key: "Kappa", Secret: "hidden", note: "x"}}); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	got := buf.String()
	if strings.Contains(got, "hidden") || strings.Contains(got, "note") {
		t.Errorf("hidden fields rendered:\n%s", got)
	}
	if lines := strings.Split(strings.TrimSpace(got), "\n"); len(lines) != 2 || strings.TrimSpace(lines[1]) != "Kappa" {
		t.Errorf("unexpected rows:\n%s", got)
	}
}

func TestRenderer_Table_ScalarSlice(t *testing.T) {
	var buf bytes.Buffer
	r := NewRendererWithWriter(FormatTable, false, &buf)

	if err := r.Render([]string{"Kappa", "Kappa_BW"}); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if got := buf.String(); got != "Kappa\nKappa_BW\n" {
		t.Errorf("got %q", got)
	}
}
