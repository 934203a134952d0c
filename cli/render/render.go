// Package render provides centralized output rendering for the emotes CLI.
//
// A TTY defaults to table output, anything else to json; --format always
// wins and unknown formats are errors. --no-color only affects table
// output, where it disables status highlighting.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"reflect"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/pithecene-io/emotes/cli/tui"
	"github.com/pithecene-io/emotes/iox"
)

// Format represents an output format.
type Format string

// Supported formats.
const (
	FormatJSON  Format = "json"
	FormatTable Format = "table"
	FormatYAML  Format = "yaml"
)

// ParseFormat parses a format string, returning an error for invalid formats.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "json":
		return FormatJSON, nil
	case "table":
		return FormatTable, nil
	case "yaml":
		return FormatYAML, nil
	case "":
		return "", nil // Let caller decide default
	default:
		return "", fmt.Errorf("invalid format: %q (must be json, table, or yaml)", s)
	}
}

// Renderer handles output formatting.
type Renderer struct {
	format  Format
	noColor bool
	out     io.Writer
}

// NewRenderer creates a renderer from CLI context.
func NewRenderer(c *cli.Context) (*Renderer, error) {
	formatStr := c.String("format")
	format, err := ParseFormat(formatStr)
	if err != nil {
		return nil, err
	}

	// Apply default format based on TTY detection
	if format == "" {
		if isTTY(os.Stdout) {
			format = FormatTable
		} else {
			format = FormatJSON
		}
	}

	return &Renderer{
		format:  format,
		noColor: c.Bool("no-color"),
		out:     os.Stdout,
	}, nil
}

// NewRendererWithWriter creates a renderer with a custom writer (for testing).
func NewRendererWithWriter(format Format, noColor bool, out io.Writer) *Renderer {
	return &Renderer{
		format:  format,
		noColor: noColor,
		out:     out,
	}
}

// Render outputs the data in the configured format.
func (r *Renderer) Render(data any) error {
	switch r.format {
	case FormatJSON:
		return r.renderJSON(data)
	case FormatTable:
		return r.renderTable(data)
	case FormatYAML:
		return r.renderYAML(data)
	default:
		return fmt.Errorf("unknown format: %s", r.format)
	}
}

// RenderTUI initiates TUI mode for the given view type.
func (r *Renderer) RenderTUI(viewType string, data any) error {
	if !tui.IsTUISupported(viewType) {
		return fmt.Errorf("--tui is not supported for %s", viewType)
	}
	return tui.Run(viewType, data)
}

// Format returns the selected output format.
func (r *Renderer) Format() Format {
	return r.format
}

func (r *Renderer) renderJSON(data any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func (r *Renderer) renderYAML(data any) error {
	enc := yaml.NewEncoder(r.out)
	enc.SetIndent(2)
	return enc.Encode(data)
}

// column is one table column derived from a struct field or map key.
type column struct {
	name  string
	index int // struct field index, -1 for map columns
	key   reflect.Value
}

// structColumns lists the exported fields of t, named by their json tag.
// Fields tagged json:"-" are skipped.
func structColumns(t reflect.Type) []column {
	var cols []column
	for i := range t.NumField() {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name := strings.ToLower(f.Name)
		if tag, _, _ := strings.Cut(f.Tag.Get("json"), ","); tag == "-" {
			continue
		} else if tag != "" {
			name = tag
		}
		cols = append(cols, column{name: name, index: i})
	}
	return cols
}

// mapColumns lists the keys of m in sorted order.
func mapColumns(m reflect.Value) []column {
	keys := m.MapKeys()
	sort.Slice(keys, func(i, j int) bool {
		return fmt.Sprint(keys[i].Interface()) < fmt.Sprint(keys[j].Interface())
	})
	cols := make([]column, len(keys))
	for i, k := range keys {
		cols[i] = column{name: fmt.Sprint(k.Interface()), index: -1, key: k}
	}
	return cols
}

// columnsOf returns the columns of a struct or map value, or nil for scalars.
func columnsOf(v reflect.Value) []column {
	v = indirect(v)
	switch v.Kind() {
	case reflect.Struct:
		return structColumns(v.Type())
	case reflect.Map:
		return mapColumns(v)
	default:
		return nil
	}
}

func (c column) value(v reflect.Value) reflect.Value {
	v = indirect(v)
	if !v.IsValid() {
		return v
	}
	if c.index >= 0 {
		return v.Field(c.index)
	}
	return v.MapIndex(c.key)
}

func indirect(v reflect.Value) reflect.Value {
	for v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}

func (r *Renderer) renderTable(data any) error {
	w := tabwriter.NewWriter(r.out, 0, 0, 2, ' ', 0)
	defer iox.DiscardErr(w.Flush)

	v := indirect(reflect.ValueOf(data))
	if v.Kind() == reflect.Slice || v.Kind() == reflect.Array {
		return r.writeRows(w, v)
	}

	cols := columnsOf(v)
	if cols == nil {
		_, err := fmt.Fprintln(w, r.formatValue(v))
		return err
	}
	for _, c := range cols {
		if _, err := fmt.Fprintf(w, "%s:\t%s\n", c.name, r.formatField(c.name, c.value(v))); err != nil {
			return err
		}
	}
	return nil
}

// writeRows prints one header line and one line per element. Columns come
// from the first element.
func (r *Renderer) writeRows(w io.Writer, v reflect.Value) error {
	if v.Len() == 0 {
		_, err := fmt.Fprintln(w, "(no results)")
		return err
	}

	cols := columnsOf(v.Index(0))
	if cols == nil {
		for i := range v.Len() {
			if _, err := fmt.Fprintln(w, r.formatValue(v.Index(i))); err != nil {
				return err
			}
		}
		return nil
	}

	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.name
	}
	if _, err := fmt.Fprintln(w, strings.Join(names, "\t")); err != nil {
		return err
	}

	cells := make([]string, len(cols))
	for i := range v.Len() {
		row := v.Index(i)
		for j, c := range cols {
			cells[j] = r.formatField(c.name, c.value(row))
		}
		if _, err := fmt.Fprintln(w, strings.Join(cells, "\t")); err != nil {
			return err
		}
	}
	return nil
}

func (r *Renderer) formatValue(v reflect.Value) string {
	v = indirect(v)
	if !v.IsValid() {
		return ""
	}
	if v.CanInterface() {
		switch x := v.Interface().(type) {
		case time.Duration:
			return x.String()
		case time.Time:
			return x.Format(time.RFC3339)
		case []string:
			return strings.Join(x, ",")
		}
	}

	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		if v.Len() == 0 {
			return "[]"
		}
		return fmt.Sprintf("[%d items]", v.Len())
	case reflect.Map:
		if v.Len() == 0 {
			return "{}"
		}
		return fmt.Sprintf("{%d keys}", v.Len())
	case reflect.Struct:
		return "{...}"
	default:
		return fmt.Sprint(v.Interface())
	}
}

// statusFields are colored in table output unless --no-color is set.
var statusFields = map[string]bool{"status": true, "asset": true}

func (r *Renderer) formatField(name string, v reflect.Value) string {
	s := r.formatValue(v)
	if r.noColor || !statusFields[name] {
		return s
	}
	return tui.StateStyle(s).Render(s)
}

// isTTY returns true if the writer is a TTY.
func isTTY(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
