// Package output provides CLI output formatting utilities.
// It renders text (tables, key/value lists, status lines) or JSON and is
// safe for concurrent use.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// Format represents the output format type.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// Color represents ANSI color codes for terminal output.
type Color string

const (
	ColorReset  Color = "\033[0m"
	ColorRed    Color = "\033[31m"
	ColorGreen  Color = "\033[32m"
	ColorYellow Color = "\033[33m"
	ColorBlue   Color = "\033[34m"
	ColorCyan   Color = "\033[36m"
	ColorBold   Color = "\033[1m"
	ColorDim    Color = "\033[2m"
)

// Formatter handles output formatting with support for multiple formats and colors.
type Formatter struct {
	mu           sync.Mutex
	writer       io.Writer
	format       Format
	colorEnabled bool
	indent       string
}

// Option is a functional option for configuring a Formatter.
type Option func(*Formatter)

// NewFormatter creates a new Formatter with the given options.
func NewFormatter(opts ...Option) *Formatter {
	f := &Formatter{
		writer:       os.Stdout,
		format:       FormatText,
		colorEnabled: true,
		indent:       "  ",
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// WithWriter sets the output writer.
func WithWriter(w io.Writer) Option {
	return func(f *Formatter) {
		f.writer = w
	}
}

// WithFormat sets the output format.
func WithFormat(format Format) Option {
	return func(f *Formatter) {
		f.format = format
	}
}

// WithColor enables or disables colored output.
func WithColor(enabled bool) Option {
	return func(f *Formatter) {
		f.colorEnabled = enabled
	}
}

// WithIndent sets the JSON indentation.
func WithIndent(indent string) Option {
	return func(f *Formatter) {
		f.indent = indent
	}
}

// Format returns the current output format.
func (f *Formatter) Format() Format {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.format
}

// IsJSON reports whether the formatter emits JSON.
func (f *Formatter) IsJSON() bool {
	return f.Format() == FormatJSON
}

// Writer returns the underlying writer.
func (f *Formatter) Writer() io.Writer {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writer
}

// Println writes formatted output with a newline.
func (f *Formatter) Println(format string, args ...any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, err := fmt.Fprintf(f.writer, format+"\n", args...)
	return err
}

// Colorize wraps text with ANSI color codes if color is enabled.
func (f *Formatter) Colorize(text string, color Color) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.colorEnabled {
		return text
	}
	return string(color) + text + string(ColorReset)
}

// statusMarks pairs each status line kind with its mark and color.
var statusMarks = map[string]struct {
	mark  string
	color Color
}{
	"success": {"✓", ColorGreen},
	"error":   {"✗", ColorRed},
	"warning": {"⚠", ColorYellow},
	"info":    {"ℹ", ColorBlue},
}

// Success prints a green status line.
func (f *Formatter) Success(format string, args ...any) error {
	return f.status("success", format, args...)
}

// Error prints a red status line.
func (f *Formatter) Error(format string, args ...any) error {
	return f.status("error", format, args...)
}

// Warning prints a yellow status line.
func (f *Formatter) Warning(format string, args ...any) error {
	return f.status("warning", format, args...)
}

// Info prints a blue status line.
func (f *Formatter) Info(format string, args ...any) error {
	return f.status("info", format, args...)
}

func (f *Formatter) status(kind, format string, args ...any) error {
	m := statusMarks[kind]
	return f.Println("%s", f.Colorize(m.mark+" "+fmt.Sprintf(format, args...), m.color))
}

// Bold returns text in bold.
func (f *Formatter) Bold(text string) string {
	return f.Colorize(text, ColorBold)
}

// Dim returns text in dim/muted style.
func (f *Formatter) Dim(text string) string {
	return f.Colorize(text, ColorDim)
}

// Header outputs a section header with underline.
func (f *Formatter) Header(msg string) error {
	title := f.Bold(msg)

	f.mu.Lock()
	defer f.mu.Unlock()
	_, err := fmt.Fprintf(f.writer, "%s\n%s\n", title, strings.Repeat("─", len([]rune(msg))))
	return err
}

// Item outputs a key-value pair for structured display.
func (f *Formatter) Item(key, value string) error {
	label := f.Dim(key)

	f.mu.Lock()
	defer f.mu.Unlock()
	_, err := fmt.Fprintf(f.writer, "  %s: %s\n", label, value)
	return err
}

// Alignment defines text alignment in table cells.
type Alignment int

const (
	AlignLeft Alignment = iota
	AlignRight
)

// TableColumn defines a column in a table.
type TableColumn struct {
	Header string
	Width  int
	Align  Alignment
}

// TableData represents data for table formatting.
type TableData struct {
	Columns []TableColumn
	Rows    [][]string
}

// Table writes data as aligned columns separated by two spaces, with a
// dashed rule under the header. Cells beyond the declared columns are dropped.
func (f *Formatter) Table(data TableData) error {
	cols := data.Columns
	if len(cols) == 0 {
		return nil
	}
	widths := columnWidths(data)

	var b strings.Builder
	b.WriteString(f.Bold(joinRow(cols, widths, func(i int) string { return cols[i].Header })))
	b.WriteByte('\n')
	b.WriteString(joinRow(cols, widths, func(i int) string { return strings.Repeat("-", widths[i]) }))
	b.WriteByte('\n')

	for _, row := range data.Rows {
		line := joinRow(cols, widths, func(i int) string {
			if i < len(row) {
				return row[i]
			}
			return ""
		})
		b.WriteString(strings.TrimRight(line, " "))
		b.WriteByte('\n')
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	_, err := io.WriteString(f.writer, b.String())
	return err
}

func columnWidths(data TableData) []int {
	widths := make([]int, len(data.Columns))
	for i, col := range data.Columns {
		widths[i] = max(len(col.Header), col.Width)
		for _, row := range data.Rows {
			if i < len(row) {
				widths[i] = max(widths[i], len(row[i]))
			}
		}
	}
	return widths
}

func joinRow(cols []TableColumn, widths []int, cell func(int) string) string {
	parts := make([]string, len(cols))
	for i, col := range cols {
		text := cell(i)
		pad := strings.Repeat(" ", max(0, widths[i]-len(text)))
		if col.Align == AlignRight {
			parts[i] = pad + text
		} else {
			parts[i] = text + pad
		}
	}
	return strings.Join(parts, "  ")
}

// JSON writes data as formatted JSON.
func (f *Formatter) JSON(data any) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", f.indent)
	return encoder.Encode(data)
}

// Emit writes data as JSON in JSON mode and calls text otherwise.
func (f *Formatter) Emit(data any, text func() error) error {
	if f.IsJSON() {
		return f.JSON(data)
	}
	return text()
}

// ParseFormat parses a string into a Format type.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "text", "":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	default:
		return FormatText, fmt.Errorf("unknown format: %s", s)
	}
}
