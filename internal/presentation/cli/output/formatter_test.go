package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"sync"
	"testing"
)

func newTestFormatter(format Format) (*Formatter, *bytes.Buffer) {
	var buf bytes.Buffer
	return NewFormatter(WithWriter(&buf), WithFormat(format), WithColor(false)), &buf
}

func TestNewFormatter(t *testing.T) {
	t.Run("default options", func(t *testing.T) {
		f := NewFormatter()
		if f.format != FormatText {
			t.Errorf("expected format %v, got %v", FormatText, f.format)
		}
		if !f.colorEnabled {
			t.Error("expected color to be enabled by default")
		}
	})

	t.Run("with custom options", func(t *testing.T) {
		var buf bytes.Buffer
		f := NewFormatter(
			WithWriter(&buf),
			WithFormat(FormatJSON),
			WithColor(false),
			WithIndent("    "),
		)

		if !f.IsJSON() {
			t.Errorf("expected format %v, got %v", FormatJSON, f.format)
		}
		if f.colorEnabled {
			t.Error("expected color to be disabled")
		}
		if f.indent != "    " {
			t.Errorf("expected indent '    ', got %q", f.indent)
		}
		if f.Writer() != &buf {
			t.Error("Writer() should return the configured writer")
		}
	})
}

func TestFormatter_Colorize(t *testing.T) {
	f := NewFormatter(WithColor(true))
	if got := f.Colorize("x", ColorRed); got != string(ColorRed)+"x"+string(ColorReset) {
		t.Errorf("Colorize() = %q", got)
	}

	f = NewFormatter(WithColor(false))
	if got := f.Colorize("x", ColorRed); got != "x" {
		t.Errorf("Colorize() without color = %q", got)
	}
}

func TestFormatter_MessageTypes(t *testing.T) {
	tests := []struct {
		name string
		fn   func(*Formatter) error
		want string
	}{
		{"success", func(f *Formatter) error { return f.Success("saved %d", 3) }, "✓ saved 3\n"},
		{"error", func(f *Formatter) error { return f.Error("failed") }, "✗ failed\n"},
		{"warning", func(f *Formatter) error { return f.Warning("careful") }, "⚠ careful\n"},
		{"info", func(f *Formatter) error { return f.Info("note") }, "ℹ note\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, buf := newTestFormatter(FormatText)
			if err := tt.fn(f); err != nil {
				t.Fatal(err)
			}
			if buf.String() != tt.want {
				t.Errorf("got %q, want %q", buf.String(), tt.want)
			}
		})
	}
}

func TestFormatter_HeaderAndItem(t *testing.T) {
	f, buf := newTestFormatter(FormatText)
	f.Header("Desktop")
	f.Item("Name", "Work")

	want := "Desktop\n───────\n  Name: Work\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}

func TestFormatter_HeaderAndItemColored(t *testing.T) {
	var buf bytes.Buffer
	f := NewFormatter(WithWriter(&buf), WithColor(true))
	f.Header("Desktop")
	f.Item("Name", "Work")

	want := "\033[1mDesktop\033[0m\n───────\n  \033[2mName\033[0m: Work\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}

func TestFormatter_Table(t *testing.T) {
	f, buf := newTestFormatter(FormatText)

	err := f.Table(TableData{
		Columns: []TableColumn{
			{Header: "ID", Align: AlignRight},
			{Header: "NAME"},
		},
		Rows: [][]string{
			{"1", "Desktop 1"},
			{"12", "Work"},
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	want := strings.Join([]string{
		"ID  NAME     ",
		"--  ---------",
		" 1  Desktop 1",
		"12  Work",
		"",
	}, "\n")
	if buf.String() != want {
		t.Errorf("table =\n%q\nwant\n%q", buf.String(), want)
	}
}

func TestFormatter_TableEmptyColumns(t *testing.T) {
	f, buf := newTestFormatter(FormatText)
	if err := f.Table(TableData{}); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != 0 {
		t.Errorf("expected no output, got %q", buf.String())
	}
}

func TestFormatter_TableRaggedRows(t *testing.T) {
	f, buf := newTestFormatter(FormatText)

	err := f.Table(TableData{
		Columns: []TableColumn{{Header: "A", Width: 3}, {Header: "B"}},
		Rows:    [][]string{{"x"}, {"y", "z", "dropped"}},
	})
	if err != nil {
		t.Fatal(err)
	}

	want := "A    B\n---  -\nx\ny    z\n"
	if buf.String() != want {
		t.Errorf("table = %q, want %q", buf.String(), want)
	}
}

func TestJoinRow(t *testing.T) {
	cols := []TableColumn{{Align: AlignLeft}, {Align: AlignRight}}
	tests := []struct {
		widths []int
		cells  []string
		want   string
	}{
		{[]int{4, 4}, []string{"ab", "cd"}, "ab      cd"},
		{[]int{2, 2}, []string{"abcdef", "x"}, "abcdef   x"},
	}
	for _, tt := range tests {
		got := joinRow(cols, tt.widths, func(i int) string { return tt.cells[i] })
		if got != tt.want {
			t.Errorf("joinRow(%v) = %q, want %q", tt.cells, got, tt.want)
		}
	}
}

func TestFormatter_Emit(t *testing.T) {
	data := map[string]int{"count": 2}

	f, buf := newTestFormatter(FormatJSON)
	called := false
	if err := f.Emit(data, func() error { called = true; return nil }); err != nil {
		t.Fatal(err)
	}
	if called {
		t.Error("text renderer called in JSON mode")
	}
	var got map[string]int
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil || got["count"] != 2 {
		t.Errorf("JSON output = %q (%v)", buf.String(), err)
	}

	f, _ = newTestFormatter(FormatText)
	if err := f.Emit(data, func() error { called = true; return nil }); err != nil {
		t.Fatal(err)
	}
	if !called {
		t.Error("text renderer not called in text mode")
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatText, false},
		{"text", FormatText, false},
		{" JSON ", FormatJSON, false},
		{"yaml", FormatText, true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseFormat(%q) = (%v, %v)", tt.in, got, err)
		}
	}
}

func TestDetectColorSupport(t *testing.T) {
	env := func(vars map[string]string) func(string) (string, bool) {
		return func(k string) (string, bool) {
			v, ok := vars[k]
			return v, ok
		}
	}
	tty := func() bool { return true }
	pipe := func() bool { return false }

	tests := []struct {
		name string
		vars map[string]string
		term func() bool
		want bool
	}{
		{"no color wins", map[string]string{"NO_COLOR": "", "FORCE_COLOR": "1"}, tty, false},
		{"force color on pipe", map[string]string{"FORCE_COLOR": "1"}, pipe, true},
		{"pipe", map[string]string{"TERM": "xterm"}, pipe, false},
		{"dumb terminal", map[string]string{"TERM": "dumb"}, tty, false},
		{"terminal", map[string]string{"TERM": "xterm-256color"}, tty, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := detectColorSupport(env(tt.vars), tt.term); got != tt.want {
				t.Errorf("detectColorSupport() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFormatter_ThreadSafety(t *testing.T) {
	f, buf := newTestFormatter(FormatText)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f.Info("line")
		}()
	}
	wg.Wait()

	if got := strings.Count(buf.String(), "\n"); got != 20 {
		t.Errorf("lines = %d, want 20", got)
	}
}
