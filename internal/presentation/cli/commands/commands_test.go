package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/jbctechsolutions/deskflip/internal/application"
	"github.com/jbctechsolutions/deskflip/internal/application/ports"
	domainErrors "github.com/jbctechsolutions/deskflip/internal/domain/errors"
	"github.com/jbctechsolutions/deskflip/internal/domain/hotkey"
	"github.com/jbctechsolutions/deskflip/internal/domain/profile"
	"github.com/jbctechsolutions/deskflip/internal/domain/vdesk"
	"github.com/jbctechsolutions/deskflip/internal/infrastructure/config"
)

var errNoShell = errors.New("no shell in tests")

type stubDesktop struct{}

func (stubDesktop) OpenView(context.Context) (ports.DesktopView, error) { return nil, errNoShell }

type stubFolder struct{ live string }

func (f *stubFolder) CurrentDesktopPath(context.Context) (string, error) { return f.live, nil }
func (f *stubFolder) SetDesktopPath(_ context.Context, p string) error   { f.live = p; return nil }
func (f *stubFolder) Broadcast(context.Context) error                    { return nil }
func (f *stubFolder) RefreshDesktop(context.Context) error               { return nil }

type stubVDesk struct {
	count   int
	current int
	windows []vdesk.Window
}

func (v *stubVDesk) Count(context.Context) (int, error)                 { return v.count, nil }
func (v *stubVDesk) Current(context.Context) (int, error)               { return v.current, nil }
func (v *stubVDesk) RequestCreate(context.Context) error                { v.count++; return nil }
func (v *stubVDesk) RequestRemove(context.Context) error                { v.count--; return nil }
func (v *stubVDesk) RequestStep(context.Context, vdesk.Direction) error { return nil }
func (v *stubVDesk) WindowSlot(context.Context, uintptr) (int, error)   { return 1, nil }
func (v *stubVDesk) MoveWindow(context.Context, uintptr, int) error     { return nil }
func (v *stubVDesk) Windows(context.Context) ([]vdesk.Window, error)    { return v.windows, nil }

type stubKeys struct{}

func (stubKeys) Run(ctx context.Context, _ func(hotkey.KeyEvent) bool) error {
	<-ctx.Done()
	return nil
}

type stubHider struct{}

func (stubHider) Hide(string) error { return nil }

// cliEnv runs commands against a temp managed root with stub drivers.
type cliEnv struct {
	cfg    *config.Config
	folder *stubFolder
	vdesk  *stubVDesk
	config string
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	base := t.TempDir()
	original := filepath.Join(base, "Desktop")
	if err := os.MkdirAll(original, 0o755); err != nil {
		t.Fatal(err)
	}

	cfg := config.NewDefaultConfig()
	cfg.Workspace.Root = filepath.Join(base, "Deskflip")
	cfg.Observability.History.Path = filepath.Join(base, "history.db")
	cfg.Timing.RestoreSettle = 0
	cfg.Timing.RedirectSettle = 0
	cfg.Timing.ReadinessAttempts = 1
	cfg.Timing.ReadinessInterval = 0

	env := &cliEnv{
		cfg:    cfg,
		folder: &stubFolder{live: original},
		vdesk:  &stubVDesk{count: 3, windows: []vdesk.Window{{Handle: 0x10, Title: "Editor", ProcessID: 42, Slot: 0}}},
		config: filepath.Join(base, "missing.yaml"),
	}

	prev := newContainer
	newContainer = func(_ *config.Config, verbose bool) (*application.Container, error) {
		return application.NewContainer(env.cfg, application.Options{
			Verbose: verbose,
			Platform: application.Platform{
				Desktop: stubDesktop{},
				Folder:  env.folder,
				VDesk:   env.vdesk,
				Keys:    stubKeys{},
				Hider:   stubHider{},
			},
		})
	}
	t.Cleanup(func() {
		Shutdown()
		newContainer = prev
	})
	return env
}

// run executes one command line the way a separate process would.
func (e *cliEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	root := NewRootCmd()
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(append([]string{"--config", e.config}, args...))
	err := root.ExecuteContext(context.Background())
	Shutdown()
	return buf.String(), err
}

func (e *cliEnv) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := e.run(t, args...)
	if err != nil {
		t.Fatalf("%s: %v\n%s", strings.Join(args, " "), err, out)
	}
	return out
}

func decodeJSON[T any](t *testing.T, out string) T {
	t.Helper()
	var v T
	if err := json.Unmarshal([]byte(out), &v); err != nil {
		t.Fatalf("invalid JSON %q: %v", out, err)
	}
	return v
}

func TestNewRootCmd(t *testing.T) {
	cmd := NewRootCmd()

	if cmd.Use != "deskflip" {
		t.Errorf("expected Use='deskflip', got %q", cmd.Use)
	}

	wantSubcmds := []string{"version", "desktop", "layout", "link", "unlink", "links", "vdesk", "hotkeys", "history", "serve", "console"}
	subcmds := make(map[string]bool)
	for _, sub := range cmd.Commands() {
		subcmds[sub.Name()] = true
	}
	for _, want := range wantSubcmds {
		if !subcmds[want] {
			t.Errorf("missing subcommand: %s", want)
		}
	}

	for _, flag := range []string{"config", "output", "verbose"} {
		if cmd.PersistentFlags().Lookup(flag) == nil {
			t.Errorf("missing persistent flag: %s", flag)
		}
	}
}

func TestVersionCmd(t *testing.T) {
	buf := new(bytes.Buffer)
	root := NewRootCmd()
	root.SetOut(buf)
	root.SetArgs([]string{"version", "--short", "-o", "json"})
	if err := root.Execute(); err != nil {
		t.Fatalf("version failed: %v", err)
	}

	got := decodeJSON[map[string]string](t, buf.String())
	if got["version"] != Version {
		t.Errorf("version = %q, want %q", got["version"], Version)
	}
	if GetAppContext() != nil {
		t.Error("version should not initialize the application")
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"validation", domainErrors.NewError(domainErrors.CodeValidation, "bad", nil), 2},
		{"not found sentinel", fmt.Errorf("wrap: %w", domainErrors.ErrProfileNotFound), 3},
		{"conflict", domainErrors.ErrActiveProfile, 4},
		{"unsupported", domainErrors.ErrUnsupportedPlatform, 5},
		{"platform", domainErrors.NewError(domainErrors.CodePlatform, "shell", nil), 6},
		{"storage", domainErrors.NewError(domainErrors.CodeStorage, "disk", nil), 7},
		{"plain", errors.New("boom"), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestParseArguments(t *testing.T) {
	tests := []struct {
		name    string
		parse   func(string) error
		arg     string
		wantErr bool
	}{
		{"id", func(s string) error { _, err := parseID(s); return err }, "3", false},
		{"id zero", func(s string) error { _, err := parseID(s); return err }, "0", true},
		{"id text", func(s string) error { _, err := parseID(s); return err }, "two", true},
		{"index zero", func(s string) error { _, err := parseIndex(s); return err }, "0", false},
		{"index negative", func(s string) error { _, err := parseIndex(s); return err }, "-1", true},
		{"handle hex", func(s string) error { _, err := parseHandle(s); return err }, "0x1a2b", false},
		{"handle decimal", func(s string) error { _, err := parseHandle(s); return err }, "6699", false},
		{"handle zero", func(s string) error { _, err := parseHandle(s); return err }, "0", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.parse(tt.arg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parse(%q) error = %v, wantErr %v", tt.arg, err, tt.wantErr)
			}
			if err != nil && domainErrors.CodeOf(err) != domainErrors.CodeValidation {
				t.Errorf("code = %s, want VALIDATION", domainErrors.CodeOf(err))
			}
		})
	}
}

func TestDesktopCommands(t *testing.T) {
	env := newCLIEnv(t)

	out := env.mustRun(t, "desktop", "create")
	if !strings.Contains(out, "Created desktop 1") {
		t.Errorf("create output = %q", out)
	}
	env.mustRun(t, "desktop", "create")

	out = env.mustRun(t, "desktop", "switch", "1")
	if !strings.Contains(out, "Switched to desktop 1") {
		t.Errorf("switch output = %q", out)
	}
	want := filepath.Join(env.cfg.Workspace.Root, profile.FolderName(1))
	if env.folder.live != want {
		t.Errorf("desktop folder = %q, want %q", env.folder.live, want)
	}

	views := decodeJSON[[]profile.View](t, env.mustRun(t, "desktop", "list", "-o", "json"))
	if len(views) != 2 {
		t.Fatalf("profiles = %d, want 2", len(views))
	}
	if !views[0].IsActive || views[1].IsActive {
		t.Errorf("active flags = %v, %v", views[0].IsActive, views[1].IsActive)
	}

	env.mustRun(t, "desktop", "rename", "2", "Work")
	view := decodeJSON[profile.View](t, env.mustRun(t, "desktop", "rename", "2", "Projects", "-o", "json"))
	if view.Name != "Projects" {
		t.Errorf("name = %q, want Projects", view.Name)
	}

	env.mustRun(t, "desktop", "restore")
	if env.folder.live == want {
		t.Error("restore should leave the profile folder")
	}
	env.mustRun(t, "desktop", "delete", "2")
}

func TestCompactJSON(t *testing.T) {
	env := newCLIEnv(t)
	env.mustRun(t, "desktop", "create")

	tests := []struct {
		name    string
		args    []string
		compact bool
	}{
		{name: "indented", args: []string{"desktop", "list", "-o", "json"}},
		{name: "compact", args: []string{"desktop", "list", "-o", "json", "--compact"}, compact: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := env.mustRun(t, tt.args...)
			if len(decodeJSON[[]profile.View](t, out)) != 1 {
				t.Fatalf("output = %q", out)
			}
			lines := strings.Count(strings.TrimSpace(out), "\n") + 1
			if tt.compact && lines != 1 || !tt.compact && lines < 3 {
				t.Errorf("lines = %d, output = %q", lines, out)
			}
		})
	}
}

func TestDesktopCommandErrors(t *testing.T) {
	env := newCLIEnv(t)
	env.mustRun(t, "desktop", "create")
	env.mustRun(t, "desktop", "switch", "1")

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"unknown profile", []string{"desktop", "switch", "9"}, 3},
		{"active profile", []string{"desktop", "delete", "1"}, 4},
		{"bad id", []string{"desktop", "switch", "first"}, 2},
		{"bad slot", []string{"link", "1", "left"}, 2},
		{"bad output", []string{"desktop", "list", "-o", "yaml"}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.run(t, tt.args...)
			if err == nil {
				t.Fatal("expected error")
			}
			if got := ExitCode(err); got != tt.want {
				t.Errorf("ExitCode(%v) = %d, want %d", err, got, tt.want)
			}
		})
	}
}

func TestLinkCommands(t *testing.T) {
	env := newCLIEnv(t)
	env.mustRun(t, "desktop", "create")

	env.mustRun(t, "link", "1", "2")
	links := decodeJSON[map[string]string](t, env.mustRun(t, "links", "-o", "json"))
	if links["1"] != "2" {
		t.Errorf("links = %v, want 1 -> 2", links)
	}

	env.mustRun(t, "unlink", "1")
	links = decodeJSON[map[string]string](t, env.mustRun(t, "links", "-o", "json"))
	if len(links) != 0 {
		t.Errorf("links after unlink = %v", links)
	}
}

func TestVdeskCommands(t *testing.T) {
	env := newCLIEnv(t)

	count := decodeJSON[map[string]int](t, env.mustRun(t, "vdesk", "count", "-o", "json"))
	if count["count"] != 3 {
		t.Errorf("count = %v, want 3", count)
	}

	out := env.mustRun(t, "vdesk", "which", "0x10")
	if strings.TrimSpace(out) != "1" {
		t.Errorf("which output = %q, want 1", out)
	}

	windows := decodeJSON[[]vdesk.Window](t, env.mustRun(t, "vdesk", "windows", "-o", "json"))
	if len(windows) != 1 || windows[0].Title != "Editor" {
		t.Errorf("windows = %+v", windows)
	}

	if _, err := env.run(t, "vdesk", "move", "nope", "1"); ExitCode(err) != 2 {
		t.Errorf("move with bad handle: %v", err)
	}
}

func TestHotkeysCommands(t *testing.T) {
	env := newCLIEnv(t)

	got := decodeJSON[hotkey.Settings](t, env.mustRun(t, "hotkeys", "set", "--modifier", "Ctrl+Alt", "-o", "json"))
	if got.Modifier != hotkey.ModifierCtrlAlt || !got.Enabled {
		t.Errorf("settings = %+v", got)
	}

	got = decodeJSON[hotkey.Settings](t, env.mustRun(t, "hotkeys", "toggle", "-o", "json"))
	if got.Enabled {
		t.Error("toggle should disable hotkeys")
	}

	got = decodeJSON[hotkey.Settings](t, env.mustRun(t, "hotkeys", "show", "-o", "json"))
	if got.Enabled || got.Modifier != hotkey.ModifierCtrlAlt {
		t.Errorf("persisted settings = %+v", got)
	}

	if _, err := env.run(t, "hotkeys", "set", "--modifier", "win"); ExitCode(err) != 2 {
		t.Errorf("invalid modifier: %v", err)
	}
}

func TestHistoryCommand(t *testing.T) {
	env := newCLIEnv(t)
	env.mustRun(t, "desktop", "create")
	env.mustRun(t, "desktop", "switch", "1")

	records := decodeJSON[[]map[string]any](t, env.mustRun(t, "history", "-o", "json"))
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}
	if records[0]["operation"] != "switch" {
		t.Errorf("most recent operation = %v, want switch", records[0]["operation"])
	}

	records = decodeJSON[[]map[string]any](t, env.mustRun(t, "history", "--operation", "create", "-o", "json"))
	if len(records) != 1 {
		t.Errorf("filtered records = %d, want 1", len(records))
	}
}

func TestHistoryCommandDisabled(t *testing.T) {
	env := newCLIEnv(t)
	env.cfg.Observability.History.Enabled = false

	out := env.mustRun(t, "history")
	if !strings.Contains(out, "disabled") {
		t.Errorf("output = %q", out)
	}
	if out := env.mustRun(t, "history", "-o", "json"); strings.TrimSpace(out) != "[]" {
		t.Errorf("json output = %q, want []", out)
	}
}

func TestConsoleCompleter(t *testing.T) {
	root := NewRootCmd()
	pc := consoleCompleter(root)

	names := map[string]bool{}
	for _, child := range pc.GetChildren() {
		names[strings.TrimSpace(string(child.GetName()))] = true
	}
	for _, want := range []string{"exit", "desktop", "vdesk"} {
		if !names[want] {
			t.Errorf("completer missing %q", want)
		}
	}
	if names["console"] {
		t.Error("completer should not offer console")
	}
}

func TestRunConsoleLine(t *testing.T) {
	env := newCLIEnv(t)
	env.mustRun(t, "desktop", "create")

	buf := new(bytes.Buffer)
	parent := &cobra.Command{}
	parent.SetOut(buf)
	parent.SetErr(buf)
	parent.SetContext(context.Background())

	if err := runConsoleLine(parent, []string{"--config", env.config, "desktop", "list", "-o", "json"}); err != nil {
		t.Fatalf("runConsoleLine failed: %v", err)
	}
	first := GetAppContext()
	if err := runConsoleLine(parent, []string{"links"}); err != nil {
		t.Fatalf("second line failed: %v", err)
	}
	if GetAppContext() != first {
		t.Error("console lines should share the application context")
	}
	if !strings.Contains(buf.String(), `"id": 1`) {
		t.Errorf("output = %q", buf.String())
	}
}
