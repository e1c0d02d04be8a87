package application

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/jbctechsolutions/deskflip/internal/application/ports"
	"github.com/jbctechsolutions/deskflip/internal/application/workspace"
	"github.com/jbctechsolutions/deskflip/internal/domain/history"
	"github.com/jbctechsolutions/deskflip/internal/domain/hotkey"
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

type stubVDesk struct{}

func (stubVDesk) Count(context.Context) (int, error)                 { return 0, errNoShell }
func (stubVDesk) Current(context.Context) (int, error)               { return 0, errNoShell }
func (stubVDesk) RequestCreate(context.Context) error                { return errNoShell }
func (stubVDesk) RequestRemove(context.Context) error                { return errNoShell }
func (stubVDesk) RequestStep(context.Context, vdesk.Direction) error { return errNoShell }
func (stubVDesk) WindowSlot(context.Context, uintptr) (int, error)   { return 0, errNoShell }
func (stubVDesk) MoveWindow(context.Context, uintptr, int) error     { return errNoShell }
func (stubVDesk) Windows(context.Context) ([]vdesk.Window, error)    { return nil, errNoShell }

type stubKeys struct{}

func (stubKeys) Run(context.Context, func(hotkey.KeyEvent) bool) error { return errNoShell }

type stubHider struct{}

func (stubHider) Hide(string) error { return nil }

func testConfig(t *testing.T) (*config.Config, *stubFolder) {
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
	return cfg, &stubFolder{live: original}
}

func testPlatform(folder *stubFolder) Platform {
	return Platform{
		Desktop: stubDesktop{},
		Folder:  folder,
		VDesk:   stubVDesk{},
		Keys:    stubKeys{},
		Hider:   stubHider{},
	}
}

func TestNewContainer(t *testing.T) {
	cfg, folder := testConfig(t)

	c, err := NewContainer(cfg, Options{Platform: testPlatform(folder)})
	if err != nil {
		t.Fatalf("NewContainer failed: %v", err)
	}
	defer c.Close()

	if c.Config() == nil || c.Logger() == nil || c.Tracer() == nil {
		t.Error("core services should not be nil")
	}
	if c.DB() == nil || c.HistoryRepository() == nil {
		t.Error("history should be wired when enabled")
	}
	if c.Metrics() == nil {
		t.Error("metrics should be wired when enabled")
	}
	if c.Orchestrator() == nil || c.Bridge() == nil || c.Hotkeys() == nil || c.KeyHook() == nil {
		t.Error("application services should not be nil")
	}
	if _, err := os.Stat(cfg.Workspace.Root); err != nil {
		t.Errorf("managed root not created: %v", err)
	}
}

func TestContainerInvalidConfig(t *testing.T) {
	cfg, folder := testConfig(t)
	cfg.Workspace.MaxProfiles = 0

	if _, err := NewContainer(cfg, Options{Platform: testPlatform(folder)}); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestContainerHistoryDisabled(t *testing.T) {
	cfg, folder := testConfig(t)
	cfg.Observability.History.Enabled = false
	cfg.Observability.Metrics.Enabled = false

	c, err := NewContainer(cfg, Options{Platform: testPlatform(folder)})
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	if c.DB() != nil || c.HistoryRepository() != nil || c.Metrics() != nil {
		t.Error("disabled features should be nil")
	}
	if _, err := os.Stat(cfg.Observability.History.Path); !os.IsNotExist(err) {
		t.Error("history database created although disabled")
	}
}

func TestContainerSwitchIsJournaled(t *testing.T) {
	cfg, folder := testConfig(t)
	c, err := NewContainer(cfg, Options{Platform: testPlatform(folder)})
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	ctx := context.Background()
	orch := c.Orchestrator()
	p, err := orch.Create(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := orch.Switch(ctx, p.ID, workspace.SwitchOptions{}); err != nil {
		t.Fatalf("Switch() error = %v", err)
	}
	if folder.live != p.Path {
		t.Errorf("desktop = %q, want %q", folder.live, p.Path)
	}

	records, err := c.HistoryRepository().List(ctx, history.Filter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d, want create and switch", len(records))
	}
	ops := map[string]string{}
	for _, r := range records {
		ops[r.Operation] = r.Status
	}
	if ops[history.OpCreate] != history.StatusOK {
		t.Errorf("create status = %q", ops[history.OpCreate])
	}
	// No capture from the original desktop; the new profile has no saved
	// layout so restore applies nothing.
	if ops[history.OpSwitch] != history.StatusOK {
		t.Errorf("switch status = %q", ops[history.OpSwitch])
	}
}
