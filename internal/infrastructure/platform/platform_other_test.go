//go:build !windows

package platform

import (
	"context"
	"errors"
	"testing"

	domainErrors "github.com/jbctechsolutions/deskflip/internal/domain/errors"
	"github.com/jbctechsolutions/deskflip/internal/domain/vdesk"
)

func TestDriversReportUnsupported(t *testing.T) {
	ctx := context.Background()
	shell := NewFolderShell(nil)
	driver := NewVirtualDesktopDriver(nil)

	drop := func(_ any, err error) error { return err }

	calls := map[string]func() error{
		"open view":    func() error { return drop(NewDesktopShell(nil).OpenView(ctx)) },
		"current path": func() error { return drop(shell.CurrentDesktopPath(ctx)) },
		"set path":     func() error { return shell.SetDesktopPath(ctx, "/tmp/x") },
		"broadcast":    func() error { return shell.Broadcast(ctx) },
		"refresh":      func() error { return shell.RefreshDesktop(ctx) },
		"count":        func() error { return drop(driver.Count(ctx)) },
		"step":         func() error { return driver.RequestStep(ctx, vdesk.Left) },
		"move":         func() error { return driver.MoveWindow(ctx, 1, 0) },
		"windows":      func() error { return drop(driver.Windows(ctx)) },
		"key hook":     func() error { return NewKeyHook(nil).Run(ctx, nil) },
	}

	for name, call := range calls {
		t.Run(name, func(t *testing.T) {
			err := call()
			if !errors.Is(err, domainErrors.ErrUnsupportedPlatform) {
				t.Errorf("error = %v, want ErrUnsupportedPlatform", err)
			}
			if domainErrors.CodeOf(err) != domainErrors.CodeUnsupported {
				t.Errorf("code = %s, want UNSUPPORTED", domainErrors.CodeOf(err))
			}
		})
	}
}

func TestFileHiderNoop(t *testing.T) {
	if err := NewFileHider().Hide("/does/not/matter"); err != nil {
		t.Errorf("Hide() = %v", err)
	}
}
