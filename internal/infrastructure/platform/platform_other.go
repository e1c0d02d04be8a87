//go:build !windows

package platform

import (
	"context"

	"github.com/jbctechsolutions/deskflip/internal/application/ports"
	"github.com/jbctechsolutions/deskflip/internal/domain/hotkey"
	"github.com/jbctechsolutions/deskflip/internal/domain/vdesk"
	"github.com/jbctechsolutions/deskflip/internal/infrastructure/logging"
)

// DesktopShell is unavailable off Windows.
type DesktopShell struct{}

// NewDesktopShell creates a DesktopShell.
func NewDesktopShell(*logging.Logger) *DesktopShell { return &DesktopShell{} }

func (*DesktopShell) OpenView(context.Context) (ports.DesktopView, error) {
	return nil, unsupported("desktop view")
}

// FolderShell is unavailable off Windows.
type FolderShell struct{}

// NewFolderShell creates a FolderShell.
func NewFolderShell(*logging.Logger) *FolderShell { return &FolderShell{} }

func (*FolderShell) CurrentDesktopPath(context.Context) (string, error) {
	return "", unsupported("desktop folder lookup")
}

func (*FolderShell) SetDesktopPath(context.Context, string) error {
	return unsupported("desktop folder redirect")
}

func (*FolderShell) Broadcast(context.Context) error {
	return unsupported("setting change broadcast")
}

func (*FolderShell) RefreshDesktop(context.Context) error {
	return unsupported("desktop refresh")
}

// FileHider is a no-op: dot files are already hidden on Unix systems.
type FileHider struct{}

// NewFileHider creates a FileHider.
func NewFileHider() *FileHider { return &FileHider{} }

func (FileHider) Hide(string) error { return nil }

// VirtualDesktopDriver is unavailable off Windows.
type VirtualDesktopDriver struct{}

// NewVirtualDesktopDriver creates a VirtualDesktopDriver.
func NewVirtualDesktopDriver(*logging.Logger) *VirtualDesktopDriver {
	return &VirtualDesktopDriver{}
}

func (*VirtualDesktopDriver) Count(context.Context) (int, error) {
	return 0, unsupported("virtual desktops")
}

func (*VirtualDesktopDriver) Current(context.Context) (int, error) {
	return 0, unsupported("virtual desktops")
}

func (*VirtualDesktopDriver) RequestCreate(context.Context) error {
	return unsupported("virtual desktops")
}

func (*VirtualDesktopDriver) RequestRemove(context.Context) error {
	return unsupported("virtual desktops")
}

func (*VirtualDesktopDriver) RequestStep(context.Context, vdesk.Direction) error {
	return unsupported("virtual desktops")
}

func (*VirtualDesktopDriver) WindowSlot(context.Context, uintptr) (int, error) {
	return 0, unsupported("virtual desktops")
}

func (*VirtualDesktopDriver) MoveWindow(context.Context, uintptr, int) error {
	return unsupported("virtual desktops")
}

func (*VirtualDesktopDriver) Windows(context.Context) ([]vdesk.Window, error) {
	return nil, unsupported("window enumeration")
}

// KeyHook is unavailable off Windows.
type KeyHook struct{}

// NewKeyHook creates a KeyHook.
func NewKeyHook(*logging.Logger) *KeyHook { return &KeyHook{} }

func (*KeyHook) Run(context.Context, func(hotkey.KeyEvent) bool) error {
	return unsupported("global hotkeys")
}

var (
	_ ports.DesktopShell         = (*DesktopShell)(nil)
	_ ports.FolderShell          = (*FolderShell)(nil)
	_ ports.FileHider            = FileHider{}
	_ ports.VirtualDesktopDriver = (*VirtualDesktopDriver)(nil)
	_ ports.KeyHook              = (*KeyHook)(nil)
)
