package ports

import (
	"context"

	"github.com/jbctechsolutions/deskflip/internal/domain/vdesk"
)

// VirtualDesktopDriver is the platform primitive layer for native virtual
// desktops. Create, remove and step requests are fire-and-forget; callers
// observe Count and Current to learn whether they took effect.
type VirtualDesktopDriver interface {
	// Count returns the number of slots.
	Count(ctx context.Context) (int, error)

	// Current returns the zero-based index of the active slot.
	Current(ctx context.Context) (int, error)

	// RequestCreate asks the OS to create a slot.
	RequestCreate(ctx context.Context) error

	// RequestRemove asks the OS to remove the active slot.
	RequestRemove(ctx context.Context) error

	// RequestStep asks the OS to activate the neighbouring slot.
	RequestStep(ctx context.Context, dir vdesk.Direction) error

	// WindowSlot returns the slot index hosting the window.
	WindowSlot(ctx context.Context, hwnd uintptr) (int, error)

	// MoveWindow moves a window to the slot at index.
	MoveWindow(ctx context.Context, hwnd uintptr, index int) error

	// Windows lists visible top-level windows, including untitled ones.
	Windows(ctx context.Context) ([]vdesk.Window, error)
}
