package ports

import (
	"context"

	"github.com/jbctechsolutions/deskflip/internal/domain/layout"
)

// ShellItem is one background item of the desktop view.
type ShellItem struct {
	Name     string
	Position layout.Position
}

// DesktopView is an open handle to the desktop's background icon view.
// Implementations may pin the calling goroutine to an OS thread until Close.
type DesktopView interface {
	// ItemCount returns the number of background items currently shown.
	ItemCount() (int, error)

	// Item returns the display name and position of the item at index.
	Item(index int) (ShellItem, error)

	// SetIconMode forces the view into icon mode.
	SetIconMode() error

	// ClearArrangeFlags turns off auto-arrange and snap-to-grid.
	ClearArrangeFlags() error

	// PositionItem resolves name through the desktop folder and moves that
	// single item. Unresolvable names return ErrItemUnresolved.
	PositionItem(name string, p layout.Position) error

	// Close releases the view.
	Close() error
}

// DesktopShell opens the desktop icon view.
type DesktopShell interface {
	OpenView(ctx context.Context) (DesktopView, error)
}

// FolderShell drives the OS Desktop known folder.
type FolderShell interface {
	// CurrentDesktopPath returns the live Desktop folder setting.
	CurrentDesktopPath(ctx context.Context) (string, error)

	// SetDesktopPath repoints the Desktop known folder.
	SetDesktopPath(ctx context.Context, path string) error

	// Broadcast notifies other processes and shell views of the change.
	Broadcast(ctx context.Context) error

	// RefreshDesktop asks the desktop list view to refresh.
	RefreshDesktop(ctx context.Context) error
}

// FileHider marks files hidden on platforms that have such an attribute.
type FileHider interface {
	Hide(path string) error
}
