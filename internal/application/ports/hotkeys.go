package ports

import (
	"context"

	"github.com/jbctechsolutions/deskflip/internal/domain/hotkey"
)

// HotkeySettingsStore persists hotkey settings.
type HotkeySettingsStore interface {
	// Load returns saved settings, or defaults when none are stored.
	Load() (hotkey.Settings, error)

	// Save persists settings.
	Save(s hotkey.Settings) error

	// Path returns the backing file, for watchers.
	Path() string
}

// KeyHook installs a global keyboard hook. Run blocks until ctx is done;
// onKey is invoked on the hook thread and returns true to swallow the key.
type KeyHook interface {
	Run(ctx context.Context, onKey func(hotkey.KeyEvent) bool) error
}
