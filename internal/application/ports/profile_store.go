// Package ports defines the application layer port interfaces following hexagonal architecture.
// Ports are abstractions that allow the application core to interact with external systems
// (adapters) without knowing their implementation details.
package ports

import (
	"context"

	"github.com/jbctechsolutions/deskflip/internal/domain/layout"
	"github.com/jbctechsolutions/deskflip/internal/domain/profile"
)

// -----------------------------------------------------------------------------
// Profile Store Port
// -----------------------------------------------------------------------------

// StateStore persists the singleton workspace document and knows where
// profile folders live under the managed root.
//
// Callers re-load, mutate and save the full document within one exclusive
// section; implementations hold no long-lived copy.
type StateStore interface {
	// Load returns the persisted state. It never fails: a missing or corrupt
	// document yields a fresh default state.
	Load(ctx context.Context) profile.State

	// Save writes the full document, creating the managed root if needed.
	Save(ctx context.Context, state profile.State) error

	// Root returns the managed root directory.
	Root() string

	// FolderPath returns <root>/Desktop<id>.
	FolderPath(id int) string

	// CountEntries returns the number of user entries in a folder,
	// or 0 when it is missing or unreadable.
	CountEntries(path string) int
}

// -----------------------------------------------------------------------------
// Layout Storage Port
// -----------------------------------------------------------------------------

// LayoutStore persists one icon layout per profile folder.
type LayoutStore interface {
	// Read returns the saved layout, or an empty layout when the sidecar
	// is missing or unparsable.
	Read(folder string) layout.Layout

	// Write saves the layout into the folder's hidden sidecar file.
	Write(folder string, l layout.Layout) error
}
