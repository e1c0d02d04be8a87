// Package storage provides storage implementations for the application layer ports.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"github.com/tidwall/jsonc"

	"github.com/jbctechsolutions/deskflip/internal/application/ports"
	domainErrors "github.com/jbctechsolutions/deskflip/internal/domain/errors"
	"github.com/jbctechsolutions/deskflip/internal/domain/profile"
	"github.com/jbctechsolutions/deskflip/internal/infrastructure/filesystem"
	"github.com/jbctechsolutions/deskflip/internal/infrastructure/logging"
	"github.com/jbctechsolutions/deskflip/internal/infrastructure/security"
)

// StateFileStore implements ports.StateStore as a JSON document under the
// managed root.
type StateFileStore struct {
	root   string
	home   string
	shell  ports.FolderShell
	guard  *security.PathGuard
	logger *logging.Logger
}

// StateFileStoreConfig configures a StateFileStore.
type StateFileStoreConfig struct {
	Root string // Managed root
	Home string // Home for the fallback original desktop (empty = OS home)

	// Shell reports the live Desktop folder used to seed the original path.
	// Nil skips straight to the fallback.
	Shell  ports.FolderShell
	Logger *logging.Logger
}

// NewStateFileStore creates a new StateFileStore.
func NewStateFileStore(cfg StateFileStoreConfig) *StateFileStore {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	return &StateFileStore{
		root:   cfg.Root,
		home:   cfg.Home,
		shell:  cfg.Shell,
		guard:  security.NewPathGuard(cfg.Root),
		logger: logger.With("component", "state_store"),
	}
}

// Root returns the managed root directory.
func (s *StateFileStore) Root() string {
	return s.root
}

// Path returns the state document path.
func (s *StateFileStore) Path() string {
	return filepath.Join(s.root, filesystem.StateFile)
}

// FolderPath returns <root>/Desktop<id>.
func (s *StateFileStore) FolderPath(id int) string {
	return filepath.Join(s.root, profile.FolderName(id))
}

// CountEntries counts folder entries other than the layout sidecar.
func (s *StateFileStore) CountEntries(path string) int {
	return filesystem.CountEntries(path, filesystem.LayoutFile)
}

// Load reads the state document. Missing, unparsable or invalid documents
// yield a default state; Load never fails.
func (s *StateFileStore) Load(ctx context.Context) profile.State {
	data, err := os.ReadFile(s.Path())
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.WarnContext(ctx, "state file unreadable, using defaults", "path", s.Path(), "error", err)
		}
		return s.defaultState(ctx)
	}

	var st profile.State
	if err := json.Unmarshal(jsonc.ToJSON(data), &st); err != nil {
		s.logger.WarnContext(ctx, "state file corrupt, using defaults", "path", s.Path(), "error", err)
		return s.defaultState(ctx)
	}
	if err := st.Validate(); err != nil {
		s.logger.WarnContext(ctx, "state file invalid, using defaults", "path", s.Path(), "error", err)
		return s.defaultState(ctx)
	}

	st.Normalize()
	if st.OriginalPath == "" || s.guard.Contains(st.OriginalPath) {
		st.OriginalPath = s.discoverOriginal(ctx)
	}
	return st
}

// Save writes the full document with write-then-rename.
func (s *StateFileStore) Save(ctx context.Context, st profile.State) error {
	if err := filesystem.EnsureDir(s.root); err != nil {
		return domainErrors.NewError(domainErrors.CodeStorage, "could not create managed root", err)
	}

	st.Normalize()
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return domainErrors.NewError(domainErrors.CodeStorage, "could not encode workspace state", err)
	}

	if err := filesystem.WriteFileAtomic(s.Path(), data, 0644); err != nil {
		return domainErrors.NewError(domainErrors.CodeStorage, "could not save workspace state", err)
	}

	s.logger.DebugContext(ctx, "state saved", "profiles", len(st.Profiles), "active", st.ActiveID)
	return nil
}

func (s *StateFileStore) defaultState(ctx context.Context) profile.State {
	return profile.NewState(s.discoverOriginal(ctx))
}

// discoverOriginal returns the live Desktop folder, falling back to
// <home>/Desktop. Paths inside the managed root are never adopted.
func (s *StateFileStore) discoverOriginal(ctx context.Context) string {
	if s.shell != nil {
		path, err := s.shell.CurrentDesktopPath(ctx)
		switch {
		case err != nil:
			s.logger.DebugContext(ctx, "desktop path lookup failed", "error", err)
		case path != "" && !s.guard.Contains(path):
			return path
		case path != "":
			s.logger.WarnContext(ctx, "live desktop path is inside the managed root, not adopting it", "path", path)
		}
	}

	home := s.home
	if home == "" {
		h, err := os.UserHomeDir()
		if err != nil {
			s.logger.WarnContext(ctx, "no home directory for original desktop", "error", err)
			return ""
		}
		home = h
	}

	fallback := filepath.Join(home, "Desktop")
	if s.guard.Contains(fallback) {
		s.logger.WarnContext(ctx, "fallback desktop path is inside the managed root", "path", fallback)
		return ""
	}
	return fallback
}

var _ ports.StateStore = (*StateFileStore)(nil)
