package storage

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"github.com/tidwall/jsonc"

	"github.com/jbctechsolutions/deskflip/internal/application/ports"
	domainErrors "github.com/jbctechsolutions/deskflip/internal/domain/errors"
	"github.com/jbctechsolutions/deskflip/internal/domain/layout"
	"github.com/jbctechsolutions/deskflip/internal/infrastructure/filesystem"
	"github.com/jbctechsolutions/deskflip/internal/infrastructure/logging"
)

// LayoutFileStore implements ports.LayoutStore with a hidden JSON sidecar
// inside each profile folder.
type LayoutFileStore struct {
	hider  ports.FileHider
	logger *logging.Logger
}

// NewLayoutFileStore creates a new LayoutFileStore. A nil hider leaves
// sidecars visible.
func NewLayoutFileStore(hider ports.FileHider, logger *logging.Logger) *LayoutFileStore {
	if logger == nil {
		logger = logging.Default()
	}
	return &LayoutFileStore{
		hider:  hider,
		logger: logger.With("component", "layout_store"),
	}
}

// SidecarPath returns the layout file path for a folder.
func SidecarPath(folder string) string {
	return filepath.Join(folder, filesystem.LayoutFile)
}

// Read returns the saved layout; missing or corrupt sidecars read as empty.
func (s *LayoutFileStore) Read(folder string) layout.Layout {
	data, err := os.ReadFile(SidecarPath(folder))
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("layout unreadable", "folder", folder, "error", err)
		}
		return layout.New()
	}

	var l layout.Layout
	if err := json.Unmarshal(jsonc.ToJSON(data), &l); err != nil {
		s.logger.Warn("layout corrupt, ignoring", "folder", folder, "error", err)
		return layout.New()
	}
	if l.Icons == nil {
		l.Icons = map[string]layout.Position{}
	}
	return l
}

// Write saves the layout and marks the sidecar hidden. A hide failure is
// logged only.
func (s *LayoutFileStore) Write(folder string, l layout.Layout) error {
	if !filesystem.DirExists(folder) {
		return domainErrors.NewError(domainErrors.CodeNotFound, "layout folder does not exist: "+folder, domainErrors.ErrFolderMissing)
	}
	if l.Icons == nil {
		l.Icons = map[string]layout.Position{}
	}

	data, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return domainErrors.NewError(domainErrors.CodeStorage, "could not encode layout", err)
	}

	path := SidecarPath(folder)
	if err := filesystem.WriteFileAtomic(path, data, 0644); err != nil {
		return domainErrors.NewError(domainErrors.CodeStorage, "could not save layout", err)
	}

	if s.hider != nil {
		if err := s.hider.Hide(path); err != nil {
			s.logger.Warn("could not hide layout file", "path", path, "error", err)
		}
	}
	return nil
}

var _ ports.LayoutStore = (*LayoutFileStore)(nil)
