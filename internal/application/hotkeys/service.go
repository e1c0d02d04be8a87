package hotkeys

import (
	"fmt"

	"github.com/jbctechsolutions/deskflip/internal/application/ports"
	domainErrors "github.com/jbctechsolutions/deskflip/internal/domain/errors"
	"github.com/jbctechsolutions/deskflip/internal/domain/hotkey"
	"github.com/jbctechsolutions/deskflip/internal/infrastructure/logging"
)

// Service reads and changes the persisted hotkey settings and keeps the
// live cell in step with the file.
type Service struct {
	store  ports.HotkeySettingsStore
	cell   *Cell
	logger *logging.Logger
}

// NewService loads the stored settings into a new cell. A file that cannot
// be read falls back to defaults.
func NewService(store ports.HotkeySettingsStore, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	s := &Service{store: store, logger: logger.With("component", "hotkeys")}

	settings, err := store.Load()
	if err != nil {
		s.logger.Warn("hotkey settings unreadable, using defaults", "path", store.Path(), "error", err)
		settings = hotkey.DefaultSettings()
	}
	s.cell = NewCell(settings)
	return s
}

// Cell returns the live settings cell read by the listener.
func (s *Service) Cell() *Cell {
	return s.cell
}

// Path returns the settings file path.
func (s *Service) Path() string {
	return s.store.Path()
}

// Settings returns the live settings.
func (s *Service) Settings() hotkey.Settings {
	return s.cell.Get()
}

// Set validates, persists and activates settings.
func (s *Service) Set(settings hotkey.Settings) (hotkey.Settings, error) {
	m, err := hotkey.ParseModifier(string(settings.Modifier))
	if err != nil {
		return hotkey.Settings{}, domainErrors.NewError(domainErrors.CodeValidation, "invalid hotkey modifier", err)
	}
	settings.Modifier = m

	if err := s.store.Save(settings); err != nil {
		return hotkey.Settings{}, domainErrors.NewError(domainErrors.CodeStorage, "could not save hotkey settings", err)
	}
	s.cell.Set(settings)
	s.logger.Info("hotkey settings changed", "enabled", settings.Enabled, "modifier", settings.Modifier)
	return settings, nil
}

// Toggle flips the enabled flag.
func (s *Service) Toggle() (hotkey.Settings, error) {
	settings := s.cell.Get()
	settings.Enabled = !settings.Enabled
	return s.Set(settings)
}

// Reload re-reads the settings file into the cell. Invalid files leave the
// current settings in place.
func (s *Service) Reload() error {
	settings, err := s.store.Load()
	if err != nil {
		return fmt.Errorf("reload hotkey settings: %w", err)
	}
	if settings != s.cell.Get() {
		s.logger.Info("hotkey settings reloaded", "enabled", settings.Enabled, "modifier", settings.Modifier)
	}
	s.cell.Set(settings)
	return nil
}
