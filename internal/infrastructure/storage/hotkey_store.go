package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/tidwall/jsonc"

	"github.com/jbctechsolutions/deskflip/internal/application/ports"
	"github.com/jbctechsolutions/deskflip/internal/domain/hotkey"
	"github.com/jbctechsolutions/deskflip/internal/infrastructure/filesystem"
)

// HotkeyFileStore implements ports.HotkeySettingsStore as a JSON file.
type HotkeyFileStore struct {
	path string
}

// NewHotkeyFileStore creates a store backed by path.
func NewHotkeyFileStore(path string) *HotkeyFileStore {
	return &HotkeyFileStore{path: path}
}

// Path returns the settings file path.
func (s *HotkeyFileStore) Path() string {
	return s.path
}

// Load returns the saved settings. A missing file yields defaults without
// error; an unreadable or invalid one yields defaults and the error.
func (s *HotkeyFileStore) Load() (hotkey.Settings, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return hotkey.DefaultSettings(), nil
	}
	if err != nil {
		return hotkey.DefaultSettings(), fmt.Errorf("failed to read hotkey settings: %w", err)
	}

	settings := hotkey.DefaultSettings()
	if err := json.Unmarshal(jsonc.ToJSON(data), &settings); err != nil {
		return hotkey.DefaultSettings(), fmt.Errorf("failed to parse hotkey settings: %w", err)
	}

	m, err := hotkey.ParseModifier(string(settings.Modifier))
	if err != nil {
		return hotkey.DefaultSettings(), err
	}
	settings.Modifier = m
	return settings, nil
}

// Save validates and writes the settings.
func (s *HotkeyFileStore) Save(settings hotkey.Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode hotkey settings: %w", err)
	}
	if err := filesystem.WriteFileAtomic(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to save hotkey settings: %w", err)
	}
	return nil
}

var _ ports.HotkeySettingsStore = (*HotkeyFileStore)(nil)
