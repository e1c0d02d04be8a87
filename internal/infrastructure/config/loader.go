package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/jbctechsolutions/deskflip/internal/infrastructure/filesystem"
)

const fileHeader = `# deskflip configuration
# Environment overrides: DESKFLIP_ROOT, DESKFLIP_HOME, DESKFLIP_LOG_LEVEL, DESKFLIP_LISTEN
#
`

// Loader reads and writes config.yaml inside a config directory.
type Loader struct {
	configDir string
}

// NewLoader returns a loader for configDir, ~/.deskflip when empty.
func NewLoader(configDir string) (*Loader, error) {
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, ".deskflip")
	}
	return &Loader{configDir: configDir}, nil
}

// Load reads configPath (the default path when empty) over the defaults,
// applies DESKFLIP_* environment overrides and resolves paths. A missing
// file is not an error.
func (l *Loader) Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = l.DefaultConfigPath()
	}

	cfg, err := l.LoadFromFile(configPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		cfg = NewDefaultConfig()
	case err != nil:
		return nil, err
	}

	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	cfg.Workspace.Root = ExpandHome(cfg.Workspace.Root)
	cfg.Workspace.Home = ExpandHome(cfg.Workspace.Home)
	if cfg.Observability.History.Path == "" {
		cfg.Observability.History.Path = filepath.Join(l.configDir, "history.db")
	}
	return cfg, nil
}

// LoadFromFile decodes configPath over the defaults. Unknown keys are
// rejected. The returned error wraps fs.ErrNotExist for a missing file.
func (l *Loader) LoadFromFile(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := NewDefaultConfig()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(configPath), err)
	}
	return cfg, nil
}

// Save writes cfg to configPath (the default path when empty) with mode 0600.
func (l *Loader) Save(cfg *Config, configPath string) error {
	if configPath == "" {
		configPath = l.DefaultConfigPath()
	}

	var buf bytes.Buffer
	buf.WriteString(fileHeader)
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := filesystem.WriteFileAtomic(configPath, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// ConfigDir returns the configuration directory.
func (l *Loader) ConfigDir() string {
	return l.configDir
}

// DefaultConfigPath returns <configDir>/config.yaml.
func (l *Loader) DefaultConfigPath() string {
	return filepath.Join(l.configDir, "config.yaml")
}
