// Package config provides configuration structs and utilities for the deskflip application.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// Config represents the root configuration for the deskflip application.
type Config struct {
	Workspace     WorkspaceConfig     `yaml:"workspace"`
	Timing        TimingConfig        `yaml:"timing"`
	Logging       LoggingConfig       `yaml:"logging"`
	Observability ObservabilityConfig `yaml:"observability"`
	Server        ServerConfig        `yaml:"server"`
	Autosave      AutosaveConfig      `yaml:"autosave"`
}

// WorkspaceConfig locates the managed root and bounds the profile list.
type WorkspaceConfig struct {
	Root        string `yaml:"root"`         // Managed root holding profile folders and state
	Home        string `yaml:"home"`         // Home used for the fallback original desktop (empty = OS home)
	MaxProfiles int    `yaml:"max_profiles"` // Upper bound on profiles
}

// TimingConfig holds the delays and polling budgets used around shell calls.
type TimingConfig struct {
	RedirectSettle    time.Duration `yaml:"redirect_settle"`    // Pause between broadcast and desktop refresh
	RestoreSettle     time.Duration `yaml:"restore_settle"`     // Pause before restoring icons after a switch
	ReadinessAttempts int           `yaml:"readiness_attempts"` // Polls of the desktop item count
	ReadinessInterval time.Duration `yaml:"readiness_interval"` // Interval between readiness polls
	SlotSettle        time.Duration `yaml:"slot_settle"`        // Interval between virtual desktop polls
	SlotAttempts      int           `yaml:"slot_attempts"`      // Polls after a virtual desktop request
	ForceSaveDelay    time.Duration `yaml:"force_save_delay"`   // Pause before a forced layout save
}

// LoggingConfig holds configuration for application logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// ObservabilityConfig holds configuration for observability features.
type ObservabilityConfig struct {
	History HistoryConfig `yaml:"history"`
	Metrics MetricsConfig `yaml:"metrics"`
	Tracing TracingConfig `yaml:"tracing"`
}

// HistoryConfig holds configuration for the operation journal.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"` // SQLite database file (empty = <config dir>/history.db)
}

// MetricsConfig holds configuration for Prometheus metrics.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// TracingConfig holds configuration for distributed tracing.
type TracingConfig struct {
	Enabled      bool    `yaml:"enabled"`       // Whether tracing is enabled
	ExporterType string  `yaml:"exporter_type"` // none, stdout, otlp
	OTLPEndpoint string  `yaml:"otlp_endpoint"` // OTLP collector endpoint
	SampleRate   float64 `yaml:"sample_rate"`   // Sampling rate (0.0 to 1.0)
	ServiceName  string  `yaml:"service_name"`  // Service name for traces
}

// ServerConfig holds configuration for the local command API.
type ServerConfig struct {
	Listen  string `yaml:"listen"`  // host:port, loopback only
	Hotkeys bool   `yaml:"hotkeys"` // Run the hotkey listener inside serve
}

// AutosaveConfig holds configuration for periodic layout capture.
type AutosaveConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Schedule string `yaml:"schedule"` // Five-field cron expression
}

// Default configuration values.
const (
	DefaultRootName    = "Deskflip"
	DefaultMaxProfiles = 20

	DefaultRedirectSettle    = 100 * time.Millisecond
	DefaultRestoreSettle     = 300 * time.Millisecond
	DefaultReadinessAttempts = 15
	DefaultReadinessInterval = 200 * time.Millisecond
	DefaultSlotSettle        = 300 * time.Millisecond
	DefaultSlotAttempts      = 5
	DefaultForceSaveDelay    = 200 * time.Millisecond

	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"

	DefaultHistoryEnabled      = true
	DefaultMetricsEnabled      = true
	DefaultTracingEnabled      = false
	DefaultTracingExporterType = "none"
	DefaultTracingSampleRate   = 1.0
	DefaultTracingServiceName  = "deskflip"

	DefaultListen           = "127.0.0.1:7455"
	DefaultAutosaveEnabled  = false
	DefaultAutosaveSchedule = "*/10 * * * *"
)

// Valid log levels.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Valid log formats.
var validLogFormats = map[string]bool{
	"json": true,
	"text": true,
}

// Valid tracing exporter types.
var validTracingExporterTypes = map[string]bool{
	"none":   true,
	"stdout": true,
	"otlp":   true,
}

// NewDefaultConfig creates a new Config with sensible default values.
// The managed root defaults to ~/Deskflip.
func NewDefaultConfig() *Config {
	root := DefaultRootName
	if home, err := os.UserHomeDir(); err == nil {
		root = filepath.Join(home, DefaultRootName)
	}

	return &Config{
		Workspace: WorkspaceConfig{
			Root:        root,
			MaxProfiles: DefaultMaxProfiles,
		},
		Timing: TimingConfig{
			RedirectSettle:    DefaultRedirectSettle,
			RestoreSettle:     DefaultRestoreSettle,
			ReadinessAttempts: DefaultReadinessAttempts,
			ReadinessInterval: DefaultReadinessInterval,
			SlotSettle:        DefaultSlotSettle,
			SlotAttempts:      DefaultSlotAttempts,
			ForceSaveDelay:    DefaultForceSaveDelay,
		},
		Logging: LoggingConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Observability: ObservabilityConfig{
			History: HistoryConfig{
				Enabled: DefaultHistoryEnabled,
			},
			Metrics: MetricsConfig{
				Enabled: DefaultMetricsEnabled,
			},
			Tracing: TracingConfig{
				Enabled:      DefaultTracingEnabled,
				ExporterType: DefaultTracingExporterType,
				SampleRate:   DefaultTracingSampleRate,
				ServiceName:  DefaultTracingServiceName,
			},
		},
		Server: ServerConfig{
			Listen:  DefaultListen,
			Hotkeys: true,
		},
		Autosave: AutosaveConfig{
			Enabled:  DefaultAutosaveEnabled,
			Schedule: DefaultAutosaveSchedule,
		},
	}
}

// Validate checks if the configuration is valid and returns an error if not.
func (c *Config) Validate() error {
	var errs []error

	if err := c.Workspace.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("workspace: %w", err))
	}

	if err := c.Timing.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("timing: %w", err))
	}

	if err := c.Logging.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("logging: %w", err))
	}

	if err := c.Observability.Tracing.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("observability: tracing: %w", err))
	}

	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("server: %w", err))
	}

	if err := c.Autosave.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("autosave: %w", err))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Validate checks if the WorkspaceConfig is valid.
func (w *WorkspaceConfig) Validate() error {
	var errs []error

	if w.Root == "" {
		errs = append(errs, errors.New("root is required"))
	} else if !filepath.IsAbs(ExpandHome(w.Root)) {
		errs = append(errs, fmt.Errorf("root %q must be an absolute path", w.Root))
	}

	if w.MaxProfiles <= 0 {
		errs = append(errs, errors.New("max_profiles must be positive"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Validate checks if the TimingConfig is valid.
func (t *TimingConfig) Validate() error {
	var errs []error

	for name, d := range map[string]time.Duration{
		"redirect_settle":    t.RedirectSettle,
		"restore_settle":     t.RestoreSettle,
		"readiness_interval": t.ReadinessInterval,
		"slot_settle":        t.SlotSettle,
		"force_save_delay":   t.ForceSaveDelay,
	} {
		if d < 0 {
			errs = append(errs, fmt.Errorf("%s must be non-negative", name))
		}
	}

	if t.ReadinessAttempts <= 0 {
		errs = append(errs, errors.New("readiness_attempts must be positive"))
	}
	if t.SlotAttempts <= 0 {
		errs = append(errs, errors.New("slot_attempts must be positive"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Validate checks if the LoggingConfig is valid.
func (l *LoggingConfig) Validate() error {
	var errs []error

	if l.Level != "" && !validLogLevels[l.Level] {
		errs = append(errs, fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", l.Level))
	}

	if l.Format != "" && !validLogFormats[l.Format] {
		errs = append(errs, fmt.Errorf("invalid log format %q: must be one of json, text", l.Format))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Validate checks if the TracingConfig is valid.
func (t *TracingConfig) Validate() error {
	var errs []error

	if t.Enabled {
		if t.ExporterType != "" && !validTracingExporterTypes[t.ExporterType] {
			errs = append(errs, fmt.Errorf("invalid exporter_type %q: must be one of none, stdout, otlp", t.ExporterType))
		}
		if t.ExporterType == "otlp" && t.OTLPEndpoint == "" {
			errs = append(errs, errors.New("otlp_endpoint is required when exporter_type is 'otlp'"))
		}
		if t.SampleRate < 0 || t.SampleRate > 1 {
			errs = append(errs, errors.New("sample_rate must be between 0.0 and 1.0"))
		}
		if t.ServiceName == "" {
			errs = append(errs, errors.New("service_name is required when tracing is enabled"))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Validate checks that the API only listens on a loopback address.
func (s *ServerConfig) Validate() error {
	host, _, err := net.SplitHostPort(s.Listen)
	if err != nil {
		return fmt.Errorf("invalid listen address %q: %w", s.Listen, err)
	}
	if host == "localhost" {
		return nil
	}
	ip := net.ParseIP(host)
	if ip == nil || !ip.IsLoopback() {
		return fmt.Errorf("listen address %q must be a loopback address", s.Listen)
	}
	return nil
}

// Validate checks the cron expression when autosave is enabled.
func (a *AutosaveConfig) Validate() error {
	if !a.Enabled {
		return nil
	}
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	if _, err := parser.Parse(a.Schedule); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", a.Schedule, err)
	}
	return nil
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") && !strings.HasPrefix(path, `~\`) {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
