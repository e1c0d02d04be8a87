package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is the prefix of environment overrides (DESKFLIP_ROOT, ...).
const EnvPrefix = "deskflip"

// EnvOverrides are optional environment settings layered over the file.
// Empty values leave the file value in place. Fields must not carry
// envconfig name tags: a tagged field also matches the unprefixed name.
type EnvOverrides struct {
	Root     string
	Home     string
	LogLevel string `split_words:"true"`
	Listen   string
}

// ApplyEnv reads DESKFLIP_* variables and overrides matching fields.
func ApplyEnv(cfg *Config) error {
	var env EnvOverrides
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return fmt.Errorf("failed to read environment overrides: %w", err)
	}

	if env.Root != "" {
		cfg.Workspace.Root = env.Root
	}
	if env.Home != "" {
		cfg.Workspace.Home = env.Home
	}
	if env.LogLevel != "" {
		cfg.Logging.Level = env.LogLevel
	}
	if env.Listen != "" {
		cfg.Server.Listen = env.Listen
	}
	return nil
}
