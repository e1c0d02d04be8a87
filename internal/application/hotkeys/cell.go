// Package hotkeys connects the global keyboard hook to the workspace
// orchestrator. The hook thread only reads a settings cell and queues
// requests; a dispatcher goroutine performs the switches.
package hotkeys

import (
	"sync"

	"github.com/jbctechsolutions/deskflip/internal/domain/hotkey"
)

// Cell holds the current hotkey settings for concurrent readers.
type Cell struct {
	mu       sync.RWMutex
	settings hotkey.Settings
}

// NewCell creates a cell holding s.
func NewCell(s hotkey.Settings) *Cell {
	return &Cell{settings: s}
}

// Get returns the current settings.
func (c *Cell) Get() hotkey.Settings {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.settings
}

// Set replaces the settings.
func (c *Cell) Set(s hotkey.Settings) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.settings = s
}
