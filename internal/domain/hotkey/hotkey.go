// Package hotkey defines the global switch hotkey settings and key matching.
package hotkey

import (
	"fmt"
	"strings"

	domainErrors "github.com/jbctechsolutions/deskflip/internal/domain/errors"
)

// Modifier is the key combination held together with a digit.
type Modifier string

const (
	ModifierAlt       Modifier = "alt"
	ModifierCtrlAlt   Modifier = "ctrl+alt"
	ModifierCtrlShift Modifier = "ctrl+shift"
)

// Modifiers lists the accepted modifier values.
var Modifiers = []Modifier{ModifierAlt, ModifierCtrlAlt, ModifierCtrlShift}

// ParseModifier normalizes and validates a modifier string.
func ParseModifier(s string) (Modifier, error) {
	m := Modifier(strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), " ", "")))
	for _, known := range Modifiers {
		if m == known {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q (want alt, ctrl+alt or ctrl+shift)", domainErrors.ErrInvalidModifier, s)
}

// Settings controls the hotkey listener.
type Settings struct {
	Enabled  bool     `json:"enabled"`
	Modifier Modifier `json:"modifier"`
}

// DefaultSettings returns enabled hotkeys on Alt.
func DefaultSettings() Settings {
	return Settings{Enabled: true, Modifier: ModifierAlt}
}

// Validate checks the modifier value.
func (s Settings) Validate() error {
	_, err := ParseModifier(string(s.Modifier))
	return err
}

// KeyEvent is a key-down observed by the platform hook.
type KeyEvent struct {
	VirtualKey uint32
	Alt        bool
	Ctrl       bool
	Shift      bool
}

// Virtual key codes for the digit row.
const (
	vkDigit1 = 0x31
	vkDigit9 = 0x39
)

// Request asks the orchestrator to switch to the N-th profile (1-based).
type Request struct {
	Position int
}

// Match reports which profile position a key event selects under the
// given settings. Only the exact modifier combination matches.
func Match(s Settings, ev KeyEvent) (Request, bool) {
	if !s.Enabled {
		return Request{}, false
	}
	if ev.VirtualKey < vkDigit1 || ev.VirtualKey > vkDigit9 {
		return Request{}, false
	}

	var held bool
	switch s.Modifier {
	case ModifierAlt:
		held = ev.Alt && !ev.Ctrl && !ev.Shift
	case ModifierCtrlAlt:
		held = ev.Ctrl && ev.Alt && !ev.Shift
	case ModifierCtrlShift:
		held = ev.Ctrl && ev.Shift && !ev.Alt
	}
	if !held {
		return Request{}, false
	}
	return Request{Position: int(ev.VirtualKey-vkDigit1) + 1}, true
}
