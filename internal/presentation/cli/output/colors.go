package output

import (
	"os"
	"sync"
)

var (
	colorOnce    sync.Once
	colorEnabled bool
)

// IsColorSupported reports whether stdout should receive ANSI colors.
// NO_COLOR disables and FORCE_COLOR enables regardless of the terminal.
func IsColorSupported() bool {
	colorOnce.Do(func() {
		colorEnabled = detectColorSupport(os.LookupEnv, stdoutIsTerminal)
	})
	return colorEnabled
}

func detectColorSupport(lookup func(string) (string, bool), isTerminal func() bool) bool {
	// See https://no-color.org/
	if _, ok := lookup("NO_COLOR"); ok {
		return false
	}
	if _, ok := lookup("FORCE_COLOR"); ok {
		return true
	}
	if !isTerminal() {
		return false
	}
	term, _ := lookup("TERM")
	if term == "dumb" {
		return false
	}
	// Windows consoles run without TERM.
	return term != "" || os.PathSeparator == '\\'
}

func stdoutIsTerminal() bool {
	stat, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return stat.Mode()&os.ModeCharDevice != 0
}
