// Package filesystem provides filesystem operations for profile folders and
// the documents stored under the managed root.
package filesystem

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// StateFile is the workspace document under the managed root.
	StateFile = "deskflip.json"

	// HotkeysFile is the hotkey settings document under the managed root.
	HotkeysFile = "hotkeys.json"

	// LayoutFile is the hidden icon layout sidecar inside each profile folder.
	LayoutFile = ".deskflip-layout.json"
)

// WriteFileAtomic writes data to a temp file next to path, syncs it and
// renames it over path. The parent directory is created when missing.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create parent directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".deskflip-tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := replaceFile(tmpPath, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", filepath.Base(path), err)
	}

	committed = true
	return nil
}

// DirExists reports whether path exists and is a directory.
func DirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// EnsureDir creates path and its parents.
func EnsureDir(path string) error {
	if err := os.MkdirAll(path, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", path, err)
	}
	return nil
}

// CountEntries returns the number of entries in dir, skipping the given
// names. A missing or unreadable directory counts as empty.
func CountEntries(dir string, skip ...string) int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}

	n := 0
	for _, e := range entries {
		skipped := false
		for _, s := range skip {
			if e.Name() == s {
				skipped = true
				break
			}
		}
		if !skipped {
			n++
		}
	}
	return n
}
