// Package security provides path containment checks for the managed root.
package security

import (
	"fmt"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
)

// profileFolderPattern matches the folder names created for profiles.
var profileFolderPattern = regexp.MustCompile(`^(?i)desktop[0-9]+$`)

// PathGuard answers containment questions about the managed root.
type PathGuard struct {
	root string
}

// NewPathGuard creates a guard for the given managed root.
func NewPathGuard(root string) *PathGuard {
	return &PathGuard{root: filepath.Clean(root)}
}

// Root returns the cleaned managed root.
func (g *PathGuard) Root() string {
	return g.root
}

// normalize cleans a path and folds case on case-insensitive filesystems.
func normalize(path string) string {
	p := filepath.Clean(path)
	if runtime.GOOS == "windows" {
		p = strings.ToLower(p)
	}
	return p
}

// Contains reports whether path is the managed root or lies beneath it.
func (g *PathGuard) Contains(path string) bool {
	if path == "" {
		return false
	}
	root := normalize(g.root)
	p := normalize(path)
	if p == root {
		return true
	}
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}

// ValidateForDeletion checks that path is a profile folder directly under
// the managed root and nothing else.
func (g *PathGuard) ValidateForDeletion(path string) error {
	if !filepath.IsAbs(path) {
		return fmt.Errorf("path must be absolute: %s", path)
	}
	if strings.Contains(path, "..") {
		return fmt.Errorf("path contains traversal components: %s", path)
	}

	clean := filepath.Clean(path)
	if normalize(filepath.Dir(clean)) != normalize(g.root) {
		return fmt.Errorf("path is not directly under the managed root: %s", path)
	}
	if !profileFolderPattern.MatchString(filepath.Base(clean)) {
		return fmt.Errorf("path is not a profile folder: %s", path)
	}
	return nil
}
