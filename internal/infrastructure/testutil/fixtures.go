package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jbctechsolutions/deskflip/internal/domain/layout"
	"github.com/jbctechsolutions/deskflip/internal/domain/profile"
)

// ManagedRoot creates a managed root under a temp dir with one folder per
// id and returns the root and a matching state. The original desktop is a
// separate temp folder.
func ManagedRoot(t *testing.T, ids ...int) (string, profile.State) {
	t.Helper()
	base := t.TempDir()
	root := filepath.Join(base, "Deskflip")
	original := filepath.Join(base, "Desktop")

	for _, dir := range []string{root, original} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("failed to create %s: %v", dir, err)
		}
	}

	st := profile.NewState(original)
	for _, id := range ids {
		if err := os.MkdirAll(filepath.Join(root, profile.FolderName(id)), 0o755); err != nil {
			t.Fatalf("failed to create profile folder %d: %v", id, err)
		}
		st.Profiles = append(st.Profiles, profile.Profile{ID: id, Name: profile.DefaultName(id)})
	}
	return root, st
}

// NewLayout builds a layout from name/x/y triples.
func NewLayout(icons map[string][2]int32) layout.Layout {
	l := layout.New()
	for name, xy := range icons {
		l.Set(name, layout.Position{X: xy[0], Y: xy[1]})
	}
	return l
}
