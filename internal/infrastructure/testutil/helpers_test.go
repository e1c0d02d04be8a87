package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jbctechsolutions/deskflip/internal/domain/profile"
)

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	path := WriteFile(t, dir, "nested/hotkeys.json", `{"enabled":true}`)

	data, err := os.ReadFile(path)
	AssertNoError(t, err)
	AssertEqual(t, string(data), `{"enabled":true}`)
	AssertEqual(t, path, filepath.Join(dir, "nested", "hotkeys.json"))
}

func TestBufferLogger(t *testing.T) {
	logger, buf := BufferLogger(t)
	logger.Debug("hello", "k", "v")

	if !strings.Contains(buf.String(), "hello") {
		t.Errorf("log output = %q", buf.String())
	}
}

func TestManagedRoot(t *testing.T) {
	root, st := ManagedRoot(t, 1, 3)

	AssertEqual(t, len(st.Profiles), 2)
	AssertEqual(t, st.ActiveID, profile.OriginalID)
	AssertNoError(t, st.Validate())
	for _, id := range []int{1, 3} {
		if _, err := os.Stat(filepath.Join(root, profile.FolderName(id))); err != nil {
			t.Errorf("folder %d missing: %v", id, err)
		}
	}
	if _, err := os.Stat(st.OriginalPath); err != nil {
		t.Errorf("original desktop missing: %v", err)
	}
}

func TestNewLayout(t *testing.T) {
	l := NewLayout(map[string][2]int32{"a": {10, 20}})
	AssertEqual(t, l.Len(), 1)
	AssertEqual(t, l.Icons["a"].Y, int32(20))
}

func TestAssertContains(t *testing.T) {
	AssertContains(t, []string{"switch", "create"}, "create")
}
