//go:build windows

package platform

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"unsafe"

	"golang.org/x/sys/windows"
	"golang.org/x/sys/windows/registry"

	"github.com/jbctechsolutions/deskflip/internal/application/ports"
	"github.com/jbctechsolutions/deskflip/internal/infrastructure/logging"
)

const userShellFoldersKey = `Software\Microsoft\Windows\CurrentVersion\Explorer\User Shell Folders`

var (
	shell32  = windows.NewLazySystemDLL("shell32.dll")
	user32   = windows.NewLazySystemDLL("user32.dll")
	kernel32 = windows.NewLazySystemDLL("kernel32.dll")

	procSHSetKnownFolderPath = shell32.NewProc("SHSetKnownFolderPath")
	procSHChangeNotify       = shell32.NewProc("SHChangeNotify")
	procSendMessageTimeoutW  = user32.NewProc("SendMessageTimeoutW")
	procFindWindowW          = user32.NewProc("FindWindowW")
	procFindWindowExW        = user32.NewProc("FindWindowExW")
	procPostMessageW         = user32.NewProc("PostMessageW")
)

const (
	shcneAssocChanged = 0x08000000
	shcnfIDList       = 0x0000
	hwndBroadcast     = 0xFFFF
	wmSettingChange   = 0x001A
	wmKeyDown         = 0x0100
	wmKeyUp           = 0x0101
	smtoAbortIfHung   = 0x0002
	broadcastTimeout  = 5000
	vkF5              = 0x74
)

// FolderShell repoints the Desktop known folder and nudges Explorer.
type FolderShell struct {
	logger *logging.Logger
}

// NewFolderShell creates a FolderShell.
func NewFolderShell(logger *logging.Logger) *FolderShell {
	if logger == nil {
		logger = logging.Default()
	}
	return &FolderShell{logger: logger.With("component", "folder_shell")}
}

// CurrentDesktopPath reads the Desktop entry of User Shell Folders,
// expanding environment references. The known folder API is the fallback.
func (f *FolderShell) CurrentDesktopPath(ctx context.Context) (string, error) {
	k, err := registry.OpenKey(registry.CURRENT_USER, userShellFoldersKey, registry.QUERY_VALUE)
	if err == nil {
		defer k.Close()
		v, _, err := k.GetStringValue("Desktop")
		if err == nil && strings.TrimSpace(v) != "" {
			expanded, err := registry.ExpandString(v)
			if err == nil && expanded != "" {
				return filepath.Clean(expanded), nil
			}
		}
	}

	path, err := windows.KnownFolderPath(windows.FOLDERID_Desktop, windows.KF_FLAG_DONT_VERIFY)
	if err != nil {
		return "", platformError("read desktop folder", err)
	}
	return filepath.Clean(path), nil
}

// SetDesktopPath updates the Desktop known folder for the current user.
func (f *FolderShell) SetDesktopPath(ctx context.Context, path string) error {
	p, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return platformError("set desktop folder", err)
	}

	hr, _, _ := procSHSetKnownFolderPath.Call(
		uintptr(unsafe.Pointer(windows.FOLDERID_Desktop)),
		0,
		0,
		uintptr(unsafe.Pointer(p)),
	)
	if hr != 0 {
		return platformError("set desktop folder", fmt.Errorf("SHSetKnownFolderPath: HRESULT 0x%08X", uint32(hr)))
	}
	return nil
}

// Broadcast announces the association and environment change.
func (f *FolderShell) Broadcast(ctx context.Context) error {
	procSHChangeNotify.Call(shcneAssocChanged, shcnfIDList, 0, 0)

	env, _ := windows.UTF16PtrFromString("Environment")
	var result uintptr
	r, _, err := procSendMessageTimeoutW.Call(
		hwndBroadcast,
		wmSettingChange,
		0,
		uintptr(unsafe.Pointer(env)),
		smtoAbortIfHung,
		broadcastTimeout,
		uintptr(unsafe.Pointer(&result)),
	)
	if r == 0 {
		return platformError("broadcast setting change", err)
	}
	return nil
}

// RefreshDesktop posts F5 to the desktop list view.
func (f *FolderShell) RefreshDesktop(ctx context.Context) error {
	lv := desktopListView()
	if lv == 0 {
		return platformError("refresh desktop", fmt.Errorf("desktop list view not found"))
	}

	procPostMessageW.Call(lv, wmKeyDown, vkF5, 0)
	procPostMessageW.Call(lv, wmKeyUp, vkF5, 0)
	f.logger.DebugContext(ctx, "desktop refresh posted", "hwnd", lv)
	return nil
}

// desktopListView finds SysListView32 under SHELLDLL_DefView, which lives
// under Progman or, with a wallpaper slideshow, under one of the WorkerW
// windows.
func desktopListView() uintptr {
	defView := findChild(findWindow("Progman"), "SHELLDLL_DefView")
	if defView == 0 {
		var worker uintptr
		for {
			worker = findChildAfter(0, worker, "WorkerW")
			if worker == 0 {
				break
			}
			if defView = findChild(worker, "SHELLDLL_DefView"); defView != 0 {
				break
			}
		}
	}
	if defView == 0 {
		return 0
	}
	return findChild(defView, "SysListView32")
}

func findWindow(class string) uintptr {
	c, _ := windows.UTF16PtrFromString(class)
	h, _, _ := procFindWindowW.Call(uintptr(unsafe.Pointer(c)), 0)
	return h
}

func findChild(parent uintptr, class string) uintptr {
	if parent == 0 {
		return 0
	}
	return findChildAfter(parent, 0, class)
}

func findChildAfter(parent, after uintptr, class string) uintptr {
	c, _ := windows.UTF16PtrFromString(class)
	h, _, _ := procFindWindowExW.Call(parent, after, uintptr(unsafe.Pointer(c)), 0)
	return h
}

// FileHider sets the hidden attribute.
type FileHider struct{}

// NewFileHider creates a FileHider.
func NewFileHider() *FileHider {
	return &FileHider{}
}

// Hide adds FILE_ATTRIBUTE_HIDDEN to path.
func (FileHider) Hide(path string) error {
	p, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return err
	}
	attrs, err := windows.GetFileAttributes(p)
	if err != nil {
		return fmt.Errorf("read attributes: %w", err)
	}
	if attrs&windows.FILE_ATTRIBUTE_HIDDEN != 0 {
		return nil
	}
	return windows.SetFileAttributes(p, attrs|windows.FILE_ATTRIBUTE_HIDDEN)
}

var (
	_ ports.FolderShell = (*FolderShell)(nil)
	_ ports.FileHider   = FileHider{}
)
