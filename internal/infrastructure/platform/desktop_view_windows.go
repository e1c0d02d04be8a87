//go:build windows

package platform

import (
	"context"
	"errors"
	"fmt"
	"unsafe"

	ole "github.com/go-ole/go-ole"
	"golang.org/x/sys/windows"

	"github.com/jbctechsolutions/deskflip/internal/application/ports"
	domainErrors "github.com/jbctechsolutions/deskflip/internal/domain/errors"
	"github.com/jbctechsolutions/deskflip/internal/domain/layout"
	"github.com/jbctechsolutions/deskflip/internal/infrastructure/logging"
)

var (
	clsidShellWindows  = ole.NewGUID("{9BA05972-F6A8-11CF-A442-00A0C90A8F39}")
	iidShellWindows    = ole.NewGUID("{85CB6900-4D95-11CF-960C-0080C7F4EE85}")
	iidServiceProvider = ole.NewGUID("{6D5140C1-7436-11CE-8034-00AA006009FA}")
	sidTopLevelBrowser = ole.NewGUID("{4C96BE40-915C-11CF-99D3-00AA004AE837}")
	iidShellBrowser    = ole.NewGUID("{000214E2-0000-0000-C000-000000000046}")
	iidFolderView2     = ole.NewGUID("{1AF3A467-214F-4298-908E-06B03E0B39F9}")
	iidShellFolder     = ole.NewGUID("{000214E6-0000-0000-C000-000000000046}")
	procStrRetToStrW   = windows.NewLazySystemDLL("shlwapi.dll").NewProc("StrRetToStrW")
)

// vtable slots
const (
	shellWindowsFindWindowSW = 15
	serviceProviderQuery     = 3
	shellBrowserActiveView   = 15

	folderViewSetViewMode       = 4
	folderViewGetFolder         = 5
	folderViewItem              = 6
	folderViewItemCount         = 7
	folderViewGetItemPosition   = 11
	folderViewSelectAndPosition = 16
	folderView2SetFolderFlags   = 24

	shellFolderParseDisplayName = 3
	shellFolderGetDisplayNameOf = 11
)

const (
	swcDesktop       = 8
	swfoNeedDispatch = 1
	fvmIcon          = 1
	fwfAutoArrange   = 0x00000001
	fwfSnapToGrid    = 0x00080000
	svsiPositionItem = 0x00000080
)

// DesktopShell opens the Explorer desktop folder view over COM.
type DesktopShell struct {
	logger *logging.Logger
}

// NewDesktopShell creates a DesktopShell.
func NewDesktopShell(logger *logging.Logger) *DesktopShell {
	if logger == nil {
		logger = logging.Default()
	}
	return &DesktopShell{logger: logger.With("component", "desktop_shell")}
}

// OpenView locks the calling goroutine to its OS thread and returns the
// desktop IFolderView2. The view must be closed on the same goroutine.
func (s *DesktopShell) OpenView(ctx context.Context) (ports.DesktopView, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	apt, err := enterApartment()
	if err != nil {
		return nil, platformError("COM initialization", err)
	}

	view, err := openFolderView()
	if err != nil {
		apt.release()
		return nil, platformError("open desktop view", err)
	}

	folder, err := viewFolder(view)
	if err != nil {
		releaseAll(view)
		apt.release()
		return nil, platformError("open desktop folder", err)
	}

	return &desktopView{apt: apt, view: view, folder: folder, logger: s.logger}, nil
}

func openFolderView() (*ole.IUnknown, error) {
	windowsUnk, err := ole.CreateInstance(clsidShellWindows, iidShellWindows)
	if err != nil {
		return nil, fmt.Errorf("create ShellWindows: %w", err)
	}
	defer windowsUnk.Release()

	var loc, root ole.VARIANT
	ole.VariantInit(&loc)
	ole.VariantInit(&root)
	var hwnd int32
	var disp uintptr
	if _, err := comCall(windowsUnk, shellWindowsFindWindowSW,
		uintptr(unsafe.Pointer(&loc)),
		uintptr(unsafe.Pointer(&root)),
		swcDesktop,
		uintptr(unsafe.Pointer(&hwnd)),
		swfoNeedDispatch,
		uintptr(unsafe.Pointer(&disp)),
	); err != nil {
		return nil, fmt.Errorf("find desktop window: %w", err)
	}
	if disp == 0 {
		return nil, errors.New("desktop window has no dispatch")
	}
	dispUnk := (*ole.IUnknown)(unsafe.Pointer(disp))
	defer dispUnk.Release()

	provider, err := queryInterface(dispUnk, iidServiceProvider)
	if err != nil {
		return nil, fmt.Errorf("query IServiceProvider: %w", err)
	}
	defer provider.Release()

	var browserPtr uintptr
	if _, err := comCall(provider, serviceProviderQuery,
		uintptr(unsafe.Pointer(sidTopLevelBrowser)),
		uintptr(unsafe.Pointer(iidShellBrowser)),
		uintptr(unsafe.Pointer(&browserPtr)),
	); err != nil {
		return nil, fmt.Errorf("query top level browser: %w", err)
	}
	browser := (*ole.IUnknown)(unsafe.Pointer(browserPtr))
	defer browser.Release()

	var shellViewPtr uintptr
	if _, err := comCall(browser, shellBrowserActiveView, uintptr(unsafe.Pointer(&shellViewPtr))); err != nil {
		return nil, fmt.Errorf("query active shell view: %w", err)
	}
	shellView := (*ole.IUnknown)(unsafe.Pointer(shellViewPtr))
	defer shellView.Release()

	view, err := queryInterface(shellView, iidFolderView2)
	if err != nil {
		return nil, fmt.Errorf("query IFolderView2: %w", err)
	}
	return view, nil
}

func viewFolder(view *ole.IUnknown) (*ole.IUnknown, error) {
	var folder uintptr
	if _, err := comCall(view, folderViewGetFolder, uintptr(unsafe.Pointer(iidShellFolder)), uintptr(unsafe.Pointer(&folder))); err != nil {
		return nil, err
	}
	return (*ole.IUnknown)(unsafe.Pointer(folder)), nil
}

type desktopView struct {
	apt    *apartment
	view   *ole.IUnknown
	folder *ole.IUnknown
	logger *logging.Logger
}

func (v *desktopView) ItemCount() (int, error) {
	var n int32
	if _, err := comCall(v.view, folderViewItemCount, svgioBackground, uintptr(unsafe.Pointer(&n))); err != nil {
		return 0, platformError("item count", err)
	}
	return int(n), nil
}

func (v *desktopView) Item(index int) (ports.ShellItem, error) {
	var pidl uintptr
	if _, err := comCall(v.view, folderViewItem, uintptr(index), uintptr(unsafe.Pointer(&pidl))); err != nil {
		return ports.ShellItem{}, err
	}
	defer ole.CoTaskMemFree(pidl)

	var pt struct{ X, Y int32 }
	if _, err := comCall(v.view, folderViewGetItemPosition, pidl, uintptr(unsafe.Pointer(&pt))); err != nil {
		return ports.ShellItem{}, err
	}

	name, err := v.displayName(pidl)
	if err != nil {
		return ports.ShellItem{}, err
	}
	return ports.ShellItem{Name: name, Position: layout.Position{X: pt.X, Y: pt.Y}}, nil
}

func (v *desktopView) displayName(pidl uintptr) (string, error) {
	// STRRET is 272 bytes and 8-aligned on 64-bit Windows.
	var strret [34]uint64
	if _, err := comCall(v.folder, shellFolderGetDisplayNameOf, pidl, itemNameFlags, uintptr(unsafe.Pointer(&strret))); err != nil {
		return "", err
	}

	var out *uint16
	hr, _, _ := procStrRetToStrW.Call(uintptr(unsafe.Pointer(&strret)), pidl, uintptr(unsafe.Pointer(&out)))
	if hr != 0 || out == nil {
		return "", ole.NewError(hr)
	}
	defer ole.CoTaskMemFree(uintptr(unsafe.Pointer(out)))
	return windows.UTF16PtrToString(out), nil
}

func (v *desktopView) SetIconMode() error {
	if _, err := comCall(v.view, folderViewSetViewMode, fvmIcon); err != nil {
		return platformError("set icon mode", err)
	}
	return nil
}

func (v *desktopView) ClearArrangeFlags() error {
	if _, err := comCall(v.view, folderView2SetFolderFlags, fwfAutoArrange|fwfSnapToGrid, 0); err != nil {
		return platformError("clear arrange flags", err)
	}
	return nil
}

func (v *desktopView) PositionItem(name string, p layout.Position) error {
	namePtr, err := windows.UTF16PtrFromString(name)
	if err != nil {
		return fmt.Errorf("%w: %q", domainErrors.ErrItemUnresolved, name)
	}

	var pidl uintptr
	if _, err := comCall(v.folder, shellFolderParseDisplayName,
		0, 0,
		uintptr(unsafe.Pointer(namePtr)),
		0,
		uintptr(unsafe.Pointer(&pidl)),
		0,
	); err != nil || pidl == 0 {
		return fmt.Errorf("%w: %q", domainErrors.ErrItemUnresolved, name)
	}
	defer ole.CoTaskMemFree(pidl)

	items := [1]uintptr{pidl}
	pts := [1]struct{ X, Y int32 }{{p.X, p.Y}}
	if _, err := comCall(v.view, folderViewSelectAndPosition,
		1,
		uintptr(unsafe.Pointer(&items[0])),
		uintptr(unsafe.Pointer(&pts[0])),
		svsiPositionItem,
	); err != nil {
		return platformError("position "+name, err)
	}
	return nil
}

func (v *desktopView) Close() error {
	releaseAll(v.folder, v.view)
	v.folder, v.view = nil, nil
	if v.apt != nil {
		v.apt.release()
		v.apt = nil
	}
	return nil
}

var _ ports.DesktopShell = (*DesktopShell)(nil)
