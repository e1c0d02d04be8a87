//go:build windows

package platform

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"syscall"
	"time"
	"unsafe"

	ole "github.com/go-ole/go-ole"
	"golang.org/x/sys/windows"
	"golang.org/x/sys/windows/registry"

	"github.com/jbctechsolutions/deskflip/internal/application/ports"
	domainErrors "github.com/jbctechsolutions/deskflip/internal/domain/errors"
	"github.com/jbctechsolutions/deskflip/internal/domain/vdesk"
	"github.com/jbctechsolutions/deskflip/internal/infrastructure/logging"
)

const (
	virtualDesktopsKey = `Software\Microsoft\Windows\CurrentVersion\Explorer\VirtualDesktops`
	sessionInfoKey     = `Software\Microsoft\Windows\CurrentVersion\Explorer\SessionInfo\%d\VirtualDesktops`
	guidSize           = 16
)

var (
	clsidVirtualDesktopManager = ole.NewGUID("{AA509086-5CA9-4C25-8F95-589D3C07B48A}")
	iidVirtualDesktopManager   = ole.NewGUID("{A5CD92FF-29BE-454C-8D04-D82879FB3F1B}")

	procKeybdEvent               = user32.NewProc("keybd_event")
	procGetWindowTextW           = user32.NewProc("GetWindowTextW")
	procGetWindowTextLengthW     = user32.NewProc("GetWindowTextLengthW")
	procIsWindowVisible          = user32.NewProc("IsWindowVisible")
	procEnumWindows              = user32.NewProc("EnumWindows")
	procGetWindowThreadProcessID = user32.NewProc("GetWindowThreadProcessId")
)

// IVirtualDesktopManager slots
const (
	vdmGetWindowDesktopID  = 4
	vdmMoveWindowToDesktop = 5
)

const (
	vkLWin          = 0x5B
	vkControl       = 0x11
	vkLeft          = 0x25
	vkRight         = 0x27
	vkF4            = 0x73
	vkD             = 0x44
	keyEventExtKey  = 0x0001
	keyEventKeyUp   = 0x0002
	keyChordSpacing = 20 * time.Millisecond
)

// VirtualDesktopDriver reads slot state from the Explorer registry keys,
// changes slots by synthesizing the system shortcuts and moves windows
// through IVirtualDesktopManager.
type VirtualDesktopDriver struct {
	logger *logging.Logger
}

// NewVirtualDesktopDriver creates a VirtualDesktopDriver.
func NewVirtualDesktopDriver(logger *logging.Logger) *VirtualDesktopDriver {
	if logger == nil {
		logger = logging.Default()
	}
	return &VirtualDesktopDriver{logger: logger.With("component", "vdesk_driver")}
}

// Count returns the number of virtual desktops. A machine that never
// created a second desktop has no ID list and counts as one.
func (d *VirtualDesktopDriver) Count(ctx context.Context) (int, error) {
	ids, err := desktopIDs()
	if err != nil {
		return 0, platformError("read virtual desktops", err)
	}
	if len(ids) == 0 {
		return 1, nil
	}
	return len(ids), nil
}

// Current returns the index of the active desktop.
func (d *VirtualDesktopDriver) Current(ctx context.Context) (int, error) {
	ids, err := desktopIDs()
	if err != nil {
		return 0, platformError("read virtual desktops", err)
	}
	if len(ids) <= 1 {
		return 0, nil
	}

	current, err := currentDesktopID()
	if err != nil {
		return 0, platformError("read current virtual desktop", err)
	}
	for i, id := range ids {
		if bytes.Equal(id, current) {
			return i, nil
		}
	}
	return 0, platformError("read current virtual desktop", errors.New("current desktop not in desktop list"))
}

func (d *VirtualDesktopDriver) RequestCreate(ctx context.Context) error {
	return sendChord(vkD, false)
}

func (d *VirtualDesktopDriver) RequestRemove(ctx context.Context) error {
	return sendChord(vkF4, false)
}

func (d *VirtualDesktopDriver) RequestStep(ctx context.Context, dir vdesk.Direction) error {
	vk := byte(vkRight)
	if dir == vdesk.Left {
		vk = vkLeft
	}
	return sendChord(vk, true)
}

// WindowSlot returns the index of the desktop hosting hwnd.
func (d *VirtualDesktopDriver) WindowSlot(ctx context.Context, hwnd uintptr) (int, error) {
	var slot int
	err := withDesktopManager(func(mgr *ole.IUnknown) error {
		var id windows.GUID
		if _, err := comCall(mgr, vdmGetWindowDesktopID, hwnd, uintptr(unsafe.Pointer(&id))); err != nil {
			return err
		}
		idx, err := indexOfDesktop(id)
		slot = idx
		return err
	})
	if err != nil {
		return 0, platformError("locate window desktop", err)
	}
	return slot, nil
}

// MoveWindow moves hwnd to the desktop at index.
func (d *VirtualDesktopDriver) MoveWindow(ctx context.Context, hwnd uintptr, index int) error {
	ids, err := desktopIDs()
	if err != nil {
		return platformError("read virtual desktops", err)
	}
	if index < 0 || index >= len(ids) {
		return domainErrors.ErrSlotOutOfRange
	}
	target := guidFromBytes(ids[index])

	err = withDesktopManager(func(mgr *ole.IUnknown) error {
		_, err := comCall(mgr, vdmMoveWindowToDesktop, hwnd, uintptr(unsafe.Pointer(&target)))
		return err
	})
	if err != nil {
		return platformError("move window", err)
	}
	return nil
}

// Windows lists visible top-level windows with their desktop index; windows
// whose desktop cannot be resolved report -1.
func (d *VirtualDesktopDriver) Windows(ctx context.Context) ([]vdesk.Window, error) {
	handles, err := visibleWindows()
	if err != nil {
		return nil, platformError("enumerate windows", err)
	}

	windowsOut := make([]vdesk.Window, 0, len(handles))
	for _, h := range handles {
		w := vdesk.Window{Handle: h, Title: windowText(h), Slot: -1}
		procGetWindowThreadProcessID.Call(h, uintptr(unsafe.Pointer(&w.ProcessID)))
		if slot, err := d.WindowSlot(ctx, h); err == nil {
			w.Slot = slot
		}
		windowsOut = append(windowsOut, w)
	}
	return windowsOut, nil
}

// Callbacks are never freed, so one is shared by all enumerations.
var (
	enumMu       sync.Mutex
	enumHandles  []uintptr
	enumCallback = sync.OnceValue(func() uintptr {
		return syscall.NewCallback(func(hwnd uintptr, _ uintptr) uintptr {
			if visible, _, _ := procIsWindowVisible.Call(hwnd); visible != 0 {
				enumHandles = append(enumHandles, hwnd)
			}
			return 1
		})
	})
)

func visibleWindows() ([]uintptr, error) {
	enumMu.Lock()
	defer enumMu.Unlock()

	enumHandles = nil
	if r, _, err := procEnumWindows.Call(enumCallback(), 0); r == 0 {
		return nil, err
	}
	out := enumHandles
	enumHandles = nil
	return out, nil
}

func windowText(hwnd uintptr) string {
	n, _, _ := procGetWindowTextLengthW.Call(hwnd)
	if n == 0 {
		return ""
	}
	buf := make([]uint16, n+1)
	procGetWindowTextW.Call(hwnd, uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
	return windows.UTF16ToString(buf)
}

func withDesktopManager(fn func(mgr *ole.IUnknown) error) error {
	apt, err := enterApartment()
	if err != nil {
		return err
	}
	defer apt.release()

	mgr, err := ole.CreateInstance(clsidVirtualDesktopManager, iidVirtualDesktopManager)
	if err != nil {
		return fmt.Errorf("create VirtualDesktopManager: %w", err)
	}
	defer mgr.Release()
	return fn(mgr)
}

// desktopIDs returns the 16-byte desktop GUIDs in display order.
func desktopIDs() ([][]byte, error) {
	k, err := registry.OpenKey(registry.CURRENT_USER, virtualDesktopsKey, registry.QUERY_VALUE)
	if errors.Is(err, registry.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer k.Close()

	raw, _, err := k.GetBinaryValue("VirtualDesktopIDs")
	if errors.Is(err, registry.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	ids := make([][]byte, 0, len(raw)/guidSize)
	for off := 0; off+guidSize <= len(raw); off += guidSize {
		ids = append(ids, raw[off:off+guidSize])
	}
	return ids, nil
}

// currentDesktopID reads CurrentVirtualDesktop, which newer builds keep
// under VirtualDesktops and older ones under the per-session key.
func currentDesktopID() ([]byte, error) {
	if id, err := readCurrentID(virtualDesktopsKey); err == nil {
		return id, nil
	}

	var session uint32
	if err := windows.ProcessIdToSessionId(windows.GetCurrentProcessId(), &session); err != nil {
		return nil, err
	}
	return readCurrentID(fmt.Sprintf(sessionInfoKey, session))
}

func readCurrentID(path string) ([]byte, error) {
	k, err := registry.OpenKey(registry.CURRENT_USER, path, registry.QUERY_VALUE)
	if err != nil {
		return nil, err
	}
	defer k.Close()

	raw, _, err := k.GetBinaryValue("CurrentVirtualDesktop")
	if err != nil {
		return nil, err
	}
	if len(raw) != guidSize {
		return nil, fmt.Errorf("unexpected desktop id length %d", len(raw))
	}
	return raw, nil
}

func indexOfDesktop(id windows.GUID) (int, error) {
	ids, err := desktopIDs()
	if err != nil {
		return 0, err
	}
	want := guidBytes(id)
	for i, raw := range ids {
		if bytes.Equal(raw, want) {
			return i, nil
		}
	}
	if len(ids) == 0 {
		return 0, nil
	}
	return 0, fmt.Errorf("desktop %s not in desktop list", id.String())
}

func guidFromBytes(b []byte) windows.GUID {
	var g windows.GUID
	copy((*[guidSize]byte)(unsafe.Pointer(&g))[:], b)
	return g
}

func guidBytes(g windows.GUID) []byte {
	b := make([]byte, guidSize)
	copy(b, (*[guidSize]byte)(unsafe.Pointer(&g))[:])
	return b
}

// sendChord presses Win+Ctrl+vk and releases in reverse order.
func sendChord(vk byte, extended bool) error {
	if err := procKeybdEvent.Find(); err != nil {
		return platformError("synthesize shortcut", err)
	}

	var vkFlags uintptr
	if extended {
		vkFlags = keyEventExtKey
	}

	press := func(k byte, flags uintptr) {
		procKeybdEvent.Call(uintptr(k), 0, flags, 0)
	}

	press(vkLWin, keyEventExtKey)
	press(vkControl, 0)
	press(vk, vkFlags)
	time.Sleep(keyChordSpacing)
	press(vk, vkFlags|keyEventKeyUp)
	press(vkControl, keyEventKeyUp)
	press(vkLWin, keyEventExtKey|keyEventKeyUp)
	return nil
}

var _ ports.VirtualDesktopDriver = (*VirtualDesktopDriver)(nil)
