//go:build windows

package platform

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/jbctechsolutions/deskflip/internal/application/ports"
	"github.com/jbctechsolutions/deskflip/internal/domain/hotkey"
	"github.com/jbctechsolutions/deskflip/internal/infrastructure/logging"
)

var (
	procSetWindowsHookExW   = user32.NewProc("SetWindowsHookExW")
	procUnhookWindowsHookEx = user32.NewProc("UnhookWindowsHookEx")
	procCallNextHookEx      = user32.NewProc("CallNextHookEx")
	procGetMessageW         = user32.NewProc("GetMessageW")
	procPostThreadMessageW  = user32.NewProc("PostThreadMessageW")
	procGetAsyncKeyState    = user32.NewProc("GetAsyncKeyState")
	procGetModuleHandleW    = kernel32.NewProc("GetModuleHandleW")
)

const (
	whKeyboardLL = 13
	wmQuit       = 0x0012
	wmSysKeyDown = 0x0104
	vkShift      = 0x10
	vkMenu       = 0x12
	keyDownMask  = 0x8000
)

type kbdLLHookStruct struct {
	VKCode      uint32
	ScanCode    uint32
	Flags       uint32
	Time        uint32
	DwExtraInfo uintptr
}

type msg struct {
	HWnd    uintptr
	Message uint32
	WParam  uintptr
	LParam  uintptr
	Time    uint32
	Pt      struct{ X, Y int32 }
}

// At most one low-level hook runs per process; the callback is created
// once and dispatches to the active handler.
var (
	activeHandler atomic.Pointer[func(hotkey.KeyEvent) bool]
	hookMu        sync.Mutex
	hookCallback  = sync.OnceValue(func() uintptr {
		return syscall.NewCallback(lowLevelKeyboardProc)
	})
)

// ErrHookActive is returned when a second hook is started.
var ErrHookActive = errors.New("keyboard hook already running")

func lowLevelKeyboardProc(nCode int32, wParam, lParam uintptr) uintptr {
	if nCode == 0 && (wParam == wmKeyDown || wParam == wmSysKeyDown) {
		if h := activeHandler.Load(); h != nil {
			kb := (*kbdLLHookStruct)(unsafe.Pointer(lParam))
			ev := hotkey.KeyEvent{
				VirtualKey: kb.VKCode,
				Alt:        keyHeld(vkMenu),
				Ctrl:       keyHeld(vkControl),
				Shift:      keyHeld(vkShift),
			}
			if (*h)(ev) {
				return 1
			}
		}
	}
	r, _, _ := procCallNextHookEx.Call(0, uintptr(nCode), wParam, lParam)
	return r
}

func keyHeld(vk uintptr) bool {
	state, _, _ := procGetAsyncKeyState.Call(vk)
	return state&keyDownMask != 0
}

// KeyHook installs a WH_KEYBOARD_LL hook on a dedicated OS thread.
type KeyHook struct {
	logger *logging.Logger
}

// NewKeyHook creates a KeyHook.
func NewKeyHook(logger *logging.Logger) *KeyHook {
	if logger == nil {
		logger = logging.Default()
	}
	return &KeyHook{logger: logger.With("component", "key_hook")}
}

// Run installs the hook and pumps messages until ctx is done.
func (k *KeyHook) Run(ctx context.Context, onKey func(hotkey.KeyEvent) bool) error {
	if !hookMu.TryLock() {
		return ErrHookActive
	}
	defer hookMu.Unlock()

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	activeHandler.Store(&onKey)
	defer activeHandler.Store(nil)

	module, _, _ := procGetModuleHandleW.Call(0)
	hook, _, err := procSetWindowsHookExW.Call(whKeyboardLL, hookCallback(), module, 0)
	if hook == 0 {
		return platformError("install keyboard hook", err)
	}
	defer procUnhookWindowsHookEx.Call(hook)

	tid := windows.GetCurrentThreadId()
	stop := context.AfterFunc(ctx, func() {
		procPostThreadMessageW.Call(uintptr(tid), wmQuit, 0, 0)
	})
	defer stop()

	k.logger.InfoContext(ctx, "keyboard hook installed")

	var m msg
	for {
		r, _, err := procGetMessageW.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0)
		switch int32(r) {
		case 0:
			k.logger.InfoContext(ctx, "keyboard hook stopped")
			return nil
		case -1:
			return platformError("keyboard message loop", err)
		}
	}
}

var _ ports.KeyHook = (*KeyHook)(nil)
