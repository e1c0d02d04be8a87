//go:build windows

package platform

import (
	"errors"
	"runtime"
	"syscall"
	"unsafe"

	ole "github.com/go-ole/go-ole"
)

const (
	sFalse           = 0x00000001
	rpcEChangedMode  = 0x80010106
	hresultFailedBit = 0x80000000
)

// apartment is a COM single-threaded apartment pinned to the calling
// goroutine's OS thread. Release must run on the same goroutine.
type apartment struct {
	initialized bool
}

func enterApartment() (*apartment, error) {
	runtime.LockOSThread()

	err := ole.CoInitializeEx(0, ole.COINIT_APARTMENTTHREADED)
	if err == nil {
		return &apartment{initialized: true}, nil
	}

	var oleErr *ole.OleError
	if errors.As(err, &oleErr) {
		switch oleErr.Code() {
		case sFalse:
			return &apartment{initialized: true}, nil
		case rpcEChangedMode:
			return &apartment{}, nil
		}
	}

	runtime.UnlockOSThread()
	return nil, err
}

func (a *apartment) release() {
	if a.initialized {
		ole.CoUninitialize()
	}
	runtime.UnlockOSThread()
}

// comCall invokes the vtable method at idx on obj.
func comCall(obj *ole.IUnknown, idx int, args ...uintptr) (uintptr, error) {
	vtbl := *(*uintptr)(unsafe.Pointer(obj))
	fn := *(*uintptr)(unsafe.Pointer(vtbl + uintptr(idx)*unsafe.Sizeof(uintptr(0))))

	callArgs := make([]uintptr, 0, len(args)+1)
	callArgs = append(callArgs, uintptr(unsafe.Pointer(obj)))
	callArgs = append(callArgs, args...)

	hr, _, _ := syscall.SyscallN(fn, callArgs...)
	if hr&hresultFailedBit != 0 {
		return hr, ole.NewError(hr)
	}
	return hr, nil
}

// queryInterface returns obj cast to iid, or an error.
func queryInterface(obj *ole.IUnknown, iid *ole.GUID) (*ole.IUnknown, error) {
	var out uintptr
	if _, err := comCall(obj, 0, uintptr(unsafe.Pointer(iid)), uintptr(unsafe.Pointer(&out))); err != nil {
		return nil, err
	}
	if out == 0 {
		return nil, errors.New("interface not returned")
	}
	return (*ole.IUnknown)(unsafe.Pointer(out)), nil
}

func releaseAll(objs ...*ole.IUnknown) {
	for _, o := range objs {
		if o != nil {
			o.Release()
		}
	}
}
