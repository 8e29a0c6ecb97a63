//go:build windows

package window

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32                  = windows.NewLazySystemDLL("user32.dll")
	procFindWindowW         = user32.NewProc("FindWindowW")
	procGetForegroundWindow = user32.NewProc("GetForegroundWindow")
	procSetForegroundWindow = user32.NewProc("SetForegroundWindow")
)

func activate(title string) (bool, error) {
	titlePtr, err := windows.UTF16PtrFromString(title)
	if err != nil {
		return false, fmt.Errorf("window: encode title: %w", err)
	}

	hwnd, _, _ := procFindWindowW.Call(0, uintptr(unsafe.Pointer(titlePtr)))
	if hwnd == 0 {
		return false, ErrWindowNotFound
	}

	fg, _, _ := procGetForegroundWindow.Call()
	if fg == hwnd {
		return false, nil
	}

	ret, _, callErr := procSetForegroundWindow.Call(hwnd)
	if ret == 0 {
		return false, fmt.Errorf("window: SetForegroundWindow: %w", callErr)
	}
	return true, nil
}
