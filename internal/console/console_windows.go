//go:build windows

// Package console decides whether the process should keep a console window
// and installs a Ctrl+C handler that survives SDL's own handler.
package console

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	kernel32                  = windows.NewLazySystemDLL("kernel32.dll")
	procGetConsoleWindow      = kernel32.NewProc("GetConsoleWindow")
	procAllocConsole          = kernel32.NewProc("AllocConsole")
	procFreeConsole           = kernel32.NewProc("FreeConsole")
	procSetConsoleCtrlHandler = kernel32.NewProc("SetConsoleCtrlHandler")
)

// Attach reports whether the process runs with a console. A binary
// double-clicked from Explorer drops its console and runs from the tray
// only; a windowless build started from a terminal gets a fresh console.
func Attach() bool {
	fromExplorer := launchedFromExplorer()

	if hwnd, _, _ := procGetConsoleWindow.Call(); hwnd != 0 {
		if fromExplorer {
			procFreeConsole.Call()
			return false
		}
		return true
	}
	if fromExplorer {
		return false
	}

	procAllocConsole.Call()
	redirectStdStreams()
	return true
}

func redirectStdStreams() {
	out, err := windows.GetStdHandle(windows.STD_OUTPUT_HANDLE)
	if err != nil || out == 0 {
		return
	}
	errh, err := windows.GetStdHandle(windows.STD_ERROR_HANDLE)
	if err != nil || errh == 0 {
		return
	}
	os.Stdout = os.NewFile(uintptr(out), "/dev/stdout")
	os.Stderr = os.NewFile(uintptr(errh), "/dev/stderr")
	if in, err := windows.GetStdHandle(windows.STD_INPUT_HANDLE); err == nil && in != 0 {
		os.Stdin = os.NewFile(uintptr(in), "/dev/stdin")
	}
	log.SetOutput(os.Stderr)
}

func launchedFromExplorer() bool {
	ppid, ok := parentPID(uint32(os.Getpid()))
	if !ok {
		return false
	}
	name, ok := imageName(ppid)
	return ok && strings.EqualFold(filepath.Base(name), "explorer.exe")
}

func parentPID(pid uint32) (uint32, bool) {
	snap, err := windows.CreateToolhelp32Snapshot(windows.TH32CS_SNAPPROCESS, 0)
	if err != nil {
		return 0, false
	}
	defer windows.CloseHandle(snap)

	var entry windows.ProcessEntry32
	entry.Size = uint32(unsafe.Sizeof(entry))
	for err = windows.Process32First(snap, &entry); err == nil; err = windows.Process32Next(snap, &entry) {
		if entry.ProcessID == pid {
			return entry.ParentProcessID, true
		}
	}
	return 0, false
}

func imageName(pid uint32) (string, bool) {
	h, err := windows.OpenProcess(windows.PROCESS_QUERY_LIMITED_INFORMATION, false, pid)
	if err != nil {
		return "", false
	}
	defer windows.CloseHandle(h)

	var buf [windows.MAX_PATH]uint16
	size := uint32(len(buf))
	if err := windows.QueryFullProcessImageName(h, 0, &buf[0], &size); err != nil {
		return "", false
	}
	return windows.UTF16ToString(buf[:size]), true
}

var (
	handlerOnce sync.Once
	handlerFn   uintptr
	interrupt   func()
)

// HandleInterrupt calls fn once on Ctrl+C or Ctrl+Break. Go's os.Interrupt
// delivery is unreliable while SDL holds a locked OS thread. The returned
// function re-registers the handler and must be called after SDL init,
// which installs its own.
func HandleInterrupt(fn func()) func() {
	var once sync.Once
	interrupt = func() { once.Do(fn) }

	handlerOnce.Do(func() {
		handlerFn = windows.NewCallback(func(ctrlType uint32) uintptr {
			if ctrlType == windows.CTRL_C_EVENT || ctrlType == windows.CTRL_BREAK_EVENT {
				interrupt()
				return 1
			}
			return 0
		})
	})

	register := func() {
		if ret, _, _ := procSetConsoleCtrlHandler.Call(handlerFn, 1); ret == 0 {
			log.Println("Console: failed to install Ctrl+C handler")
		}
	}
	register()
	return register
}
