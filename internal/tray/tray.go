// Package tray puts the application in the system tray with a small
// control menu.
package tray

import (
	_ "embed"
	"log"
	"os/exec"
	"runtime"
	"sync"
	"sync/atomic"

	"fyne.io/systray"
)

//go:embed icon.ico
var icon []byte

// Icon returns the tray icon in ICO format.
func Icon() []byte { return icon }

// Actions are the callbacks behind the menu entries. Any of them may be
// nil, which hides the entry.
type Actions struct {
	MonitorURL string
	SetDevMode func(on bool) error
	ReleaseAll func()
	Shutdown   func()
}

type Tray struct {
	actions      Actions
	devMode      atomic.Bool
	once         sync.Once
	shuttingDown atomic.Bool

	ready       chan struct{}
	menuMonitor *systray.MenuItem
	menuDev     *systray.MenuItem
	menuRelease *systray.MenuItem
	menuExit    *systray.MenuItem
}

func New(actions Actions, devMode bool) *Tray {
	t := &Tray{actions: actions, ready: make(chan struct{})}
	t.devMode.Store(devMode)
	return t
}

// Run shows the tray icon and blocks until Quit.
func (t *Tray) Run(icon []byte) {
	systray.Run(func() { t.onReady(icon) }, t.onExit)
}

// Quit removes the tray icon and makes Run return.
func (t *Tray) Quit() {
	if t.shuttingDown.CompareAndSwap(false, true) {
		systray.Quit()
	}
}

// SyncDevMode updates the dev mode checkbox after an outside change.
func (t *Tray) SyncDevMode(on bool) {
	t.devMode.Store(on)
	select {
	case <-t.ready:
	default:
		return
	}
	if t.menuDev == nil {
		return
	}
	if on {
		t.menuDev.Check()
	} else {
		t.menuDev.Uncheck()
	}
}

func (t *Tray) onReady(icon []byte) {
	if icon != nil {
		systray.SetIcon(icon)
	}
	systray.SetTitle("padmapper")
	systray.SetTooltip("padmapper - gamepad to keyboard and mouse")

	if t.actions.MonitorURL != "" {
		t.menuMonitor = systray.AddMenuItem("Open monitor", "Open the live monitor page")
	}
	if t.actions.SetDevMode != nil {
		t.menuDev = systray.AddMenuItemCheckbox("Dev mode", "Allow runtime tuning from the monitor", t.devMode.Load())
	}
	if t.actions.ReleaseAll != nil {
		t.menuRelease = systray.AddMenuItem("Release all keys", "Release every synthesized key and button")
	}
	systray.AddSeparator()
	t.menuExit = systray.AddMenuItem("Exit", "Quit padmapper")
	close(t.ready)

	go t.handleMenuClicks()
	log.Println("Tray: initialized")
}

func (t *Tray) handleMenuClicks() {
	for {
		select {
		case <-clicked(t.menuMonitor):
			if !t.shuttingDown.Load() {
				openBrowser(t.actions.MonitorURL)
			}
		case <-clicked(t.menuDev):
			on := !t.devMode.Load()
			if err := t.actions.SetDevMode(on); err != nil {
				log.Printf("Tray: dev mode: %v", err)
				continue
			}
			t.SyncDevMode(on)
		case <-clicked(t.menuRelease):
			t.actions.ReleaseAll()
		case <-t.menuExit.ClickedCh:
			if t.actions.Shutdown != nil {
				t.once.Do(t.actions.Shutdown)
			}
			t.Quit()
			return
		}
	}
}

// clicked returns the click channel of item, or nil (never ready) for a
// hidden entry.
func clicked(item *systray.MenuItem) <-chan struct{} {
	if item == nil {
		return nil
	}
	return item.ClickedCh
}

func (t *Tray) onExit() {
	t.shuttingDown.Store(true)
	log.Println("Tray: exiting")
}

func browserCommand(goos, url string) (string, []string) {
	switch goos {
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", url}
	case "darwin":
		return "open", []string{url}
	}
	return "xdg-open", []string{url}
}

func openBrowser(url string) {
	name, args := browserCommand(runtime.GOOS, url)
	if err := exec.Command(name, args...).Start(); err != nil {
		log.Printf("Tray: failed to open browser: %v", err)
	}
}
