// Package config layers defaults, the TOML config file and command-line flags
// with spf13/viper and serves the result as translate.Settings.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/soar/padmapper/internal/translate"
)

const (
	appName  = "padmapper"
	fileName = appName + ".toml"
)

// Keys
const (
	KeyTabToggle        = "controls.enable_tab_toggle"
	KeyCtrlToggle       = "controls.enable_ctrl_toggle"
	KeyShiftToggle      = "controls.enable_shift_toggle"
	KeyScrollSpeed      = "controls.scroll_speed"
	KeyDeadZoneRadius   = "controls.dead_zone_radius"
	KeyDiagonalZoneSize = "controls.diagonal_zone_size"
	KeyMouseSensitivity = "controls.mouse_sensitivity"

	KeyShiftReleasesCtrl = "rules.shift_releases_ctrl"
	KeyShiftReleasesTab  = "rules.shift_releases_tab"
	KeySpaceReleasesCtrl = "rules.space_releases_ctrl"
	KeyShiftAutoRelease  = "rules.shift_auto_release"
	KeyShiftReleaseDelay = "rules.shift_release_delay"

	KeyDebugOutput = "debug.enable_debug_output"
	KeyDevMode     = "debug.dev_mode"

	KeyTickRate       = "driver.tick_rate"
	KeyMonitorEnabled = "monitor.enabled"
	KeyMonitorAddr    = "monitor.addr"
	KeyTargetTitle    = "window.target_title"
	KeyFocusWait      = "window.focus_wait"
)

const defaultTickRate = 60

var defaults = map[string]any{
	KeyTabToggle:        true,
	KeyCtrlToggle:       true,
	KeyShiftToggle:      false,
	KeyScrollSpeed:      0.0021,
	KeyDeadZoneRadius:   0.25,
	KeyDiagonalZoneSize: 0.7071,
	KeyMouseSensitivity: 10.0,

	KeyShiftReleasesCtrl: false,
	KeyShiftReleasesTab:  false,
	KeySpaceReleasesCtrl: false,
	KeyShiftAutoRelease:  false,
	KeyShiftReleaseDelay: "500ms",

	KeyDebugOutput: false,
	KeyDevMode:     false,

	KeyTickRate:       defaultTickRate,
	KeyMonitorEnabled: true,
	KeyMonitorAddr:    "localhost:8080",
	KeyTargetTitle:    "",
	KeyFocusWait:      "5ms",
}

// flagKeys maps command-line flag names onto config keys.
var flagKeys = map[string]string{
	"debug":        KeyDebugOutput,
	"dev":          KeyDevMode,
	"tick-rate":    KeyTickRate,
	"monitor-addr": KeyMonitorAddr,
}

type snapshot struct {
	settings       translate.Settings
	devMode        bool
	tickRate       int
	monitorEnabled bool
	monitorAddr    string
	targetTitle    string
	focusWait      time.Duration
}

// Manager owns the viper instance. All typed getters read a snapshot that
// is rebuilt after every load, write and file change, so they are safe to
// call from any goroutine.
type Manager struct {
	// wmu serialises every viper access.
	wmu       sync.Mutex
	v         *viper.Viper
	path      string
	watcher   *fsnotify.Watcher
	watchDone chan struct{}

	mu        sync.RWMutex
	snap      snapshot
	listeners []func(translate.Settings)
}

func New() *Manager {
	m := &Manager{v: newViper()}
	m.rebuild()
	return m
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("toml")
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	return v
}

// DefaultPath returns the config file location under the user config dir.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("config: locate user config dir: %w", err)
	}
	return filepath.Join(dir, appName, fileName), nil
}

// BindFlags registers the flags that override config keys.
func (m *Manager) BindFlags(fs *pflag.FlagSet) error {
	m.wmu.Lock()
	defer m.wmu.Unlock()
	for name, key := range flagKeys {
		f := fs.Lookup(name)
		if f == nil {
			continue
		}
		if err := m.v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("config: bind flag %s: %w", name, err)
		}
	}
	m.rebuild()
	return nil
}

// Load reads path, creating it with defaults first if it does not exist.
// An empty path selects DefaultPath.
func (m *Manager) Load(path string) error {
	m.wmu.Lock()
	defer m.wmu.Unlock()
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}
	m.path = path
	m.v.SetConfigFile(path)

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("config: create dir: %w", err)
		}
		// A fresh instance carries defaults only, not flags or overrides.
		if err := newViper().SafeWriteConfigAs(path); err != nil {
			return fmt.Errorf("config: write defaults: %w", err)
		}
		log.Printf("Config: wrote defaults to %s", path)
	}
	if err := InjectHeader(path); err != nil {
		log.Printf("Config: header injection failed: %v", err)
	}

	if err := m.v.ReadInConfig(); err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	m.rebuild()
	log.Printf("Config: loaded %s", path)
	return nil
}

// Path returns the loaded config file, or "" before Load.
func (m *Manager) Path() string {
	return m.path
}

// Watch reloads the file whenever it is written, until Close. Reloads take
// the same lock as Save, so a write by this process never overlaps the
// reload it triggers.
func (m *Manager) Watch() error {
	m.wmu.Lock()
	defer m.wmu.Unlock()
	if m.path == "" {
		return errors.New("config: watch before load")
	}
	if m.watcher != nil {
		return nil
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config: watch: %w", err)
	}
	// Editors often replace the file instead of writing it, so the directory
	// is watched and events are filtered by name.
	dir := filepath.Dir(m.path)
	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return fmt.Errorf("config: watch %s: %w", dir, err)
	}
	m.watcher = w
	m.watchDone = make(chan struct{})
	go m.watch(w, filepath.Clean(m.path), m.watchDone)
	return nil
}

func (m *Manager) watch(w *fsnotify.Watcher, path string, done chan<- struct{}) {
	defer close(done)
	for {
		select {
		case e, ok := <-w.Events:
			if !ok {
				return
			}
			if filepath.Clean(e.Name) != path || e.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if err := m.reload(); err != nil {
				log.Printf("Config: reload failed, keeping previous settings: %v", err)
				continue
			}
			log.Printf("Config: reloaded after %s", e.Op)
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			log.Printf("Config: watch error: %v", err)
		}
	}
}

func (m *Manager) reload() error {
	m.wmu.Lock()
	defer m.wmu.Unlock()
	if err := m.v.ReadInConfig(); err != nil {
		return err
	}
	m.rebuild()
	return nil
}

// Close stops Watch. Calling it without Watch, or twice, is harmless.
func (m *Manager) Close() error {
	m.wmu.Lock()
	w, done := m.watcher, m.watchDone
	m.watcher, m.watchDone = nil, nil
	m.wmu.Unlock()
	if w == nil {
		return nil
	}
	err := w.Close()
	<-done
	return err
}

// OnChange registers fn to run with the new settings after every rebuild.
// fn must not call Set or Save.
func (m *Manager) OnChange(fn func(translate.Settings)) {
	m.mu.Lock()
	m.listeners = append(m.listeners, fn)
	m.mu.Unlock()
}

// Set overrides key for the rest of the session without persisting it.
func (m *Manager) Set(key string, value any) {
	m.wmu.Lock()
	defer m.wmu.Unlock()
	m.v.Set(key, value)
	m.rebuild()
}

// Save overrides key for the session and writes that key alone back to the
// file. Every other key keeps the value the file already had, so flags and
// Set overrides never end up persisted.
func (m *Manager) Save(key string, value any) error {
	m.wmu.Lock()
	defer m.wmu.Unlock()
	m.v.Set(key, value)
	m.rebuild()
	if m.path == "" {
		return nil
	}

	file := viper.New()
	file.SetConfigType("toml")
	file.SetConfigFile(m.path)
	if err := file.ReadInConfig(); err != nil {
		return fmt.Errorf("config: read %s: %w", m.path, err)
	}
	file.Set(key, value)
	if err := file.WriteConfig(); err != nil {
		return fmt.Errorf("config: write %s: %w", m.path, err)
	}
	if err := InjectHeader(m.path); err != nil {
		return fmt.Errorf("config: header: %w", err)
	}
	return nil
}

// rebuild must be called with wmu held.
func (m *Manager) rebuild() {
	v := m.v
	s := snapshot{
		settings: translate.Settings{
			Zone: translate.ZoneConfig{
				DeadZoneRadius:   v.GetFloat64(KeyDeadZoneRadius),
				DiagonalZoneSize: v.GetFloat64(KeyDiagonalZoneSize),
			},
			MouseSensitivity:  v.GetFloat64(KeyMouseSensitivity),
			ScrollSpeed:       v.GetFloat64(KeyScrollSpeed),
			CtrlToggle:        v.GetBool(KeyCtrlToggle),
			ShiftToggle:       v.GetBool(KeyShiftToggle),
			TabToggle:         v.GetBool(KeyTabToggle),
			ShiftReleasesCtrl: v.GetBool(KeyShiftReleasesCtrl),
			ShiftReleasesTab:  v.GetBool(KeyShiftReleasesTab),
			SpaceReleasesCtrl: v.GetBool(KeySpaceReleasesCtrl),
			ShiftAutoRelease:  v.GetBool(KeyShiftAutoRelease),
			ShiftReleaseDelay: v.GetDuration(KeyShiftReleaseDelay),
			Debug:             v.GetBool(KeyDebugOutput),
		},
		devMode:        v.GetBool(KeyDevMode),
		tickRate:       v.GetInt(KeyTickRate),
		monitorEnabled: v.GetBool(KeyMonitorEnabled),
		monitorAddr:    v.GetString(KeyMonitorAddr),
		targetTitle:    v.GetString(KeyTargetTitle),
		focusWait:      v.GetDuration(KeyFocusWait),
	}
	if s.tickRate <= 0 {
		s.tickRate = defaultTickRate
	}

	m.mu.Lock()
	m.snap = s
	listeners := append([]func(translate.Settings){}, m.listeners...)
	m.mu.Unlock()

	for _, fn := range listeners {
		fn(s.settings)
	}
}

func (m *Manager) read() snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snap
}

// Settings implements translate.SettingsSource.
func (m *Manager) Settings() translate.Settings { return m.read().settings }

func (m *Manager) DevMode() bool            { return m.read().devMode }
func (m *Manager) TickRate() int            { return m.read().tickRate }
func (m *Manager) MonitorEnabled() bool     { return m.read().monitorEnabled }
func (m *Manager) MonitorAddr() string      { return m.read().monitorAddr }
func (m *Manager) TargetTitle() string      { return m.read().targetTitle }
func (m *Manager) FocusWait() time.Duration { return m.read().focusWait }
