package config

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"

	"github.com/soar/padmapper/internal/translate"
)

func TestDefaultsMatchEngineDefaults(t *testing.T) {
	m := New()
	if got, want := m.Settings(), translate.DefaultSettings(); got != want {
		t.Fatalf("Settings() = %+v, want %+v", got, want)
	}
	if m.TickRate() != 60 || !m.MonitorEnabled() || m.MonitorAddr() != "localhost:8080" {
		t.Fatalf("driver/monitor defaults wrong: %d %v %q", m.TickRate(), m.MonitorEnabled(), m.MonitorAddr())
	}
	if m.FocusWait() != 5*time.Millisecond || m.TargetTitle() != "" || m.DevMode() {
		t.Fatalf("window/dev defaults wrong")
	}
}

func TestLoadCreatesFileWithHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "padmapper.toml")
	m := New()
	if err := m.Load(path); err != nil {
		t.Fatalf("Load: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	text := string(data)
	if !strings.HasPrefix(text, headerLines[0]) {
		t.Fatalf("file does not start with header:\n%s", text)
	}
	if !strings.Contains(text, "scroll_speed") {
		t.Fatalf("defaults not written:\n%s", text)
	}

	// A second load reads the same file back unchanged.
	if err := New().Load(path); err != nil {
		t.Fatalf("reload: %v", err)
	}
	again, _ := os.ReadFile(path)
	if string(again) != text {
		t.Fatalf("reload rewrote the file")
	}
}

func TestLoadReadsExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "padmapper.toml")
	content := `[controls]
enable_shift_toggle = true
dead_zone_radius = 0.4

[rules]
shift_auto_release = true
shift_release_delay = "750ms"

[driver]
tick_rate = 0
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	m := New()
	if err := m.Load(path); err != nil {
		t.Fatalf("Load: %v", err)
	}
	s := m.Settings()
	if !s.ShiftToggle || s.Zone.DeadZoneRadius != 0.4 || !s.ShiftAutoRelease {
		t.Fatalf("file values not applied: %+v", s)
	}
	if s.ShiftReleaseDelay != 750*time.Millisecond {
		t.Fatalf("ShiftReleaseDelay = %s", s.ShiftReleaseDelay)
	}
	if !s.CtrlToggle || s.ScrollSpeed != 0.0021 {
		t.Fatalf("defaults lost for unset keys: %+v", s)
	}
	if m.TickRate() != 60 {
		t.Fatalf("non-positive tick rate not replaced: %d", m.TickRate())
	}
}

func TestBindFlags(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.Bool("debug", false, "")
	fs.Int("tick-rate", 60, "")
	fs.String("monitor-addr", "", "")
	if err := fs.Parse([]string{"--debug", "--tick-rate=120"}); err != nil {
		t.Fatal(err)
	}

	m := New()
	if err := m.BindFlags(fs); err != nil {
		t.Fatalf("BindFlags: %v", err)
	}
	if !m.Settings().Debug || m.TickRate() != 120 {
		t.Fatalf("flags not applied: debug=%v tick=%d", m.Settings().Debug, m.TickRate())
	}
	if m.MonitorAddr() != "localhost:8080" {
		t.Fatalf("unset flag overrode default: %q", m.MonitorAddr())
	}
}

func TestSavePersistsAndNotifies(t *testing.T) {
	path := filepath.Join(t.TempDir(), "padmapper.toml")
	m := New()
	if err := m.Load(path); err != nil {
		t.Fatal(err)
	}

	var seen []float64
	m.OnChange(func(s translate.Settings) { seen = append(seen, s.ScrollSpeed) })

	if err := m.Save(KeyScrollSpeed, 0.0031); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if len(seen) != 1 || seen[0] != 0.0031 {
		t.Fatalf("listener saw %v", seen)
	}

	fresh := New()
	if err := fresh.Load(path); err != nil {
		t.Fatal(err)
	}
	if got := fresh.Settings().ScrollSpeed; got != 0.0031 {
		t.Fatalf("persisted scroll speed = %v", got)
	}
	data, _ := os.ReadFile(path)
	if strings.Count(string(data), headerMarker) != 1 {
		t.Fatalf("header missing or duplicated after save:\n%s", data)
	}
}

func TestSaveWritesOnlyItsKey(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.Bool("debug", false, "")
	fs.Int("tick-rate", 60, "")
	if err := fs.Parse([]string{"--debug", "--tick-rate=120"}); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "padmapper.toml")
	m := New()
	if err := m.BindFlags(fs); err != nil {
		t.Fatal(err)
	}
	m.Set(KeyMonitorEnabled, false)
	if err := m.Load(path); err != nil {
		t.Fatal(err)
	}
	if err := m.Save(KeyScrollSpeed, 0.003); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !m.Settings().Debug || m.TickRate() != 120 || m.MonitorEnabled() {
		t.Fatalf("session values lost after save")
	}

	fresh := New()
	if err := fresh.Load(path); err != nil {
		t.Fatal(err)
	}
	if fresh.Settings().ScrollSpeed != 0.003 {
		t.Fatalf("saved key not persisted: %v", fresh.Settings().ScrollSpeed)
	}
	if fresh.Settings().Debug || fresh.TickRate() != 60 || !fresh.MonitorEnabled() {
		t.Fatalf("flag or override leaked into the file:\n%s", mustRead(t, path))
	}
}

func TestWatchReloadsExternalEdit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "padmapper.toml")
	m := New()
	if err := m.Load(path); err != nil {
		t.Fatal(err)
	}
	if err := m.Watch(); err != nil {
		t.Fatalf("Watch: %v", err)
	}
	defer m.Close()

	deadZone := regexp.MustCompile(`dead_zone_radius\s*=\s*0\.25`)
	edited := deadZone.ReplaceAllString(mustRead(t, path), "dead_zone_radius = 0.4")
	if !strings.Contains(edited, "dead_zone_radius = 0.4") {
		t.Fatalf("unexpected file layout:\n%s", edited)
	}
	if err := os.WriteFile(path, []byte(edited), 0o644); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for m.Settings().Zone.DeadZoneRadius != 0.4 {
		if time.Now().After(deadline) {
			t.Fatalf("edit not picked up, dead zone = %v", m.Settings().Zone.DeadZoneRadius)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// Saves from this process fire the watcher; the reload must not race them.
func TestSaveWhileWatching(t *testing.T) {
	path := filepath.Join(t.TempDir(), "padmapper.toml")
	m := New()
	if err := m.Load(path); err != nil {
		t.Fatal(err)
	}
	if err := m.Watch(); err != nil {
		t.Fatalf("Watch: %v", err)
	}

	stop := make(chan struct{})
	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		for {
			select {
			case <-stop:
				return
			default:
				_ = m.Settings()
				_ = m.DevMode()
			}
		}
	}()

	var last float64
	for i := 1; i <= 50; i++ {
		last = 0.002 + float64(i)*0.0001
		if err := m.Save(KeyScrollSpeed, last); err != nil {
			t.Fatalf("Save %d: %v", i, err)
		}
		time.Sleep(5 * time.Millisecond)
	}
	close(stop)
	<-readerDone

	if err := m.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := m.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if m.Settings().ScrollSpeed != last {
		t.Fatalf("scroll speed = %v, want %v", m.Settings().ScrollSpeed, last)
	}
	fresh := New()
	if err := fresh.Load(path); err != nil {
		t.Fatal(err)
	}
	if fresh.Settings().ScrollSpeed != last {
		t.Fatalf("persisted scroll speed = %v, want %v", fresh.Settings().ScrollSpeed, last)
	}
}

func TestWatchBeforeLoad(t *testing.T) {
	if err := New().Watch(); err == nil {
		t.Fatal("Watch without a loaded file succeeded")
	}
}

func mustRead(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestInjectHeader(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "plain",
			in:   "[controls]\n",
			want: headerLines[0] + "\n" + headerMarker + "\n[controls]\n",
		},
		{
			name: "after_existing_comments",
			in:   "## settings file\n## edit freely\n[controls]\n",
			want: "## settings file\n## edit freely\n" + headerLines[0] + "\n" + headerMarker + "\n[controls]\n",
		},
		{
			name: "already_present",
			in:   headerMarker + "\n[controls]\n",
			want: headerMarker + "\n[controls]\n",
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "f.toml")
			if err := os.WriteFile(path, []byte(c.in), 0o644); err != nil {
				t.Fatal(err)
			}
			if err := InjectHeader(path); err != nil {
				t.Fatalf("InjectHeader: %v", err)
			}
			got, _ := os.ReadFile(path)
			if string(got) != c.want {
				t.Fatalf("got:\n%s\nwant:\n%s", got, c.want)
			}
		})
	}
}
