package translate

import (
	"errors"
	"testing"
	"time"

	"github.com/soar/padmapper/internal/gamepad"
	"github.com/soar/padmapper/internal/output"
)

type fakeDevice struct {
	connected bool
	state     gamepad.RawState
	err       error
	panicMsg  string
}

func (f *fakeDevice) IsConnected() bool { return f.connected }

func (f *fakeDevice) ReadState() (gamepad.RawState, error) {
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	return f.state, f.err
}

type fakeActivator struct {
	rec   *output.Recorder
	calls []int
	err   error
}

func (a *fakeActivator) ActivateTargetWindow() (bool, error) {
	a.calls = append(a.calls, len(a.rec.Events))
	return a.err == nil, a.err
}

type harness struct {
	dev *fakeDevice
	rec *output.Recorder
	eng *Engine
	now time.Time
}

// liveSettings stands in for a config that changes between ticks.
type liveSettings struct {
	s Settings
}

func (l *liveSettings) Settings() Settings { return l.s }

func newHarness(t *testing.T, s Settings, opts ...Option) *harness {
	t.Helper()
	return newHarnessWith(t, StaticSettings(s), opts...)
}

func newLiveHarness(t *testing.T, s Settings) (*harness, *liveSettings) {
	t.Helper()
	live := &liveSettings{s: s}
	return newHarnessWith(t, live), live
}

func newHarnessWith(t *testing.T, src SettingsSource, opts ...Option) *harness {
	t.Helper()
	h := &harness{
		dev: &fakeDevice{connected: true},
		rec: &output.Recorder{},
		now: time.Unix(1000, 0),
	}
	h.eng = NewEngine(h.dev, h.rec, src, opts...)
	h.tick()
	if h.eng.State() != Connected {
		t.Fatal("engine did not connect")
	}
	if len(h.rec.Events) != 0 {
		t.Fatalf("baseline emitted %v", h.rec.Events)
	}
	return h
}

func (h *harness) tick() {
	h.eng.Tick(h.now)
	h.now = h.now.Add(16 * time.Millisecond)
}

func (h *harness) press(b gamepad.Buttons) {
	h.dev.state.Buttons |= b
	h.tick()
}

func (h *harness) release(b gamepad.Buttons) {
	h.dev.state.Buttons &^= b
	h.tick()
}

func mouseEv(side output.Side, pressed bool) output.Event {
	return output.Event{Kind: output.KindMouseButton, Side: side.String(), Pressed: pressed}
}

func TestEngineMomentaryRoundTrip(t *testing.T) {
	cases := []struct {
		button gamepad.Buttons
		key    output.Key
	}{
		{gamepad.ButtonA, output.KeySpace},
		{gamepad.ButtonX, output.KeyE},
		{gamepad.ButtonY, output.KeyQ},
		{gamepad.ButtonDPadLeft, output.KeyDigit1},
		{gamepad.ButtonDPadUp, output.KeyDigit2},
		{gamepad.ButtonDPadRight, output.KeyDigit3},
		{gamepad.ButtonStart, output.KeyEscape},
	}
	for _, c := range cases {
		t.Run(c.key.String(), func(t *testing.T) {
			h := newHarness(t, DefaultSettings())
			h.press(c.button)
			h.tick()
			h.tick()
			h.release(c.button)
			h.tick()
			assertEvents(t, h.rec, keyEv(c.key, true), keyEv(c.key, false))
		})
	}
}

func TestEngineBaselineSuppressesEdges(t *testing.T) {
	h := &harness{dev: &fakeDevice{connected: true}, rec: &output.Recorder{}, now: time.Unix(0, 0)}
	h.dev.state.Buttons = gamepad.ButtonA | gamepad.ButtonB
	h.eng = NewEngine(h.dev, h.rec, StaticSettings(DefaultSettings()))

	h.tick()
	h.tick()
	h.release(gamepad.ButtonA | gamepad.ButtonB)
	if len(h.rec.Events) != 0 {
		t.Fatalf("buttons held at connect produced %v", h.rec.Events)
	}
}

func TestEngineToggleIdempotence(t *testing.T) {
	h := newHarness(t, DefaultSettings())

	h.press(gamepad.ButtonB)
	for i := 0; i < 10; i++ {
		h.tick()
	}
	h.release(gamepad.ButtonB)
	h.tick()
	assertEvents(t, h.rec, keyEv(output.KeyLeftCtrl, true))
	if h.eng.Modifiers().Ctrl != ToggledOn {
		t.Fatalf("Ctrl = %s, want toggled_on", h.eng.Modifiers().Ctrl)
	}

	h.press(gamepad.ButtonB)
	h.release(gamepad.ButtonB)
	assertEvents(t, h.rec, keyEv(output.KeyLeftCtrl, true), keyEv(output.KeyLeftCtrl, false))
}

func TestEngineCtrlSwitchedToHoldWhileToggledOn(t *testing.T) {
	h, live := newLiveHarness(t, DefaultSettings())

	h.press(gamepad.ButtonB)
	h.release(gamepad.ButtonB)
	assertEvents(t, h.rec, keyEv(output.KeyLeftCtrl, true))

	live.s.CtrlToggle = false
	h.rec.Reset()
	h.press(gamepad.ButtonB)
	if h.eng.Modifiers().Ctrl != Held {
		t.Fatalf("Ctrl = %s after press in hold mode, want held", h.eng.Modifiers().Ctrl)
	}
	h.release(gamepad.ButtonB)
	assertEvents(t, h.rec, keyEv(output.KeyLeftCtrl, false))

	h.rec.Reset()
	for i := 0; i < 3; i++ {
		h.press(gamepad.ButtonB)
		h.release(gamepad.ButtonB)
	}
	assertEvents(t, h.rec,
		keyEv(output.KeyLeftCtrl, true), keyEv(output.KeyLeftCtrl, false),
		keyEv(output.KeyLeftCtrl, true), keyEv(output.KeyLeftCtrl, false),
		keyEv(output.KeyLeftCtrl, true), keyEv(output.KeyLeftCtrl, false))
	if h.eng.Modifiers().Ctrl != Released {
		t.Fatalf("Ctrl = %s, want released", h.eng.Modifiers().Ctrl)
	}
}

func TestEngineReadsSettingsEveryTick(t *testing.T) {
	s := DefaultSettings()
	s.Zone.DeadZoneRadius = 0.5
	h, live := newLiveHarness(t, s)

	h.dev.state.LeftX = 0.3
	h.tick()
	if len(h.rec.Events) != 0 {
		t.Fatalf("stick inside dead zone emitted %v", h.rec.Events)
	}
	live.s.Zone.DeadZoneRadius = 0.25
	h.tick()
	assertEvents(t, h.rec, keyEv(output.KeyD, true))

	h.rec.Reset()
	h.dev.state.LeftX = 0
	h.dev.state.Buttons = gamepad.ButtonRB
	h.tick()
	assertEvents(t, h.rec, keyEv(output.KeyD, false))

	// 0.0021 is pending; the raised speed completes the quantum next tick.
	h.rec.Reset()
	live.s.ScrollSpeed = 0.0063
	h.tick()
	assertEvents(t, h.rec, output.Event{Kind: output.KindScroll, Ticks: 1})
}

func TestEngineHoldModifier(t *testing.T) {
	h := newHarness(t, DefaultSettings())
	h.press(gamepad.ButtonL3)
	if h.eng.Modifiers().Shift != Held {
		t.Fatalf("Shift = %s, want held", h.eng.Modifiers().Shift)
	}
	h.release(gamepad.ButtonL3)
	assertEvents(t, h.rec, keyEv(output.KeyLeftShift, true), keyEv(output.KeyLeftShift, false))
}

func TestEngineScroll(t *testing.T) {
	h := newHarness(t, DefaultSettings())
	h.dev.state.Buttons = gamepad.ButtonRB
	for i := 1; i <= 4; i++ {
		h.tick()
		if i < 4 && len(h.rec.Events) != 0 {
			t.Fatalf("tick %d emitted %v", i, h.rec.Events)
		}
	}
	assertEvents(t, h.rec, output.Event{Kind: output.KindScroll, Ticks: 1})

	h.rec.Reset()
	h.dev.state.Buttons = gamepad.ButtonLB
	for i := 0; i < 4; i++ {
		h.tick()
	}
	assertEvents(t, h.rec, output.Event{Kind: output.KindScroll, Ticks: -1})
}

func TestEngineDirections(t *testing.T) {
	h := newHarness(t, DefaultSettings())

	h.dev.state.LeftY = 1
	h.tick()
	h.tick()
	assertEvents(t, h.rec, keyEv(output.KeyW, true))

	// Rotate into the north-east band: D joins, W stays.
	h.rec.Reset()
	h.dev.state.LeftX, h.dev.state.LeftY = 0.5, 0.8
	h.tick()
	assertEvents(t, h.rec, keyEv(output.KeyD, true))

	h.rec.Reset()
	h.dev.state.LeftX, h.dev.state.LeftY = 0, 0
	h.tick()
	assertEvents(t, h.rec, keyEv(output.KeyW, false), keyEv(output.KeyD, false))
}

func TestEngineMouseMove(t *testing.T) {
	h := newHarness(t, DefaultSettings())
	h.dev.state.RightX, h.dev.state.RightY = 0.5, 0.1
	h.tick()
	assertEvents(t, h.rec, output.Event{Kind: output.KindMouseMove, DX: 5, DY: -1})

	h.rec.Reset()
	h.dev.state.RightX, h.dev.state.RightY = 0.2, 0.2
	h.tick()
	if len(h.rec.Events) != 0 {
		t.Fatalf("dead zone move emitted %v", h.rec.Events)
	}
}

func TestMouseDelta(t *testing.T) {
	s := DefaultSettings()
	cases := []struct {
		name   string
		x, y   float64
		dx, dy int
	}{
		{"rest", 0, 0, 0, 0},
		{"inside_dead_zone", 0.25, -0.25, 0, 0},
		{"right", 1, 0, 10, 0},
		{"up_is_negative_dy", 0, 1, 0, -10},
		{"one_axis_unlocks_other", 0.9, 0.1, 9, -1},
		{"truncates_toward_zero", -0.35, 0, -3, 0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			dx, dy := MouseDelta(c.x, c.y, s)
			if dx != c.dx || dy != c.dy {
				t.Fatalf("MouseDelta(%v, %v) = (%d, %d), want (%d, %d)", c.x, c.y, dx, dy, c.dx, c.dy)
			}
		})
	}
}

func TestEngineTriggersAndWindowHook(t *testing.T) {
	rec := &output.Recorder{}
	act := &fakeActivator{rec: rec}
	h := &harness{dev: &fakeDevice{connected: true}, rec: rec, now: time.Unix(0, 0)}
	h.eng = NewEngine(h.dev, rec, StaticSettings(DefaultSettings()), WithActivator(act))
	h.tick()

	h.dev.state.RightTrigger = 1
	h.tick()
	h.tick()
	h.dev.state.RightTrigger = 0
	h.tick()

	h.dev.state.LeftTrigger = 0.9
	h.tick()
	h.dev.state.LeftTrigger = 0.1
	h.tick()

	assertEvents(t, rec,
		mouseEv(output.MouseLeft, true),
		mouseEv(output.MouseLeft, false),
		mouseEv(output.MouseRight, true),
		mouseEv(output.MouseRight, false),
	)
	if len(act.calls) != 1 || act.calls[0] != 0 {
		t.Fatalf("activator calls = %v, want one call before any click", act.calls)
	}
}

func TestEngineWindowHookFailureIsTolerated(t *testing.T) {
	rec := &output.Recorder{}
	act := &fakeActivator{rec: rec, err: errors.New("no window")}
	h := &harness{dev: &fakeDevice{connected: true}, rec: rec, now: time.Unix(0, 0)}
	h.eng = NewEngine(h.dev, rec, StaticSettings(DefaultSettings()), WithActivator(act))
	h.tick()

	h.dev.state.RightTrigger = 1
	h.tick()
	assertEvents(t, rec, mouseEv(output.MouseLeft, true))
	if h.eng.State() != Connected {
		t.Fatal("hook failure disconnected the engine")
	}
}

func TestEngineAutoRelease(t *testing.T) {
	s := DefaultSettings()
	s.ShiftAutoRelease = true
	h := newHarness(t, s)

	h.dev.state.Buttons = gamepad.ButtonL3
	h.eng.Tick(h.now)
	t0 := h.now
	h.rec.Reset()

	h.eng.Tick(t0.Add(490 * time.Millisecond))
	if len(h.rec.Events) != 0 {
		t.Fatalf("released early: %v", h.rec.Events)
	}
	h.eng.Tick(t0.Add(500 * time.Millisecond))
	h.eng.Tick(t0.Add(600 * time.Millisecond))
	h.dev.state.Buttons = 0
	h.eng.Tick(t0.Add(700 * time.Millisecond))
	assertEvents(t, h.rec, keyEv(output.KeyLeftShift, false))
}

func TestEngineDisconnectReleasesOnce(t *testing.T) {
	h := newHarness(t, DefaultSettings())

	h.press(gamepad.ButtonB)
	h.release(gamepad.ButtonB)
	h.press(gamepad.ButtonL3)
	h.dev.state.LeftY = 1
	h.tick()
	h.rec.Reset()

	h.dev.connected = false
	h.tick()
	h.tick()
	h.tick()

	assertEvents(t, h.rec,
		keyEv(output.KeyW, false),
		keyEv(output.KeyLeftCtrl, false),
		keyEv(output.KeyLeftShift, false),
	)
	if h.eng.State() != Disconnected {
		t.Fatal("engine still connected")
	}
	if st := h.eng.Status(); st.Connected || st.Modifiers != (ModifierModes{}) || st.WASD.Any() {
		t.Fatalf("status after disconnect = %+v", st)
	}

	// Reconnecting with buttons still held takes a silent baseline.
	h.rec.Reset()
	h.dev.connected = true
	h.tick()
	if len(h.rec.Events) != 0 {
		t.Fatalf("reconnect emitted %v", h.rec.Events)
	}
}

func TestEngineReadErrorReleases(t *testing.T) {
	h := newHarness(t, DefaultSettings())
	h.press(gamepad.ButtonX)
	h.rec.Reset()

	h.dev.err = errors.New("device gone")
	h.tick()
	assertEvents(t, h.rec, keyEv(output.KeyE, false))
	if h.eng.State() != Disconnected {
		t.Fatal("read error left the engine connected")
	}

	// Baseline reads keep failing until the device recovers.
	h.tick()
	if h.eng.State() != Disconnected {
		t.Fatal("connected on a failed baseline read")
	}
	h.dev.err = nil
	h.tick()
	if h.eng.State() != Connected {
		t.Fatal("did not reconnect")
	}
}

func TestEnginePanicIsRecovered(t *testing.T) {
	h := newHarness(t, DefaultSettings())
	h.dev.state.RightTrigger = 1
	h.tick()
	h.rec.Reset()

	h.dev.panicMsg = "boom"
	h.tick()
	assertEvents(t, h.rec, mouseEv(output.MouseLeft, false))
	if h.eng.State() != Disconnected {
		t.Fatal("panic left the engine connected")
	}
}

func TestEngineReleaseAllIdempotent(t *testing.T) {
	s := DefaultSettings()
	h := newHarness(t, s)
	h.press(gamepad.ButtonA | gamepad.ButtonBack)
	h.dev.state.LeftX = -1
	h.dev.state.LeftTrigger = 1
	h.tick()
	h.rec.Reset()

	h.eng.ReleaseAll()
	assertEvents(t, h.rec,
		keyEv(output.KeySpace, false),
		keyEv(output.KeyA, false),
		keyEv(output.KeyTab, false),
		mouseEv(output.MouseRight, false),
	)
	h.eng.ReleaseAll()
	if len(h.rec.Events) != 4 {
		t.Fatalf("second ReleaseAll emitted %v", h.rec.Events[4:])
	}
}

func TestEngineSpaceReleasesCtrl(t *testing.T) {
	s := DefaultSettings()
	s.SpaceReleasesCtrl = true
	h := newHarness(t, s)
	h.press(gamepad.ButtonB)
	h.release(gamepad.ButtonB)
	h.rec.Reset()

	h.press(gamepad.ButtonA)
	assertEvents(t, h.rec, keyEv(output.KeyLeftCtrl, false), keyEv(output.KeySpace, true))
}
