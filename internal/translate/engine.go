// Package translate turns polled gamepad snapshots into keyboard and mouse
// transitions. Engine.Tick is the only entry point that reads the device;
// everything it emits goes through an output.Sink.
package translate

import (
	"fmt"
	"log"
	"math"
	"time"

	"github.com/soar/padmapper/internal/gamepad"
	"github.com/soar/padmapper/internal/output"
)

// DeviceSource is the polled controller.
type DeviceSource interface {
	IsConnected() bool
	ReadState() (gamepad.RawState, error)
}

// WindowActivator focuses the target application before a click. The
// result is advisory.
type WindowActivator interface {
	ActivateTargetWindow() (bool, error)
}

// ConnState is the engine's view of the controller.
type ConnState uint8

const (
	Disconnected ConnState = iota
	Connected
)

func (c ConnState) String() string {
	if c == Connected {
		return "connected"
	}
	return "disconnected"
}

type momentaryBinding struct {
	button gamepad.Buttons
	key    output.Key
}

// Momentary buttons mirror their key exactly. A is the "confirm" action,
// X "interact", Y "menu".
var momentaryBindings = []momentaryBinding{
	{gamepad.ButtonA, output.KeySpace},
	{gamepad.ButtonX, output.KeyE},
	{gamepad.ButtonY, output.KeyQ},
	{gamepad.ButtonDPadLeft, output.KeyDigit1},
	{gamepad.ButtonDPadUp, output.KeyDigit2},
	{gamepad.ButtonDPadRight, output.KeyDigit3},
	{gamepad.ButtonStart, output.KeyEscape},
}

var modifierBindings = []struct {
	button   gamepad.Buttons
	modifier Modifier
}{
	{gamepad.ButtonB, Ctrl},
	{gamepad.ButtonL3, Shift},
	{gamepad.ButtonBack, Tab},
}

// Engine is the per-frame translation state machine. It is not safe for
// concurrent use: one goroutine must own every call.
type Engine struct {
	src       DeviceSource
	sink      output.Sink
	settings  SettingsSource
	activator WindowActivator

	state  ConnState
	prev   gamepad.RawState
	mods   *Modifiers
	scroll ScrollAccumulator

	held      map[output.Key]bool
	leftDown  bool
	rightDown bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithActivator installs the hook run before a left click.
func WithActivator(a WindowActivator) Option {
	return func(e *Engine) {
		e.activator = a
	}
}

func NewEngine(src DeviceSource, sink output.Sink, settings SettingsSource, opts ...Option) *Engine {
	e := &Engine{
		src:      src,
		sink:     sink,
		settings: settings,
		mods:     NewModifiers(sink),
		held:     make(map[output.Key]bool),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// State returns the connection state.
func (e *Engine) State() ConnState {
	return e.state
}

// Modifiers returns the modifier state.
func (e *Engine) Modifiers() ModifierState {
	return e.mods.State()
}

// LeftStick returns the left stick of the last translated sample.
func (e *Engine) LeftStick() gamepad.Vector {
	return e.prev.LeftStick()
}

// Tick runs one frame. Device and translation failures never escape: they
// drop the engine to Disconnected and release every active output.
func (e *Engine) Tick(now time.Time) {
	defer func() {
		if p := recover(); p != nil {
			e.fail(fmt.Errorf("translate: panic: %v", p))
		}
	}()

	connected := e.src.IsConnected()
	switch {
	case connected && e.state == Disconnected:
		baseline, err := e.src.ReadState()
		if err != nil {
			log.Printf("Translate: controller baseline read failed: %v", err)
			return
		}
		e.prev = baseline
		e.state = Connected
		log.Println("Translate: controller connected")
		return

	case !connected && e.state == Connected:
		log.Println("Translate: controller disconnected")
		e.disconnect()
		return

	case !connected:
		return
	}

	cur, err := e.src.ReadState()
	if err != nil {
		e.fail(fmt.Errorf("translate: read state: %w", err))
		return
	}

	s := e.settings.Settings()
	if s.Debug && gamepad.Changed(e.prev, cur) {
		log.Printf("[DEBUG] Raw: buttons=%s left=(%.2f,%.2f) right=(%.2f,%.2f) lt=%.2f rt=%.2f",
			cur.Buttons, cur.LeftX, cur.LeftY, cur.RightX, cur.RightY, cur.LeftTrigger, cur.RightTrigger)
	}

	e.translate(cur, e.prev, s, now)
	e.prev = cur
}

func (e *Engine) translate(cur, prev gamepad.RawState, s Settings, now time.Time) {
	for _, b := range momentaryBindings {
		switch {
		case cur.Pressed(prev, b.button):
			if b.key == output.KeySpace {
				e.mods.SpacePressed(s)
			}
			e.held[b.key] = true
			e.sink.EmitKey(b.key, true)
		case cur.Released(prev, b.button) && e.held[b.key]:
			delete(e.held, b.key)
			e.sink.EmitKey(b.key, false)
		}
	}

	for _, b := range modifierBindings {
		switch {
		case cur.Pressed(prev, b.button):
			e.mods.Press(b.modifier, s, now)
			if s.Debug {
				log.Printf("[DEBUG] %s pressed - %s %s", b.button, b.modifier, e.mods.Mode(b.modifier))
			}
		case cur.Released(prev, b.button):
			e.mods.Release(b.modifier)
		}
	}

	if cur.Buttons.Has(gamepad.ButtonRB) {
		e.scrollBy(s.ScrollSpeed)
	}
	if cur.Buttons.Has(gamepad.ButtonLB) {
		e.scrollBy(-s.ScrollSpeed)
	}

	e.applyDirections(Classify(cur.LeftX, cur.LeftY, s.Zone), s, now)

	if dx, dy := MouseDelta(cur.RightX, cur.RightY, s); dx != 0 || dy != 0 {
		e.sink.EmitMouseMove(dx, dy)
	}

	switch TriggerEdge(cur.RightTrigger, prev.RightTrigger, TriggerThreshold) {
	case Rising:
		e.activateWindow(s)
		e.leftDown = true
		e.sink.EmitMouseButton(output.MouseLeft, true)
	case Falling:
		e.releaseMouse(output.MouseLeft)
	}
	switch TriggerEdge(cur.LeftTrigger, prev.LeftTrigger, TriggerThreshold) {
	case Rising:
		e.rightDown = true
		e.sink.EmitMouseButton(output.MouseRight, true)
	case Falling:
		e.releaseMouse(output.MouseRight)
	}

	if e.mods.CheckAutoRelease(s, now) && s.Debug {
		log.Printf("[DEBUG] Shift auto-released after %s without movement", s.ShiftReleaseDelay)
	}
}

func (e *Engine) applyDirections(next Directions, s Settings, now time.Time) {
	prev := e.mods.State().WASD
	if next != prev {
		pk, nk := prev.keys(), next.keys()
		for i := range nk {
			if nk[i].on != pk[i].on {
				e.sink.EmitKey(nk[i].key, nk[i].on)
			}
		}
		if s.Debug {
			log.Printf("[DEBUG] Joystick: %s -> %s", prev, next)
		}
	}
	e.mods.ObserveWASD(next, now)
}

func (e *Engine) scrollBy(rate float64) {
	if ticks, ok := e.scroll.Accumulate(rate); ok {
		e.sink.EmitScroll(ticks)
	}
}

func (e *Engine) activateWindow(s Settings) {
	if e.activator == nil {
		return
	}
	changed, err := e.activator.ActivateTargetWindow()
	if err != nil {
		log.Printf("Translate: window activation failed: %v", err)
		return
	}
	if changed && s.Debug {
		log.Println("[DEBUG] Target window activated")
	}
}

func (e *Engine) releaseMouse(side output.Side) {
	down := &e.leftDown
	if side == output.MouseRight {
		down = &e.rightDown
	}
	if *down {
		*down = false
		e.sink.EmitMouseButton(side, false)
	}
}

// MouseDelta scales the right stick to a relative mouse move. Both axes are
// zero unless at least one leaves the dead zone. Y is inverted for screen
// coordinates.
func MouseDelta(x, y float64, s Settings) (int, int) {
	dz := s.Zone.DeadZoneRadius
	if !(math.Abs(x) > dz || math.Abs(y) > dz) {
		return 0, 0
	}
	return int(x * s.MouseSensitivity), int(-y * s.MouseSensitivity)
}

// ReleaseAll emits a release for every output that is currently down and
// forgets it. Calling it again emits nothing.
func (e *Engine) ReleaseAll() {
	for _, b := range momentaryBindings {
		if e.held[b.key] {
			delete(e.held, b.key)
			e.sink.EmitKey(b.key, false)
		}
	}

	for _, k := range e.mods.State().WASD.keys() {
		if k.on {
			e.sink.EmitKey(k.key, false)
		}
	}
	e.mods.ObserveWASD(Directions{}, time.Time{})
	e.mods.ReleaseAll()

	e.releaseMouse(output.MouseLeft)
	e.releaseMouse(output.MouseRight)
}

func (e *Engine) disconnect() {
	e.ReleaseAll()
	e.mods.Reset()
	e.state = Disconnected
	e.prev = gamepad.RawState{}
}

func (e *Engine) fail(err error) {
	log.Printf("Translate: error reading controller: %v", err)
	e.disconnect()
}
