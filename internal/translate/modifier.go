package translate

import (
	"fmt"
	"time"

	"github.com/soar/padmapper/internal/output"
)

// Modifier is one of the sticky-capable keyboard modifiers.
type Modifier uint8

const (
	Ctrl Modifier = iota
	Shift
	Tab
)

func (m Modifier) key() output.Key {
	switch m {
	case Ctrl:
		return output.KeyLeftCtrl
	case Shift:
		return output.KeyLeftShift
	default:
		return output.KeyTab
	}
}

func (m Modifier) String() string {
	return m.key().String()
}

// ModifierMode is the state of one modifier.
type ModifierMode uint8

const (
	Released ModifierMode = iota
	Held
	ToggledOn
)

// Active reports whether the modifier key is currently down.
func (m ModifierMode) Active() bool {
	return m != Released
}

func (m ModifierMode) String() string {
	switch m {
	case Released:
		return "released"
	case Held:
		return "held"
	case ToggledOn:
		return "toggled_on"
	}
	return fmt.Sprintf("ModifierMode(%d)", uint8(m))
}

func (m ModifierMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *ModifierMode) UnmarshalText(text []byte) error {
	for _, mode := range []ModifierMode{Released, Held, ToggledOn} {
		if mode.String() == string(text) {
			*m = mode
			return nil
		}
	}
	return fmt.Errorf("translate: unknown modifier mode %q", text)
}

// ModifierState is the modifier and WASD state owned by one engine.
type ModifierState struct {
	Ctrl             ModifierMode
	Shift            ModifierMode
	Tab              ModifierMode
	WASD             Directions
	LastWASDActivity time.Time
}

func (s *ModifierState) mode(m Modifier) *ModifierMode {
	switch m {
	case Ctrl:
		return &s.Ctrl
	case Shift:
		return &s.Shift
	default:
		return &s.Tab
	}
}

// Modifiers applies hold/toggle policy, the cross-modifier exclusion rules
// and Shift auto-release, emitting key transitions to a sink. It is fed true
// edges only; it never inspects raw button state.
type Modifiers struct {
	state ModifierState
	sink  output.Sink
}

func NewModifiers(sink output.Sink) *Modifiers {
	return &Modifiers{sink: sink}
}

// State returns a copy of the current state.
func (ms *Modifiers) State() ModifierState {
	return ms.state
}

// Mode returns the state of m.
func (ms *Modifiers) Mode(m Modifier) ModifierMode {
	return *ms.state.mode(m)
}

// Press handles a button-down edge for m. In toggle mode it flips m; in
// hold mode it activates m. A modifier left toggled on after the policy
// switched to hold becomes Held, so the coming button-up releases it.
func (ms *Modifiers) Press(m Modifier, s Settings, now time.Time) {
	toggle := m.toggleIn(s)
	mode := ms.Mode(m)

	switch {
	case toggle && mode.Active():
		ms.Deactivate(m)
	case toggle:
		ms.activate(m, ToggledOn, s, now)
	case mode == ToggledOn:
		*ms.state.mode(m) = Held
	case !mode.Active():
		ms.activate(m, Held, s, now)
	}
}

// Release handles a button-up edge for m. Only a Held modifier reacts;
// toggled modifiers stay on.
func (ms *Modifiers) Release(m Modifier) {
	if ms.Mode(m) == Held {
		ms.Deactivate(m)
	}
}

// Deactivate releases m from any active mode. Releasing an inactive
// modifier is a no-op.
func (ms *Modifiers) Deactivate(m Modifier) {
	mode := ms.state.mode(m)
	if !mode.Active() {
		return
	}
	*mode = Released
	ms.sink.EmitKey(m.key(), false)
}

func (ms *Modifiers) activate(m Modifier, to ModifierMode, s Settings, now time.Time) {
	if m == Shift {
		if s.ShiftReleasesCtrl && ms.state.Ctrl == ToggledOn {
			ms.Deactivate(Ctrl)
		}
		if s.ShiftReleasesTab && ms.state.Tab == ToggledOn {
			ms.Deactivate(Tab)
		}
		// Arm the auto-release timer from the moment Shift goes down.
		ms.state.LastWASDActivity = now
	}
	*ms.state.mode(m) = to
	ms.sink.EmitKey(m.key(), true)
}

// SpacePressed applies the rules that fire when the Space action activates.
func (ms *Modifiers) SpacePressed(s Settings) {
	if s.SpaceReleasesCtrl && ms.state.Ctrl == ToggledOn {
		ms.Deactivate(Ctrl)
	}
}

// ObserveWASD records the WASD set the engine just applied. Any non-empty
// set refreshes the activity timestamp.
func (ms *Modifiers) ObserveWASD(d Directions, now time.Time) {
	ms.state.WASD = d
	if d.Any() {
		ms.state.LastWASDActivity = now
	}
}

// CheckAutoRelease releases Shift once it has been active without WASD
// activity for s.ShiftReleaseDelay. It reports whether Shift was released.
func (ms *Modifiers) CheckAutoRelease(s Settings, now time.Time) bool {
	if !s.ShiftAutoRelease || !ms.state.Shift.Active() {
		return false
	}
	if now.Sub(ms.state.LastWASDActivity) < s.ShiftReleaseDelay {
		return false
	}
	ms.Deactivate(Shift)
	return true
}

// ReleaseAll deactivates every modifier.
func (ms *Modifiers) ReleaseAll() {
	ms.Deactivate(Ctrl)
	ms.Deactivate(Shift)
	ms.Deactivate(Tab)
}

// Reset forgets all state without emitting anything.
func (ms *Modifiers) Reset() {
	ms.state = ModifierState{}
}

func (m Modifier) toggleIn(s Settings) bool {
	switch m {
	case Ctrl:
		return s.CtrlToggle
	case Shift:
		return s.ShiftToggle
	default:
		return s.TabToggle
	}
}
