package translate

import "github.com/soar/padmapper/internal/gamepad"

// ModifierModes is the published form of the three modifier states.
type ModifierModes struct {
	Ctrl  ModifierMode `json:"ctrl"`
	Shift ModifierMode `json:"shift"`
	Tab   ModifierMode `json:"tab"`
}

// MouseButtons reports which synthesized mouse buttons are down.
type MouseButtons struct {
	Left  bool `json:"left"`
	Right bool `json:"right"`
}

// Status is a comparable snapshot of everything the engine currently
// holds down, for observers.
type Status struct {
	Connected bool             `json:"connected"`
	Modifiers ModifierModes    `json:"modifiers"`
	WASD      Directions       `json:"wasd"`
	Mouse     MouseButtons     `json:"mouse"`
	Raw       gamepad.RawState `json:"raw"`
}

// Status returns the current snapshot.
func (e *Engine) Status() Status {
	ms := e.mods.State()
	return Status{
		Connected: e.state == Connected,
		Modifiers: ModifierModes{Ctrl: ms.Ctrl, Shift: ms.Shift, Tab: ms.Tab},
		WASD:      ms.WASD,
		Mouse:     MouseButtons{Left: e.leftDown, Right: e.rightDown},
		Raw:       e.prev,
	}
}
