// Package output defines the keyboard/mouse sink the translation engine
// drives, plus sink decorators for recording, logging and fan-out.
package output

import "fmt"

// Key identifies a synthesized keyboard key.
type Key uint8

const (
	KeyW Key = iota + 1
	KeyA
	KeyS
	KeyD
	KeySpace
	KeyE
	KeyQ
	KeyDigit1
	KeyDigit2
	KeyDigit3
	KeyEscape
	KeyLeftCtrl
	KeyLeftShift
	KeyTab
)

var keyNames = map[Key]string{
	KeyW:         "W",
	KeyA:         "A",
	KeyS:         "S",
	KeyD:         "D",
	KeySpace:     "Space",
	KeyE:         "E",
	KeyQ:         "Q",
	KeyDigit1:    "1",
	KeyDigit2:    "2",
	KeyDigit3:    "3",
	KeyEscape:    "Escape",
	KeyLeftCtrl:  "LeftCtrl",
	KeyLeftShift: "LeftShift",
	KeyTab:       "Tab",
}

func (k Key) String() string {
	if n, ok := keyNames[k]; ok {
		return n
	}
	return fmt.Sprintf("Key(%d)", uint8(k))
}

// Side identifies a mouse button.
type Side uint8

const (
	MouseLeft Side = iota + 1
	MouseRight
)

func (s Side) String() string {
	switch s {
	case MouseLeft:
		return "left"
	case MouseRight:
		return "right"
	}
	return fmt.Sprintf("Side(%d)", uint8(s))
}

// Sink receives synthesized input. Calls are fire-and-forget.
type Sink interface {
	EmitKey(key Key, pressed bool)
	EmitMouseButton(side Side, pressed bool)
	EmitMouseMove(dx, dy int)
	EmitScroll(ticks int)
}

// Kind tags an Event.
type Kind string

const (
	KindKey         Kind = "key"
	KindMouseButton Kind = "mouse_btn"
	KindMouseMove   Kind = "mouse_move"
	KindScroll      Kind = "scroll"
)

// Event is one call made on a Sink.
type Event struct {
	Kind    Kind   `json:"kind"`
	Key     string `json:"key,omitempty"`
	Side    string `json:"side,omitempty"`
	Pressed bool   `json:"pressed,omitempty"`
	DX      int    `json:"dx,omitempty"`
	DY      int    `json:"dy,omitempty"`
	Ticks   int    `json:"ticks,omitempty"`
}

func (e Event) String() string {
	switch e.Kind {
	case KindKey:
		return fmt.Sprintf("key %s %s", e.Key, pressWord(e.Pressed))
	case KindMouseButton:
		return fmt.Sprintf("mouse %s %s", e.Side, pressWord(e.Pressed))
	case KindMouseMove:
		return fmt.Sprintf("mouse move %d,%d", e.DX, e.DY)
	case KindScroll:
		return fmt.Sprintf("scroll %d", e.Ticks)
	}
	return string(e.Kind)
}

func pressWord(pressed bool) string {
	if pressed {
		return "pressed"
	}
	return "released"
}

func keyEvent(key Key, pressed bool) Event {
	return Event{Kind: KindKey, Key: key.String(), Pressed: pressed}
}

func mouseButtonEvent(side Side, pressed bool) Event {
	return Event{Kind: KindMouseButton, Side: side.String(), Pressed: pressed}
}
