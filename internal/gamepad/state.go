// Package gamepad holds the controller model shared by the reader and the
// translation core: button masks, normalized snapshots and device mappings.
package gamepad

import (
	"errors"
	"math"
	"strings"
)

// ErrNotConnected is returned by ReadState when no active controller is open.
var ErrNotConnected = errors.New("gamepad: no controller connected")

// Info describes the active controller.
type Info struct {
	Name           string `json:"name"`
	ControllerType string `json:"controllerType"`
}

// Buttons is a bitmask of the digital inputs of one controller.
type Buttons uint32

const (
	ButtonA Buttons = 1 << iota
	ButtonB
	ButtonX
	ButtonY
	ButtonLB
	ButtonRB
	ButtonBack
	ButtonStart
	ButtonGuide
	ButtonL3
	ButtonR3
	ButtonDPadUp
	ButtonDPadDown
	ButtonDPadLeft
	ButtonDPadRight
)

var buttonNames = []struct {
	b    Buttons
	name string
}{
	{ButtonA, "a"},
	{ButtonB, "b"},
	{ButtonX, "x"},
	{ButtonY, "y"},
	{ButtonLB, "lb"},
	{ButtonRB, "rb"},
	{ButtonBack, "back"},
	{ButtonStart, "start"},
	{ButtonGuide, "guide"},
	{ButtonL3, "l3"},
	{ButtonR3, "r3"},
	{ButtonDPadUp, "dpad_up"},
	{ButtonDPadDown, "dpad_down"},
	{ButtonDPadLeft, "dpad_left"},
	{ButtonDPadRight, "dpad_right"},
}

// Has reports whether every bit of b is set.
func (m Buttons) Has(b Buttons) bool {
	return m&b == b && b != 0
}

func (m Buttons) String() string {
	var parts []string
	for _, bn := range buttonNames {
		if m&bn.b != 0 {
			parts = append(parts, bn.name)
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// RawState is one polled snapshot of the active controller. Stick axes are
// normalised to -1..1 with Y positive-up, triggers to 0..1.
type RawState struct {
	Buttons      Buttons `json:"buttons"`
	LeftX        float64 `json:"leftX"`
	LeftY        float64 `json:"leftY"`
	RightX       float64 `json:"rightX"`
	RightY       float64 `json:"rightY"`
	LeftTrigger  float64 `json:"leftTrigger"`
	RightTrigger float64 `json:"rightTrigger"`
}

// Pressed reports a false->true edge of b between prev and s.
func (s RawState) Pressed(prev RawState, b Buttons) bool {
	return s.Buttons.Has(b) && !prev.Buttons.Has(b)
}

// Released reports a true->false edge of b between prev and s.
func (s RawState) Released(prev RawState, b Buttons) bool {
	return !s.Buttons.Has(b) && prev.Buttons.Has(b)
}

// Vector is a 2D stick sample.
type Vector struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// LeftStick returns the left stick as a vector.
func (s RawState) LeftStick() Vector {
	return Vector{X: s.LeftX, Y: s.LeftY}
}

// Magnitude is the euclidean length of v.
func (v Vector) Magnitude() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y)
}

// Angle is the direction of v in degrees, normalised to [0,360).
func (v Vector) Angle() float64 {
	deg := math.Atan2(v.Y, v.X) * 180 / math.Pi
	if deg < 0 {
		deg += 360
	}
	return deg
}

const analogThreshold = 0.01

func floatEqual(a, b float64) bool {
	return math.Abs(a-b) < analogThreshold
}

// Changed reports whether old and new_ differ enough to be worth reporting:
// any button bit, or an analog value moving by at least analogThreshold.
func Changed(old, new_ RawState) bool {
	return old.Buttons != new_.Buttons ||
		!floatEqual(old.LeftX, new_.LeftX) ||
		!floatEqual(old.LeftY, new_.LeftY) ||
		!floatEqual(old.RightX, new_.RightX) ||
		!floatEqual(old.RightY, new_.RightY) ||
		!floatEqual(old.LeftTrigger, new_.LeftTrigger) ||
		!floatEqual(old.RightTrigger, new_.RightTrigger)
}
