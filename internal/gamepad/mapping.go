package gamepad

import "math"

// triggerDeadzone removes resting noise from analog triggers.
const triggerDeadzone = 0.05

// AxisMapping defines how a raw axis index maps to a RawState field.
type AxisMapping struct {
	Index     int32
	Target    string // "left_x", "left_y", "right_x", "right_y", "lt", "rt"
	IsTrigger bool
	Invert    bool
	// For triggers: raw range. Some devices use -32768..32767, others 0..32767.
	RawMin int16
	RawMax int16
}

// ButtonMapping defines how a raw button index maps to a Buttons bit.
type ButtonMapping struct {
	Index  int32
	Target Buttons
}

// DeviceMapping holds the complete mapping for a specific device type.
type DeviceMapping struct {
	Name    string
	Axes    []AxisMapping
	Buttons []ButtonMapping
	HasHat  bool
}

// NormalizeAxis converts a raw axis value (-32768..32767) to -1.0..1.0.
func NormalizeAxis(raw int16) float64 {
	v := float64(raw) / math.MaxInt16
	if v < -1.0 {
		v = -1.0
	}
	return v
}

// NormalizeTrigger converts a raw trigger value to 0.0..1.0.
func NormalizeTrigger(raw int16, rawMin, rawMax int16) float64 {
	if rawMax == rawMin {
		return 0
	}
	v := (float64(raw) - float64(rawMin)) / (float64(rawMax) - float64(rawMin))
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	return v
}

// ApplyDeadzone returns 0 if the value is within the deadzone threshold.
func ApplyDeadzone(v float64, threshold float64) float64 {
	if math.Abs(v) < threshold {
		return 0
	}
	return v
}

var standardAxes = []AxisMapping{
	{Index: 0, Target: "left_x"},
	{Index: 1, Target: "left_y", Invert: true},
	{Index: 2, Target: "right_x"},
	{Index: 3, Target: "right_y", Invert: true},
	{Index: 4, Target: "lt", IsTrigger: true, RawMin: -32768, RawMax: 32767},
	{Index: 5, Target: "rt", IsTrigger: true, RawMin: -32768, RawMax: 32767},
}

var xboxMapping = &DeviceMapping{
	Name: "xbox",
	Axes: standardAxes,
	Buttons: []ButtonMapping{
		{Index: 0, Target: ButtonA},
		{Index: 1, Target: ButtonB},
		{Index: 2, Target: ButtonX},
		{Index: 3, Target: ButtonY},
		{Index: 4, Target: ButtonLB},
		{Index: 5, Target: ButtonRB},
		{Index: 6, Target: ButtonBack},
		{Index: 7, Target: ButtonStart},
		{Index: 8, Target: ButtonL3},
		{Index: 9, Target: ButtonR3},
		{Index: 10, Target: ButtonGuide},
	},
	HasHat: true,
}

var playstationMapping = &DeviceMapping{
	Name: "playstation",
	Axes: standardAxes,
	Buttons: []ButtonMapping{
		{Index: 0, Target: ButtonA},     // Cross
		{Index: 1, Target: ButtonB},     // Circle
		{Index: 2, Target: ButtonX},     // Square
		{Index: 3, Target: ButtonY},     // Triangle
		{Index: 4, Target: ButtonBack},  // Share / Create
		{Index: 5, Target: ButtonGuide}, // PS button
		{Index: 6, Target: ButtonStart}, // Options
		{Index: 7, Target: ButtonL3},
		{Index: 8, Target: ButtonR3},
		{Index: 9, Target: ButtonLB},  // L1
		{Index: 10, Target: ButtonRB}, // R1
	},
	HasHat: true,
}

// The Pro Controller reports ZL/ZR as buttons, so it has no trigger axes.
var switchProMapping = &DeviceMapping{
	Name: "switch_pro",
	Axes: standardAxes[:4],
	Buttons: []ButtonMapping{
		{Index: 0, Target: ButtonA},
		{Index: 1, Target: ButtonB},
		{Index: 2, Target: ButtonX},
		{Index: 3, Target: ButtonY},
		{Index: 4, Target: ButtonLB},
		{Index: 5, Target: ButtonRB},
		{Index: 6, Target: ButtonBack},
		{Index: 7, Target: ButtonStart},
		{Index: 8, Target: ButtonL3},
		{Index: 9, Target: ButtonR3},
		{Index: 10, Target: ButtonGuide},
	},
	HasHat: true,
}

var genericMapping = &DeviceMapping{
	Name:    "generic",
	Axes:    standardAxes,
	Buttons: xboxMapping.Buttons,
	HasHat:  true,
}

// Known vendor/product IDs.
type deviceKey struct {
	VendorID  uint16
	ProductID uint16
}

var knownDevices = map[deviceKey]*DeviceMapping{
	// Microsoft Xbox controllers
	{0x045E, 0x028E}: xboxMapping, // Xbox 360
	{0x045E, 0x02FF}: xboxMapping, // Xbox One
	{0x045E, 0x0B12}: xboxMapping, // Xbox Series X|S
	{0x045E, 0x0B13}: xboxMapping, // Xbox Series X|S (wireless)
	// Sony PlayStation controllers
	{0x054C, 0x0CE6}: playstationMapping, // DualSense
	{0x054C, 0x09CC}: playstationMapping, // DualShock 4 v2
	{0x054C, 0x05C4}: playstationMapping, // DualShock 4 v1
	// Nintendo Switch Pro Controller
	{0x057E, 0x2009}: switchProMapping,
}

// GetMapping returns the appropriate mapping for a device identified by vendor/product ID.
// Falls back to generic mapping if no specific mapping is found.
func GetMapping(vendorID, productID uint16) *DeviceMapping {
	key := deviceKey{VendorID: vendorID, ProductID: productID}
	if m, ok := knownDevices[key]; ok {
		return m
	}
	return genericMapping
}

const (
	hatUp    uint8 = 0x01
	hatRight uint8 = 0x02
	hatDown  uint8 = 0x04
	hatLeft  uint8 = 0x08
)

// HatButtons converts an SDL hat bitfield to D-pad bits.
func HatButtons(hat uint8) Buttons {
	var b Buttons
	if hat&hatUp != 0 {
		b |= ButtonDPadUp
	}
	if hat&hatRight != 0 {
		b |= ButtonDPadRight
	}
	if hat&hatDown != 0 {
		b |= ButtonDPadDown
	}
	if hat&hatLeft != 0 {
		b |= ButtonDPadLeft
	}
	return b
}

// Apply feeds one raw axis value into s according to am. Triggers get the
// small noise floor; sticks are left raw for the translation dead zone.
func (am AxisMapping) Apply(s *RawState, raw int16) {
	if am.IsTrigger {
		v := ApplyDeadzone(NormalizeTrigger(raw, am.RawMin, am.RawMax), triggerDeadzone)
		switch am.Target {
		case "lt":
			s.LeftTrigger = v
		case "rt":
			s.RightTrigger = v
		}
		return
	}
	v := NormalizeAxis(raw)
	if am.Invert {
		v = -v
	}
	switch am.Target {
	case "left_x":
		s.LeftX = v
	case "left_y":
		s.LeftY = v
	case "right_x":
		s.RightX = v
	case "right_y":
		s.RightY = v
	}
}
