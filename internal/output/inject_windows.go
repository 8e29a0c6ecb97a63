//go:build windows

package output

import (
	"golang.org/x/sys/windows"
)

var (
	user32         = windows.NewLazySystemDLL("user32.dll")
	procKeybdEvent = user32.NewProc("keybd_event")
	procMouseEvent = user32.NewProc("mouse_event")
)

const (
	keyeventfKeyUp = 0x0002

	mouseeventfMove      = 0x0001
	mouseeventfLeftDown  = 0x0002
	mouseeventfLeftUp    = 0x0004
	mouseeventfRightDown = 0x0008
	mouseeventfRightUp   = 0x0010
	mouseeventfWheel     = 0x0800
)

// Windows virtual-key codes.
var virtualKeys = map[Key]uintptr{
	KeyW:         0x57,
	KeyA:         0x41,
	KeyS:         0x53,
	KeyD:         0x44,
	KeySpace:     0x20,
	KeyE:         0x45,
	KeyQ:         0x51,
	KeyDigit1:    0x31,
	KeyDigit2:    0x32,
	KeyDigit3:    0x33,
	KeyEscape:    0x1B,
	KeyLeftCtrl:  0xA2,
	KeyLeftShift: 0xA0,
	KeyTab:       0x09,
}

// Injector synthesizes input with the user32 keybd_event/mouse_event calls.
type Injector struct{}

// NewInjector returns the platform injector.
func NewInjector() *Injector {
	return &Injector{}
}

func (i *Injector) EmitKey(key Key, pressed bool) {
	vk, ok := virtualKeys[key]
	if !ok {
		return
	}
	var flags uintptr
	if !pressed {
		flags = keyeventfKeyUp
	}
	procKeybdEvent.Call(vk, 0, flags, 0)
}

func (i *Injector) EmitMouseButton(side Side, pressed bool) {
	var flags uintptr
	switch {
	case side == MouseLeft && pressed:
		flags = mouseeventfLeftDown
	case side == MouseLeft:
		flags = mouseeventfLeftUp
	case side == MouseRight && pressed:
		flags = mouseeventfRightDown
	case side == MouseRight:
		flags = mouseeventfRightUp
	default:
		return
	}
	procMouseEvent.Call(flags, 0, 0, 0, 0)
}

func (i *Injector) EmitMouseMove(dx, dy int) {
	procMouseEvent.Call(mouseeventfMove, uintptr(int32(dx)), uintptr(int32(dy)), 0, 0)
}

func (i *Injector) EmitScroll(ticks int) {
	procMouseEvent.Call(mouseeventfWheel, 0, 0, uintptr(uint32(int32(ticks))), 0)
}
