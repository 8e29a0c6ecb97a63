// Package sdlreader samples controllers through the SDL3 joystick API. It is
// the only package that links SDL3: purego loads the shared library when the
// package initialises, so a missing library aborts the process at startup.
package sdlreader

import (
	"fmt"
	"log"
	"sync"

	"github.com/jupiterrider/purego-sdl3/sdl"

	"github.com/soar/padmapper/internal/gamepad"
)

type joystickInfo struct {
	joystick *sdl.Joystick
	mapping  *gamepad.DeviceMapping
	name     string
	id       sdl.JoystickID
}

// Reader samples the first connected joystick through the SDL3 Joystick API.
//
// Open, PumpEvents, ReadState and Close must all be called from the same
// OS-locked goroutine. Info is safe from any goroutine.
type Reader struct {
	joysticks map[sdl.JoystickID]*joystickInfo
	activeID  sdl.JoystickID // the first connected joystick
	hasActive bool
	debug     bool
	info      gamepad.Info
	mu        sync.RWMutex
}

func NewReader() *Reader {
	return &Reader{
		joysticks: make(map[sdl.JoystickID]*joystickInfo),
	}
}

// SetDebug enables logging of raw SDL joystick events.
func (r *Reader) SetDebug(on bool) {
	r.debug = on
}

// Open initializes the SDL joystick subsystem and opens every controller
// that is already plugged in.
func (r *Reader) Open() error {
	if !sdl.Init(sdl.InitJoystick) {
		return fmt.Errorf("sdlreader: SDL init: %s", sdl.GetError())
	}
	log.Println("Gamepad: SDL3 joystick subsystem initialized")

	for _, id := range sdl.GetJoysticks() {
		r.openJoystick(id)
	}
	if !r.hasActive {
		log.Println("Gamepad: no controller connected, waiting for connection...")
	}
	return nil
}

// Close closes all opened joysticks and shuts SDL down.
func (r *Reader) Close() {
	for id, info := range r.joysticks {
		sdl.CloseJoystick(info.joystick)
		delete(r.joysticks, id)
	}
	r.hasActive = false
	r.setInfo(gamepad.Info{})
	sdl.Quit()
}

// Info returns the name and mapping of the active controller.
func (r *Reader) Info() gamepad.Info {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.info
}

func (r *Reader) setInfo(info gamepad.Info) {
	r.mu.Lock()
	r.info = info
	r.mu.Unlock()
}

// PumpEvents drains pending SDL events, tracking hot-plug.
func (r *Reader) PumpEvents() {
	var event sdl.Event
	for sdl.PollEvent(&event) {
		switch event.Type() {
		case sdl.EventJoystickAdded:
			r.openJoystick(event.JDevice().Which)

		case sdl.EventJoystickRemoved:
			r.removeJoystick(event.JDevice().Which)

		case sdl.EventJoystickButtonDown:
			if r.debug {
				be := event.JButton()
				log.Printf("[DEBUG] Button DOWN: index=%d joystick=%d", be.Button, be.Which)
			}

		case sdl.EventJoystickButtonUp:
			if r.debug {
				be := event.JButton()
				log.Printf("[DEBUG] Button UP:   index=%d joystick=%d", be.Button, be.Which)
			}

		case sdl.EventJoystickHatMotion:
			if r.debug {
				he := event.JHat()
				log.Printf("[DEBUG] Hat: index=%d value=0x%02X joystick=%d", he.Hat, he.Value, he.Which)
			}
		}
	}
}

// IsConnected reports whether an active controller is open and attached.
func (r *Reader) IsConnected() bool {
	if !r.hasActive {
		return false
	}
	info, exists := r.joysticks[r.activeID]
	return exists && sdl.JoystickConnected(info.joystick)
}

// ReadState samples the active controller.
func (r *Reader) ReadState() (gamepad.RawState, error) {
	if !r.hasActive {
		return gamepad.RawState{}, gamepad.ErrNotConnected
	}
	info, exists := r.joysticks[r.activeID]
	if !exists || !sdl.JoystickConnected(info.joystick) {
		return gamepad.RawState{}, gamepad.ErrNotConnected
	}

	js := info.joystick
	mapping := info.mapping
	var state gamepad.RawState

	for _, am := range mapping.Axes {
		am.Apply(&state, sdl.GetJoystickAxis(js, am.Index))
	}

	numButtons := sdl.GetNumJoystickButtons(js)
	for _, bm := range mapping.Buttons {
		if bm.Index >= numButtons {
			continue
		}
		if sdl.GetJoystickButton(js, bm.Index) {
			state.Buttons |= bm.Target
		}
	}

	if mapping.HasHat && sdl.GetNumJoystickHats(js) > 0 {
		state.Buttons |= gamepad.HatButtons(sdl.GetJoystickHat(js, 0))
	}

	return state, nil
}

func (r *Reader) openJoystick(instanceID sdl.JoystickID) {
	if _, exists := r.joysticks[instanceID]; exists {
		return
	}

	js := sdl.OpenJoystick(instanceID)
	if js == nil {
		log.Printf("Gamepad: failed to open joystick %d: %s", instanceID, sdl.GetError())
		return
	}

	jsID := sdl.GetJoystickID(js)
	vendorID := sdl.GetJoystickVendor(js)
	productID := sdl.GetJoystickProduct(js)
	name := sdl.GetJoystickName(js)
	mapping := gamepad.GetMapping(vendorID, productID)

	r.joysticks[jsID] = &joystickInfo{
		joystick: js,
		mapping:  mapping,
		name:     name,
		id:       jsID,
	}

	log.Printf("Gamepad: joystick attached: %s (VID=%04X PID=%04X) mapping=%s axes=%d buttons=%d hats=%d",
		name, vendorID, productID, mapping.Name,
		sdl.GetNumJoystickAxes(js), sdl.GetNumJoystickButtons(js), sdl.GetNumJoystickHats(js))

	if !r.hasActive {
		r.activate(jsID)
	}
}

func (r *Reader) activate(id sdl.JoystickID) {
	info := r.joysticks[id]
	r.activeID = id
	r.hasActive = true
	r.setInfo(gamepad.Info{Name: info.name, ControllerType: info.mapping.Name})
	log.Printf("Gamepad: active controller set: %s (ID=%d)", info.name, id)
}

func (r *Reader) removeJoystick(instanceID sdl.JoystickID) {
	info, exists := r.joysticks[instanceID]
	if !exists {
		return
	}

	log.Printf("Gamepad: joystick detached: %s", info.name)
	sdl.CloseJoystick(info.joystick)
	delete(r.joysticks, instanceID)

	if !r.hasActive || r.activeID != instanceID {
		return
	}
	r.hasActive = false
	r.setInfo(gamepad.Info{})

	// Promote the next available joystick
	for id, js := range r.joysticks {
		if sdl.JoystickConnected(js.joystick) {
			r.activate(id)
			return
		}
	}
}
