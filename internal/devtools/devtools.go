// Package devtools implements the dev-mode commands that tune settings at
// runtime and persist them to the config file.
package devtools

import (
	"errors"
	"fmt"
	"log"
	"math"

	"github.com/soar/padmapper/internal/config"
	"github.com/soar/padmapper/internal/gamepad"
	"github.com/soar/padmapper/internal/translate"
)

// Command names a dev-mode adjustment.
type Command string

const (
	ScrollUp          Command = "scroll_up"
	ScrollDown        Command = "scroll_down"
	CalibrateDeadZone Command = "calibrate_dead_zone"
	CalibrateDiagonal Command = "calibrate_diagonal"
)

const (
	ScrollStep     = 0.0001
	MinScrollSpeed = 0.0001

	queueSize = 16
)

var (
	ErrUnknownCommand = errors.New("devtools: unknown command")
	ErrDisabled       = errors.New("devtools: dev mode is off")
	ErrBusy           = errors.New("devtools: command queue full")
)

// ParseCommand validates a command name.
func ParseCommand(name string) (Command, error) {
	switch c := Command(name); c {
	case ScrollUp, ScrollDown, CalibrateDeadZone, CalibrateDiagonal:
		return c, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCommand, name)
}

// Store is the settings surface the tools read and write.
type Store interface {
	DevMode() bool
	Settings() translate.Settings
	Save(key string, value any) error
}

// Tools queues commands submitted from any goroutine and applies them on
// the goroutine that calls Drain.
type Tools struct {
	store Store
	queue chan Command
}

func New(store Store) *Tools {
	return &Tools{
		store: store,
		queue: make(chan Command, queueSize),
	}
}

// Submit enqueues the named command. It never blocks.
func (t *Tools) Submit(name string) error {
	cmd, err := ParseCommand(name)
	if err != nil {
		return err
	}
	if !t.store.DevMode() {
		return ErrDisabled
	}
	select {
	case t.queue <- cmd:
		return nil
	default:
		return ErrBusy
	}
}

// Drain applies every queued command against the given left-stick sample.
func (t *Tools) Drain(stick gamepad.Vector) {
	for {
		select {
		case cmd := <-t.queue:
			if err := t.Apply(cmd, stick); err != nil {
				log.Printf("Devtools: %s failed: %v", cmd, err)
			}
		default:
			return
		}
	}
}

// Apply runs cmd immediately. Commands are ignored while dev mode is off.
func (t *Tools) Apply(cmd Command, stick gamepad.Vector) error {
	if !t.store.DevMode() {
		return ErrDisabled
	}
	s := t.store.Settings()

	switch cmd {
	case ScrollUp:
		v := round6(s.ScrollSpeed + ScrollStep)
		log.Printf("Devtools: increased scroll speed to %.6f", v)
		return t.store.Save(config.KeyScrollSpeed, v)

	case ScrollDown:
		v := math.Max(MinScrollSpeed, round6(s.ScrollSpeed-ScrollStep))
		log.Printf("Devtools: decreased scroll speed to %.6f", v)
		return t.store.Save(config.KeyScrollSpeed, v)

	case CalibrateDeadZone:
		v := stick.Magnitude()
		log.Printf("Devtools: dead zone radius set to %.4f from stick position", v)
		return t.store.Save(config.KeyDeadZoneRadius, v)

	case CalibrateDiagonal:
		v := stick.Angle()
		log.Printf("Devtools: diagonal zone size set to %.4f from stick angle", v)
		return t.store.Save(config.KeyDiagonalZoneSize, v)
	}
	return fmt.Errorf("%w: %q", ErrUnknownCommand, cmd)
}

// round6 drops float noise from repeated fixed-size steps.
func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
