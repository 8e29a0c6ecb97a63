// Package driver owns the tick goroutine: it pumps the device, applies
// queued dev-tool commands, runs the translation engine and publishes the
// resulting status.
package driver

import (
	"context"
	"log"
	"runtime"
	"time"

	"github.com/soar/padmapper/internal/gamepad"
	"github.com/soar/padmapper/internal/translate"
)

const defaultOpenRetry = 2 * time.Second

// Device is the controller backend. Every method is called from the
// driver's locked OS thread.
type Device interface {
	translate.DeviceSource
	Open() error
	Close()
	PumpEvents()
	SetDebug(on bool)
}

// Config is the live configuration the loop reads each tick.
type Config interface {
	Settings() translate.Settings
	TickRate() int
}

// CommandQueue is drained on the tick goroutine before each engine tick.
type CommandQueue interface {
	Drain(stick gamepad.Vector)
}

type Driver struct {
	dev     Device
	engine  *translate.Engine
	cfg     Config
	queue   CommandQueue
	publish func(translate.Status)
	opened  func()

	openRetry  time.Duration
	releaseReq chan struct{}
}

// Option configures a Driver.
type Option func(*Driver)

// WithCommands installs the dev-tool queue.
func WithCommands(q CommandQueue) Option {
	return func(d *Driver) { d.queue = q }
}

// WithPublisher installs fn to receive the engine status after every tick.
// fn runs on the tick goroutine and must not block.
func WithPublisher(fn func(translate.Status)) Option {
	return func(d *Driver) { d.publish = fn }
}

// WithOpened installs fn to run on the tick goroutine once the device is
// open.
func WithOpened(fn func()) Option {
	return func(d *Driver) { d.opened = fn }
}

// WithOpenRetry sets the delay between failed device opens.
func WithOpenRetry(delay time.Duration) Option {
	return func(d *Driver) { d.openRetry = delay }
}

func New(dev Device, engine *translate.Engine, cfg Config, opts ...Option) *Driver {
	d := &Driver{
		dev:        dev,
		engine:     engine,
		cfg:        cfg,
		openRetry:  defaultOpenRetry,
		releaseReq: make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// RequestReleaseAll asks the loop to release every held output on its next
// iteration. Safe from any goroutine.
func (d *Driver) RequestReleaseAll() {
	select {
	case d.releaseReq <- struct{}{}:
	default:
	}
}

// Run blocks until ctx is done. On the way out every held output is
// released exactly once before the device is closed.
func (d *Driver) Run(ctx context.Context) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if err := d.open(ctx); err != nil {
		return err
	}
	defer d.dev.Close()
	defer d.engine.ReleaseAll()
	if d.opened != nil {
		d.opened()
	}

	interval := tickInterval(d.cfg.TickRate())
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	log.Printf("Driver: ticking every %s", interval)

	for {
		select {
		case <-ctx.Done():
			log.Println("Driver: stopping, releasing all outputs")
			return nil

		case <-d.releaseReq:
			d.engine.ReleaseAll()

		case now := <-ticker.C:
			d.step(now)
			if next := tickInterval(d.cfg.TickRate()); next != interval {
				interval = next
				ticker.Reset(interval)
				log.Printf("Driver: tick interval changed to %s", interval)
			}
		}
	}
}

func (d *Driver) open(ctx context.Context) error {
	logged := false
	for {
		err := d.dev.Open()
		if err == nil {
			return nil
		}
		if !logged {
			log.Printf("Driver: %v (retrying every %s)", err, d.openRetry)
			logged = true
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(d.openRetry):
		}
	}
}

func (d *Driver) step(now time.Time) {
	d.dev.SetDebug(d.cfg.Settings().Debug)
	d.dev.PumpEvents()
	if d.queue != nil {
		d.queue.Drain(d.engine.LeftStick())
	}
	d.engine.Tick(now)
	if d.publish != nil {
		d.publish(d.engine.Status())
	}
}

func tickInterval(rate int) time.Duration {
	if rate <= 0 {
		rate = 60
	}
	return time.Second / time.Duration(rate)
}
