//go:build !windows

package output

import (
	"log"
	"sync"
)

// Injector is a stub for platforms without an injection backend. It warns
// once and discards everything.
type Injector struct {
	once sync.Once
}

// NewInjector returns the platform injector.
func NewInjector() *Injector {
	return &Injector{}
}

func (i *Injector) warn() {
	i.once.Do(func() {
		log.Println("Output: input injection not supported on this platform, events are discarded")
	})
}

func (i *Injector) EmitKey(key Key, pressed bool)           { i.warn() }
func (i *Injector) EmitMouseButton(side Side, pressed bool) { i.warn() }
func (i *Injector) EmitMouseMove(dx, dy int)                { i.warn() }
func (i *Injector) EmitScroll(ticks int)                    { i.warn() }
