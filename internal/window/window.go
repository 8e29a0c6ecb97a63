// Package window brings the target application to the foreground before a
// synthesized click, so the click is delivered to it.
package window

import (
	"errors"
	"time"
)

// ErrWindowNotFound is returned when no top-level window has the target title.
var ErrWindowNotFound = errors.New("window: target window not found")

// Activator focuses the window whose title is Title. An empty title makes
// activation a no-op.
type Activator struct {
	Title string
	// Wait is how long to pause after a focus change so the window is
	// ready before the click arrives.
	Wait time.Duration
}

func NewActivator(title string, wait time.Duration) *Activator {
	return &Activator{Title: title, Wait: wait}
}

// ActivateTargetWindow focuses the target window. The boolean reports
// whether the foreground window changed.
func (a *Activator) ActivateTargetWindow() (bool, error) {
	if a.Title == "" {
		return false, nil
	}
	changed, err := activate(a.Title)
	if err != nil || !changed {
		return changed, err
	}
	if a.Wait > 0 {
		time.Sleep(a.Wait)
	}
	return true, nil
}
