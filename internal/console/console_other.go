//go:build !windows

// Package console decides whether the process should keep a console window
// and installs a Ctrl+C handler. Outside Windows both are no-ops.
package console

// Attach always reports true: the process keeps its terminal.
func Attach() bool {
	return true
}

// HandleInterrupt is a no-op; os/signal covers interrupts here.
func HandleInterrupt(fn func()) func() {
	return func() {}
}
