// Package monitor is a terminal client for a running instance's websocket
// stream.
package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/lxzan/gws"

	"github.com/soar/padmapper/internal/hub"
	"github.com/soar/padmapper/internal/translate"
)

const normalClosure = 1000

// Watch connects to url and prints status changes and output events to out
// until ctx is done or the server closes the stream.
func Watch(ctx context.Context, url string, out io.Writer) error {
	p := &printer{out: out, closed: make(chan error, 1)}
	conn, _, err := gws.NewClient(p, &gws.ClientOption{Addr: url})
	if err != nil {
		return fmt.Errorf("monitor: connect %s: %w", url, err)
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.WriteClose(normalClosure, nil)
		case <-done:
		}
	}()
	conn.ReadLoop()

	err = <-p.closed
	if ctx.Err() != nil {
		return nil
	}
	var ce *gws.CloseError
	if errors.As(err, &ce) && ce.Code == normalClosure {
		return nil
	}
	return err
}

type printer struct {
	gws.BuiltinEventHandler

	mu     sync.Mutex
	out    io.Writer
	snap   hub.Snapshot
	line   string
	closed chan error
}

func (p *printer) OnClose(socket *gws.Conn, err error) {
	p.closed <- err
}

func (p *printer) OnMessage(socket *gws.Conn, message *gws.Message) {
	defer message.Close()

	var msg hub.WSMessage
	if err := json.Unmarshal(message.Bytes(), &msg); err != nil {
		fmt.Fprintf(p.out, "bad message: %v\n", err)
		return
	}
	p.handle(msg)
}

func (p *printer) handle(msg hub.WSMessage) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch msg.Type {
	case hub.TypeFull:
		if msg.Data != nil {
			p.snap = *msg.Data
		}
	case hub.TypeDelta:
		if msg.Changes != nil {
			applyDelta(&p.snap, msg.Changes)
		}
	case hub.TypeEvent:
		if msg.Event != nil {
			fmt.Fprintf(p.out, "event  %s\n", msg.Event)
		}
		return
	case hub.TypeError:
		fmt.Fprintf(p.out, "error  %s: %s\n", msg.Request, msg.Error)
		return
	default:
		return
	}

	if line := statusLine(p.snap); line != p.line {
		p.line = line
		fmt.Fprintf(p.out, "status %s\n", line)
	}
}

func applyDelta(s *hub.Snapshot, d *hub.Delta) {
	if d.Controller != nil {
		s.Controller = *d.Controller
	}
	if d.Connected != nil {
		s.Status.Connected = *d.Connected
	}
	if d.Modifiers != nil {
		s.Status.Modifiers = *d.Modifiers
	}
	if d.WASD != nil {
		s.Status.WASD = *d.WASD
	}
	if d.Mouse != nil {
		s.Status.Mouse = *d.Mouse
	}
	if d.Raw != nil {
		s.Status.Raw = *d.Raw
	}
	if d.Settings != nil {
		s.Settings = *d.Settings
	}
	if d.DevMode != nil {
		s.DevMode = *d.DevMode
	}
}

// statusLine renders the parts of s a user cares about; raw stick values
// are left out so the line only changes on real transitions.
func statusLine(s hub.Snapshot) string {
	if !s.Status.Connected {
		return "disconnected"
	}
	var b strings.Builder
	name := s.Controller.Name
	if name == "" {
		name = "controller"
	}
	fmt.Fprintf(&b, "%s ctrl=%s shift=%s tab=%s wasd=%s mouse=%s",
		name,
		s.Status.Modifiers.Ctrl, s.Status.Modifiers.Shift, s.Status.Modifiers.Tab,
		s.Status.WASD, mouseString(s.Status.Mouse))
	if s.DevMode {
		fmt.Fprintf(&b, " dev scroll=%.4f dz=%.3f", s.Settings.ScrollSpeed, s.Settings.Zone.DeadZoneRadius)
	}
	return b.String()
}

func mouseString(m translate.MouseButtons) string {
	switch {
	case m.Left && m.Right:
		return "LR"
	case m.Left:
		return "L"
	case m.Right:
		return "R"
	}
	return "-"
}
