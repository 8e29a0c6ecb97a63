package hub

import (
	"time"

	"github.com/soar/padmapper/internal/gamepad"
	"github.com/soar/padmapper/internal/output"
	"github.com/soar/padmapper/internal/translate"
)

// Snapshot is everything the monitor page shows.
type Snapshot struct {
	Controller gamepad.Info       `json:"controller"`
	Status     translate.Status   `json:"status"`
	Settings   translate.Settings `json:"settings"`
	DevMode    bool               `json:"devMode"`
}

// Delta carries only the parts of a Snapshot that changed.
type Delta struct {
	Controller *gamepad.Info            `json:"controller,omitempty"`
	Connected  *bool                    `json:"connected,omitempty"`
	Modifiers  *translate.ModifierModes `json:"modifiers,omitempty"`
	WASD       *translate.Directions    `json:"wasd,omitempty"`
	Mouse      *translate.MouseButtons  `json:"mouse,omitempty"`
	Raw        *gamepad.RawState        `json:"raw,omitempty"`
	Settings   *translate.Settings      `json:"settings,omitempty"`
	DevMode    *bool                    `json:"devMode,omitempty"`
}

// IsEmpty reports whether nothing changed.
func (d *Delta) IsEmpty() bool {
	return *d == Delta{}
}

// ComputeDelta compares two snapshots. Raw stick jitter below the gamepad
// analog threshold is not reported.
func ComputeDelta(old, cur Snapshot) *Delta {
	d := &Delta{}
	if old.Controller != cur.Controller {
		d.Controller = &cur.Controller
	}
	if old.Status.Connected != cur.Status.Connected {
		d.Connected = &cur.Status.Connected
	}
	if old.Status.Modifiers != cur.Status.Modifiers {
		d.Modifiers = &cur.Status.Modifiers
	}
	if old.Status.WASD != cur.Status.WASD {
		d.WASD = &cur.Status.WASD
	}
	if old.Status.Mouse != cur.Status.Mouse {
		d.Mouse = &cur.Status.Mouse
	}
	if gamepad.Changed(old.Status.Raw, cur.Status.Raw) {
		d.Raw = &cur.Status.Raw
	}
	if old.Settings != cur.Settings {
		d.Settings = &cur.Settings
	}
	if old.DevMode != cur.DevMode {
		d.DevMode = &cur.DevMode
	}
	return d
}

// Message types sent to clients.
const (
	TypeFull  = "full"
	TypeDelta = "delta"
	TypeEvent = "event"
	TypeAck   = "ack"
	TypeError = "error"
)

// WSMessage is a server-to-client message.
type WSMessage struct {
	Type      string        `json:"type"`
	Seq       int64         `json:"seq"`
	Timestamp int64         `json:"timestamp"` // Unix milliseconds
	Data      *Snapshot     `json:"data,omitempty"`
	Changes   *Delta        `json:"changes,omitempty"`
	Event     *output.Event `json:"event,omitempty"`
	Request   string        `json:"request,omitempty"`
	Error     string        `json:"error,omitempty"`
}

func NewFullMessage(seq int64, s *Snapshot) *WSMessage {
	return &WSMessage{Type: TypeFull, Seq: seq, Timestamp: time.Now().UnixMilli(), Data: s}
}

func NewDeltaMessage(seq int64, d *Delta) *WSMessage {
	return &WSMessage{Type: TypeDelta, Seq: seq, Timestamp: time.Now().UnixMilli(), Changes: d}
}

// NewEventMessage wraps one emitted output transition.
func NewEventMessage(seq int64, e output.Event) *WSMessage {
	return &WSMessage{Type: TypeEvent, Seq: seq, Timestamp: time.Now().UnixMilli(), Event: &e}
}

// NewReplyMessage answers a client request; a nil err is an ack.
func NewReplyMessage(request string, err error) *WSMessage {
	msg := &WSMessage{Type: TypeAck, Timestamp: time.Now().UnixMilli(), Request: request}
	if err != nil {
		msg.Type = TypeError
		msg.Error = err.Error()
	}
	return msg
}

// Client request types.
const (
	RequestDev        = "dev"
	RequestReleaseAll = "release_all"
)

// ClientMessage is a client-to-server request.
type ClientMessage struct {
	Type    string `json:"type"`
	Command string `json:"command,omitempty"`
}
