package hub

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/soar/padmapper/internal/output"
)

const (
	fullSyncInterval = 5 * time.Second
	deltaCountSync   = 100
	snapshotBuffer   = 8
)

// Broadcaster turns published snapshots into full/delta messages and
// forwards output events, all in sequence order.
type Broadcaster struct {
	hub       *Hub
	snapshots chan Snapshot
	events    <-chan output.Event

	mu   sync.Mutex
	last Snapshot
	seq  int64
}

// NewBroadcaster creates a broadcaster. events may be nil.
func NewBroadcaster(h *Hub, events <-chan output.Event) *Broadcaster {
	return &Broadcaster{
		hub:       h,
		snapshots: make(chan Snapshot, snapshotBuffer),
		events:    events,
	}
}

// Publish offers a snapshot without blocking; it is dropped when the
// broadcaster is behind, since a newer one follows on the next tick.
func (b *Broadcaster) Publish(s Snapshot) {
	select {
	case b.snapshots <- s:
	default:
	}
}

// Run is the broadcaster loop.
func (b *Broadcaster) Run(ctx context.Context) {
	ticker := time.NewTicker(fullSyncInterval)
	defer ticker.Stop()

	var deltaCount int
	for {
		select {
		case <-ctx.Done():
			return

		case s := <-b.snapshots:
			b.mu.Lock()
			delta := ComputeDelta(b.last, s)
			b.last = s
			if delta.IsEmpty() {
				b.mu.Unlock()
				continue
			}
			b.seq++
			deltaCount++
			var msg *WSMessage
			if deltaCount >= deltaCountSync {
				msg = NewFullMessage(b.seq, &s)
				deltaCount = 0
			} else {
				msg = NewDeltaMessage(b.seq, delta)
			}
			b.mu.Unlock()
			b.send(msg)

		case e, ok := <-b.events:
			if !ok {
				b.events = nil
				continue
			}
			b.mu.Lock()
			b.seq++
			msg := NewEventMessage(b.seq, e)
			b.mu.Unlock()
			b.send(msg)

		case <-ticker.C:
			b.mu.Lock()
			b.seq++
			last := b.last
			msg := NewFullMessage(b.seq, &last)
			b.mu.Unlock()
			b.send(msg)
		}
	}
}

// SendInitialState sends the latest snapshot to a newly connected client.
func (b *Broadcaster) SendInitialState(c *Client) {
	b.mu.Lock()
	b.seq++
	last := b.last
	msg := NewFullMessage(b.seq, &last)
	b.mu.Unlock()

	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("Hub: marshal initial state: %v", err)
		return
	}
	c.trySend(data)
}

func (b *Broadcaster) send(msg *WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("Hub: marshal %s message: %v", msg.Type, err)
		return
	}
	b.hub.Broadcast(data)
}
