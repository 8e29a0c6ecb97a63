package output

import "log"

// Recorder is a Sink that keeps every event in order.
type Recorder struct {
	Events []Event
}

func (r *Recorder) EmitKey(key Key, pressed bool) {
	r.Events = append(r.Events, keyEvent(key, pressed))
}

func (r *Recorder) EmitMouseButton(side Side, pressed bool) {
	r.Events = append(r.Events, mouseButtonEvent(side, pressed))
}

func (r *Recorder) EmitMouseMove(dx, dy int) {
	r.Events = append(r.Events, Event{Kind: KindMouseMove, DX: dx, DY: dy})
}

func (r *Recorder) EmitScroll(ticks int) {
	r.Events = append(r.Events, Event{Kind: KindScroll, Ticks: ticks})
}

// Reset drops all recorded events.
func (r *Recorder) Reset() {
	r.Events = nil
}

// Tee forwards every call to each sink in order.
type Tee []Sink

func (t Tee) EmitKey(key Key, pressed bool) {
	for _, s := range t {
		s.EmitKey(key, pressed)
	}
}

func (t Tee) EmitMouseButton(side Side, pressed bool) {
	for _, s := range t {
		s.EmitMouseButton(side, pressed)
	}
}

func (t Tee) EmitMouseMove(dx, dy int) {
	for _, s := range t {
		s.EmitMouseMove(dx, dy)
	}
}

func (t Tee) EmitScroll(ticks int) {
	for _, s := range t {
		s.EmitScroll(ticks)
	}
}

// Feed publishes discrete events (keys, buttons, scroll) on a channel for
// observers. Mouse moves are too frequent to be useful and are skipped.
// Sends never block; events are dropped when the channel is full.
type Feed struct {
	ch chan Event
}

func NewFeed(size int) *Feed {
	return &Feed{ch: make(chan Event, size)}
}

// Events returns the channel events are published on.
func (f *Feed) Events() <-chan Event {
	return f.ch
}

func (f *Feed) publish(e Event) {
	select {
	case f.ch <- e:
	default:
	}
}

func (f *Feed) EmitKey(key Key, pressed bool) {
	f.publish(keyEvent(key, pressed))
}

func (f *Feed) EmitMouseButton(side Side, pressed bool) {
	f.publish(mouseButtonEvent(side, pressed))
}

func (f *Feed) EmitMouseMove(dx, dy int) {}

func (f *Feed) EmitScroll(ticks int) {
	f.publish(Event{Kind: KindScroll, Ticks: ticks})
}

// Logger wraps a Sink and logs every discrete transition when Enabled
// returns true.
type Logger struct {
	Sink    Sink
	Enabled func() bool
}

func (l Logger) on() bool {
	return l.Enabled != nil && l.Enabled()
}

func (l Logger) EmitKey(key Key, pressed bool) {
	if l.on() {
		log.Printf("[DEBUG] Key %s %s", key, pressWord(pressed))
	}
	l.Sink.EmitKey(key, pressed)
}

func (l Logger) EmitMouseButton(side Side, pressed bool) {
	if l.on() {
		log.Printf("[DEBUG] Mouse %s %s", side, pressWord(pressed))
	}
	l.Sink.EmitMouseButton(side, pressed)
}

func (l Logger) EmitMouseMove(dx, dy int) {
	if l.on() {
		log.Printf("[DEBUG] Mouse move: %d, %d", dx, dy)
	}
	l.Sink.EmitMouseMove(dx, dy)
}

func (l Logger) EmitScroll(ticks int) {
	if l.on() {
		log.Printf("[DEBUG] Scroll: %d", ticks)
	}
	l.Sink.EmitScroll(ticks)
}
