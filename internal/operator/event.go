package operator

import (
	"sync"
	"time"
)

// Kind identifies what an Event reports.
type Kind string

const (
	KindLinkConnecting  Kind = "link.connecting"
	KindLinkProgress    Kind = "link.progress"
	KindLinkConnected   Kind = "link.connected"
	KindLinkTimeout     Kind = "link.timeout"
	KindLinkBeginFailed Kind = "link.begin_failed"
	KindCycle           Kind = "agent.cycle"
	KindAlert           Kind = "agent.alert"
	KindArmMoved        Kind = "arm.moved"
	KindSensorCommand   Kind = "agent.sensor_command"
)

// Event is one human-facing message on the operator channel.
type Event struct {
	Kind    Kind           `json:"kind"`
	Time    time.Time      `json:"time"`
	Message string         `json:"message"`
	Fields  map[string]any `json:"fields,omitempty"`
}

// NewEvent builds an Event stamped with the current time.
func NewEvent(kind Kind, message string, fields map[string]any) Event {
	return Event{
		Kind:    kind,
		Time:    time.Now().UTC(),
		Message: message,
		Fields:  fields,
	}
}

// Notifier receives operator events. Implementations must not block for long:
// the link connect loop calls Notify once per poll.
type Notifier interface {
	Notify(Event)
}

// NotifierFunc adapts a plain function to the Notifier interface.
type NotifierFunc func(Event)

// Notify calls f(ev).
func (f NotifierFunc) Notify(ev Event) { f(ev) }

// Nop discards every event.
type Nop struct{}

// Notify does nothing.
func (Nop) Notify(Event) {}

type multi []Notifier

func (m multi) Notify(ev Event) {
	for _, n := range m {
		n.Notify(ev)
	}
}

// Multi fans one event out to every non-nil notifier, in order.
func Multi(notifiers ...Notifier) Notifier {
	var m multi
	for _, n := range notifiers {
		if n != nil {
			m = append(m, n)
		}
	}
	if len(m) == 0 {
		return Nop{}
	}
	if len(m) == 1 {
		return m[0]
	}
	return m
}

// Recorder keeps every event it receives. Tests and the health endpoint use it.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Notify appends ev.
func (r *Recorder) Notify(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Kinds returns the kinds of the recorded events in order.
func (r *Recorder) Kinds() []Kind {
	events := r.Events()
	kinds := make([]Kind, len(events))
	for i, ev := range events {
		kinds[i] = ev.Kind
	}
	return kinds
}
