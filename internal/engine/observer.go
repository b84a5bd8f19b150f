package engine

import (
	"sync"
	"time"
)

// Kind distinguishes loop events.
type Kind string

const (
	// KindProposal reports how a proposal ended.
	KindProposal Kind = "proposal"
	// KindRender reports a completed render pass.
	KindRender Kind = "render"
	// KindReplay reports a replayed pre-hydration event.
	KindReplay Kind = "replay"
)

// Outcome is how a proposal ended.
type Outcome string

const (
	OutcomeAccepted     Outcome = "accepted"
	OutcomeRejectedBusy Outcome = "rejected_busy"
	OutcomeSuperseded   Outcome = "superseded"
	OutcomeCancelled    Outcome = "cancelled"
	OutcomeEmpty        Outcome = "empty"
	OutcomeFailed       Outcome = "failed"
)

// Phase identifies a render pass.
type Phase string

const (
	// PhaseInitial is the first render of a container.
	PhaseInitial Phase = "initial"
	// PhaseThinking is the render before accept, with busy shown.
	PhaseThinking Phase = "thinking"
	// PhaseSettled is the render after accept.
	PhaseSettled Phase = "settled"
)

// Event is one observable step of the loop.
type Event struct {
	Seq      int64
	Kind     Kind
	Name     string  // proposal or action name
	Token    string  // cancellation token, if any
	Outcome  Outcome // KindProposal only
	Phase    Phase   // KindRender only
	Error    string
	Duration time.Duration // wall time; excluded from traces
}

// Observer receives loop events. Observe is called synchronously on the
// goroutine that produced the event and must not block.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

// Observe implements Observer.
func (f ObserverFunc) Observe(ev Event) { f(ev) }

// Bus stamps events with sequence numbers and fans them out.
//
// Thread-safety: safe for concurrent use. Stamping and delivery happen
// under one lock, so observers see events in sequence order.
type Bus struct {
	mu        sync.Mutex
	seq       Sequencer
	observers []Observer
}

// NewBus creates a bus stamping from seq (a new Clock if nil).
func NewBus(seq Sequencer, observers ...Observer) *Bus {
	if seq == nil {
		seq = NewClock()
	}
	return &Bus{seq: seq, observers: observers}
}

// Subscribe adds an observer.
func (b *Bus) Subscribe(o Observer) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.observers = append(b.observers, o)
}

// Emit stamps ev and delivers it. Returns the stamped event.
func (b *Bus) Emit(ev Event) Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	ev.Seq = b.seq.Next()
	for _, o := range b.observers {
		o.Observe(ev)
	}
	return ev
}
