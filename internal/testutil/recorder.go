package testutil

import (
	"sync"

	"github.com/roach88/samwire/internal/engine"
)

// Recorder is an engine.Observer that keeps every event.
type Recorder struct {
	mu     sync.Mutex
	events []engine.Event
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Observe implements engine.Observer.
func (r *Recorder) Observe(ev engine.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []engine.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]engine.Event(nil), r.events...)
}

// Kind returns the recorded events of kind k.
func (r *Recorder) Kind(k engine.Kind) []engine.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []engine.Event
	for _, ev := range r.events {
		if ev.Kind == k {
			out = append(out, ev)
		}
	}
	return out
}

// Outcomes returns the outcomes of recorded proposal events, in order.
func (r *Recorder) Outcomes() []engine.Outcome {
	var out []engine.Outcome
	for _, ev := range r.Kind(engine.KindProposal) {
		out = append(out, ev.Outcome)
	}
	return out
}

// Reset drops all recorded events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
