package harness

import (
	"github.com/roach88/samwire/internal/engine"
	"github.com/roach88/samwire/internal/model"
)

// TraceEvent is one journaled loop event. Wall-clock durations are left
// out so traces compare across runs.
type TraceEvent struct {
	Seq     int64  `json:"seq"`
	Kind    string `json:"kind"`
	Name    string `json:"name,omitempty"`
	Token   string `json:"token,omitempty"`
	Outcome string `json:"outcome,omitempty"`
	Phase   string `json:"phase,omitempty"`
	Error   string `json:"error,omitempty"`
}

// NewTraceEvent converts a journaled loop event.
func NewTraceEvent(ev engine.Event) TraceEvent {
	return TraceEvent{
		Seq:     ev.Seq,
		Kind:    string(ev.Kind),
		Name:    ev.Name,
		Token:   ev.Token,
		Outcome: string(ev.Outcome),
		Phase:   string(ev.Phase),
		Error:   ev.Error,
	}
}

// object returns the event in model form, omitting empty fields.
func (e TraceEvent) object() model.Object {
	o := model.Object{
		"seq":  model.Int(e.Seq),
		"kind": model.String(e.Kind),
	}
	for k, v := range map[string]string{
		"name":    e.Name,
		"token":   e.Token,
		"outcome": e.Outcome,
		"phase":   e.Phase,
		"error":   e.Error,
	} {
		if v != "" {
			o[k] = model.String(v)
		}
	}
	return o
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every step expectation and assertion held.
	Pass bool `json:"pass"`

	// Trace holds the journaled events in sequence order.
	Trace []TraceEvent `json:"trace"`

	// Errors describes each failed expectation or assertion.
	Errors []string `json:"errors,omitempty"`

	// Model is the final model.
	Model model.Object `json:"model"`

	// Markup is the final rendered tree.
	Markup string `json:"-"`
}

// NewResult creates a passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
		Model:  model.Object{},
	}
}

// AddError records a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
