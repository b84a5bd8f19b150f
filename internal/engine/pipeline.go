package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
	"unicode"

	"github.com/roach88/samwire/internal/model"
)

// Awaitable produces a proposal's value. A nil object with a nil error
// means the action decided not to act.
type Awaitable func(ctx context.Context) (model.Object, error)

// Resolved wraps an already-known value.
func Resolved(obj model.Object) Awaitable {
	return func(context.Context) (model.Object, error) {
		return obj, nil
	}
}

// Proposal is a named unit of work whose value, unless superseded,
// becomes a model mutation.
type Proposal struct {
	Name        string
	Value       Awaitable
	Cancellable bool
}

// AcceptFunc applies a resolved proposal to the model.
type AcceptFunc func(ctx context.Context, proposed model.Object) error

// RenderFunc re-derives the view. It is called twice per accepted
// proposal: PhaseThinking before accept and PhaseSettled after.
type RenderFunc func(ctx context.Context, phase Phase) error

type pendingRecord struct {
	token     string
	cancelled bool
}

// Pipeline serializes proposals against a busy flag.
//
// At most one proposal is between its thinking render and its settled
// render at any time. A proposal that arrives meanwhile is rejected and
// dropped; nothing is queued. For cancellable proposals sharing a name,
// only the most recently issued one may reach accept.
//
// Thread-safety: Propose may be called from any goroutine. The mutex
// guards only the busy flag and pending records and is never held while
// awaiting a value or while accept and render run.
type Pipeline struct {
	mu      sync.Mutex
	busy    bool
	pending map[string]*pendingRecord

	accept    AcceptFunc
	render    RenderFunc
	next      Task
	scheduler Scheduler
	tokens    TokenGenerator
	bus       *Bus
	logger    *slog.Logger
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithScheduler sets where the next-action hook is deferred to.
// Default: a TimerScheduler on context.Background().
func WithScheduler(s Scheduler) PipelineOption {
	return func(p *Pipeline) {
		p.scheduler = s
	}
}

// WithTokens sets the cancellation token generator.
// Default: UUIDv7Generator.
func WithTokens(g TokenGenerator) PipelineOption {
	return func(p *Pipeline) {
		p.tokens = g
	}
}

// WithBus sets the event bus observers are attached to.
func WithBus(b *Bus) PipelineOption {
	return func(p *Pipeline) {
		p.bus = b
	}
}

// WithNextAction sets the hook scheduled after every accepted proposal.
func WithNextAction(fn Task) PipelineOption {
	return func(p *Pipeline) {
		p.next = fn
	}
}

// WithLogger sets the pipeline logger. Default: slog.Default().
func WithLogger(l *slog.Logger) PipelineOption {
	return func(p *Pipeline) {
		p.logger = l
	}
}

// NewPipeline creates a pipeline around the accept and render steps.
func NewPipeline(accept AcceptFunc, render RenderFunc, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		pending: make(map[string]*pendingRecord),
		accept:  accept,
		render:  render,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.scheduler == nil {
		p.scheduler = NewTimerScheduler(context.Background())
	}
	if p.tokens == nil {
		p.tokens = UUIDv7Generator{}
	}
	if p.bus == nil {
		p.bus = NewBus(nil)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// Propose runs a proposal through the pipeline. It returns true only when
// the value was accepted and both renders completed.
//
// Busy rejection, supersession, cancellation and empty values return
// (false, nil). Failures return a *ProposalError; the busy flag is
// released on every path, panics included.
//
// Panics if the name is not an identifier or the value is nil.
func (p *Pipeline) Propose(ctx context.Context, prop Proposal) (bool, error) {
	if !isIdentifier(prop.Name) {
		panic(fmt.Sprintf("samwire: proposal name %q is not an identifier", prop.Name))
	}
	if prop.Value == nil {
		panic(fmt.Sprintf("samwire: proposal %q has no value", prop.Name))
	}

	p.mu.Lock()
	if p.busy {
		p.mu.Unlock()
		p.reject(prop.Name, "")
		return false, nil
	}
	var rec *pendingRecord
	if prop.Cancellable {
		rec = &pendingRecord{token: p.tokens.Generate()}
		if old, ok := p.pending[prop.Name]; ok {
			old.cancelled = true
			p.logger.Debug("proposal superseding pending", "name", prop.Name, "old_token", old.token, "token", rec.token)
		}
		p.pending[prop.Name] = rec
	}
	p.mu.Unlock()

	token := ""
	if rec != nil {
		token = rec.token
	}

	value, err := prop.Value(ctx)
	if err != nil {
		if rec != nil {
			p.mu.Lock()
			if p.pending[prop.Name] == rec {
				delete(p.pending, prop.Name)
			}
			p.mu.Unlock()
		}
		return false, p.fail(prop.Name, token, ErrCodeProposalFailed, err)
	}

	if rec != nil {
		p.mu.Lock()
		owned := p.pending[prop.Name] == rec
		if owned {
			delete(p.pending, prop.Name)
		}
		cancelled := rec.cancelled
		p.mu.Unlock()

		if !owned {
			p.logger.Info("proposal superseded", "name", prop.Name, "token", token)
			p.emitOutcome(prop.Name, token, OutcomeSuperseded, "")
			return false, nil
		}
		if cancelled {
			p.logger.Info("proposal cancelled", "name", prop.Name, "token", token)
			p.emitOutcome(prop.Name, token, OutcomeCancelled, "")
			return false, nil
		}
	}

	if value == nil {
		p.logger.Debug("proposal empty", "name", prop.Name)
		p.emitOutcome(prop.Name, token, OutcomeEmpty, "")
		return false, nil
	}

	p.mu.Lock()
	if p.busy {
		p.mu.Unlock()
		p.reject(prop.Name, token)
		return false, nil
	}
	p.busy = true
	p.mu.Unlock()

	return p.apply(ctx, prop.Name, token, value)
}

// apply runs render(thinking), accept, render(settled) with busy held.
func (p *Pipeline) apply(ctx context.Context, name, token string, value model.Object) (bool, error) {
	held := true
	release := func() {
		if held {
			held = false
			p.mu.Lock()
			p.busy = false
			p.mu.Unlock()
		}
	}
	defer release()

	if err := p.renderPhase(ctx, name, token, PhaseThinking); err != nil {
		return false, p.fail(name, token, ErrCodeRenderFailed, err)
	}
	if err := p.accept(ctx, value); err != nil {
		return false, p.fail(name, token, ErrCodeAcceptFailed, err)
	}
	if err := p.renderPhase(ctx, name, token, PhaseSettled); err != nil {
		return false, p.fail(name, token, ErrCodeRenderFailed, err)
	}
	release()

	p.logger.Debug("proposal accepted", "name", name, "token", token)
	p.emitOutcome(name, token, OutcomeAccepted, "")

	if p.next != nil && !p.scheduler.Defer(p.next) {
		p.logger.Warn("next action dropped: scheduler stopped", "name", name)
	}
	return true, nil
}

func (p *Pipeline) renderPhase(ctx context.Context, name, token string, phase Phase) error {
	start := time.Now()
	err := p.render(ctx, phase)
	ev := Event{Kind: KindRender, Name: name, Token: token, Phase: phase, Duration: time.Since(start)}
	if err != nil {
		ev.Error = err.Error()
	}
	p.bus.Emit(ev)
	return err
}

func (p *Pipeline) reject(name, token string) {
	p.logger.Info("proposal rejected: busy", "name", name)
	p.emitOutcome(name, token, OutcomeRejectedBusy, "")
}

func (p *Pipeline) fail(name, token string, code ErrorCode, err error) error {
	perr := &ProposalError{Code: code, Name: name, Token: token, Err: err}
	p.logger.Error("proposal failed", "name", name, "token", token, "code", string(code), "error", err)
	p.emitOutcome(name, token, OutcomeFailed, perr.Error())
	return perr
}

func (p *Pipeline) emitOutcome(name, token string, outcome Outcome, errText string) {
	p.bus.Emit(Event{Kind: KindProposal, Name: name, Token: token, Outcome: outcome, Error: errText})
}

// Cancel flags the pending cancellable proposal for name. Its value is
// still awaited, but the result is discarded. Returns false if nothing
// is pending under name.
func (p *Pipeline) Cancel(name string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	rec, ok := p.pending[name]
	if ok {
		rec.cancelled = true
	}
	return ok
}

// Busy reports whether a proposal is between its two renders.
func (p *Pipeline) Busy() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.busy
}

// Pending reports whether a cancellable proposal is awaiting its value.
func (p *Pipeline) Pending(name string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.pending[name]
	return ok
}

// Bus returns the pipeline's event bus.
func (p *Pipeline) Bus() *Bus {
	return p.bus
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || r == '$' || unicode.IsLetter(r):
		case i > 0 && unicode.IsDigit(r):
		default:
			return false
		}
	}
	return true
}
