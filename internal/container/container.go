// Package container wires the SAM loop: actions propose, the pipeline
// accepts into the model, and the render step re-derives the component
// tree through the registry and binds it into the root element.
package container

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/net/html"

	"github.com/roach88/samwire/internal/component"
	"github.com/roach88/samwire/internal/dom"
	"github.com/roach88/samwire/internal/engine"
	"github.com/roach88/samwire/internal/model"
	"github.com/roach88/samwire/internal/registry"
	"github.com/roach88/samwire/internal/route"
)

// AcceptFunc mutates the model with a proposed value. It runs while the
// container holds its render lock; m is the live model.
type AcceptFunc func(ctx context.Context, m model.Object, proposed model.Object) error

// NextActionFunc runs after every accepted proposal, on the scheduler.
// m is a snapshot of the model.
type NextActionFunc func(ctx context.Context, m model.Object, actions *engine.Actions)

// Options configures a Container.
type Options struct {
	// Root is the root component. Required.
	Root *component.Component
	// Element receives the rendered tree. When nil, renders are kept
	// only as the last fragment (server-side rendering).
	Element *html.Node
	// Model is the initial model. Default: empty.
	Model model.Object
	// Accept is the mutation step. Required.
	Accept AcceptFunc
	// Actions is the application's action table. A "route" entry
	// overrides the synthesized route action; a nil "route" entry
	// disables routing.
	Actions engine.ActionTable
	// Handlers are named event handlers for action references.
	Handlers engine.Handlers
	// NextAction is the optional next-action hook.
	NextAction NextActionFunc
	// Templater defaults to dom.NewHTMLTemplater(nil).
	Templater dom.Templater
	// Scheduler defaults to a TimerScheduler.
	Scheduler engine.Scheduler
	// Tokens defaults to engine.UUIDv7Generator.
	Tokens engine.TokenGenerator
	// Sequencer stamps events. Defaults to a new engine.Clock.
	Sequencer engine.Sequencer
	// Observers receive every loop event.
	Observers []engine.Observer
	// Route configures the synthesized route action.
	Route route.Config
	// OnCollision is called for every namespace collision.
	OnCollision func(namespace string)
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Container owns one model and runs the loop over it.
type Container struct {
	root     *component.Component
	element  *html.Node
	acceptFn AcceptFunc
	table    engine.ActionTable
	handlers engine.Handlers
	logger   *slog.Logger

	registry  *registry.Registry
	templater dom.Templater
	pipeline  *engine.Pipeline
	bus       *engine.Bus
	actions   *engine.Actions
	bridge    *route.Bridge

	// mu serializes renders and accepts and guards model and last.
	mu    sync.Mutex
	model model.Object
	last  dom.Fragment

	propsOnce sync.Once
	conn      *component.Connector
}

// New creates a container. It does not render.
func New(opts Options) (*Container, error) {
	if opts.Root == nil {
		return nil, errors.New("container: root component is required")
	}
	if opts.Accept == nil {
		return nil, errors.New("container: accept function is required")
	}
	if opts.Element != nil && opts.Element.Type != html.ElementNode {
		return nil, errors.New("container: root element must be an element node")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	m := opts.Model
	if m == nil {
		m = model.Object{}
	}
	templater := opts.Templater
	if templater == nil {
		templater = dom.NewHTMLTemplater(nil)
	}

	c := &Container{
		root:      opts.Root,
		element:   opts.Element,
		acceptFn:  opts.Accept,
		table:     synthesize(opts.Actions, opts.Route),
		handlers:  opts.Handlers,
		logger:    logger,
		templater: templater,
		bus:       engine.NewBus(opts.Sequencer, opts.Observers...),
		model:     m,
	}

	regOpts := []registry.Option{registry.WithLogger(logger)}
	if opts.OnCollision != nil {
		regOpts = append(regOpts, registry.WithCollisionHook(opts.OnCollision))
	}
	c.registry = registry.New(regOpts...)

	pipeOpts := []engine.PipelineOption{
		engine.WithBus(c.bus),
		engine.WithLogger(logger),
	}
	if opts.Scheduler != nil {
		pipeOpts = append(pipeOpts, engine.WithScheduler(opts.Scheduler))
	}
	if opts.Tokens != nil {
		pipeOpts = append(pipeOpts, engine.WithTokens(opts.Tokens))
	}
	if opts.NextAction != nil {
		next := opts.NextAction
		pipeOpts = append(pipeOpts, engine.WithNextAction(func(ctx context.Context) {
			next(ctx, c.Model(), c.actions)
		}))
	}
	c.pipeline = engine.NewPipeline(c.accept, c.renderPhase, pipeOpts...)
	c.actions = engine.NewActions(c.table, c.pipeline.Propose)
	c.bridge = route.NewBridge(c.Actions, logger)
	return c, nil
}

// synthesize adds the route action unless the table mentions "route".
func synthesize(table engine.ActionTable, cfg route.Config) engine.ActionTable {
	out := make(engine.ActionTable, len(table)+1)
	for name, ctor := range table {
		out[name] = ctor
	}
	if _, ok := out[route.ActionName]; !ok {
		out[route.ActionName] = route.NewAction(cfg)
	}
	return out
}

// connector builds the shared default props exactly once.
func (c *Container) connector() *component.Connector {
	c.propsOnce.Do(func() {
		d := engine.NewDispatcher(c.Actions, c.handlers)
		c.conn = component.NewConnector(c.registry, c.templater, d, c.Actions)
	})
	return c.conn
}

// Render runs a render pass outside the pipeline, typically the first one.
func (c *Container) Render(ctx context.Context) error {
	start := time.Now()
	err := c.render(ctx, false)
	ev := engine.Event{Kind: engine.KindRender, Phase: engine.PhaseInitial, Duration: time.Since(start)}
	if err != nil {
		ev.Error = err.Error()
	}
	c.bus.Emit(ev)
	return err
}

func (c *Container) renderPhase(ctx context.Context, phase engine.Phase) error {
	return c.render(ctx, phase == engine.PhaseThinking)
}

func (c *Container) render(_ context.Context, busy bool) error {
	conn := c.connector()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.registry.Reset()
	frag, err := conn.Root(component.Pass{Model: c.model, Busy: busy}, c.root, rootValues(c.model))
	if err != nil {
		return err
	}
	c.last = frag
	if s, ok := c.templater.(sweeper); ok {
		s.Sweep()
	}
	if c.element == nil {
		return nil
	}
	return c.templater.Bind(c.element, frag)
}

// sweeper is implemented by templaters that drop wires unused in a pass.
type sweeper interface {
	Sweep() int
}

func rootValues(m model.Object) model.Object {
	values := model.Object{}
	if title, ok := m["title"]; ok {
		values["title"] = title
	}
	return values
}

func (c *Container) accept(ctx context.Context, proposed model.Object) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.acceptFn(ctx, c.model, proposed)
}

// Accept applies proposed to the model directly, bypassing the pipeline.
// Server-side rendering uses it to share mutation logic with the client.
func (c *Container) Accept(ctx context.Context, proposed model.Object) error {
	if err := c.accept(ctx, proposed); err != nil {
		return fmt.Errorf("accept: %w", err)
	}
	return nil
}

// Propose submits a proposal to the pipeline.
func (c *Container) Propose(ctx context.Context, p engine.Proposal) (bool, error) {
	return c.pipeline.Propose(ctx, p)
}

// Actions returns the sealed action table.
func (c *Container) Actions() *engine.Actions {
	return c.actions
}

// Dispatch returns a listener for the given action reference.
func (c *Container) Dispatch(action, handler string, args ...model.Value) engine.Listener {
	return c.connector().Dispatcher().Dispatch(engine.ActionRef{Action: action, Handler: handler, Args: args})
}

// Invoke applies an action reference to an event.
func (c *Container) Invoke(ctx context.Context, ref engine.ActionRef, ev dom.Event) (bool, error) {
	return c.connector().Dispatcher().Invoke(ctx, ref, ev)
}

// Fire delivers ev to the listener declared on its target element.
func (c *Container) Fire(ctx context.Context, ev dom.Event) (bool, error) {
	return component.Fire(ctx, c.connector().Dispatcher(), ev)
}

// Navigate forwards a navigation-state change to the route bridge.
func (c *Container) Navigate(ctx context.Context, nav route.Navigation) (bool, error) {
	return c.bridge.OnNavigate(ctx, nav)
}

// Cancel flags the pending cancellable proposal for name.
func (c *Container) Cancel(name string) bool {
	return c.pipeline.Cancel(name)
}

// Busy reports whether a proposal is between its renders.
func (c *Container) Busy() bool {
	return c.pipeline.Busy()
}

// Model returns a deep copy of the model.
func (c *Container) Model() model.Object {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.model.Clone()
}

// Fragment returns the fragment produced by the last render.
func (c *Container) Fragment() dom.Fragment {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

// Element returns the root element, or nil.
func (c *Container) Element() *html.Node {
	return c.element
}

// Registry exposes the identity registry for diagnostics.
func (c *Container) Registry() *registry.Registry {
	return c.registry
}

// Bus returns the event bus; observers may subscribe after construction.
func (c *Container) Bus() *engine.Bus {
	return c.bus
}
