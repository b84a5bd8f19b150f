package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/roach88/samwire/internal/component"
	"github.com/roach88/samwire/internal/container"
	"github.com/roach88/samwire/internal/demo"
	"github.com/roach88/samwire/internal/dom"
	"github.com/roach88/samwire/internal/engine"
	"github.com/roach88/samwire/internal/hydrate"
	"github.com/roach88/samwire/internal/journal"
	"github.com/roach88/samwire/internal/manifest"
	"github.com/roach88/samwire/internal/model"
	"github.com/roach88/samwire/internal/route"
	"github.com/roach88/samwire/internal/ssr"
	"github.com/roach88/samwire/internal/testutil"
)

// Option configures a run.
type Option func(*runConfig)

type runConfig struct {
	journal   *journal.Journal
	logger    *slog.Logger
	observers []engine.Observer
}

// WithJournal journals into j instead of a fresh in-memory journal. The
// run is stored under the scenario name, replacing any earlier run of it.
func WithJournal(j *journal.Journal) Option {
	return func(c *runConfig) {
		c.journal = j
	}
}

// WithLogger sets the logger handed to the container. Logs are discarded
// by default.
func WithLogger(l *slog.Logger) Option {
	return func(c *runConfig) {
		c.logger = l
	}
}

// WithObservers adds observers to the client's bus.
func WithObservers(obs ...engine.Observer) Option {
	return func(c *runConfig) {
		c.observers = append(c.observers, obs...)
	}
}

// harness holds one run's state.
type harness struct {
	scenario *Scenario
	loop     *engine.Loop
	page     *hydrate.Page
	c        *container.Container
	root     *html.Node
	result   *Result
}

// Run executes a scenario and returns its result. An error means the run
// could not be set up; failed expectations are reported in the result.
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	cfg := &runConfig{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(cfg)
	}

	j := cfg.journal
	if j == nil {
		var err error
		j, err = journal.Open(":memory:", journal.WithLogger(cfg.logger))
		if err != nil {
			return nil, fmt.Errorf("failed to create in-memory journal: %w", err)
		}
		defer j.Close()
	}

	ctx := context.Background()
	opts0, err := baseOptions(scenario)
	if err != nil {
		return nil, err
	}
	// Sequence numbers restart at 1 every run, so a previous run under the
	// same name would shadow this one.
	if n, err := j.DeleteRun(ctx, scenario.Name); err != nil {
		return nil, fmt.Errorf("reset run: %w", err)
	} else if n > 0 {
		cfg.logger.Debug("replacing journaled run", "run", scenario.Name, "events", n)
	}

	h := &harness{scenario: scenario, loop: engine.NewLoop(), result: NewResult()}
	client := opts0
	client.Model = opts0.Model.Clone()
	client.Root = demo.NewApp()
	client.Scheduler = h.loop
	client.Sequencer = testutil.NewDeterministicClock()
	client.Tokens = testutil.NewSequenceTokens("tok")
	client.Observers = append([]engine.Observer{j.Recorder(scenario.Name)}, cfg.observers...)
	client.Logger = cfg.logger

	if err := h.start(ctx, opts0, client, cfg.logger); err != nil {
		return nil, err
	}
	h.loop.Drain(ctx)

	for i, step := range scenario.Steps {
		h.runStep(ctx, i, step)
		h.loop.Drain(ctx)
	}

	events, err := j.Read(ctx, scenario.Name)
	if err != nil {
		return nil, fmt.Errorf("read trace: %w", err)
	}
	for _, ev := range events {
		h.result.Trace = append(h.result.Trace, NewTraceEvent(ev))
	}
	h.result.Model = h.c.Model()
	if h.result.Markup, err = dom.RenderChildren(h.root); err != nil {
		return nil, fmt.Errorf("render markup: %w", err)
	}

	for _, msg := range EvaluateAssertions(h.result, scenario.Assertions) {
		h.result.AddError(msg)
	}
	return h.result, nil
}

// baseOptions returns demo options seeded from the manifest, if any.
func baseOptions(s *Scenario) (container.Options, error) {
	opts := demo.Options()
	opts.Model = demo.InitialModel()
	if s.Manifest == "" {
		return opts, nil
	}
	m, err := manifest.LoadFile(s.Manifest)
	if err != nil {
		return container.Options{}, fmt.Errorf("load manifest: %w", err)
	}
	return m.Apply(opts), nil
}

// start builds the client container, fresh or through hydration.
func (h *harness) start(ctx context.Context, server, client container.Options, logger *slog.Logger) error {
	if !h.scenario.SSR {
		h.root = dom.NewElement("main")
		client.Element = h.root
		c, err := container.New(client)
		if err != nil {
			return fmt.Errorf("create container: %w", err)
		}
		if err := c.Render(ctx); err != nil {
			return fmt.Errorf("initial render: %w", err)
		}
		h.c = c
		return nil
	}

	server.Root = demo.NewApp()
	server.Scheduler = engine.NewLoop()
	server.Logger = logger
	r, err := ssr.New(server)
	if err != nil {
		return err
	}
	for i, values := range h.scenario.Server {
		proposed, err := model.ObjectFromAny(map[string]any(values))
		if err != nil {
			return fmt.Errorf("server[%d]: %w", i, err)
		}
		if err := r.Accept(ctx, proposed); err != nil {
			return fmt.Errorf("server[%d]: %w", i, err)
		}
	}
	out, err := r.RenderDocument(ctx, server.Model.Str("title"), "")
	if err != nil {
		return err
	}
	doc, err := dom.Parse(out)
	if err != nil {
		return err
	}

	h.page = hydrate.NewPage(doc, logger)
	h.root = dom.FindByID(doc, r.RootID())
	for i, f := range h.scenario.Early {
		ev, err := h.event(f)
		if err != nil {
			return fmt.Errorf("early[%d]: %w", i, err)
		}
		if _, err := h.page.Deliver(ctx, ev); err != nil {
			return fmt.Errorf("early[%d]: %w", i, err)
		}
	}

	client.Element = h.root
	c, err := hydrate.Start(ctx, h.page, client)
	if c == nil {
		return fmt.Errorf("hydrate: %w", err)
	}
	if err != nil {
		h.result.AddError(fmt.Sprintf("replay: %v", err))
	}
	h.c = c
	return nil
}

func (h *harness) runStep(ctx context.Context, i int, step Step) {
	var (
		ok  bool
		err error
	)
	switch {
	case step.Call != "":
		args := make([]model.Value, 0, len(step.Args))
		for j, a := range step.Args {
			v, convErr := model.FromAny(a)
			if convErr != nil {
				h.result.AddError(fmt.Sprintf("steps[%d]: args[%d]: %v", i, j, convErr))
				return
			}
			args = append(args, v)
		}
		ok, err = h.c.Actions().Call(ctx, step.Call, args...)
	case step.Fire != nil:
		ev, findErr := h.event(*step.Fire)
		if findErr != nil {
			h.result.AddError(fmt.Sprintf("steps[%d]: %v", i, findErr))
			return
		}
		if h.page != nil {
			ok, err = h.page.Deliver(ctx, ev)
		} else {
			ok, err = h.c.Fire(ctx, ev)
		}
	case step.Navigate != nil:
		loc, parseErr := url.Parse(step.Navigate.To)
		if parseErr != nil {
			h.result.AddError(fmt.Sprintf("steps[%d]: %v", i, parseErr))
			return
		}
		ok, err = h.c.Navigate(ctx, route.Navigation{State: step.Navigate.From, Location: loc})
	}
	h.check(i, step.Expect, ok, err)
}

func (h *harness) check(i int, expect *StepExpect, ok bool, err error) {
	if expect == nil {
		if err != nil {
			h.result.AddError(fmt.Sprintf("steps[%d]: unexpected error: %v", i, err))
		}
		return
	}
	if expect.Error != "" {
		if err == nil || !strings.Contains(err.Error(), expect.Error) {
			h.result.AddError(fmt.Sprintf("steps[%d]: expected error containing %q, got %v", i, expect.Error, err))
		}
	} else if err != nil {
		h.result.AddError(fmt.Sprintf("steps[%d]: unexpected error: %v", i, err))
	}
	if expect.OK != nil && *expect.OK != ok {
		h.result.AddError(fmt.Sprintf("steps[%d]: expected ok=%t, got %t", i, *expect.OK, ok))
	}
}

// event resolves a fire step against the current markup.
func (h *harness) event(f FireStep) (dom.Event, error) {
	var target *html.Node
	if f.ID != "" {
		target = dom.FindByID(h.root, f.ID)
	} else {
		target = dom.Find(h.root, func(n *html.Node) bool {
			_, ref, ok, err := component.ListenerFor(dom.Event{Target: n})
			if err != nil || !ok || ref.Action != f.Action {
				return false
			}
			return f.Text == "" || strings.TrimSpace(dom.Text(n)) == f.Text
		})
	}
	if target == nil {
		return dom.Event{}, fmt.Errorf("no element matches %+v", f)
	}
	return dom.Event{Type: f.Type, Target: target, Value: f.Value}, nil
}
