// Package hydrate starts a container on the client, either fresh or over
// server-rendered markup.
//
// A Page is the page-load context. When the server left a dispatcher
// script in the document, the Page holds a replay buffer from the moment
// it is created: events delivered before the container is ready are
// recorded there, and Start replays them once the first render is done.
// After the drain the buffer is torn down and events go straight to the
// container.
package hydrate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/net/html"

	"github.com/roach88/samwire/internal/component"
	"github.com/roach88/samwire/internal/container"
	"github.com/roach88/samwire/internal/dom"
	"github.com/roach88/samwire/internal/engine"
	"github.com/roach88/samwire/internal/model"
	"github.com/roach88/samwire/internal/ssr"
)

// ErrMissingStateCarrier is returned when hydrating markup lacks the
// state carrier or its value.
var ErrMissingStateCarrier = errors.New("hydrate: state carrier missing")

// Entry is an event recorded before the container was ready.
type Entry struct {
	Name    string // action name
	Handler string
	Args    model.List
	Target  *html.Node
	Event   dom.Event
}

// Ref returns the entry's action reference.
func (e Entry) Ref() engine.ActionRef {
	return engine.ActionRef{Action: e.Name, Handler: e.Handler, Args: e.Args}
}

// Page is the page-load context.
//
// Thread-safety: Deliver may be called from any goroutine.
type Page struct {
	mu        sync.Mutex
	doc       *html.Node
	hydrating bool
	buffer    []Entry
	buffered  bool // buffer installed and not yet torn down
	live      *container.Container
	logger    *slog.Logger
}

// NewPage creates the context for doc. A buffer is installed immediately
// when doc carries the dispatcher script.
func NewPage(doc *html.Node, logger *slog.Logger) *Page {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Page{doc: doc, logger: logger}
	if hasDispatcher(doc) {
		p.hydrating = true
		p.buffered = true
	}
	return p
}

func hasDispatcher(doc *html.Node) bool {
	script := dom.Find(doc, func(n *html.Node) bool {
		return n.Data == "script" && strings.Contains(dom.Text(n), "window.dispatcher")
	})
	return script != nil
}

// Document returns the page's document.
func (p *Page) Document() *html.Node {
	return p.doc
}

// Hydrating reports whether the page was server-rendered.
func (p *Page) Hydrating() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hydrating
}

// Buffered returns the number of recorded entries, or -1 when no buffer
// is installed.
func (p *Page) Buffered() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.buffered {
		return -1
	}
	return len(p.buffer)
}

// Deliver hands a UI event to the page. Before hydration completes the
// event's action reference is recorded; afterwards it is dispatched live.
// Events whose target declares no reference for their type are ignored.
func (p *Page) Deliver(ctx context.Context, ev dom.Event) (bool, error) {
	event, ref, ok, err := component.ListenerFor(ev)
	if err != nil {
		return false, err
	}
	if !ok || event != ev.Type {
		return false, nil
	}

	p.mu.Lock()
	if p.buffered {
		p.buffer = append(p.buffer, Entry{
			Name:    ref.Action,
			Handler: ref.Handler,
			Args:    ref.Args,
			Target:  ev.Target,
			Event:   ev,
		})
		p.mu.Unlock()
		p.logger.Debug("event recorded for replay", "action", ref.Action, "type", ev.Type)
		return false, nil
	}
	live := p.live
	p.mu.Unlock()

	if live == nil {
		p.logger.Debug("event dropped: container not started", "action", ref.Action)
		return false, nil
	}
	return live.Invoke(ctx, ref, ev)
}

// RestoreState reads the model from the state carrier under root and
// removes the carrier.
func RestoreState(root *html.Node) (model.Object, error) {
	carrier := dom.FindByID(root, ssr.StateElementID)
	if carrier == nil {
		return nil, ErrMissingStateCarrier
	}
	raw, ok := dom.Attr(carrier, "value")
	if !ok || raw == "" {
		return nil, ErrMissingStateCarrier
	}
	state, err := model.ParseObject([]byte(raw))
	if err != nil {
		return nil, fmt.Errorf("hydrate: parse state carrier: %w", err)
	}
	dom.Remove(carrier)
	return state, nil
}

// Start builds the container for page and runs the first render.
//
// Fresh pages install an empty buffer and use opts.Model. Server-rendered
// pages restore the model from the state carrier instead. Either way the
// buffer is drained in arrival order against the container's action table,
// including entries recorded during the drain, and then torn down.
//
// The container is returned even when a replayed entry fails; the error
// names the entry.
func Start(ctx context.Context, page *Page, opts container.Options) (*container.Container, error) {
	if opts.Element == nil {
		return nil, errors.New("hydrate: root element is required")
	}

	page.mu.Lock()
	hydrating := page.hydrating
	if !hydrating {
		page.buffered = true
	}
	page.mu.Unlock()

	if hydrating {
		state, err := RestoreState(page.doc)
		if err != nil {
			return nil, err
		}
		opts.Model = state
	}

	c, err := container.New(opts)
	if err != nil {
		return nil, err
	}
	if err := c.Render(ctx); err != nil {
		return nil, err
	}

	n, err := page.drain(ctx, c)
	page.logger.Info("replay complete", "entries", n, "hydrating", hydrating)
	return c, err
}

// drain replays entries until the buffer is empty, then tears it down in
// the same critical section so no event can fall between the two.
func (p *Page) drain(ctx context.Context, c *container.Container) (int, error) {
	var errs []error
	n := 0
	for {
		p.mu.Lock()
		if len(p.buffer) == 0 {
			p.buffer = nil
			p.buffered = false
			p.live = c
			p.mu.Unlock()
			return n, errors.Join(errs...)
		}
		entry := p.buffer[0]
		p.buffer[0] = Entry{}
		p.buffer = p.buffer[1:]
		p.mu.Unlock()

		n++
		ev := engine.Event{Kind: engine.KindReplay, Name: entry.Name}
		if _, err := c.Invoke(ctx, entry.Ref(), entry.Event); err != nil {
			ev.Error = err.Error()
			p.logger.Error("replay failed", "action", entry.Name, "error", err)
			errs = append(errs, fmt.Errorf("replay %s: %w", entry.Name, err))
		}
		c.Bus().Emit(ev)
	}
}
