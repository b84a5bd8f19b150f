package hydrate

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/roach88/samwire/internal/component"
	"github.com/roach88/samwire/internal/container"
	"github.com/roach88/samwire/internal/demo"
	"github.com/roach88/samwire/internal/dom"
	"github.com/roach88/samwire/internal/engine"
	"github.com/roach88/samwire/internal/model"
	"github.com/roach88/samwire/internal/ssr"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

type recorder struct {
	mu  sync.Mutex
	evs []engine.Event
}

func (r *recorder) Observe(ev engine.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.evs = append(r.evs, ev)
}

func (r *recorder) kind(k engine.Kind) []engine.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []engine.Event
	for _, ev := range r.evs {
		if ev.Kind == k {
			out = append(out, ev)
		}
	}
	return out
}

// serverDocument renders the demo on the "server" after applying proposed
// values, and parses the result as the client would receive it.
func serverDocument(t *testing.T, proposed ...model.Object) *html.Node {
	t.Helper()
	opts := demo.Options()
	opts.Model = demo.InitialModel()
	opts.Scheduler = engine.NewLoop()
	opts.Logger = quiet
	r, err := ssr.New(opts)
	require.NoError(t, err)
	ctx := context.Background()
	for _, p := range proposed {
		require.NoError(t, r.Accept(ctx, p))
	}
	out, err := r.RenderDocument(ctx, "Todos", "")
	require.NoError(t, err)
	doc, err := dom.Parse(out)
	require.NoError(t, err)
	return doc
}

func clientOptions(doc *html.Node, obs ...engine.Observer) container.Options {
	opts := demo.Options()
	opts.Element = dom.FindByID(doc, ssr.DefaultRootID)
	opts.Model = demo.InitialModel()
	opts.Scheduler = engine.NewLoop()
	opts.Observers = obs
	opts.Logger = quiet
	return opts
}

func wired(t *testing.T, root *html.Node, action string) *html.Node {
	t.Helper()
	n := dom.Find(root, func(n *html.Node) bool {
		_, ref, ok, err := component.ListenerFor(dom.Event{Target: n})
		return err == nil && ok && ref.Action == action
	})
	require.NotNil(t, n, "no element wired to %s", action)
	return n
}

func TestNewPage_DetectsDispatcher(t *testing.T) {
	page := NewPage(serverDocument(t), quiet)
	assert.True(t, page.Hydrating())
	assert.Equal(t, 0, page.Buffered())

	fresh, err := dom.Parse(`<html><body><main id="app"></main></body></html>`)
	require.NoError(t, err)
	page = NewPage(fresh, quiet)
	assert.False(t, page.Hydrating())
	assert.Equal(t, -1, page.Buffered())
}

func TestStart_FreshPage(t *testing.T) {
	doc, err := dom.Parse(`<html><body><main id="app"></main></body></html>`)
	require.NoError(t, err)
	page := NewPage(doc, quiet)
	ctx := context.Background()

	// Nothing is listening yet, so the event is dropped.
	early := dom.NewElement("button", html.Attribute{Key: component.AttrOn, Val: "click"},
		html.Attribute{Key: component.AttrRef, Val: `{"action":"clear","args":[]}`})
	ok, err := page.Deliver(ctx, dom.Event{Type: "click", Target: early})
	require.NoError(t, err)
	assert.False(t, ok)

	c, err := Start(ctx, page, clientOptions(doc))
	require.NoError(t, err)
	assert.Equal(t, -1, page.Buffered())
	assert.NotNil(t, dom.FindByID(doc, "new-todo"))

	input := dom.FindByID(doc, "new-todo")
	ok, err = page.Deliver(ctx, dom.Event{Type: "change", Target: input, Value: "milk"})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Len(t, c.Model().List("items"), 1)
}

func TestStart_HydratesFromCarrier(t *testing.T) {
	doc := serverDocument(t, model.Object{"add": model.String("milk")})
	page := NewPage(doc, quiet)

	c, err := Start(context.Background(), page, clientOptions(doc))
	require.NoError(t, err)

	m := c.Model()
	require.Len(t, m.List("items"), 1)
	assert.Equal(t, "milk", m.List("items")[0].(model.Object).Str("text"))
	assert.Equal(t, int64(2), m.Int("nextId"))
	assert.Nil(t, dom.FindByID(doc, ssr.StateElementID), "carrier removed")
	assert.Equal(t, -1, page.Buffered())
}

func TestStart_MissingCarrier(t *testing.T) {
	doc, err := dom.Parse(`<html><body><main id="app"><script>` + ssr.DispatcherScript + `</script></main></body></html>`)
	require.NoError(t, err)
	page := NewPage(doc, quiet)
	require.True(t, page.Hydrating())

	_, err = Start(context.Background(), page, clientOptions(doc))
	assert.True(t, errors.Is(err, ErrMissingStateCarrier))
}

func TestStart_RequiresElement(t *testing.T) {
	page := NewPage(serverDocument(t), quiet)
	opts := clientOptions(page.Document())
	opts.Element = nil
	_, err := Start(context.Background(), page, opts)
	assert.Error(t, err)
}

func TestStart_ReplaysEarlyEventsInOrder(t *testing.T) {
	doc := serverDocument(t)
	page := NewPage(doc, quiet)
	ctx := context.Background()
	input := dom.FindByID(doc, "new-todo")
	require.NotNil(t, input)

	for _, text := range []string{"a", "b"} {
		ok, err := page.Deliver(ctx, dom.Event{Type: "change", Target: input, Value: text})
		require.NoError(t, err)
		assert.False(t, ok, "recorded, not applied")
	}
	// Wrong event type for the target is not recorded.
	ok, err := page.Deliver(ctx, dom.Event{Type: "click", Target: input})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 2, page.Buffered())

	rec := &recorder{}
	c, err := Start(ctx, page, clientOptions(doc, rec))
	require.NoError(t, err)

	items := c.Model().List("items")
	require.Len(t, items, 2)
	assert.Equal(t, "a", items[0].(model.Object).Str("text"))
	assert.Equal(t, "b", items[1].(model.Object).Str("text"))
	assert.Len(t, rec.kind(engine.KindReplay), 2)
	assert.Equal(t, -1, page.Buffered())

	// After teardown events go straight to the container, exactly once.
	input = dom.FindByID(doc, "new-todo")
	ok, err = page.Deliver(ctx, dom.Event{Type: "change", Target: input, Value: "c"})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Len(t, c.Model().List("items"), 3)
	assert.Len(t, rec.kind(engine.KindReplay), 2)
}

func TestReplay_MatchesLiveDispatch(t *testing.T) {
	ctx := context.Background()

	doc := serverDocument(t, model.Object{"add": model.String("milk")})
	page := NewPage(doc, quiet)
	_, err := page.Deliver(ctx, dom.Event{Type: "click", Target: wired(t, doc, "toggle")})
	require.NoError(t, err)
	_, err = page.Deliver(ctx, dom.Event{Type: "click", Target: wired(t, doc, "clear")})
	require.NoError(t, err)
	replayed, err := Start(ctx, page, clientOptions(doc))
	require.NoError(t, err)

	liveDoc := serverDocument(t, model.Object{"add": model.String("milk")})
	livePage := NewPage(liveDoc, quiet)
	live, err := Start(ctx, livePage, clientOptions(liveDoc))
	require.NoError(t, err)
	_, err = livePage.Deliver(ctx, dom.Event{Type: "click", Target: wired(t, liveDoc, "toggle")})
	require.NoError(t, err)
	_, err = livePage.Deliver(ctx, dom.Event{Type: "click", Target: wired(t, liveDoc, "clear")})
	require.NoError(t, err)

	assert.True(t, model.Equal(live.Model(), replayed.Model()))
	assert.Empty(t, replayed.Model().List("items"))
}

func TestReplay_DrainsEntriesRecordedDuringDrain(t *testing.T) {
	ctx := context.Background()
	doc, err := dom.Parse(`<html><body><main id="app"><input id="` + ssr.StateElementID +
		`" type="hidden" value="{&#34;log&#34;:[]}"><script>` + ssr.DispatcherScript + `</script></main></body></html>`)
	require.NoError(t, err)
	page := NewPage(doc, quiet)

	button := func(action string) *html.Node {
		return dom.NewElement("button",
			html.Attribute{Key: component.AttrOn, Val: "click"},
			html.Attribute{Key: component.AttrRef, Val: `{"action":"` + action + `","args":[]}`})
	}
	pong := button("pong")

	table := engine.ActionTable{}
	for _, name := range []string{"ping", "pong"} {
		table[name] = func(propose engine.ProposeFunc) engine.Action {
			return func(ctx context.Context, _ ...model.Value) (bool, error) {
				if name == "ping" {
					// Arrives while the buffer is still installed.
					if _, err := page.Deliver(ctx, dom.Event{Type: "click", Target: pong}); err != nil {
						return false, err
					}
				}
				return propose(ctx, engine.Proposal{Name: name, Value: engine.Resolved(model.Object{"log": model.String(name)})})
			}
		}
	}
	root := component.New("log", func(p *component.Props) (dom.Fragment, error) {
		return p.Render(`<p>{{len (.List "log")}}</p>`, p.Model)
	})

	_, err = page.Deliver(ctx, dom.Event{Type: "click", Target: button("ping")})
	require.NoError(t, err)

	c, err := Start(ctx, page, container.Options{
		Root:    root,
		Element: dom.FindByID(doc, ssr.DefaultRootID),
		Actions: table,
		Accept: func(_ context.Context, m, proposed model.Object) error {
			m["log"] = append(m.List("log"), proposed["log"])
			return nil
		},
		Scheduler: engine.NewLoop(),
		Logger:    quiet,
	})
	require.NoError(t, err)
	assert.Equal(t, model.Strings("ping", "pong"), c.Model().List("log"))
	assert.Equal(t, -1, page.Buffered())
}

func TestReplay_ErrorsAreJoinedAndContainerReturned(t *testing.T) {
	ctx := context.Background()
	doc := serverDocument(t)
	page := NewPage(doc, quiet)

	bogus := dom.NewElement("button",
		html.Attribute{Key: component.AttrOn, Val: "click"},
		html.Attribute{Key: component.AttrRef, Val: `{"action":"toggle","args":[42]}`})
	_, err := page.Deliver(ctx, dom.Event{Type: "click", Target: bogus})
	require.NoError(t, err)

	rec := &recorder{}
	c, err := Start(ctx, page, clientOptions(doc, rec))
	require.Error(t, err)
	require.NotNil(t, c)
	assert.Contains(t, err.Error(), "replay toggle")
	replays := rec.kind(engine.KindReplay)
	require.Len(t, replays, 1)
	assert.NotEmpty(t, replays[0].Error)
}

func TestRestoreState_BadJSON(t *testing.T) {
	doc, err := dom.Parse(`<html><body><input id="` + ssr.StateElementID + `" value="{nope"></body></html>`)
	require.NoError(t, err)
	_, err = RestoreState(doc)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrMissingStateCarrier))
}
