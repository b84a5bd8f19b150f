package component

import (
	"context"
	"html/template"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/samwire/internal/dom"
	"github.com/roach88/samwire/internal/engine"
	"github.com/roach88/samwire/internal/model"
	"github.com/roach88/samwire/internal/registry"
)

type fixture struct {
	reg        *registry.Registry
	conn       *Connector
	collisions []string
	proposals  []engine.Proposal
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{}
	f.reg = registry.New(
		registry.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		registry.WithCollisionHook(func(ns string) { f.collisions = append(f.collisions, ns) }),
	)
	propose := func(_ context.Context, p engine.Proposal) (bool, error) {
		f.proposals = append(f.proposals, p)
		return true, nil
	}
	actions := engine.NewActions(engine.ActionTable{
		"toggle": func(propose engine.ProposeFunc) engine.Action {
			return func(ctx context.Context, args ...model.Value) (bool, error) {
				return propose(ctx, engine.Proposal{Name: "toggle", Value: engine.Resolved(model.Object{"args": model.List(args)})})
			}
		},
	}, propose)
	current := func() *engine.Actions { return actions }
	f.conn = NewConnector(f.reg, dom.NewHTMLTemplater(nil), engine.NewDispatcher(current, nil), current)
	return f
}

func (f *fixture) render(t *testing.T, m model.Object, root *Component) string {
	t.Helper()
	f.reg.Reset()
	frag, err := f.conn.Root(Pass{Model: m}, root, nil)
	require.NoError(t, err)
	return frag.String()
}

func text(src string) *Component {
	return New("text", func(p *Props) (dom.Fragment, error) {
		return p.Render(src, p)
	})
}

func TestConnect_RootBindsGlobalModel(t *testing.T) {
	f := newFixture(t)
	m := model.Object{"title": model.String("Todos")}

	out := f.render(t, m, text(`<h1>{{.Model.Str "title"}}</h1>`))
	assert.Equal(t, "<h1>Todos</h1>", out)
}

// Two siblings under one parent with the same key collide; the collision
// is reported and both still render.
func TestConnect_SiblingKeyCollision(t *testing.T) {
	f := newFixture(t)
	item := text(`<li>{{.Values.Str "text"}}</li>`)
	list := New("list", func(p *Props) (dom.Fragment, error) {
		a, err := p.Connect(item, Keyed("same", model.Object{"text": model.String("a")}))
		if err != nil {
			return dom.Fragment{}, err
		}
		b, err := p.Connect(item, Keyed("same", model.Object{"text": model.String("b")}))
		if err != nil {
			return dom.Fragment{}, err
		}
		return p.Render(`<ul>{{.A}}{{.B}}</ul>`, map[string]template.HTML{"A": a.HTML, "B": b.HTML})
	})

	out := f.render(t, model.Object{}, list)
	assert.Equal(t, "<ul><li>a</li><li>b</li></ul>", out)
	require.Len(t, f.collisions, 1)
	assert.Equal(t, f.reg.Collisions(), f.collisions)
}

func TestConnect_DistinctKeysNoCollision(t *testing.T) {
	f := newFixture(t)
	item := text(`<li>{{.Values.Str "text"}}</li>`)
	list := New("list", func(p *Props) (dom.Fragment, error) {
		var html template.HTML
		for _, k := range []string{"1", "2"} {
			frag, err := p.Connect(item, Keyed(k, model.Object{"text": model.String(k)}))
			if err != nil {
				return dom.Fragment{}, err
			}
			html += frag.HTML
		}
		return p.Render(`<ul>{{.}}</ul>`, html)
	})

	assert.Equal(t, "<ul><li>1</li><li>2</li></ul>", f.render(t, model.Object{}, list))
	assert.Empty(t, f.collisions)
}

// A descendant without its own reference binds to the nearest reference
// cached by an ancestor.
func TestConnect_NearestReferenceBinding(t *testing.T) {
	f := newFixture(t)
	items := model.List{
		model.Object{"text": model.String("milk")},
		model.Object{"text": model.String("eggs")},
	}
	m := model.Object{"title": model.String("global"), "items": items}

	label := text(`<span>{{.Model.Str "text"}}|{{.Global.Str "title"}}</span>`)
	row := New("row", func(p *Props) (dom.Fragment, error) {
		inner, err := p.Connect(label, Plain(nil))
		if err != nil {
			return dom.Fragment{}, err
		}
		return p.Render(`<li>{{.}}</li>`, inner.HTML)
	})
	list := New("list", func(p *Props) (dom.Fragment, error) {
		var html template.HTML
		for _, it := range p.Model.List("items") {
			frag, err := p.Connect(row, Referenced(it.(model.Object), "", nil))
			if err != nil {
				return dom.Fragment{}, err
			}
			html += frag.HTML
		}
		return p.Render(`<ul>{{.}}</ul>`, html)
	})

	out := f.render(t, m, list)
	assert.Equal(t, "<ul><li><span>milk|global</span></li><li><span>eggs|global</span></li></ul>", out)
	assert.Empty(t, f.collisions, "distinct references give distinct namespaces")
}

func TestConnect_NamespacesStableAcrossPasses(t *testing.T) {
	f := newFixture(t)
	item := model.Object{"text": model.String("x")}
	var seen []string
	leaf := New("leaf", func(p *Props) (dom.Fragment, error) {
		seen = append(seen, p.Namespace.String())
		return p.Render(`.`, nil)
	})
	root := New("root", func(p *Props) (dom.Fragment, error) {
		seen = append(seen, p.Namespace.String())
		return p.Connect(leaf, Referenced(item, "k", nil))
	})

	f.render(t, model.Object{}, root)
	first := append([]string(nil), seen...)
	seen = nil
	f.render(t, model.Object{}, root)

	assert.Equal(t, first, seen)
	require.Len(t, first, 2)
	assert.Regexp(t, `^:-?\d+;-?\d+;k;#-?\d+$`, first[1])
}

func TestConnect_BusyAndValuesReachProps(t *testing.T) {
	f := newFixture(t)
	var got *Props
	comp := New("c", func(p *Props) (dom.Fragment, error) {
		got = p
		return dom.Fragment{}, nil
	})

	f.reg.Reset()
	_, err := f.conn.Root(Pass{Model: model.Object{}, Busy: true}, comp, model.Object{"rand": model.Int(4)})
	require.NoError(t, err)
	assert.True(t, got.Busy)
	assert.Equal(t, int64(4), got.Values.Int("rand"))
	assert.True(t, got.Actions.Has("toggle"))
	assert.Equal(t, got.Namespace.String(), got.Wire().Namespace())
}

func TestConnect_RenderErrorNamesComponent(t *testing.T) {
	f := newFixture(t)
	broken := text(`{{.Missing}}`)
	f.reg.Reset()
	_, err := f.conn.Root(Pass{Model: model.Object{}}, broken, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "render text at :")
}

func TestShapes_Preconditions(t *testing.T) {
	assert.Panics(t, func() { Referenced(nil, "", nil) })
	assert.Panics(t, func() { New("x", nil) })

	f := newFixture(t)
	bad := New("bad", func(p *Props) (dom.Fragment, error) {
		return p.Connect(text(""), Keyed("#1", nil))
	})
	f.reg.Reset()
	assert.Panics(t, func() { _, _ = f.conn.Root(Pass{Model: model.Object{}}, bad, nil) })
}

func TestOn_RoundTripsThroughMarkup(t *testing.T) {
	f := newFixture(t)
	button := New("button", func(p *Props) (dom.Fragment, error) {
		return p.Render(`<button {{.}}>go</button>`, p.On("click", "toggle", "", model.Int(2), model.String(`"q"`)))
	})

	out := f.render(t, model.Object{}, button)
	assert.Contains(t, out, `data-sam-on="click"`)

	host := dom.NewElement("div")
	require.NoError(t, dom.NewHTMLTemplater(nil).Bind(host, dom.Fragment{HTML: template.HTML(out)}))
	btn := dom.FindTag(host, "button")
	require.NotNil(t, btn)

	ok, err := Fire(context.Background(), f.conn.Dispatcher(), dom.Event{Type: "click", Target: btn})
	require.NoError(t, err)
	assert.True(t, ok)
	require.Len(t, f.proposals, 1)
	v, err := f.proposals[0].Value(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.List{model.Int(2), model.String(`"q"`)}, v.List("args"))

	ok, err = Fire(context.Background(), f.conn.Dispatcher(), dom.Event{Type: "input", Target: btn})
	require.NoError(t, err)
	assert.False(t, ok, "other event types are ignored")
}

func TestListenerFor_NoAttributes(t *testing.T) {
	_, _, ok, err := ListenerFor(dom.Event{Target: dom.NewElement("p")})
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestProps_Dispatch(t *testing.T) {
	f := newFixture(t)
	var listener engine.Listener
	comp := New("c", func(p *Props) (dom.Fragment, error) {
		listener = p.Dispatch("toggle", engine.HandlerValue)
		return dom.Fragment{}, nil
	})
	f.render(t, model.Object{}, comp)

	ok, err := listener(context.Background(), dom.Event{Value: "v"})
	require.NoError(t, err)
	assert.True(t, ok)
}
