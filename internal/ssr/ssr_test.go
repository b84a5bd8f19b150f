package ssr

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/samwire/internal/demo"
	"github.com/roach88/samwire/internal/dom"
	"github.com/roach88/samwire/internal/engine"
	"github.com/roach88/samwire/internal/model"
)

func newDemoRenderer(t *testing.T, ropts ...Option) *Renderer {
	t.Helper()
	opts := demo.Options()
	opts.Model = demo.InitialModel()
	opts.Scheduler = engine.NewLoop()
	opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	r, err := New(opts, ropts...)
	require.NoError(t, err)
	return r
}

func TestNew_RejectsElement(t *testing.T) {
	opts := demo.Options()
	opts.Element = dom.NewElement("main")
	_, err := New(opts)
	assert.Error(t, err)
}

func TestRenderHTML_CarriesStateScriptAndApp(t *testing.T) {
	r := newDemoRenderer(t)
	out, err := r.RenderHTML(context.Background())
	require.NoError(t, err)

	s := string(out)
	carrier := strings.Index(s, `id="`+StateElementID+`"`)
	script := strings.Index(s, DispatcherScript)
	app := strings.Index(s, "<header>")
	require.True(t, carrier >= 0 && script >= 0 && app >= 0, s)
	assert.Less(t, carrier, script)
	assert.Less(t, script, app)
}

func TestRenderHTML_StateRoundTrips(t *testing.T) {
	r := newDemoRenderer(t)
	ctx := context.Background()
	require.NoError(t, r.Accept(ctx, model.Object{"add": model.String(`say "hi" & <bye>`)}))

	out, err := r.RenderHTML(ctx)
	require.NoError(t, err)

	doc, err := dom.Parse("<html><body>" + string(out) + "</body></html>")
	require.NoError(t, err)
	carrier := dom.FindByID(doc, StateElementID)
	require.NotNil(t, carrier)
	raw, ok := dom.Attr(carrier, "value")
	require.True(t, ok)

	state, err := model.ParseObject([]byte(raw))
	require.NoError(t, err)
	assert.True(t, model.Equal(r.Container().Model(), state))
}

func TestRenderHTML_Golden(t *testing.T) {
	r := newDemoRenderer(t)
	ctx := context.Background()
	require.NoError(t, r.Accept(ctx, model.Object{"add": model.String("milk")}))

	out, err := r.RenderHTML(ctx)
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "demo_one_item", []byte(out))
}

func TestRenderHTML_SameModelSameMarkup(t *testing.T) {
	a, err := newDemoRenderer(t).RenderHTML(context.Background())
	require.NoError(t, err)
	b, err := newDemoRenderer(t).RenderHTML(context.Background())
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestRenderDocument(t *testing.T) {
	r := newDemoRenderer(t, WithRootID("root"), WithLang("de"))
	assert.Equal(t, "root", r.RootID())

	out, err := r.RenderDocument(context.Background(), "Todos", "A samwire demo")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "<!DOCTYPE html>"))
	assert.Contains(t, out, `<html lang="de">`)
	assert.Contains(t, out, "<title>Todos</title>")
	assert.Contains(t, out, `<meta name="description" content="A samwire demo">`)

	doc, err := dom.Parse(out)
	require.NoError(t, err)
	root := dom.FindByID(doc, "root")
	require.NotNil(t, root)
	assert.NotNil(t, dom.FindByID(root, StateElementID))
	assert.NotNil(t, dom.FindByID(root, "new-todo"))
}
