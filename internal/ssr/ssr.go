// Package ssr renders a container to HTML on the server.
//
// The markup carries everything the client needs to hydrate: the model
// in a hidden input with id StateElementID, an inline script that installs
// the replay buffer before any other script runs, and the rendered tree
// with action references in data-sam-on/data-sam-ref attributes.
package ssr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"

	"github.com/roach88/samwire/internal/container"
	"github.com/roach88/samwire/internal/model"
)

// StateElementID is the reserved id of the state carrier.
const StateElementID = "app-ssr-data"

// DispatcherScript installs the client replay buffer.
const DispatcherScript = "window.dispatcher = { toReplay: [] };"

// DefaultRootID is the id of the element the app is rendered into.
const DefaultRootID = "app"

var bodyTemplate = template.Must(template.New("body").Parse(
	`<input id="` + StateElementID + `" type="hidden" value="{{.State}}">` +
		`<script>` + DispatcherScript + `</script>` +
		`{{.App}}`))

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="{{.Lang}}">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<meta name="description" content="{{.Description}}">
</head>
<body>
<main id="{{.RootID}}">{{.Body}}</main>
</body>
</html>
`))

// Option configures a Renderer.
type Option func(*Renderer)

// WithRootID sets the id of the root element in full documents.
func WithRootID(id string) Option {
	return func(r *Renderer) {
		r.rootID = id
	}
}

// WithLang sets the document language. Default: "en".
func WithLang(lang string) Option {
	return func(r *Renderer) {
		r.lang = lang
	}
}

// Renderer renders one request's container.
type Renderer struct {
	c      *container.Container
	rootID string
	lang   string
}

// New creates a renderer over a container built from opts. opts.Element
// must be nil: the server keeps the rendered fragment instead of binding.
func New(opts container.Options, ropts ...Option) (*Renderer, error) {
	if opts.Element != nil {
		return nil, errors.New("ssr: options must not carry a root element")
	}
	c, err := container.New(opts)
	if err != nil {
		return nil, fmt.Errorf("ssr: %w", err)
	}
	r := &Renderer{c: c, rootID: DefaultRootID, lang: "en"}
	for _, opt := range ropts {
		opt(r)
	}
	return r, nil
}

// Accept applies proposed with the same mutation step the client uses.
func (r *Renderer) Accept(ctx context.Context, proposed model.Object) error {
	return r.c.Accept(ctx, proposed)
}

// Container returns the underlying container.
func (r *Renderer) Container() *container.Container {
	return r.c
}

// RootID is the id of the root element in full documents.
func (r *Renderer) RootID() string {
	return r.rootID
}

// RenderHTML renders the state carrier, the dispatcher script and the app.
func (r *Renderer) RenderHTML(ctx context.Context) (template.HTML, error) {
	if err := r.c.Render(ctx); err != nil {
		return "", fmt.Errorf("ssr render: %w", err)
	}
	state, err := model.MarshalCanonical(r.c.Model())
	if err != nil {
		return "", fmt.Errorf("ssr state: %w", err)
	}

	var buf bytes.Buffer
	err = bodyTemplate.Execute(&buf, struct {
		State string
		App   template.HTML
	}{string(state), r.c.Fragment().HTML})
	if err != nil {
		return "", fmt.Errorf("ssr body: %w", err)
	}
	return template.HTML(buf.String()), nil
}

// RenderDocument renders a complete HTML document around RenderHTML.
func (r *Renderer) RenderDocument(ctx context.Context, title, description string) (string, error) {
	body, err := r.RenderHTML(ctx)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	err = pageTemplate.Execute(&buf, struct {
		Lang, Title, Description, RootID string
		Body                             template.HTML
	}{r.lang, title, description, r.rootID, body})
	if err != nil {
		return "", fmt.Errorf("ssr document: %w", err)
	}
	return buf.String(), nil
}
