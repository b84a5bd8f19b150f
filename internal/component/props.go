package component

import (
	"context"
	"fmt"
	"html"
	"html/template"

	"github.com/roach88/samwire/internal/dom"
	"github.com/roach88/samwire/internal/engine"
	"github.com/roach88/samwire/internal/model"
	"github.com/roach88/samwire/internal/registry"
)

// Markup attributes carrying an action reference.
const (
	AttrOn  = "data-sam-on"
	AttrRef = "data-sam-ref"
)

// Props is what a component renders from.
type Props struct {
	// Model is the bound target: the referenced record, the nearest
	// reference cached by an ancestor in this pass, or the whole model.
	Model model.Object
	// Values are the extra values the parent passed.
	Values model.Object
	// Busy is true while rendering the interim state of a proposal.
	Busy bool
	// Namespace addresses this invocation.
	Namespace registry.Namespace
	// Actions is the container's sealed action table.
	Actions *engine.Actions

	wire dom.Wire
	conn *Connector
	pass Pass
}

// Render executes a template on this namespace's wire.
func (p *Props) Render(src string, data any) (dom.Fragment, error) {
	return p.wire.Render(src, data)
}

// Wire returns this namespace's wire.
func (p *Props) Wire() dom.Wire {
	return p.wire
}

// Connect renders child under this namespace.
func (p *Props) Connect(child *Component, shape Shape) (dom.Fragment, error) {
	return p.conn.connect(p.pass, p.Namespace, child, shape)
}

// Global returns the container's whole model.
func (p *Props) Global() model.Object {
	return p.pass.Model
}

// Dispatch returns a listener applying handler with args to the action,
// resolved against the action table current when the listener fires.
func (p *Props) Dispatch(action, handler string, args ...model.Value) engine.Listener {
	return p.conn.dispatcher.Dispatch(engine.ActionRef{Action: action, Handler: handler, Args: args})
}

// On returns markup attributes wiring event to an action reference:
//
//	<button {{.On}}>
//
// Panics if the reference cannot be encoded.
func (p *Props) On(event, action, handler string, args ...model.Value) template.HTMLAttr {
	return OnAttr(event, engine.ActionRef{Action: action, Handler: handler, Args: args})
}

// OnAttr renders the attributes for ref.
func OnAttr(event string, ref engine.ActionRef) template.HTMLAttr {
	token, err := ref.Encode()
	if err != nil {
		panic(fmt.Sprintf("samwire: %v", err))
	}
	return template.HTMLAttr(fmt.Sprintf(`%s="%s" %s="%s"`,
		AttrOn, html.EscapeString(event), AttrRef, html.EscapeString(token)))
}

// ListenerFor resolves the action reference carried by the event target.
func ListenerFor(ev dom.Event) (event string, ref engine.ActionRef, ok bool, err error) {
	event, hasOn := dom.Attr(ev.Target, AttrOn)
	token, hasRef := dom.Attr(ev.Target, AttrRef)
	if !hasOn || !hasRef {
		return "", engine.ActionRef{}, false, nil
	}
	ref, err = engine.ParseActionRef(token)
	if err != nil {
		return "", engine.ActionRef{}, false, err
	}
	return event, ref, true, nil
}

// Fire delivers ev to the listener declared on its target.
// Events whose type does not match the declared event are ignored.
func Fire(ctx context.Context, d *engine.Dispatcher, ev dom.Event) (bool, error) {
	event, ref, ok, err := ListenerFor(ev)
	if err != nil || !ok || event != ev.Type {
		return false, err
	}
	return d.Invoke(ctx, ref, ev)
}
