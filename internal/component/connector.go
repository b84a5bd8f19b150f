package component

import (
	"fmt"

	"github.com/roach88/samwire/internal/dom"
	"github.com/roach88/samwire/internal/engine"
	"github.com/roach88/samwire/internal/model"
	"github.com/roach88/samwire/internal/registry"
)

// Pass is the state of one render pass.
type Pass struct {
	Model model.Object
	Busy  bool
}

// Connector invokes components through the registry. It is built once per
// container and shared by every pass.
type Connector struct {
	registry   *registry.Registry
	templater  dom.Templater
	dispatcher *engine.Dispatcher
	actions    func() *engine.Actions
}

// NewConnector creates a connector.
func NewConnector(reg *registry.Registry, t dom.Templater, d *engine.Dispatcher, actions func() *engine.Actions) *Connector {
	return &Connector{registry: reg, templater: t, dispatcher: d, actions: actions}
}

// Root renders the root component for a pass. The caller resets the
// registry before calling Root.
func (c *Connector) Root(pass Pass, root *Component, values model.Object) (dom.Fragment, error) {
	return c.connect(pass, nil, root, Plain(values))
}

// Dispatcher returns the shared dispatcher.
func (c *Connector) Dispatcher() *engine.Dispatcher {
	return c.dispatcher
}

func (c *Connector) connect(pass Pass, parent registry.Namespace, comp *Component, shape Shape) (dom.Fragment, error) {
	if comp == nil {
		panic("samwire: connect called with nil component")
	}
	key, ref, values := shape.parts()

	var refArg any
	if ref != nil {
		refArg = ref
	}
	ns := c.registry.Compose(parent, c.registry.Identity(comp), key, refArg)
	c.registry.Register(ns)

	target := pass.Model
	if ref != nil {
		target = ref
	} else if cached, ok := c.registry.Resolve(ns); ok {
		if obj, ok := cached.(model.Object); ok {
			target = obj
		}
	}
	if values == nil {
		values = model.Object{}
	}

	props := &Props{
		Model:     target,
		Values:    values,
		Busy:      pass.Busy,
		Namespace: ns,
		Actions:   c.actions(),
		wire:      c.templater.Wire(target, ns.String()),
		conn:      c,
		pass:      pass,
	}
	f, err := comp.render(props)
	if err != nil {
		return dom.Fragment{}, fmt.Errorf("render %s at %s: %w", comp.Name, ns, err)
	}
	return f, nil
}
