// Package component defines components, their call shapes and the props
// they render from.
//
// A component is identified by its pointer. Every Connect composes the
// child's namespace from the parent's, registers it for the pass, binds
// the child's model target and hands the child a wire for that namespace.
package component

import "github.com/roach88/samwire/internal/dom"

// RenderFunc produces a component's fragment.
type RenderFunc func(p *Props) (dom.Fragment, error)

// Component is a named render function. Create components once, at
// package or application level; two Component values with the same Name
// are still two identities.
type Component struct {
	Name   string
	render RenderFunc
}

// New creates a component. Panics if render is nil.
func New(name string, render RenderFunc) *Component {
	if render == nil {
		panic("samwire: component " + name + " has no render function")
	}
	return &Component{Name: name, render: render}
}
