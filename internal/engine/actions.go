package engine

import (
	"context"
	"sort"

	"github.com/roach88/samwire/internal/model"
)

// ProposeFunc submits a proposal to the pipeline.
type ProposeFunc func(ctx context.Context, p Proposal) (bool, error)

// Action is a callable action bound to a pipeline. It reports whether its
// proposal was accepted.
type Action func(ctx context.Context, args ...model.Value) (bool, error)

// ActionConstructor builds an action around the bound propose function.
// Constructors never call accept directly; every mutation goes through
// propose.
type ActionConstructor func(propose ProposeFunc) Action

// ActionTable maps action names to constructors. A nil constructor
// disables the name, which is how an application opts out of the
// synthesized route action.
type ActionTable map[string]ActionConstructor

// Actions is the sealed table of callable actions.
// It is immutable after construction and safe for concurrent use.
type Actions struct {
	byName map[string]Action
}

// NewActions binds every constructor in table to propose.
func NewActions(table ActionTable, propose ProposeFunc) *Actions {
	a := &Actions{byName: make(map[string]Action, len(table))}
	for name, ctor := range table {
		if ctor == nil {
			continue
		}
		a.byName[name] = ctor(propose)
	}
	return a
}

// Get returns the action for name.
func (a *Actions) Get(name string) (Action, bool) {
	if a == nil {
		return nil, false
	}
	fn, ok := a.byName[name]
	return fn, ok
}

// Has reports whether name is bound.
func (a *Actions) Has(name string) bool {
	_, ok := a.Get(name)
	return ok
}

// Call invokes the named action.
func (a *Actions) Call(ctx context.Context, name string, args ...model.Value) (bool, error) {
	fn, ok := a.Get(name)
	if !ok {
		return false, &DispatchError{Code: ErrCodeUnknownAction, Action: name}
	}
	return fn(ctx, args...)
}

// Names returns the bound action names in sorted order.
func (a *Actions) Names() []string {
	if a == nil {
		return nil
	}
	names := make([]string, 0, len(a.byName))
	for name := range a.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
