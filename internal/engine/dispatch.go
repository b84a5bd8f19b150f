package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/samwire/internal/dom"
	"github.com/roach88/samwire/internal/model"
)

// Handler adapts a DOM event to an action call. args are the partial
// arguments captured when the reference was created.
type Handler func(ctx context.Context, ev dom.Event, action Action, args model.List) (bool, error)

// Handlers maps handler names to handlers.
type Handlers map[string]Handler

// Built-in handler names. Application handlers may override them.
const (
	// HandlerCall invokes the action with the captured arguments.
	HandlerCall = ""
	// HandlerValue appends the event's value to the captured arguments.
	HandlerValue = "value"
)

// CallHandler implements HandlerCall.
func CallHandler(ctx context.Context, _ dom.Event, action Action, args model.List) (bool, error) {
	return action(ctx, args...)
}

// ValueHandler implements HandlerValue.
func ValueHandler(ctx context.Context, ev dom.Event, action Action, args model.List) (bool, error) {
	full := append(append(model.List(nil), args...), model.String(ev.Value))
	return action(ctx, full...)
}

// ActionRef is an action reference: the serializable form of "when this
// event fires, build handler with args and apply it to the action". It is
// carried in markup so server-rendered pages can record events before the
// client's action table exists.
type ActionRef struct {
	Action  string
	Handler string
	Args    model.List
}

// Object returns the reference as a model object.
func (r ActionRef) Object() model.Object {
	args := r.Args
	if args == nil {
		args = model.List{}
	}
	obj := model.Object{
		"action": model.String(r.Action),
		"args":   args,
	}
	if r.Handler != "" {
		obj["handler"] = model.String(r.Handler)
	}
	return obj
}

// Encode returns the canonical JSON token for r.
func (r ActionRef) Encode() (string, error) {
	data, err := model.MarshalCanonical(r.Object())
	if err != nil {
		return "", fmt.Errorf("encode action ref %q: %w", r.Action, err)
	}
	return string(data), nil
}

// ParseActionRef decodes a token produced by Encode.
func ParseActionRef(token string) (ActionRef, error) {
	obj, err := model.ParseObject([]byte(token))
	if err != nil {
		return ActionRef{}, fmt.Errorf("parse action ref: %w", err)
	}
	name := obj.Str("action")
	if strings.TrimSpace(name) == "" {
		return ActionRef{}, fmt.Errorf("parse action ref: missing action name")
	}
	args := obj.List("args")
	for k := range obj {
		switch k {
		case "action", "handler", "args":
		default:
			return ActionRef{}, fmt.Errorf("parse action ref: unknown field %q", k)
		}
	}
	return ActionRef{Action: name, Handler: obj.Str("handler"), Args: args}, nil
}

// Listener is a bound event listener.
type Listener func(ctx context.Context, ev dom.Event) (bool, error)

// Dispatcher resolves action references against the current action table.
//
// Resolution happens at call time, never at creation time, so a reference
// recorded before hydration runs against the table that exists when it
// is finally applied.
type Dispatcher struct {
	actions  func() *Actions
	handlers Handlers
}

// NewDispatcher creates a dispatcher. actions is consulted on every call.
func NewDispatcher(actions func() *Actions, handlers Handlers) *Dispatcher {
	merged := Handlers{
		HandlerCall:  CallHandler,
		HandlerValue: ValueHandler,
	}
	for name, h := range handlers {
		merged[name] = h
	}
	return &Dispatcher{actions: actions, handlers: merged}
}

// Dispatch returns a listener for ref.
func (d *Dispatcher) Dispatch(ref ActionRef) Listener {
	return func(ctx context.Context, ev dom.Event) (bool, error) {
		return d.Invoke(ctx, ref, ev)
	}
}

// Invoke applies ref to ev.
func (d *Dispatcher) Invoke(ctx context.Context, ref ActionRef, ev dom.Event) (bool, error) {
	action, ok := d.actions().Get(ref.Action)
	if !ok {
		return false, &DispatchError{Code: ErrCodeUnknownAction, Action: ref.Action}
	}
	h, ok := d.handlers[ref.Handler]
	if !ok {
		return false, &DispatchError{Code: ErrCodeUnknownHandler, Action: ref.Action, Handler: ref.Handler}
	}
	return h(ctx, ev, action, ref.Args)
}

// HasHandler reports whether name resolves.
func (d *Dispatcher) HasHandler(name string) bool {
	_, ok := d.handlers[name]
	return ok
}
