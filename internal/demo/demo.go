// Package demo is a todo application built on the container. It uses
// every call shape, action references in markup, a cancellable action,
// the synthesized route action and a next-action hook, and serves as the
// reference app for the CLI, the server and the scenario harness.
package demo

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/roach88/samwire/internal/container"
	"github.com/roach88/samwire/internal/engine"
	"github.com/roach88/samwire/internal/model"
)

// Filters accepted by the filter action.
var Filters = []string{"all", "active", "done"}

// InitialModel returns the model a fresh client starts from.
func InitialModel() model.Object {
	return model.Object{
		"title":  model.String("Todos"),
		"items":  model.List{},
		"nextId": model.Int(1),
		"filter": model.String("all"),
		"page":   model.String("index"),
		"query":  model.Object{},
	}
}

// Options returns container options for the demo. The caller fills in
// the element, model, scheduler and observers.
func Options() container.Options {
	return container.Options{
		Root:       NewApp(),
		Accept:     Accept,
		Actions:    Actions(),
		NextAction: NextAction,
	}
}

// Actions returns the demo action table.
func Actions() engine.ActionTable {
	return engine.ActionTable{
		"add": func(propose engine.ProposeFunc) engine.Action {
			return func(ctx context.Context, args ...model.Value) (bool, error) {
				text := strings.TrimSpace(stringArg(args, 0))
				if text == "" {
					return propose(ctx, engine.Proposal{Name: "add", Value: engine.Resolved(nil)})
				}
				return propose(ctx, engine.Proposal{Name: "add", Value: engine.Resolved(model.Object{"add": model.String(text)})})
			}
		},
		"toggle": idAction("toggle"),
		"remove": idAction("remove"),
		"clear": func(propose engine.ProposeFunc) engine.Action {
			return func(ctx context.Context, _ ...model.Value) (bool, error) {
				return propose(ctx, engine.Proposal{Name: "clear", Value: engine.Resolved(model.Object{"clear": model.Bool(true)})})
			}
		},
		"filter": func(propose engine.ProposeFunc) engine.Action {
			return func(ctx context.Context, args ...model.Value) (bool, error) {
				f := stringArg(args, 0)
				if !validFilter(f) {
					return false, fmt.Errorf("filter: unknown filter %q", f)
				}
				return propose(ctx, engine.Proposal{
					Name:        "filter",
					Value:       engine.Resolved(model.Object{"filter": model.String(f)}),
					Cancellable: true,
				})
			}
		},
	}
}

func idAction(name string) engine.ActionConstructor {
	return func(propose engine.ProposeFunc) engine.Action {
		return func(ctx context.Context, args ...model.Value) (bool, error) {
			if len(args) == 0 {
				return false, fmt.Errorf("%s: missing item id", name)
			}
			id, ok := args[0].(model.Int)
			if !ok {
				return false, fmt.Errorf("%s: item id must be an integer", name)
			}
			return propose(ctx, engine.Proposal{Name: name, Value: engine.Resolved(model.Object{name: id})})
		}
	}
}

func stringArg(args []model.Value, i int) string {
	if i >= len(args) {
		return ""
	}
	s, _ := args[i].(model.String)
	return string(s)
}

func validFilter(f string) bool {
	for _, ok := range Filters {
		if f == ok {
			return true
		}
	}
	return false
}

// Accept is the demo's mutation step.
func Accept(_ context.Context, m model.Object, proposed model.Object) error {
	if text, ok := proposed["add"].(model.String); ok {
		id := m.Int("nextId")
		m["items"] = append(m.List("items"), model.Object{
			"id":   model.Int(id),
			"text": text,
			"done": model.Bool(false),
		})
		m["nextId"] = model.Int(id + 1)
	}
	if id, ok := proposed["toggle"].(model.Int); ok {
		item := findItem(m, int64(id))
		if item == nil {
			return fmt.Errorf("toggle: no item %d", id)
		}
		item["done"] = model.Bool(!item.Bool("done"))
	}
	if id, ok := proposed["remove"].(model.Int); ok {
		m["items"] = filterItems(m.List("items"), func(it model.Object) bool { return it.Int("id") != int64(id) })
	}
	if proposed.Bool("clear") {
		m["items"] = filterItems(m.List("items"), func(it model.Object) bool { return !it.Bool("done") })
	}
	if f, ok := proposed["filter"].(model.String); ok {
		m["filter"] = f
	}
	if page, ok := proposed["page"].(model.String); ok {
		m["page"] = page
		m["query"] = proposed.Obj("query")
	}
	return nil
}

// findItem returns the live item record, so toggling keeps its identity.
func findItem(m model.Object, id int64) model.Object {
	for _, v := range m.List("items") {
		if it, ok := v.(model.Object); ok && it.Int("id") == id {
			return it
		}
	}
	return nil
}

func filterItems(items model.List, keep func(model.Object) bool) model.List {
	out := model.List{}
	for _, v := range items {
		if it, ok := v.(model.Object); ok && keep(it) {
			out = append(out, it)
		}
	}
	return out
}

// NextAction syncs the filter with a ?filter= query parameter after
// navigation.
func NextAction(ctx context.Context, m model.Object, actions *engine.Actions) {
	wanted := m.Obj("query").List("filter")
	if len(wanted) == 0 {
		return
	}
	f, _ := wanted[len(wanted)-1].(model.String)
	if string(f) == m.Str("filter") || !validFilter(string(f)) {
		return
	}
	if _, err := actions.Call(ctx, "filter", f); err != nil {
		slog.Warn("filter from query failed", "filter", string(f), "error", err)
	}
}
