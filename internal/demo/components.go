package demo

import (
	"html/template"

	"github.com/roach88/samwire/internal/component"
	"github.com/roach88/samwire/internal/container"
	"github.com/roach88/samwire/internal/dom"
	"github.com/roach88/samwire/internal/engine"
	"github.com/roach88/samwire/internal/model"
)

// Shared leaf components. They hold no state, so every container may use
// the same values.
var (
	TodoList = component.New("todo-list", renderTodoList)
	TodoItem = component.New("todo-item", renderTodoItem)
	ItemText = component.New("item-text", renderItemText)
	Footer   = component.New("footer", renderFooter)
)

// NewApp returns a root component. Each container needs its own root
// because the root tracks the current page for head updates.
func NewApp() *component.Component {
	head := container.NewHeadUpdater()
	return component.New("app", func(p *component.Props) (dom.Fragment, error) {
		return renderApp(p, head)
	})
}

const appTemplate = `{{.Head}}<header><h1>{{.Title}}</h1>` +
	`{{if .Busy}}<p class="busy">saving</p>{{end}}</header>` +
	`<input id="new-todo" placeholder="What needs doing?" {{.Add}}>` +
	`{{.List}}{{.Footer}}`

func renderApp(p *component.Props, head *container.HeadUpdater) (dom.Fragment, error) {
	list, err := p.Connect(TodoList, component.Plain(nil))
	if err != nil {
		return dom.Fragment{}, err
	}
	footer, err := p.Connect(Footer, component.Keyed("footer", nil))
	if err != nil {
		return dom.Fragment{}, err
	}
	headHTML, err := head.Update(p.Wire(), p.Model.Str("page"), p.Values.Str("title"), "A samwire demo")
	if err != nil {
		return dom.Fragment{}, err
	}
	return p.Render(appTemplate, map[string]any{
		"Head":   headHTML,
		"Title":  p.Values.Str("title"),
		"Busy":   p.Busy,
		"Add":    p.On("change", "add", engine.HandlerValue),
		"List":   list.HTML,
		"Footer": footer.HTML,
	})
}

const listTemplate = `<ul class="todo-list" data-filter="{{.Filter}}">{{.Items}}</ul>`

func renderTodoList(p *component.Props) (dom.Fragment, error) {
	filter := p.Model.Str("filter")
	var items template.HTML
	for _, v := range p.Model.List("items") {
		it, ok := v.(model.Object)
		if !ok || !visible(it, filter) {
			continue
		}
		f, err := p.Connect(TodoItem, component.Referenced(it, "", nil))
		if err != nil {
			return dom.Fragment{}, err
		}
		items += f.HTML
	}
	return p.Render(listTemplate, map[string]any{"Filter": filter, "Items": items})
}

func visible(it model.Object, filter string) bool {
	switch filter {
	case "active":
		return !it.Bool("done")
	case "done":
		return it.Bool("done")
	default:
		return true
	}
}

const itemTemplate = `<li data-id="{{.ID}}"{{if .Done}} class="done"{{end}}>` +
	`<input type="checkbox" {{.Toggle}} {{.Checked}}>{{.Text}}` +
	`<button class="remove" {{.Remove}}>x</button></li>`

func renderTodoItem(p *component.Props) (dom.Fragment, error) {
	id := p.Model.Int("id")
	text, err := p.Connect(ItemText, component.Plain(nil))
	if err != nil {
		return dom.Fragment{}, err
	}
	var checked template.HTMLAttr
	if p.Model.Bool("done") {
		checked = "checked"
	}
	return p.Render(itemTemplate, map[string]any{
		"ID":      id,
		"Done":    p.Model.Bool("done"),
		"Checked": checked,
		"Toggle":  p.On("click", "toggle", "", model.Int(id)),
		"Remove":  p.On("click", "remove", "", model.Int(id)),
		"Text":    text.HTML,
	})
}

// renderItemText has no reference of its own; it binds to the item its
// parent referenced.
func renderItemText(p *component.Props) (dom.Fragment, error) {
	return p.Render(`<span class="text">{{.Str "text"}}</span>`, p.Model)
}

const footerTemplate = `<footer><span class="count">{{.Left}} left</span>` +
	`{{range .Filters}}<a href="?filter={{.Name}}"{{if .Selected}} class="selected"{{end}} {{.On}}>{{.Name}}</a>{{end}}` +
	`<button class="clear" {{.Clear}}>clear done</button></footer>`

type filterLink struct {
	Name     string
	Selected bool
	On       template.HTMLAttr
}

func renderFooter(p *component.Props) (dom.Fragment, error) {
	left := 0
	for _, v := range p.Model.List("items") {
		if it, ok := v.(model.Object); ok && !it.Bool("done") {
			left++
		}
	}
	links := make([]filterLink, 0, len(Filters))
	for _, f := range Filters {
		links = append(links, filterLink{
			Name:     f,
			Selected: f == p.Model.Str("filter"),
			On:       p.On("click", "filter", "", model.String(f)),
		})
	}
	return p.Render(footerTemplate, map[string]any{
		"Left":    left,
		"Filters": links,
		"Clear":   p.On("click", "clear", ""),
	})
}
