package container

import (
	"html/template"
	"sync"

	"github.com/roach88/samwire/internal/dom"
)

// Element ids of the head carriers.
const (
	PageTitleID       = "page-title"
	PageDescriptionID = "page-description"
)

const headTemplate = `<input id="page-title" value="{{.Title}}" type="hidden">` +
	`<input id="page-description" value="{{.Description}}" type="hidden">` +
	`<script>document.title = document.getElementById("page-title").value;` +
	`document.querySelector('meta[name="description"]').content = document.getElementById("page-description").value;` +
	`document.getElementById("Main").focus();</script>`

// HeadUpdater emits the carriers that update the document head on page
// changes. The first page is left alone because the server already
// rendered its head.
type HeadUpdater struct {
	mu      sync.Mutex
	current string
}

// NewHeadUpdater creates an updater with no page seen yet.
func NewHeadUpdater() *HeadUpdater {
	return &HeadUpdater{}
}

// Update returns the head carriers when page differs from the previous
// page, and an empty fragment otherwise.
func (h *HeadUpdater) Update(w dom.Wire, page, title, description string) (template.HTML, error) {
	h.mu.Lock()
	first := h.current == ""
	same := h.current == page
	h.current = page
	h.mu.Unlock()

	if first || same {
		return "", nil
	}
	f, err := w.Render(headTemplate, struct{ Title, Description string }{title, description})
	if err != nil {
		return "", err
	}
	return f.HTML, nil
}
