package dom

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"sync"

	"golang.org/x/net/html"
)

// Fragment is markup produced by a wire for one namespace.
type Fragment struct {
	Namespace string
	HTML      template.HTML
}

// String returns the raw markup.
func (f Fragment) String() string {
	return string(f.HTML)
}

// Wire binds templates to one namespace. A wire is reused across render
// passes as long as the namespace is unchanged.
type Wire interface {
	// Render executes src against data and returns the fragment.
	Render(src string, data any) (Fragment, error)
	// Target is the object the wire was last requested for.
	Target() any
	// Namespace is the namespace the wire is bound to.
	Namespace() string
}

// Templater is the templating boundary used by the render step.
type Templater interface {
	// Wire returns the wire bound to ns, creating it on first use.
	Wire(target any, ns string) Wire
	// Bind replaces the children of root with the fragment's nodes.
	Bind(root *html.Node, f Fragment) error
}

// HTMLTemplater implements Templater with html/template.
//
// Parsed templates are cached by source text and shared between wires;
// wires are cached by namespace. Sweep drops wires that were not requested
// since the previous sweep, so namespaces of removed components do not
// keep their targets alive.
//
// Thread-safety: safe for concurrent use.
type HTMLTemplater struct {
	mu      sync.Mutex
	funcs   template.FuncMap
	parsed  map[string]*template.Template
	wires   map[string]*htmlWire
	pass    uint64
	renders int
}

// NewHTMLTemplater creates a templater. funcs are made available to every
// template and may be nil.
func NewHTMLTemplater(funcs template.FuncMap) *HTMLTemplater {
	return &HTMLTemplater{
		funcs:  funcs,
		parsed: make(map[string]*template.Template),
		wires:  make(map[string]*htmlWire),
	}
}

// Wire implements Templater.
func (t *HTMLTemplater) Wire(target any, ns string) Wire {
	t.mu.Lock()
	defer t.mu.Unlock()

	w, ok := t.wires[ns]
	if !ok {
		w = &htmlWire{owner: t, ns: ns}
		t.wires[ns] = w
	}
	w.target = target
	w.pass = t.pass
	return w
}

// Bind implements Templater. The fragment is parsed in the context of
// root, so table rows and similar content keep their structure.
func (t *HTMLTemplater) Bind(root *html.Node, f Fragment) error {
	if root == nil || root.Type != html.ElementNode {
		return fmt.Errorf("bind %s: root must be an element", f.Namespace)
	}
	nodes, err := html.ParseFragment(strings.NewReader(string(f.HTML)), root)
	if err != nil {
		return fmt.Errorf("bind %s: %w", f.Namespace, err)
	}
	ReplaceChildren(root, nodes...)
	return nil
}

// Wires returns how many namespaces have been bound so far.
func (t *HTMLTemplater) Wires() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.wires)
}

// Sweep removes every wire not requested since the last sweep and starts
// a new pass. It returns the number of wires removed.
func (t *HTMLTemplater) Sweep() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	removed := 0
	for ns, w := range t.wires {
		if w.pass != t.pass {
			delete(t.wires, ns)
			removed++
		}
	}
	t.pass++
	return removed
}

// Renders returns the total number of wire renders.
func (t *HTMLTemplater) Renders() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.renders
}

func (t *HTMLTemplater) lookup(src string) (*template.Template, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.renders++
	if tmpl, ok := t.parsed[src]; ok {
		return tmpl, nil
	}
	tmpl, err := template.New("wire").Funcs(t.funcs).Parse(src)
	if err != nil {
		return nil, err
	}
	t.parsed[src] = tmpl
	return tmpl, nil
}

type htmlWire struct {
	owner  *HTMLTemplater
	ns     string
	target any
	pass   uint64
}

func (w *htmlWire) Render(src string, data any) (Fragment, error) {
	tmpl, err := w.owner.lookup(src)
	if err != nil {
		return Fragment{}, fmt.Errorf("parse template for %s: %w", w.ns, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return Fragment{}, fmt.Errorf("render %s: %w", w.ns, err)
	}
	return Fragment{Namespace: w.ns, HTML: template.HTML(buf.String())}, nil
}

func (w *htmlWire) Target() any {
	w.owner.mu.Lock()
	defer w.owner.mu.Unlock()
	return w.target
}

func (w *htmlWire) Namespace() string { return w.ns }
