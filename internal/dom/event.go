package dom

import "golang.org/x/net/html"

// Event is a UI event delivered to a listener.
type Event struct {
	// Type is the event type without the "on" prefix, e.g. "click".
	Type string
	// Target is the element the event fired on.
	Target *html.Node
	// Value is the current value of form controls; empty otherwise.
	Value string
}

// TargetAttr reads an attribute from the event target.
func (e Event) TargetAttr(key string) string {
	v, _ := Attr(e.Target, key)
	return v
}
