// Package dom is the boundary between the render step and the document.
//
// Documents are golang.org/x/net/html node trees. Components produce
// Fragments through Wires obtained from a Templater; the container binds
// the root fragment into the root element once per render pass.
package dom
