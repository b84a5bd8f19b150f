package registry

import (
	"strconv"
	"strings"
)

// SegmentKind distinguishes the three kinds of namespace segment.
type SegmentKind int

const (
	// SegmentIdentity is a component identity.
	SegmentIdentity SegmentKind = iota + 1
	// SegmentKey is an explicit key supplied by the caller.
	SegmentKey
	// SegmentReference marks a rebind to a reference object.
	SegmentReference
)

// MarkerPrefix prefixes reference-marker segments. Explicit keys may not
// start with it, otherwise a key could impersonate a marker.
const MarkerPrefix = "#"

// Segment is one element of a namespace path.
type Segment struct {
	Kind SegmentKind
	ID   int64  // identity or reference identity
	Key  string // explicit key
}

// String renders the segment the way it appears in a namespace string.
func (s Segment) String() string {
	switch s.Kind {
	case SegmentKey:
		return s.Key
	case SegmentReference:
		return MarkerPrefix + strconv.FormatInt(s.ID, 10)
	default:
		return strconv.FormatInt(s.ID, 10)
	}
}

// Namespace is the ordered path addressing a render target.
// Namespaces are values: Compose never mutates its parent.
type Namespace []Segment

// String renders the namespace as ":" followed by ";"-joined segments.
// This string is what must be unique within one render pass.
func (ns Namespace) String() string {
	parts := make([]string, len(ns))
	for i, seg := range ns {
		parts[i] = seg.String()
	}
	return ":" + strings.Join(parts, ";")
}

// Markers returns the reference-marker strings in path order.
func (ns Namespace) Markers() []string {
	var markers []string
	for _, seg := range ns {
		if seg.Kind == SegmentReference {
			markers = append(markers, seg.String())
		}
	}
	return markers
}

// Depth counts the component identities along the path.
func (ns Namespace) Depth() int {
	n := 0
	for _, seg := range ns {
		if seg.Kind == SegmentIdentity {
			n++
		}
	}
	return n
}

func (ns Namespace) with(segs ...Segment) Namespace {
	out := make(Namespace, 0, len(ns)+len(segs))
	out = append(out, ns...)
	return append(out, segs...)
}
