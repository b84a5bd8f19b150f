package registry

import (
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"sync"
)

// Registry assigns identities to components and references and tracks the
// namespaces composed during one render pass.
//
// Identities live as long as the registry (one container). The namespace
// set and the reference cache are per pass and are cleared by Reset at
// the start of every render.
//
// References are identified by address: pointers, maps and channels. The
// registry keeps every identified reference in an append-only arena, so an
// address can never be recycled for a different object while the registry
// is alive.
//
// Thread-safety: all methods are safe for concurrent use, although a
// container only calls them from its serialized render step.
type Registry struct {
	mu    sync.Mutex
	ids   *IDs
	index map[handle]int64
	arena []any

	namespaces  map[string]struct{}
	refs        map[string]any
	collisions  []string
	onCollision func(namespace string)
	logger      *slog.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithIDs uses the given identity sequence.
func WithIDs(ids *IDs) Option {
	return func(r *Registry) {
		r.ids = ids
	}
}

// WithCollisionHook calls fn for every namespace collision, after logging.
func WithCollisionHook(fn func(namespace string)) Option {
	return func(r *Registry) {
		r.onCollision = fn
	}
}

// WithLogger sets the logger used for collision diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = l
	}
}

// New creates an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		ids:        NewIDs(),
		index:      make(map[handle]int64),
		namespaces: make(map[string]struct{}),
		refs:       make(map[string]any),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

type handle struct {
	typ reflect.Type
	ptr uintptr
}

func handleOf(ref any) handle {
	if ref == nil {
		panic("samwire: identity requested for nil reference")
	}
	v := reflect.ValueOf(ref)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Chan, reflect.UnsafePointer:
		if v.IsNil() {
			panic(fmt.Sprintf("samwire: identity requested for nil %T", ref))
		}
		return handle{typ: v.Type(), ptr: v.Pointer()}
	default:
		panic(fmt.Sprintf("samwire: %T has no reference identity", ref))
	}
}

// Identity returns the identity of ref, assigning the next one on first
// sight. Two distinct references never share an identity, even when their
// contents are equal.
func (r *Registry) Identity(ref any) int64 {
	h := handleOf(ref)

	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok := r.index[h]; ok {
		return id
	}
	id := r.ids.Next()
	r.index[h] = id
	r.arena = append(r.arena, ref)
	return id
}

// Compose builds a child namespace: parent, then the child's identity,
// then key (if non-empty), then a marker for ref (if non-nil). A marker is
// recorded in the pass cache so descendants can resolve it.
//
// Panics if key starts with MarkerPrefix.
func (r *Registry) Compose(parent Namespace, id int64, key string, ref any) Namespace {
	segs := []Segment{{Kind: SegmentIdentity, ID: id}}
	if key != "" {
		if strings.HasPrefix(key, MarkerPrefix) {
			panic(fmt.Sprintf("samwire: key %q collides with reference markers", key))
		}
		segs = append(segs, Segment{Kind: SegmentKey, Key: key})
	}
	if ref != nil {
		refID := r.Identity(ref)
		marker := Segment{Kind: SegmentReference, ID: refID}
		segs = append(segs, marker)

		r.mu.Lock()
		r.refs[marker.String()] = ref
		r.mu.Unlock()
	}
	return parent.with(segs...)
}

// Register records ns in the current pass. It returns false when the
// namespace was already registered; the collision is logged and reported
// to the hook, and the caller keeps rendering.
func (r *Registry) Register(ns Namespace) bool {
	key := ns.String()

	r.mu.Lock()
	_, dup := r.namespaces[key]
	if !dup {
		r.namespaces[key] = struct{}{}
	} else {
		r.collisions = append(r.collisions, key)
	}
	hook := r.onCollision
	r.mu.Unlock()

	if dup {
		r.logger.Warn("duplicate namespace", "namespace", key)
		if hook != nil {
			hook(key)
		}
	}
	return !dup
}

// Resolve returns the reference bound to the nearest marker in ns, scanning
// from the most specific segment outwards.
func (r *Registry) Resolve(ns Namespace) (any, bool) {
	markers := ns.Markers()

	r.mu.Lock()
	defer r.mu.Unlock()

	for i := len(markers) - 1; i >= 0; i-- {
		if ref, ok := r.refs[markers[i]]; ok {
			return ref, true
		}
	}
	return nil, false
}

// Reset clears the per-pass namespace set, reference cache and collision
// list. Identities are kept.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	clear(r.namespaces)
	clear(r.refs)
	r.collisions = nil
}

// Collisions returns the namespaces that collided in the current pass.
func (r *Registry) Collisions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.collisions...)
}

// Stats is a snapshot of registry sizes.
type Stats struct {
	Identities int
	Namespaces int
	References int
}

// Stats returns the current sizes.
func (r *Registry) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Stats{
		Identities: len(r.index),
		Namespaces: len(r.namespaces),
		References: len(r.refs),
	}
}
