package component

import "github.com/roach88/samwire/internal/model"

// Shape is how a parent invokes a child: Plain, Keyed or Referenced.
type Shape interface {
	parts() (key string, ref model.Object, values model.Object)
}

type plain struct{ values model.Object }

func (s plain) parts() (string, model.Object, model.Object) { return "", nil, s.values }

type keyed struct {
	key    string
	values model.Object
}

func (s keyed) parts() (string, model.Object, model.Object) { return s.key, nil, s.values }

type referenced struct {
	ref    model.Object
	key    string
	values model.Object
}

func (s referenced) parts() (string, model.Object, model.Object) { return s.key, s.ref, s.values }

// Plain invokes a child with extra values merged into its props.
// values may be nil.
func Plain(values model.Object) Shape {
	return plain{values: values}
}

// Keyed invokes a child under an explicit key, so siblings of the same
// component get distinct namespaces. Keys may not start with "#".
func Keyed(key string, values model.Object) Shape {
	return keyed{key: key, values: values}
}

// Referenced binds the child (and its descendants) to ref, a record
// inside the model, optionally under a key. ref must not be nil.
func Referenced(ref model.Object, key string, values model.Object) Shape {
	if ref == nil {
		panic("samwire: referenced call with nil reference")
	}
	return referenced{ref: ref, key: key, values: values}
}
