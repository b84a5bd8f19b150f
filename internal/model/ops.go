package model

import "strings"

// Clone returns a deep copy. Object identity is not preserved, so clones
// must never be handed to components as binding references.
func Clone(v Value) Value {
	switch val := v.(type) {
	case List:
		out := make(List, len(val))
		for i, elem := range val {
			out[i] = Clone(elem)
		}
		return out
	case Object:
		return val.Clone()
	default:
		return v
	}
}

// Clone returns a deep copy of the object.
func (o Object) Clone() Object {
	if o == nil {
		return nil
	}
	out := make(Object, len(o))
	for k, v := range o {
		out[k] = Clone(v)
	}
	return out
}

// Equal reports whether two values are structurally equal. A nil Value
// equals Null.
func Equal(a, b Value) bool {
	if a == nil {
		a = Null{}
	}
	if b == nil {
		b = Null{}
	}
	switch av := a.(type) {
	case List:
		bv, ok := b.(List)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	case Object:
		bv, ok := b.(Object)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			other, ok := bv[k]
			if !ok || !Equal(v, other) {
				return false
			}
		}
		return true
	default:
		return a == b
	}
}

// Lookup follows a dotted path of object keys ("todos.filter").
func (o Object) Lookup(path string) (Value, bool) {
	var cur Value = o
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(Object)
		if !ok {
			return nil, false
		}
		cur, ok = obj[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// Str returns the string at key, or "" when absent or not a string.
func (o Object) Str(key string) string {
	if s, ok := o[key].(String); ok {
		return string(s)
	}
	return ""
}

// Int returns the integer at key, or 0.
func (o Object) Int(key string) int64 {
	if i, ok := o[key].(Int); ok {
		return int64(i)
	}
	return 0
}

// Bool returns the boolean at key, or false.
func (o Object) Bool(key string) bool {
	if b, ok := o[key].(Bool); ok {
		return bool(b)
	}
	return false
}

// Obj returns the object at key, or nil.
func (o Object) Obj(key string) Object {
	if obj, ok := o[key].(Object); ok {
		return obj
	}
	return nil
}

// List returns the list at key, or nil.
func (o Object) List(key string) List {
	if l, ok := o[key].(List); ok {
		return l
	}
	return nil
}
