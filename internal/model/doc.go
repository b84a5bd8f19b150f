// Package model defines the value system of a samwire container's model.
//
// A model is an Object: a string-keyed mapping of constrained values
// (Null, String, Int, Bool, List, Object). The constraint keeps the
// server-to-client state carrier exact: a model serialized with
// MarshalCanonical and parsed back with ParseObject is Equal to the
// original.
//
// Objects nested inside the model double as binding references. A
// component that renders one item of a list passes that item's Object as
// its reference, and the registry identifies it by map identity, never by
// value, so two items with equal contents still get distinct addresses.
package model
