// Package manifest loads an application manifest written in CUE.
//
// A manifest names the application, supplies its initial model and
// configures routing:
//
//	title: "Todos"
//	model: {
//		items: []
//		filter: "all"
//	}
//	route: default: "home"
//
// The model may only hold strings, integers, booleans, null, lists and
// structs. Floats are rejected with the position of the offending field.
package manifest

import (
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/roach88/samwire/internal/container"
	"github.com/roach88/samwire/internal/model"
	"github.com/roach88/samwire/internal/route"
)

//go:embed schema.cue
var schemaCUE string

// Manifest is a compiled application manifest.
type Manifest struct {
	Title       string
	Description string
	Lang        string
	Model       model.Object
	Route       route.Config
}

// CompileError reports an invalid manifest field.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// LoadFile compiles the manifest in a single CUE file.
func LoadFile(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	ctx := cuecontext.New()
	return Compile(ctx.CompileBytes(data, cue.Filename(path)))
}

// LoadDir compiles the CUE package in dir.
func LoadDir(dir string) (*Manifest, error) {
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, fmt.Errorf("load manifest: no CUE instances in %s", dir)
	}
	if err := instances[0].Err; err != nil {
		return nil, fmt.Errorf("load manifest: %w", err)
	}
	ctx := cuecontext.New()
	return Compile(ctx.BuildInstance(instances[0]))
}

// Compile validates v against the manifest schema and converts it.
func Compile(v cue.Value) (*Manifest, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	schema := v.Context().CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("manifest schema: %w", err)
	}

	if !v.LookupPath(cue.ParsePath("title")).Exists() {
		return nil, &CompileError{Field: "title", Message: "title is required", Pos: v.Pos()}
	}
	if !v.LookupPath(cue.ParsePath("model")).Exists() {
		return nil, &CompileError{Field: "model", Message: "model is required", Pos: v.Pos()}
	}

	unified := schema.LookupPath(cue.ParsePath("#Manifest")).Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	m := &Manifest{}
	var err error
	if m.Title, err = unified.LookupPath(cue.ParsePath("title")).String(); err != nil {
		return nil, formatCUEError(err)
	}
	if m.Lang, err = unified.LookupPath(cue.ParsePath("lang")).String(); err != nil {
		return nil, formatCUEError(err)
	}
	if d := unified.LookupPath(cue.ParsePath("description")); d.Exists() {
		if m.Description, err = d.String(); err != nil {
			return nil, formatCUEError(err)
		}
	}
	if seg := unified.LookupPath(cue.ParsePath("route.default")); seg.Exists() {
		if m.Route.DefaultSegment, err = seg.String(); err != nil {
			return nil, formatCUEError(err)
		}
	}

	mv, err := toValue(unified.LookupPath(cue.ParsePath("model")), "model")
	if err != nil {
		return nil, err
	}
	m.Model = mv.(model.Object)
	if _, ok := m.Model["title"]; !ok {
		m.Model["title"] = model.String(m.Title)
	}
	return m, nil
}

// Apply fills the model and routing configuration of opts. The model is
// cloned so one manifest can seed many containers.
func (m *Manifest) Apply(opts container.Options) container.Options {
	opts.Model = m.Model.Clone()
	opts.Route = m.Route
	return opts
}

// toValue converts a concrete CUE value to a model value.
func toValue(v cue.Value, field string) (model.Value, error) {
	switch v.Kind() {
	case cue.NullKind:
		return model.Null{}, nil
	case cue.BoolKind:
		b, err := v.Bool()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return model.Bool(b), nil
	case cue.IntKind:
		i, err := v.Int64()
		if err != nil {
			return nil, &CompileError{Field: field, Message: err.Error(), Pos: v.Pos()}
		}
		return model.Int(i), nil
	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return model.String(s), nil
	case cue.ListKind:
		iter, err := v.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		l := model.List{}
		for i := 0; iter.Next(); i++ {
			elem, err := toValue(iter.Value(), fmt.Sprintf("%s[%d]", field, i))
			if err != nil {
				return nil, err
			}
			l = append(l, elem)
		}
		return l, nil
	case cue.StructKind:
		iter, err := v.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		o := model.Object{}
		for iter.Next() {
			elem, err := toValue(iter.Value(), field+"."+iter.Label())
			if err != nil {
				return nil, err
			}
			o[iter.Label()] = elem
		}
		return o, nil
	case cue.FloatKind:
		return nil, &CompileError{Field: field, Message: "floats are not allowed in the model", Pos: v.Pos()}
	default:
		return nil, &CompileError{Field: field, Message: fmt.Sprintf("unsupported value kind %s", v.Kind()), Pos: v.Pos()}
	}
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return &CompileError{Field: "cue", Message: err.Error()}
	}
	first := errs[0]
	ce := &CompileError{Field: "cue", Message: first.Error()}
	if positions := errors.Positions(first); len(positions) > 0 {
		ce.Pos = positions[0]
	}
	return ce
}
