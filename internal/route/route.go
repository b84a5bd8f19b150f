// Package route turns navigation into route proposals.
//
// The route table itself belongs to the application. This package only
// derives {page, path, query} from a location and feeds it through the
// reserved "route" action.
package route

import (
	"context"
	"fmt"
	"net/url"
	"regexp"

	"github.com/roach88/samwire/internal/engine"
	"github.com/roach88/samwire/internal/model"
)

// ActionName is the reserved action the bridge invokes.
const ActionName = "route"

// DefaultSegment is used when the path has no leading segment.
const DefaultSegment = "index"

var segmentPattern = regexp.MustCompile(`^/([^/?#]+)`)

// Config configures route derivation.
type Config struct {
	// DefaultSegment replaces an empty leading segment. Default: "index".
	DefaultSegment string
}

func (c Config) defaultSegment() string {
	if c.DefaultSegment == "" {
		return DefaultSegment
	}
	return c.DefaultSegment
}

// Route is a parsed location.
type Route struct {
	Page  string
	Path  string
	Query map[string][]string
}

// Object returns the route as a proposal value.
func (r Route) Object() model.Object {
	query := model.Object{}
	for k, vs := range r.Query {
		query[k] = model.Strings(vs...)
	}
	return model.Object{
		"page":  model.String(r.Page),
		"path":  model.String(r.Path),
		"query": query,
	}
}

// Parse derives the route for loc. Every value of a repeated query key is
// kept, in order.
func Parse(loc *url.URL, cfg Config) Route {
	r := Route{Page: cfg.defaultSegment(), Path: Token(loc), Query: map[string][]string{}}
	if m := segmentPattern.FindStringSubmatch(loc.EscapedPath()); m != nil {
		if seg, err := url.PathUnescape(m[1]); err == nil {
			r.Page = seg
		} else {
			r.Page = m[1]
		}
	}
	for k, vs := range loc.Query() {
		r.Query[k] = append([]string(nil), vs...)
	}
	return r
}

// Token is the path token compared between navigations: the escaped path
// plus the raw query, without the fragment.
func Token(loc *url.URL) string {
	p := loc.EscapedPath()
	if p == "" {
		p = "/"
	}
	if loc.RawQuery != "" {
		p += "?" + loc.RawQuery
	}
	return p
}

// Changed reports whether loc differs from the previous path token.
func Changed(prev string, loc *url.URL) bool {
	return prev != Token(loc)
}

// Proposal returns the route proposal value, or nil if the location has
// not changed since prev.
func Proposal(prev string, loc *url.URL, cfg Config) model.Object {
	if !Changed(prev, loc) {
		return nil
	}
	return Parse(loc, cfg).Object()
}

// NewAction returns the synthesized route action. It takes the previous
// path token and the current location href as string arguments and
// proposes cancellably, so only the latest navigation can land.
func NewAction(cfg Config) engine.ActionConstructor {
	return func(propose engine.ProposeFunc) engine.Action {
		return func(ctx context.Context, args ...model.Value) (bool, error) {
			prev, href, err := routeArgs(args)
			if err != nil {
				return false, err
			}
			loc, err := url.Parse(href)
			if err != nil {
				return false, fmt.Errorf("route %q: %w", href, err)
			}
			return propose(ctx, engine.Proposal{
				Name:        ActionName,
				Value:       engine.Resolved(Proposal(prev, loc, cfg)),
				Cancellable: true,
			})
		}
	}
}

func routeArgs(args []model.Value) (prev, href string, err error) {
	if len(args) != 2 {
		return "", "", fmt.Errorf("route: want (previous, href), got %d arguments", len(args))
	}
	p, ok1 := args[0].(model.String)
	h, ok2 := args[1].(model.String)
	if !ok1 || !ok2 {
		return "", "", fmt.Errorf("route: arguments must be strings")
	}
	return string(p), string(h), nil
}
