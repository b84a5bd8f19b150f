package route

import (
	"context"
	"errors"
	"log/slog"
	"net/url"

	"github.com/roach88/samwire/internal/engine"
	"github.com/roach88/samwire/internal/model"
)

// Navigation is a navigation-state change. State carries the previous
// path token for history-driven changes and is empty on page load.
type Navigation struct {
	State    string
	Location *url.URL
}

// ErrNoLocation is returned for a navigation or startup route that has no
// location to route to.
var ErrNoLocation = errors.New("route: navigation without location")

// Bridge forwards navigation to the route action.
type Bridge struct {
	actions func() *engine.Actions
	logger  *slog.Logger
}

// NewBridge creates a bridge resolving the route action through actions
// on every navigation.
func NewBridge(actions func() *engine.Actions, logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bridge{actions: actions, logger: logger}
}

// OnNavigate handles a navigation. Page loads (empty State) are ignored;
// the startup route is derived by Initial. Returns false without error
// when the application has no route action.
func (b *Bridge) OnNavigate(ctx context.Context, nav Navigation) (bool, error) {
	if nav.State == "" {
		b.logger.Debug("navigation ignored: page load")
		return false, nil
	}
	if nav.Location == nil {
		return false, ErrNoLocation
	}
	action, ok := b.actions().Get(ActionName)
	if !ok {
		return false, nil
	}
	b.logger.Debug("navigation", "from", nav.State, "to", Token(nav.Location))
	return action(ctx, model.String(nav.State), model.String(nav.Location.String()))
}

// Initial proposes the startup route for loc.
func Initial(ctx context.Context, actions *engine.Actions, loc *url.URL) (bool, error) {
	if loc == nil {
		return false, ErrNoLocation
	}
	action, ok := actions.Get(ActionName)
	if !ok {
		return false, nil
	}
	return action(ctx, model.String(""), model.String(loc.String()))
}
