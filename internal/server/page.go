package server

import (
	"context"
	"fmt"
	"net/url"

	"github.com/google/uuid"

	"github.com/roach88/samwire/internal/demo"
	"github.com/roach88/samwire/internal/engine"
	"github.com/roach88/samwire/internal/model"
	"github.com/roach88/samwire/internal/route"
	"github.com/roach88/samwire/internal/ssr"
)

// Page is one rendered document.
type Page struct {
	// Run is the ID the page's loop events were journaled under.
	Run string

	// HTML is the complete document.
	HTML string

	// Model is the model the document was rendered from.
	Model model.Object
}

// RenderPage renders the document for loc after accepting proposed, in
// order. The returned page carries its run ID even on error.
func (s *Server) RenderPage(ctx context.Context, loc *url.URL, proposed []model.Object) (*Page, error) {
	page := &Page{Run: uuid.Must(uuid.NewV7()).String()}

	opts := demo.Options()
	opts.Model = demo.InitialModel()
	title, description, lang := "Todos", "", "en"
	if m := s.cfg.Manifest; m != nil {
		opts = m.Apply(opts)
		title, description, lang = m.Title, m.Description, m.Lang
	}
	loop := engine.NewLoop()
	opts.Scheduler = loop
	opts.Logger = s.logger
	opts.Observers = []engine.Observer{s.metrics}
	if s.cfg.Journal != nil {
		opts.Observers = append(opts.Observers, s.cfg.Journal.Recorder(page.Run))
	}

	r, err := ssr.New(opts, ssr.WithLang(lang))
	if err != nil {
		return page, err
	}
	for i, p := range proposed {
		if err := r.Accept(ctx, p); err != nil {
			return page, &proposalError{index: i, err: err}
		}
	}
	if _, err := route.Initial(ctx, r.Container().Actions(), loc); err != nil {
		return page, fmt.Errorf("route %s: %w", loc, err)
	}
	loop.Drain(ctx)

	if page.HTML, err = r.RenderDocument(ctx, title, description); err != nil {
		return page, err
	}
	page.Model = r.Container().Model()
	return page, nil
}

// proposalError reports a request proposal the accept step refused.
type proposalError struct {
	index int
	err   error
}

func (e *proposalError) Error() string {
	return fmt.Sprintf("proposals[%d]: %v", e.index, e.err)
}

func (e *proposalError) Unwrap() error {
	return e.err
}
