package server

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/roach88/samwire/internal/model"
)

// RequestIDHeader carries the ID a page's loop events were journaled under.
const RequestIDHeader = "X-Samwire-Run"

// ErrorResponse is the JSON body of a failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// RenderRequest asks for a page rendered after the given proposals.
type RenderRequest struct {
	// Path is the location to route to. Default: "/".
	Path string `json:"path"`

	// Proposals are accepted in order before rendering.
	Proposals []map[string]any `json:"proposals" binding:"required"`
}

// TraceEvent is one journaled event in a trace response.
type TraceEvent struct {
	Seq     int64  `json:"seq"`
	Kind    string `json:"kind"`
	Name    string `json:"name,omitempty"`
	Token   string `json:"token,omitempty"`
	Outcome string `json:"outcome,omitempty"`
	Phase   string `json:"phase,omitempty"`
	Error   string `json:"error,omitempty"`
}

// HealthCheck reports that the server is up.
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// HandlePage renders the page for any unmatched GET path.
func (s *Server) HandlePage(c *gin.Context) {
	if c.Request.Method != http.MethodGet {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "not found", Code: "NOT_FOUND"})
		return
	}
	s.writePage(c, c.Request.URL, nil)
}

// HandleRender renders a page after accepting the request's proposals.
func (s *Server) HandleRender(c *gin.Context) {
	logger := s.logger.With("handler", "HandleRender")

	var req RenderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Code: "INVALID_REQUEST"})
		return
	}
	if req.Path == "" {
		req.Path = "/"
	}
	loc, err := url.Parse(req.Path)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "INVALID_PATH"})
		return
	}

	proposed := make([]model.Object, 0, len(req.Proposals))
	for _, p := range req.Proposals {
		o, err := model.ObjectFromAny(p)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "INVALID_PROPOSAL"})
			return
		}
		proposed = append(proposed, o)
	}
	s.writePage(c, loc, proposed)
}

func (s *Server) writePage(c *gin.Context, loc *url.URL, proposed []model.Object) {
	page, err := s.RenderPage(c.Request.Context(), loc, proposed)
	c.Header(RequestIDHeader, page.Run)
	if err != nil {
		var pe *proposalError
		if errors.As(err, &pe) {
			c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error(), Code: "PROPOSAL_REJECTED"})
			return
		}
		s.logger.Error("render failed", "path", loc.Path, "run", page.Run, "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "render failed", Code: "RENDER_FAILED"})
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(page.HTML))
}

// HandleTrace returns the journaled events of one request.
func (s *Server) HandleTrace(c *gin.Context) {
	if s.cfg.Journal == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "journal disabled", Code: "NO_JOURNAL"})
		return
	}
	run := c.Param("run")
	events, err := s.cfg.Journal.Read(c.Request.Context(), run)
	if err != nil {
		s.logger.Error("trace read failed", "run", run, "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "trace read failed", Code: "JOURNAL_FAILED"})
		return
	}
	if len(events) == 0 {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "unknown run", Code: "UNKNOWN_RUN"})
		return
	}
	trace := make([]TraceEvent, len(events))
	for i, ev := range events {
		trace[i] = TraceEvent{
			Seq:     ev.Seq,
			Kind:    string(ev.Kind),
			Name:    ev.Name,
			Token:   ev.Token,
			Outcome: string(ev.Outcome),
			Phase:   string(ev.Phase),
			Error:   ev.Error,
		}
	}
	c.JSON(http.StatusOK, gin.H{"run": run, "trace": trace})
}
