// Package server serves server-rendered pages over HTTP.
//
// Every page request gets its own container: the demo application is
// seeded from the manifest (if any), routed to the request URL, rendered
// with the state carrier, and discarded. Loop events from those
// containers feed the Prometheus collectors and, optionally, a journal.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/roach88/samwire/internal/journal"
	"github.com/roach88/samwire/internal/manifest"
	"github.com/roach88/samwire/internal/metrics"
)

// Config configures a Server.
type Config struct {
	// Addr is the listen address used by Run. Default: ":8080".
	Addr string

	// Manifest seeds each page's model and routing. The demo's own model
	// is used when nil.
	Manifest *manifest.Manifest

	// Registry receives the loop collectors and backs /metrics. A fresh
	// registry is created when nil.
	Registry *prometheus.Registry

	// Journal, when set, records every request's loop events under a
	// fresh request ID.
	Journal *journal.Journal

	// Logger defaults to a discarding logger.
	Logger *slog.Logger
}

// Server is the HTTP front end.
type Server struct {
	cfg     Config
	router  *gin.Engine
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// New creates a server and registers its routes.
func New(cfg Config) *Server {
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if cfg.Registry == nil {
		cfg.Registry = prometheus.NewRegistry()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	s := &Server{
		cfg:     cfg,
		metrics: metrics.New(cfg.Registry),
		logger:  logger,
	}
	s.initRouter()
	return s
}

func (s *Server) initRouter() {
	s.router = gin.New()
	s.router.Use(gin.Recovery(), s.requestLogger())

	s.router.GET("/health", HealthCheck)
	s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.cfg.Registry, promhttp.HandlerOpts{})))
	s.router.POST("/render", s.HandleRender)
	s.router.GET("/trace/:run", s.HandleTrace)
	s.router.NoRoute(s.HandlePage)
}

// requestLogger logs one line per request.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Metrics returns the loop collectors.
func (s *Server) Metrics() *metrics.Metrics {
	return s.metrics
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
		s.logger.Info("server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}
