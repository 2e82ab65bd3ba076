// Package server exposes the diagram pipeline over HTTP.
//
// Routes:
//
//	GET    /healthz                  liveness and build info
//	POST   /v1/packet/parse          source → diagram JSON and diagnostics
//	POST   /v1/packet/render         source → SVG (or JSON with ?format=json)
//	POST   /v1/shapes/{kind}         node JSON → SVG of a single shape
//	POST   /v1/diagrams              save a source, returns its ID
//	GET    /v1/diagrams/{id}         saved source
//	GET    /v1/diagrams/{id}/svg     saved source rendered as SVG
//	DELETE /v1/diagrams/{id}         remove a saved source
//
// Errors are JSON objects carrying the code from pkg/errors and the request
// ID. The status follows [errors.HTTPStatus].
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/diagramkit/pkg/pipeline"
	"github.com/matzehuels/diagramkit/pkg/store"
)

// Config configures the HTTP server.
type Config struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	MaxBodyBytes    int64
}

// DefaultConfig returns the server defaults.
func DefaultConfig() Config {
	return Config{
		Addr:            ":8080",
		ReadTimeout:     10 * time.Second,
		WriteTimeout:    30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		MaxBodyBytes:    2 << 20,
	}
}

// Server hosts the diagram API.
type Server struct {
	runner *pipeline.Runner
	store  store.Store
	logger *log.Logger
	cfg    Config
	router chi.Router
}

// New creates a server on runner and st. A nil store disables the
// /v1/diagrams routes.
func New(runner *pipeline.Runner, st store.Store, logger *log.Logger, cfg Config) *Server {
	if logger == nil {
		logger = log.Default()
	}
	def := DefaultConfig()
	if cfg.Addr == "" {
		cfg.Addr = def.Addr
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = def.MaxBodyBytes
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = def.ShutdownTimeout
	}
	s := &Server{runner: runner, store: st, logger: logger, cfg: cfg}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(s.requestID)
	r.Use(s.logRequests)
	r.Use(s.recoverPanics)

	r.Get("/healthz", s.handleHealth)

	r.Route("/v1", func(r chi.Router) {
		r.Use(s.limitBody)

		r.Post("/packet/parse", s.handlePacketParse)
		r.Post("/packet/render", s.handlePacketRender)
		r.Post("/shapes/{kind}", s.handleShape)

		if s.store != nil {
			r.Post("/diagrams", s.handleSaveDiagram)
			r.Get("/diagrams/{id}", s.handleGetDiagram)
			r.Get("/diagrams/{id}/svg", s.handleRenderDiagram)
			r.Delete("/diagrams/{id}", s.handleDeleteDiagram)
		}
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, r, notFound("no route for %s %s", r.Method, r.URL.Path))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{
			Error:     errorBody{Code: "METHOD_NOT_ALLOWED", Message: r.Method + " is not allowed here"},
			RequestID: requestIDFrom(r.Context()),
		})
	})
	return r
}

// Handler returns the server's root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe runs the HTTP server until the context ends.
func (s *Server) ListenAndServe(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	serveErr := make(chan error, 1)
	s.logger.Info("listening", "addr", s.cfg.Addr)
	go func() {
		serveErr <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		err := httpServer.Shutdown(shutdownCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		s.logger.Info("server stopped")
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}
}
