// Package web provides the HTTP server and handlers for the conversion
// service. It is transport glue only: all conversion semantics live in
// internal/tabular.
package web

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/sheetbridge/sheetbridge/internal/audit"
	"github.com/sheetbridge/sheetbridge/internal/config"
	"github.com/sheetbridge/sheetbridge/internal/tabular"
)

// Server is the HTTP front end of the conversion service.
type Server struct {
	cfg      *config.Config
	codec    tabular.Codec
	recorder audit.Recorder
	router   *chi.Mux
	server   *http.Server
}

// NewServer creates a server using the given spreadsheet codec and audit
// recorder.
func NewServer(cfg *config.Config, codec tabular.Codec, recorder audit.Recorder) *Server {
	s := &Server{
		cfg:      cfg,
		codec:    codec,
		recorder: recorder,
		router:   chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/profiles", s.handleListProfiles)
		r.Get("/template/{profileKey}", s.handleDownloadTemplate)
		r.Post("/convert/{profileKey}", s.handleConvert)
		r.Post("/generate/{profileKey}", s.handleGenerate)
	})
}

// Handler returns the root handler, used directly by tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start begins serving and blocks until the listener fails or is shut down.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}
	return s.server.ListenAndServe()
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
