// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes the formatting pipeline as an HTTP API: upload
// a manuscript and figures, process them into a styled document, then
// preview, validate, and download the artifacts. Sessions are held in
// memory and swept on a schedule; completed runs are recorded in the
// history store.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/pdiddy/camera-ready/internal/history"
	"github.com/pdiddy/camera-ready/internal/session"
	"github.com/pdiddy/camera-ready/internal/template"
	"github.com/pdiddy/camera-ready/pkg/types"
)

// Server wires the HTTP handlers to their dependencies.
type Server struct {
	cfg       types.Config
	logger    *slog.Logger
	sessions  *session.Store
	templates *template.Registry
	history   *history.Store
}

// New assembles a server. The history store may be nil, in which case
// completed runs are not recorded.
func New(cfg types.Config, logger *slog.Logger, sessions *session.Store, templates *template.Registry, hist *history.Store) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		cfg:       cfg,
		logger:    logger,
		sessions:  sessions,
		templates: templates,
		history:   hist,
	}
}

// Router builds the chi route table.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/upload", s.handleUpload)
		r.Post("/process", s.handleProcess)
		r.Get("/preview/{id}", s.handlePreview)
		r.Get("/download/{id}/{format}", s.handleDownload)
		r.Get("/validate/{id}", s.handleValidate)
		r.Get("/settings/{id}", s.handleGetSettings)
		r.Post("/settings/{id}", s.handleUpdateSettings)
		r.Get("/templates", s.handleTemplates)
		r.Get("/session/{id}", s.handleSession)
		r.Delete("/cleanup/{id}", s.handleCleanup)
	})

	return r
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", s.cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info("server stopped")
	return nil
}

// getSession resolves a path id, writing the 404 itself when unknown.
func (s *Server) getSession(w http.ResponseWriter, id string) (types.Session, bool) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			writeError(w, http.StatusNotFound, err)
		} else {
			writeError(w, http.StatusInternalServerError, err)
		}
		return types.Session{}, false
	}
	return sess, true
}
