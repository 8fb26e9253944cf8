// Package server provides HTTP server lifecycle for the lorebook API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/pkeller/loregate/internal/core/api"
	"github.com/pkeller/loregate/internal/core/auth"
	"github.com/pkeller/loregate/internal/core/config"
)

// Server wraps the api.Service and exposes it over HTTP.
type Server struct {
	cfg     *config.ServerConfig
	svc     *api.Service
	mux     *http.ServeMux
	handler http.Handler
	srv     *http.Server
}

// New creates a server with routes registered. A nil authenticator disables
// API key checks entirely; with one configured, every route except health
// requires a valid X-Api-Key header.
func New(cfg *config.ServerConfig, svc *api.Service, authenticator *auth.Authenticator) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("cfg cannot be nil")
	}
	if svc == nil {
		return nil, fmt.Errorf("svc cannot be nil")
	}

	s := &Server{cfg: cfg, svc: svc, mux: http.NewServeMux()}
	s.routes()

	s.handler = s.mux
	if authenticator != nil {
		// Health stays open for load balancers and liveness probes.
		outer := http.NewServeMux()
		outer.HandleFunc("GET /api/v1/health", s.handleHealth)
		outer.Handle("/", authenticator.Middleware(s.mux))
		s.handler = outer
	}

	return s, nil
}

func (s *Server) routes() {
	s.mux.HandleFunc("POST /api/v1/scan", s.handleScan)
	s.mux.HandleFunc("GET /api/v1/books", s.handleListBooks)
	s.mux.HandleFunc("POST /api/v1/books", s.handleSaveBook)
	s.mux.HandleFunc("GET /api/v1/books/{name}", s.handleGetBook)
	s.mux.HandleFunc("DELETE /api/v1/books/{name}", s.handleDeleteBook)
	s.mux.HandleFunc("POST /api/v1/books/{name}/entries", s.handleAddEntry)
	s.mux.HandleFunc("DELETE /api/v1/books/{name}/entries/{uid}", s.handleDeleteEntry)
	s.mux.HandleFunc("GET /api/v1/books/{name}/groups", s.handleGroups)
	s.mux.HandleFunc("PATCH /api/v1/books/{name}/groups/{group}", s.handleSetGroup)
	s.mux.HandleFunc("GET /api/v1/health", s.handleHealth)
}

// Handler returns the HTTP handler for use with httptest.Server or custom
// listeners. Auth middleware, when configured, is included.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start binds the listener and serves requests until Shutdown is called.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to bind %s: %w", addr, err)
	}

	s.srv = &http.Server{
		Handler:      s.handler,
		ReadTimeout:  s.cfg.RequestTimeout,
		WriteTimeout: s.cfg.RequestTimeout,
	}

	slog.Info("http server listening", "addr", addr)
	if err := s.srv.Serve(listener); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server, waiting up to 30 seconds for
// in-flight requests before forcing connections closed.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}

	slog.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		s.srv.Close()
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}
