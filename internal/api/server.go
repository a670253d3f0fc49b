package api

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/20lawsobk/maxbooster7.5-sub011/internal/config"
)

// Server wraps the HTTP control plane.
type Server struct {
	cfg     config.ServerConfig
	handler http.Handler
	server  *http.Server
	log     zerolog.Logger
}

// NewServer assembles the router around the run registry and live-feed hub.
func NewServer(cfg config.ServerConfig, registry *Registry, hub *Hub, log zerolog.Logger) *Server {
	handlers := NewSimulationHandlers(registry, log)
	router := SetupRoutes(cfg, handlers, hub, registry)

	return &Server{
		cfg:     cfg,
		handler: router,
		log:     log,
	}
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe(addr string) error {
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.handler,
		// Write timeout stays generous: a 50-year snapshot dump is large.
		// The websocket feed is hijacked out of these limits entirely.
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       120 * time.Second,
	}

	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Handler returns the HTTP handler for testing.
func (s *Server) Handler() http.Handler {
	return s.handler
}
