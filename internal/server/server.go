package server

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/pageza/foodflow/backend/config"
	"github.com/pageza/foodflow/backend/internal/app"
	"github.com/pageza/foodflow/backend/internal/router"
)

// Server represents the HTTP server
type Server struct {
	app  *app.App
	http *http.Server
}

// New creates a server for the application on the configured host and port
func New(cfg *config.Config, a *app.App) *Server {
	return &Server{
		app: a,
		http: &http.Server{
			Addr:              net.JoinHostPort(cfg.ServerHost, cfg.ServerPort),
			Handler:           router.SetupRouter(a),
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      90 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
	}
}

// Handler exposes the router, mostly for tests
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Start serves until Shutdown is called. It returns nil after a graceful
// shutdown.
func (s *Server) Start() error {
	log.Printf("Listening on %s", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections, waits for in-flight requests and
// closes the application resources
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	shutdownErr := s.http.Shutdown(ctx)
	closeErr := s.app.Close()
	return errors.Join(shutdownErr, closeErr)
}
