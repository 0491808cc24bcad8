package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/mandalnilabja/pixelrelay/internal/config"
)

// Server wraps the HTTP server with its configuration
type Server struct {
	httpServer *http.Server
	config     *config.Config
	logger     *slog.Logger
}

// NewServer creates a new configured HTTP server instance
func NewServer(cfg *config.Config, handler http.Handler, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	srv := &http.Server{
		Addr:              cfg.ServerPort,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      writeTimeout(cfg),
		IdleTimeout:       120 * time.Second,
	}

	return &Server{
		httpServer: srv,
		config:     cfg,
		logger:     logger,
	}
}

// writeTimeout covers the upstream call, the relay and the log append that
// a generation blocks on. A disabled upstream or relay bound disables it too.
func writeTimeout(cfg *config.Config) time.Duration {
	if cfg.Upstream.Timeout <= 0 || cfg.Relay.Timeout <= 0 {
		return 0
	}
	return cfg.Upstream.Timeout + cfg.Relay.Timeout + 30*time.Second
}

// Start begins listening and serving HTTP requests. It returns nil after a
// graceful Shutdown.
func (s *Server) Start() error {
	s.logger.Info("server starting", "addr", s.config.ServerPort)

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server shutting down")
	return s.httpServer.Shutdown(ctx)
}
