package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/wonny/rollstitch/backend/pkg/config"
	"github.com/wonny/rollstitch/backend/pkg/logger"
)

// Server represents the HTTP API server
// ⭐ SSOT: API 서버 설정은 이 파일에서만
type Server struct {
	httpServer *http.Server
	logger     *logger.Logger
	config     *config.Config
}

// defaultWriteTimeout covers a full adjusted series rendered as CSV
const defaultWriteTimeout = 60 * time.Second

// New creates a new API server. Requests are read-only GETs, so the read
// side is short; the write side follows API_WRITE_TIMEOUT.
func New(cfg *config.Config, log *logger.Logger, router http.Handler) *Server {
	if log == nil {
		log = logger.Nop()
	}
	writeTimeout := cfg.APIWriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = defaultWriteTimeout
	}
	return &Server{
		httpServer: &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      writeTimeout,
			IdleTimeout:       2 * writeTimeout,
			MaxHeaderBytes:    1 << 16,
		},
		logger: log.WithField("module", "api"),
		config: cfg,
	}
}

// Start starts the HTTP server and blocks until it stops
func (s *Server) Start() error {
	s.logger.WithFields(map[string]interface{}{
		"port": s.config.Port,
		"env":  s.config.Env,
	}).Info("Starting API server")

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down API server")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	return nil
}
