// Package server provides the HTTP server for the authenticated caching proxy.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"ollgate-hq/ollgate/pkg/config"
	"ollgate-hq/ollgate/pkg/proxy"
	"ollgate-hq/ollgate/pkg/proxy/middleware"
)

// MetricsPath is the Prometheus scrape endpoint.
const MetricsPath = "/metrics"

// Routes holds the handlers the server exposes. CallModel is wrapped with
// Authenticate; Health and Metrics are unauthenticated. A nil Metrics
// handler disables the scrape endpoint.
type Routes struct {
	CallModel    http.Handler
	Health       http.Handler
	Metrics      http.Handler
	Authenticate func(http.Handler) http.Handler
}

// Server is the HTTP front of the proxy.
type Server struct {
	config       *config.ProxyConfig
	routes       Routes
	httpServer   *http.Server
	shutdownChan chan struct{}
	shutdownOnce sync.Once
	mu           sync.RWMutex
	isRunning    bool
}

// NewServer creates a new proxy server.
func NewServer(cfg *config.ProxyConfig, routes Routes) *Server {
	return &Server{
		config:       cfg,
		routes:       routes,
		shutdownChan: make(chan struct{}),
	}
}

// Start starts the HTTP server and blocks until shutdown.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}
	s.isRunning = true
	s.mu.Unlock()

	handler := s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:           s.config.ListenAddress,
		Handler:        handler,
		ReadTimeout:    s.config.ReadTimeout,
		WriteTimeout:   s.config.WriteTimeout,
		IdleTimeout:    s.config.IdleTimeout,
		MaxHeaderBytes: s.config.MaxHeaderBytes,
	}

	errChan := make(chan error, 1)
	go func() {
		slog.Info("starting proxy server", "address", s.config.ListenAddress)

		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case <-ctx.Done():
		slog.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case sig := <-sigChan:
		slog.Info("received shutdown signal", "signal", sig.String())
		return s.Shutdown(context.Background())
	case err := <-errChan:
		return err
	case <-s.shutdownChan:
		slog.Info("shutdown requested")
		return s.Shutdown(context.Background())
	}
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		if !s.isRunning {
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()

		slog.Info("initiating graceful shutdown", "timeout", s.config.ShutdownTimeout.String())

		shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
		defer cancel()

		if s.httpServer != nil {
			if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
				slog.Error("error during server shutdown", "error", err)
				shutdownErr = fmt.Errorf("server shutdown error: %w", err)
			}
		}

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()

		slog.Info("proxy server stopped")
	})

	return shutdownErr
}

// setupRoutes configures HTTP routes and the middleware chain.
func (s *Server) setupRoutes() http.Handler {
	mux := http.NewServeMux()

	callModel := s.routes.CallModel
	if s.routes.Authenticate != nil {
		callModel = s.routes.Authenticate(callModel)
	}
	mux.Handle(proxy.CallModelPath, callModel)
	mux.Handle(proxy.HealthPath, s.routes.Health)
	if s.routes.Metrics != nil {
		mux.Handle(MetricsPath, s.routes.Metrics)
	}

	// Middleware chain, innermost to outermost: logging, request ID,
	// recovery. Recovery is outermost so a panic anywhere still answers.
	var handler http.Handler = mux
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.RequestIDMiddleware(handler)
	handler = middleware.RecoveryMiddleware(handler)

	return handler
}
