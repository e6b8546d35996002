package metrics

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Server serves Prometheus metrics and a health check over HTTP. It is
// best-effort: a bind failure is reported to the caller, who logs a
// warning and runs without the endpoint.
type Server struct {
	addr   string
	server *http.Server
	log    zerolog.Logger
}

// NewServer creates a metrics server listening on addr (host:port).
func NewServer(addr string, log zerolog.Logger) *Server {
	return &Server{
		addr: addr,
		log:  log.With().Str("component", "metrics_server").Logger(),
	}
}

// Start binds the listener and begins serving in a background goroutine.
// A bind failure is returned synchronously so the caller can degrade.
func (s *Server) Start() error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to bind metrics listener on %s: %w", s.addr, err)
	}

	s.server = &http.Server{
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.log.Info().Str("addr", s.addr).Msg("Starting metrics server")

	go func() {
		if err := s.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.log.Error().Err(err).Msg("Metrics server error")
		}
	}()

	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}

	s.log.Info().Msg("Shutting down metrics server")

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown metrics server: %w", err)
	}
	return nil
}
