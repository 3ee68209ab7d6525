package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"conference-checkin/internal/config"
	apiv1 "conference-checkin/internal/infra/api/apiv1"
	"conference-checkin/internal/infra/metrics"
)

// ReadyFunc reports whether backing stores are reachable.
type ReadyFunc func(ctx context.Context) error

// Server hosts the HTTP surface: health probes, metrics and the v1 API.
type Server struct {
	cfg    config.ServerConfig
	v1     *apiv1.Server
	ready  ReadyFunc
	log    *zerolog.Logger
	server *http.Server
}

func NewServer(cfg config.ServerConfig, v1 *apiv1.Server, ready ReadyFunc, logger *zerolog.Logger) *Server {
	srvLog := logger.With().Str("component", "HTTP").Logger()
	s := &Server{cfg: cfg, v1: v1, ready: ready, log: &srvLog}
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler builds the router. Middlewares run inside chi so the route pattern
// is known when the request is logged.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RealIP,
		TraceID(s.log),
		RequestLog(s.log),
		Recover(s.log),
	)
	if s.cfg.RequestTimeout > 0 {
		r.Use(Timeout(s.cfg.RequestTimeout))
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Get("/ready", s.handleReady)
	metricsPath := s.cfg.MetricsPath
	if metricsPath == "" {
		metricsPath = "/metrics"
	}
	r.Method(http.MethodGet, metricsPath, metrics.Handler())

	apiv1.RegisterAPIV1(r, s.v1)
	return r
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			s.log.Warn().Err(err).Msg("readiness check failed")
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// Start blocks serving on cfg.Port until Shutdown.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("http server listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
