// Package status serves a read-only view of the running tutorial over HTTP.
// The terminal is being screen-captured during a run, so progress is
// observable out-of-band instead.
package status

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"tutorial-orchestrator/internal/platform/logger"
	"tutorial-orchestrator/internal/platform/metrics"
	"tutorial-orchestrator/internal/tutorial"

	"github.com/go-chi/chi/v5"
)

// SnapshotFunc returns the current run snapshot for GET /status.
type SnapshotFunc func() tutorial.RunSnapshot

// Server serves /status and /metrics while a run records.
type Server struct {
	srv *http.Server
	log *slog.Logger
}

// New builds the server. met and updateGauges may be nil to disable the
// metrics endpoint.
func New(addr string, snap SnapshotFunc, met *metrics.Metrics, updateGauges func(), log *slog.Logger) *Server {
	r := chi.NewRouter()
	r.Use(logger.RequestLogger(log))
	if met != nil {
		r.Use(metrics.RequestMiddleware(met))
	}

	r.Get("/status", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(snap()); err != nil {
			log.Error("encoding status", slog.String("error", err.Error()))
		}
	})
	if met != nil {
		r.Get("/metrics", func(w http.ResponseWriter, req *http.Request) {
			met.Handler(updateGauges).ServeHTTP(w, req)
		})
	}

	return &Server{
		srv: &http.Server{Addr: addr, Handler: r},
		log: log,
	}
}

// Handler exposes the router, for tests.
func (s *Server) Handler() http.Handler { return s.srv.Handler }

// Start serves in the background; listen errors are logged, not fatal —
// the run proceeds without the endpoint.
func (s *Server) Start() {
	go func() {
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Error("status server", slog.String("error", err.Error()))
		}
	}()
	s.log.Info("status server listening", slog.String("addr", s.srv.Addr))
}

// Shutdown drains the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
