package dashboard

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/tkingovr/noisegate/internal/audit"
	"github.com/tkingovr/noisegate/internal/config"
	"github.com/tkingovr/noisegate/internal/filter"
	"github.com/tkingovr/noisegate/internal/metrics"
)

// Server is the admin HTTP server: dashboard pages, the JSON API and
// the Prometheus endpoint.
type Server struct {
	mux        *http.ServeMux
	logger     *slog.Logger
	auditStore audit.Store
	dryRun     *filter.DryRunner
	metrics    *metrics.Metrics
	cfg        *config.Config
	addr       string
}

// NewServer creates a new admin server. store and m may be nil.
func NewServer(cfg *config.Config, store audit.Store, dryRun *filter.DryRunner, m *metrics.Metrics, logger *slog.Logger) *Server {
	s := &Server{
		mux:        http.NewServeMux(),
		logger:     logger,
		auditStore: store,
		dryRun:     dryRun,
		metrics:    m,
		cfg:        cfg,
		addr:       cfg.AdminAddr,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /", s.handleOverview)
	s.mux.HandleFunc("GET /audit", s.handleAudit)
	s.mux.HandleFunc("GET /audit/stream", s.handleAuditStream)
	s.mux.HandleFunc("GET /config", s.handleConfig)
	s.mux.HandleFunc("GET /api/v1/stats", s.handleAPIStats)
	s.mux.HandleFunc("GET /api/v1/records", s.handleAPIRecords)
	s.mux.HandleFunc("POST /api/v1/classify", s.handleAPIClassify)
	if s.metrics != nil {
		s.mux.Handle("GET /metrics", s.metrics.Handler())
	}
}

// ListenAndServe starts the admin HTTP server.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.addr,
		Handler: s.mux,
	}

	go func() {
		<-ctx.Done()
		srv.Close()
	}()

	s.logger.Info("starting admin server", "addr", s.addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Handler returns the HTTP handler for embedding in other servers.
func (s *Server) Handler() http.Handler {
	return s.mux
}
