package components

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/fellowship-vote-ledger/internal/config"
	"github.com/fellowship-vote-ledger/internal/observability/metrics"
)

// NewMetricsServer returns a scrape-only HTTP server, or nil when metrics are
// disabled or no port is configured
func NewMetricsServer(cfg *config.Config, m *metrics.Metrics) *http.Server {
	if !cfg.Metrics.Enabled || cfg.Metrics.Port <= 0 {
		return nil
	}
	path := cfg.Metrics.Path
	if path == "" {
		path = "/metrics"
	}

	mux := http.NewServeMux()
	mux.Handle(path, m.Handler())

	return &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Metrics.Port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// ServeMetrics blocks until the server is shut down
func ServeMetrics(srv *http.Server) error {
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
