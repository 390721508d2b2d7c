// Package metrics exposes scan-level Prometheus metrics (approvals found,
// dropped, scan duration) alongside the RPC gateway metrics in internal/rpc, plus
// an optional standalone HTTP server to serve them.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/approvalguard/approvalguard/pkg/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ScansTotal counts completed scans by outcome ("ok", "aborted").
	ScansTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "approvalguard_scans_total",
			Help: "Total number of wallet scans by outcome",
		},
		[]string{"outcome"},
	)

	// ScanDuration measures end-to-end scan wall-clock time.
	ScanDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "approvalguard_scan_duration_seconds",
			Help:    "Duration of a full wallet scan",
			Buckets: prometheus.DefBuckets,
		},
	)

	// ApprovalsFound counts surviving approvals per scan, by category.
	ApprovalsFound = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "approvalguard_approvals_found_total",
			Help: "Total approvals surviving verification, by risk category",
		},
		[]string{"category"},
	)

	// ApprovalsDropped counts entries dropped during the pipeline, by reason
	// ("log_fetch_failed", "live_verify_failed", "revoked_on_chain",
	// "single_token_scope").
	ApprovalsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "approvalguard_approvals_dropped_total",
			Help: "Total approval records dropped during scanning, by reason",
		},
		[]string{"reason"},
	)
)

// ScanOutcomeInc records one completed scan.
func ScanOutcomeInc(outcome string) {
	ScansTotal.WithLabelValues(outcome).Inc()
}

// ScanDurationObserve records scan wall-clock time.
func ScanDurationObserve(d time.Duration) {
	ScanDuration.Observe(d.Seconds())
}

// ApprovalFoundInc records one surviving approval in category.
func ApprovalFoundInc(category string) {
	ApprovalsFound.WithLabelValues(category).Inc()
}

// ApprovalDroppedInc records one dropped record for reason.
func ApprovalDroppedInc(reason string) {
	ApprovalsDropped.WithLabelValues(reason).Inc()
}

// Server is the optional standalone HTTP server that exposes the process's
// Prometheus registry (RPC gateway + scan metrics together).
type Server struct {
	config *config.MetricsConfig
	server *http.Server
	stopCh chan struct{}
}

// NewServer creates a metrics server bound by cfg. Start is a no-op if
// cfg.Enabled is false.
func NewServer(cfg *config.MetricsConfig) *Server {
	return &Server{
		config: cfg,
		stopCh: make(chan struct{}),
	}
}

// Start launches the metrics HTTP server in the background.
func (s *Server) Start(ctx context.Context) error {
	if !s.config.Enabled {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle(s.config.Path, promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	s.server = &http.Server{
		Addr:              s.config.ListenAddress(),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Printf("metrics server error: %v\n", err)
		}
	}()

	return nil
}

// Stop gracefully shuts down the metrics server, if it was started.
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}

	close(s.stopCh)

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown metrics server: %w", err)
	}

	return nil
}
