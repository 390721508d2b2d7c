package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/approvalguard/approvalguard/internal/logger"
	"github.com/approvalguard/approvalguard/internal/scanner"
	"github.com/approvalguard/approvalguard/pkg/config"
)

const shutdownCtxTimeout = 10 * time.Second

// Server is the inbound HTTP server exposing the four ApprovalGuard
// endpoints.
type Server struct {
	cfg     *config.APIConfig
	handler *Handler
	server  *http.Server
	log     *logger.Logger
}

// NewServer wires routing and middleware over a Handler.
func NewServer(cfg *config.Config, orchestrator *scanner.Orchestrator, log *logger.Logger) *Server {
	if log == nil {
		log = logger.NewNopLogger()
	}
	handler := NewHandler(cfg, orchestrator, log)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", handler.Health)
	mux.HandleFunc("POST /api/scan", handler.Scan)
	mux.HandleFunc("POST /api/share-card", handler.ShareCard)
	mux.HandleFunc("POST /api/validate", handler.Validate)
	mux.HandleFunc("POST /api/validate-chain", handler.ValidateChain)

	var h http.Handler = mux
	h = RecoveryMiddleware(log)(h)
	h = LoggingMiddleware(log)(h)
	h = CORSMiddleware(cfg.API.CORS.AllowedOrigins)(h)

	httpServer := &http.Server{
		Addr:              cfg.API.ListenAddress(),
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return &Server{
		cfg:     &cfg.API,
		handler: handler,
		server:  httpServer,
		log:     log,
	}
}

// Start runs the HTTP server until ctx is cancelled, then gracefully shuts
// it down.
func (s *Server) Start(ctx context.Context) error {
	s.log.Infow("starting api server", "addr", s.cfg.ListenAddress())

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Errorw("api server error", "error", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownCtxTimeout)
	defer cancel()

	s.log.Info("shutting down api server")
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("api server shutdown: %w", err)
	}
	return nil
}

// Stop gracefully shuts down the server immediately, for callers managing
// their own lifecycle instead of relying on ctx cancellation in Start.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
