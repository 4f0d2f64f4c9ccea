// Package httpadapter serves the locator's HTTP surface: health, readiness
// and metrics endpoints plus the The Things Network webhook receiver.
package httpadapter

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/lora-locator/internal/domain"
	"github.com/couchcryptid/lora-locator/internal/observability"
)

// Server exposes health, readiness, metrics and webhook HTTP endpoints.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz and /metrics routes.
// When store is non-nil the webhook routes are registered as well.
func NewServer(addr string, ready sharedobs.ReadinessChecker, store UplinkStore, metrics *observability.Metrics, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	if store != nil {
		wh := &webhooks{store: store, metrics: metrics, logger: logger}
		mux.HandleFunc("GET /{$}", wh.handleCount)
		mux.HandleFunc("POST /uplink", wh.handleStore(domain.KindUplink))
		mux.HandleFunc("POST /join", wh.handleStore(domain.KindJoin))
		mux.HandleFunc("POST /location", wh.handleStore(domain.KindLocation))
	}

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}
