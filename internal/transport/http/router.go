package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"domus/internal/platform/metrics"
	"domus/internal/platform/middleware"
)

// NewRouter assembles the full HTTP surface: health and metrics without
// auth, the apartment API behind bearer auth, and the permissive fallback
// for anything unrouted.
func NewRouter(
	h *Handler,
	logger *slog.Logger,
	m *metrics.Metrics,
	validator middleware.CallerValidator,
	requestTimeout time.Duration,
) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(middleware.ContentTypeJSON)
	r.Use(middleware.Latency(m))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(protected chi.Router) {
		protected.Use(middleware.RequireAuth(validator, logger))
		h.Register(protected)
	})

	// Unrecognized calls are accepted without effect, whether the path is
	// unknown or the method does not match a known path.
	r.NotFound(h.HandleUnknown)
	r.MethodNotAllowed(h.HandleUnknown)
	return r
}
