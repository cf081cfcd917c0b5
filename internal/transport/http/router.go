package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"go.uber.org/zap"

	"github.com/kyle-ycp/sentiment-analysis-dashboard/internal/health"
	"github.com/kyle-ycp/sentiment-analysis-dashboard/pkg/logger"
	"github.com/kyle-ycp/sentiment-analysis-dashboard/pkg/metrics"
)

// NewRouter mounts the API, probes and metrics
func NewRouter(h *Handler, probes *health.Service, m *metrics.Collector) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestMetrics(m))

	if probes != nil {
		r.Get("/health", probes.HandleHealth)
		r.Get("/ready", probes.HandleReadiness)
	}
	r.Method(http.MethodGet, "/metrics", m.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		r.Get("/articles", h.ListArticles)
		r.Get("/summary", h.GetSummary)
		r.Get("/distribution", h.GetDistribution)
		r.Get("/export.csv", h.ExportCSV)
		r.Get("/export.xlsx", h.ExportXLSX)
		r.Get("/history", h.GetHistory)
		r.Get("/history/articles", h.SearchArticles)
		r.Post("/refresh", h.Refresh)
	})

	return r
}

// requestMetrics records latency per route pattern and logs each request
func requestMetrics(m *metrics.Collector) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			route := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					route = pattern
				}
			}

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			elapsed := time.Since(start)
			m.ObserveRequest(route, r.Method, strconv.Itoa(status), elapsed)

			logger.Debug("http request",
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.String("method", r.Method),
				zap.String("route", route),
				zap.Int("status", status),
				zap.Duration("took", elapsed),
			)
		})
	}
}
