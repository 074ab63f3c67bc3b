package dashboard

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Query results recorded by the queries counter.
const (
	resultOK         = "ok"
	resultNotFound   = "not_found"
	resultBadRequest = "bad_request"
	resultConflict   = "empty_index"
	resultError      = "error"
)

type metrics struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	queries  *prometheus.CounterVec
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ptm_http_requests_total",
			Help: "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
		queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ptm_similarity_queries_total",
			Help: "Similarity queries by kind and result.",
		}, []string{"kind", "result"}),
	}
	m.registry.MustRegister(m.requests, m.queries)
	return m
}

// countRequests records every request under its route pattern.
func (m *metrics) countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	})
}

func (m *metrics) query(kind, result string) {
	m.queries.WithLabelValues(kind, result).Inc()
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
