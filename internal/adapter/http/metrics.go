package adapthttp

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"carecompanion/internal/domain"
)

type metrics struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	risk     *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "carecompanion_http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "carecompanion_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		risk: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "carecompanion_risk_assessments_total",
			Help: "Persisted risk assessments by level.",
		}, []string{"level"}),
	}
	reg.MustRegister(m.requests, m.latency, m.risk)
	return m
}

func (m *metrics) observeRisk(level domain.RiskLevel) {
	m.risk.WithLabelValues(string(level)).Inc()
}

func (m *metrics) observeRequest(method, route string, status int, d time.Duration) {
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.latency.WithLabelValues(route).Observe(d.Seconds())
}

// unmatchedRoute labels requests that reached no registered route.
const unmatchedRoute = "unmatched"

type routeKey struct{}

// routeSlot carries the matched route back out to metricsMiddleware.
type routeSlot struct {
	route string
}

// handle registers h under pattern and labels its requests with
// prefix+pattern, so the route label set is fixed by the registrations.
func handle(mux *http.ServeMux, prefix, pattern string, h http.HandlerFunc) {
	label := prefix + pattern
	mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		if slot, ok := r.Context().Value(routeKey{}).(*routeSlot); ok {
			slot.route = label
		}
		h(w, r)
	})
}

// metricsMiddleware records request counts and latency by route pattern.
func (s *Server) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		slot := &routeSlot{route: unmatchedRoute}
		rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r.WithContext(context.WithValue(r.Context(), routeKey{}, slot)))
		s.metrics.observeRequest(r.Method, slot.route, rw.status, time.Since(start))
	})
}
