package adapthttp

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"carecompanion/internal/app"
)

func TestLoggingMiddleware(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	s := &Server{log: zap.New(core)}

	nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("OK"))
	})
	handler := s.loggingMiddleware(nextHandler)

	req := httptest.NewRequest("GET", "/test-path", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusTeapot {
		t.Errorf("Expected status %d, got %d", http.StatusTeapot, w.Code)
	}

	entries := logs.FilterMessage("request").All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["method"] != "GET" || fields["path"] != "/test-path" || fields["status"] != int64(418) {
		t.Errorf("log entry missing expected fields: %v", fields)
	}
}

// requestsByRoute sums the request counter per route label.
func requestsByRoute(t *testing.T, s *Server) map[string]float64 {
	t.Helper()
	mfs, err := s.registry.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	out := map[string]float64{}
	for _, mf := range mfs {
		if mf.GetName() != "carecompanion_http_requests_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "route" {
					out[lp.GetValue()] += m.GetCounter().GetValue()
				}
			}
		}
	}
	return out
}

func TestRequestMetrics_LabelByRoutePattern(t *testing.T) {
	s := New(Services{}, Options{}, zap.NewNop())
	h := s.Handler()
	get := func(path string) {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", path, nil))
	}

	for i := 0; i < 200; i++ {
		get(fmt.Sprintf("/api/nope-%d", i))
		get(fmt.Sprintf("/static/file-%d.js", i))
	}
	get("/api/health")
	get("/api/doctor/patients/4a6f2c1e-8a53-4bd4-9d49-2f0d1e7e5a11/vitals")
	get("/api/doctor/patients/another-id/vitals")
	get("/metrics")

	got := requestsByRoute(t, s)
	want := map[string]float64{
		"unmatched":                        400,
		"/api/health":                      1,
		"/api/doctor/patients/{id}/vitals": 2,
	}
	for route, n := range want {
		if got[route] != n {
			t.Errorf("route %q: got %v requests, want %v", route, got[route], n)
		}
	}
	// /metrics is counted after its own response is rendered
	if len(got) > len(want)+1 {
		t.Errorf("expected a bounded set of route labels, got %d: %v", len(got), got)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{&app.ValidationError{Msg: "bad"}, http.StatusBadRequest},
		{app.ErrEmailTaken, http.StatusBadRequest},
		{fmt.Errorf("wrapped: %w", app.ErrTokenExpired), http.StatusUnauthorized},
		{app.ErrFitnessNotLinked, http.StatusUnauthorized},
		{app.ErrForbidden, http.StatusForbidden},
		{fmt.Errorf("%w: patient or doctor not found", app.ErrNotFound), http.StatusNotFound},
		{app.ErrInvalidTransition, http.StatusConflict},
		{app.ErrUnavailable, http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range tests {
		if got := statusFor(tc.err); got != tc.want {
			t.Errorf("statusFor(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}
