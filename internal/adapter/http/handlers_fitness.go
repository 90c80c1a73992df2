package adapthttp

import (
	"errors"
	"net/http"

	"carecompanion/internal/domain"
)

func (s *Server) handleFitnessConnect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	u, err := s.svc.Fitness.ConnectURL(userFrom(r.Context()).ID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"auth_url": u})
}

// handleFitnessCallback is the provider's redirect target. The signed state
// identifies the user, so no bearer token is required.
func (s *Server) handleFitnessCallback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	q := r.URL.Query()
	if e := q.Get("error"); e != "" {
		writeError(w, http.StatusBadRequest, errors.New("authorization denied: "+e))
		return
	}
	if err := s.svc.Fitness.Callback(r.Context(), q.Get("state"), q.Get("code")); err != nil {
		s.fail(w, r, err)
		return
	}
	http.Redirect(w, r, s.frontendURL+"/google-success", http.StatusFound)
}

// fitnessProxy returns a handler relaying metric under key.
func (s *Server) fitnessProxy(metric domain.FitnessMetric, key string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		data, err := s.svc.Fitness.Fetch(r.Context(), userFrom(r.Context()).ID, metric)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{key: data})
	}
}
