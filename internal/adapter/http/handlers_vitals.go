package adapthttp

import (
	"net/http"

	"carecompanion/internal/app"
)

func (s *Server) handleVitals(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())

	switch r.Method {
	case http.MethodGet:
		items, err := s.svc.Vitals.ListRecent(r.Context(), user.ID, intQuery(r, "limit", app.DefaultListLimit))
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, items)

	case http.MethodPost:
		var in app.VitalInput
		if err := parseJSON(r, &in); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		rec, assessment, err := s.svc.Vitals.RecordVital(r.Context(), user.ID, in)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		w.Header().Set("X-Risk-Level", string(assessment.RiskLevel))
		writeJSON(w, http.StatusOK, rec)

	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleRiskLatest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	a, _, err := s.svc.Risk.Latest(r.Context(), userFrom(r.Context()).ID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleRiskRecompute(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	a, err := s.svc.Risk.Recompute(r.Context(), userFrom(r.Context()).ID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleRiskHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	items, err := s.svc.Risk.History(r.Context(), userFrom(r.Context()).ID, intQuery(r, "limit", 20))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}
