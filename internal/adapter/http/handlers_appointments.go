package adapthttp

import (
	"net/http"

	"carecompanion/internal/app"
	"carecompanion/internal/domain"
)

func (s *Server) handleAppointments(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())

	switch r.Method {
	case http.MethodGet:
		items, err := s.svc.Appointments.List(r.Context(), user)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, items)

	case http.MethodPost:
		var in app.AppointmentInput
		if err := parseJSON(r, &in); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		appt, err := s.svc.Appointments.Create(r.Context(), user, in)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, appt)

	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleAppointmentStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var body struct {
		Status domain.AppointmentStatus `json:"status"`
	}
	if err := parseJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	appt, err := s.svc.Appointments.UpdateStatus(r.Context(), userFrom(r.Context()), r.PathValue("id"), body.Status)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, appt)
}
