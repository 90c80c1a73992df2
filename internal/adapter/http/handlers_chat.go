package adapthttp

import (
	"errors"
	"net/http"

	"carecompanion/internal/app"
)

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var body struct {
		Message string `json:"message"`
	}
	if err := parseJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	reply, err := s.svc.Chat.Chat(r.Context(), userFrom(r.Context()).ID, body.Message)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, reply)
	case errors.Is(err, app.ErrModelFailed):
		// model failures are reported to the caller verbatim
		writeError(w, http.StatusInternalServerError, err)
	default:
		s.fail(w, r, err)
	}
}

func (s *Server) handleChatHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	items, err := s.svc.Chat.History(r.Context(), userFrom(r.Context()).ID, intQuery(r, "limit", 50))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}
