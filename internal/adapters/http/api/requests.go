package api

import (
	"net/http"
	"strings"

	service "github.com/okian/hangout/internal/app"
	"github.com/okian/hangout/internal/domain/model"
)

type submitResponse struct {
	Request   model.Request `json:"request"`
	Duplicate bool          `json:"duplicate"`
}

type assignRequest struct {
	EventID         string `json:"eventId"`
	ExpectedVersion *int64 `json:"expectedVersion,omitempty"`
}

type assignResponse struct {
	Request    model.Request    `json:"request"`
	Suggestion model.Suggestion `json:"suggestion"`
}

// handleSubmit handles POST /requests.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var raw map[string]any
	if err := decodeBody(w, r, &raw); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if raw == nil {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	sub, err := s.deps.Submit(r.Context(), raw)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	status := http.StatusCreated
	if sub.Duplicate {
		status = http.StatusOK
	}
	writeJSON(w, status, submitResponse{Request: sub.Request, Duplicate: sub.Duplicate})
}

// handleGetRequest handles GET /requests/{id}.
func (s *Server) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	req, err := s.deps.GetRequest(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

// handlePending handles GET /requests/pending.
func (s *Server) handlePending(w http.ResponseWriter, r *http.Request) {
	pending, err := s.deps.Pending(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pending)
}

// handleEligible handles GET /requests/{id}/eligible.
func (s *Server) handleEligible(w http.ResponseWriter, r *http.Request) {
	events, err := s.deps.Eligible(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// handleAssign handles POST /requests/{id}/assign.
func (s *Server) handleAssign(w http.ResponseWriter, r *http.Request) {
	var body assignRequest
	if err := decodeBody(w, r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if strings.TrimSpace(body.EventID) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	res, err := s.deps.Assign(r.Context(), service.AssignInput{
		RequestID:       r.PathValue("id"),
		EventID:         strings.TrimSpace(body.EventID),
		Actor:           ActorFromContext(r.Context()),
		ExpectedVersion: body.ExpectedVersion,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, assignResponse{Request: res.Request, Suggestion: res.Suggestion})
}
