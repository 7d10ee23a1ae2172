package api

import "net/http"

type pointsResponse struct {
	User   string `json:"user"`
	Points int64  `json:"points"`
}

// handleSuggestions handles GET /users/{user}/suggestions.
func (s *Server) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	views, err := s.deps.Suggestions(r.Context(), r.PathValue("user"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

// handleAccept handles POST /users/{user}/suggestions/{id}/accept.
func (s *Server) handleAccept(w http.ResponseWriter, r *http.Request) {
	res, err := s.deps.Accept(r.Context(), r.PathValue("user"), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleDecline handles POST /users/{user}/suggestions/{id}/decline.
func (s *Server) handleDecline(w http.ResponseWriter, r *http.Request) {
	res, err := s.deps.Decline(r.Context(), r.PathValue("user"), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleJoined handles GET /users/{user}/events.
func (s *Server) handleJoined(w http.ResponseWriter, r *http.Request) {
	events, err := s.deps.Joined(r.Context(), r.PathValue("user"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// handlePoints handles GET /users/{user}/points.
func (s *Server) handlePoints(w http.ResponseWriter, r *http.Request) {
	user := r.PathValue("user")
	points, err := s.deps.Points(r.Context(), user)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pointsResponse{User: user, Points: points})
}
