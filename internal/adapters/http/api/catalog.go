package api

import (
	"net/http"

	"github.com/okian/hangout/internal/domain/model"
)

// handleListCatalog handles GET /catalog.
func (s *Server) handleListCatalog(w http.ResponseWriter, r *http.Request) {
	events, err := s.deps.ListEvents(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// handleUpsertCatalog handles POST /catalog.
func (s *Server) handleUpsertCatalog(w http.ResponseWriter, r *http.Request) {
	var ev model.CatalogEvent
	if err := decodeBody(w, r, &ev); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	stored, err := s.deps.UpsertEvent(r.Context(), ev)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stored)
}

// handleDeleteCatalog handles DELETE /catalog/{id}.
func (s *Server) handleDeleteCatalog(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.DeleteEvent(r.Context(), r.PathValue("id")); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
