// Package api exposes the matchmaking service over JSON HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/okian/hangout/internal/adapters/repository"
	service "github.com/okian/hangout/internal/app"
	"github.com/okian/hangout/internal/domain/assignment"
	"github.com/okian/hangout/internal/domain/lifecycle"
	"github.com/okian/hangout/internal/domain/model"
	"github.com/okian/hangout/internal/domain/resolution"
	"github.com/okian/hangout/pkg/logger"
)

const maxBodyBytes = 1 << 20

// Dependencies required by HTTP handlers.
type Dependencies interface {
	Submit(ctx context.Context, raw map[string]any) (service.Submission, error)
	GetRequest(ctx context.Context, id string) (model.Request, error)
	Pending(ctx context.Context) ([]model.Request, error)
	Eligible(ctx context.Context, requestID string) ([]model.CatalogEvent, error)
	Assign(ctx context.Context, in service.AssignInput) (service.Assignment, error)

	ListEvents(ctx context.Context) ([]model.CatalogEvent, error)
	UpsertEvent(ctx context.Context, ev model.CatalogEvent) (model.CatalogEvent, error)
	DeleteEvent(ctx context.Context, id string) error

	Suggestions(ctx context.Context, user string) ([]service.SuggestionView, error)
	Accept(ctx context.Context, user, suggestionID string) (service.Resolution, error)
	Decline(ctx context.Context, user, suggestionID string) (service.Resolution, error)
	Joined(ctx context.Context, user string) ([]model.CatalogEvent, error)
	Points(ctx context.Context, user string) (int64, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	deps          Dependencies
	statsHandler  *StatsHandler
	healthHandler *HealthHandler
	auth          *AdminAuth
	logger        logger.Logger
}

// NewServer creates a new API server. An empty adminSecret disables the admin check.
func NewServer(deps Dependencies, statsProvider StatsProvider, adminSecret string) *Server {
	return &Server{
		deps:          deps,
		statsHandler:  NewStatsHandler(statsProvider),
		healthHandler: NewHealthHandler(),
		auth:          NewAdminAuth([]byte(adminSecret)),
		logger:        logger.Get().Named("api"),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	admin := s.auth.Require
	member := s.auth.RequireUser

	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("POST /requests", MetricsMiddleware(s.handleSubmit, "submit_request"))
	mux.HandleFunc("GET /requests/pending", MetricsMiddleware(admin(s.handlePending), "pending_requests"))
	mux.HandleFunc("GET /requests/{id}", MetricsMiddleware(s.handleGetRequest, "get_request"))
	mux.HandleFunc("GET /requests/{id}/eligible", MetricsMiddleware(admin(s.handleEligible), "eligible_events"))
	mux.HandleFunc("POST /requests/{id}/assign", MetricsMiddleware(admin(s.handleAssign), "assign_request"))

	mux.HandleFunc("GET /catalog", MetricsMiddleware(s.handleListCatalog, "list_catalog"))
	mux.HandleFunc("POST /catalog", MetricsMiddleware(admin(s.handleUpsertCatalog), "upsert_catalog"))
	mux.HandleFunc("DELETE /catalog/{id}", MetricsMiddleware(admin(s.handleDeleteCatalog), "delete_catalog"))

	mux.HandleFunc("GET /users/{user}/suggestions", MetricsMiddleware(member(s.handleSuggestions), "suggestions"))
	mux.HandleFunc("POST /users/{user}/suggestions/{id}/accept", MetricsMiddleware(member(s.handleAccept), "accept_suggestion"))
	mux.HandleFunc("POST /users/{user}/suggestions/{id}/decline", MetricsMiddleware(member(s.handleDecline), "decline_suggestion"))
	mux.HandleFunc("GET /users/{user}/events", MetricsMiddleware(s.handleJoined, "joined_events"))
	mux.HandleFunc("GET /users/{user}/points", MetricsMiddleware(s.handlePoints, "points"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// decodeBody reads a JSON body into v. An empty body leaves v untouched.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	return nil
}

// writeServiceError maps domain and store errors to HTTP statuses.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error(r.Context(), "request failed",
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.Error(err),
		)
	}
	writeError(w, status, code, err)
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, service.ErrInvalidSubmission),
		errors.Is(err, service.ErrInvalidUser),
		errors.Is(err, service.ErrInvalidEvent),
		errors.Is(err, repository.ErrInvalidRecord):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, assignment.ErrInvalidChoice):
		return http.StatusUnprocessableEntity, "invalid_choice"
	case errors.Is(err, assignment.ErrStaleReference):
		return http.StatusConflict, "stale_reference"
	case errors.Is(err, assignment.ErrConflict),
		errors.Is(err, lifecycle.ErrIllegalTransition),
		errors.Is(err, repository.ErrVersionConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, service.ErrDuplicateSubmission):
		return http.StatusConflict, "duplicate_submission"
	case errors.Is(err, resolution.ErrSuggestionNotFound),
		errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, service.ErrNotStarted),
		errors.Is(err, repository.ErrClosed):
		return http.StatusServiceUnavailable, "unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
