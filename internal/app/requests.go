package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/okian/hangout/internal/adapters/repository"
	"github.com/okian/hangout/internal/domain/assignment"
	"github.com/okian/hangout/internal/domain/criteria"
	"github.com/okian/hangout/internal/domain/eligibility"
	"github.com/okian/hangout/internal/domain/lifecycle"
	"github.com/okian/hangout/internal/domain/model"
	"github.com/okian/hangout/internal/domain/scoring"
	"github.com/okian/hangout/pkg/logger"
	"github.com/okian/hangout/pkg/metrics"
)

// Submission is the result of Submit.
type Submission struct {
	Request   model.Request
	Duplicate bool
}

// Submit normalizes raw into a request, stores it at Submitted and then
// advances it to Received. A repeated submission key returns the request
// created the first time.
func (s *Service) Submit(ctx context.Context, raw map[string]any) (Submission, error) {
	if err := s.ensureStarted(); err != nil {
		return Submission{}, err
	}

	payload, err := criteria.Decode(raw)
	if err != nil {
		return Submission{}, fmt.Errorf("%w: %w", ErrInvalidSubmission, err)
	}
	requester := strings.TrimSpace(payload.Requester)
	if requester == "" {
		return Submission{}, fmt.Errorf("%w: requester is required", ErrInvalidSubmission)
	}

	id := uuid.NewString()
	key := ""
	if sub := strings.TrimSpace(payload.SubmissionID); sub != "" {
		key = requester + "/" + sub
		existing, dup, err := s.claimSubmission(ctx, key, id)
		if err != nil {
			return Submission{}, err
		}
		if dup {
			metrics.RecordRequestDuplicate()
			if existing.ID == "" {
				return Submission{}, fmt.Errorf("%w: %q", ErrDuplicateSubmission, sub)
			}
			return Submission{Request: existing, Duplicate: true}, nil
		}
	}

	now := s.now().UTC()
	r := model.Request{
		ID:           id,
		SubmissionID: strings.TrimSpace(payload.SubmissionID),
		Requester:    requester,
		TargetFriend: strings.TrimSpace(payload.TargetFriend),
		Criteria:     criteria.Normalize(payload.Event),
		Stage:        model.StageSubmitted,
		Version:      1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.CreateRequest(ctx, r); err != nil {
		if key != "" {
			s.deduper.Release(ctx, key)
		}
		metrics.RecordErrorByComponent("service", "create_request")
		return Submission{}, fmt.Errorf("store request: %w", err)
	}

	received, err := lifecycle.Receive(r, s.now().UTC())
	if err != nil {
		return Submission{}, fmt.Errorf("receive request %s: %w", r.ID, err)
	}
	received.Version = r.Version + 1
	if err := s.store.CompareAndSwapRequest(ctx, r.Version, received); err != nil {
		metrics.RecordErrorByComponent("service", "receive_request")
		if aerr := s.store.ArchiveRequest(ctx, r.ID); aerr != nil && !errors.Is(aerr, repository.ErrNotFound) {
			s.logger.Warn(ctx, "drop unreceived request",
				logger.String("requestId", r.ID),
				logger.Error(aerr),
			)
		}
		if key != "" {
			s.deduper.Release(ctx, key)
		}
		return Submission{}, fmt.Errorf("receive request %s: %w", r.ID, err)
	}

	metrics.RecordRequestSubmitted()
	s.logger.Info(ctx, "request received",
		logger.String("requestId", received.ID),
		logger.String("requester", received.Requester),
		logger.String("daypart", string(received.Criteria.Daypart)),
	)
	return Submission{Request: received}, nil
}

// claimSubmission binds key to id. When key is already bound it waits a
// short while for the other submission to reach Received and returns that
// request with dup set. A zero request with dup set means the bound request
// is gone. If the other submission fails and releases the key while we
// wait, the claim passes to id.
func (s *Service) claimSubmission(ctx context.Context, key, id string) (model.Request, bool, error) {
	deadline := time.NewTimer(duplicateWait)
	defer deadline.Stop()
	tick := time.NewTicker(duplicateWaitInterval)
	defer tick.Stop()

	for {
		existing, dup := s.deduper.Claim(ctx, key, id)
		if !dup {
			return model.Request{}, false, nil
		}
		r, err := s.store.GetRequest(ctx, existing)
		switch {
		case err == nil && r.Stage != model.StageSubmitted:
			return r, true, nil
		case err != nil && !errors.Is(err, repository.ErrNotFound):
			return model.Request{}, true, fmt.Errorf("read request %s: %w", existing, err)
		}

		select {
		case <-ctx.Done():
			return model.Request{}, true, ctx.Err()
		case <-deadline.C:
			if err != nil {
				s.logger.Debug(ctx, "duplicate submission no longer readable",
					logger.String("key", key),
					logger.String("requestId", existing),
					logger.Error(err),
				)
				return model.Request{}, true, nil
			}
			return r, true, nil
		case <-tick.C:
		}
	}
}

// GetRequest returns a single live request.
func (s *Service) GetRequest(ctx context.Context, id string) (model.Request, error) {
	if err := s.ensureStarted(); err != nil {
		return model.Request{}, err
	}
	return s.store.GetRequest(ctx, id)
}

// Pending returns requests still waiting for a match, oldest first.
func (s *Service) Pending(ctx context.Context) ([]model.Request, error) {
	if err := s.ensureStarted(); err != nil {
		return nil, err
	}
	reqs, err := s.store.ListRequests(ctx)
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	pending := lifecycle.PendingQueue(reqs)
	metrics.UpdatePendingRequests(len(pending))
	return pending, nil
}

// Eligible returns the catalog events that satisfy the request's criteria.
func (s *Service) Eligible(ctx context.Context, requestID string) ([]model.CatalogEvent, error) {
	if err := s.ensureStarted(); err != nil {
		return nil, err
	}
	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	r, ok := snap.FindRequest(requestID)
	if !ok {
		return nil, fmt.Errorf("request %q: %w", requestID, repository.ErrNotFound)
	}
	events := eligibility.ForRequest(snap.Catalog, r)
	metrics.RecordEligiblePoolSize(len(events))
	return events, nil
}

// AssignInput names the request and the chosen catalog event.
type AssignInput struct {
	RequestID string
	EventID   string
	Actor     string
	// ExpectedVersion, when set, must match the stored request version.
	ExpectedVersion *int64
}

// Assignment is the result of Assign.
type Assignment struct {
	Request    model.Request
	Suggestion model.Suggestion
}

// Assign matches a pending request to a catalog event, queues the scored
// suggestion for the requester and records an audit entry. Any failure
// leaves the request at its previous stage.
func (s *Service) Assign(ctx context.Context, in AssignInput) (Assignment, error) {
	if err := s.ensureStarted(); err != nil {
		return Assignment{}, err
	}

	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return Assignment{}, fmt.Errorf("snapshot: %w", err)
	}

	opts := []assignment.Option{
		assignment.WithEligibilityCheck(s.enforceEligibility),
		assignment.WithActor(in.Actor),
	}
	if in.ExpectedVersion != nil {
		opts = append(opts, assignment.WithExpectedVersion(*in.ExpectedVersion))
	}

	out, err := assignment.Assign(snap, in.RequestID, in.EventID, s.now().UTC(), opts...)
	if err != nil {
		metrics.RecordAssignment(assignmentOutcome(err))
		s.logger.Debug(ctx, "assignment rejected",
			logger.String("requestId", in.RequestID),
			logger.String("eventId", in.EventID),
			logger.Error(err),
		)
		return Assignment{}, err
	}

	suggestion := scoring.Suggest(uuid.NewString(), out.Request, out.Event)
	if err := s.store.CommitAssignment(ctx, out.Previous.Version, out.Request, suggestion); err != nil {
		switch {
		case errors.Is(err, repository.ErrVersionConflict):
			err = fmt.Errorf("%w: %w", assignment.ErrConflict, err)
		case errors.Is(err, repository.ErrNotFound):
			err = fmt.Errorf("%w: %w", assignment.ErrStaleReference, err)
		default:
			err = fmt.Errorf("commit assignment %s: %w", in.RequestID, err)
		}
		metrics.RecordAssignment(assignmentOutcome(err))
		return Assignment{}, err
	}

	entry := out.Audit
	entry.ID = uuid.NewString()
	s.queue.Record(ctx, entry)

	metrics.RecordAssignment("matched")
	metrics.RecordMatchPercentage(suggestion.MatchPercentage)
	s.logger.Info(ctx, "request matched",
		logger.String("requestId", out.Request.ID),
		logger.String("eventId", out.Event.ID),
		logger.String("requester", out.Request.Requester),
		logger.Int("matchPercentage", suggestion.MatchPercentage),
	)
	return Assignment{Request: out.Request, Suggestion: suggestion}, nil
}

func assignmentOutcome(err error) string {
	switch {
	case errors.Is(err, assignment.ErrStaleReference):
		return "stale_reference"
	case errors.Is(err, assignment.ErrInvalidChoice):
		return "invalid_choice"
	case errors.Is(err, assignment.ErrConflict):
		return "conflict"
	case errors.Is(err, lifecycle.ErrIllegalTransition):
		return "illegal_transition"
	default:
		return "error"
	}
}

func countPending(reqs []model.Request) int {
	n := 0
	for _, r := range reqs {
		if lifecycle.IsPending(r) {
			n++
		}
	}
	return n
}
