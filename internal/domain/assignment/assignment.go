// Package assignment binds a pending request to a chosen catalog event.
package assignment

import (
	"fmt"
	"time"

	eligibility "github.com/okian/hangout/internal/domain/eligibility"
	lifecycle "github.com/okian/hangout/internal/domain/lifecycle"
	model "github.com/okian/hangout/internal/domain/model"
)

// Outcome is the result of a successful assignment. Request is a new
// value; the snapshot passed to Assign is never modified.
type Outcome struct {
	Request  model.Request
	Previous model.Request
	Event    model.CatalogEvent
	Audit    model.AuditEntry
}

// Assign checks that reqID and eventID resolve in snap, that the event is
// eligible (unless disabled), and advances the request to Matched with the
// event attached. Any failure leaves the request unchanged.
func Assign(snap model.Snapshot, reqID, eventID string, now time.Time, opts ...Option) (Outcome, error) {
	cfg := newConfig(opts...)

	req, ok := snap.FindRequest(reqID)
	if !ok {
		return Outcome{}, fmt.Errorf("%w: request %q", ErrStaleReference, reqID)
	}
	ev, ok := snap.FindEvent(eventID)
	if !ok {
		return Outcome{}, fmt.Errorf("%w: event %q", ErrStaleReference, eventID)
	}
	if cfg.expectVersion && req.Version != cfg.version {
		return Outcome{}, fmt.Errorf("%w: request %q at version %d, expected %d", ErrConflict, reqID, req.Version, cfg.version)
	}
	if lifecycle.IsTerminal(req) {
		return Outcome{}, fmt.Errorf("%w: request %q already matched", ErrConflict, reqID)
	}
	if cfg.enforceEligibility && !eligibility.IsEligible(ev, req.Criteria) {
		return Outcome{}, fmt.Errorf("%w: event %q for request %q", ErrInvalidChoice, eventID, reqID)
	}

	bound := req.Clone()
	picked := ev.Clone()
	bound.AssignedEvent = &picked
	next, err := lifecycle.Advance(bound, model.StageMatched, now)
	if err != nil {
		return Outcome{}, fmt.Errorf("assign request %q: %w", reqID, err)
	}
	next.Version = req.Version + 1

	return Outcome{
		Request:  next,
		Previous: req,
		Event:    picked,
		Audit: model.AuditEntry{
			Action:    model.AuditAssigned,
			Actor:     cfg.actor,
			Requester: req.Requester,
			RequestID: req.ID,
			EventID:   ev.ID,
			At:        now,
			Detail:    fmt.Sprintf("assigned %q to %s", ev.Name, req.Requester),
		},
	}, nil
}
