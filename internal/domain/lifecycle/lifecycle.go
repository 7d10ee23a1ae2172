// Package lifecycle holds the request stage machine:
// Submitted -> Received -> Matched. Resolution removes a request instead
// of adding a fourth stage.
package lifecycle

import (
	"fmt"
	"time"

	model "github.com/okian/hangout/internal/domain/model"
)

// Transition validates a stage change. Only single forward steps are legal.
func Transition(from, to model.Stage) error {
	if !from.IsValid() || !to.IsValid() {
		return fmt.Errorf("%w: %d -> %d", ErrUnknownStage, from, to)
	}
	if to != from+1 {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, from, to)
	}
	return nil
}

// Advance returns a copy of r moved to stage to. r itself is not modified.
// Moving to Matched requires an assigned event.
func Advance(r model.Request, to model.Stage, now time.Time) (model.Request, error) {
	if err := Transition(r.Stage, to); err != nil {
		return r, err
	}
	if to == model.StageMatched && r.AssignedEvent == nil {
		return r, ErrMissingAssignment
	}
	out := r.Clone()
	out.Stage = to
	out.UpdatedAt = now
	if to == model.StageMatched {
		t := now
		out.MatchedAt = &t
	}
	return out, nil
}

// Receive marks a submitted request as durably received.
func Receive(r model.Request, now time.Time) (model.Request, error) {
	return Advance(r, model.StageReceived, now)
}

// IsPending reports whether r still waits for an assignment.
func IsPending(r model.Request) bool {
	return r.Stage < model.StageMatched
}

// IsTerminal reports whether r has reached Matched.
func IsTerminal(r model.Request) bool {
	return r.Stage == model.StageMatched
}

// PendingQueue returns the pending requests in input order.
func PendingQueue(requests []model.Request) []model.Request {
	out := make([]model.Request, 0, len(requests))
	for _, r := range requests {
		if IsPending(r) {
			out = append(out, r.Clone())
		}
	}
	return out
}
