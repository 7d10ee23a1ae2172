// Package resolution applies a requester's accept or decline decision to
// their joined events and pending suggestions.
package resolution

import (
	"fmt"

	model "github.com/okian/hangout/internal/domain/model"
)

// Decision is the requester's answer to a suggestion.
type Decision string

// Decisions.
const (
	Accept  Decision = "accept"
	Decline Decision = "decline"
)

// DefaultReward is the ledger credit for an accepted suggestion.
const DefaultReward int64 = 1

// Outcome describes what a resolution changed. Collections is a new value;
// the input collections are never modified. PointsDelta is what the caller
// must add to the requester's ledger.
type Outcome struct {
	Collections model.UserCollections
	Suggestion  model.Suggestion
	Decision    Decision
	Joined      bool // event appended to the joined collection
	PointsDelta int64
}

// Resolve dispatches to AcceptSuggestion or DeclineSuggestion.
func Resolve(u model.UserCollections, suggestionID string, d Decision, reward int64) (Outcome, error) {
	switch d {
	case Accept:
		return AcceptSuggestion(u, suggestionID, reward)
	case Decline:
		return DeclineSuggestion(u, suggestionID)
	default:
		return Outcome{}, fmt.Errorf("%w: %q", ErrUnknownDecision, d)
	}
}

// AcceptSuggestion joins the suggested event unless it is already joined,
// clears the suggestion and credits reward points either way.
func AcceptSuggestion(u model.UserCollections, suggestionID string, reward int64) (Outcome, error) {
	next, s, err := take(u, suggestionID)
	if err != nil {
		return Outcome{}, err
	}
	out := Outcome{Suggestion: s, Decision: Accept, PointsDelta: reward}
	if !next.HasJoined(s.Event.ID) {
		next.Joined = append(next.Joined, s.Event.Clone())
		out.Joined = true
	}
	out.Collections = next
	return out, nil
}

// DeclineSuggestion clears the suggestion and nothing else.
func DeclineSuggestion(u model.UserCollections, suggestionID string) (Outcome, error) {
	next, s, err := take(u, suggestionID)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Collections: next, Suggestion: s, Decision: Decline}, nil
}

// take returns a copy of u without the suggestion and the removed suggestion.
func take(u model.UserCollections, suggestionID string) (model.UserCollections, model.Suggestion, error) {
	next := u.Clone()
	for i, s := range next.Suggestions {
		if s.ID != suggestionID {
			continue
		}
		next.Suggestions = append(next.Suggestions[:i], next.Suggestions[i+1:]...)
		return next, s, nil
	}
	return model.UserCollections{}, model.Suggestion{}, fmt.Errorf("%w: %q", ErrSuggestionNotFound, suggestionID)
}
