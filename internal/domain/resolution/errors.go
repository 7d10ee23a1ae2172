package resolution

import "errors"

var (
	// ErrSuggestionNotFound is returned when the suggestion is no longer queued.
	// Callers treat it as a benign no-op.
	ErrSuggestionNotFound = errors.New("suggestion not found")
	// ErrUnknownDecision is returned for anything other than accept or decline.
	ErrUnknownDecision = errors.New("unknown decision")
)
