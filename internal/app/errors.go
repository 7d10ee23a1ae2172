package service

import "errors"

var (
	// ErrInvalidSubmission is returned for payloads that cannot become a request.
	ErrInvalidSubmission = errors.New("invalid submission")
	// ErrInvalidUser is returned for a blank user key.
	ErrInvalidUser = errors.New("invalid user")
	// ErrInvalidEvent is returned for catalog events that fail validation.
	ErrInvalidEvent = errors.New("invalid catalog event")
	// ErrDuplicateSubmission is returned when a submission key was already
	// used but its request is no longer readable.
	ErrDuplicateSubmission = errors.New("submission already processed")
	// ErrNotStarted is returned by operations called before Start.
	ErrNotStarted = errors.New("service not started")
)
