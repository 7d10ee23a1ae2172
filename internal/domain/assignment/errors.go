package assignment

import "errors"

var (
	// ErrStaleReference is returned when the request or event no longer exists.
	ErrStaleReference = errors.New("no longer available")
	// ErrInvalidChoice is returned when the chosen event is not eligible for the request.
	ErrInvalidChoice = errors.New("event not eligible for request")
	// ErrConflict is returned when the request changed since it was read.
	ErrConflict = errors.New("request was modified concurrently")
)
