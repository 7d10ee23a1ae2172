package api

import "errors"

// Sentinel kinds for API errors.
var (
	ErrBadRequest   = errors.New("bad request")
	ErrUnauthorized = errors.New("missing or invalid bearer token")
	ErrForbidden    = errors.New("token not allowed for this route")
)
