package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound        = errors.New("not found")
	ErrAlreadyExists   = errors.New("already exists")
	ErrVersionConflict = errors.New("version conflict")
	ErrInvalidRecord   = errors.New("invalid record")
	ErrClosed          = errors.New("store closed")
)
