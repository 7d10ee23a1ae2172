package queue

import "errors"

// Reasons an entry is refused by Record.
var (
	ErrClosed = errors.New("queue closed")
	ErrFull   = errors.New("queue full")
)
