package audit

import "errors"

var (
	// ErrMissingID is returned for entries that were never stamped with an ID.
	ErrMissingID = errors.New("audit: entry has no id")
	// ErrNoServers is returned when the NATS sink has no URL to dial.
	ErrNoServers = errors.New("audit: nats url missing")
	// ErrNoSubject is returned when the NATS sink has no subject.
	ErrNoSubject = errors.New("audit: nats subject missing")
)
