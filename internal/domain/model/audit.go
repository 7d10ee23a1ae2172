package model

import "time"

// AuditAction names an auditable operation.
type AuditAction string

// Audit actions.
const (
	AuditAssigned AuditAction = "request.assigned"
	AuditAccepted AuditAction = "suggestion.accepted"
	AuditDeclined AuditAction = "suggestion.declined"
)

// AuditEntry is an append-only record of a state-changing action.
type AuditEntry struct {
	ID        string      `json:"id"`
	Action    AuditAction `json:"action"`
	Actor     string      `json:"actor,omitempty"`
	Requester string      `json:"requester"`
	RequestID string      `json:"request_id"`
	EventID   string      `json:"event_id"`
	At        time.Time   `json:"at"`
	Detail    string      `json:"detail,omitempty"`
}
