// Package model contains domain models passed between layers.
package model

import "time"

// Stage is the lifecycle position of a request.
type Stage int

// Request stages. Values are stable and exposed over the API.
const (
	StageSubmitted Stage = 1
	StageReceived  Stage = 2
	StageMatched   Stage = 3
)

// String returns the stage name.
func (s Stage) String() string {
	switch s {
	case StageSubmitted:
		return "submitted"
	case StageReceived:
		return "received"
	case StageMatched:
		return "matched"
	default:
		return "unknown"
	}
}

// IsValid reports whether s is one of the known stages.
func (s Stage) IsValid() bool {
	return s >= StageSubmitted && s <= StageMatched
}

// Criteria is the normalized filter a requester asked for.
// Empty strings and a nil BudgetMax mean "not specified".
type Criteria struct {
	Type      string   `json:"type,omitempty"`
	Category  string   `json:"category,omitempty"`
	Language  string   `json:"language,omitempty"`
	BudgetMax *float64 `json:"budget_max,omitempty"`
	Daypart   Daypart  `json:"time_of_day,omitempty"`
}

// IsEmpty reports whether no criterion is specified.
func (c Criteria) IsEmpty() bool {
	return c.Type == "" && c.Category == "" && c.Language == "" &&
		c.BudgetMax == nil && c.Daypart == DaypartUndetermined
}

// Clone returns a copy that shares no pointers with c.
func (c Criteria) Clone() Criteria {
	out := c
	if c.BudgetMax != nil {
		v := *c.BudgetMax
		out.BudgetMax = &v
	}
	return out
}

// Request is a member's meetup request awaiting a match.
type Request struct {
	ID            string        `json:"id"`
	SubmissionID  string        `json:"submission_id,omitempty"` // client idempotency key
	Requester     string        `json:"requester"`
	TargetFriend  string        `json:"target_friend,omitempty"` // routing hint, not used for matching
	Criteria      Criteria      `json:"criteria"`
	Stage         Stage         `json:"stage"`
	AssignedEvent *CatalogEvent `json:"assigned_event,omitempty"`
	Version       int64         `json:"version"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
	MatchedAt     *time.Time    `json:"matched_at,omitempty"`
}

// Clone returns a deep copy of r.
func (r Request) Clone() Request {
	out := r
	out.Criteria = r.Criteria.Clone()
	if r.AssignedEvent != nil {
		ev := r.AssignedEvent.Clone()
		out.AssignedEvent = &ev
	}
	if r.MatchedAt != nil {
		t := *r.MatchedAt
		out.MatchedAt = &t
	}
	return out
}

// Snapshot is one consistent view of the request list and the catalog.
type Snapshot struct {
	Requests []Request
	Catalog  []CatalogEvent
}

// FindRequest returns the request with the given id.
func (s Snapshot) FindRequest(id string) (Request, bool) {
	for _, r := range s.Requests {
		if r.ID == id {
			return r, true
		}
	}
	return Request{}, false
}

// FindEvent returns the catalog event with the given id.
func (s Snapshot) FindEvent(id string) (CatalogEvent, bool) {
	for _, e := range s.Catalog {
		if e.ID == id {
			return e, true
		}
	}
	return CatalogEvent{}, false
}
