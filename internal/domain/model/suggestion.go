package model

import "time"

// MatchDetails is the per-criterion outcome of scoring one event against one request.
// A nil field means the requester did not specify that criterion.
type MatchDetails struct {
	Location *bool `json:"location"`
	Category *bool `json:"category"`
	Language *bool `json:"language"`
}

// Suggestion is a matched (request, event) pair awaiting the requester's decision.
type Suggestion struct {
	ID              string       `json:"id"`
	RequestID       string       `json:"request_id"`
	Requester       string       `json:"requester"`
	Criteria        Criteria     `json:"criteria"` // snapshot taken at assignment time
	Event           CatalogEvent `json:"event"`
	MatchPercentage int          `json:"match_percentage"`
	MatchDetails    MatchDetails `json:"match_details"`
	CreatedAt       time.Time    `json:"created_at"`
}

// UserCollections is the per-user unit read and replaced by the resolver.
type UserCollections struct {
	Joined      []CatalogEvent `json:"joined"`
	Suggestions []Suggestion   `json:"suggestions"`
}

// HasJoined reports whether eventID is already in the joined collection.
func (u UserCollections) HasJoined(eventID string) bool {
	for _, e := range u.Joined {
		if e.ID == eventID {
			return true
		}
	}
	return false
}

// Clone returns a copy whose slices can be modified without touching u.
func (u UserCollections) Clone() UserCollections {
	out := UserCollections{
		Joined:      make([]CatalogEvent, 0, len(u.Joined)),
		Suggestions: make([]Suggestion, 0, len(u.Suggestions)),
	}
	for _, e := range u.Joined {
		out.Joined = append(out.Joined, e.Clone())
	}
	for _, s := range u.Suggestions {
		s.Criteria = s.Criteria.Clone()
		s.Event = s.Event.Clone()
		out.Suggestions = append(out.Suggestions, s)
	}
	return out
}
