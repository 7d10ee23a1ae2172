package model

import (
	"encoding/json"
	"fmt"
)

// Daypart is a coarse time-of-day bucket.
type Daypart string

// Daypart values. DaypartUndetermined marks an unparsable clock string
// or an absent criterion; DaypartWholeDay means "no time constraint".
const (
	DaypartUndetermined Daypart = ""
	DaypartMorning      Daypart = "morning"
	DaypartAfternoon    Daypart = "afternoon"
	DaypartEvening      Daypart = "evening"
	DaypartNight        Daypart = "night"
	DaypartWholeDay     Daypart = "whole-day"
)

// IsBucket reports whether d is one of the four concrete buckets.
func (d Daypart) IsBucket() bool {
	switch d {
	case DaypartMorning, DaypartAfternoon, DaypartEvening, DaypartNight:
		return true
	default:
		return false
	}
}

// CatalogEvent is a schedulable event that can be assigned to a request.
// The matching engine treats it as read-only.
type CatalogEvent struct {
	ID           string   `json:"id"`
	Name         string   `json:"name,omitempty"`
	Type         string   `json:"type,omitempty"`
	Category     string   `json:"category,omitempty"`
	Languages    []string `json:"languages,omitempty"`
	Budget       *float64 `json:"budget,omitempty"`
	StartTime    string   `json:"start_time,omitempty"` // "HH:MM", 24-hour
	Capacity     int      `json:"capacity,omitempty"`
	Participants int      `json:"participants,omitempty"`
}

// UnmarshalJSON accepts "language" (a string or a list) when "languages"
// is absent, and "startTime" when "start_time" is absent.
func (e *CatalogEvent) UnmarshalJSON(data []byte) error {
	type plain CatalogEvent
	var aux struct {
		plain
		Language     json.RawMessage `json:"language"`
		StartTimeAlt string          `json:"startTime"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*e = CatalogEvent(aux.plain)
	if e.Languages == nil && len(aux.Language) > 0 && string(aux.Language) != "null" {
		langs, err := decodeLanguage(aux.Language)
		if err != nil {
			return err
		}
		e.Languages = langs
	}
	if e.StartTime == "" {
		e.StartTime = aux.StartTimeAlt
	}
	return nil
}

func decodeLanguage(raw json.RawMessage) ([]string, error) {
	var one string
	if err := json.Unmarshal(raw, &one); err == nil {
		if one == "" {
			return nil, nil
		}
		return []string{one}, nil
	}
	var many []string
	if err := json.Unmarshal(raw, &many); err != nil {
		return nil, fmt.Errorf("catalog event language: want a string or a list: %w", err)
	}
	return many, nil
}

// HasLanguage reports whether the event is held in lang.
func (e CatalogEvent) HasLanguage(lang string) bool {
	for _, l := range e.Languages {
		if l == lang {
			return true
		}
	}
	return false
}

// Clone returns a copy that shares no slices or pointers with e.
func (e CatalogEvent) Clone() CatalogEvent {
	out := e
	if e.Languages != nil {
		out.Languages = append([]string(nil), e.Languages...)
	}
	if e.Budget != nil {
		v := *e.Budget
		out.Budget = &v
	}
	return out
}
