// Package criteria extracts a requester's effective filter from a
// loosely-shaped submission payload.
package criteria

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
	daypart "github.com/okian/hangout/internal/domain/daypart"
	model "github.com/okian/hangout/internal/domain/model"
)

// EventFields is the "event" sub-object of a submission. Every field is
// optional; budget is an alias of budgetMax.
type EventFields struct {
	Type      *string  `json:"type"`
	Category  *string  `json:"category"`
	Language  *string  `json:"language"`
	BudgetMax *float64 `json:"budgetMax"`
	Budget    *float64 `json:"budget"`
	TimeOfDay *string  `json:"timeOfDay"`
}

// Payload is a submission as sent by a member.
type Payload struct {
	Requester    string      `json:"requester"`
	SubmissionID string      `json:"submissionId"`
	TargetFriend string      `json:"targetFriend"`
	Event        EventFields `json:"event"`
}

// Decode reads a raw JSON-shaped map into a Payload. Numbers given as
// strings are accepted; unknown keys are ignored.
func Decode(raw map[string]any) (Payload, error) {
	var out Payload
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           &out,
		WeaklyTypedInput: true,
		DecodeHook:       blankAsAbsentHook(),
	})
	if err != nil {
		return Payload{}, fmt.Errorf("new decoder: %w", err)
	}
	if err := dec.Decode(raw); err != nil {
		return Payload{}, fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}
	return out, nil
}

// Normalize resolves the budget alias and the requested time of day.
// Absent or blank fields stay absent, and an unrecognized time of day is
// dropped rather than guessed.
func Normalize(f EventFields) model.Criteria {
	var c model.Criteria
	c.Type = deref(f.Type)
	c.Category = deref(f.Category)
	c.Language = deref(f.Language)

	switch {
	case f.BudgetMax != nil:
		v := *f.BudgetMax
		c.BudgetMax = &v
	case f.Budget != nil:
		v := *f.Budget
		c.BudgetMax = &v
	}

	if tod := deref(f.TimeOfDay); tod != "" {
		if d, ok := daypart.Parse(tod); ok {
			c.Daypart = d
		}
	}
	return c
}

// FromMap decodes raw and normalizes its event sub-object.
func FromMap(raw map[string]any) (model.Criteria, error) {
	p, err := Decode(raw)
	if err != nil {
		return model.Criteria{}, err
	}
	return Normalize(p.Event), nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

// blankAsAbsentHook leaves optional fields nil when the payload carries
// an empty string for them, and trims strings bound for numeric fields.
func blankAsAbsentHook() mapstructure.DecodeHookFunc {
	return func(from, to reflect.Kind, data any) (any, error) {
		if from != reflect.String {
			return data, nil
		}
		trimmed := strings.TrimSpace(data.(string))
		if to == reflect.Ptr && trimmed == "" {
			return nil, nil
		}
		if to == reflect.String || to == reflect.Ptr {
			return data, nil
		}
		return trimmed, nil
	}
}
