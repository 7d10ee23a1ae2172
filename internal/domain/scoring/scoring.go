// Package scoring computes how well one catalog event satisfies one
// requester's stated preferences.
package scoring

import (
	"math"

	model "github.com/okian/hangout/internal/domain/model"
)

const maxPercentage = 100

// Quality is a coarse label for a match percentage.
type Quality string

// Quality labels.
const (
	QualityPerfect Quality = "perfect"  // 100
	QualityGood    Quality = "good"     // 60-99
	QualityFair    Quality = "fair"     // 40-59
	QualityPoor    Quality = "poor"     // 1-39
	QualityNone    Quality = "no-match" // 0
)

// Result is the outcome of scoring one event against one criteria snapshot.
type Result struct {
	Percentage int                `json:"match_percentage"`
	Details    model.MatchDetails `json:"match_details"`
	Considered int                `json:"considered"`
	Matched    int                `json:"matched"`
}

// Score compares ev against the location/type, category and language
// criteria of c. Unspecified criteria are left nil in Details and do not
// count. When nothing is considered the match is a vacuous 100.
func Score(ev model.CatalogEvent, c model.Criteria) Result {
	var r Result
	r.Details.Location = r.check(c.Type, ev.Type == c.Type)
	r.Details.Category = r.check(c.Category, ev.Category == c.Category)
	r.Details.Language = r.check(c.Language, ev.HasLanguage(c.Language))

	if r.Considered == 0 {
		r.Percentage = maxPercentage
		return r
	}
	r.Percentage = int(math.Round(maxPercentage * float64(r.Matched) / float64(r.Considered)))
	return r
}

func (r *Result) check(want string, ok bool) *bool {
	if want == "" {
		return nil
	}
	r.Considered++
	if ok {
		r.Matched++
	}
	return &ok
}

// Perfect reports whether every specified criterion is satisfied.
func (r Result) Perfect() bool {
	return r.Percentage == maxPercentage
}

// Quality returns the label for the result's percentage.
func (r Result) Quality() Quality {
	return QualityOf(r.Percentage)
}

// QualityOf labels a percentage.
func QualityOf(p int) Quality {
	switch {
	case p >= maxPercentage:
		return QualityPerfect
	case p >= 60:
		return QualityGood
	case p >= 40:
		return QualityFair
	case p > 0:
		return QualityPoor
	default:
		return QualityNone
	}
}

// Suggest builds the requester-facing suggestion for a matched request.
// id and the creation time are supplied by the caller.
func Suggest(id string, req model.Request, ev model.CatalogEvent) model.Suggestion {
	res := Score(ev, req.Criteria)
	s := model.Suggestion{
		ID:              id,
		RequestID:       req.ID,
		Requester:       req.Requester,
		Criteria:        req.Criteria.Clone(),
		Event:           ev.Clone(),
		MatchPercentage: res.Percentage,
		MatchDetails:    res.Details,
	}
	if req.MatchedAt != nil {
		s.CreatedAt = *req.MatchedAt
	}
	return s
}
