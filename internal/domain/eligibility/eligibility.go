// Package eligibility decides which catalog events may be assigned to a request.
package eligibility

import (
	daypart "github.com/okian/hangout/internal/domain/daypart"
	model "github.com/okian/hangout/internal/domain/model"
)

// IsEligible reports whether ev satisfies every criterion c specifies.
// Unspecified criteria always pass. An event whose start time cannot be
// classified is never excluded by a time-of-day filter.
func IsEligible(ev model.CatalogEvent, c model.Criteria) bool {
	if c.Type != "" && ev.Type != c.Type {
		return false
	}
	if c.Category != "" && ev.Category != c.Category {
		return false
	}
	if c.Language != "" && !ev.HasLanguage(c.Language) {
		return false
	}
	if c.BudgetMax != nil && ev.Budget != nil && *ev.Budget > *c.BudgetMax {
		return false
	}
	return daypartAllows(ev, c.Daypart)
}

func daypartAllows(ev model.CatalogEvent, want model.Daypart) bool {
	if want == model.DaypartUndetermined || want == model.DaypartWholeDay {
		return true
	}
	got := daypart.Classify(ev.StartTime)
	return got == model.DaypartUndetermined || got == want
}

// EligibleEvents returns the events of catalog that are eligible for c,
// preserving catalog order. The result never aliases catalog.
func EligibleEvents(catalog []model.CatalogEvent, c model.Criteria) []model.CatalogEvent {
	out := make([]model.CatalogEvent, 0, len(catalog))
	for _, ev := range catalog {
		if IsEligible(ev, c) {
			out = append(out, ev.Clone())
		}
	}
	return out
}

// ForRequest is EligibleEvents over the request's own criteria.
func ForRequest(catalog []model.CatalogEvent, r model.Request) []model.CatalogEvent {
	return EligibleEvents(catalog, r.Criteria)
}
