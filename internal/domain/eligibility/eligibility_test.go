package eligibility_test

import (
	"testing"

	eligibility "github.com/okian/hangout/internal/domain/eligibility"
	model "github.com/okian/hangout/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func f(v float64) *float64 { return &v }

func ids(evs []model.CatalogEvent) []string {
	out := make([]string, 0, len(evs))
	for _, e := range evs {
		out = append(out, e.ID)
	}
	return out
}

func catalog() []model.CatalogEvent {
	return []model.CatalogEvent{
		{ID: "E1", Type: "outdoor", Category: "food", Languages: []string{"en"}, Budget: f(15), StartTime: "19:30"},
		{ID: "E2", Type: "indoor", Category: "drinks", Languages: []string{"fr"}, Budget: f(10), StartTime: "09:00"},
		{ID: "E3", Type: "outdoor", Category: "food", Languages: []string{"en", "fr"}, StartTime: "03:99"},
		{ID: "E4", Type: "indoor", Category: "food", Budget: f(40), StartTime: "13:15"},
	}
}

func TestIsEligible(t *testing.T) {
	Convey("Given the catalog", t, func() {
		cat := catalog()

		Convey("When filtering on category and budget", func() {
			got := eligibility.EligibleEvents(cat[:2], model.Criteria{Category: "food", BudgetMax: f(20)})

			Convey("Then only the cheap food event should remain", func() {
				So(ids(got), ShouldResemble, []string{"E1"})
			})
		})

		Convey("When the event has no budget", func() {
			Convey("Then a budget limit should not exclude it", func() {
				So(eligibility.IsEligible(cat[2], model.Criteria{BudgetMax: f(1)}), ShouldBeTrue)
			})
		})

		Convey("When the budget equals the limit", func() {
			So(eligibility.IsEligible(cat[0], model.Criteria{BudgetMax: f(15)}), ShouldBeTrue)
		})

		Convey("When filtering on language", func() {
			got := eligibility.EligibleEvents(cat, model.Criteria{Language: "fr"})
			So(ids(got), ShouldResemble, []string{"E2", "E3"})
		})

		Convey("When filtering on type", func() {
			got := eligibility.EligibleEvents(cat, model.Criteria{Type: "indoor"})
			So(ids(got), ShouldResemble, []string{"E2", "E4"})
		})

		Convey("When filtering on time of day", func() {
			Convey("Then an evening event should pass an evening filter", func() {
				So(eligibility.IsEligible(cat[0], model.Criteria{Daypart: model.DaypartEvening}), ShouldBeTrue)
			})

			Convey("Then an unparsable start time should pass any filter", func() {
				So(eligibility.IsEligible(cat[2], model.Criteria{Daypart: model.DaypartEvening}), ShouldBeTrue)
				So(eligibility.IsEligible(cat[2], model.Criteria{Daypart: model.DaypartMorning}), ShouldBeTrue)
			})

			Convey("Then a different bucket should be excluded", func() {
				So(eligibility.IsEligible(cat[1], model.Criteria{Daypart: model.DaypartEvening}), ShouldBeFalse)
			})

			Convey("Then whole-day should admit every event", func() {
				got := eligibility.EligibleEvents(cat, model.Criteria{Daypart: model.DaypartWholeDay})
				So(len(got), ShouldEqual, len(cat))
			})
		})

		Convey("When the request carries no criteria", func() {
			got := eligibility.EligibleEvents(cat, model.Criteria{})

			Convey("Then every event should be eligible", func() {
				So(ids(got), ShouldResemble, []string{"E1", "E2", "E3", "E4"})
			})
		})

		Convey("When a stricter criterion is added", func() {
			loose := eligibility.EligibleEvents(cat, model.Criteria{Category: "food"})
			strict := eligibility.EligibleEvents(cat, model.Criteria{Category: "food", Type: "outdoor"})

			Convey("Then the eligible set should not grow", func() {
				So(len(strict), ShouldBeLessThanOrEqualTo, len(loose))
				for _, id := range ids(strict) {
					So(ids(loose), ShouldContain, id)
				}
			})
		})

		Convey("When the result is modified", func() {
			got := eligibility.EligibleEvents(cat, model.Criteria{})
			got[0].Languages[0] = "xx"

			Convey("Then the catalog should be untouched", func() {
				So(cat[0].Languages[0], ShouldEqual, "en")
			})
		})
	})
}

func TestForRequest(t *testing.T) {
	Convey("Given a request for drinks", t, func() {
		r := model.Request{ID: "r1", Criteria: model.Criteria{Category: "drinks"}}
		So(ids(eligibility.ForRequest(catalog(), r)), ShouldResemble, []string{"E2"})
	})
}
