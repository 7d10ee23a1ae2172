package model_test

import (
	"encoding/json"
	"testing"
	"time"

	model "github.com/okian/hangout/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func budget(v float64) *float64 { return &v }

func TestStage(t *testing.T) {
	convey.Convey("Given request stages", t, func() {
		convey.Convey("Then known stages should be valid and named", func() {
			convey.So(model.StageSubmitted.IsValid(), convey.ShouldBeTrue)
			convey.So(model.StageReceived.IsValid(), convey.ShouldBeTrue)
			convey.So(model.StageMatched.IsValid(), convey.ShouldBeTrue)
			convey.So(model.StageSubmitted.String(), convey.ShouldEqual, "submitted")
			convey.So(model.StageReceived.String(), convey.ShouldEqual, "received")
			convey.So(model.StageMatched.String(), convey.ShouldEqual, "matched")
		})

		convey.Convey("Then out-of-range stages should be invalid", func() {
			convey.So(model.Stage(0).IsValid(), convey.ShouldBeFalse)
			convey.So(model.Stage(4).IsValid(), convey.ShouldBeFalse)
			convey.So(model.Stage(4).String(), convey.ShouldEqual, "unknown")
		})
	})
}

func TestCriteria(t *testing.T) {
	convey.Convey("Given criteria", t, func() {
		convey.Convey("When nothing is specified", func() {
			convey.So(model.Criteria{}.IsEmpty(), convey.ShouldBeTrue)
		})

		convey.Convey("When only a zero budget is specified", func() {
			c := model.Criteria{BudgetMax: budget(0)}
			convey.So(c.IsEmpty(), convey.ShouldBeFalse)
		})

		convey.Convey("When cloning", func() {
			c := model.Criteria{Category: "food", BudgetMax: budget(20)}
			cp := c.Clone()
			*cp.BudgetMax = 99

			convey.Convey("Then the original budget should be untouched", func() {
				convey.So(*c.BudgetMax, convey.ShouldEqual, 20)
			})
		})
	})
}

func TestCatalogEvent(t *testing.T) {
	convey.Convey("Given a catalog event held in two languages", t, func() {
		ev := model.CatalogEvent{ID: "e1", Languages: []string{"en", "fr"}, Budget: budget(15)}

		convey.Convey("Then it should report both languages", func() {
			convey.So(ev.HasLanguage("en"), convey.ShouldBeTrue)
			convey.So(ev.HasLanguage("fr"), convey.ShouldBeTrue)
			convey.So(ev.HasLanguage("de"), convey.ShouldBeFalse)
		})

		convey.Convey("When cloning and mutating the copy", func() {
			cp := ev.Clone()
			cp.Languages[0] = "de"
			*cp.Budget = 1

			convey.Convey("Then the original should be untouched", func() {
				convey.So(ev.Languages[0], convey.ShouldEqual, "en")
				convey.So(*ev.Budget, convey.ShouldEqual, 15)
			})
		})
	})
}

func TestCatalogEventDecode(t *testing.T) {
	convey.Convey("Given catalog payloads", t, func() {
		decode := func(raw string) (model.CatalogEvent, error) {
			var ev model.CatalogEvent
			err := json.Unmarshal([]byte(raw), &ev)
			return ev, err
		}

		convey.Convey("Then a singular language string should be read as one language", func() {
			ev, err := decode(`{"id":"e1","language":"en","startTime":"19:30"}`)
			convey.So(err, convey.ShouldBeNil)
			convey.So(ev.Languages, convey.ShouldResemble, []string{"en"})
			convey.So(ev.HasLanguage("en"), convey.ShouldBeTrue)
			convey.So(ev.StartTime, convey.ShouldEqual, "19:30")
		})

		convey.Convey("Then a singular language list should be kept", func() {
			ev, err := decode(`{"id":"e1","language":["en","fr"]}`)
			convey.So(err, convey.ShouldBeNil)
			convey.So(ev.Languages, convey.ShouldResemble, []string{"en", "fr"})
		})

		convey.Convey("Then the plural field should win over the singular", func() {
			ev, err := decode(`{"id":"e1","languages":["fr"],"language":"en","start_time":"10:00","startTime":"20:00"}`)
			convey.So(err, convey.ShouldBeNil)
			convey.So(ev.Languages, convey.ShouldResemble, []string{"fr"})
			convey.So(ev.StartTime, convey.ShouldEqual, "10:00")
		})

		convey.Convey("Then a stored event should decode unchanged", func() {
			in := model.CatalogEvent{ID: "e1", Category: "food", Languages: []string{"en"}, Budget: budget(15), StartTime: "19:30"}
			body, err := json.Marshal(in)
			convey.So(err, convey.ShouldBeNil)
			out, err := decode(string(body))
			convey.So(err, convey.ShouldBeNil)
			convey.So(out, convey.ShouldResemble, in)
		})

		convey.Convey("Then a language of the wrong shape should fail", func() {
			_, err := decode(`{"id":"e1","language":5}`)
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}

func TestRequestClone(t *testing.T) {
	convey.Convey("Given a matched request", t, func() {
		now := time.Now()
		r := model.Request{
			ID:            "r1",
			Stage:         model.StageMatched,
			AssignedEvent: &model.CatalogEvent{ID: "e7"},
			MatchedAt:     &now,
		}

		convey.Convey("When cloning", func() {
			cp := r.Clone()
			cp.AssignedEvent.ID = "other"

			convey.Convey("Then the assigned event should not be shared", func() {
				convey.So(r.AssignedEvent.ID, convey.ShouldEqual, "e7")
				convey.So(cp.MatchedAt, convey.ShouldNotPointTo, r.MatchedAt)
			})
		})
	})
}

func TestSnapshotLookup(t *testing.T) {
	convey.Convey("Given a snapshot", t, func() {
		snap := model.Snapshot{
			Requests: []model.Request{{ID: "r1"}, {ID: "r2"}},
			Catalog:  []model.CatalogEvent{{ID: "e1"}},
		}

		convey.Convey("Then lookups should resolve present ids only", func() {
			_, ok := snap.FindRequest("r2")
			convey.So(ok, convey.ShouldBeTrue)
			_, ok = snap.FindRequest("r3")
			convey.So(ok, convey.ShouldBeFalse)
			_, ok = snap.FindEvent("e1")
			convey.So(ok, convey.ShouldBeTrue)
			_, ok = snap.FindEvent("e2")
			convey.So(ok, convey.ShouldBeFalse)
		})
	})
}

func TestUserCollections(t *testing.T) {
	convey.Convey("Given user collections", t, func() {
		u := model.UserCollections{
			Joined:      []model.CatalogEvent{{ID: "e1"}},
			Suggestions: []model.Suggestion{{ID: "s1", Event: model.CatalogEvent{ID: "e2"}}},
		}

		convey.Convey("Then HasJoined should check event ids", func() {
			convey.So(u.HasJoined("e1"), convey.ShouldBeTrue)
			convey.So(u.HasJoined("e2"), convey.ShouldBeFalse)
		})

		convey.Convey("When the clone is modified", func() {
			cp := u.Clone()
			cp.Joined = append(cp.Joined, model.CatalogEvent{ID: "e3"})
			cp.Suggestions = cp.Suggestions[:0]

			convey.Convey("Then the original should be untouched", func() {
				convey.So(len(u.Joined), convey.ShouldEqual, 1)
				convey.So(len(u.Suggestions), convey.ShouldEqual, 1)
			})
		})
	})
}
