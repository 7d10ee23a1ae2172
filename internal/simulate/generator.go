package simulate

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/google/uuid"
	"github.com/okian/hangout/internal/domain/model"
	"github.com/okian/hangout/pkg/logger"
)

// Pools the generator draws from. Kept small so requests and events overlap.
var (
	eventTypes  = []string{"bar", "cafe", "park", "museum", "club"}
	categories  = []string{"food", "drinks", "music", "sports", "art"}
	languages   = []string{"en", "fr", "es", "de"}
	startTimes  = []string{"07:30", "10:00", "12:30", "15:00", "18:30", "20:00", "22:30", "01:00"}
	timesOfDay  = []string{"morning", "afternoon", "evening", "night", "whole-day"}
	budgetSteps = []float64{5, 10, 15, 20, 30, 50}
)

// Submission is the JSON body of POST /requests.
type Submission struct {
	Requester    string          `json:"requester"`
	SubmissionID string          `json:"submissionId"`
	TargetFriend string          `json:"targetFriend,omitempty"`
	Event        SubmissionEvent `json:"event"`
}

// SubmissionEvent carries the requested criteria. Nil fields are omitted.
type SubmissionEvent struct {
	Type      *string  `json:"type,omitempty"`
	Category  *string  `json:"category,omitempty"`
	Language  *string  `json:"language,omitempty"`
	BudgetMax *float64 `json:"budgetMax,omitempty"`
	TimeOfDay *string  `json:"timeOfDay,omitempty"`
}

// randomInt returns a uniform value in [0, n) using crypto/rand.
func randomInt(n int) int {
	if n <= 1 {
		return 0
	}
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0
	}
	return int(v.Int64())
}

// chance reports true with the given percentage.
func chance(percent int) bool {
	return randomInt(PercentageMultiplier) < percent
}

func pick[T any](pool []T) T {
	return pool[randomInt(len(pool))]
}

// generateCatalog creates n catalog events with unique ids.
func generateCatalog(ctx context.Context, n int) []model.CatalogEvent {
	events := make([]model.CatalogEvent, n)
	for i := range events {
		b := pick(budgetSteps)
		langs := []string{pick(languages)}
		if chance(30) {
			if extra := pick(languages); extra != langs[0] {
				langs = append(langs, extra)
			}
		}
		events[i] = model.CatalogEvent{
			ID:        "sim-" + uuid.NewString(),
			Name:      fmt.Sprintf("simulated event %d", i+1),
			Type:      pick(eventTypes),
			Category:  pick(categories),
			Languages: langs,
			Budget:    &b,
			StartTime: pick(startTimes),
			Capacity:  10 + randomInt(40),
		}
	}
	logger.Get().Info(ctx, "generated catalog", logger.Int("count", len(events)))
	return events
}

// generateUsers creates n requester ids.
func generateUsers(n int) []string {
	users := make([]string, n)
	for i := range users {
		users[i] = "sim-user-" + uuid.NewString()
	}
	return users
}

// generateSubmissions creates n submissions spread across users. Each
// criterion is present with some probability so that unconstrained and
// over-constrained requests both occur.
func generateSubmissions(ctx context.Context, n int, users []string) []Submission {
	subs := make([]Submission, n)
	for i := range subs {
		var ev SubmissionEvent
		if chance(60) {
			v := pick(eventTypes)
			ev.Type = &v
		}
		if chance(70) {
			v := pick(categories)
			ev.Category = &v
		}
		if chance(50) {
			v := pick(languages)
			ev.Language = &v
		}
		if chance(40) {
			v := pick(budgetSteps)
			ev.BudgetMax = &v
		}
		if chance(50) {
			v := pick(timesOfDay)
			ev.TimeOfDay = &v
		}
		sub := Submission{
			Requester:    pick(users),
			SubmissionID: uuid.NewString(),
			Event:        ev,
		}
		if chance(20) {
			sub.TargetFriend = pick(users)
		}
		subs[i] = sub
	}
	logger.Get().Info(ctx, "generated submissions", logger.Int("count", len(subs)))
	return subs
}
