package simulate

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/okian/hangout/internal/domain/model"
	"github.com/okian/hangout/pkg/logger"
)

// ErrVerification wraps every invariant the run found broken.
var ErrVerification = errors.New("verification failed")

type pointsResponse struct {
	User   string `json:"user"`
	Points int64  `json:"points"`
}

// verifyResults checks the service state against what the run did:
//   - no assigned request is still pending, and every pending request is below matched
//   - each user's points equal accepted suggestions times the reward
//   - joined events hold no duplicates and exactly the distinct accepted events
func verifyResults(ctx context.Context, c *Client, out *outcome) error {
	log := logger.Get().Named("verify")
	log.Info(ctx, "verifying results")

	var stats map[string]any
	if _, err := c.do(ctx, http.MethodGet, "/stats", nil, &stats, http.StatusOK); err != nil {
		return err
	}
	reward := int64(1)
	if v, ok := stats["acceptReward"].(float64); ok {
		reward = int64(v)
	}

	var problems []error

	var pending []model.Request
	if _, err := c.do(ctx, http.MethodGet, "/requests/pending", nil, &pending, http.StatusOK); err != nil {
		return err
	}
	problems = append(problems, checkPending(pending, out.assigned)...)

	for _, user := range out.users {
		var points pointsResponse
		if _, err := c.do(ctx, http.MethodGet, userPath(user, "points"), nil, &points, http.StatusOK); err != nil {
			return err
		}
		var joined []model.CatalogEvent
		if _, err := c.do(ctx, http.MethodGet, userPath(user, "events"), nil, &joined, http.StatusOK); err != nil {
			return err
		}
		problems = append(problems, checkUser(user, reward, points.Points, joined, out.accepted[user])...)
	}

	if len(problems) > 0 {
		for _, p := range problems {
			log.Error(ctx, "invariant broken", logger.Error(p))
		}
		return fmt.Errorf("%w: %w", ErrVerification, errors.Join(problems...))
	}
	log.Info(ctx, "all invariants hold",
		logger.Int("users", len(out.users)),
		logger.Int("assigned", len(out.assigned)),
		logger.Int("stillPending", len(pending)),
	)
	return nil
}

// checkPending reports assigned requests that remain pending and pending
// requests that claim to be matched.
func checkPending(pending []model.Request, assigned map[string]string) []error {
	var problems []error
	for _, r := range pending {
		if _, ok := assigned[r.ID]; ok {
			problems = append(problems, fmt.Errorf("request %s was assigned but is still pending", r.ID))
		}
		if r.Stage >= model.StageMatched {
			problems = append(problems, fmt.Errorf("pending request %s is at stage %d", r.ID, r.Stage))
		}
	}
	return problems
}

// checkUser compares one user's ledger and joined events with what was accepted.
func checkUser(user string, reward, points int64, joined []model.CatalogEvent, accepted []string) []error {
	var problems []error

	if want := int64(len(accepted)) * reward; points != want {
		problems = append(problems, fmt.Errorf("user %s has %d points, want %d", user, points, want))
	}

	seen := make(map[string]struct{}, len(joined))
	for _, e := range joined {
		if _, dup := seen[e.ID]; dup {
			problems = append(problems, fmt.Errorf("user %s joined event %s twice", user, e.ID))
		}
		seen[e.ID] = struct{}{}
	}

	distinct := make(map[string]struct{}, len(accepted))
	for _, id := range accepted {
		distinct[id] = struct{}{}
		if _, ok := seen[id]; !ok {
			problems = append(problems, fmt.Errorf("user %s accepted event %s but has not joined it", user, id))
		}
	}
	if len(seen) != len(distinct) {
		problems = append(problems, fmt.Errorf("user %s joined %d events, accepted %d distinct", user, len(seen), len(distinct)))
	}
	return problems
}
