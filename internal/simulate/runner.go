package simulate

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/hangout/internal/domain/model"
	"github.com/okian/hangout/pkg/logger"
)

type submitResponse struct {
	Request   model.Request `json:"request"`
	Duplicate bool          `json:"duplicate"`
}

type assignResponse struct {
	Request    model.Request    `json:"request"`
	Suggestion model.Suggestion `json:"suggestion"`
}

type suggestionView struct {
	model.Suggestion
	Quality string `json:"quality"`
	Perfect bool   `json:"perfect_match"`
}

type resolution struct {
	Decision    string `json:"decision"`
	Joined      bool   `json:"joined"`
	PointsDelta int64  `json:"points_delta"`
	Points      int64  `json:"points"`
}

// outcome is what the run observed, kept for verification.
type outcome struct {
	mu       sync.Mutex
	users    []string
	requests map[string]model.Request // by request id
	assigned map[string]string        // request id -> event id
	accepted map[string][]string      // user -> accepted event ids
}

func newOutcome(users []string) *outcome {
	return &outcome{
		users:    users,
		requests: make(map[string]model.Request),
		assigned: make(map[string]string),
		accepted: make(map[string][]string),
	}
}

// Run executes a complete simulation against cfg.BaseURL.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	stats := &Stats{StartTime: time.Now()}
	log := logger.Get().Named("simulate")

	log.Info(ctx, "starting hangout simulation",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("requests", cfg.Requests),
		logger.Int("users", cfg.Users),
		logger.Int("events", cfg.Events),
		logger.Int("workers", cfg.Workers),
		logger.Bool("adminAuth", cfg.AdminSecret != ""),
	)

	client, err := NewClient(cfg.BaseURL, cfg.Timeout, cfg.AdminSecret)
	if err != nil {
		return nil, err
	}

	// Step 1: Check service health
	if _, err := client.do(ctx, http.MethodGet, "/healthz", nil, nil, http.StatusOK); err != nil {
		return nil, fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Seed catalog
	if err := seedCatalog(ctx, client, generateCatalog(ctx, cfg.Events), stats); err != nil {
		return nil, fmt.Errorf("catalog seeding failed: %w", err)
	}

	// Step 3: Submit requests concurrently
	users := generateUsers(cfg.Users)
	out := newOutcome(users)
	submitRequests(ctx, cfg, client, generateSubmissions(ctx, cfg.Requests, users), out, stats)

	// Step 4: Assign the first eligible event to every pending request
	if err := assignPending(ctx, cfg, client, out, stats); err != nil {
		return nil, fmt.Errorf("assignment failed: %w", err)
	}

	// Step 5: Accept or decline every suggestion
	resolveSuggestions(ctx, cfg, client, out, stats)

	// Step 6: Verify invariants
	if err := verifyResults(ctx, client, out); err != nil {
		return stats, fmt.Errorf("result verification failed: %w", err)
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats)

	log.Info(ctx, "simulation completed successfully")
	return stats, nil
}

func seedCatalog(ctx context.Context, c *Client, events []model.CatalogEvent, stats *Stats) error {
	for _, ev := range events {
		if _, err := c.do(ctx, http.MethodPost, "/catalog", ev, nil, http.StatusOK); err != nil {
			return err
		}
		stats.EventsSeeded++
	}
	return nil
}

// fanOut runs fn over items with n workers.
func fanOut[T any](ctx context.Context, n int, items []T, fn func(T)) {
	if n < 1 {
		n = 1
	}
	ch := make(chan T, n*WorkerChannelMultiplier)
	var wg sync.WaitGroup
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range ch {
				if ctx.Err() != nil {
					continue
				}
				fn(item)
			}
		}()
	}
send:
	for _, item := range items {
		select {
		case <-ctx.Done():
			break send
		case ch <- item:
		}
	}
	close(ch)
	wg.Wait()
}

func submitRequests(ctx context.Context, cfg *Config, c *Client, subs []Submission, out *outcome, stats *Stats) {
	logger.Get().Info(ctx, "submitting requests", logger.Int("count", len(subs)), logger.Int("workers", cfg.Workers))

	var submitted, duplicate, failed, mismatched atomic.Int64
	progress := newProgress(ctx, cfg.Verbose, "submitted", len(subs), &submitted)
	defer progress.stop()

	fanOut(ctx, cfg.Workers, subs, func(sub Submission) {
		var first submitResponse
		if _, err := c.do(ctx, http.MethodPost, "/requests", sub, &first, http.StatusCreated, http.StatusOK); err != nil {
			failed.Add(1)
			logger.Get().Debug(ctx, "submit failed", logger.Error(err))
			return
		}
		submitted.Add(1)
		out.mu.Lock()
		out.requests[first.Request.ID] = first.Request
		out.mu.Unlock()

		if !chance(cfg.Duplicates) {
			return
		}
		var again submitResponse
		if _, err := c.do(ctx, http.MethodPost, "/requests", sub, &again, http.StatusOK); err != nil {
			failed.Add(1)
			return
		}
		duplicate.Add(1)
		if !again.Duplicate || again.Request.ID != first.Request.ID {
			mismatched.Add(1)
		}
	})

	stats.RequestsSubmitted = int(submitted.Load())
	stats.RequestsDuplicate = int(duplicate.Load())
	stats.RequestsFailed = int(failed.Load())
	stats.DuplicateMismatches = int(mismatched.Load())
}

func assignPending(ctx context.Context, cfg *Config, c *Client, out *outcome, stats *Stats) error {
	var pending []model.Request
	if _, err := c.do(ctx, http.MethodGet, "/requests/pending", nil, &pending, http.StatusOK); err != nil {
		return err
	}
	logger.Get().Info(ctx, "assigning pending requests", logger.Int("pending", len(pending)))

	var assigned, unmatched, failed, perfect atomic.Int64
	fanOut(ctx, cfg.Workers, pending, func(req model.Request) {
		out.mu.Lock()
		_, ours := out.requests[req.ID]
		out.mu.Unlock()
		if !ours {
			return
		}

		var eligible []model.CatalogEvent
		if _, err := c.do(ctx, http.MethodGet, "/requests/"+req.ID+"/eligible", nil, &eligible, http.StatusOK); err != nil {
			failed.Add(1)
			return
		}
		if len(eligible) == 0 {
			unmatched.Add(1)
			return
		}

		body := map[string]any{"eventId": eligible[0].ID, "expectedVersion": req.Version}
		var res assignResponse
		if _, err := c.do(ctx, http.MethodPost, "/requests/"+req.ID+"/assign", body, &res, http.StatusOK); err != nil {
			failed.Add(1)
			logger.Get().Debug(ctx, "assign failed", logger.String("requestId", req.ID), logger.Error(err))
			return
		}
		assigned.Add(1)
		if res.Suggestion.MatchPercentage == PercentageMultiplier {
			perfect.Add(1)
		}
		out.mu.Lock()
		out.assigned[req.ID] = res.Suggestion.Event.ID
		out.mu.Unlock()
	})

	stats.Assigned = int(assigned.Load())
	stats.Unmatched = int(unmatched.Load())
	stats.AssignFailed = int(failed.Load())
	stats.PerfectMatches = int(perfect.Load())
	return nil
}

func resolveSuggestions(ctx context.Context, cfg *Config, c *Client, out *outcome, stats *Stats) {
	var accepted, declined, failed atomic.Int64

	// One worker per user keeps a user's resolutions ordered.
	fanOut(ctx, cfg.Workers, out.users, func(user string) {
		var views []suggestionView
		if _, err := c.do(ctx, http.MethodGet, userPath(user, "suggestions"), nil, &views, http.StatusOK); err != nil {
			failed.Add(1)
			return
		}
		for _, v := range views {
			decision := "decline"
			if chance(cfg.AcceptRatio) {
				decision = "accept"
			}
			var res resolution
			if _, err := c.do(ctx, http.MethodPost, userPath(user, "suggestions", v.ID, decision), nil, &res, http.StatusOK); err != nil {
				failed.Add(1)
				continue
			}
			if decision == "accept" {
				accepted.Add(1)
				out.mu.Lock()
				out.accepted[user] = append(out.accepted[user], v.Event.ID)
				out.mu.Unlock()
			} else {
				declined.Add(1)
			}
		}
	})

	stats.Accepted = int(accepted.Load())
	stats.Declined = int(declined.Load())
	stats.ResolveFailed = int(failed.Load())
}

// progress periodically logs a counter until stopped.
type progress struct {
	done chan struct{}
	wg   sync.WaitGroup
}

func newProgress(ctx context.Context, verbose bool, label string, total int, counter *atomic.Int64) *progress {
	p := &progress{done: make(chan struct{})}
	if !verbose {
		return p
	}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		ticker := time.NewTicker(progressInterval)
		defer ticker.Stop()
		for {
			select {
			case <-p.done:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				logger.Get().Info(ctx, "progress",
					logger.String("stage", label),
					logger.Int64("done", counter.Load()),
					logger.Int("total", total),
				)
			}
		}
	}()
	return p
}

func (p *progress) stop() {
	close(p.done)
	p.wg.Wait()
}

// displayFinalStats logs the final run statistics.
func displayFinalStats(ctx context.Context, stats *Stats) {
	var acceptRate, requestsPerSecond float64
	if resolved := stats.Accepted + stats.Declined; resolved > 0 {
		acceptRate = float64(stats.Accepted) / float64(resolved) * PercentageMultiplier
	}
	if stats.Duration > 0 {
		requestsPerSecond = float64(stats.RequestsSubmitted) / stats.Duration.Seconds()
	}

	logger.Get().Info(ctx, "final statistics",
		logger.Int("eventsSeeded", stats.EventsSeeded),
		logger.Int("requestsSubmitted", stats.RequestsSubmitted),
		logger.Int("requestsDuplicate", stats.RequestsDuplicate),
		logger.Int("requestsFailed", stats.RequestsFailed),
		logger.Int("assigned", stats.Assigned),
		logger.Int("unmatched", stats.Unmatched),
		logger.Int("perfectMatches", stats.PerfectMatches),
		logger.Int("accepted", stats.Accepted),
		logger.Int("declined", stats.Declined),
		logger.Duration("duration", stats.Duration),
		logger.Float64("acceptRate", acceptRate),
		logger.Float64("requestsPerSecond", requestsPerSecond),
	)
}
