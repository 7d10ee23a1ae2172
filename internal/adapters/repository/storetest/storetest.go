// Package storetest is a conformance suite shared by every repository.Store backend.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/hangout/internal/adapters/repository"
	model "github.com/okian/hangout/internal/domain/model"
)

// Factory returns an empty store. The suite closes it.
type Factory func(t *testing.T) repository.Store

func budget(v float64) *float64 { return &v }

func newRequest(id, user string) model.Request {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return model.Request{
		ID:        id,
		Requester: user,
		Criteria:  model.Criteria{Category: "food", BudgetMax: budget(20)},
		Stage:     model.StageSubmitted,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Run exercises every Store operation against a fresh store per subtest.
func Run(t *testing.T, factory Factory) {
	t.Helper()
	cases := []struct {
		name string
		fn   func(t *testing.T, s repository.Store)
	}{
		{"RequestRoundTrip", testRequestRoundTrip},
		{"CompareAndSwap", testCompareAndSwap},
		{"Archive", testArchive},
		{"Catalog", testCatalog},
		{"Collections", testCollections},
		{"CommitAssignment", testCommitAssignment},
		{"CommitAssignmentDeletedEvent", testCommitAssignmentDeletedEvent},
		{"ConcurrentSwap", testConcurrentSwap},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := factory(t)
			defer func() {
				if err := s.Close(); err != nil {
					t.Errorf("close: %v", err)
				}
			}()
			tc.fn(t, s)
		})
	}
}

func testRequestRoundTrip(t *testing.T, s repository.Store) {
	ctx := context.Background()
	r := newRequest("r1", "alice")
	if err := s.CreateRequest(ctx, r); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.CreateRequest(ctx, r); !errors.Is(err, repository.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
	got, err := s.GetRequest(ctx, "r1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Requester != "alice" || got.Criteria.Category != "food" || *got.Criteria.BudgetMax != 20 {
		t.Errorf("unexpected request: %+v", got)
	}
	if _, err := s.GetRequest(ctx, "missing"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := s.CreateRequest(ctx, model.Request{Stage: model.StageSubmitted}); !errors.Is(err, repository.ErrInvalidRecord) {
		t.Errorf("expected ErrInvalidRecord for empty id, got %v", err)
	}

	if err := s.CreateRequest(ctx, newRequest("r2", "bob")); err != nil {
		t.Fatalf("create r2: %v", err)
	}
	list, err := s.ListRequests(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].ID != "r1" || list[1].ID != "r2" {
		t.Errorf("unexpected list order: %+v", list)
	}
}

func testCompareAndSwap(t *testing.T, s repository.Store) {
	ctx := context.Background()
	r := newRequest("r1", "alice")
	if err := s.CreateRequest(ctx, r); err != nil {
		t.Fatalf("create: %v", err)
	}

	next := r.Clone()
	next.Stage = model.StageReceived
	next.Version = 2
	if err := s.CompareAndSwapRequest(ctx, 1, next); err != nil {
		t.Fatalf("cas: %v", err)
	}
	if err := s.CompareAndSwapRequest(ctx, 1, next); !errors.Is(err, repository.ErrVersionConflict) {
		t.Errorf("expected ErrVersionConflict, got %v", err)
	}

	back := next.Clone()
	back.Stage = model.StageSubmitted
	back.Version = 3
	if err := s.CompareAndSwapRequest(ctx, 2, back); !errors.Is(err, repository.ErrInvalidRecord) {
		t.Errorf("expected stage regression to be rejected, got %v", err)
	}

	matched := next.Clone()
	matched.Stage = model.StageMatched
	matched.Version = 3
	if err := s.CompareAndSwapRequest(ctx, 2, matched); !errors.Is(err, repository.ErrInvalidRecord) {
		t.Errorf("expected matched-without-event to be rejected, got %v", err)
	}

	ghost := newRequest("ghost", "x")
	ghost.Version = 2
	if err := s.CompareAndSwapRequest(ctx, 1, ghost); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	got, _ := s.GetRequest(ctx, "r1")
	if got.Stage != model.StageReceived || got.Version != 2 {
		t.Errorf("expected received@2, got %s@%d", got.Stage, got.Version)
	}
}

func testArchive(t *testing.T, s repository.Store) {
	ctx := context.Background()
	if err := s.CreateRequest(ctx, newRequest("r1", "alice")); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.ArchiveRequest(ctx, "r1"); err != nil {
		t.Fatalf("archive: %v", err)
	}
	if err := s.ArchiveRequest(ctx, "r1"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound on second archive, got %v", err)
	}
	list, _ := s.ListRequests(ctx)
	if len(list) != 0 {
		t.Errorf("expected no requests, got %d", len(list))
	}
}

func testCatalog(t *testing.T, s repository.Store) {
	ctx := context.Background()
	e1 := model.CatalogEvent{ID: "E1", Name: "Ramen", Category: "food", Languages: []string{"en", "ja"}, Budget: budget(15), StartTime: "19:30"}
	e2 := model.CatalogEvent{ID: "E2", Category: "drinks"}
	for _, ev := range []model.CatalogEvent{e1, e2} {
		if err := s.UpsertEvent(ctx, ev); err != nil {
			t.Fatalf("upsert %s: %v", ev.ID, err)
		}
	}
	e1.Name = "Ramen night"
	if err := s.UpsertEvent(ctx, e1); err != nil {
		t.Fatalf("re-upsert: %v", err)
	}
	if err := s.UpsertEvent(ctx, model.CatalogEvent{}); !errors.Is(err, repository.ErrInvalidRecord) {
		t.Errorf("expected ErrInvalidRecord, got %v", err)
	}

	got, err := s.GetEvent(ctx, "E1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "Ramen night" || !got.HasLanguage("ja") || *got.Budget != 15 {
		t.Errorf("unexpected event: %+v", got)
	}

	list, _ := s.ListEvents(ctx)
	if len(list) != 2 || list[0].ID != "E1" {
		t.Errorf("unexpected catalog: %+v", list)
	}

	if err := s.DeleteEvent(ctx, "E2"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.DeleteEvent(ctx, "E2"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.GetEvent(ctx, "E2"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func testCollections(t *testing.T, s repository.Store) {
	ctx := context.Background()
	u, err := s.GetCollections(ctx, "nobody")
	if err != nil {
		t.Fatalf("get empty: %v", err)
	}
	if len(u.Joined) != 0 || len(u.Suggestions) != 0 {
		t.Errorf("expected empty collections, got %+v", u)
	}

	err = s.UpdateCollections(ctx, "alice", func(u model.UserCollections) (model.UserCollections, error) {
		u.Joined = append(u.Joined, model.CatalogEvent{ID: "E1"})
		return u, nil
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	boom := errors.New("boom")
	err = s.UpdateCollections(ctx, "alice", func(u model.UserCollections) (model.UserCollections, error) {
		u.Joined = nil
		return u, boom
	})
	if !errors.Is(err, boom) {
		t.Errorf("expected fn error, got %v", err)
	}

	u, _ = s.GetCollections(ctx, "alice")
	if len(u.Joined) != 1 || u.Joined[0].ID != "E1" {
		t.Errorf("failed update must not write: %+v", u)
	}
}

func testCommitAssignment(t *testing.T, s repository.Store) {
	ctx := context.Background()
	r := newRequest("r1", "alice")
	r.Stage = model.StageReceived
	if err := s.CreateRequest(ctx, r); err != nil {
		t.Fatalf("create: %v", err)
	}

	ev := model.CatalogEvent{ID: "E7", Category: "food"}
	if err := s.UpsertEvent(ctx, ev); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	matched := r.Clone()
	matched.Stage = model.StageMatched
	matched.AssignedEvent = &ev
	matched.Version = 2
	sg := model.Suggestion{ID: "s1", RequestID: "r1", Requester: "alice", Event: ev, MatchPercentage: 100}

	if err := s.CommitAssignment(ctx, 1, matched, sg); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if err := s.CommitAssignment(ctx, 1, matched, sg); !errors.Is(err, repository.ErrVersionConflict) {
		t.Errorf("expected ErrVersionConflict, got %v", err)
	}

	got, _ := s.GetRequest(ctx, "r1")
	if got.Stage != model.StageMatched || got.AssignedEvent == nil || got.AssignedEvent.ID != "E7" {
		t.Errorf("unexpected request after commit: %+v", got)
	}
	u, _ := s.GetCollections(ctx, "alice")
	if len(u.Suggestions) != 1 || u.Suggestions[0].ID != "s1" {
		t.Errorf("expected exactly one suggestion, got %+v", u.Suggestions)
	}

	snap, err := s.Snapshot(ctx)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if _, ok := snap.FindRequest("r1"); !ok {
		t.Error("snapshot missing r1")
	}
}

func testCommitAssignmentDeletedEvent(t *testing.T, s repository.Store) {
	ctx := context.Background()
	ev := model.CatalogEvent{ID: "E9", Category: "food"}
	if err := s.UpsertEvent(ctx, ev); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	r := newRequest("r1", "alice")
	r.Stage = model.StageReceived
	if err := s.CreateRequest(ctx, r); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.DeleteEvent(ctx, "E9"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	matched := r.Clone()
	matched.Stage = model.StageMatched
	matched.AssignedEvent = &ev
	matched.Version = 2
	sg := model.Suggestion{ID: "s1", RequestID: "r1", Requester: "alice", Event: ev, MatchPercentage: 100}

	if err := s.CommitAssignment(ctx, 1, matched, sg); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for a deleted event, got %v", err)
	}
	got, err := s.GetRequest(ctx, "r1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Stage != model.StageReceived || got.Version != 1 || got.AssignedEvent != nil {
		t.Errorf("request must be untouched: %+v", got)
	}
	u, _ := s.GetCollections(ctx, "alice")
	if len(u.Suggestions) != 0 {
		t.Errorf("no suggestion may be queued, got %+v", u.Suggestions)
	}
}

func testConcurrentSwap(t *testing.T, s repository.Store) {
	ctx := context.Background()
	r := newRequest("r1", "alice")
	if err := s.CreateRequest(ctx, r); err != nil {
		t.Fatalf("create: %v", err)
	}

	const writers = 8
	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			next := r.Clone()
			next.Stage = model.StageReceived
			next.Version = 2
			next.TargetFriend = fmt.Sprintf("writer-%d", i)
			if err := s.CompareAndSwapRequest(ctx, 1, next); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			} else if !errors.Is(err, repository.ErrVersionConflict) {
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()
	if wins != 1 {
		t.Errorf("expected exactly one winning writer, got %d", wins)
	}
}
