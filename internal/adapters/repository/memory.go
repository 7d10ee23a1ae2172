package repository

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	model "github.com/okian/hangout/internal/domain/model"
	"github.com/okian/hangout/pkg/metrics"
)

const memoryBackend = "memory"

// MemoryStore keeps everything in process. Reads return deep copies so
// callers can never reach stored values.
type MemoryStore struct {
	mu           sync.RWMutex
	requests     map[string]model.Request
	requestOrder []string
	events       map[string]model.CatalogEvent
	eventOrder   []string
	collections  map[string]model.UserCollections

	metricsUpdateInterval time.Duration

	closed   atomic.Bool
	wg       sync.WaitGroup
	stopChan chan struct{}
}

// NewMemoryStore constructs an in-memory store and starts its metrics updater.
func NewMemoryStore(ctx context.Context, opts ...Option) *MemoryStore {
	s := &MemoryStore{
		requests:              make(map[string]model.Request),
		events:                make(map[string]model.CatalogEvent),
		collections:           make(map[string]model.UserCollections),
		metricsUpdateInterval: 5 * time.Second,
		stopChan:              make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.startMetricsUpdater(ctx)
	return s
}

func observe(op string, start time.Time) {
	metrics.RecordStoreLatency(memoryBackend, op, float64(time.Since(start).Microseconds())/1000)
}

func (s *MemoryStore) CreateRequest(_ context.Context, r model.Request) error {
	defer observe("create_request", time.Now())
	if err := ValidateRequest(r); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.requests[r.ID]; ok {
		return fmt.Errorf("%w: request %q", ErrAlreadyExists, r.ID)
	}
	s.requests[r.ID] = r.Clone()
	s.requestOrder = append(s.requestOrder, r.ID)
	return nil
}

func (s *MemoryStore) GetRequest(_ context.Context, id string) (model.Request, error) {
	defer observe("get_request", time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.requests[id]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return model.Request{}, fmt.Errorf("%w: request %q", ErrNotFound, id)
	}
	return r.Clone(), nil
}

func (s *MemoryStore) ListRequests(_ context.Context) ([]model.Request, error) {
	defer observe("list_requests", time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listRequestsLocked(), nil
}

func (s *MemoryStore) listRequestsLocked() []model.Request {
	out := make([]model.Request, 0, len(s.requestOrder))
	for _, id := range s.requestOrder {
		out = append(out, s.requests[id].Clone())
	}
	return out
}

func (s *MemoryStore) CompareAndSwapRequest(_ context.Context, expected int64, r model.Request) error {
	defer observe("cas_request", time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.swapLocked(expected, r)
}

// swapLocked must be called with s.mu held for writing.
func (s *MemoryStore) swapLocked(expected int64, r model.Request) error {
	cur, ok := s.requests[r.ID]
	if !ok {
		return fmt.Errorf("%w: request %q", ErrNotFound, r.ID)
	}
	if cur.Version != expected {
		metrics.RecordStoreConflict()
		return fmt.Errorf("%w: request %q at version %d, expected %d", ErrVersionConflict, r.ID, cur.Version, expected)
	}
	if err := ValidateReplacement(cur, r); err != nil {
		return err
	}
	s.requests[r.ID] = r.Clone()
	return nil
}

func (s *MemoryStore) ArchiveRequest(_ context.Context, id string) error {
	defer observe("archive_request", time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.requests[id]; !ok {
		return fmt.Errorf("%w: request %q", ErrNotFound, id)
	}
	delete(s.requests, id)
	s.requestOrder = slices.DeleteFunc(s.requestOrder, func(v string) bool { return v == id })
	return nil
}

func (s *MemoryStore) UpsertEvent(_ context.Context, ev model.CatalogEvent) error {
	defer observe("upsert_event", time.Now())
	if err := ValidateEvent(ev); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[ev.ID]; !ok {
		s.eventOrder = append(s.eventOrder, ev.ID)
	}
	s.events[ev.ID] = ev.Clone()
	return nil
}

func (s *MemoryStore) GetEvent(_ context.Context, id string) (model.CatalogEvent, error) {
	defer observe("get_event", time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()
	ev, ok := s.events[id]
	if !ok {
		return model.CatalogEvent{}, fmt.Errorf("%w: event %q", ErrNotFound, id)
	}
	return ev.Clone(), nil
}

func (s *MemoryStore) ListEvents(_ context.Context) ([]model.CatalogEvent, error) {
	defer observe("list_events", time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listEventsLocked(), nil
}

func (s *MemoryStore) listEventsLocked() []model.CatalogEvent {
	out := make([]model.CatalogEvent, 0, len(s.eventOrder))
	for _, id := range s.eventOrder {
		out = append(out, s.events[id].Clone())
	}
	return out
}

func (s *MemoryStore) DeleteEvent(_ context.Context, id string) error {
	defer observe("delete_event", time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[id]; !ok {
		return fmt.Errorf("%w: event %q", ErrNotFound, id)
	}
	delete(s.events, id)
	s.eventOrder = slices.DeleteFunc(s.eventOrder, func(v string) bool { return v == id })
	return nil
}

func (s *MemoryStore) GetCollections(_ context.Context, user string) (model.UserCollections, error) {
	defer observe("get_collections", time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collections[user].Clone(), nil
}

func (s *MemoryStore) UpdateCollections(_ context.Context, user string, fn func(model.UserCollections) (model.UserCollections, error)) error {
	defer observe("update_collections", time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := fn(s.collections[user].Clone())
	if err != nil {
		return err
	}
	s.collections[user] = next.Clone()
	return nil
}

func (s *MemoryStore) Snapshot(_ context.Context) (model.Snapshot, error) {
	defer observe("snapshot", time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()
	return model.Snapshot{Requests: s.listRequestsLocked(), Catalog: s.listEventsLocked()}, nil
}

func (s *MemoryStore) CommitAssignment(_ context.Context, expected int64, r model.Request, sg model.Suggestion) error {
	defer observe("commit_assignment", time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.AssignedEvent != nil {
		if _, ok := s.events[r.AssignedEvent.ID]; !ok {
			return fmt.Errorf("%w: event %q", ErrNotFound, r.AssignedEvent.ID)
		}
	}
	if err := s.swapLocked(expected, r); err != nil {
		return err
	}
	u := s.collections[r.Requester].Clone()
	u.Suggestions = append(u.Suggestions, sg)
	s.collections[r.Requester] = u
	return nil
}

func (s *MemoryStore) Ping(_ context.Context) error {
	if s.closed.Load() {
		return ErrClosed
	}
	return nil
}

// Close stops the background metrics updater.
func (s *MemoryStore) Close() error {
	if s.closed.CompareAndSwap(false, true) {
		close(s.stopChan)
	}
	s.wg.Wait()
	return nil
}

func (s *MemoryStore) startMetricsUpdater(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.metricsUpdateInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				s.updateMetrics()
			}
		}
	}()
}

func (s *MemoryStore) updateMetrics() {
	s.mu.RLock()
	requests, events, users := len(s.requests), len(s.events), len(s.collections)
	s.mu.RUnlock()
	metrics.UpdateStoreRecords("requests", requests)
	metrics.UpdateStoreRecords("events", events)
	metrics.UpdateStoreRecords("users", users)
}
