// Package service wires the matchmaking domain to its stores, ledger and
// audit pipeline. It is the dependency the HTTP API is built on.
package service

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/okian/hangout/internal/adapters/audit"
	"github.com/okian/hangout/internal/adapters/ledger"
	auditqueue "github.com/okian/hangout/internal/adapters/mq/queue"
	workerpool "github.com/okian/hangout/internal/adapters/mq/worker"
	"github.com/okian/hangout/internal/adapters/repository"
	"github.com/okian/hangout/internal/domain/dedupe"
	"github.com/okian/hangout/internal/domain/resolution"
	"github.com/okian/hangout/pkg/logger"
	"github.com/okian/hangout/pkg/metrics"
)

const (
	defaultQueueSize  = 10000
	defaultDedupeSize = 50000
	stopTimeout       = 10 * time.Second

	// A duplicate submission waits this long for the first one to be stored.
	duplicateWait         = 250 * time.Millisecond
	duplicateWaitInterval = 5 * time.Millisecond
)

// Service implements the API dependencies for hangout matchmaking.
type Service struct {
	mu sync.RWMutex

	store   repository.Store
	ledger  ledger.Ledger
	sink    audit.Sink
	deduper dedupe.Deduper
	queue   *auditqueue.InMemoryQueue
	pool    *workerpool.Pool

	workerCount        int
	queueSize          int
	dedupeSize         int
	acceptReward       int64
	enforceEligibility bool
	now                func() time.Time

	started bool
	logger  logger.Logger
}

// New constructs a Service. Backends not supplied through options are
// created in memory by Start.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:        runtime.NumCPU(),
		queueSize:          defaultQueueSize,
		dedupeSize:         defaultDedupeSize,
		acceptReward:       resolution.DefaultReward,
		enforceEligibility: true,
		now:                time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	if s.store == nil {
		s.store = repository.NewMemoryStore(ctx)
	}
	if err := s.store.Ping(ctx); err != nil {
		return fmt.Errorf("store unavailable: %w", err)
	}
	if s.ledger == nil {
		s.ledger = ledger.NewMemory()
	}
	if s.sink == nil {
		s.sink = audit.NewLogSink(s.logger)
	}

	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.queue = auditqueue.NewInMemoryQueue(auditqueue.WithCapacity(s.queueSize))
	s.pool = workerpool.NewPool(s.workerCount, s.queue, s.sink)
	s.pool.Start(context.WithoutCancel(ctx))

	s.started = true
	s.logger.Info(ctx, "hangout service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.String("auditSink", s.sink.Name()),
		logger.Int64("acceptReward", s.acceptReward),
		logger.Bool("enforceEligibility", s.enforceEligibility),
	)
	return nil
}

// Stop drains the audit queue and closes every backend.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()

	s.logger.Info(ctx, "stopping hangout service...")

	if err := s.pool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "audit queue not fully drained", logger.Error(err))
	}
	if err := s.sink.Close(); err != nil {
		s.logger.Error(ctx, "close audit sink", logger.Error(err))
	}
	if err := s.ledger.Close(); err != nil {
		s.logger.Error(ctx, "close ledger", logger.Error(err))
	}
	if err := s.store.Close(); err != nil {
		s.logger.Error(ctx, "close store", logger.Error(err))
	}

	s.started = false
	s.logger.Info(ctx, "hangout service stopped",
		logger.Int64("auditDropped", s.queue.Dropped()),
	)
}

// Ready reports whether the service is started and its store reachable.
func (s *Service) Ready(ctx context.Context) error {
	if err := s.ensureStarted(); err != nil {
		return err
	}
	return s.store.Ping(ctx)
}

func (s *Service) ensureStarted() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return ErrNotStarted
	}
	return nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":            s.started,
		"workerCount":        s.workerCount,
		"queueSize":          s.queueSize,
		"dedupeSize":         s.dedupeSize,
		"acceptReward":       s.acceptReward,
		"enforceEligibility": s.enforceEligibility,
	}
	if !s.started {
		return stats
	}

	ctx := context.Background()
	queueLen := s.queue.Len(ctx)
	stats["queueLength"] = queueLen
	stats["auditDropped"] = s.queue.Dropped()
	stats["auditSink"] = s.sink.Name()
	stats["busyWorkers"] = s.pool.Busy()
	stats["submissionKeys"] = s.deduper.Size()

	if reqs, err := s.store.ListRequests(ctx); err == nil {
		pending := countPending(reqs)
		stats["requests"] = len(reqs)
		stats["pending"] = pending
		metrics.UpdatePendingRequests(pending)
	}
	if events, err := s.store.ListEvents(ctx); err == nil {
		stats["catalogSize"] = len(events)
		metrics.UpdateCatalogSize(len(events))
	}
	metrics.UpdateWorkerCount(s.workerCount)

	return stats
}
