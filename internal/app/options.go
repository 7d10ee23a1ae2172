package service

import (
	"time"

	"github.com/okian/hangout/internal/adapters/audit"
	"github.com/okian/hangout/internal/adapters/ledger"
	"github.com/okian/hangout/internal/adapters/repository"
	"github.com/okian/hangout/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the persistence backend. Defaults to the in-memory store.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithLedger sets the points ledger. Defaults to the in-memory ledger.
func WithLedger(l ledger.Ledger) Option {
	return func(s *Service) {
		if l != nil {
			s.ledger = l
		}
	}
}

// WithAuditSink sets where audit entries are delivered. Defaults to the log sink.
func WithAuditSink(sink audit.Sink) Option {
	return func(s *Service) {
		if sink != nil {
			s.sink = sink
		}
	}
}

// WithWorkerCount sets the number of audit delivery workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the audit queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many submission keys are remembered.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithAcceptReward sets the points credited for an accepted suggestion.
func WithAcceptReward(points int64) Option {
	return func(s *Service) {
		if points >= 0 {
			s.acceptReward = points
		}
	}
}

// WithEligibilityEnforcement toggles rejecting ineligible assignments.
func WithEligibilityEnforcement(enabled bool) Option {
	return func(s *Service) {
		s.enforceEligibility = enabled
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
