// Package audit delivers audit entries to their final destination.
package audit

import (
	"context"
	"fmt"
	"sync"

	"github.com/okian/hangout/internal/domain/model"
	"github.com/okian/hangout/pkg/logger"
)

// Sink receives audit entries drained from the queue.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, e model.AuditEntry) error
	Close() error
}

// LogSink writes each entry as a structured log line.
type LogSink struct {
	log logger.Logger
}

// NewLogSink returns a sink that writes to log, or to the global logger when nil.
func NewLogSink(log logger.Logger) *LogSink {
	if log == nil {
		log = logger.Get()
	}
	return &LogSink{log: log.Named("audit")}
}

func (s *LogSink) Name() string { return "log" }

func (s *LogSink) Deliver(ctx context.Context, e model.AuditEntry) error {
	if e.ID == "" {
		return fmt.Errorf("deliver %s: %w", e.Action, ErrMissingID)
	}
	s.log.Info(ctx, string(e.Action),
		logger.String("audit_id", e.ID),
		logger.String("actor", e.Actor),
		logger.String("requester", e.Requester),
		logger.String("request_id", e.RequestID),
		logger.String("event_id", e.EventID),
		logger.String("at", e.At.UTC().Format("2006-01-02T15:04:05.000Z07:00")),
		logger.String("detail", e.Detail),
	)
	return nil
}

func (s *LogSink) Close() error { return nil }

// MemorySink keeps delivered entries in order.
type MemorySink struct {
	mu      sync.Mutex
	entries []model.AuditEntry
}

// NewMemorySink returns an empty in-process sink.
func NewMemorySink() *MemorySink { return &MemorySink{} }

func (s *MemorySink) Name() string { return "memory" }

func (s *MemorySink) Deliver(_ context.Context, e model.AuditEntry) error {
	if e.ID == "" {
		return fmt.Errorf("deliver %s: %w", e.Action, ErrMissingID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, e)
	return nil
}

// Entries returns a copy of everything delivered so far.
func (s *MemorySink) Entries() []model.AuditEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.AuditEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

func (s *MemorySink) Close() error { return nil }
