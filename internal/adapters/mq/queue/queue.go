// Package queue buffers audit entries between the service and the audit sink.
//
// Recording never blocks the caller: when the buffer is full the entry is
// dropped and counted.
package queue

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/hangout/internal/domain/model"
	"github.com/okian/hangout/pkg/metrics"
)

const defaultQueueCapacity = 10000

// Entry is the payload flowing through the queue.
type Entry = model.AuditEntry

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds an entry, returning ErrFull or ErrClosed when it was not accepted.
	Enqueue(ctx context.Context, e Entry) error

	// Record is a fire-and-forget Enqueue; refused entries are counted as dropped.
	Record(ctx context.Context, e Entry)

	// Dequeue returns a channel that is closed once the queue is closed and drained.
	Dequeue(ctx context.Context) <-chan Entry

	Len(ctx context.Context) int
	Dropped() int64
	Close() error
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	entries  chan Entry
	capacity int
	dropped  atomic.Int64

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultQueueCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.entries = make(chan Entry, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	metrics.UpdateQueueUtilization(0.0)

	return q
}

// Enqueue adds an entry to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, e Entry) error { //nolint:gocritic // hugeParam: entries travel by value through the channel
	start := time.Now()
	defer func() {
		metrics.RecordQueueProcessingLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordErrorByComponent("queue", "closed")
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		metrics.RecordErrorByComponent("queue", "context_cancelled")
		return err
	}

	select {
	case q.entries <- e:
		metrics.RecordQueueEnqueue()
		q.updateGauges()
		return nil
	default:
		metrics.RecordErrorByComponent("queue", "queue_full")
		return ErrFull
	}
}

// Record enqueues e and counts it as dropped when refused.
func (q *InMemoryQueue) Record(ctx context.Context, e Entry) { //nolint:gocritic // hugeParam: see Enqueue
	if err := q.Enqueue(ctx, e); err != nil {
		q.dropped.Add(1)
		metrics.RecordQueueDropped()
	}
}

// Dequeue returns a channel that will receive entries as they become available.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Entry {
	out := make(chan Entry)
	go func() {
		defer close(out)
		for e := range q.entries {
			select {
			case out <- e:
				metrics.RecordQueueDequeue()
				q.updateGauges()
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Len returns the current number of queued entries.
func (q *InMemoryQueue) Len(_ context.Context) int {
	q.updateGauges()
	return len(q.entries)
}

// Dropped returns how many entries Record has discarded.
func (q *InMemoryQueue) Dropped() int64 {
	return q.dropped.Load()
}

// Capacity returns the configured buffer size.
func (q *InMemoryQueue) Capacity() int {
	return q.capacity
}

func (q *InMemoryQueue) updateGauges() {
	size := len(q.entries)
	metrics.UpdateQueueSize(size)
	metrics.UpdateQueueUtilization(float64(size) / float64(q.capacity))
}

// Close stops accepting entries; buffered entries remain readable.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.entries)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
