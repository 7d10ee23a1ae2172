// Package worker drains the audit queue into an audit sink.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/hangout/internal/domain/model"
	"github.com/okian/hangout/pkg/logger"
	"github.com/okian/hangout/pkg/metrics"
)

const (
	defaultRetries        = 2
	defaultBackoff        = 50 * time.Millisecond
	workerShutdownTimeout = 5 * time.Second
	poolShutdownTimeout   = 30 * time.Second
	metricsUpdateInterval = 5 * time.Second
)

// Queue defines how workers receive entries.
type Queue interface {
	Dequeue(ctx context.Context) <-chan model.AuditEntry
}

// Sink is where entries end up.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, e model.AuditEntry) error
}

// Worker processes entries until stopped.
type Worker interface {
	// Run starts the worker loop until ctx is canceled or the queue closes.
	Run(ctx context.Context)

	// Shutdown stops the worker without waiting for the queue to drain.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker delivers queued entries to a sink with bounded retries.
type InMemoryWorker struct {
	queue   Queue
	sink    Sink
	name    string
	retries int
	backoff time.Duration

	busy *atomic.Int64

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(queue Queue, sink Sink, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    queue,
		sink:     sink,
		name:     "worker",
		retries:  defaultRetries,
		backoff:  defaultBackoff,
		busy:     new(atomic.Int64),
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	entries := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case e, ok := <-entries:
			if !ok {
				return
			}
			if err := w.process(ctx, e); err != nil {
				w.logger.Error(ctx, "audit delivery failed",
					logger.String("audit_id", e.ID),
					logger.String("action", string(e.Action)),
					logger.Error(err),
				)
			}
		}
	}
}

// Done is closed once Run has returned.
func (w *InMemoryWorker) Done() <-chan struct{} {
	return w.done
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.signal()

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *InMemoryWorker) signal() {
	w.shutdownOnce.Do(func() { close(w.shutdown) })
}

func (w *InMemoryWorker) process(ctx context.Context, e model.AuditEntry) error { //nolint:gocritic // hugeParam: entries travel by value through the channel
	w.busy.Add(1)
	start := time.Now()
	defer func() {
		w.busy.Add(-1)
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	var err error
	delay := w.backoff
	for attempt := 0; attempt <= w.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("deliver %s: %w", e.ID, ctx.Err())
			case <-time.After(delay):
			}
			delay *= 2
		}
		if err = w.sink.Deliver(ctx, e); err == nil {
			metrics.RecordAuditDelivered(w.sink.Name())
			return nil
		}
		w.logger.Debug(ctx, "audit delivery attempt failed",
			logger.String("audit_id", e.ID),
			logger.Int("attempt", attempt+1),
			logger.Error(err),
		)
	}

	metrics.RecordAuditDeliveryError(w.sink.Name())
	metrics.RecordWorkerError()
	metrics.RecordErrorByComponent("worker", "delivery_error")
	return fmt.Errorf("deliver %s after %d attempts: %w", e.ID, w.retries+1, err)
}

// Pool manages multiple workers sharing one queue and sink.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	busy    *atomic.Int64

	shutdown     chan struct{}
	shutdownOnce sync.Once

	logger logger.Logger
}

// NewPool creates workerCount workers; a count below one means one per CPU.
// opts are applied to every worker.
func NewPool(workerCount int, queue Queue, sink Sink, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}

	pool := &Pool{
		workers:  make([]*InMemoryWorker, workerCount),
		queue:    queue,
		busy:     new(atomic.Int64),
		shutdown: make(chan struct{}),
		logger:   logger.Get().Named("worker-pool"),
	}

	for i := 0; i < workerCount; i++ {
		workerOpts := make([]Option, 0, len(opts)+1)
		workerOpts = append(workerOpts, opts...)
		workerOpts = append(workerOpts, WithName("worker-"+strconv.Itoa(i)))
		w := NewInMemoryWorker(queue, sink, workerOpts...)
		w.busy = pool.busy
		pool.workers[i] = w
	}

	metrics.UpdateWorkerCount(workerCount)
	metrics.UpdateWorkerActiveCount(0)
	metrics.UpdateWorkerIdleCount(workerCount)

	return pool
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Busy returns how many workers are delivering right now.
func (p *Pool) Busy() int { return int(p.busy.Load()) }

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	go p.startMetricsUpdater(ctx)
}

func (p *Pool) startMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(metricsUpdateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.shutdown:
			return
		case <-ticker.C:
			p.updateMetrics()
		}
	}
}

func (p *Pool) updateMetrics() {
	busy := p.Busy()
	metrics.UpdateWorkerActiveCount(busy)
	metrics.UpdateWorkerIdleCount(len(p.workers) - busy)
}

// Stop signals every worker to stop without draining the queue.
func (p *Pool) Stop() {
	p.shutdownOnce.Do(func() { close(p.shutdown) })
	for _, w := range p.workers {
		w.signal()
	}
	for _, w := range p.workers {
		select {
		case <-w.Done():
		case <-time.After(workerShutdownTimeout):
		}
	}
}

// Shutdown closes the queue and waits for the workers to drain it.
// Workers still running when ctx expires are stopped without draining.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}
	p.shutdownOnce.Do(func() { close(p.shutdown) })

	drainCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var timedOut int
	for i, w := range p.workers {
		select {
		case <-w.Done():
		case <-drainCtx.Done():
			timedOut++
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			w.signal()
		}
	}
	p.updateMetrics()
	if timedOut > 0 {
		return fmt.Errorf("%d workers did not drain: %w", timedOut, drainCtx.Err())
	}
	return nil
}
