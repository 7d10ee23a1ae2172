// Package dedupe makes request submission idempotent on a client key.
package dedupe

import (
	"container/list"
	"context"
	"sync"
	"sync/atomic"
)

// Deduper maps client submission keys to the request created for them.
type Deduper interface {
	// Claim binds key to requestID if key is unbound and returns (requestID, false).
	// If key is already bound it returns the existing request id and true.
	Claim(ctx context.Context, key, requestID string) (string, bool)

	// Release unbinds key so the submission can be retried. Used when the
	// request could not be stored after a successful Claim.
	Release(ctx context.Context, key string)

	Size() int64
}

type entry struct {
	key       string
	requestID string
}

// inMemoryDeduper keeps claims in insertion order. When bounded, the
// oldest claim is evicted first.
type inMemoryDeduper struct {
	mu      sync.Mutex
	claims  map[string]*list.Element
	order   *list.List
	maxSize int // <= 0 means unbounded
	size    atomic.Int64
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: 50000,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.claims = make(map[string]*list.Element)
	d.order = list.New()
	return d
}

func (d *inMemoryDeduper) Claim(_ context.Context, key, requestID string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if el, ok := d.claims[key]; ok {
		return el.Value.(*entry).requestID, true
	}
	if d.maxSize > 0 && d.order.Len() >= d.maxSize {
		d.evictOldest()
	}
	d.claims[key] = d.order.PushBack(&entry{key: key, requestID: requestID})
	d.size.Add(1)
	return requestID, false
}

func (d *inMemoryDeduper) Release(_ context.Context, key string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if el, ok := d.claims[key]; ok {
		d.order.Remove(el)
		delete(d.claims, key)
		d.size.Add(-1)
	}
}

// evictOldest must be called with d.mu held.
func (d *inMemoryDeduper) evictOldest() {
	front := d.order.Front()
	if front == nil {
		return
	}
	d.order.Remove(front)
	delete(d.claims, front.Value.(*entry).key)
	d.size.Add(-1)
}

func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}
