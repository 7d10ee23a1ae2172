package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/hangout/internal/domain/model"
)

func entry(id string) Entry {
	return model.AuditEntry{ID: id, Action: model.AuditAssigned, RequestID: "r-" + id, At: time.Now()}
}

func TestInMemoryQueue_BasicOperations(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}

	if err := q.Enqueue(ctx, entry("a1")); err != nil {
		t.Errorf("expected enqueue to succeed, got %v", err)
	}
	if l := q.Len(ctx); l != 1 {
		t.Errorf("expected length 1, got %d", l)
	}

	got := <-q.Dequeue(ctx)
	if got.ID != "a1" {
		t.Errorf("expected a1, got %v", got.ID)
	}
	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
}

func TestInMemoryQueue_Capacity(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if err := q.Enqueue(ctx, entry("a1")); err != nil {
		t.Errorf("expected enqueue to succeed, got %v", err)
	}
	if err := q.Enqueue(ctx, entry("a2")); err != nil {
		t.Errorf("expected enqueue to succeed, got %v", err)
	}
	if err := q.Enqueue(ctx, entry("a3")); !errors.Is(err, ErrFull) {
		t.Errorf("expected ErrFull, got %v", err)
	}
	if l := q.Len(ctx); l != 2 {
		t.Errorf("expected length 2, got %d", l)
	}
	if q.Capacity() != 2 {
		t.Errorf("expected capacity 2, got %d", q.Capacity())
	}
}

func TestInMemoryQueue_RecordCountsDrops(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(1))
	ctx := context.Background()

	q.Record(ctx, entry("a1"))
	q.Record(ctx, entry("a2"))
	q.Record(ctx, entry("a3"))

	if d := q.Dropped(); d != 2 {
		t.Errorf("expected 2 dropped, got %d", d)
	}
	if l := q.Len(ctx); l != 1 {
		t.Errorf("expected length 1, got %d", l)
	}
}

func TestInMemoryQueue_CancelledContext(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(4))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := q.Enqueue(ctx, entry("a1")); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestInMemoryQueue_ConcurrentAccess(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(100))
	ctx := context.Background()
	producers := 10
	perProducer := 100

	var consumed sync.WaitGroup
	consumed.Add(producers * perProducer)
	for i := 0; i < 4; i++ {
		go func() {
			for range q.Dequeue(ctx) {
				consumed.Done()
			}
		}()
	}

	var wg sync.WaitGroup
	for i := 0; i < producers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < perProducer; j++ {
				for q.Enqueue(ctx, entry(fmt.Sprintf("a%d_%d", id, j))) != nil {
					time.Sleep(time.Millisecond)
				}
			}
		}(i)
	}
	wg.Wait()

	done := make(chan struct{})
	go func() {
		consumed.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("consumers did not drain the queue")
	}

	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected final length 0, got %d", l)
	}
	_ = q.Close()
}

func TestInMemoryQueue_GracefulShutdown(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(10))
	ctx := context.Background()

	if err := q.Enqueue(ctx, entry("a1")); err != nil {
		t.Errorf("expected enqueue to succeed, got %v", err)
	}
	if q.IsClosed() {
		t.Error("expected queue to be open initially")
	}
	if err := q.Close(); err != nil {
		t.Errorf("expected close to succeed, got error: %v", err)
	}
	if !q.IsClosed() {
		t.Error("expected queue to be closed after Close()")
	}
	if err := q.Enqueue(ctx, entry("a2")); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}

	ch := q.Dequeue(ctx)
	var drained []string
	timeout := time.After(time.Second)
	for {
		select {
		case e, ok := <-ch:
			if !ok {
				if len(drained) != 1 || drained[0] != "a1" {
					t.Errorf("expected buffered a1 to drain, got %v", drained)
				}
				if err := q.Close(); err != nil {
					t.Errorf("expected second close to succeed, got error: %v", err)
				}
				return
			}
			drained = append(drained, e.ID)
		case <-timeout:
			t.Fatal("expected dequeue channel to be closed within timeout")
		}
	}
}
