package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/hangout/internal/adapters/repository"
	"github.com/okian/hangout/internal/adapters/repository/storetest"
	model "github.com/okian/hangout/internal/domain/model"
)

func TestMemoryStore_Conformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) repository.Store {
		return repository.NewMemoryStore(context.Background(), repository.WithMetricsUpdateInterval(10*time.Millisecond))
	})
}

func TestMemoryStore_ReadsAreCopies(t *testing.T) {
	ctx := context.Background()
	s := repository.NewMemoryStore(ctx)
	defer s.Close()

	ev := model.CatalogEvent{ID: "E1", Languages: []string{"en"}}
	if err := s.UpsertEvent(ctx, ev); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	got, _ := s.GetEvent(ctx, "E1")
	got.Languages[0] = "xx"

	again, _ := s.GetEvent(ctx, "E1")
	if again.Languages[0] != "en" {
		t.Errorf("stored event was mutated through a read: %v", again.Languages)
	}
}

func TestMemoryStore_CloseStopsUpdater(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s := repository.NewMemoryStore(ctx, repository.WithMetricsUpdateInterval(time.Millisecond))
	time.Sleep(5 * time.Millisecond)

	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	if err := s.Ping(ctx); !errors.Is(err, repository.ErrClosed) {
		t.Errorf("expected ErrClosed after close, got %v", err)
	}
}
