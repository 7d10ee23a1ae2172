package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/okian/hangout/internal/adapters/repository"
	"github.com/okian/hangout/internal/domain/model"
	"github.com/okian/hangout/pkg/logger"
	"github.com/okian/hangout/pkg/metrics"
)

// UpsertEvent adds or replaces a catalog event. An empty ID gets a fresh one.
func (s *Service) UpsertEvent(ctx context.Context, ev model.CatalogEvent) (model.CatalogEvent, error) {
	if err := s.ensureStarted(); err != nil {
		return model.CatalogEvent{}, err
	}
	ev.ID = strings.TrimSpace(ev.ID)
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.Budget != nil && *ev.Budget < 0 {
		return model.CatalogEvent{}, fmt.Errorf("%w: negative budget", ErrInvalidEvent)
	}

	if err := s.store.UpsertEvent(ctx, ev); err != nil {
		if errors.Is(err, repository.ErrInvalidRecord) {
			return model.CatalogEvent{}, fmt.Errorf("%w: %w", ErrInvalidEvent, err)
		}
		return model.CatalogEvent{}, fmt.Errorf("upsert event %s: %w", ev.ID, err)
	}
	s.refreshCatalogSize(ctx)
	s.logger.Info(ctx, "catalog event stored",
		logger.String("eventId", ev.ID),
		logger.String("category", ev.Category),
	)
	return ev, nil
}

// ListEvents returns the catalog in insertion order.
func (s *Service) ListEvents(ctx context.Context) ([]model.CatalogEvent, error) {
	if err := s.ensureStarted(); err != nil {
		return nil, err
	}
	return s.store.ListEvents(ctx)
}

// DeleteEvent removes a catalog event. Requests already matched to it keep their copy.
func (s *Service) DeleteEvent(ctx context.Context, id string) error {
	if err := s.ensureStarted(); err != nil {
		return err
	}
	if err := s.store.DeleteEvent(ctx, id); err != nil {
		return err
	}
	s.refreshCatalogSize(ctx)
	s.logger.Info(ctx, "catalog event deleted", logger.String("eventId", id))
	return nil
}

func (s *Service) refreshCatalogSize(ctx context.Context) {
	if events, err := s.store.ListEvents(ctx); err == nil {
		metrics.UpdateCatalogSize(len(events))
	}
}
