// Package repository defines the matchmaking stores and an in-memory implementation.
package repository

import (
	"context"

	model "github.com/okian/hangout/internal/domain/model"
)

// RequestStore persists meetup requests.
type RequestStore interface {
	// CreateRequest stores a new request. Returns ErrAlreadyExists if the id is taken.
	CreateRequest(ctx context.Context, r model.Request) error

	// GetRequest returns ErrNotFound if the id is unknown.
	GetRequest(ctx context.Context, id string) (model.Request, error)

	// ListRequests returns every live request ordered by creation time.
	ListRequests(ctx context.Context) ([]model.Request, error)

	// CompareAndSwapRequest replaces the stored request only if its version
	// still equals expected. Returns ErrVersionConflict otherwise.
	CompareAndSwapRequest(ctx context.Context, expected int64, r model.Request) error

	// ArchiveRequest removes a resolved request. Unknown ids are ErrNotFound.
	ArchiveRequest(ctx context.Context, id string) error
}

// CatalogStore persists the event catalog.
type CatalogStore interface {
	UpsertEvent(ctx context.Context, ev model.CatalogEvent) error
	GetEvent(ctx context.Context, id string) (model.CatalogEvent, error)
	ListEvents(ctx context.Context) ([]model.CatalogEvent, error)
	DeleteEvent(ctx context.Context, id string) error
}

// CollectionStore persists per-user joined events and suggestion queues.
type CollectionStore interface {
	// GetCollections returns empty collections for an unknown user.
	GetCollections(ctx context.Context, user string) (model.UserCollections, error)

	// UpdateCollections reads the user's collections, applies fn and stores
	// the result atomically. If fn fails nothing is written.
	UpdateCollections(ctx context.Context, user string, fn func(model.UserCollections) (model.UserCollections, error)) error
}

// Store is the full persistence surface used by the service.
type Store interface {
	RequestStore
	CatalogStore
	CollectionStore

	// Snapshot returns one consistent view of requests and catalog.
	Snapshot(ctx context.Context) (model.Snapshot, error)

	// CommitAssignment swaps in the matched request (CAS on expected) and
	// appends the suggestion to the requester's queue in one step.
	CommitAssignment(ctx context.Context, expected int64, r model.Request, s model.Suggestion) error

	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error

	Close() error
}
