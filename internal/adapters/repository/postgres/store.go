package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/okian/hangout/internal/adapters/repository"
	model "github.com/okian/hangout/internal/domain/model"
	"github.com/okian/hangout/pkg/metrics"
)

const backend = "postgres"

// Store implements repository.Store. Records are kept as JSONB documents
// with the fields needed for filtering and CAS held in their own columns.
type Store struct {
	conn *Connection
}

var _ repository.Store = (*Store)(nil)

// New connects to dsn and ensures the schema exists.
func New(ctx context.Context, dsn string, opts ...Option) (*Store, error) {
	conn, err := NewConnection(ctx, dsn, opts...)
	if err != nil {
		return nil, err
	}
	s := &Store{conn: conn}
	if err := s.Migrate(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return s, nil
}

func observe(op string, start time.Time) {
	metrics.RecordStoreLatency(backend, op, float64(time.Since(start).Microseconds())/1000)
}

func (s *Store) CreateRequest(ctx context.Context, r model.Request) error {
	defer observe("create_request", time.Now())
	if err := repository.ValidateRequest(r); err != nil {
		return err
	}
	body, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("postgres: encode request: %w", err)
	}
	q, err := s.conn.Pool()
	if err != nil {
		return err
	}
	_, err = q.Exec(ctx,
		`INSERT INTO hangout_requests (id, requester, stage, version, body, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		r.ID, r.Requester, int(r.Stage), r.Version, string(body), r.CreatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return fmt.Errorf("%w: request %q", repository.ErrAlreadyExists, r.ID)
		}
		return fmt.Errorf("postgres: create request: %w", err)
	}
	return nil
}

func (s *Store) GetRequest(ctx context.Context, id string) (model.Request, error) {
	defer observe("get_request", time.Now())
	q, err := s.conn.Pool()
	if err != nil {
		return model.Request{}, err
	}
	r, _, err := getRequest(ctx, q, id, false)
	return r, err
}

func getRequest(ctx context.Context, q Querier, id string, lock bool) (model.Request, int64, error) {
	sql := `SELECT body, version FROM hangout_requests WHERE id = $1`
	if lock {
		sql += ` FOR UPDATE`
	}
	var body []byte
	var version int64
	if err := q.QueryRow(ctx, sql, id).Scan(&body, &version); err != nil {
		if IsNoRows(err) {
			metrics.RecordErrorByComponent("repository", "not_found")
			return model.Request{}, 0, fmt.Errorf("%w: request %q", repository.ErrNotFound, id)
		}
		return model.Request{}, 0, fmt.Errorf("postgres: get request: %w", err)
	}
	var r model.Request
	if err := json.Unmarshal(body, &r); err != nil {
		return model.Request{}, 0, fmt.Errorf("postgres: decode request %q: %w", id, err)
	}
	return r, version, nil
}

func (s *Store) ListRequests(ctx context.Context) ([]model.Request, error) {
	defer observe("list_requests", time.Now())
	q, err := s.conn.Pool()
	if err != nil {
		return nil, err
	}
	return listRequests(ctx, q)
}

func listRequests(ctx context.Context, q Querier) ([]model.Request, error) {
	rows, err := q.Query(ctx, `SELECT body FROM hangout_requests ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("postgres: list requests: %w", err)
	}
	defer rows.Close()

	out := make([]model.Request, 0)
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("postgres: scan request: %w", err)
		}
		var r model.Request
		if err := json.Unmarshal(body, &r); err != nil {
			return nil, fmt.Errorf("postgres: decode request: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) CompareAndSwapRequest(ctx context.Context, expected int64, r model.Request) error {
	defer observe("cas_request", time.Now())
	return s.conn.WithTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		return swap(ctx, tx, expected, r)
	})
}

// swap must run inside a transaction; the row lock serializes writers.
func swap(ctx context.Context, tx pgx.Tx, expected int64, r model.Request) error {
	cur, version, err := getRequest(ctx, tx, r.ID, true)
	if err != nil {
		return err
	}
	if version != expected {
		metrics.RecordStoreConflict()
		return fmt.Errorf("%w: request %q at version %d, expected %d", repository.ErrVersionConflict, r.ID, version, expected)
	}
	if err := repository.ValidateReplacement(cur, r); err != nil {
		return err
	}
	body, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("postgres: encode request: %w", err)
	}
	_, err = tx.Exec(ctx,
		`UPDATE hangout_requests SET stage = $2, version = $3, body = $4 WHERE id = $1 AND version = $5`,
		r.ID, int(r.Stage), r.Version, string(body), expected,
	)
	if err != nil {
		return fmt.Errorf("postgres: update request: %w", err)
	}
	return nil
}

func (s *Store) ArchiveRequest(ctx context.Context, id string) error {
	defer observe("archive_request", time.Now())
	q, err := s.conn.Pool()
	if err != nil {
		return err
	}
	tag, err := q.Exec(ctx, `DELETE FROM hangout_requests WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("postgres: archive request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: request %q", repository.ErrNotFound, id)
	}
	return nil
}

func (s *Store) UpsertEvent(ctx context.Context, ev model.CatalogEvent) error {
	defer observe("upsert_event", time.Now())
	if err := repository.ValidateEvent(ev); err != nil {
		return err
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("postgres: encode event: %w", err)
	}
	q, err := s.conn.Pool()
	if err != nil {
		return err
	}
	_, err = q.Exec(ctx,
		`INSERT INTO hangout_catalog (id, body) VALUES ($1, $2) ON CONFLICT (id) DO UPDATE SET body = EXCLUDED.body`,
		ev.ID, string(body),
	)
	if err != nil {
		return fmt.Errorf("postgres: upsert event: %w", err)
	}
	return nil
}

func (s *Store) GetEvent(ctx context.Context, id string) (model.CatalogEvent, error) {
	defer observe("get_event", time.Now())
	q, err := s.conn.Pool()
	if err != nil {
		return model.CatalogEvent{}, err
	}
	var body []byte
	if err := q.QueryRow(ctx, `SELECT body FROM hangout_catalog WHERE id = $1`, id).Scan(&body); err != nil {
		if IsNoRows(err) {
			return model.CatalogEvent{}, fmt.Errorf("%w: event %q", repository.ErrNotFound, id)
		}
		return model.CatalogEvent{}, fmt.Errorf("postgres: get event: %w", err)
	}
	var ev model.CatalogEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return model.CatalogEvent{}, fmt.Errorf("postgres: decode event %q: %w", id, err)
	}
	return ev, nil
}

func (s *Store) ListEvents(ctx context.Context) ([]model.CatalogEvent, error) {
	defer observe("list_events", time.Now())
	q, err := s.conn.Pool()
	if err != nil {
		return nil, err
	}
	return listEvents(ctx, q)
}

func listEvents(ctx context.Context, q Querier) ([]model.CatalogEvent, error) {
	rows, err := q.Query(ctx, `SELECT body FROM hangout_catalog ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("postgres: list events: %w", err)
	}
	defer rows.Close()

	out := make([]model.CatalogEvent, 0)
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("postgres: scan event: %w", err)
		}
		var ev model.CatalogEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return nil, fmt.Errorf("postgres: decode event: %w", err)
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

func (s *Store) DeleteEvent(ctx context.Context, id string) error {
	defer observe("delete_event", time.Now())
	q, err := s.conn.Pool()
	if err != nil {
		return err
	}
	tag, err := q.Exec(ctx, `DELETE FROM hangout_catalog WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("postgres: delete event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: event %q", repository.ErrNotFound, id)
	}
	return nil
}

func (s *Store) GetCollections(ctx context.Context, user string) (model.UserCollections, error) {
	defer observe("get_collections", time.Now())
	q, err := s.conn.Pool()
	if err != nil {
		return model.UserCollections{}, err
	}
	return getCollections(ctx, q, user, false)
}

func getCollections(ctx context.Context, q Querier, user string, lock bool) (model.UserCollections, error) {
	sql := `SELECT body FROM hangout_collections WHERE requester = $1`
	if lock {
		sql += ` FOR UPDATE`
	}
	var body []byte
	if err := q.QueryRow(ctx, sql, user).Scan(&body); err != nil {
		if IsNoRows(err) {
			return model.UserCollections{}.Clone(), nil
		}
		return model.UserCollections{}, fmt.Errorf("postgres: get collections: %w", err)
	}
	var u model.UserCollections
	if err := json.Unmarshal(body, &u); err != nil {
		return model.UserCollections{}, fmt.Errorf("postgres: decode collections for %q: %w", user, err)
	}
	return u.Clone(), nil
}

func (s *Store) UpdateCollections(ctx context.Context, user string, fn func(model.UserCollections) (model.UserCollections, error)) error {
	defer observe("update_collections", time.Now())
	return s.conn.WithTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		return updateCollections(ctx, tx, user, fn)
	})
}

func updateCollections(ctx context.Context, tx pgx.Tx, user string, fn func(model.UserCollections) (model.UserCollections, error)) error {
	// Make sure a row exists so FOR UPDATE has something to lock.
	if _, err := tx.Exec(ctx,
		`INSERT INTO hangout_collections (requester, body) VALUES ($1, '{"joined":[],"suggestions":[]}') ON CONFLICT (requester) DO NOTHING`,
		user,
	); err != nil {
		return fmt.Errorf("postgres: ensure collections: %w", err)
	}
	cur, err := getCollections(ctx, tx, user, true)
	if err != nil {
		return err
	}
	next, err := fn(cur)
	if err != nil {
		return err
	}
	body, err := json.Marshal(next.Clone())
	if err != nil {
		return fmt.Errorf("postgres: encode collections: %w", err)
	}
	if _, err := tx.Exec(ctx,
		`UPDATE hangout_collections SET body = $2, updated_at = NOW() WHERE requester = $1`,
		user, string(body),
	); err != nil {
		return fmt.Errorf("postgres: update collections: %w", err)
	}
	return nil
}

func (s *Store) Snapshot(ctx context.Context) (model.Snapshot, error) {
	defer observe("snapshot", time.Now())
	var snap model.Snapshot
	err := s.conn.WithTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}, func(tx pgx.Tx) error {
		var err error
		if snap.Requests, err = listRequests(ctx, tx); err != nil {
			return err
		}
		snap.Catalog, err = listEvents(ctx, tx)
		return err
	})
	return snap, err
}

func (s *Store) CommitAssignment(ctx context.Context, expected int64, r model.Request, sg model.Suggestion) error {
	defer observe("commit_assignment", time.Now())
	return s.conn.WithTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		if r.AssignedEvent != nil {
			if err := lockEvent(ctx, tx, r.AssignedEvent.ID); err != nil {
				return err
			}
		}
		if err := swap(ctx, tx, expected, r); err != nil {
			return err
		}
		return updateCollections(ctx, tx, r.Requester, func(u model.UserCollections) (model.UserCollections, error) {
			u.Suggestions = append(u.Suggestions, sg)
			return u, nil
		})
	})
}

// lockEvent holds a share lock on the catalog row so a concurrent delete
// waits for the transaction.
func lockEvent(ctx context.Context, tx pgx.Tx, id string) error {
	var one int
	err := tx.QueryRow(ctx, `SELECT 1 FROM hangout_catalog WHERE id = $1 FOR SHARE`, id).Scan(&one)
	if err != nil {
		if IsNoRows(err) {
			metrics.RecordErrorByComponent("repository", "not_found")
			return fmt.Errorf("%w: event %q", repository.ErrNotFound, id)
		}
		return fmt.Errorf("postgres: lock event: %w", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.conn.Ping(ctx)
}

func (s *Store) Close() error {
	s.conn.Close()
	return nil
}
