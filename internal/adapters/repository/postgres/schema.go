package postgres

import (
	"context"
	"fmt"
)

const schema = `
CREATE TABLE IF NOT EXISTS hangout_requests (
    seq        BIGSERIAL,
    id         TEXT PRIMARY KEY,
    requester  TEXT NOT NULL,
    stage      SMALLINT NOT NULL CHECK (stage BETWEEN 1 AND 3),
    version    BIGINT NOT NULL,
    body       JSONB NOT NULL,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_hangout_requests_stage ON hangout_requests(stage);
CREATE INDEX IF NOT EXISTS idx_hangout_requests_requester ON hangout_requests(requester);

CREATE TABLE IF NOT EXISTS hangout_catalog (
    seq  BIGSERIAL,
    id   TEXT PRIMARY KEY,
    body JSONB NOT NULL
);

CREATE TABLE IF NOT EXISTS hangout_collections (
    requester  TEXT PRIMARY KEY,
    body       JSONB NOT NULL,
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);
`

// Migrate creates the tables if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	q, err := s.conn.Pool()
	if err != nil {
		return err
	}
	if _, err := q.Exec(ctx, schema); err != nil {
		return fmt.Errorf("postgres: migrate: %w", err)
	}
	return nil
}

// truncate empties every table. Used by tests.
func (s *Store) truncate(ctx context.Context) error {
	q, err := s.conn.Pool()
	if err != nil {
		return err
	}
	_, err = q.Exec(ctx, `TRUNCATE hangout_requests, hangout_catalog, hangout_collections`)
	return err
}
