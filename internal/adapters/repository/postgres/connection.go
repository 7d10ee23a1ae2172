// Package postgres implements repository.Store on PostgreSQL through pgxpool.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrConnectionClosed indicates the connection pool is closed.
var ErrConnectionClosed = errors.New("postgres: connection pool is closed")

// Connection wraps a pgx pool with close tracking and transaction helpers.
type Connection struct {
	pool   *pgxpool.Pool
	closed bool
	mu     sync.RWMutex
}

// NewConnection parses dsn, applies pool options and verifies the database answers.
func NewConnection(ctx context.Context, dsn string, opts ...Option) (*Connection, error) {
	cfg := defaultPoolSettings()
	for _, opt := range opts {
		opt(&cfg)
	}

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to parse database URL: %w", err)
	}
	poolConfig.MaxConns = cfg.maxConns
	poolConfig.MinConns = cfg.minConns
	poolConfig.MaxConnLifetime = cfg.maxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.maxConnIdleTime
	poolConfig.HealthCheckPeriod = cfg.healthCheckPeriod

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: failed to ping database: %w", err)
	}
	return &Connection{pool: pool}, nil
}

// Close closes the connection pool.
func (c *Connection) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.pool.Close()
}

// Ping checks if the database connection is alive.
func (c *Connection) Ping(ctx context.Context) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrConnectionClosed
	}
	return c.pool.Ping(ctx)
}

// Querier is implemented by both *pgxpool.Pool and pgx.Tx.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Pool returns the pool as a Querier for single statements.
func (c *Connection) Pool() (Querier, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return nil, ErrConnectionClosed
	}
	return c.pool, nil
}

// WithTx runs fn in a transaction, committing on nil and rolling back otherwise.
func (c *Connection) WithTx(ctx context.Context, opts pgx.TxOptions, fn func(pgx.Tx) error) error {
	c.mu.RLock()
	if c.closed {
		c.mu.RUnlock()
		return ErrConnectionClosed
	}
	tx, err := c.pool.BeginTx(ctx, opts)
	c.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("tx error: %w, rollback error: %v", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit: %w", err)
	}
	return nil
}

// IsUniqueViolation reports a unique constraint failure.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

// IsNoRows reports an empty single-row result.
func IsNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

type poolSettings struct {
	maxConns          int32
	minConns          int32
	maxConnLifetime   time.Duration
	maxConnIdleTime   time.Duration
	healthCheckPeriod time.Duration
}

func defaultPoolSettings() poolSettings {
	return poolSettings{
		maxConns:          10,
		minConns:          2,
		maxConnLifetime:   time.Hour,
		maxConnIdleTime:   30 * time.Minute,
		healthCheckPeriod: time.Minute,
	}
}

// Option configures the connection pool.
type Option func(*poolSettings)

// WithMaxConns caps the pool size.
func WithMaxConns(n int32) Option {
	return func(p *poolSettings) {
		if n > 0 {
			p.maxConns = n
		}
	}
}

// WithMinConns keeps n idle connections warm.
func WithMinConns(n int32) Option {
	return func(p *poolSettings) {
		if n >= 0 {
			p.minConns = n
		}
	}
}
