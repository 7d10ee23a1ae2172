// Package ledger stores requester point balances.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/okian/hangout/pkg/metrics"
)

// ErrEmptyUser is returned for a blank user key.
var ErrEmptyUser = errors.New("ledger: empty user")

// Ledger is the points store consumed by the resolver.
type Ledger interface {
	// Get returns the user's balance; unknown users have zero.
	Get(ctx context.Context, user string) (int64, error)
	// Add changes the balance by delta and returns the new total.
	Add(ctx context.Context, user string, delta int64) (int64, error)
	Close() error
}

func checkUser(user string) error {
	if strings.TrimSpace(user) == "" {
		return ErrEmptyUser
	}
	return nil
}

func observe(backend, op string, start time.Time) {
	metrics.RecordLedgerLatency(backend, op, float64(time.Since(start).Microseconds())/1000)
}

// Memory is an in-process Ledger.
type Memory struct {
	mu       sync.Mutex
	balances map[string]int64
}

// NewMemory returns an empty in-process ledger.
func NewMemory() *Memory {
	return &Memory{balances: make(map[string]int64)}
}

func (m *Memory) Get(_ context.Context, user string) (int64, error) {
	defer observe("memory", "get", time.Now())
	if err := checkUser(user); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balances[user], nil
}

func (m *Memory) Add(_ context.Context, user string, delta int64) (int64, error) {
	defer observe("memory", "add", time.Now())
	if err := checkUser(user); err != nil {
		return 0, fmt.Errorf("add %d: %w", delta, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[user] += delta
	return m.balances[user], nil
}

func (m *Memory) Close() error { return nil }
