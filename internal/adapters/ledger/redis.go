package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis keeps balances as integer keys updated with INCRBY.
type Redis struct {
	client *redis.Client
	prefix string
}

// RedisOption configures the Redis ledger.
type RedisOption func(*redisSettings)

type redisSettings struct {
	db          int
	password    string
	prefix      string
	dialTimeout time.Duration
}

// WithDB selects the Redis logical database.
func WithDB(db int) RedisOption {
	return func(s *redisSettings) { s.db = db }
}

// WithPassword sets the AUTH password.
func WithPassword(pw string) RedisOption {
	return func(s *redisSettings) { s.password = pw }
}

// WithKeyPrefix namespaces balance keys.
func WithKeyPrefix(prefix string) RedisOption {
	return func(s *redisSettings) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// NewRedis connects to addr and verifies it answers PING.
func NewRedis(ctx context.Context, addr string, opts ...RedisOption) (*Redis, error) {
	cfg := redisSettings{prefix: "hangout:points:", dialTimeout: 5 * time.Second}
	for _, opt := range opts {
		opt(&cfg)
	}
	client := redis.NewClient(&redis.Options{
		Addr:        addr,
		Password:    cfg.password,
		DB:          cfg.db,
		DialTimeout: cfg.dialTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, cfg.dialTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ledger: redis ping %s: %w", addr, err)
	}
	return &Redis{client: client, prefix: cfg.prefix}, nil
}

func (r *Redis) key(user string) string { return r.prefix + user }

func (r *Redis) Get(ctx context.Context, user string) (int64, error) {
	defer observe("redis", "get", time.Now())
	if err := checkUser(user); err != nil {
		return 0, err
	}
	n, err := r.client.Get(ctx, r.key(user)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("ledger: get %q: %w", user, err)
	}
	return n, nil
}

func (r *Redis) Add(ctx context.Context, user string, delta int64) (int64, error) {
	defer observe("redis", "add", time.Now())
	if err := checkUser(user); err != nil {
		return 0, fmt.Errorf("add %d: %w", delta, err)
	}
	n, err := r.client.IncrBy(ctx, r.key(user), delta).Result()
	if err != nil {
		return 0, fmt.Errorf("ledger: incrby %q: %w", user, err)
	}
	return n, nil
}

// Ping reports whether Redis is reachable.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *Redis) Close() error {
	return r.client.Close()
}
