// Package config defines service configuration and how it is loaded.
package config

import (
	"fmt"
	"runtime"
	"strings"
)

// Storage backends.
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

// Ledger backends.
const (
	LedgerMemory = "memory"
	LedgerRedis  = "redis"
)

// Audit sinks.
const (
	AuditLog  = "log"
	AuditNATS = "nats"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects "text" or "json" log lines.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// Storage selects the request/catalog/collection backend.
	Storage     string `koanf:"storage"`
	PostgresDSN string `koanf:"postgres_dsn"`

	// Ledger selects the points backend.
	Ledger         string `koanf:"ledger"`
	RedisAddr      string `koanf:"redis_addr"`
	RedisDB        int    `koanf:"redis_db"`
	RedisKeyPrefix string `koanf:"redis_key_prefix"`

	// AuditSink selects where audit entries are delivered.
	AuditSink   string `koanf:"audit_sink"`
	NATSURL     string `koanf:"nats_url"`
	NATSSubject string `koanf:"nats_subject"`

	// AuditQueueSize bounds the in-memory audit queue.
	AuditQueueSize int `koanf:"audit_queue_size"`

	// AuditWorkerCount sets the number of audit delivery workers.
	AuditWorkerCount int `koanf:"audit_worker_count"`

	// DedupeSize sets how many submission keys are remembered.
	DedupeSize int `koanf:"dedupe_size"`

	// AcceptReward is the points credited for an accepted suggestion.
	AcceptReward int64 `koanf:"accept_reward"`

	// EnforceEligibility rejects assignments of ineligible events.
	EnforceEligibility bool `koanf:"enforce_eligibility"`

	// AdminSecret signs admin bearer tokens. Empty disables the admin check.
	AdminSecret string `koanf:"admin_secret"`
}

// New returns a Config holding the defaults.
func New() *Config {
	return &Config{
		LogLevel:           "info",
		LogFormat:          "text",
		Addr:               ":9080",
		Storage:            StorageMemory,
		Ledger:             LedgerMemory,
		RedisKeyPrefix:     "hangout:points:",
		AuditSink:          AuditLog,
		NATSSubject:        "hangout.audit",
		AuditQueueSize:     10_000,
		AuditWorkerCount:   runtime.NumCPU(),
		DedupeSize:         50_000,
		AcceptReward:       1,
		EnforceEligibility: true,
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.AuditQueueSize <= 0:
		return fmt.Errorf("%w: audit_queue_size must be positive", ErrInvalidConfig)
	case c.AuditWorkerCount <= 0:
		return fmt.Errorf("%w: audit_worker_count must be positive", ErrInvalidConfig)
	case c.DedupeSize < 0:
		return fmt.Errorf("%w: dedupe_size must not be negative", ErrInvalidConfig)
	case c.AcceptReward < 0:
		return fmt.Errorf("%w: accept_reward must not be negative", ErrInvalidConfig)
	}

	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("%w: unknown log_format %q", ErrInvalidConfig, c.LogFormat)
	}

	switch c.Storage {
	case StorageMemory:
	case StoragePostgres:
		if strings.TrimSpace(c.PostgresDSN) == "" {
			return fmt.Errorf("%w: storage %q needs postgres_dsn", ErrInvalidConfig, c.Storage)
		}
	default:
		return fmt.Errorf("%w: unknown storage %q", ErrInvalidConfig, c.Storage)
	}

	switch c.Ledger {
	case LedgerMemory:
	case LedgerRedis:
		if strings.TrimSpace(c.RedisAddr) == "" {
			return fmt.Errorf("%w: ledger %q needs redis_addr", ErrInvalidConfig, c.Ledger)
		}
	default:
		return fmt.Errorf("%w: unknown ledger %q", ErrInvalidConfig, c.Ledger)
	}

	switch c.AuditSink {
	case AuditLog:
	case AuditNATS:
		if strings.TrimSpace(c.NATSURL) == "" {
			return fmt.Errorf("%w: audit_sink %q needs nats_url", ErrInvalidConfig, c.AuditSink)
		}
	default:
		return fmt.Errorf("%w: unknown audit_sink %q", ErrInvalidConfig, c.AuditSink)
	}
	return nil
}
