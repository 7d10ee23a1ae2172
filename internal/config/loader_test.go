package config_test

import (
	"context"
	"errors"
	"os"
	"runtime"
	"testing"

	"github.com/okian/hangout/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.AuditQueueSize, convey.ShouldEqual, 10_000)
				convey.So(cfg.AuditWorkerCount, convey.ShouldEqual, runtime.NumCPU())
				convey.So(cfg.DedupeSize, convey.ShouldEqual, 50_000)
				convey.So(cfg.EnforceEligibility, convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("HANGOUT_ADDR", ":8080")
			_ = os.Setenv("HANGOUT_LOG_LEVEL", "debug")
			_ = os.Setenv("HANGOUT_LOG_FORMAT", "json")
			_ = os.Setenv("HANGOUT_AUDIT_QUEUE_SIZE", "500")
			_ = os.Setenv("HANGOUT_AUDIT_WORKER_COUNT", "3")
			_ = os.Setenv("HANGOUT_DEDUPE_SIZE", "250")
			_ = os.Setenv("HANGOUT_ACCEPT_REWARD", "5")
			_ = os.Setenv("HANGOUT_ENFORCE_ELIGIBILITY", "false")
			_ = os.Setenv("HANGOUT_ADMIN_SECRET", "s3cret")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.LogLevel, convey.ShouldEqual, "debug")
				convey.So(cfg.LogFormat, convey.ShouldEqual, "json")
				convey.So(cfg.AuditQueueSize, convey.ShouldEqual, 500)
				convey.So(cfg.AuditWorkerCount, convey.ShouldEqual, 3)
				convey.So(cfg.DedupeSize, convey.ShouldEqual, 250)
				convey.So(cfg.AcceptReward, convey.ShouldEqual, 5)
				convey.So(cfg.EnforceEligibility, convey.ShouldBeFalse)
				convey.So(cfg.AdminSecret, convey.ShouldEqual, "s3cret")
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			yamlContent := `
addr: ":9090"
storage: postgres
postgres_dsn: "postgres://hangout@localhost/hangout"
ledger: redis
redis_addr: "localhost:6379"
redis_db: 2
redis_key_prefix: "test:points:"
audit_sink: nats
nats_url: "nats://localhost:4222"
nats_subject: "test.audit"
audit_worker_count: 4
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("HANGOUT_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.Storage, convey.ShouldEqual, config.StoragePostgres)
				convey.So(cfg.PostgresDSN, convey.ShouldEqual, "postgres://hangout@localhost/hangout")
				convey.So(cfg.Ledger, convey.ShouldEqual, config.LedgerRedis)
				convey.So(cfg.RedisAddr, convey.ShouldEqual, "localhost:6379")
				convey.So(cfg.RedisDB, convey.ShouldEqual, 2)
				convey.So(cfg.RedisKeyPrefix, convey.ShouldEqual, "test:points:")
				convey.So(cfg.AuditSink, convey.ShouldEqual, config.AuditNATS)
				convey.So(cfg.NATSURL, convey.ShouldEqual, "nats://localhost:4222")
				convey.So(cfg.NATSSubject, convey.ShouldEqual, "test.audit")
				convey.So(cfg.AuditWorkerCount, convey.ShouldEqual, 4)
				convey.So(cfg.DedupeSize, convey.ShouldEqual, 50_000) // From defaults
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			yamlContent := `
addr: ":9090"
audit_queue_size: 300
audit_worker_count: 24
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("HANGOUT_CONFIG", tmpFile)
			_ = os.Setenv("HANGOUT_ADDR", ":8080")
			_ = os.Setenv("HANGOUT_AUDIT_WORKER_COUNT", "32")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")        // Overridden by env
				convey.So(cfg.AuditQueueSize, convey.ShouldEqual, 300)  // From file
				convey.So(cfg.AuditWorkerCount, convey.ShouldEqual, 32) // Overridden by env
				convey.So(cfg.DedupeSize, convey.ShouldEqual, 50_000)   // From defaults
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("HANGOUT_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("HANGOUT_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with empty addr", func() {
			_ = os.Setenv("HANGOUT_ADDR", "")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When selecting redis without an address", func() {
			_ = os.Setenv("HANGOUT_LEDGER", "redis")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "redis_addr")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("HANGOUT_AUDIT_QUEUE_SIZE", "invalid")
			_ = os.Setenv("HANGOUT_AUDIT_WORKER_COUNT", "not_a_number")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

func TestConfigLoaderEdgeCases(t *testing.T) {
	convey.Convey("Given config loader edge cases", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with zero workers", func() {
			_ = os.Setenv("HANGOUT_AUDIT_WORKER_COUNT", "0")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should be rejected", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with a zero reward", func() {
			_ = os.Setenv("HANGOUT_ACCEPT_REWARD", "0")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should accept it", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.AcceptReward, convey.ShouldEqual, 0)
			})
		})

		convey.Convey("When loading config with YAML file containing comments", func() {
			yamlContent := `
# This is a comment
addr: ":9090"  # Inline comment
dedupe_size: 600
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("HANGOUT_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should parse YAML with comments", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.DedupeSize, convey.ShouldEqual, 600)
			})
		})

		convey.Convey("When loading config with YAML file containing empty addr", func() {
			yamlContent := `
addr: ""
dedupe_size: 600
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("HANGOUT_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return validation error for empty addr", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"HANGOUT_CONFIG",
		"HANGOUT_ADDR",
		"HANGOUT_LOG_LEVEL",
		"HANGOUT_LOG_FORMAT",
		"HANGOUT_STORAGE",
		"HANGOUT_POSTGRES_DSN",
		"HANGOUT_LEDGER",
		"HANGOUT_REDIS_ADDR",
		"HANGOUT_REDIS_DB",
		"HANGOUT_REDIS_KEY_PREFIX",
		"HANGOUT_AUDIT_SINK",
		"HANGOUT_NATS_URL",
		"HANGOUT_NATS_SUBJECT",
		"HANGOUT_AUDIT_QUEUE_SIZE",
		"HANGOUT_AUDIT_WORKER_COUNT",
		"HANGOUT_DEDUPE_SIZE",
		"HANGOUT_ACCEPT_REWARD",
		"HANGOUT_ENFORCE_ELIGIBILITY",
		"HANGOUT_ADMIN_SECRET",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "hangout-config-*.yaml")
	if err != nil {
		panic(err)
	}

	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}

	if err := tmpFile.Close(); err != nil {
		panic(err)
	}

	return tmpFile.Name()
}
