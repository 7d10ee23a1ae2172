package main

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	service "github.com/okian/hangout/internal/app"
	"github.com/okian/hangout/internal/config"
	"github.com/okian/hangout/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(logger.WithWriter(io.Discard)); err != nil {
		panic(err)
	}
}

func TestMainFunction(t *testing.T) {
	convey.Convey("Given the main application", t, func() {
		convey.Convey("When testing configuration loading", func() {
			_ = os.Setenv("HANGOUT_ADDR", ":8080")
			_ = os.Setenv("HANGOUT_AUDIT_QUEUE_SIZE", "1000")
			_ = os.Setenv("HANGOUT_AUDIT_WORKER_COUNT", "4")
			defer func() {
				_ = os.Unsetenv("HANGOUT_ADDR")
				_ = os.Unsetenv("HANGOUT_AUDIT_QUEUE_SIZE")
				_ = os.Unsetenv("HANGOUT_AUDIT_WORKER_COUNT")
			}()

			convey.Convey("Then configuration should be loadable", func() {
				cfg, err := config.Load(context.Background())
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.AuditQueueSize, convey.ShouldEqual, 1000)
				convey.So(cfg.AuditWorkerCount, convey.ShouldEqual, 4)
			})
		})

		convey.Convey("When opening memory backends", func() {
			cfg := config.New()
			opts, err := openBackends(context.Background(), cfg, logger.NewNop())

			convey.Convey("Then only the log audit sink is supplied", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(opts, convey.ShouldHaveLength, 1)
			})
		})

		convey.Convey("When the postgres backend is unreachable", func() {
			cfg := config.New()
			cfg.Storage = config.StoragePostgres
			cfg.PostgresDSN = "postgres://hangout@127.0.0.1:1/hangout?connect_timeout=1"

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			opts, err := openBackends(ctx, cfg, logger.NewNop())

			convey.Convey("Then opening fails", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "postgres")
				convey.So(opts, convey.ShouldBeNil)
			})
		})

		convey.Convey("When the redis ledger is unreachable", func() {
			cfg := config.New()
			cfg.Ledger = config.LedgerRedis
			cfg.RedisAddr = "127.0.0.1:1"

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_, err := openBackends(ctx, cfg, logger.NewNop())

			convey.Convey("Then opening fails", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "redis")
			})
		})
	})
}

func TestMainApplicationComponents(t *testing.T) {
	convey.Convey("Given main application components", t, func() {
		convey.Convey("When testing system metrics updater", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()

			convey.So(func() { startSystemMetricsUpdater(ctx) }, convey.ShouldNotPanic)
		})

		convey.Convey("When testing service metrics update on a stopped service", func() {
			svc := service.New()
			convey.So(func() { updateServiceMetrics(svc) }, convey.ShouldNotPanic)
		})

		convey.Convey("When testing system metrics update", func() {
			convey.So(func() { updateSystemMetrics() }, convey.ShouldNotPanic)
		})
	})
}

func TestMainApplicationIntegration(t *testing.T) {
	convey.Convey("Given a started service behind the mux", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		svc := service.New(service.WithLogger(logger.NewNop()), service.WithWorkerCount(1))
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer svc.Stop()

		srv := httptest.NewServer(newMux(ctx, svc, ""))
		defer srv.Close()

		get := func(path string) int {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+path, nil)
			convey.So(err, convey.ShouldBeNil)
			resp, err := http.DefaultClient.Do(req)
			convey.So(err, convey.ShouldBeNil)
			_ = resp.Body.Close()
			return resp.StatusCode
		}

		convey.Convey("Then health, docs and api routes respond", func() {
			convey.So(get("/healthz"), convey.ShouldEqual, http.StatusOK)
			convey.So(get("/api-docs"), convey.ShouldEqual, http.StatusOK)
			convey.So(get("/openapi.yaml"), convey.ShouldEqual, http.StatusOK)
			convey.So(get("/requests/pending"), convey.ShouldEqual, http.StatusOK)
			convey.So(get("/catalog"), convey.ShouldEqual, http.StatusOK)
			convey.So(get("/requests/missing"), convey.ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestMainApplicationErrorHandling(t *testing.T) {
	convey.Convey("Given main application error handling", t, func() {
		convey.Convey("When testing invalid configuration", func() {
			_ = os.Setenv("HANGOUT_ADDR", "")
			defer func() { _ = os.Unsetenv("HANGOUT_ADDR") }()

			cfg, err := config.Load(context.Background())
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(cfg, convey.ShouldBeNil)
		})

		convey.Convey("When the listen address is unusable", func() {
			cfg := config.New()
			cfg.Addr = "256.0.0.1:bad"
			cfg.AuditWorkerCount = 1

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			err := run(ctx, cfg, logger.NewNop())

			convey.So(err, convey.ShouldNotBeNil)
			convey.So(err.Error(), convey.ShouldContainSubstring, "http server")
		})
	})
}
