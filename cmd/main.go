package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/hangout/internal/adapters/audit"
	"github.com/okian/hangout/internal/adapters/http/api"
	"github.com/okian/hangout/internal/adapters/http/swagger"
	"github.com/okian/hangout/internal/adapters/ledger"
	"github.com/okian/hangout/internal/adapters/repository/postgres"
	service "github.com/okian/hangout/internal/app"
	"github.com/okian/hangout/internal/config"
	"github.com/okian/hangout/pkg/logger"
	"github.com/okian/hangout/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 10 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	serviceMetricsInterval    = 5 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		// Logger isn't configured yet.
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat), logger.WithLevel(cfg.LogLevel)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(ctx, cfg, logger.Get()); err != nil {
		logger.Get().Error(ctx, "hangout exited", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	backends, err := openBackends(ctx, cfg, log)
	if err != nil {
		return err
	}

	svc := service.New(append(backends,
		service.WithLogger(log.Named("service")),
		service.WithWorkerCount(cfg.AuditWorkerCount),
		service.WithQueueSize(cfg.AuditQueueSize),
		service.WithDedupeSize(cfg.DedupeSize),
		service.WithAcceptReward(cfg.AcceptReward),
		service.WithEligibilityEnforcement(cfg.EnforceEligibility),
	)...)
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("start service: %w", err)
	}
	defer svc.Stop()

	go startSystemMetricsUpdater(ctx)
	go startServiceMetricsUpdater(ctx, svc)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newMux(ctx, svc, cfg.AdminSecret),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server",
			logger.String("addr", cfg.Addr),
			logger.Bool("adminAuth", cfg.AdminSecret != ""),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err, ok := <-serveErr:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
	return nil
}

// newMux wires the API and documentation routes.
func newMux(ctx context.Context, svc *service.Service, adminSecret string) *http.ServeMux {
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(svc, svc, adminSecret).Register(ctx, mux)
	return mux
}

// openBackends connects the configured store, ledger and audit sink. Memory
// backends are left to the service defaults.
func openBackends(ctx context.Context, cfg *config.Config, log logger.Logger) ([]service.Option, error) {
	var (
		opts    []service.Option
		closers []func() error
	)
	fail := func(err error) ([]service.Option, error) {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i]()
		}
		return nil, err
	}

	if cfg.Storage == config.StoragePostgres {
		store, err := postgres.New(ctx, cfg.PostgresDSN)
		if err != nil {
			return fail(fmt.Errorf("open postgres store: %w", err))
		}
		closers = append(closers, store.Close)
		opts = append(opts, service.WithStore(store))
	}

	if cfg.Ledger == config.LedgerRedis {
		l, err := ledger.NewRedis(ctx, cfg.RedisAddr,
			ledger.WithDB(cfg.RedisDB),
			ledger.WithKeyPrefix(cfg.RedisKeyPrefix),
		)
		if err != nil {
			return fail(fmt.Errorf("open redis ledger: %w", err))
		}
		closers = append(closers, l.Close)
		opts = append(opts, service.WithLedger(l))
	}

	switch cfg.AuditSink {
	case config.AuditNATS:
		sink, err := audit.NewNATSSink(cfg.NATSURL,
			audit.WithSubject(cfg.NATSSubject),
			audit.WithClientName("hangout"),
		)
		if err != nil {
			return fail(fmt.Errorf("connect nats: %w", err))
		}
		opts = append(opts, service.WithAuditSink(sink))
	default:
		opts = append(opts, service.WithAuditSink(audit.NewLogSink(log)))
	}

	log.Info(ctx, "backends ready",
		logger.String("storage", cfg.Storage),
		logger.String("ledger", cfg.Ledger),
		logger.String("auditSink", cfg.AuditSink),
	)
	return opts, nil
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// startServiceMetricsUpdater refreshes the gauges derived from service stats.
func startServiceMetricsUpdater(ctx context.Context, svc *service.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(svc)
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}

// updateServiceMetrics updates service-level metrics. GetStats already
// refreshes pending and catalog gauges.
func updateServiceMetrics(svc *service.Service) {
	stats := svc.GetStats()

	if queueLen, ok := stats["queueLength"].(int); ok {
		metrics.UpdateQueueSize(queueLen)
	}
	if busy, ok := stats["busyWorkers"].(int); ok {
		metrics.UpdateWorkerActiveCount(busy)
	}
}
