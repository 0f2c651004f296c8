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

	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/okian/mergington/internal/adapters/http/api"
	"github.com/okian/mergington/internal/adapters/http/site"
	"github.com/okian/mergington/internal/adapters/http/swagger"
	"github.com/okian/mergington/internal/adapters/repository"
	app "github.com/okian/mergington/internal/app"
	"github.com/okian/mergington/internal/config"
	"github.com/okian/mergington/pkg/logger"
	"github.com/okian/mergington/pkg/metrics"
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
	if err := run(); err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
}

func run() error {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	log := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	seed, err := config.LoadSeed(ctx, cfg.SeedFile)
	if err != nil {
		return err
	}
	store, err := repository.NewMemoryStore(ctx, seed)
	if err != nil {
		return fmt.Errorf("failed to build activity store: %w", err)
	}

	svc := app.New(store,
		app.WithLogger(logger.Named("activity-service")),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithQueueSize(cfg.QueueSize),
		app.WithJournalSize(cfg.JournalSize),
	)
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("failed to start service: %w", err)
	}

	// Process metrics complement the hand-rolled system gauges.
	metrics.GetRegistry().MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	updateServiceMetrics(ctx, svc)
	go startSystemMetricsUpdater(ctx)
	go startServiceMetricsUpdater(ctx, svc)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newHandler(ctx, svc, cfg),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server",
			logger.String("addr", cfg.Addr),
			logger.Int("activities", store.Count(ctx)),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// Wait for shutdown signal or a listener failure
	var runErr error
	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			runErr = fmt.Errorf("HTTP server failed: %w", err)
		}
	}
	log.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(shutdownCtx, "server shutdown failed", logger.Error(err))
	}
	if err := svc.Stop(shutdownCtx); err != nil {
		log.Error(shutdownCtx, "service shutdown failed", logger.Error(err))
	}

	log.Info(shutdownCtx, "server stopped")
	return runErr
}

// newHandler registers every route on a fresh mux.
func newHandler(ctx context.Context, svc *app.Service, cfg *config.Config) http.Handler {
	mux := http.NewServeMux()

	// Landing page at / and /static/
	site.Register(ctx, mux)

	// API docs at /api-docs and /openapi.yaml
	swagger.Register(ctx, mux)

	// Business API routes with the service dependency.
	api.NewServer(svc, cfg.MaxHistoryLimit).Register(ctx, mux)

	return mux
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

// startServiceMetricsUpdater starts a background goroutine that updates service metrics.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(ctx, svc)
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

// updateServiceMetrics refreshes pipeline gauges and per-activity roster sizes.
func updateServiceMetrics(ctx context.Context, svc *app.Service) {
	stats := svc.GetStats(ctx)
	metrics.UpdateQueueSize(stats.QueueLength)
	metrics.UpdateWorkerCount(stats.WorkerCount)
	metrics.UpdateJournalEntries(stats.JournalLength)

	dir, err := svc.ListActivities(ctx)
	if err != nil {
		return
	}
	for name, a := range dir {
		metrics.UpdateRosterSize(name, len(a.Participants))
	}
}
