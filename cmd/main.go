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

	"github.com/okian/scoutlens/internal/adapters/http/api"
	app "github.com/okian/scoutlens/internal/app"
	"github.com/okian/scoutlens/internal/config"
	"github.com/okian/scoutlens/internal/domain/dashboard"
	"github.com/okian/scoutlens/internal/domain/status"
	"github.com/okian/scoutlens/pkg/logger"
	"github.com/okian/scoutlens/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 10 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		// logger isn't available yet
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.InitWithWriter(os.Stdout, cfg.LogJSON); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()
	log := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	if err := run(ctx, cfg, log); err != nil {
		log.Error(ctx, "scoutlens exited", logger.Error(err))
		os.Exit(1)
	}
}

// run starts the service and HTTP server and blocks until ctx is cancelled.
func run(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	svc, err := newService(cfg, log)
	if err != nil {
		return err
	}
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("start service: %w", err)
	}

	if cfg.SnapshotDir != "" {
		n, err := svc.LoadDir(ctx, cfg.SnapshotDir)
		log.Info(ctx, "preloaded snapshots", logger.String("dir", cfg.SnapshotDir), logger.Int("dashboards", n))
		if err != nil {
			log.Warn(ctx, "some snapshots could not be loaded", logger.Error(err))
		}
	}

	go startSystemMetricsUpdater(ctx)

	srv := newHTTPServer(ctx, cfg, svc)
	serveErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// Wait for shutdown signal or a listener failure
	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			_ = svc.Stop(context.Background())
			return fmt.Errorf("http server: %w", err)
		}
	}
	log.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	if err := svc.Stop(shutdownCtx); err != nil {
		log.Error(ctx, "service shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
	return nil
}

// newService builds the dashboard service from cfg.
func newService(cfg *config.Config, log logger.Logger) (*app.Service, error) {
	table, err := cfg.StatusTable()
	if err != nil {
		return nil, err
	}

	return app.New(
		app.WithLogger(log),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithQueueSize(cfg.QueueSize),
		app.WithClassifier(status.NewClassifier(status.WithTable(table))),
		app.WithBuilderOptions(
			dashboard.WithHeadlineMetric(cfg.HeadlineMetric),
			dashboard.WithKnownSources(cfg.Sources()),
			dashboard.WithDriftTolerance(cfg.DriftTolerance),
		),
	), nil
}

// newHTTPServer registers the API routes for svc on a fresh mux.
func newHTTPServer(ctx context.Context, cfg *config.Config, svc *app.Service) *http.Server {
	mux := http.NewServeMux()
	api.NewServer(svc, svc, api.WithSubmitLimit(cfg.SubmitRate, cfg.SubmitBurst)).Register(ctx, mux)

	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}
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
			updateSystemMetrics(metrics.Global())
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics(m *metrics.Manager) {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	m.UpdateSystemMemoryUsage(ms.Alloc)
	m.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if ms.NumGC > 0 {
		avgPauseMs := float64(ms.PauseTotalNs) / float64(ms.NumGC) / nanosecondsPerMillisecond
		m.RecordSystemGCPauseTime(avgPauseMs)
	}
}
