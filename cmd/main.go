package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/safetaichung/saferoute/internal/adapters/http/api"
	"github.com/safetaichung/saferoute/internal/adapters/maps"
	"github.com/safetaichung/saferoute/internal/adapters/repository"
	app "github.com/safetaichung/saferoute/internal/app"
	"github.com/safetaichung/saferoute/internal/config"
	"github.com/safetaichung/saferoute/pkg/logger"
	"github.com/safetaichung/saferoute/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout           = 10 * time.Second
	writeTimeout          = 30 * time.Second
	idleTimeout           = 60 * time.Second
	readHeaderTimeout     = 5 * time.Second
	shutdownTimeout       = 30 * time.Second
	systemMetricsInterval = 10 * time.Second
)

func main() {
	// Disable default Go metrics collection; the custom registry carries
	// its own system metrics.
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info",
			logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	store, err := repository.NewCSVStore(cfg.ProcessedDir, repository.WithLogger(log.Named("store")))
	if err != nil {
		log.Error(ctx, "failed to open snapshot store", logger.Error(err))
		return
	}

	opts := []app.Option{
		app.WithLogger(log),
		app.WithStore(store),
		app.WithRawDir(cfg.RawDir),
		app.WithPopulationPath(cfg.PopulationFile),
		app.WithIngestWorkers(cfg.IngestWorkers),
	}
	if cfg.MapsAPIKey != "" {
		client, err := maps.NewClient(cfg.MapsAPIKey,
			maps.WithBaseURL(cfg.MapsBaseURL),
			maps.WithTimeout(time.Duration(cfg.MapsTimeoutMS)*time.Millisecond),
			maps.WithLogger(log.Named("maps")),
		)
		if err != nil {
			log.Error(ctx, "failed to build maps client", logger.Error(err))
			return
		}
		opts = append(opts, app.WithMapsClient(client))
	} else {
		log.Info(ctx, "no maps api key configured; route queries need explicit districts")
	}

	svc := app.New(opts...)
	if err := svc.Start(ctx); err != nil {
		log.Error(ctx, "failed to start service", logger.Error(err))
		return
	}

	go startSystemMetricsUpdater(ctx)

	mux := http.NewServeMux()
	api.NewServer(svc, svc, cfg.MaxRouteDistricts).Register(ctx, mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			os.Stderr.WriteString("HTTP server failed: " + err.Error() + "\n")
		}
	}()

	<-ctx.Done()
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	log.Info(ctx, "server stopped")
}

// startSystemMetricsUpdater periodically refreshes memory and goroutine
// gauges on the custom registry.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			var m runtime.MemStats
			runtime.ReadMemStats(&m)
			metrics.UpdateSystemMemoryUsage(m.Alloc)
			metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
		}
	}
}
