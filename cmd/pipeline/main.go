// Command pipeline runs one aggregation pass over the raw incident data
// and writes the summary tables, without starting the HTTP server.
package main

import (
	"context"
	"os"

	"github.com/safetaichung/saferoute/internal/adapters/repository"
	app "github.com/safetaichung/saferoute/internal/app"
	"github.com/safetaichung/saferoute/internal/config"
	"github.com/safetaichung/saferoute/pkg/logger"
)

func main() {
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := logger.Get()
	ctx := context.Background()

	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		_ = logger.SetLevelString("info")
	}

	store, err := repository.NewCSVStore(cfg.ProcessedDir, repository.WithLogger(log.Named("store")))
	if err != nil {
		log.Error(ctx, "failed to open snapshot store", logger.Error(err))
		os.Exit(1)
	}

	svc := app.New(
		app.WithLogger(log),
		app.WithStore(store),
		app.WithRawDir(cfg.RawDir),
		app.WithPopulationPath(cfg.PopulationFile),
		app.WithIngestWorkers(cfg.IngestWorkers),
	)

	snap, err := svc.Refresh(ctx)
	if err != nil {
		log.Error(ctx, "pipeline run failed", logger.Error(err))
		os.Exit(1)
	}
	log.Info(ctx, "pipeline run written",
		logger.String("run_id", snap.RunID),
		logger.String("dir", cfg.ProcessedDir),
		logger.Int("districts", len(snap.Districts)),
		logger.Int("hourly_rows", len(snap.Hourly)),
		logger.Int("valid", snap.Audit.Valid),
		logger.Int("invalid", snap.Audit.Invalid))
}
