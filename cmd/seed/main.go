// Command seed writes synthetic raw incident files and a population
// table so the service can run without the real open-data exports.
package main

import (
	"context"
	"flag"
	"os"
	"path/filepath"

	"github.com/safetaichung/saferoute/internal/synth"
	"github.com/safetaichung/saferoute/pkg/logger"
)

func main() {
	rawDir := flag.String("raw-dir", "data/raw", "directory for generated incident files")
	populationPath := flag.String("population", "data/processed/district_population.csv", "path for the generated population table")
	rows := flag.Int("rows", 500, "rows per incident file")
	seed := flag.Int64("seed", 1, "random seed")
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := logger.Get()
	ctx := context.Background()

	gen := synth.NewGenerator(synth.WithSeed(*seed), synth.WithRows(*rows))
	if err := gen.WriteRawDir(*rawDir); err != nil {
		log.Error(ctx, "failed to write raw files", logger.Error(err))
		os.Exit(1)
	}
	if err := gen.WritePopulationCSV(*populationPath); err != nil {
		log.Error(ctx, "failed to write population table", logger.Error(err))
		os.Exit(1)
	}

	log.Info(ctx, "synthetic data written",
		logger.String("raw_dir", filepath.Clean(*rawDir)),
		logger.String("population", filepath.Clean(*populationPath)),
		logger.Int("rows_per_file", *rows))
}
