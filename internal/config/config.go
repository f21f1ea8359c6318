// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - Loading layers defaults, an optional YAML file, and env vars.
package config

import (
	"context"
	"runtime"
)

// Config contains process configuration for the risk engine.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// RawDir holds raw incident files named <category>_<year>.csv|xlsx.
	RawDir string `koanf:"raw_dir"`

	// ProcessedDir holds the risk summary tables written by the pipeline.
	ProcessedDir string `koanf:"processed_dir"`

	// PopulationFile is the district population table (csv or xlsx).
	PopulationFile string `koanf:"population_file"`

	// IngestWorkers bounds concurrent raw-file decoding.
	IngestWorkers int `koanf:"ingest_workers"`

	// MaxRouteDistricts caps the district list accepted by /route-risk.
	MaxRouteDistricts int `koanf:"max_route_districts"`

	// MapsAPIKey enables the directions/geocoding client when set.
	MapsAPIKey string `koanf:"maps_api_key"`

	// MapsBaseURL overrides the maps API endpoint (tests, proxies).
	MapsBaseURL string `koanf:"maps_base_url"`

	// MapsTimeoutMS bounds a single maps API call.
	MapsTimeoutMS int `koanf:"maps_timeout_ms"`
}

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention; it is reserved for future use.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:          "info",
		Addr:              ":9080",
		RawDir:            "data/raw",
		ProcessedDir:      "data/processed",
		PopulationFile:    "data/processed/district_population.csv",
		IngestWorkers:     runtime.NumCPU(),
		MaxRouteDistricts: 16,
		MapsAPIKey:        "",
		MapsBaseURL:       "https://maps.googleapis.com",
		MapsTimeoutMS:     5000,
	}
}
