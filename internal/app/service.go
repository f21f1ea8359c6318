// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/safetaichung/saferoute/internal/adapters/ingest"
	"github.com/safetaichung/saferoute/internal/adapters/maps"
	"github.com/safetaichung/saferoute/internal/adapters/repository"
	"github.com/safetaichung/saferoute/internal/domain/aggregate"
	"github.com/safetaichung/saferoute/internal/domain/model"
	"github.com/safetaichung/saferoute/internal/domain/normalize"
	"github.com/safetaichung/saferoute/internal/domain/route"
	"github.com/safetaichung/saferoute/pkg/logger"
	"github.com/safetaichung/saferoute/pkg/metrics"
)

// Service implements the API dependencies for the route risk system.
// It owns the current snapshot and swaps it atomically on each pipeline
// run; readers never see a partial snapshot.
type Service struct {
	mu sync.RWMutex

	// Core components
	store    repository.Store
	loader   *ingest.Loader
	maps     *maps.Client
	snapshot *model.Snapshot
	composer *route.Composer

	// Configuration
	rawDir         string
	populationPath string
	ingestWorkers  int

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the snapshot persistence backend.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithRawDir sets the directory scanned for raw incident files.
func WithRawDir(dir string) Option {
	return func(s *Service) {
		if dir != "" {
			s.rawDir = dir
		}
	}
}

// WithPopulationPath sets the district population table location.
func WithPopulationPath(path string) Option {
	return func(s *Service) {
		if path != "" {
			s.populationPath = path
		}
	}
}

// WithIngestWorkers bounds concurrent raw file decoding.
func WithIngestWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.ingestWorkers = n
		}
	}
}

// WithMapsClient enables address resolution for route queries. Without
// it, queries must name districts explicitly.
func WithMapsClient(client *maps.Client) Option {
	return func(s *Service) {
		s.maps = client
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(lg logger.Logger) Option {
	return func(s *Service) {
		if lg != nil {
			s.logger = lg
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		rawDir:         "data/raw",
		populationPath: "data/processed/district_population.csv",
		ingestWorkers:  runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start loads the persisted snapshot, or rebuilds it from the raw data
// when none is available. A service with no snapshot still starts; route
// queries report unavailability until a refresh succeeds.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if s.store == nil {
		s.mu.Unlock()
		return errors.New("service requires a snapshot store")
	}
	s.loader = ingest.NewLoader(
		ingest.WithWorkers(s.ingestWorkers),
		ingest.WithLogger(s.logger.Named("ingest")),
	)
	s.started = true
	s.mu.Unlock()

	snap, err := s.store.Load(ctx)
	if err == nil {
		s.install(ctx, snap)
		s.logger.Info(ctx, "snapshot loaded from store",
			logger.String("run_id", snap.RunID),
			logger.Int("districts", len(snap.Districts)))
		return nil
	}
	s.logger.Warn(ctx, "no usable snapshot in store, rebuilding", logger.Error(err))

	if _, err := s.Refresh(ctx); err != nil {
		s.logger.Warn(ctx, "initial pipeline run failed, serving without snapshot",
			logger.Error(err))
	}
	return nil
}

// Refresh runs the full pipeline: discover raw files, normalize,
// aggregate, persist, and install the new snapshot.
func (s *Service) Refresh(ctx context.Context) (*model.Snapshot, error) {
	start := time.Now()
	snap, err := s.runPipeline(ctx)
	if err != nil {
		metrics.RecordPipelineError()
		return nil, err
	}
	metrics.RecordPipelineRun()
	metrics.RecordPipelineDuration(float64(time.Since(start).Milliseconds()))
	return snap, nil
}

func (s *Service) runPipeline(ctx context.Context) (*model.Snapshot, error) {
	s.mu.Lock()
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if s.loader == nil {
		s.loader = ingest.NewLoader(
			ingest.WithWorkers(s.ingestWorkers),
			ingest.WithLogger(s.logger.Named("ingest")),
		)
	}
	if s.store == nil {
		s.mu.Unlock()
		return nil, errors.New("service requires a snapshot store")
	}
	s.mu.Unlock()

	sources, err := ingest.DiscoverSources(s.rawDir)
	if err != nil {
		return nil, fmt.Errorf("discover raw sources: %w", err)
	}
	records, audit, err := s.loader.Load(ctx, sources)
	if err != nil {
		return nil, fmt.Errorf("load raw sources: %w", err)
	}
	population, err := ingest.ReadPopulation(s.populationPath)
	if err != nil {
		return nil, fmt.Errorf("load population table: %w", err)
	}

	districts, err := aggregate.DistrictSummary(records, population)
	if err != nil {
		return nil, fmt.Errorf("district summary: %w", err)
	}
	hourly, err := aggregate.HourlySummary(records)
	if err != nil {
		return nil, fmt.Errorf("hourly summary: %w", err)
	}

	snap := &model.Snapshot{
		RunID:       uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
		Districts:   districts,
		Hourly:      hourly,
		Audit:       audit,
	}
	if err := s.store.Save(ctx, snap); err != nil {
		return nil, fmt.Errorf("persist snapshot: %w", err)
	}
	s.install(ctx, snap)

	s.logger.Info(ctx, "pipeline run complete",
		logger.String("run_id", snap.RunID),
		logger.Int("districts", len(districts)),
		logger.Int("hourly_rows", len(hourly)),
		logger.Int("valid", audit.Valid),
		logger.Int("invalid", audit.Invalid))
	return snap, nil
}

// install swaps in a new snapshot and its query index.
func (s *Service) install(_ context.Context, snap *model.Snapshot) {
	composer := route.NewComposer(snap)

	s.mu.Lock()
	s.snapshot = snap
	s.composer = composer
	s.mu.Unlock()

	metrics.UpdateRecordCounts(snap.Audit.Valid, snap.Audit.Invalid)
	metrics.UpdateInvalidReason("invalid_date", snap.Audit.InvalidDate)
	metrics.UpdateInvalidReason("invalid_hour", snap.Audit.InvalidHour)
	metrics.UpdateInvalidReason("missing_location", snap.Audit.MissingLocation)
	metrics.UpdateTableSizes(len(snap.Districts), len(snap.Hourly))
	metrics.UpdateSnapshotTimestamp(snap.GeneratedAt.Unix())
}

// current returns the installed snapshot and composer, or an
// unavailability error before the first successful pipeline run.
func (s *Service) current() (*model.Snapshot, *route.Composer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snapshot == nil || s.composer == nil {
		return nil, nil, repository.ErrSummaryNotAvailable
	}
	return s.snapshot, s.composer, nil
}

// RouteRisk scores a district list at a departure hour against the
// current snapshot.
func (s *Service) RouteRisk(ctx context.Context, districts []string, departureHour int) (model.RouteRiskResult, error) {
	_, composer, err := s.current()
	if err != nil {
		return model.RouteRiskResult{}, err
	}

	start := time.Now()
	result, err := composer.Compose(districts, departureHour)
	if err != nil {
		return model.RouteRiskResult{}, err
	}

	metrics.RecordRouteQuery(string(result.RouteRiskLabel))
	metrics.RecordRouteQueryDuration(float64(time.Since(start).Milliseconds()))
	metrics.RecordFallbackSegments("district", result.DistrictFallbacks)
	metrics.RecordFallbackSegments("hour", result.HourFallbacks)
	return result, nil
}

// ResolveRoute geocodes the origin and destination and maps each to a
// district. Equal endpoints collapse to a single-district route.
func (s *Service) ResolveRoute(ctx context.Context, origin, destination string) ([]string, error) {
	if s.maps == nil {
		return nil, fmt.Errorf("geocoding not configured: %w", maps.ErrMissingAPIKey)
	}

	from, err := s.maps.Geocode(ctx, origin)
	if err != nil {
		return nil, fmt.Errorf("geocode origin: %w", err)
	}
	to, err := s.maps.Geocode(ctx, destination)
	if err != nil {
		return nil, fmt.Errorf("geocode destination: %w", err)
	}

	a := normalize.ResolveDistrict(from.FormattedAddress)
	b := normalize.ResolveDistrict(to.FormattedAddress)
	if a == b {
		return []string{a}, nil
	}
	return []string{a, b}, nil
}

// DistrictSummary returns the district risk table in rate order.
func (s *Service) DistrictSummary(ctx context.Context) ([]model.DistrictRiskEntry, error) {
	snap, _, err := s.current()
	if err != nil {
		return nil, err
	}
	out := make([]model.DistrictRiskEntry, len(snap.Districts))
	copy(out, snap.Districts)
	return out, nil
}

// District returns one district's summary entry.
func (s *Service) District(ctx context.Context, name string) (model.DistrictRiskEntry, error) {
	snap, _, err := s.current()
	if err != nil {
		return model.DistrictRiskEntry{}, err
	}
	for _, e := range snap.Districts {
		if e.District == name {
			return e, nil
		}
	}
	return model.DistrictRiskEntry{}, fmt.Errorf("%w: %s", repository.ErrDistrictNotFound, name)
}

// HourlyByDistrict returns the sparse hourly profile for one district.
func (s *Service) HourlyByDistrict(ctx context.Context, district string) ([]model.HourlyRiskEntry, error) {
	snap, _, err := s.current()
	if err != nil {
		return nil, err
	}
	var out []model.HourlyRiskEntry
	for _, e := range snap.Hourly {
		if e.District == district {
			out = append(out, e)
		}
	}
	return out, nil
}

// GetStats returns service statistics for the stats endpoint.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"snapshot_loaded":     s.snapshot != nil,
		"geocoding_available": s.maps != nil,
	}
	if s.snapshot != nil {
		stats["run_id"] = s.snapshot.RunID
		stats["generated_at"] = s.snapshot.GeneratedAt
		stats["districts"] = len(s.snapshot.Districts)
		stats["hourly_rows"] = len(s.snapshot.Hourly)
		stats["total_records"] = s.snapshot.Audit.Total
		stats["valid_records"] = s.snapshot.Audit.Valid
		stats["invalid_records"] = s.snapshot.Audit.Invalid
	}
	return stats
}
