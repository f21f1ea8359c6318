package repository

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/safetaichung/saferoute/internal/domain/model"
	"github.com/safetaichung/saferoute/pkg/logger"
	"github.com/safetaichung/saferoute/pkg/metrics"
)

// Output file names, matching the upstream analysis pipeline.
const (
	districtSummaryFile = "district_risk_summary.csv"
	hourlySummaryFile   = "hourly_risk_summary.csv"
	pipelineRunFile     = "pipeline_run.csv"
)

// utf8BOM prefixes every written file so spreadsheet tools decode the
// district names correctly.
const utf8BOM = "\uFEFF"

var districtHeader = []string{
	"district", "total_cases", "population", "cases_per_10k_pop",
	"daytime_cases_ratio", "night_cases_ratio", "risk_level",
}

var hourlyHeader = []string{
	"district", "hour", "hour_cases", "hour_ratio", "hour_risk_score",
}

var runHeader = []string{
	"run_id", "generated_at", "total", "valid", "invalid",
	"invalid_date", "invalid_hour", "missing_location",
}

// CSVStore persists the snapshot as CSV tables under a directory.
// Saves write to a temp file and rename, so concurrent readers always
// see a complete table.
type CSVStore struct {
	dir    string
	logger logger.Logger
}

// CSVOption applies a configuration option to the CSVStore.
type CSVOption func(*CSVStore)

// WithLogger sets a custom logger for the store.
func WithLogger(l logger.Logger) CSVOption {
	return func(s *CSVStore) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewCSVStore creates a store rooted at dir, creating it if needed.
func NewCSVStore(dir string, opts ...CSVOption) (*CSVStore, error) {
	s := &CSVStore{
		dir:    dir,
		logger: logger.Get().Named("store"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	return s, nil
}

// Save overwrites all snapshot tables atomically.
func (s *CSVStore) Save(ctx context.Context, snap *model.Snapshot) error {
	start := time.Now()

	if err := s.writeFile(districtSummaryFile, districtHeader, districtRows(snap.Districts)); err != nil {
		metrics.RecordStoreError()
		return err
	}
	if err := s.writeFile(hourlySummaryFile, hourlyHeader, hourlyRows(snap.Hourly)); err != nil {
		metrics.RecordStoreError()
		return err
	}
	if err := s.writeFile(pipelineRunFile, runHeader, [][]string{runRow(snap)}); err != nil {
		metrics.RecordStoreError()
		return err
	}

	metrics.RecordStoreSaveLatency(float64(time.Since(start).Milliseconds()))
	s.logger.Info(ctx, "snapshot saved",
		logger.String("run_id", snap.RunID),
		logger.Int("districts", len(snap.Districts)),
		logger.Int("hourly_rows", len(snap.Hourly)))
	return nil
}

// Load reads the full snapshot back.
func (s *CSVStore) Load(ctx context.Context) (*model.Snapshot, error) {
	start := time.Now()

	districtRecords, err := s.readFile(districtSummaryFile)
	if err != nil {
		return nil, err
	}
	hourlyRecords, err := s.readFile(hourlySummaryFile)
	if err != nil {
		return nil, err
	}

	snap := &model.Snapshot{}
	snap.Districts, err = parseDistrictRows(districtRecords)
	if err != nil {
		return nil, err
	}
	snap.Hourly, err = parseHourlyRows(hourlyRecords)
	if err != nil {
		return nil, err
	}

	// The run metadata file is optional; summaries written by older
	// pipelines predate it.
	if runRecords, err := s.readFile(pipelineRunFile); err == nil {
		if err := parseRunRow(runRecords, snap); err != nil {
			return nil, err
		}
	}

	metrics.RecordStoreLoadLatency(float64(time.Since(start).Milliseconds()))
	s.logger.Debug(ctx, "snapshot loaded",
		logger.String("run_id", snap.RunID),
		logger.Int("districts", len(snap.Districts)))
	return snap, nil
}

// writeFile writes header+rows to a temp file and renames it into place.
func (s *CSVStore) writeFile(name string, header []string, rows [][]string) error {
	tmp, err := os.CreateTemp(s.dir, "."+name+"-*")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", name, err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.WriteString(utf8BOM); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write BOM to %s: %w", name, err)
	}
	w := csv.NewWriter(tmp)
	if err := w.Write(header); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write header to %s: %w", name, err)
	}
	if err := w.WriteAll(rows); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write rows to %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp for %s: %w", name, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod %s: %w", name, err)
	}
	if err := os.Rename(tmpName, filepath.Join(s.dir, name)); err != nil {
		return fmt.Errorf("rename %s into place: %w", name, err)
	}
	return nil
}

// readFile reads all CSV records of one table, stripping the BOM.
func (s *CSVStore) readFile(name string) ([][]string, error) {
	path := filepath.Join(s.dir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s missing", ErrSummaryNotAvailable, name)
		}
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	content := strings.TrimPrefix(string(data), utf8BOM)
	records, err := csv.NewReader(strings.NewReader(content)).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptSummary, name, err)
	}
	return records, nil
}

func districtRows(entries []model.DistrictRiskEntry) [][]string {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		population, rate := "", ""
		if e.PopulationKnown {
			population = strconv.Itoa(e.Population)
			rate = formatFloat(e.CasesPer10k)
		}
		rows = append(rows, []string{
			e.District,
			strconv.Itoa(e.TotalCases),
			population,
			rate,
			formatFloat(e.DaytimeRatio),
			formatFloat(e.NightRatio),
			string(e.RiskLevel),
		})
	}
	return rows
}

func hourlyRows(entries []model.HourlyRiskEntry) [][]string {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			e.District,
			strconv.Itoa(e.Hour),
			strconv.Itoa(e.HourCases),
			formatFloat(e.HourRatio),
			formatFloat(e.HourRiskScore),
		})
	}
	return rows
}

func runRow(snap *model.Snapshot) []string {
	return []string{
		snap.RunID,
		snap.GeneratedAt.UTC().Format(time.RFC3339),
		strconv.Itoa(snap.Audit.Total),
		strconv.Itoa(snap.Audit.Valid),
		strconv.Itoa(snap.Audit.Invalid),
		strconv.Itoa(snap.Audit.InvalidDate),
		strconv.Itoa(snap.Audit.InvalidHour),
		strconv.Itoa(snap.Audit.MissingLocation),
	}
}

func parseDistrictRows(records [][]string) ([]model.DistrictRiskEntry, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s empty", ErrCorruptSummary, districtSummaryFile)
	}
	entries := make([]model.DistrictRiskEntry, 0, len(records)-1)
	for _, row := range records[1:] {
		if len(row) != len(districtHeader) {
			return nil, fmt.Errorf("%w: %s row width", ErrCorruptSummary, districtSummaryFile)
		}
		e := model.DistrictRiskEntry{District: row[0], RiskLevel: model.RiskLevel(row[6])}
		var err error
		if e.TotalCases, err = strconv.Atoi(row[1]); err != nil {
			return nil, fmt.Errorf("%w: total_cases: %v", ErrCorruptSummary, err)
		}
		if row[2] != "" {
			if e.Population, err = strconv.Atoi(row[2]); err != nil {
				return nil, fmt.Errorf("%w: population: %v", ErrCorruptSummary, err)
			}
			e.PopulationKnown = true
			if e.CasesPer10k, err = strconv.ParseFloat(row[3], 64); err != nil {
				return nil, fmt.Errorf("%w: cases_per_10k_pop: %v", ErrCorruptSummary, err)
			}
		}
		if e.DaytimeRatio, err = strconv.ParseFloat(row[4], 64); err != nil {
			return nil, fmt.Errorf("%w: daytime_cases_ratio: %v", ErrCorruptSummary, err)
		}
		if e.NightRatio, err = strconv.ParseFloat(row[5], 64); err != nil {
			return nil, fmt.Errorf("%w: night_cases_ratio: %v", ErrCorruptSummary, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func parseHourlyRows(records [][]string) ([]model.HourlyRiskEntry, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s empty", ErrCorruptSummary, hourlySummaryFile)
	}
	entries := make([]model.HourlyRiskEntry, 0, len(records)-1)
	for _, row := range records[1:] {
		if len(row) != len(hourlyHeader) {
			return nil, fmt.Errorf("%w: %s row width", ErrCorruptSummary, hourlySummaryFile)
		}
		e := model.HourlyRiskEntry{District: row[0]}
		var err error
		if e.Hour, err = strconv.Atoi(row[1]); err != nil {
			return nil, fmt.Errorf("%w: hour: %v", ErrCorruptSummary, err)
		}
		if e.HourCases, err = strconv.Atoi(row[2]); err != nil {
			return nil, fmt.Errorf("%w: hour_cases: %v", ErrCorruptSummary, err)
		}
		if e.HourRatio, err = strconv.ParseFloat(row[3], 64); err != nil {
			return nil, fmt.Errorf("%w: hour_ratio: %v", ErrCorruptSummary, err)
		}
		if e.HourRiskScore, err = strconv.ParseFloat(row[4], 64); err != nil {
			return nil, fmt.Errorf("%w: hour_risk_score: %v", ErrCorruptSummary, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func parseRunRow(records [][]string, snap *model.Snapshot) error {
	if len(records) < 2 || len(records[1]) != len(runHeader) {
		return fmt.Errorf("%w: %s shape", ErrCorruptSummary, pipelineRunFile)
	}
	row := records[1]
	snap.RunID = row[0]
	t, err := time.Parse(time.RFC3339, row[1])
	if err != nil {
		return fmt.Errorf("%w: generated_at: %v", ErrCorruptSummary, err)
	}
	snap.GeneratedAt = t
	ints := []*int{
		&snap.Audit.Total, &snap.Audit.Valid, &snap.Audit.Invalid,
		&snap.Audit.InvalidDate, &snap.Audit.InvalidHour, &snap.Audit.MissingLocation,
	}
	for i, dst := range ints {
		v, err := strconv.Atoi(row[i+2])
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrCorruptSummary, runHeader[i+2], err)
		}
		*dst = v
	}
	return nil
}

// formatFloat renders floats with the minimal digits needed for an exact
// round trip.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
