package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/safetaichung/saferoute/internal/domain/model"
	"github.com/safetaichung/saferoute/internal/domain/normalize"
	"github.com/safetaichung/saferoute/pkg/logger"
)

// SourceFile is one raw incident file with its known category.
type SourceFile struct {
	Path     string
	Category model.Category
}

// DiscoverSources scans rawDir for files named <category>_<year>.csv or
// .xlsx for the known categories. The result is sorted by path for
// deterministic pipeline runs.
func DiscoverSources(rawDir string) ([]SourceFile, error) {
	entries, err := os.ReadDir(rawDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrMissingResource, rawDir)
		}
		return nil, fmt.Errorf("scan %s: %w", rawDir, err)
	}

	var sources []SourceFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if ext != ".csv" && ext != ".xlsx" {
			continue
		}
		for _, category := range model.Categories() {
			if strings.HasPrefix(name, string(category)+"_") {
				sources = append(sources, SourceFile{
					Path:     filepath.Join(rawDir, name),
					Category: category,
				})
				break
			}
		}
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoSources, rawDir)
	}
	sort.Slice(sources, func(i, j int) bool { return sources[i].Path < sources[j].Path })
	return sources, nil
}

// Loader decodes raw files concurrently and normalizes their rows.
type Loader struct {
	workers int
	logger  logger.Logger
}

// LoaderOption applies a configuration option to the Loader.
type LoaderOption func(*Loader)

// WithWorkers bounds concurrent per-file decoding.
func WithWorkers(n int) LoaderOption {
	return func(l *Loader) {
		if n > 0 {
			l.workers = n
		}
	}
}

// WithLogger sets a custom logger for the loader.
func WithLogger(lg logger.Logger) LoaderOption {
	return func(l *Loader) {
		if lg != nil {
			l.logger = lg
		}
	}
}

// NewLoader creates a loader with configuration options.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{
		workers: runtime.NumCPU(),
		logger:  logger.Get().Named("ingest"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// fileResult carries one decoded file back to the collector.
type fileResult struct {
	index   int
	records []model.IncidentRecord
	err     error
}

// Load reads and normalizes every source file. Files decode concurrently
// under the worker bound; the returned records preserve file order so
// runs are deterministic. Normalization never fails a row; malformed
// rows come back as invalid records counted in the audit.
func (l *Loader) Load(ctx context.Context, sources []SourceFile) ([]model.IncidentRecord, model.AuditCounts, error) {
	if len(sources) == 0 {
		return nil, model.AuditCounts{}, ErrNoSources
	}

	jobs := make(chan int)
	results := make(chan fileResult, len(sources))

	workers := l.workers
	if workers > len(sources) {
		workers = len(sources)
	}
	for w := 0; w < workers; w++ {
		go func() {
			for idx := range jobs {
				records, err := l.loadOne(sources[idx])
				select {
				case results <- fileResult{index: idx, records: records, err: err}:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i := range sources {
			select {
			case jobs <- i:
			case <-ctx.Done():
				return
			}
		}
	}()

	perFile := make([][]model.IncidentRecord, len(sources))
	for range sources {
		select {
		case <-ctx.Done():
			return nil, model.AuditCounts{}, fmt.Errorf("ingest cancelled: %w", ctx.Err())
		case res := <-results:
			if res.err != nil {
				return nil, model.AuditCounts{}, res.err
			}
			perFile[res.index] = res.records
		}
	}

	var all []model.IncidentRecord
	var audit model.AuditCounts
	for _, records := range perFile {
		for _, r := range records {
			all = append(all, r)
			audit.Total++
			if r.Valid {
				audit.Valid++
				continue
			}
			audit.Invalid++
			if r.OccurredAt.IsZero() {
				audit.InvalidDate++
			}
			if r.Hour == model.HourUnknown {
				audit.InvalidHour++
			}
			if r.District == model.DistrictUnknown {
				audit.MissingLocation++
			}
		}
	}

	l.logger.Info(ctx, "raw sources loaded",
		logger.Int("files", len(sources)),
		logger.Int("total", audit.Total),
		logger.Int("valid", audit.Valid),
		logger.Int("invalid", audit.Invalid))
	return all, audit, nil
}

// loadOne decodes and normalizes a single raw file.
func (l *Loader) loadOne(src SourceFile) ([]model.IncidentRecord, error) {
	raws, err := ReadRawFile(src.Path)
	if err != nil {
		return nil, err
	}
	records := make([]model.IncidentRecord, 0, len(raws))
	for _, raw := range raws {
		records = append(records, normalize.Record(raw, src.Category))
	}
	return records, nil
}
