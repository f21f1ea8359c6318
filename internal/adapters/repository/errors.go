package repository

import "errors"

// Sentinel kinds for store errors.
var (
	// ErrSummaryNotAvailable means no snapshot has been written yet, or
	// its files are missing. Callers should treat this as "run the
	// pipeline first", not as an I/O failure.
	ErrSummaryNotAvailable = errors.New("risk summary not available")

	// ErrCorruptSummary means a summary file exists but does not parse.
	ErrCorruptSummary = errors.New("risk summary corrupt")

	// ErrDistrictNotFound is returned by lookups for a district absent
	// from the summary table.
	ErrDistrictNotFound = errors.New("district not found")
)
