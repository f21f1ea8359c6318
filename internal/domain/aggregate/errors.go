package aggregate

import "errors"

// Sentinel kinds for aggregation errors.
var (
	// ErrNoValidRecords is returned when an aggregation is asked to run
	// over an incident set with no valid records.
	ErrNoValidRecords = errors.New("no valid incident records")
)
