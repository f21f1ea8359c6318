package ingest

import "errors"

// Sentinel kinds for ingestion errors.
var (
	// ErrMissingResource means a required input file or directory is
	// absent. Fatal for the pipeline step that needed it.
	ErrMissingResource = errors.New("input resource missing")

	// ErrBadHeader means a tabular input lacks the expected columns.
	ErrBadHeader = errors.New("unrecognized input header")

	// ErrNoSources means the raw directory holds no incident files.
	ErrNoSources = errors.New("no raw incident files found")
)
