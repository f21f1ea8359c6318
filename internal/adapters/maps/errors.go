package maps

import "errors"

// Sentinel kinds for maps client errors.
var (
	// ErrMissingAPIKey means the client was constructed without a key.
	ErrMissingAPIKey = errors.New("maps api key missing")

	// ErrNoResult means geocoding matched nothing.
	ErrNoResult = errors.New("no geocoding result")

	// ErrNoRoute means the directions service found no route.
	ErrNoRoute = errors.New("no route found")

	// ErrUpstream wraps a non-retryable upstream failure.
	ErrUpstream = errors.New("maps upstream error")
)
