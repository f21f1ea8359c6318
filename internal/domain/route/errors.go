package route

import "errors"

// Sentinel kinds for route composition errors.
var (
	// ErrEmptyRoute is returned for a route with zero districts. The mean
	// over an empty segment list is undefined, so the composer rejects it
	// instead of producing NaN.
	ErrEmptyRoute = errors.New("route has no districts")

	// ErrInvalidHour is returned when the departure hour is outside [0,23].
	ErrInvalidHour = errors.New("departure hour out of range")
)
