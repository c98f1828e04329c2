package search

import "errors"

var (
	// ErrInvalidQuery is returned for an empty or malformed query string.
	ErrInvalidQuery = errors.New("search: invalid query")

	// ErrSearchUnavailable is returned when every requested mode failed.
	ErrSearchUnavailable = errors.New("search: unavailable")

	// ErrWeightsZero is returned when a hybrid query supplies w_t=w_s=0.
	ErrWeightsZero = errors.New("search: hybrid weights cannot both be zero")
)
