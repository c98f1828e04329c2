package store

import "errors"

// Sentinel errors matching the store's slice of the pipeline's error
// taxonomy. Callers use errors.Is against these.
var (
	// ErrTransient is returned for recoverable I/O or lock contention;
	// InsertBatch retries internally before this ever escapes, but read
	// paths surface it directly.
	ErrTransient = errors.New("store: transient failure")

	// ErrPersistent is returned when a batch exhausted all retries and was
	// diverted to the dead-letter directory.
	ErrPersistent = errors.New("store: persistent failure, diverted to dead-letter")

	// ErrCorrupt is returned when an integrity check fails. Fatal.
	ErrCorrupt = errors.New("store: integrity check failed")

	// ErrClosed is returned by any operation issued after Close.
	ErrClosed = errors.New("store: closed")

	// ErrDimensionMismatch is returned when a vector's length doesn't match
	// the store-wide embedding dimension.
	ErrDimensionMismatch = errors.New("store: embedding dimension mismatch")

	// ErrDuplicateID is returned by ImportJSON when the same event id
	// appears more than once in the import stream.
	ErrDuplicateID = errors.New("store: duplicate event id in import")
)
