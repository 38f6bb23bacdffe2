package analysis

import "errors"

var (
	// ErrEmptyInput means no ticket resolved for analysis; no run is created.
	ErrEmptyInput = errors.New("no tickets to analyze")

	// ErrNotFound means the requested run does not exist.
	ErrNotFound = errors.New("analysis run not found")

	// ErrStoreFailure wraps persistence errors that aborted a run.
	ErrStoreFailure = errors.New("analysis store failure")
)
