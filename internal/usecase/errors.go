package usecase

import "errors"

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrDependencyUnavailable = errors.New("dependency unavailable")

	// ErrRefreshFailed is returned only when not a single competition
	// produced a successful matches fetch in a refresh cycle.
	ErrRefreshFailed = errors.New("refresh cycle failed")

	// ErrRefreshInProgress rejects a cycle start while another cycle is
	// still running. Cycles are the sole writer of cache and store and
	// must never overlap.
	ErrRefreshInProgress = errors.New("refresh cycle already in progress")

	// ErrUpstreamTransient marks connection and timeout failures that
	// the upstream client retries once before giving up.
	ErrUpstreamTransient = errors.New("transient upstream failure")
)

func IsTransient(err error) bool {
	return errors.Is(err, ErrUpstreamTransient)
}
