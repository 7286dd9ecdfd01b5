package domain

import "errors"

// Sentinel errors - use with errors.Is()
var (
	// ErrValidation indicates invalid input; the request never reaches the upstream API.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound indicates a resource was not found.
	ErrNotFound = errors.New("not found")

	// ErrBadPrompt indicates the upstream generation API rejected the request (400).
	ErrBadPrompt = errors.New("bad request")

	// ErrRateLimited indicates the upstream generation API throttled the request (429).
	ErrRateLimited = errors.New("rate limited")

	// ErrUpstream covers every other upstream failure: unexpected status codes and
	// transport-level errors (DNS, timeout, connection reset). Callers never observe
	// a raw transport error.
	ErrUpstream = errors.New("upstream failure")
)
