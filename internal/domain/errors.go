package domain

import "errors"

var (
	// ErrInvalidQuery signals a query that is empty after trimming.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrInvalidLimit signals a non-positive result limit.
	ErrInvalidLimit = errors.New("invalid limit")
	// ErrInvalidFilter signals inconsistent metadata filter criteria.
	ErrInvalidFilter = errors.New("invalid filter")
	// ErrMovieNotFound signals a missing movie in the catalog.
	ErrMovieNotFound = errors.New("movie not found")
	// ErrEmbeddingUnavailable signals an embedding provider failure or timeout.
	ErrEmbeddingUnavailable = errors.New("embedding provider unavailable")
	// ErrIndexUnavailable signals a vector index failure or timeout.
	ErrIndexUnavailable = errors.New("vector index unavailable")
	// ErrFallbackDisabled signals an upstream failure while cold-start fallback is turned off.
	ErrFallbackDisabled = errors.New("fallback disabled")
	// ErrRateLimited signals a rate limit hit.
	ErrRateLimited = errors.New("rate limited")
)
