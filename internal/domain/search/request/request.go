// Package request defines the validated search request.
package request

import (
	"fmt"
	"strings"

	"github.com/cinesense/reelrank/internal/domain"
	"github.com/cinesense/reelrank/internal/domain/search/filter"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed search query length.
	MaxQueryLength = 500
	DefaultLimit   = 12
	MaxLimit       = 50
)

// Request is a validated search query. An empty query is legal and routes
// the pipeline straight to the cold-start fallback.
type Request struct {
	query    string
	limit    int
	criteria filter.Criteria
}

// New validates and normalizes search parameters.
// The query is trimmed; limit must be positive and is clamped to MaxLimit.
func New(query string, limit int, crit filter.Criteria) (Request, error) {
	query = strings.TrimSpace(query)
	if len(query) > MaxQueryLength {
		return Request{}, fmt.Errorf("%w: query too long (max %d chars)", domain.ErrInvalidQuery, MaxQueryLength)
	}
	if limit <= 0 {
		return Request{}, fmt.Errorf("%w: limit must be positive, got %d", domain.ErrInvalidLimit, limit)
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	return Request{query: query, limit: limit, criteria: crit}, nil
}

// Query returns the trimmed search query text.
func (r Request) Query() string { return r.query }

// Limit returns the maximum results to return.
func (r Request) Limit() int { return r.limit }

// Criteria returns the metadata filter criteria, possibly empty.
func (r Request) Criteria() filter.Criteria { return r.criteria }

// Empty reports whether the query is blank, i.e. the cold-start path applies.
func (r Request) Empty() bool { return r.query == "" }
