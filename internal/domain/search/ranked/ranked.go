// Package ranked defines per-movie aggregates and final ranked results.
package ranked

import (
	"github.com/cinesense/reelrank/internal/domain/movie"
	"github.com/cinesense/reelrank/internal/domain/search/hit"
)

// Aggregate groups the review hits contributing to one movie, with the
// derived semantic relevance score. Hits are ordered by descending
// similarity, ties broken by review identifier.
type Aggregate struct {
	movieID  string
	hits     []hit.ReviewHit
	semantic float64
}

// NewAggregate creates a per-movie aggregate.
func NewAggregate(movieID string, hits []hit.ReviewHit, semantic float64) Aggregate {
	return Aggregate{movieID: movieID, hits: hits, semantic: semantic}
}

// MovieID returns the movie identifier.
func (a Aggregate) MovieID() string { return a.movieID }

// Hits returns the contributing review hits.
func (a Aggregate) Hits() []hit.ReviewHit { return a.hits }

// Semantic returns the aggregate semantic relevance score.
func (a Aggregate) Semantic() float64 { return a.semantic }

// Result is a movie with its blended score and 1-based rank position.
type Result struct {
	movie      movie.Movie
	semantic   float64
	rating     float64
	popularity float64
	blended    float64
	position   int
}

// NewResult creates a ranked result. Component scores are the normalized
// [0, 1] inputs to the blend, recorded for transparency in responses.
func NewResult(m movie.Movie, semantic, rating, popularity, blended float64, position int) Result {
	return Result{
		movie:      m,
		semantic:   semantic,
		rating:     rating,
		popularity: popularity,
		blended:    blended,
		position:   position,
	}
}

// Movie returns the catalog movie.
func (r Result) Movie() movie.Movie { return r.movie }

// Semantic returns the semantic score component.
func (r Result) Semantic() float64 { return r.semantic }

// RatingScore returns the normalized rating component.
func (r Result) RatingScore() float64 { return r.rating }

// PopularityScore returns the normalized popularity component.
func (r Result) PopularityScore() float64 { return r.popularity }

// Blended returns the final blended score.
func (r Result) Blended() float64 { return r.blended }

// Position returns the 1-based rank position.
func (r Result) Position() int { return r.position }
