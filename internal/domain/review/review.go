// Package review defines the review entity used by the ingest pipeline.
package review

import "fmt"

// Review is a single movie review to be embedded and indexed.
type Review struct {
	id      string
	movieID string
	content string
	rating  float64
}

// New validates and creates a Review.
func New(id, movieID, content string, rating float64) (Review, error) {
	if id == "" {
		return Review{}, fmt.Errorf("review id is required")
	}
	if movieID == "" {
		return Review{}, fmt.Errorf("review movie id is required")
	}
	if content == "" {
		return Review{}, fmt.Errorf("review content is required")
	}
	if rating < 0 || rating > 10 {
		return Review{}, fmt.Errorf("rating must be in [0, 10], got %g", rating)
	}
	return Review{id: id, movieID: movieID, content: content, rating: rating}, nil
}

// Reconstruct creates a Review without validation (storage hydration).
func Reconstruct(id, movieID, content string, rating float64) Review {
	return Review{id: id, movieID: movieID, content: content, rating: rating}
}

// ID returns the review identifier.
func (r Review) ID() string { return r.id }

// MovieID returns the owning movie identifier.
func (r Review) MovieID() string { return r.movieID }

// Content returns the review text.
func (r Review) Content() string { return r.content }

// Rating returns the reviewer rating on the 0-10 scale.
func (r Review) Rating() float64 { return r.rating }
