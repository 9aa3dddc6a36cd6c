// Package hit defines a single nearest-neighbor review match.
package hit

// ReviewHit is one review vector returned by the index for a query vector.
// Score is the cosine similarity in [0, 1] as normalized by the db layer.
type ReviewHit struct {
	reviewID string
	movieID  string
	score    float64
}

// New creates a ReviewHit.
func New(reviewID, movieID string, score float64) ReviewHit {
	return ReviewHit{reviewID: reviewID, movieID: movieID, score: score}
}

// ReviewID returns the review identifier.
func (h ReviewHit) ReviewID() string { return h.reviewID }

// MovieID returns the owning movie identifier.
func (h ReviewHit) MovieID() string { return h.movieID }

// Score returns the raw similarity score.
func (h ReviewHit) Score() float64 { return h.score }
