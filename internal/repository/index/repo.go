// Package index adapts the vector store to the semantic retriever contract.
package index

import (
	"context"
	"fmt"
	"strings"

	"github.com/cinesense/reelrank/internal/db"
	"github.com/cinesense/reelrank/internal/domain"
	"github.com/cinesense/reelrank/internal/domain/search/filter"
	"github.com/cinesense/reelrank/internal/domain/search/hit"
)

// store is the consumer interface for retrieval operations.
type store interface {
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
}

// Repo implements usecase/search.Retriever over a vector store.
type Repo struct {
	store      store
	collection string
	minScore   float64
}

// New creates an index repository for the given review collection.
// Hits scoring below minScore are discarded at this boundary.
func New(s store, collection string, minScore float64) *Repo {
	return &Repo{store: s, collection: collection, minScore: minScore}
}

// IndexName returns the FT index name for the collection.
func (r *Repo) IndexName() string {
	return fmt.Sprintf("%s%s:idx", domain.KeyPrefix, r.collection)
}

// KeyPrefix returns the hash key prefix for review vector points.
func (r *Repo) KeyPrefix() string {
	return fmt.Sprintf("%s%s:", domain.KeyPrefix, r.collection)
}

// TopReviews returns up to topK review hits for the query vector, ordered by
// descending similarity. Year and rating criteria are pushed into the index
// as pre-filters. An empty result is a valid no-matches outcome.
func (r *Repo) TopReviews(ctx context.Context, vector []float32, topK int, crit filter.Criteria) ([]hit.ReviewHit, error) {
	q := &db.KNNQuery{
		IndexName:    r.IndexName(),
		Vector:       vector,
		K:            topK,
		Filters:      crit.IndexConditions(),
		ReturnFields: []string{"movie_id", "__vector_score"},
	}

	sr, err := r.store.SearchKNN(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("%w: search knn %s: %w", domain.ErrIndexUnavailable, r.collection, err)
	}

	return r.parseHits(sr), nil
}

// parseHits converts db.SearchResult into review hits, dropping entries
// without a movie_id field and entries below the similarity floor.
func (r *Repo) parseHits(sr *db.SearchResult) []hit.ReviewHit {
	if sr == nil || sr.Total == 0 {
		return nil
	}

	prefix := r.KeyPrefix()
	hits := make([]hit.ReviewHit, 0, len(sr.Entries))

	for _, entry := range sr.Entries {
		movieID := entry.Fields["movie_id"]
		if movieID == "" {
			continue
		}
		if entry.Score < r.minScore {
			continue
		}
		reviewID := strings.TrimPrefix(entry.Key, prefix)
		hits = append(hits, hit.New(reviewID, movieID, entry.Score))
	}

	return hits
}
