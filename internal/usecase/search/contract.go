package search

import (
	"context"

	"github.com/cinesense/reelrank/internal/domain"
	"github.com/cinesense/reelrank/internal/domain/movie"
	"github.com/cinesense/reelrank/internal/domain/search/filter"
	"github.com/cinesense/reelrank/internal/domain/search/hit"
)

// Embedder vectorizes query text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Retriever runs nearest-neighbor lookups against the review vector index.
type Retriever interface {
	TopReviews(ctx context.Context, vector []float32, topK int, crit filter.Criteria) ([]hit.ReviewHit, error)
}

// Catalog reads movie metadata from the relational store.
type Catalog interface {
	MoviesByIDs(ctx context.Context, ids []string) (map[string]movie.Movie, error)
	DefaultCandidates(ctx context.Context, limit int) ([]movie.Movie, error)
}
