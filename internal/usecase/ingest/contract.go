package ingest

import (
	"context"

	"github.com/cinesense/reelrank/internal/domain"
	"github.com/cinesense/reelrank/internal/repository/index"
)

// Embedder vectorizes review texts in batches.
type Embedder interface {
	BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error)
}

// Index writes review vector points and maintains the FT index schema.
type Index interface {
	EnsureIndex(ctx context.Context, dimensions int, params index.HNSWParams) error
	UpsertReviews(ctx context.Context, points []index.ReviewPoint) error
}
