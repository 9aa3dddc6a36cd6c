// Package ingest embeds movie reviews and loads them into the vector index.
package ingest

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/cinesense/reelrank/internal/domain/review"
	"github.com/cinesense/reelrank/internal/normalize"
	"github.com/cinesense/reelrank/internal/repository/index"
)

const defaultBatchSize = 64

// Stats summarizes one ingest run.
type Stats struct {
	Indexed int
	Skipped int
	Tokens  int
}

// Service embeds reviews and upserts one vector point per review.
type Service struct {
	embed     Embedder
	index     Index
	batchSize int
	logger    *zap.Logger
}

// New creates an ingest service.
func New(embed Embedder, idx Index, logger *zap.Logger) *Service {
	return &Service{embed: embed, index: idx, batchSize: defaultBatchSize, logger: logger}
}

// WithBatchSize overrides the embedding batch size.
func (s *Service) WithBatchSize(n int) *Service {
	if n > 0 {
		s.batchSize = n
	}
	return s
}

// EnsureIndex creates the review index if missing.
func (s *Service) EnsureIndex(ctx context.Context, dimensions int, params index.HNSWParams) error {
	if err := s.index.EnsureIndex(ctx, dimensions, params); err != nil {
		return fmt.Errorf("ensure review index: %w", err)
	}
	return nil
}

// IndexReviews cleans, embeds, and upserts the given reviews for one movie.
// The movie's release year is denormalized onto every point so the index can
// pre-filter by year. Reviews whose content is empty after cleaning are
// skipped, not fatal.
func (s *Service) IndexReviews(ctx context.Context, year int, reviews []review.Review) (Stats, error) {
	var stats Stats

	pending := make([]review.Review, 0, s.batchSize)
	texts := make([]string, 0, s.batchSize)

	flush := func() error {
		if len(pending) == 0 {
			return nil
		}

		res, err := s.embed.BatchEmbed(ctx, texts)
		if err != nil {
			return fmt.Errorf("embed %d reviews: %w", len(texts), err)
		}
		stats.Tokens += res.TotalTokens

		points := make([]index.ReviewPoint, len(pending))
		for i, r := range pending {
			points[i] = index.ReviewPoint{
				ReviewID: r.ID(),
				MovieID:  r.MovieID(),
				Rating:   r.Rating(),
				Year:     year,
				Vector:   res.Embeddings[i],
			}
		}

		if err := s.index.UpsertReviews(ctx, points); err != nil {
			return fmt.Errorf("upsert reviews: %w", err)
		}

		stats.Indexed += len(points)
		pending = pending[:0]
		texts = texts[:0]
		return nil
	}

	for _, r := range reviews {
		clean := normalize.CleanText(r.Content())
		if clean == "" {
			stats.Skipped++
			continue
		}

		pending = append(pending, r)
		texts = append(texts, clean)

		if len(pending) >= s.batchSize {
			if err := flush(); err != nil {
				return stats, err
			}
		}
	}

	if err := flush(); err != nil {
		return stats, err
	}

	s.logger.Info("Review ingest complete",
		zap.Int("indexed", stats.Indexed),
		zap.Int("skipped", stats.Skipped),
		zap.Int("tokens", stats.Tokens),
	)

	return stats, nil
}
