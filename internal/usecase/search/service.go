// Package search orchestrates the query → retrieve → rank pipeline.
package search

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/cinesense/reelrank/internal/domain"
	"github.com/cinesense/reelrank/internal/domain/search/hit"
	"github.com/cinesense/reelrank/internal/domain/search/ranked"
	"github.com/cinesense/reelrank/internal/domain/search/request"
	"github.com/cinesense/reelrank/internal/logger"
	"github.com/cinesense/reelrank/internal/metrics"
	"github.com/cinesense/reelrank/internal/normalize"
)

// Fallback reasons recorded in Meta and metrics.
const (
	ReasonEmptyQuery           = "empty_query"
	ReasonNoHits               = "no_hits"
	ReasonEmbeddingUnavailable = "embedding_unavailable"
	ReasonIndexUnavailable     = "index_unavailable"
)

// Meta describes how a search was answered.
type Meta struct {
	Fallback bool
	Reason   string // set when Fallback is true
}

// Service composes the query vectorizer, semantic retriever, catalog, and
// ranker behind a single Search entry point. Upstream failures degrade to the
// cold-start fallback unless fallback is disabled.
type Service struct {
	embed     Embedder
	retriever Retriever
	catalog   Catalog
	ranker    *Ranker

	candidateMultiplier int
	maxTopK             int
	disableFallback     bool
}

// New creates a search service with default retrieval bounds.
func New(embed Embedder, retriever Retriever, catalog Catalog, ranker *Ranker) *Service {
	return &Service{
		embed:               embed,
		retriever:           retriever,
		catalog:             catalog,
		ranker:              ranker,
		candidateMultiplier: 3,
		maxTopK:             200,
	}
}

// WithRetrievalBounds overrides the candidate multiplier and topK cap.
func (s *Service) WithRetrievalBounds(multiplier, maxTopK int) *Service {
	if multiplier > 0 {
		s.candidateMultiplier = multiplier
	}
	if maxTopK > 0 {
		s.maxTopK = maxTopK
	}
	return s
}

// WithFallbackDisabled makes upstream failures surface as errors instead of
// degrading to the cold-start list. Empty queries and empty result sets still
// use the cold-start list: those are valid outcomes, not failures.
func (s *Service) WithFallbackDisabled(disabled bool) *Service {
	s.disableFallback = disabled
	return s
}

// Search runs the full pipeline for a validated request.
func (s *Service) Search(ctx context.Context, req *request.Request) ([]ranked.Result, Meta, error) {
	log := logger.FromContext(ctx)

	// Queries go through the same preprocessing as indexed review text,
	// otherwise identical words embed to different points.
	query := normalize.CleanText(req.Query())
	if query == "" {
		return s.fallback(ctx, req.Limit(), ReasonEmptyQuery, nil)
	}

	embResult, err := s.embed.Embed(ctx, query)
	if err != nil {
		log.Warn("Query embedding failed, using cold-start fallback", zap.Error(err))
		return s.fallback(ctx, req.Limit(), ReasonEmbeddingUnavailable, err)
	}

	topK := req.Limit() * s.candidateMultiplier
	if topK > s.maxTopK {
		topK = s.maxTopK
	}

	crit := req.Criteria()

	hits, err := s.retriever.TopReviews(ctx, embResult.Embedding, topK, crit)
	if err != nil {
		log.Warn("Vector retrieval failed, using cold-start fallback", zap.Error(err))
		return s.fallback(ctx, req.Limit(), ReasonIndexUnavailable, err)
	}

	if len(hits) == 0 {
		// A filtered search that matches nothing is an answer, not a cold
		// start: the fallback list would ignore the caller's filters.
		if !crit.IsEmpty() {
			metrics.SearchRequestsTotal.WithLabelValues("ranked").Inc()
			metrics.SearchResultCount.Observe(0)
			return []ranked.Result{}, Meta{}, nil
		}
		return s.fallback(ctx, req.Limit(), ReasonNoHits, nil)
	}

	movies, err := s.catalog.MoviesByIDs(ctx, movieIDs(hits))
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues("error").Inc()
		return nil, Meta{}, fmt.Errorf("resolve movies: %w", err)
	}

	// Genres live on the movie record, not the vector point, so they are
	// filtered after catalog resolution rather than inside the index.
	for id, m := range movies {
		if !crit.MatchesGenres(m.Genres()) {
			delete(movies, id)
		}
	}

	results, err := s.ranker.Rank(hits, movies, req.Limit())
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues("error").Inc()
		return nil, Meta{}, err
	}

	// Every hit may point at a movie missing from the catalog.
	if len(results) == 0 {
		if !crit.IsEmpty() {
			metrics.SearchRequestsTotal.WithLabelValues("ranked").Inc()
			metrics.SearchResultCount.Observe(0)
			return []ranked.Result{}, Meta{}, nil
		}
		return s.fallback(ctx, req.Limit(), ReasonNoHits, nil)
	}

	metrics.SearchRequestsTotal.WithLabelValues("ranked").Inc()
	metrics.SearchResultCount.Observe(float64(len(results)))

	return results, Meta{}, nil
}

// fallback answers with the catalog default candidates. cause is non-nil only
// for upstream failures; those are the cases fallback disabling applies to.
func (s *Service) fallback(
	ctx context.Context, limit int, reason string, cause error,
) ([]ranked.Result, Meta, error) {
	if cause != nil && s.disableFallback {
		metrics.SearchRequestsTotal.WithLabelValues("error").Inc()
		return nil, Meta{}, fmt.Errorf("%w: %w", domain.ErrFallbackDisabled, cause)
	}

	candidates, err := s.catalog.DefaultCandidates(ctx, limit)
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues("error").Inc()
		return nil, Meta{}, fmt.Errorf("default candidates: %w", err)
	}

	metrics.SearchRequestsTotal.WithLabelValues("fallback").Inc()
	metrics.SearchFallbackTotal.WithLabelValues(reason).Inc()

	results := s.ranker.Decorate(candidates, limit)
	metrics.SearchResultCount.Observe(float64(len(results)))

	return results, Meta{Fallback: true, Reason: reason}, nil
}

// movieIDs returns unique movie ids in first-seen order.
func movieIDs(hits []hit.ReviewHit) []string {
	seen := make(map[string]struct{}, len(hits))
	ids := make([]string, 0, len(hits))
	for _, h := range hits {
		if _, ok := seen[h.MovieID()]; ok {
			continue
		}
		seen[h.MovieID()] = struct{}{}
		ids = append(ids, h.MovieID())
	}
	return ids
}
