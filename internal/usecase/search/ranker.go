package search

import (
	"fmt"
	"sort"

	"github.com/cinesense/reelrank/internal/domain"
	"github.com/cinesense/reelrank/internal/domain/movie"
	"github.com/cinesense/reelrank/internal/domain/search/hit"
	"github.com/cinesense/reelrank/internal/domain/search/ranked"
)

// Weights are the blend coefficients for the final score. They must sum to 1
// (enforced by config validation, not re-checked here).
type Weights struct {
	Semantic   float64
	Rating     float64
	Popularity float64
}

// DefaultWeights returns the documented default blend: 0.7 semantic,
// 0.2 rating, 0.1 popularity.
func DefaultWeights() Weights {
	return Weights{Semantic: 0.7, Rating: 0.2, Popularity: 0.1}
}

// Ranker turns review hits plus movie metadata into a final ranked list.
// Pure computation: no I/O, deterministic for a given input.
//
// Per-movie semantic score: the group's best similarity plus a diminishing
// bonus for every further hit at or above bonusThreshold:
//
//	semantic = best + Σ bonusWeight * s_i / 2^i   (i = 1..n-1, s_i >= threshold)
//
// capped at 1. A movie with a single strong match therefore beats a movie
// with many weak ones: three hits 0.81/0.77/0.60 at the default
// bonusWeight 0.15 aggregate to 0.81 + 0.0578 + 0.0225 = 0.890, still below
// a lone 0.90 hit.
//
// Final score: weights.Semantic*semantic + weights.Rating*(rating/10) +
// weights.Popularity*(pop/(pop+popularityPivot)).
type Ranker struct {
	weights         Weights
	bonusWeight     float64
	bonusThreshold  float64
	popularityPivot float64
}

// NewRanker creates a ranker with the given blend weights and aggregation knobs.
func NewRanker(weights Weights, bonusWeight, bonusThreshold, popularityPivot float64) *Ranker {
	if bonusWeight <= 0 {
		bonusWeight = 0.15
	}
	if bonusThreshold <= 0 {
		bonusThreshold = 0.5
	}
	if popularityPivot <= 0 {
		popularityPivot = 50
	}
	return &Ranker{
		weights:         weights,
		bonusWeight:     bonusWeight,
		bonusThreshold:  bonusThreshold,
		popularityPivot: popularityPivot,
	}
}

// Rank groups hits by movie, aggregates per-movie semantic scores, blends in
// metadata signals, and returns up to limit results sorted by blended score
// descending with a deterministic movie-id tie-break. Hits whose movie is
// absent from movies are dropped.
func (r *Ranker) Rank(
	hits []hit.ReviewHit, movies map[string]movie.Movie, limit int,
) ([]ranked.Result, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive, got %d", domain.ErrInvalidLimit, limit)
	}

	aggregates := r.Aggregate(hits)

	results := make([]ranked.Result, 0, len(aggregates))
	for _, agg := range aggregates {
		m, ok := movies[agg.MovieID()]
		if !ok {
			continue
		}
		results = append(results, r.score(m, agg.Semantic()))
	}

	sort.Slice(results, func(i, j int) bool {
		bi, bj := results[i].Blended(), results[j].Blended()
		if bi != bj {
			return bi > bj
		}
		return results[i].Movie().ID() < results[j].Movie().ID()
	})

	if len(results) > limit {
		results = results[:limit]
	}

	return withPositions(results), nil
}

// Aggregate partitions hits by movie and computes the per-movie semantic
// score. Output is ordered by movie id for determinism.
func (r *Ranker) Aggregate(hits []hit.ReviewHit) []ranked.Aggregate {
	groups := make(map[string][]hit.ReviewHit)
	for _, h := range hits {
		groups[h.MovieID()] = append(groups[h.MovieID()], h)
	}

	ids := make([]string, 0, len(groups))
	for id := range groups {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	aggregates := make([]ranked.Aggregate, 0, len(ids))
	for _, id := range ids {
		group := groups[id]
		sort.Slice(group, func(i, j int) bool {
			if group[i].Score() != group[j].Score() {
				return group[i].Score() > group[j].Score()
			}
			return group[i].ReviewID() < group[j].ReviewID()
		})
		aggregates = append(aggregates, ranked.NewAggregate(id, group, r.semanticScore(group)))
	}

	return aggregates
}

// semanticScore implements best-plus-diminishing-bonus over a group sorted
// by descending similarity.
func (r *Ranker) semanticScore(group []hit.ReviewHit) float64 {
	if len(group) == 0 {
		return 0
	}

	score := group[0].Score()
	divisor := 2.0
	for _, h := range group[1:] {
		if h.Score() >= r.bonusThreshold {
			score += r.bonusWeight * h.Score() / divisor
		}
		divisor *= 2
	}

	if score > 1 {
		score = 1
	}
	return score
}

// Decorate builds cold-start results: semantic component zero, metadata blend
// applied, positions following the candidate order (the catalog already
// returns candidates most-popular first).
func (r *Ranker) Decorate(candidates []movie.Movie, limit int) []ranked.Result {
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	results := make([]ranked.Result, 0, len(candidates))
	for _, m := range candidates {
		results = append(results, r.score(m, 0))
	}
	return withPositions(results)
}

func (r *Ranker) score(m movie.Movie, semantic float64) ranked.Result {
	ratingScore := m.Rating() / 10
	popScore := m.Popularity() / (m.Popularity() + r.popularityPivot)

	blended := r.weights.Semantic*semantic +
		r.weights.Rating*ratingScore +
		r.weights.Popularity*popScore

	return ranked.NewResult(m, semantic, ratingScore, popScore, blended, 0)
}

func withPositions(results []ranked.Result) []ranked.Result {
	for i, res := range results {
		results[i] = ranked.NewResult(
			res.Movie(), res.Semantic(), res.RatingScore(),
			res.PopularityScore(), res.Blended(), i+1,
		)
	}
	return results
}
