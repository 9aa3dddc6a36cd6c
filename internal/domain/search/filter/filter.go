// Package filter defines optional metadata constraints on a search.
package filter

import (
	"fmt"

	"github.com/cinesense/reelrank/internal/domain"
)

// MaxGenres caps the genre list on a single request.
const MaxGenres = 16

// Criteria are the optional metadata constraints a search request carries.
// Year and rating bounds are pushed into the vector index as pre-filters;
// genres are matched against catalog metadata after the join, since genre
// names live only in the relational store.
type Criteria struct {
	minYear   *int
	maxYear   *int
	minRating *float64
	genres    []string
}

// NewCriteria validates and creates filter criteria. All fields are optional.
func NewCriteria(minYear, maxYear *int, minRating *float64, genres []string) (Criteria, error) {
	if minYear != nil && maxYear != nil && *minYear > *maxYear {
		return Criteria{}, fmt.Errorf("%w: min_year %d exceeds max_year %d",
			domain.ErrInvalidFilter, *minYear, *maxYear)
	}
	if minRating != nil && (*minRating < 0 || *minRating > 10) {
		return Criteria{}, fmt.Errorf("%w: min_rating must be in [0, 10], got %g",
			domain.ErrInvalidFilter, *minRating)
	}
	if len(genres) > MaxGenres {
		return Criteria{}, fmt.Errorf("%w: too many genres (max %d)", domain.ErrInvalidFilter, MaxGenres)
	}
	kept := make([]string, 0, len(genres))
	for _, g := range genres {
		if g == "" {
			return Criteria{}, fmt.Errorf("%w: empty genre name", domain.ErrInvalidFilter)
		}
		kept = append(kept, g)
	}

	return Criteria{minYear: minYear, maxYear: maxYear, minRating: minRating, genres: kept}, nil
}

// MinYear returns the lower release-year bound.
func (c Criteria) MinYear() *int { return c.minYear }

// MaxYear returns the upper release-year bound.
func (c Criteria) MaxYear() *int { return c.maxYear }

// MinRating returns the minimum review rating.
func (c Criteria) MinRating() *float64 { return c.minRating }

// Genres returns the requested genre names.
func (c Criteria) Genres() []string { return c.genres }

// IsEmpty reports whether no constraint is set.
func (c Criteria) IsEmpty() bool {
	return c.minYear == nil && c.maxYear == nil && c.minRating == nil && len(c.genres) == 0
}

// MatchesGenres reports whether a movie's genres satisfy the criteria:
// any overlap qualifies, and no genre constraint matches everything.
func (c Criteria) MatchesGenres(movieGenres []string) bool {
	if len(c.genres) == 0 {
		return true
	}
	for _, want := range c.genres {
		for _, have := range movieGenres {
			if want == have {
				return true
			}
		}
	}
	return false
}

// IndexConditions translates the index-resident constraints (year, rating)
// into pre-filter conditions for the KNN query.
func (c Criteria) IndexConditions() []Condition {
	var conds []Condition

	if c.minYear != nil || c.maxYear != nil {
		var gte, lte *float64
		if c.minYear != nil {
			v := float64(*c.minYear)
			gte = &v
		}
		if c.maxYear != nil {
			v := float64(*c.maxYear)
			lte = &v
		}
		conds = append(conds, NewRange("year", gte, lte))
	}

	if c.minRating != nil {
		conds = append(conds, NewRange("rating", c.minRating, nil))
	}

	return conds
}

// Condition is a single pre-filter clause on an indexed field: either an
// exact tag match or a numeric range. All conditions on a query are ANDed.
type Condition struct {
	key   string
	match string
	gte   *float64
	lte   *float64
}

// NewMatch creates an exact tag match condition.
func NewMatch(key, match string) Condition {
	return Condition{key: key, match: match}
}

// NewRange creates a numeric range condition; nil bounds are open.
func NewRange(key string, gte, lte *float64) Condition {
	return Condition{key: key, gte: gte, lte: lte}
}

// Key returns the indexed field name.
func (c Condition) Key() string { return c.key }

// Match returns the exact match value; empty for range conditions.
func (c Condition) Match() string { return c.match }

// GTE returns the inclusive lower bound.
func (c Condition) GTE() *float64 { return c.gte }

// LTE returns the inclusive upper bound.
func (c Condition) LTE() *float64 { return c.lte }

// IsMatch reports whether this is a tag match condition.
func (c Condition) IsMatch() bool { return c.match != "" }
