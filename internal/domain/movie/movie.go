// Package movie defines the catalog movie aggregate.
package movie

import "fmt"

// Movie is the canonical catalog record (immutable value object).
// Rating uses the 0-10 scale; popularity is an unbounded non-negative signal.
type Movie struct {
	id         string
	title      string
	year       int
	genres     []string
	overview   string
	posterPath string
	rating     float64
	popularity float64
}

// New validates and creates a Movie.
func New(
	id, title string, year int, genres []string,
	overview, posterPath string, rating, popularity float64,
) (Movie, error) {
	if id == "" {
		return Movie{}, fmt.Errorf("movie id is required")
	}
	if title == "" {
		return Movie{}, fmt.Errorf("movie title is required")
	}
	if rating < 0 || rating > 10 {
		return Movie{}, fmt.Errorf("rating must be in [0, 10], got %g", rating)
	}
	if popularity < 0 {
		return Movie{}, fmt.Errorf("popularity must be non-negative, got %g", popularity)
	}

	return Movie{
		id: id, title: title, year: year, genres: genres,
		overview: overview, posterPath: posterPath,
		rating: rating, popularity: popularity,
	}, nil
}

// Reconstruct creates a Movie without validation (storage hydration).
func Reconstruct(
	id, title string, year int, genres []string,
	overview, posterPath string, rating, popularity float64,
) Movie {
	return Movie{
		id: id, title: title, year: year, genres: genres,
		overview: overview, posterPath: posterPath,
		rating: rating, popularity: popularity,
	}
}

// ID returns the movie identifier.
func (m Movie) ID() string { return m.id }

// Title returns the movie title.
func (m Movie) Title() string { return m.title }

// Year returns the release year (0 when unknown).
func (m Movie) Year() int { return m.year }

// Genres returns the genre names.
func (m Movie) Genres() []string { return m.genres }

// Overview returns the plot synopsis.
func (m Movie) Overview() string { return m.overview }

// PosterPath returns the poster image path.
func (m Movie) PosterPath() string { return m.posterPath }

// Rating returns the average rating on the 0-10 scale.
func (m Movie) Rating() float64 { return m.rating }

// Popularity returns the popularity signal.
func (m Movie) Popularity() float64 { return m.popularity }
