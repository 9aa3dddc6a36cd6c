// Package catalog is the relational movie metadata repository backed by SQLite.
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite" // CGO-free sqlite driver

	"github.com/cinesense/reelrank/internal/domain"
	"github.com/cinesense/reelrank/internal/domain/movie"
)

// Repo implements the movie catalog contracts over database/sql.
type Repo struct {
	db *sql.DB
}

// Open opens (or creates) the SQLite catalog at path and ensures the schema.
func Open(path string) (*Repo, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open catalog %s: %w", path, err)
	}
	// modernc sqlite serializes writes itself; a single connection avoids
	// SQLITE_BUSY on concurrent readers+writer.
	sqlDB.SetMaxOpenConns(1)

	r := &Repo{db: sqlDB}
	if err := r.initSchema(); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return r, nil
}

func (r *Repo) initSchema() error {
	const schema = `
CREATE TABLE IF NOT EXISTS movies (
	id          TEXT PRIMARY KEY,
	title       TEXT NOT NULL,
	year        INTEGER NOT NULL DEFAULT 0,
	overview    TEXT NOT NULL DEFAULT '',
	poster_path TEXT NOT NULL DEFAULT '',
	rating      REAL NOT NULL DEFAULT 0,
	popularity  REAL NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS movie_genres (
	movie_id TEXT NOT NULL REFERENCES movies(id) ON DELETE CASCADE,
	name     TEXT NOT NULL,
	PRIMARY KEY (movie_id, name)
);
CREATE INDEX IF NOT EXISTS idx_movies_popularity ON movies(popularity DESC);
`
	if _, err := r.db.Exec(schema); err != nil {
		return fmt.Errorf("init catalog schema: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (r *Repo) Close() error {
	return r.db.Close()
}

// Ping checks catalog connectivity.
func (r *Repo) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("catalog ping: %w", err)
	}
	return nil
}

// Upsert inserts or replaces a movie and its genre rows.
func (r *Repo) Upsert(ctx context.Context, m movie.Movie) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
INSERT INTO movies (id, title, year, overview, poster_path, rating, popularity)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	title = excluded.title, year = excluded.year, overview = excluded.overview,
	poster_path = excluded.poster_path, rating = excluded.rating, popularity = excluded.popularity`,
		m.ID(), m.Title(), m.Year(), m.Overview(), m.PosterPath(), m.Rating(), m.Popularity(),
	)
	if err != nil {
		return fmt.Errorf("upsert movie %s: %w", m.ID(), err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM movie_genres WHERE movie_id = ?`, m.ID()); err != nil {
		return fmt.Errorf("clear genres %s: %w", m.ID(), err)
	}
	for _, g := range m.Genres() {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO movie_genres (movie_id, name) VALUES (?, ?)`, m.ID(), g); err != nil {
			return fmt.Errorf("insert genre %s/%s: %w", m.ID(), g, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert: %w", err)
	}
	return nil
}

// Get returns a single movie by id.
func (r *Repo) Get(ctx context.Context, id string) (movie.Movie, error) {
	movies, err := r.MoviesByIDs(ctx, []string{id})
	if err != nil {
		return movie.Movie{}, err
	}
	m, ok := movies[id]
	if !ok {
		return movie.Movie{}, fmt.Errorf("%w: %s", domain.ErrMovieNotFound, id)
	}
	return m, nil
}

// MoviesByIDs returns the movies for the given ids, keyed by id.
// Unknown ids are simply absent from the result; callers drop their hits.
func (r *Repo) MoviesByIDs(ctx context.Context, ids []string) (map[string]movie.Movie, error) {
	if len(ids) == 0 {
		return map[string]movie.Movie{}, nil
	}

	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	query := fmt.Sprintf(`
SELECT id, title, year, overview, poster_path, rating, popularity
FROM movies WHERE id IN (%s)`, placeholders)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("movies by ids: %w", err)
	}
	defer rows.Close()

	movies, order, err := scanMovies(rows)
	if err != nil {
		return nil, err
	}

	if err := r.attachGenres(ctx, movies, order, placeholders, args); err != nil {
		return nil, err
	}

	out := make(map[string]movie.Movie, len(order))
	for _, id := range order {
		out[id] = movies[id].build()
	}
	return out, nil
}

// DefaultCandidates returns the cold-start list: most popular movies first,
// ties broken by id for deterministic output.
func (r *Repo) DefaultCandidates(ctx context.Context, limit int) ([]movie.Movie, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive, got %d", domain.ErrInvalidLimit, limit)
	}

	rows, err := r.db.QueryContext(ctx, `
SELECT id, title, year, overview, poster_path, rating, popularity
FROM movies ORDER BY popularity DESC, id ASC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("default candidates: %w", err)
	}
	defer rows.Close()

	movies, order, err := scanMovies(rows)
	if err != nil {
		return nil, err
	}

	if len(order) > 0 {
		placeholders := strings.Repeat("?,", len(order))
		placeholders = placeholders[:len(placeholders)-1]
		args := make([]any, len(order))
		for i, id := range order {
			args[i] = id
		}
		if err := r.attachGenres(ctx, movies, order, placeholders, args); err != nil {
			return nil, err
		}
	}

	out := make([]movie.Movie, 0, len(order))
	for _, id := range order {
		out = append(out, movies[id].build())
	}
	return out, nil
}

// movieRow accumulates a movie row and its genres before building the value object.
type movieRow struct {
	id, title, overview, posterPath string
	year                            int
	rating, popularity              float64
	genres                          []string
}

func (mr *movieRow) build() movie.Movie {
	return movie.Reconstruct(
		mr.id, mr.title, mr.year, mr.genres,
		mr.overview, mr.posterPath, mr.rating, mr.popularity,
	)
}

func scanMovies(rows *sql.Rows) (map[string]*movieRow, []string, error) {
	movies := make(map[string]*movieRow)
	var order []string

	for rows.Next() {
		var mr movieRow
		if err := rows.Scan(
			&mr.id, &mr.title, &mr.year, &mr.overview,
			&mr.posterPath, &mr.rating, &mr.popularity,
		); err != nil {
			return nil, nil, fmt.Errorf("scan movie: %w", err)
		}
		movies[mr.id] = &mr
		order = append(order, mr.id)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate movies: %w", err)
	}
	return movies, order, nil
}

func (r *Repo) attachGenres(
	ctx context.Context, movies map[string]*movieRow, order []string,
	placeholders string, args []any,
) error {
	if len(order) == 0 {
		return nil
	}

	query := fmt.Sprintf(
		`SELECT movie_id, name FROM movie_genres WHERE movie_id IN (%s) ORDER BY name`, placeholders)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("genres by movie ids: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var movieID, name string
		if err := rows.Scan(&movieID, &name); err != nil {
			return fmt.Errorf("scan genre: %w", err)
		}
		if mr, ok := movies[movieID]; ok {
			mr.genres = append(mr.genres, name)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate genres: %w", err)
	}
	return nil
}
