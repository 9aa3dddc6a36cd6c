package chi

import (
	"context"

	"github.com/cinesense/reelrank/internal/domain/movie"
)

// MovieReader resolves a single movie from the catalog.
type MovieReader interface {
	Get(ctx context.Context, id string) (movie.Movie, error)
}
