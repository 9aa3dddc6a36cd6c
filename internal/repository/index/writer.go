package index

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/cinesense/reelrank/internal/db"
)

// writeStore is the consumer interface for index maintenance operations.
type writeStore interface {
	store
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// Writer maintains the review vector index: schema creation and point upserts.
type Writer struct {
	*Repo
	store writeStore
}

// NewWriter creates an index writer for the given review collection.
func NewWriter(s writeStore, collection string) *Writer {
	return &Writer{Repo: New(s, collection, 0), store: s}
}

// HNSWParams tune the FT.CREATE vector field.
type HNSWParams struct {
	M           int
	EFConstruct int
}

// EnsureIndex creates the review FT index if it does not exist yet.
// Schema: movie_id TAG, rating NUMERIC, year NUMERIC, vector VECTOR HNSW
// cosine. Rating and year back the query-time metadata pre-filters.
func (w *Writer) EnsureIndex(ctx context.Context, dimensions int, params HNSWParams) error {
	exists, err := w.store.IndexExists(ctx, w.IndexName())
	if err != nil {
		return fmt.Errorf("probe index %s: %w", w.IndexName(), err)
	}
	if exists {
		return nil
	}

	def := &db.IndexDefinition{
		Name:     w.IndexName(),
		Prefixes: []string{w.KeyPrefix()},
		Fields: []db.IndexField{
			{Name: "movie_id", Type: db.IndexFieldTag},
			{Name: "rating", Type: db.IndexFieldNumeric},
			{Name: "year", Type: db.IndexFieldNumeric},
			{
				Name:              "vector",
				Type:              db.IndexFieldVector,
				VectorAlgo:        db.VectorHNSW,
				VectorDim:         dimensions,
				VectorDistance:    db.DistanceCosine,
				VectorM:           params.M,
				VectorEFConstruct: params.EFConstruct,
			},
		},
	}

	if err := w.store.CreateIndex(ctx, def); err != nil {
		if errors.Is(err, db.ErrIndexExists) {
			return nil
		}
		return fmt.Errorf("create index %s: %w", w.IndexName(), err)
	}
	return nil
}

// DropIndex removes the review FT index. A missing index is not an error.
func (w *Writer) DropIndex(ctx context.Context) error {
	if err := w.store.DropIndex(ctx, w.IndexName()); err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			return nil
		}
		return fmt.Errorf("drop index %s: %w", w.IndexName(), err)
	}
	return nil
}

// ReviewPoint is one review vector to upsert into the index. Year is the
// owning movie's release year, denormalized for index-side filtering.
type ReviewPoint struct {
	ReviewID string
	MovieID  string
	Rating   float64
	Year     int
	Vector   []float32
}

// UpsertReviews writes review vector points in a single pipelined round-trip.
func (w *Writer) UpsertReviews(ctx context.Context, points []ReviewPoint) error {
	if len(points) == 0 {
		return nil
	}

	items := make([]db.HashSetItem, 0, len(points))
	for _, p := range points {
		if p.ReviewID == "" || p.MovieID == "" {
			return fmt.Errorf("review point requires review and movie ids")
		}
		if len(p.Vector) == 0 {
			return fmt.Errorf("review point %s has no vector", p.ReviewID)
		}
		items = append(items, db.HashSetItem{
			Key: w.KeyPrefix() + p.ReviewID,
			Fields: map[string]string{
				"movie_id": p.MovieID,
				"rating":   strconv.FormatFloat(p.Rating, 'f', -1, 64),
				"year":     strconv.Itoa(p.Year),
				"vector":   vectorToBlob(p.Vector),
			},
		})
	}

	if err := w.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("upsert %d review points: %w", len(points), err)
	}
	return nil
}

// vectorToBlob serializes []float32 into the little-endian binary format the
// FT vector field expects.
func vectorToBlob(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}
