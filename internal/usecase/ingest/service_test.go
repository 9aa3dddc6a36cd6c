package ingest

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/cinesense/reelrank/internal/domain"
	"github.com/cinesense/reelrank/internal/domain/review"
	"github.com/cinesense/reelrank/internal/repository/index"
)

// --- Mocks ---

type mockBatchEmbedder struct {
	err     error
	batches [][]string
}

func (m *mockBatchEmbedder) BatchEmbed(_ context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if m.err != nil {
		return domain.BatchEmbeddingResult{}, m.err
	}
	m.batches = append(m.batches, append([]string(nil), texts...))

	embeddings := make([][]float32, len(texts))
	for i := range texts {
		embeddings[i] = []float32{0.1, 0.2}
	}
	return domain.BatchEmbeddingResult{Embeddings: embeddings, TotalTokens: len(texts) * 7}, nil
}

type mockIndex struct {
	ensureCalled bool
	ensureErr    error
	upsertErr    error
	points       []index.ReviewPoint
}

func (m *mockIndex) EnsureIndex(_ context.Context, _ int, _ index.HNSWParams) error {
	m.ensureCalled = true
	return m.ensureErr
}

func (m *mockIndex) UpsertReviews(_ context.Context, points []index.ReviewPoint) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.points = append(m.points, points...)
	return nil
}

func makeReview(t *testing.T, id, movieID, content string) review.Review {
	t.Helper()
	r, err := review.New(id, movieID, content, 7.0)
	if err != nil {
		t.Fatalf("review.New: %v", err)
	}
	return r
}

// --- Tests ---

func TestIndexReviews(t *testing.T) {
	embedder := &mockBatchEmbedder{}
	idx := &mockIndex{}
	svc := New(embedder, idx, zap.NewNop())

	reviews := []review.Review{
		makeReview(t, "r1", "m1", "Brilliant from start to finish"),
		makeReview(t, "r2", "m1", "<p>Great camera work</p>"),
		makeReview(t, "r3", "m2", "A slow burn that pays off"),
	}

	stats, err := svc.IndexReviews(context.Background(), 1999, reviews)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Indexed != 3 || stats.Skipped != 0 {
		t.Errorf("stats = %+v, want 3 indexed", stats)
	}
	if len(idx.points) != 3 {
		t.Fatalf("expected 3 points, got %d", len(idx.points))
	}
	if idx.points[0].ReviewID != "r1" || idx.points[0].MovieID != "m1" {
		t.Errorf("unexpected first point: %+v", idx.points[0])
	}
	if idx.points[0].Year != 1999 {
		t.Errorf("year = %d, want the movie's release year on every point", idx.points[0].Year)
	}

	// Embedded text is cleaned, not raw.
	if embedder.batches[0][1] != "great camera work" {
		t.Errorf("expected cleaned text, got %q", embedder.batches[0][1])
	}
	if stats.Tokens == 0 {
		t.Error("token usage must be accumulated")
	}
}

func TestIndexReviewsSkipsEmptyAfterClean(t *testing.T) {
	embedder := &mockBatchEmbedder{}
	idx := &mockIndex{}
	svc := New(embedder, idx, zap.NewNop())

	reviews := []review.Review{
		makeReview(t, "r1", "m1", "<br/><hr>"),
		makeReview(t, "r2", "m1", "Actual words"),
	}

	stats, err := svc.IndexReviews(context.Background(), 1999, reviews)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Indexed != 1 || stats.Skipped != 1 {
		t.Errorf("stats = %+v, want 1 indexed 1 skipped", stats)
	}
}

func TestIndexReviewsBatching(t *testing.T) {
	embedder := &mockBatchEmbedder{}
	idx := &mockIndex{}
	svc := New(embedder, idx, zap.NewNop()).WithBatchSize(2)

	reviews := []review.Review{
		makeReview(t, "r1", "m1", "one"),
		makeReview(t, "r2", "m1", "two"),
		makeReview(t, "r3", "m2", "three"),
		makeReview(t, "r4", "m2", "four"),
		makeReview(t, "r5", "m3", "five"),
	}

	stats, err := svc.IndexReviews(context.Background(), 1999, reviews)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Indexed != 5 {
		t.Errorf("indexed = %d, want 5", stats.Indexed)
	}
	if len(embedder.batches) != 3 {
		t.Errorf("expected 3 batches (2+2+1), got %d", len(embedder.batches))
	}
}

func TestIndexReviewsEmbedFailure(t *testing.T) {
	embedder := &mockBatchEmbedder{err: domain.ErrEmbeddingUnavailable}
	idx := &mockIndex{}
	svc := New(embedder, idx, zap.NewNop())

	_, err := svc.IndexReviews(context.Background(), 1999, []review.Review{
		makeReview(t, "r1", "m1", "text"),
	})
	if !errors.Is(err, domain.ErrEmbeddingUnavailable) {
		t.Errorf("expected embedding error surfaced, got %v", err)
	}
	if len(idx.points) != 0 {
		t.Error("no points must be written after embed failure")
	}
}

func TestIndexReviewsEmptyInput(t *testing.T) {
	svc := New(&mockBatchEmbedder{}, &mockIndex{}, zap.NewNop())

	stats, err := svc.IndexReviews(context.Background(), 1999, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Indexed != 0 {
		t.Errorf("expected zero stats, got %+v", stats)
	}
}

func TestEnsureIndexPropagatesError(t *testing.T) {
	idx := &mockIndex{ensureErr: errors.New("boom")}
	svc := New(&mockBatchEmbedder{}, idx, zap.NewNop())

	if err := svc.EnsureIndex(context.Background(), 384, index.HNSWParams{M: 32}); err == nil {
		t.Error("expected error")
	}
	if !idx.ensureCalled {
		t.Error("EnsureIndex must delegate to the index")
	}
}
