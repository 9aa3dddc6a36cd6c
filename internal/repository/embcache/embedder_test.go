package embcache

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/cinesense/reelrank/internal/db"
	"github.com/cinesense/reelrank/internal/domain"
)

// --- Mocks ---

type mockEmbedder struct {
	result domain.EmbeddingResult
	err    error
	calls  int
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	m.calls++
	return m.result, m.err
}

// mockKVStore implements the consumer interface for tests.
type mockKVStore struct {
	data  map[string][]byte
	getFn func(ctx context.Context, key string) ([]byte, error)
	setFn func(ctx context.Context, key string, value []byte) error
}

func newMockKVStore() *mockKVStore {
	return &mockKVStore{data: map[string][]byte{}}
}

func (m *mockKVStore) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	data, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return data, nil
}

func (m *mockKVStore) Set(ctx context.Context, key string, value []byte) error {
	if m.setFn != nil {
		return m.setFn(ctx, key, value)
	}
	m.data[key] = value
	return nil
}

// --- Tests ---

func TestEmbed_MissThenHit(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{
		Embedding:   []float32{0.1, 0.2, 0.3},
		TotalTokens: 5,
	}}
	kv := newMockKVStore()
	c := New(inner, kv, nil, zap.NewNop())

	first, err := c.Embed(context.Background(), "some review text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.calls != 1 {
		t.Fatalf("expected 1 inner call, got %d", inner.calls)
	}
	if first.TotalTokens != 5 {
		t.Errorf("miss must report real token usage, got %d", first.TotalTokens)
	}

	second, err := c.Embed(context.Background(), "some review text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("hit must not call inner again, calls = %d", inner.calls)
	}
	if second.TotalTokens != 0 {
		t.Errorf("cache hit must report zero tokens, got %d", second.TotalTokens)
	}

	if len(second.Embedding) != 3 || second.Embedding[1] != 0.2 {
		t.Errorf("cached vector mismatch: %v", second.Embedding)
	}
}

func TestEmbed_DifferentTextsDifferentKeys(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1}}}
	kv := newMockKVStore()
	c := New(inner, kv, nil, zap.NewNop())

	if _, err := c.Embed(context.Background(), "first"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := c.Embed(context.Background(), "second"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.calls != 2 {
		t.Errorf("distinct texts must both miss, calls = %d", inner.calls)
	}
	if len(kv.data) != 2 {
		t.Errorf("expected 2 cache entries, got %d", len(kv.data))
	}
}

func TestEmbed_StoreFailureFallsThrough(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1}}}
	kv := newMockKVStore()
	kv.getFn = func(_ context.Context, _ string) ([]byte, error) {
		return nil, errors.New("connection reset")
	}
	kv.setFn = func(_ context.Context, _ string, _ []byte) error {
		return errors.New("connection reset")
	}
	c := New(inner, kv, nil, zap.NewNop())

	// Cache failures degrade to the inner embedder, never to an error.
	res, err := c.Embed(context.Background(), "text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Embedding) != 1 {
		t.Errorf("unexpected embedding: %v", res.Embedding)
	}
}

func TestEmbed_CorruptCacheEntryIgnored(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1, 2}}}
	kv := newMockKVStore()
	c := New(inner, kv, nil, zap.NewNop())

	// Seed garbage at the key the text hashes to.
	kv.data[c.cacheKey("text")] = []byte{1, 2, 3} // not a multiple of 4

	res, err := c.Embed(context.Background(), "text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("corrupt entry must fall through to inner, calls = %d", inner.calls)
	}
	if len(res.Embedding) != 2 {
		t.Errorf("unexpected embedding: %v", res.Embedding)
	}
}

func TestEmbed_InnerErrorNotCached(t *testing.T) {
	inner := &mockEmbedder{err: domain.ErrEmbeddingUnavailable}
	kv := newMockKVStore()
	c := New(inner, kv, nil, zap.NewNop())

	if _, err := c.Embed(context.Background(), "text"); !errors.Is(err, domain.ErrEmbeddingUnavailable) {
		t.Fatalf("expected inner error surfaced, got %v", err)
	}
	if len(kv.data) != 0 {
		t.Error("failed embeds must not be cached")
	}
}

func TestVectorRoundTrip(t *testing.T) {
	in := []float32{0.25, -1.5, 3.125}
	out, err := bytesToVector(vectorToCacheBytes(in))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("length mismatch: %d vs %d", len(out), len(in))
	}
	for i := range in {
		if out[i] != in[i] {
			t.Errorf("element %d: %g != %g", i, out[i], in[i])
		}
	}
}
