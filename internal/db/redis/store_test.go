package redis

import (
	"context"
	"errors"
	"testing"

	"github.com/redis/rueidis"
	"github.com/redis/rueidis/mock"
	"go.uber.org/mock/gomock"

	"github.com/cinesense/reelrank/internal/db"
	"github.com/cinesense/reelrank/internal/domain/search/filter"
)

func isDBError(err error) bool {
	var dbErr *db.Error
	return errors.As(err, &dbErr)
}

// --- client.go tests ---

func TestPing_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("PING")).
		Return(mock.Result(mock.RedisString("PONG")))

	s := NewStoreForTest(c)
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPing_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("PING")).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	s := NewStoreForTest(c)
	if err := s.Ping(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

// --- kv.go tests ---

func TestGet_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("GET", "mykey")).
		Return(mock.Result(mock.RedisString("value")))

	s := NewStoreForTest(c)
	data, err := s.Get(context.Background(), "mykey")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != "value" {
		t.Errorf("unexpected value: %q", data)
	}
}

func TestGet_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("GET", "missing")).
		Return(mock.Result(mock.RedisNil()))

	s := NewStoreForTest(c)
	_, err := s.Get(context.Background(), "missing")
	if !errors.Is(err, db.ErrKeyNotFound) {
		t.Errorf("expected ErrKeyNotFound, got %v", err)
	}
}

func TestSet_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("SET", "mykey", "value")).
		Return(mock.Result(mock.RedisString("OK")))

	s := NewStoreForTest(c)
	if err := s.Set(context.Background(), "mykey", []byte("value")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// --- hash.go tests ---

func TestHSet_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "HSET" && cmd[1] == "mykey"
		})).
		Return(mock.Result(mock.RedisInt64(1)))

	s := NewStoreForTest(c)
	err := s.HSet(context.Background(), "mykey", map[string]string{"f1": "v1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestHSetMulti_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		DoMulti(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]rueidis.RedisResult{
			mock.Result(mock.RedisInt64(3)),
			mock.Result(mock.RedisInt64(3)),
		})

	s := NewStoreForTest(c)
	err := s.HSetMulti(context.Background(), []db.HashSetItem{
		{Key: "k1", Fields: map[string]string{"f1": "v1"}},
		{Key: "k2", Fields: map[string]string{"f2": "v2"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestHSetMulti_Empty(t *testing.T) {
	s := NewStoreForTest(nil) // client not called
	if err := s.HSetMulti(context.Background(), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestHSetMulti_PartialFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		DoMulti(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]rueidis.RedisResult{
			mock.Result(mock.RedisInt64(3)),
			mock.ErrorResult(context.DeadlineExceeded),
		})

	s := NewStoreForTest(c)
	err := s.HSetMulti(context.Background(), []db.HashSetItem{
		{Key: "k1", Fields: map[string]string{"f": "v"}},
		{Key: "k2", Fields: map[string]string{"f": "v"}},
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if !isDBError(err) {
		t.Errorf("expected db.Error, got %T", err)
	}
}

func TestExists(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("EXISTS", "mykey")).
		Return(mock.Result(mock.RedisInt64(1)))

	s := NewStoreForTest(c)
	exists, err := s.Exists(context.Background(), "mykey")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !exists {
		t.Error("expected true")
	}
}

// --- index.go tests ---

func TestCreateIndex_ServerError(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "FT.CREATE"
		})).
		Return(mock.ErrorResult(&rueidis.RedisError{}))

	s := NewStoreForTest(c)
	def := &db.IndexDefinition{
		Name:     "idx",
		Prefixes: []string{"p:"},
		Fields:   []db.IndexField{{Name: "movie_id", Type: db.IndexFieldTag}},
	}
	// A generic server error is wrapped, not mapped to ErrIndexExists.
	err := s.CreateIndex(context.Background(), def)
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, db.ErrIndexExists) {
		t.Error("generic error must not map to ErrIndexExists")
	}
}

func TestIndexExists_Present(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("FT.INFO", "idx")).
		Return(mock.Result(mock.RedisArray(mock.RedisString("index_name"), mock.RedisString("idx"))))

	s := NewStoreForTest(c)
	exists, err := s.IndexExists(context.Background(), "idx")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !exists {
		t.Error("expected true")
	}
}

func TestBuildCreateArgs(t *testing.T) {
	def := &db.IndexDefinition{
		Name:     "reelrank:reviews:idx",
		Prefixes: []string{"reelrank:reviews:"},
		Fields: []db.IndexField{
			{Name: "movie_id", Type: db.IndexFieldTag},
			{Name: "rating", Type: db.IndexFieldNumeric},
			{
				Name:              "vector",
				Type:              db.IndexFieldVector,
				VectorAlgo:        db.VectorHNSW,
				VectorDim:         384,
				VectorDistance:    db.DistanceCosine,
				VectorM:           32,
				VectorEFConstruct: 400,
			},
		},
	}

	args, err := buildCreateArgs(def)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{
		"reelrank:reviews:idx", "ON", "HASH",
		"PREFIX", "1", "reelrank:reviews:",
		"SCHEMA",
		"movie_id", "TAG",
		"rating", "NUMERIC",
		"vector", "VECTOR", "HNSW", "10",
		"TYPE", "FLOAT32", "DIM", "384", "DISTANCE_METRIC", "COSINE",
		"M", "32", "EF_CONSTRUCTION", "400",
	}
	if len(args) != len(want) {
		t.Fatalf("args length = %d, want %d\nargs: %v", len(args), len(want), args)
	}
	for i := range want {
		if args[i] != want[i] {
			t.Errorf("args[%d] = %q, want %q", i, args[i], want[i])
		}
	}
}

func TestBuildCreateArgs_InvalidDefinition(t *testing.T) {
	_, err := buildCreateArgs(&db.IndexDefinition{Name: ""})
	if err == nil {
		t.Error("expected error for missing index name")
	}
}

// --- search.go tests ---

func TestSearchKNN_Validation(t *testing.T) {
	s := NewStoreForTest(nil) // client not called

	if _, err := s.SearchKNN(context.Background(), &db.KNNQuery{Vector: []float32{1}, K: 5}); err == nil {
		t.Error("expected error for missing index name")
	}
	if _, err := s.SearchKNN(context.Background(), &db.KNNQuery{IndexName: "idx", K: 5}); err == nil {
		t.Error("expected error for missing vector")
	}
	if _, err := s.SearchKNN(context.Background(), &db.KNNQuery{IndexName: "idx", Vector: []float32{1}}); err == nil {
		t.Error("expected error for non-positive k")
	}
}

func TestSearchKNN_ParsesEntries(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "FT.SEARCH" && cmd[1] == "idx"
		})).
		Return(mock.Result(mock.RedisArray(
			mock.RedisInt64(2),
			mock.RedisString("reelrank:reviews:r1"),
			mock.RedisArray(
				mock.RedisString("movie_id"), mock.RedisString("m1"),
				mock.RedisString("__vector_score"), mock.RedisString("0.08"),
			),
			mock.RedisString("reelrank:reviews:r2"),
			mock.RedisArray(
				mock.RedisString("movie_id"), mock.RedisString("m2"),
				mock.RedisString("__vector_score"), mock.RedisString("0.35"),
			),
		)))

	s := NewStoreForTest(c)
	res, err := s.SearchKNN(context.Background(), &db.KNNQuery{
		IndexName:    "idx",
		Vector:       []float32{0.1, 0.2},
		K:            10,
		ReturnFields: []string{"movie_id", "__vector_score"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.Total != 2 || len(res.Entries) != 2 {
		t.Fatalf("unexpected result shape: total=%d entries=%d", res.Total, len(res.Entries))
	}

	// Distance 0.08 converts to similarity 0.92.
	e := res.Entries[0]
	if e.Key != "reelrank:reviews:r1" || e.Fields["movie_id"] != "m1" {
		t.Errorf("unexpected entry: %+v", e)
	}
	if diff := e.Score - 0.92; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("score = %g, want 0.92", e.Score)
	}
	if _, ok := e.Fields["__vector_score"]; ok {
		t.Error("raw distance field must be stripped")
	}
}

func TestSearchKNN_NegativeSimilarityClamped(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "FT.SEARCH"
		})).
		Return(mock.Result(mock.RedisArray(
			mock.RedisInt64(1),
			mock.RedisString("k1"),
			mock.RedisArray(
				mock.RedisString("movie_id"), mock.RedisString("m1"),
				mock.RedisString("__vector_score"), mock.RedisString("1.7"),
			),
		)))

	s := NewStoreForTest(c)
	res, err := s.SearchKNN(context.Background(), &db.KNNQuery{
		IndexName: "idx", Vector: []float32{0.1}, K: 1,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Entries[0].Score != 0 {
		t.Errorf("distance above 1 must clamp similarity to 0, got %g", res.Entries[0].Score)
	}
}

func TestSearchKNN_EmptyResult(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "FT.SEARCH"
		})).
		Return(mock.Result(mock.RedisArray(mock.RedisInt64(0))))

	s := NewStoreForTest(c)
	res, err := s.SearchKNN(context.Background(), &db.KNNQuery{
		IndexName: "idx", Vector: []float32{0.1}, K: 5,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Total != 0 || len(res.Entries) != 0 {
		t.Errorf("expected empty result, got %+v", res)
	}
}

func TestSearchKNN_WithFilter(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	var gotQuery string
	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			if cmd[0] != "FT.SEARCH" {
				return false
			}
			gotQuery = cmd[2]
			return true
		})).
		Return(mock.Result(mock.RedisArray(mock.RedisInt64(0))))

	minRating := 7.0
	yearMin, yearMax := 1990.0, 2000.0

	s := NewStoreForTest(c)
	_, err := s.SearchKNN(context.Background(), &db.KNNQuery{
		IndexName: "idx",
		Vector:    []float32{0.1},
		K:         5,
		Filters: []filter.Condition{
			filter.NewRange("year", &yearMin, &yearMax),
			filter.NewRange("rating", &minRating, nil),
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "(@year:[1990 2000] @rating:[7 +inf])=>[KNN 5 @vector $BLOB]"
	if gotQuery != want {
		t.Errorf("query = %q, want %q", gotQuery, want)
	}
}

func TestSearchKNN_NoFilterUsesWildcard(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	var gotQuery string
	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			if cmd[0] != "FT.SEARCH" {
				return false
			}
			gotQuery = cmd[2]
			return true
		})).
		Return(mock.Result(mock.RedisArray(mock.RedisInt64(0))))

	s := NewStoreForTest(c)
	_, err := s.SearchKNN(context.Background(), &db.KNNQuery{
		IndexName: "idx", Vector: []float32{0.1}, K: 3,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotQuery != "*=>[KNN 3 @vector $BLOB]" {
		t.Errorf("query = %q", gotQuery)
	}
}

func TestBuildFilter(t *testing.T) {
	gte := 8.5

	cases := []struct {
		name  string
		conds []filter.Condition
		want  string
	}{
		{name: "empty", conds: nil, want: ""},
		{
			name:  "open range",
			conds: []filter.Condition{filter.NewRange("rating", &gte, nil)},
			want:  "@rating:[8.5 +inf]",
		},
		{
			name:  "tag match",
			conds: []filter.Condition{filter.NewMatch("movie_id", "m1")},
			want:  "@movie_id:{m1}",
		},
		{
			name:  "tag value escaped",
			conds: []filter.Condition{filter.NewMatch("movie_id", "sci-fi classic")},
			want:  "@movie_id:{sci\\-fi\\ classic}",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := buildFilter(tc.conds); got != tc.want {
				t.Errorf("buildFilter = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestVectorToBytes(t *testing.T) {
	blob := vectorToBytes([]float32{1.0, 2.0})
	if len(blob) != 8 {
		t.Errorf("expected 8 bytes for 2 float32, got %d", len(blob))
	}
}
