// Dataset ingest pipeline for reelrank.
// Reads a JSON Lines dataset of movies with reviews, upserts the movies into
// the SQLite catalog, and embeds each review into the Redis vector index.
//
// Usage:
//
//	reelrank-ingest -data /data/movies.jsonl -batch-size 64
//
// Connection and model settings come from the same YAML config as the server
// (config/{ENV}.yaml, see ENV and OPENAI_API_KEY).
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/cinesense/reelrank/internal/config"
	dbRedis "github.com/cinesense/reelrank/internal/db/redis"
	"github.com/cinesense/reelrank/internal/domain"
	"github.com/cinesense/reelrank/internal/domain/movie"
	"github.com/cinesense/reelrank/internal/domain/review"
	logpkg "github.com/cinesense/reelrank/internal/logger"
	catalogrepo "github.com/cinesense/reelrank/internal/repository/catalog"
	indexrepo "github.com/cinesense/reelrank/internal/repository/index"
	openaiEmb "github.com/cinesense/reelrank/internal/transport/openai"
	ingestuc "github.com/cinesense/reelrank/internal/usecase/ingest"
)

type flags struct {
	dataPath  string
	batchSize int
	reset     bool
}

func parseFlags() flags {
	var f flags
	flag.StringVar(&f.dataPath, "data", "", "path to the JSONL movie dataset (required)")
	flag.IntVar(&f.batchSize, "batch-size", 64, "reviews per embedding batch")
	flag.BoolVar(&f.reset, "reset", false, "drop and recreate the review index before loading")
	flag.Parse()
	return f
}

// movieRecord is one dataset line: a movie with its reviews.
type movieRecord struct {
	ID         string         `json:"id"`
	Title      string         `json:"title"`
	Year       int            `json:"year"`
	Genres     []string       `json:"genres"`
	Overview   string         `json:"overview"`
	PosterPath string         `json:"poster_path"`
	Rating     float64        `json:"vote_average"`
	Popularity float64        `json:"popularity"`
	Reviews    []reviewRecord `json:"reviews"`
}

type reviewRecord struct {
	ID      string  `json:"id"`
	Content string  `json:"content"`
	Rating  float64 `json:"rating"`
}

func main() {
	f := parseFlags()
	if f.dataPath == "" {
		fmt.Fprintln(os.Stderr, "missing required -data flag")
		flag.Usage()
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(
		context.Background(), syscall.SIGTERM, syscall.SIGINT,
	)
	defer cancel()

	if err := run(ctx, f); err != nil {
		cancel()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, f flags) error {
	start := time.Now()

	env := config.GetEnv()
	cfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		return fmt.Errorf("create vector store: %w", err)
	}
	defer store.Close()

	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		return fmt.Errorf("vector store not ready: %w", err)
	}

	catalog, err := catalogrepo.Open(cfg.Catalog.Path)
	if err != nil {
		return fmt.Errorf("open catalog: %w", err)
	}
	defer catalog.Close()

	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:      cfg.Embedding.APIKey,
		BaseURL:     cfg.Embedding.BaseURL,
		Model:       cfg.Embedding.Model,
		Dimensions:  cfg.Embedding.Dimensions,
		Timeout:     time.Duration(cfg.Embedding.TimeoutSec) * time.Second,
		MaxFailures: cfg.Embedding.Breaker.MaxFailures,
		OpenFor:     time.Duration(cfg.Embedding.Breaker.OpenSec) * time.Second,
		Logger:      logger,
	})

	var embedder ingestuc.Embedder = base
	if cfg.Embedding.DocumentInstruction != "" {
		embedder = domain.NewInstructionEmbedder(base, cfg.Embedding.DocumentInstruction)
	}

	writer := indexrepo.NewWriter(store, cfg.Index.Collection)
	svc := ingestuc.New(embedder, writer, logger).WithBatchSize(f.batchSize)

	if f.reset {
		if err := writer.DropIndex(ctx); err != nil {
			logger.Warn("Drop index failed, continuing", zap.Error(err))
		}
	}

	if err := svc.EnsureIndex(ctx, cfg.Embedding.Dimensions, indexrepo.HNSWParams{
		M:           cfg.Index.HNSWM,
		EFConstruct: cfg.Index.HNSWEFConstruct,
	}); err != nil {
		return err
	}

	file, err := os.Open(f.dataPath)
	if err != nil {
		return fmt.Errorf("open dataset: %w", err)
	}
	defer file.Close()

	var (
		movies  int
		skipped int
		total   ingestuc.Stats
	)

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 1<<20), 1<<20)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var rec movieRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			logger.Warn("Skipping malformed dataset line", zap.Error(err))
			skipped++
			continue
		}

		m, err := movie.New(rec.ID, rec.Title, rec.Year, rec.Genres,
			rec.Overview, rec.PosterPath, rec.Rating, rec.Popularity)
		if err != nil {
			logger.Warn("Skipping invalid movie",
				zap.String("movie_id", rec.ID), zap.Error(err))
			skipped++
			continue
		}

		if err := catalog.Upsert(ctx, m); err != nil {
			return fmt.Errorf("upsert movie %s: %w", rec.ID, err)
		}
		movies++

		reviews := make([]review.Review, 0, len(rec.Reviews))
		for _, rr := range rec.Reviews {
			rv, err := review.New(rr.ID, rec.ID, rr.Content, rr.Rating)
			if err != nil {
				logger.Warn("Skipping invalid review",
					zap.String("review_id", rr.ID), zap.Error(err))
				continue
			}
			reviews = append(reviews, rv)
		}

		stats, err := svc.IndexReviews(ctx, rec.Year, reviews)
		total.Indexed += stats.Indexed
		total.Skipped += stats.Skipped
		total.Tokens += stats.Tokens
		if err != nil {
			return fmt.Errorf("index reviews for movie %s: %w", rec.ID, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read dataset: %w", err)
	}

	logger.Info("Ingest finished",
		zap.Int("movies", movies),
		zap.Int("movies_skipped", skipped),
		zap.Int("reviews_indexed", total.Indexed),
		zap.Int("reviews_skipped", total.Skipped),
		zap.Int("embedding_tokens", total.Tokens),
		zap.Duration("elapsed", time.Since(start)),
	)

	return nil
}
