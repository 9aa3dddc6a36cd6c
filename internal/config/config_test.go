package config

import "testing"

func validConfig() Config {
	return Config{
		HTTP:     HTTPConfig{Port: 8080},
		Database: DatabaseConfig{Addrs: []string{"localhost:6379"}},
		Ranking: RankingConfig{
			SemanticWeight:   0.7,
			RatingWeight:     0.2,
			PopularityWeight: 0.1,
		},
	}
}

func TestValidate_Valid(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 0

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_MissingRedisAddrs(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Addrs = nil

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing database addrs")
	}
}

func TestValidate_WeightsMustSumToOne(t *testing.T) {
	cfg := validConfig()
	cfg.Ranking.SemanticWeight = 0.5
	cfg.Ranking.RatingWeight = 0.3
	cfg.Ranking.PopularityWeight = 0.3

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for weights summing to 1.1")
	}
}

func TestValidate_NegativeWeightRejected(t *testing.T) {
	cfg := validConfig()
	cfg.Ranking.SemanticWeight = 1.2
	cfg.Ranking.RatingWeight = -0.1
	cfg.Ranking.PopularityWeight = -0.1

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for negative weight")
	}
}

func TestValidate_MinScoreRange(t *testing.T) {
	cfg := validConfig()
	cfg.Index.MinScore = 1.5

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for min_score out of range")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{
		HTTP:     HTTPConfig{Port: 8080},
		Database: DatabaseConfig{Addrs: []string{"localhost:6379"}},
	}
	cfg.ApplyDefaults()

	if cfg.Ranking.SemanticWeight != 0.7 || cfg.Ranking.RatingWeight != 0.2 || cfg.Ranking.PopularityWeight != 0.1 {
		t.Errorf("unexpected default weights: %+v", cfg.Ranking)
	}
	if cfg.Ranking.BonusWeight != 0.15 || cfg.Ranking.BonusThreshold != 0.5 || cfg.Ranking.PopularityPivot != 50 {
		t.Errorf("unexpected aggregation defaults: %+v", cfg.Ranking)
	}
	if cfg.Index.CandidateMultiplier != 3 || cfg.Index.MaxTopK != 200 {
		t.Errorf("unexpected retrieval defaults: %+v", cfg.Index)
	}
	if cfg.Index.MinScore != 0.3 {
		t.Errorf("min_score default = %g, want 0.3", cfg.Index.MinScore)
	}
	if cfg.Embedding.Breaker.MaxFailures != 5 || cfg.Embedding.Breaker.OpenSec != 30 {
		t.Errorf("unexpected breaker defaults: %+v", cfg.Embedding.Breaker)
	}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaulted config must validate: %v", err)
	}
}

func TestApplyDefaults_RateLimitBurst(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.RateLimitRPS = 10
	cfg.ApplyDefaults()

	if cfg.HTTP.RateLimitBurst != 20 {
		t.Errorf("burst default = %d, want 2x rps", cfg.HTTP.RateLimitBurst)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("REELRANK_TEST_ADDR", "redis:7000")

	in := []byte("addr: ${REELRANK_TEST_ADDR}\npath: ${REELRANK_TEST_MISSING:-/tmp/db}\nempty: ${REELRANK_TEST_MISSING}")
	got := string(expandEnvVars(in))
	want := "addr: redis:7000\npath: /tmp/db\nempty: "

	if got != want {
		t.Errorf("expandEnvVars:\ngot:  %q\nwant: %q", got, want)
	}
}
