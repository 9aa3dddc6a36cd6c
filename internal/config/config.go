// Package config loads the reelrank YAML configuration.
package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the reelrank API configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Catalog   CatalogConfig   `yaml:"catalog"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Index     IndexConfig     `yaml:"index"`
	Ranking   RankingConfig   `yaml:"ranking"`
	Auth      AuthConfig      `yaml:"auth"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int     `yaml:"port"`
	ReadTimeoutSec  int     `yaml:"read_timeout_sec"`
	WriteTimeoutSec int     `yaml:"write_timeout_sec"`
	ShutdownSec     int     `yaml:"shutdown_timeout_sec"`
	RateLimitRPS    float64 `yaml:"rate_limit_rps"`   // 0 = unlimited
	RateLimitBurst  int     `yaml:"rate_limit_burst"` // default 2x rps
}

// DatabaseConfig holds vector database connection settings.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// CatalogConfig holds the relational movie catalog settings.
type CatalogConfig struct {
	Path string `yaml:"path"` // SQLite database file
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	APIKey              string        `yaml:"api_key"`
	BaseURL             string        `yaml:"base_url"`
	Model               string        `yaml:"model"`
	Dimensions          int           `yaml:"dimensions"`
	TimeoutSec          int           `yaml:"timeout_sec"`
	DocumentInstruction string        `yaml:"document_instruction"`
	QueryInstruction    string        `yaml:"query_instruction"`
	Breaker             BreakerConfig `yaml:"breaker"`
}

// BreakerConfig holds circuit breaker settings for the embedding provider.
type BreakerConfig struct {
	MaxFailures int `yaml:"max_failures"` // consecutive failures before opening
	OpenSec     int `yaml:"open_sec"`     // time the breaker stays open
}

// IndexConfig holds vector index and retrieval settings.
type IndexConfig struct {
	Collection          string  `yaml:"collection"`
	HNSWM               int     `yaml:"hnsw_m"`
	HNSWEFConstruct     int     `yaml:"hnsw_ef_construction"`
	CandidateMultiplier int     `yaml:"candidate_multiplier"` // topK = limit * multiplier
	MaxTopK             int     `yaml:"max_top_k"`
	MinScore            float64 `yaml:"min_score"` // hits below this similarity are dropped
}

// RankingConfig holds the score blending weights and aggregation knobs.
// SemanticWeight + RatingWeight + PopularityWeight must sum to 1.
type RankingConfig struct {
	SemanticWeight   float64 `yaml:"semantic_weight"`
	RatingWeight     float64 `yaml:"rating_weight"`
	PopularityWeight float64 `yaml:"popularity_weight"`
	BonusWeight      float64 `yaml:"bonus_weight"`      // multi-hit bonus coefficient
	BonusThreshold   float64 `yaml:"bonus_threshold"`   // minimum similarity for a hit to earn a bonus
	PopularityPivot  float64 `yaml:"popularity_pivot"`  // popularity p normalizes to p/(p+pivot)
	DisableFallback  bool    `yaml:"disable_fallback"`  // surface upstream errors instead of cold start
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.HTTP.RateLimitRPS > 0 && c.HTTP.RateLimitBurst <= 0 {
		c.HTTP.RateLimitBurst = int(c.HTTP.RateLimitRPS * 2)
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Catalog.Path == "" {
		c.Catalog.Path = "reelrank.db"
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "paraphrase-multilingual-MiniLM-L12-v2"
	}
	if c.Embedding.Dimensions <= 0 {
		c.Embedding.Dimensions = 384
	}
	if c.Embedding.TimeoutSec <= 0 {
		c.Embedding.TimeoutSec = 5
	}
	if c.Embedding.Breaker.MaxFailures <= 0 {
		c.Embedding.Breaker.MaxFailures = 5
	}
	if c.Embedding.Breaker.OpenSec <= 0 {
		c.Embedding.Breaker.OpenSec = 30
	}
	if c.Index.Collection == "" {
		c.Index.Collection = "reviews"
	}
	if c.Index.HNSWM <= 0 {
		c.Index.HNSWM = 32
	}
	if c.Index.HNSWEFConstruct <= 0 {
		c.Index.HNSWEFConstruct = 400
	}
	if c.Index.CandidateMultiplier <= 0 {
		c.Index.CandidateMultiplier = 3
	}
	if c.Index.MaxTopK <= 0 {
		c.Index.MaxTopK = 200
	}
	if c.Index.MinScore <= 0 {
		c.Index.MinScore = 0.3
	}
	if c.Ranking.SemanticWeight == 0 && c.Ranking.RatingWeight == 0 && c.Ranking.PopularityWeight == 0 {
		c.Ranking.SemanticWeight = 0.7
		c.Ranking.RatingWeight = 0.2
		c.Ranking.PopularityWeight = 0.1
	}
	if c.Ranking.BonusWeight <= 0 {
		c.Ranking.BonusWeight = 0.15
	}
	if c.Ranking.BonusThreshold <= 0 {
		c.Ranking.BonusThreshold = 0.5
	}
	if c.Ranking.PopularityPivot <= 0 {
		c.Ranking.PopularityPivot = 50
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required")
	}
	sum := c.Ranking.SemanticWeight + c.Ranking.RatingWeight + c.Ranking.PopularityWeight
	if math.Abs(sum-1.0) > 1e-9 {
		return fmt.Errorf("ranking weights must sum to 1, got %g", sum)
	}
	for _, w := range []float64{c.Ranking.SemanticWeight, c.Ranking.RatingWeight, c.Ranking.PopularityWeight} {
		if w < 0 {
			return fmt.Errorf("ranking weights must be non-negative")
		}
	}
	if c.Index.MinScore < 0 || c.Index.MinScore > 1 {
		return fmt.Errorf("index.min_score must be in [0, 1], got %g", c.Index.MinScore)
	}
	if c.Ranking.BonusThreshold < 0 || c.Ranking.BonusThreshold > 1 {
		return fmt.Errorf("ranking.bonus_threshold must be in [0, 1], got %g", c.Ranking.BonusThreshold)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
