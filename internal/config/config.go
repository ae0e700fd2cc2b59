package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"

	apperr "github.com/whalekb/whalekb/internal/pkg/errors"
)

type Config struct {
	Port          int              `json:"port"`
	JWTSecret     string           `json:"jwt_secret"`
	APIKeyHash    string           `json:"api_key_hash"`
	JWTTTLHours   int              `json:"jwt_ttl_hours"`
	LogConfig     logger.LogConfig `json:"log_config"`
	Database      DatabaseConfig   `json:"database"`
	Chunking      ChunkingConfig   `json:"chunking"`
	Embedding     EmbeddingConfig  `json:"embedding"`
	VectorIndex   VectorIndexConfig `json:"vector_index"`
	FileStore     FileStoreConfig  `json:"file_store"`
	CORSAllowlist []string         `json:"cors_allowlist"`
	Jobs          JobsConfig       `json:"jobs"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"db_name"`
	SSLMode  string `json:"ssl_mode"`
}

type ChunkingConfig struct {
	Strategy string `json:"strategy"`
	Size     int    `json:"size"`
	Overlap  int    `json:"overlap"`
}

type EmbeddingConfig struct {
	Provider        string      `json:"provider"`
	Model           string      `json:"model"`
	Dimension       int         `json:"dimension"`
	BatchSize       int         `json:"batch_size"`
	CacheSize       int         `json:"cache_size"`
	CacheTTLMinutes int         `json:"cache_ttl_minutes"`
	Data            interface{} `json:"data"`
}

type VectorIndexConfig struct {
	Backend string      `json:"backend"`
	Data    interface{} `json:"data"`
}

type FileStoreConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type JobsConfig struct {
	IndexSweepSpec   string `json:"index_sweep_spec"`
	CacheCleanupSpec string `json:"cache_cleanup_spec"`
	CacheMaxAgeDays  int    `json:"cache_max_age_days"`
}

// Dimensions of embedding models this deployment knows about. Changing the
// model without changing the dimension (or the other way around) without a
// full reindex corrupts retrieval, so the pairing is rejected at load time.
var knownModelDimensions = map[string]int{
	"text-embedding-004":                     768,
	"gemini-embedding-001":                   3072,
	"text-embedding-3-small":                 1536,
	"text-embedding-3-large":                 3072,
	"text-embedding-ada-002":                 1536,
	"sentence-transformers/all-MiniLM-L6-v2": 384,
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Port == 0 {
		return fmt.Errorf("port is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("jwt_secret is required")
	}
	if c.Database.DSN == "" && c.Database.Host == "" {
		return fmt.Errorf("database.dsn or database.host is required")
	}
	if c.JWTTTLHours == 0 {
		c.JWTTTLHours = 72
	}
	if c.LogConfig.Level == "" {
		c.LogConfig.Level = "info"
	}
	if err := c.validateChunking(); err != nil {
		return err
	}
	if err := c.validateEmbedding(); err != nil {
		return err
	}
	if c.VectorIndex.Backend == "" {
		c.VectorIndex.Backend = "pgvector"
	}
	if c.FileStore.Type == "" {
		c.FileStore.Type = "local"
		c.FileStore.Data = map[string]interface{}{"dir": "./storage/documents"}
	}
	if c.Jobs.IndexSweepSpec == "" {
		c.Jobs.IndexSweepSpec = "30 * * * *"
	}
	if c.Jobs.CacheCleanupSpec == "" {
		c.Jobs.CacheCleanupSpec = "0 4 * * *"
	}
	if c.Jobs.CacheMaxAgeDays == 0 {
		c.Jobs.CacheMaxAgeDays = 30
	}
	return nil
}

func (c *Config) validateChunking() error {
	if c.Chunking.Strategy == "" {
		c.Chunking.Strategy = "fixed"
	}
	switch c.Chunking.Strategy {
	case "fixed", "sentence", "paragraph":
	default:
		return fmt.Errorf("%w: unknown chunking strategy %q", apperr.ErrInvalidConfiguration, c.Chunking.Strategy)
	}
	if c.Chunking.Size == 0 {
		c.Chunking.Size = 512
	}
	if c.Chunking.Size < 100 || c.Chunking.Size > 2000 {
		return fmt.Errorf("%w: chunking.size %d out of range [100,2000]", apperr.ErrInvalidConfiguration, c.Chunking.Size)
	}
	if c.Chunking.Overlap < 0 || c.Chunking.Overlap >= c.Chunking.Size {
		return fmt.Errorf("%w: chunking.overlap %d must satisfy 0 <= overlap < size", apperr.ErrInvalidConfiguration, c.Chunking.Overlap)
	}
	return nil
}

func (c *Config) validateEmbedding() error {
	if c.Embedding.Provider == "" {
		return fmt.Errorf("embedding.provider is required")
	}
	if c.Embedding.Model == "" {
		return fmt.Errorf("embedding.model is required")
	}
	if c.Embedding.Dimension <= 0 {
		return fmt.Errorf("%w: embedding.dimension is required", apperr.ErrInvalidConfiguration)
	}
	if want, ok := knownModelDimensions[c.Embedding.Model]; ok && want != c.Embedding.Dimension {
		return fmt.Errorf("%w: model %s produces %d-dim vectors, config says %d",
			apperr.ErrDimensionMismatch, c.Embedding.Model, want, c.Embedding.Dimension)
	}
	if c.Embedding.BatchSize <= 0 {
		c.Embedding.BatchSize = 32
	}
	if c.Embedding.CacheSize == 0 {
		c.Embedding.CacheSize = 4096
	}
	if c.Embedding.CacheTTLMinutes == 0 {
		c.Embedding.CacheTTLMinutes = 120
	}
	return nil
}
