// Package config defines all configuration structures for the CatalogMatch
// service.  No I/O or parsing logic lives here — only plain data types and
// validation.
package config

import (
	"fmt"
	"time"

	"github.com/turtacn/CatalogMatch/internal/matching"
)

// ─────────────────────────────────────────────────────────────────────────────
// Sub-configuration structs
// ─────────────────────────────────────────────────────────────────────────────

// ServerConfig holds HTTP server tunables.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // "debug" | "release" | "test"
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	MaxBodySize     int64         `mapstructure:"max_body_size"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"db_name"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxConns        int           `mapstructure:"max_conns"`
	MinConns        int           `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	MigrationPath   string        `mapstructure:"migration_path"`
}

// RedisConfig holds Redis connection parameters.  Redis is optional: with an
// empty Addr the service runs without the read-through cache.
type RedisConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	DefaultTTL   time.Duration `mapstructure:"default_ttl"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
}

// KafkaConfig holds Kafka producer/consumer parameters for the batch worker.
type KafkaConfig struct {
	Brokers         []string      `mapstructure:"brokers"`
	GroupID         string        `mapstructure:"group_id"`
	RequestTopic    string        `mapstructure:"request_topic"`
	ResultTopic     string        `mapstructure:"result_topic"`
	StartOffset     string        `mapstructure:"start_offset"` // "earliest" | "latest"
	CommitInterval  time.Duration `mapstructure:"commit_interval"`
	ProducerRetries int           `mapstructure:"producer_retries"`
	BatchTimeout    time.Duration `mapstructure:"batch_timeout"`
}

// OpenSearchConfig holds OpenSearch cluster parameters.  OpenSearch is
// optional: with no addresses, substring search falls back to PostgreSQL.
type OpenSearchConfig struct {
	Enabled            bool     `mapstructure:"enabled"`
	Addresses          []string `mapstructure:"addresses"`
	User               string   `mapstructure:"user"`
	Password           string   `mapstructure:"password"`
	InsecureSkipVerify bool     `mapstructure:"insecure_skip_verify"`
	IndexPrefix        string   `mapstructure:"index_prefix"`
}

// MilvusConfig holds Milvus vector-store connection parameters.
type MilvusConfig struct {
	Enabled          bool   `mapstructure:"enabled"`
	Addr             string `mapstructure:"addr"`
	DBName           string `mapstructure:"db_name"`
	CollectionPrefix string `mapstructure:"collection_prefix"`
}

// EmbeddingConfig holds the embedding provider endpoint parameters.  The
// provider speaks the OpenAI embeddings wire format.
type EmbeddingConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	BaseURL   string        `mapstructure:"base_url"`
	APIKey    string        `mapstructure:"api_key"`
	Model     string        `mapstructure:"model"`
	Dimension int           `mapstructure:"dimension"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// MatchingConfig holds the suggestion-engine tunables.  Zero-value fields
// take the engine defaults; Validate runs at engine construction, so a bad
// override fails startup, not requests.
type MatchingConfig struct {
	CrossReferenceScore float64       `mapstructure:"cross_reference_score"`
	KeyExactScore       float64       `mapstructure:"key_exact_score"`
	KeyPartialScore     float64       `mapstructure:"key_partial_score"`
	KeyNameHitScore     float64       `mapstructure:"key_name_hit_score"`
	NameContainScore    float64       `mapstructure:"name_contain_score"`
	NameFuzzyScore      float64       `mapstructure:"name_fuzzy_score"`
	SemanticGate        float64       `mapstructure:"semantic_gate"`
	MinSimilarity       float64       `mapstructure:"min_similarity"`
	TopN                int           `mapstructure:"top_n"`
	SearchLimit         int           `mapstructure:"search_limit"`
	NeighborK           int           `mapstructure:"neighbor_k"`
	Concurrency         int           `mapstructure:"concurrency"`
	StoreTimeout        time.Duration `mapstructure:"store_timeout"`
	EmbedTimeout        time.Duration `mapstructure:"embed_timeout"`
	VectorTimeout       time.Duration `mapstructure:"vector_timeout"`
}

// ToParams merges the configured overrides onto the engine defaults.  Scores
// are only overridden when explicitly set; a zero in the file means "use the
// default", never "score zero".
func (m MatchingConfig) ToParams() matching.Params {
	p := matching.DefaultParams()
	if m.CrossReferenceScore > 0 {
		p.CrossReferenceScore = m.CrossReferenceScore
	}
	if m.KeyExactScore > 0 {
		p.KeyExactScore = m.KeyExactScore
	}
	if m.KeyPartialScore > 0 {
		p.KeyPartialScore = m.KeyPartialScore
	}
	if m.KeyNameHitScore > 0 {
		p.KeyNameHitScore = m.KeyNameHitScore
	}
	if m.NameContainScore > 0 {
		p.NameContainScore = m.NameContainScore
	}
	if m.NameFuzzyScore > 0 {
		p.NameFuzzyScore = m.NameFuzzyScore
	}
	if m.SemanticGate > 0 {
		p.SemanticGate = m.SemanticGate
	}
	if m.MinSimilarity > 0 {
		p.MinSimilarity = m.MinSimilarity
	}
	if m.TopN > 0 {
		p.TopN = m.TopN
	}
	if m.SearchLimit > 0 {
		p.SearchLimit = m.SearchLimit
	}
	if m.NeighborK > 0 {
		p.NeighborK = m.NeighborK
	}
	if m.Concurrency > 0 {
		p.Concurrency = m.Concurrency
	}
	if m.StoreTimeout > 0 {
		p.StoreTimeout = m.StoreTimeout
	}
	if m.EmbedTimeout > 0 {
		p.EmbedTimeout = m.EmbedTimeout
	}
	if m.VectorTimeout > 0 {
		p.VectorTimeout = m.VectorTimeout
	}
	return p
}

// WorkerConfig holds batch-worker execution parameters.
type WorkerConfig struct {
	Concurrency    int           `mapstructure:"concurrency"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryBackoff   time.Duration `mapstructure:"retry_backoff"`
	MaxBatchItems  int           `mapstructure:"max_batch_items"`
	HandlerTimeout time.Duration `mapstructure:"handler_timeout"`
}

// LogConfig holds structured-logging parameters.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // "debug" | "info" | "warn" | "error"
	Format string `mapstructure:"format"` // "json" | "console"
	Output string `mapstructure:"output"`
}

// MultitenancyConfig holds tenant-isolation parameters.
type MultitenancyConfig struct {
	TenantHeader  string `mapstructure:"tenant_header"`
	DefaultTenant string `mapstructure:"default_tenant"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Root Config
// ─────────────────────────────────────────────────────────────────────────────

// Config is the root configuration structure for the whole service.  Every
// infrastructure component reads its settings from the relevant sub-struct.
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Redis        RedisConfig        `mapstructure:"redis"`
	Kafka        KafkaConfig        `mapstructure:"kafka"`
	OpenSearch   OpenSearchConfig   `mapstructure:"opensearch"`
	Milvus       MilvusConfig       `mapstructure:"milvus"`
	Embedding    EmbeddingConfig    `mapstructure:"embedding"`
	Matching     MatchingConfig     `mapstructure:"matching"`
	Worker       WorkerConfig       `mapstructure:"worker"`
	Log          LogConfig          `mapstructure:"log"`
	Multitenancy MultitenancyConfig `mapstructure:"multitenancy"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Validation
// ─────────────────────────────────────────────────────────────────────────────

// Validate performs semantic validation of the fully-populated Config.  It
// returns the first error encountered; callers should treat any error as
// fatal and refuse to start the service.
func (c *Config) Validate() error {
	// Server
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d is out of range [1, 65535]", c.Server.Port)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("config: server.mode %q is invalid; expected debug|release|test", c.Server.Mode)
	}

	// Database
	if c.Database.Host == "" {
		return fmt.Errorf("config: database.host is required")
	}
	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("config: database.port %d is out of range [1, 65535]", c.Database.Port)
	}
	if c.Database.User == "" {
		return fmt.Errorf("config: database.user is required")
	}
	if c.Database.DBName == "" {
		return fmt.Errorf("config: database.db_name is required")
	}
	if c.Database.MaxConns < 1 {
		return fmt.Errorf("config: database.max_conns must be ≥ 1, got %d", c.Database.MaxConns)
	}

	// Redis
	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			return fmt.Errorf("config: redis.addr is required when redis is enabled")
		}
		if c.Redis.DB < 0 {
			return fmt.Errorf("config: redis.db must be ≥ 0, got %d", c.Redis.DB)
		}
	}

	// Kafka, only checked when a worker consumes it
	if len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("config: kafka.brokers must contain at least one broker address")
	}
	if c.Kafka.GroupID == "" {
		return fmt.Errorf("config: kafka.group_id is required")
	}

	// OpenSearch
	if c.OpenSearch.Enabled && len(c.OpenSearch.Addresses) == 0 {
		return fmt.Errorf("config: opensearch.addresses is required when opensearch is enabled")
	}

	// Milvus and embedding come as a pair: the semantic tier needs both.
	if c.Milvus.Enabled != c.Embedding.Enabled {
		return fmt.Errorf("config: milvus.enabled and embedding.enabled must match; semantic search needs both")
	}
	if c.Milvus.Enabled && c.Milvus.Addr == "" {
		return fmt.Errorf("config: milvus.addr is required when milvus is enabled")
	}
	if c.Embedding.Enabled {
		if c.Embedding.BaseURL == "" {
			return fmt.Errorf("config: embedding.base_url is required when embedding is enabled")
		}
		if c.Embedding.Dimension < 1 {
			return fmt.Errorf("config: embedding.dimension must be ≥ 1, got %d", c.Embedding.Dimension)
		}
	}

	// Matching tunables are validated by the engine at construction.
	if err := c.Matching.ToParams().Validate(); err != nil {
		return fmt.Errorf("config: matching: %w", err)
	}

	// Worker
	if c.Worker.Concurrency < 1 {
		return fmt.Errorf("config: worker.concurrency must be ≥ 1, got %d", c.Worker.Concurrency)
	}

	// Log
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config: log.format %q is invalid; expected json|console", c.Log.Format)
	}

	// Multitenancy
	if c.Multitenancy.TenantHeader == "" {
		return fmt.Errorf("config: multitenancy.tenant_header is required")
	}

	return nil
}
