// Package config loads and validates application configuration from YAML
// files with environment-variable overrides. It provides typed structs for
// every subsystem (Crawler, Vocabulary, Index, Postgres, Kafka, Redis, etc.).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Crawler    CrawlerConfig    `yaml:"crawler"`
	Vocabulary VocabularyConfig `yaml:"vocabulary"`
	Index      IndexConfig      `yaml:"index"`
	Server     ServerConfig     `yaml:"server"`
	Postgres   PostgresConfig   `yaml:"postgres"`
	Kafka      KafkaConfig      `yaml:"kafka"`
	Redis      RedisConfig      `yaml:"redis"`
	Logging    LoggingConfig    `yaml:"logging"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

// CrawlerConfig controls the worker pool and frontier.
type CrawlerConfig struct {
	Workers      int           `yaml:"workers"`
	QueueDepth   int           `yaml:"queueDepth"`
	FetchTimeout time.Duration `yaml:"fetchTimeout"`
	// ReseedLinks enables recursive crawling: links discovered on a page
	// are fed back into the frontier. Disabled by default to bound crawl
	// size; combine with MaxDocuments when enabling.
	ReseedLinks  bool `yaml:"reseedLinks"`
	MaxDocuments int  `yaml:"maxDocuments"`
	// PerHostRate limits fetches per host within PerHostWindow. Zero
	// disables politeness limiting.
	PerHostRate   int           `yaml:"perHostRate"`
	PerHostWindow time.Duration `yaml:"perHostWindow"`
	UserAgent     string        `yaml:"userAgent"`
	ProgressEvery int           `yaml:"progressEvery"`
}

// VocabularyConfig points at the closed term vocabulary and scoring weights.
type VocabularyConfig struct {
	TermsFile       string             `yaml:"termsFile"`
	FrequencyFile   string             `yaml:"frequencyFile"`
	DivisionWeights map[string]float64 `yaml:"divisionWeights"`
}

// IndexConfig controls index pruning and snapshot persistence.
type IndexConfig struct {
	SnapshotPath string `yaml:"snapshotPath"`
	// PruneBelow removes terms whose bucket holds fewer postings after the
	// crawl completes. Zero disables pruning.
	PruneBelow int `yaml:"pruneBelow"`
}

// ServerConfig holds the query service HTTP settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
	DefaultLimit    int           `yaml:"defaultLimit"`
	MaxResults      int           `yaml:"maxResults"`
}

// PostgresConfig holds PostgreSQL connection parameters for the crawl
// archive. Enabled gates the archive entirely.
type PostgresConfig struct {
	Enabled         bool          `yaml:"enabled"`
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Database        string        `yaml:"database"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"sslMode"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

// DSN returns a lib/pq-compatible data source name.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// KafkaConfig holds broker and topic settings for crawl events and the
// external seed feed.
type KafkaConfig struct {
	Enabled       bool        `yaml:"enabled"`
	Brokers       []string    `yaml:"brokers"`
	ConsumerGroup string      `yaml:"consumerGroup"`
	Topics        KafkaTopics `yaml:"topics"`
}

// KafkaTopics maps logical topic names to their Kafka topic strings.
type KafkaTopics struct {
	CrawlEvents string `yaml:"crawlEvents"`
	SeedFeed    string `yaml:"seedFeed"`
}

// RedisConfig holds Redis connection and query-cache parameters.
type RedisConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	PoolSize int           `yaml:"poolSize"`
	CacheTTL time.Duration `yaml:"cacheTTL"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads a YAML config file (if provided) and applies
// environment-variable overrides. Missing values fall back to defaults.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate enforces the frontier sizing rule: a blocking enqueue from
// within a worker can only be deadlock-free if the queue is strictly
// deeper than the pool.
func (c *Config) Validate() error {
	if c.Crawler.Workers < 1 {
		return fmt.Errorf("crawler.workers must be at least 1, got %d", c.Crawler.Workers)
	}
	if c.Crawler.QueueDepth <= c.Crawler.Workers {
		return fmt.Errorf(
			"crawler.queueDepth (%d) must exceed crawler.workers (%d)",
			c.Crawler.QueueDepth, c.Crawler.Workers,
		)
	}
	if c.Crawler.FetchTimeout <= 0 {
		return fmt.Errorf("crawler.fetchTimeout must be positive")
	}
	return nil
}

func defaultConfig() *Config {
	return &Config{
		Crawler: CrawlerConfig{
			Workers:       20,
			QueueDepth:    256,
			FetchTimeout:  5 * time.Second,
			ReseedLinks:   false,
			MaxDocuments:  0,
			PerHostRate:   0,
			PerHostWindow: time.Second,
			UserAgent:     "termcrawl/1.0",
			ProgressEvery: 10,
		},
		Vocabulary: VocabularyConfig{
			TermsFile: "configs/vocabulary.yaml",
			DivisionWeights: map[string]float64{
				"title": 3.0,
				"h1":    2.5,
				"h2":    2.0,
				"p":     1.0,
			},
		},
		Index: IndexConfig{
			SnapshotPath: "data/index.snap",
			PruneBelow:   0,
		},
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			DefaultLimit:    20,
			MaxResults:      100,
		},
		Postgres: PostgresConfig{
			Enabled:         false,
			Host:            "localhost",
			Port:            5432,
			Database:        "termcrawl",
			User:            "termcrawl",
			Password:        "localdev",
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Kafka: KafkaConfig{
			Enabled:       false,
			Brokers:       []string{"localhost:9092"},
			ConsumerGroup: "termcrawl-group",
			Topics: KafkaTopics{
				CrawlEvents: "crawl-events",
				SeedFeed:    "crawl-seeds",
			},
		},
		Redis: RedisConfig{
			Enabled:  false,
			Addr:     "localhost:6379",
			Password: "",
			DB:       0,
			PoolSize: 10,
			CacheTTL: 60 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
		},
	}
}

// applyEnvOverrides reads TC_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TC_CRAWLER_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Crawler.Workers = n
		}
	}
	if v := os.Getenv("TC_CRAWLER_QUEUE_DEPTH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Crawler.QueueDepth = n
		}
	}
	if v := os.Getenv("TC_CRAWLER_RESEED_LINKS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Crawler.ReseedLinks = b
		}
	}
	if v := os.Getenv("TC_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("TC_POSTGRES_HOST"); v != "" {
		cfg.Postgres.Host = v
	}
	if v := os.Getenv("TC_POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.Port = port
		}
	}
	if v := os.Getenv("TC_POSTGRES_DATABASE"); v != "" {
		cfg.Postgres.Database = v
	}
	if v := os.Getenv("TC_POSTGRES_USER"); v != "" {
		cfg.Postgres.User = v
	}
	if v := os.Getenv("TC_POSTGRES_PASSWORD"); v != "" {
		cfg.Postgres.Password = v
	}
	if v := os.Getenv("TC_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("TC_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("TC_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("TC_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("TC_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}
