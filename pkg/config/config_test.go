package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Crawler.Workers != 20 {
		t.Errorf("Workers = %d, want 20", cfg.Crawler.Workers)
	}
	if cfg.Crawler.QueueDepth != 256 {
		t.Errorf("QueueDepth = %d, want 256", cfg.Crawler.QueueDepth)
	}
	if cfg.Crawler.FetchTimeout != 5*time.Second {
		t.Errorf("FetchTimeout = %v", cfg.Crawler.FetchTimeout)
	}
	if cfg.Vocabulary.DivisionWeights["title"] != 3.0 {
		t.Errorf("title weight = %v, want 3.0", cfg.Vocabulary.DivisionWeights["title"])
	}
	if cfg.Postgres.Enabled || cfg.Kafka.Enabled || cfg.Redis.Enabled {
		t.Error("external-service integrations enabled by default")
	}
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
crawler:
  workers: 4
  queueDepth: 64
  fetchTimeout: 2s
server:
  port: 9999
logging:
  level: debug
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Crawler.Workers != 4 {
		t.Errorf("Workers = %d, want 4", cfg.Crawler.Workers)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("Port = %d, want 9999", cfg.Server.Port)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Level = %q, want debug", cfg.Logging.Level)
	}
	// Fields missing from the file keep their defaults.
	if cfg.Server.DefaultLimit != 20 {
		t.Errorf("DefaultLimit = %d, want default 20", cfg.Server.DefaultLimit)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("missing file: want error")
	}
	if _, err := Load(writeConfig(t, "{bad yaml")); err == nil {
		t.Error("malformed yaml: want error")
	}
}

func TestValidateQueueDepthRule(t *testing.T) {
	tests := []struct {
		name       string
		workers    int
		queueDepth int
		wantErr    bool
	}{
		{"depth exceeds workers", 4, 5, false},
		{"depth equals workers", 4, 4, true},
		{"depth below workers", 8, 4, true},
		{"zero workers", 0, 10, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			cfg.Crawler.Workers = tt.workers
			cfg.Crawler.QueueDepth = tt.queueDepth
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && tt.workers >= 1 && !strings.Contains(err.Error(), "queueDepth") {
				t.Errorf("error %q does not name queueDepth", err)
			}
		})
	}
}

func TestValidateFetchTimeout(t *testing.T) {
	cfg := defaultConfig()
	cfg.Crawler.FetchTimeout = 0
	if err := cfg.Validate(); err == nil {
		t.Error("zero fetchTimeout: want error")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("TC_CRAWLER_WORKERS", "8")
	t.Setenv("TC_CRAWLER_QUEUE_DEPTH", "100")
	t.Setenv("TC_LOGGING_LEVEL", "warn")
	t.Setenv("TC_KAFKA_BROKERS", "k1:9092,k2:9092")

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Crawler.Workers != 8 {
		t.Errorf("Workers = %d, want 8", cfg.Crawler.Workers)
	}
	if cfg.Crawler.QueueDepth != 100 {
		t.Errorf("QueueDepth = %d, want 100", cfg.Crawler.QueueDepth)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Level = %q, want warn", cfg.Logging.Level)
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "k2:9092" {
		t.Errorf("Brokers = %v", cfg.Kafka.Brokers)
	}
}

func TestEnvOverrideCanFailValidation(t *testing.T) {
	t.Setenv("TC_CRAWLER_WORKERS", "300")
	// Default queue depth of 256 no longer exceeds the worker count.
	if _, err := Load(""); err == nil {
		t.Error("want validation error when override breaks sizing rule")
	}
}

func TestPostgresDSN(t *testing.T) {
	p := PostgresConfig{
		Host: "db.internal", Port: 5433, User: "svc", Password: "secret",
		Database: "termcrawl", SSLMode: "require",
	}
	dsn := p.DSN()
	for _, part := range []string{"host=db.internal", "port=5433", "user=svc", "dbname=termcrawl", "sslmode=require"} {
		if !strings.Contains(dsn, part) {
			t.Errorf("DSN missing %q: %s", part, dsn)
		}
	}
}
