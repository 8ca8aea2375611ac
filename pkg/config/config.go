// Package config loads and validates the search server configuration from a
// YAML or TOML file with environment-variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server" toml:"server"`
	Redis    RedisConfig    `yaml:"redis" toml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka" toml:"kafka"`
	Indexer  IndexerConfig  `yaml:"indexer" toml:"indexer"`
	Search   SearchConfig   `yaml:"search" toml:"search"`
	Requests RequestsConfig `yaml:"requests" toml:"requests"`
	Logging  LoggingConfig  `yaml:"logging" toml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics" toml:"metrics"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port" toml:"port"`
	ReadTimeout     time.Duration `yaml:"readTimeout" toml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout" toml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout" toml:"shutdownTimeout"`
}

// RedisConfig holds the result cache connection. An empty Addr disables
// caching.
type RedisConfig struct {
	Addr      string        `yaml:"addr" toml:"addr"`
	Password  string        `yaml:"password" toml:"password"`
	DB        int           `yaml:"db" toml:"db"`
	PoolSize  int           `yaml:"poolSize" toml:"poolSize"`
	CacheTTL  time.Duration `yaml:"cacheTTL" toml:"cacheTTL"`
	OpTimeout time.Duration `yaml:"opTimeout" toml:"opTimeout"`
}

// KafkaConfig holds broker and topic settings. Ingest and analytics are off
// unless enabled.
type KafkaConfig struct {
	Brokers          []string    `yaml:"brokers" toml:"brokers"`
	ConsumerGroup    string      `yaml:"consumerGroup" toml:"consumerGroup"`
	Topics           KafkaTopics `yaml:"topics" toml:"topics"`
	IngestEnabled    bool        `yaml:"ingestEnabled" toml:"ingestEnabled"`
	AnalyticsEnabled bool        `yaml:"analyticsEnabled" toml:"analyticsEnabled"`
}

// KafkaTopics maps logical topic names to their Kafka topic strings.
type KafkaTopics struct {
	DocumentIngest  string `yaml:"documentIngest" toml:"documentIngest"`
	AnalyticsEvents string `yaml:"analyticsEvents" toml:"analyticsEvents"`
}

// IndexerConfig lists the stop-words, either as a list, as space-separated
// text, or both.
type IndexerConfig struct {
	StopWords     []string `yaml:"stopWords" toml:"stopWords"`
	StopWordsText string   `yaml:"stopWordsText" toml:"stopWordsText"`
}

// SearchConfig selects the ranking path and sizes the parallel one.
// LocalCacheSize > 0 enables an in-process result cache when Redis is not
// available.
type SearchConfig struct {
	Mode              string `yaml:"mode" toml:"mode"`
	Workers           int    `yaml:"workers" toml:"workers"`
	AccumulatorShards int    `yaml:"accumulatorShards" toml:"accumulatorShards"`
	LocalCacheSize    int    `yaml:"localCacheSize" toml:"localCacheSize"`
}

// RequestsConfig sizes the request tracker window, in ticks.
type RequestsConfig struct {
	Window int `yaml:"window" toml:"window"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

// MetricsConfig controls the Prometheus endpoint. A Port of 0 serves
// /metrics on the main server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled" toml:"enabled"`
	Port    int  `yaml:"port" toml:"port"`
}

// Load reads a config file (if provided), applies SP_* environment
// overrides and validates the result. The format follows the file
// extension: .toml for TOML, anything else for YAML.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".toml":
			err = toml.Unmarshal(data, cfg)
		default:
			err = yaml.Unmarshal(data, cfg)
		}
		if err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Redis: RedisConfig{
			PoolSize:  10,
			CacheTTL:  60 * time.Second,
			OpTimeout: 200 * time.Millisecond,
		},
		Kafka: KafkaConfig{
			Brokers:       []string{"localhost:9092"},
			ConsumerGroup: "search-server",
			Topics: KafkaTopics{
				DocumentIngest:  "document-ingest",
				AnalyticsEvents: "search-events",
			},
		},
		Indexer: IndexerConfig{
			StopWordsText: "and in on with a the",
		},
		Search: SearchConfig{
			Mode:              "sequential",
			Workers:           4,
			AccumulatorShards: 8,
		},
		Requests: RequestsConfig{
			Window: 1440,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	switch c.Search.Mode {
	case "sequential", "parallel":
	default:
		return fmt.Errorf("search.mode must be sequential or parallel, got %q", c.Search.Mode)
	}
	if c.Search.Workers < 1 {
		return fmt.Errorf("search.workers must be positive, got %d", c.Search.Workers)
	}
	if c.Search.AccumulatorShards < 1 {
		return fmt.Errorf("search.accumulatorShards must be positive, got %d", c.Search.AccumulatorShards)
	}
	if c.Requests.Window < 1 {
		return fmt.Errorf("requests.window must be positive, got %d", c.Requests.Window)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if (c.Kafka.IngestEnabled || c.Kafka.AnalyticsEnabled) && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers is required when kafka is enabled")
	}
	return nil
}

// applyEnvOverrides reads SP_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SP_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("SP_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("SP_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("SP_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("SP_KAFKA_INGEST_ENABLED"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			cfg.Kafka.IngestEnabled = enabled
		}
	}
	if v := os.Getenv("SP_KAFKA_ANALYTICS_ENABLED"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			cfg.Kafka.AnalyticsEnabled = enabled
		}
	}
	if v := os.Getenv("SP_STOP_WORDS"); v != "" {
		cfg.Indexer.StopWordsText = v
		cfg.Indexer.StopWords = nil
	}
	if v := os.Getenv("SP_SEARCH_MODE"); v != "" {
		cfg.Search.Mode = v
	}
	if v := os.Getenv("SP_SEARCH_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Search.Workers = n
		}
	}
	if v := os.Getenv("SP_REQUESTS_WINDOW"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Requests.Window = n
		}
	}
	if v := os.Getenv("SP_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("SP_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}
