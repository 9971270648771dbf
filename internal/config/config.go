// Package config loads and validates magsearch configuration.
// Values come from defaults, then an optional YAML file, then
// MAGSEARCH_* environment variables, highest priority last.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hexline/magsearch/internal/errors"
)

// Config is the complete magsearch configuration.
type Config struct {
	Database   DatabaseConfig   `yaml:"database"`
	Server     ServerConfig     `yaml:"server"`
	Search     SearchConfig     `yaml:"search"`
	Embeddings EmbeddingsConfig `yaml:"embeddings"`
	Ingest     IngestConfig     `yaml:"ingest"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// DatabaseConfig configures the SQLite store.
type DatabaseConfig struct {
	// Path is the SQLite database file. ":memory:" creates an in-memory store.
	Path string `yaml:"path"`
}

// ServerConfig configures the HTTP facade.
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Addr returns the listen address in host:port form.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// SearchConfig configures hybrid search behaviour.
type SearchConfig struct {
	// MaxResults caps the number of rows a search returns.
	MaxResults int `yaml:"max_results"`
}

// EmbeddingsConfig configures the embedding provider.
type EmbeddingsConfig struct {
	// CacheSize is the number of query embeddings kept in the LRU cache.
	CacheSize int `yaml:"cache_size"`
}

// IngestConfig configures the batch ingestion pipeline.
type IngestConfig struct {
	// InfoPath is the default magazine metadata CSV.
	InfoPath string `yaml:"info_path"`
	// ContentPath is the default magazine content CSV.
	ContentPath string `yaml:"content_path"`
	// LockPath is the lock file guarding against concurrent ingestion runs.
	// Empty derives "<database path>.lock".
	LockPath string `yaml:"lock_path"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	Level    string `yaml:"level"`
	FilePath string `yaml:"file_path"`
}

// Default returns the built-in configuration defaults.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path: "magsearch.db",
		},
		Server: ServerConfig{
			Host:            "127.0.0.1",
			Port:            8080,
			ReadTimeout:     10 * time.Second,
			ShutdownTimeout: 5 * time.Second,
		},
		Search: SearchConfig{
			MaxResults: 10,
		},
		Embeddings: EmbeddingsConfig{
			CacheSize: 1000,
		},
		Ingest: IngestConfig{
			InfoPath:    "data/magazine_info.csv",
			ContentPath: "data/magazine_content.csv",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from the given YAML file, applying defaults and
// environment overrides. An empty path skips the file entirely.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Newf(errors.CodeConfigInvalid, err, "failed to read config file %s", path)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Newf(errors.CodeConfigInvalid, err, "failed to parse config file %s", path)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides applies MAGSEARCH_* environment variables.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("MAGSEARCH_DB_PATH"); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv("MAGSEARCH_HOST"); v != "" {
		c.Server.Host = v
	}
	if v := os.Getenv("MAGSEARCH_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("MAGSEARCH_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return errors.New(errors.CodeConfigInvalid, "database path must not be empty", nil)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return errors.Newf(errors.CodeConfigInvalid, nil, "server port %d out of range", c.Server.Port)
	}
	if c.Search.MaxResults <= 0 {
		return errors.Newf(errors.CodeConfigInvalid, nil, "search max_results must be positive, got %d", c.Search.MaxResults)
	}
	return nil
}

// IngestLockPath returns the configured ingestion lock path, deriving it
// from the database path when unset.
func (c *Config) IngestLockPath() string {
	if c.Ingest.LockPath != "" {
		return c.Ingest.LockPath
	}
	return c.Database.Path + ".lock"
}
