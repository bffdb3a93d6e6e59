// Package config loads application configuration from a YAML file with
// environment-variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/kb-query/kb-query-go/pkg/models"
)

// Config holds the application configuration.
type Config struct {
	Ontology  OntologyConfig  `yaml:"ontology"`
	Query     QueryConfig     `yaml:"query"`
	Cache     CacheConfig     `yaml:"cache"`
	Endpoint  models.Endpoint `yaml:"endpoint"`
	Server    ServerConfig    `yaml:"server"`
	LogLevel  string          `yaml:"log_level"`
	LogFormat string          `yaml:"log_format"`
}

// OntologyConfig locates the ontology file.
type OntologyConfig struct {
	Path string `yaml:"path"`
}

// QueryConfig tunes the matching and building pipeline.
type QueryConfig struct {
	DefaultLimit        int     `yaml:"default_limit"`
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
	DefaultFormat       string  `yaml:"default_format"`
}

// CacheConfig selects the grammar cache backend.
type CacheConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"` // sqlite file; empty selects in-memory
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port string `yaml:"port"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Query: QueryConfig{
			DefaultLimit:        100,
			SimilarityThreshold: 0.7,
			DefaultFormat:       "table",
		},
		Cache:     CacheConfig{Enabled: true},
		Server:    ServerConfig{Port: "8080"},
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// Load reads configuration from a YAML file (when path is non-empty) and
// applies environment-variable overrides on top of the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	cfg.Ontology.Path = getEnv("KBQUERY_ONTOLOGY", cfg.Ontology.Path)
	cfg.Query.DefaultLimit = getEnvAsInt("KBQUERY_DEFAULT_LIMIT", cfg.Query.DefaultLimit)
	cfg.Query.DefaultFormat = getEnv("KBQUERY_FORMAT", cfg.Query.DefaultFormat)
	cfg.Cache.Path = getEnv("KBQUERY_CACHE_PATH", cfg.Cache.Path)
	cfg.Endpoint.URL = getEnv("KBQUERY_ENDPOINT_URL", cfg.Endpoint.URL)
	cfg.Server.Port = getEnv("KBQUERY_PORT", cfg.Server.Port)
	cfg.LogLevel = getEnv("KBQUERY_LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnv("KBQUERY_LOG_FORMAT", cfg.LogFormat)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration invariants.
func (c *Config) Validate() error {
	if c.Query.DefaultLimit <= 0 {
		return fmt.Errorf("query.default_limit must be positive")
	}
	if c.Query.SimilarityThreshold <= 0 || c.Query.SimilarityThreshold > 1 {
		return fmt.Errorf("query.similarity_threshold must be in (0, 1]")
	}
	if c.Endpoint.URL != "" {
		if err := c.Endpoint.Validate(); err != nil {
			return fmt.Errorf("endpoint: %w", err)
		}
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
