// Package config loads and validates the YAML configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"codechunk/internal/embedder"
)

// FileName is the configuration file looked up in a project directory.
const FileName = "codechunk.yaml"

// Config holds all configuration for the indexing and search pipeline.
type Config struct {
	Storage   StorageConfig   `yaml:"storage"`
	Index     IndexConfig     `yaml:"index"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Search    SearchConfig    `yaml:"search"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// StorageConfig holds database location configuration.
type StorageConfig struct {
	Path string `yaml:"path"` // Directory holding the index database
}

// IndexConfig holds file discovery and indexing configuration.
type IndexConfig struct {
	Includes []string `yaml:"includes"` // Include globs (empty: every supported language)
	Excludes []string `yaml:"excludes"` // Extra exclude globs
	Workers  int      `yaml:"workers"`  // Concurrent workers (0: CPU count)
	Embed    bool     `yaml:"embed"`    // Generate embeddings while indexing
}

// EmbeddingConfig holds embedding provider configuration.
type EmbeddingConfig struct {
	Provider  string `yaml:"provider"`    // "local", "jina", "openai"
	Model     string `yaml:"model"`       // Empty: provider default
	APIKeyEnv string `yaml:"api_key_env"` // Environment variable holding the API key
	Dimension int    `yaml:"dimension"`
	BatchSize int    `yaml:"batch_size"`
	CacheSize int    `yaml:"cache_size"`
}

// SearchConfig holds search defaults.
type SearchConfig struct {
	Mode      string `yaml:"mode"`       // "hybrid", "vector", "fts", "symbol"
	Limit     int    `yaml:"limit"`      // Default result count
	CacheSize int    `yaml:"cache_size"` // Response cache entries
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns the default configuration. The defaults work
// offline: the local embedding provider needs no API key.
func DefaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			Path: "~/.codechunk",
		},
		Index: IndexConfig{
			Workers: 0,
			Embed:   false,
		},
		Embedding: EmbeddingConfig{
			Provider:  embedder.ProviderLocal,
			Dimension: embedder.LocalDimension,
			BatchSize: embedder.DefaultBatchSize,
			CacheSize: 10000,
		},
		Search: SearchConfig{
			Mode:      "hybrid",
			Limit:     10,
			CacheSize: 1000,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from a YAML file, overlaying the defaults.
// A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration in %s: %w", path, err)
	}

	return cfg, nil
}

// LoadFromDir loads configuration for a project directory, trying
// codechunk.yaml and .codechunk/config.yaml before falling back to the
// defaults.
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, FileName)
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".codechunk", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate checks field values that would otherwise fail deep inside the
// pipeline.
func (c *Config) Validate() error {
	switch c.Search.Mode {
	case "hybrid", "vector", "fts", "symbol":
	default:
		return fmt.Errorf("unknown search mode %q", c.Search.Mode)
	}

	if c.Search.Limit < 1 || c.Search.Limit > 100 {
		return fmt.Errorf("search limit must be between 1 and 100, got %d", c.Search.Limit)
	}
	if c.Search.CacheSize < 0 {
		return fmt.Errorf("search cache size cannot be negative, got %d", c.Search.CacheSize)
	}

	if c.Index.Workers < 0 {
		return fmt.Errorf("worker count cannot be negative, got %d", c.Index.Workers)
	}

	switch c.Embedding.Provider {
	case embedder.ProviderLocal, embedder.ProviderJina, embedder.ProviderOpenAI:
	default:
		return fmt.Errorf("unknown embedding provider %q", c.Embedding.Provider)
	}

	if c.Embedding.BatchSize < 1 || c.Embedding.BatchSize > embedder.MaxBatchSize {
		return fmt.Errorf("embedding batch size must be between 1 and %d, got %d", embedder.MaxBatchSize, c.Embedding.BatchSize)
	}

	return nil
}

// Embedder builds the embedding provider the configuration describes.
// The API key is read from APIKeyEnv when set; the provider falls back to
// its own environment variables otherwise.
func (c *Config) Embedder() (embedder.Embedder, error) {
	apiKey := ""
	if c.Embedding.APIKeyEnv != "" {
		apiKey = os.Getenv(c.Embedding.APIKeyEnv)
	}

	return embedder.New(embedder.Config{
		Provider:  c.Embedding.Provider,
		APIKey:    apiKey,
		CacheSize: c.Embedding.CacheSize,
	})
}

// DatabaseDir returns the storage directory with a leading ~ expanded.
func (c *Config) DatabaseDir() (string, error) {
	return ExpandHome(c.Storage.Path)
}

// ExpandHome expands a leading ~ or ~/ to the user's home directory.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	if path == "~" {
		return home, nil
	}
	return filepath.Join(home, path[2:]), nil
}
