package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codechunk/internal/embedder"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "~/.codechunk", cfg.Storage.Path)
	assert.Equal(t, embedder.ProviderLocal, cfg.Embedding.Provider)
	assert.Equal(t, embedder.LocalDimension, cfg.Embedding.Dimension)
	assert.Equal(t, embedder.DefaultBatchSize, cfg.Embedding.BatchSize)
	assert.False(t, cfg.Index.Embed)
	assert.Equal(t, 0, cfg.Index.Workers)
	assert.Equal(t, "hybrid", cfg.Search.Mode)
	assert.Equal(t, 10, cfg.Search.Limit)
	assert.Equal(t, 1000, cfg.Search.CacheSize)
	assert.Equal(t, "info", cfg.Logging.Level)

	require.NoError(t, cfg.Validate())
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadPartialOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	content := `search:
  limit: 25
  mode: fts
index:
  excludes:
    - "vendor/**"
    - "node_modules/**"
  embed: true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 25, cfg.Search.Limit)
	assert.Equal(t, "fts", cfg.Search.Mode)
	assert.Equal(t, []string{"vendor/**", "node_modules/**"}, cfg.Index.Excludes)
	assert.True(t, cfg.Index.Embed)

	// Untouched sections keep their defaults.
	assert.Equal(t, embedder.ProviderLocal, cfg.Embedding.Provider)
	assert.Equal(t, "~/.codechunk", cfg.Storage.Path)
	assert.Equal(t, 1000, cfg.Search.CacheSize)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("search: [not: a: mapping"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse")
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("search:\n  mode: psychic\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown search mode")
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)

	cfg := DefaultConfig()
	cfg.Search.Limit = 42
	cfg.Index.Includes = []string{"app/**/*.rb"}
	cfg.Index.Excludes = []string{"vendor/**"}
	cfg.Embedding.Provider = embedder.ProviderJina
	cfg.Embedding.APIKeyEnv = "MY_JINA_KEY"
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoadFromDir(t *testing.T) {
	t.Run("PrefersTopLevelFile", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(dir, ".codechunk"), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("search:\n  limit: 7\n"), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".codechunk", "config.yaml"), []byte("search:\n  limit: 99\n"), 0o644))

		cfg, err := LoadFromDir(dir)
		require.NoError(t, err)
		assert.Equal(t, 7, cfg.Search.Limit)
	})

	t.Run("FallsBackToHiddenDir", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(dir, ".codechunk"), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".codechunk", "config.yaml"), []byte("search:\n  limit: 99\n"), 0o644))

		cfg, err := LoadFromDir(dir)
		require.NoError(t, err)
		assert.Equal(t, 99, cfg.Search.Limit)
	})

	t.Run("DefaultsWhenNoFile", func(t *testing.T) {
		cfg, err := LoadFromDir(t.TempDir())
		require.NoError(t, err)
		assert.Equal(t, DefaultConfig(), cfg)
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "Defaults",
			mutate: func(c *Config) {},
		},
		{
			name:    "BadMode",
			mutate:  func(c *Config) { c.Search.Mode = "keyword" },
			wantErr: "unknown search mode",
		},
		{
			name:    "ZeroLimit",
			mutate:  func(c *Config) { c.Search.Limit = 0 },
			wantErr: "search limit",
		},
		{
			name:    "LimitTooLarge",
			mutate:  func(c *Config) { c.Search.Limit = 101 },
			wantErr: "search limit",
		},
		{
			name:    "NegativeCacheSize",
			mutate:  func(c *Config) { c.Search.CacheSize = -1 },
			wantErr: "cache size",
		},
		{
			name:    "NegativeWorkers",
			mutate:  func(c *Config) { c.Index.Workers = -2 },
			wantErr: "worker count",
		},
		{
			name:    "BadProvider",
			mutate:  func(c *Config) { c.Embedding.Provider = "cohere" },
			wantErr: "unknown embedding provider",
		},
		{
			name:    "ZeroBatchSize",
			mutate:  func(c *Config) { c.Embedding.BatchSize = 0 },
			wantErr: "batch size",
		},
		{
			name:    "BatchSizeTooLarge",
			mutate:  func(c *Config) { c.Embedding.BatchSize = embedder.MaxBatchSize + 1 },
			wantErr: "batch size",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestEmbedder(t *testing.T) {
	t.Run("LocalProvider", func(t *testing.T) {
		cfg := DefaultConfig()
		emb, err := cfg.Embedder()
		require.NoError(t, err)
		defer emb.Close()

		assert.Equal(t, embedder.ProviderLocal, emb.Provider())
		assert.Equal(t, embedder.LocalDimension, emb.Dimension())
	})

	t.Run("APIKeyFromEnv", func(t *testing.T) {
		t.Setenv("CONFIG_TEST_JINA_KEY", "test-key-123")

		cfg := DefaultConfig()
		cfg.Embedding.Provider = embedder.ProviderJina
		cfg.Embedding.APIKeyEnv = "CONFIG_TEST_JINA_KEY"

		emb, err := cfg.Embedder()
		require.NoError(t, err)
		defer emb.Close()

		assert.Equal(t, embedder.ProviderJina, emb.Provider())
		assert.Equal(t, embedder.DefaultJinaModel, emb.Model())
	})
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"BareTilde", "~", home},
		{"TildeSlash", "~/.codechunk", filepath.Join(home, ".codechunk")},
		{"Absolute", "/var/lib/codechunk", "/var/lib/codechunk"},
		{"Relative", "data/index", "data/index"},
		{"TildeMidPath", "/opt/~backup", "/opt/~backup"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExpandHome(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDatabaseDir(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	cfg := DefaultConfig()
	dir, err := cfg.DatabaseDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".codechunk"), dir)

	cfg.Storage.Path = "/tmp/chunks"
	dir, err = cfg.DatabaseDir()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/chunks", dir)
}
