package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("MEDSQL_CONFIG", filepath.Join(t.TempDir(), "missing.json"))

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "30s", cfg.Database.QueryTimeout)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "60s", cfg.LLM.Timeout)
	assert.Equal(t, 10, cfg.VectorStore.TopK)
	assert.False(t, cfg.Embedding.Enabled)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
}

func TestLoadConfigFromFile(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "config.json")

	testConfig := map[string]interface{}{
		"database": map[string]interface{}{
			"driver": "duckdb",
			"dsn":    "/custom/path/hospital.duckdb",
		},
		"llm": map[string]interface{}{
			"provider": "ollama",
			"model":    "llama3",
			"base_url": "http://localhost:11434",
		},
		"logging": map[string]interface{}{
			"level":  "debug",
			"format": "json",
		},
	}

	data, err := json.MarshalIndent(testConfig, "", "  ")
	require.NoError(t, err)

	err = os.WriteFile(configPath, data, 0600)
	require.NoError(t, err)

	t.Setenv("MEDSQL_CONFIG", configPath)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "duckdb", cfg.Database.Driver)
	assert.Equal(t, "/custom/path/hospital.duckdb", cfg.Database.DSN)
	assert.Equal(t, "ollama", cfg.LLM.Provider)
	assert.Equal(t, "llama3", cfg.LLM.Model)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadConfigPrecedence(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "config.json")

	testConfig := map[string]interface{}{
		"database": map[string]interface{}{
			"driver": "duckdb",
		},
		"llm": map[string]interface{}{
			"provider": "ollama",
			"model":    "llama3",
		},
	}

	data, err := json.Marshal(testConfig)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(configPath, data, 0600))

	t.Setenv("MEDSQL_CONFIG", configPath)
	t.Setenv("MEDSQL_LLM_PROVIDER", "anthropic")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	// File beats defaults
	assert.Equal(t, "duckdb", cfg.Database.Driver)
	assert.Equal(t, "llama3", cfg.LLM.Model)
	// Environment beats file
	assert.Equal(t, "anthropic", cfg.LLM.Provider)
	// Defaults survive for untouched fields
	assert.Equal(t, "30s", cfg.Database.QueryTimeout)
	assert.Equal(t, 10, cfg.VectorStore.TopK)
}

func TestLoadConfigInvalidFile(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "config.json")

	err := os.WriteFile(configPath, []byte("invalid json"), 0600)
	require.NoError(t, err)

	t.Setenv("MEDSQL_CONFIG", configPath)

	_, err = LoadConfig()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("MEDSQL_CONFIG", filepath.Join(t.TempDir(), "missing.json"))
	t.Setenv("MEDSQL_DB_DRIVER", "postgres")
	t.Setenv("MEDSQL_DB_DSN", "postgres://localhost:5432/hospital")
	t.Setenv("MEDSQL_LLM_PROVIDER", "anthropic")
	t.Setenv("MEDSQL_LLM_MODEL", "claude-sonnet-4-5")
	t.Setenv("MEDSQL_VECTOR_STORE_TOP_K", "5")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "postgres://localhost:5432/hospital", cfg.Database.DSN)
	assert.Equal(t, "anthropic", cfg.LLM.Provider)
	assert.Equal(t, "claude-sonnet-4-5", cfg.LLM.Model)
	assert.Equal(t, 5, cfg.VectorStore.TopK)
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "invalid driver",
			mutate:  func(c *Config) { c.Database.Driver = "oracle" },
			wantErr: "invalid database driver",
		},
		{
			name:    "invalid LLM provider",
			mutate:  func(c *Config) { c.LLM.Provider = "bard" },
			wantErr: "invalid LLM provider",
		},
		{
			name:    "invalid embedding provider",
			mutate:  func(c *Config) { c.Embedding.Provider = "word2vec" },
			wantErr: "invalid embedding provider",
		},
		{
			name:    "invalid log level",
			mutate:  func(c *Config) { c.Logging.Level = "trace" },
			wantErr: "invalid log level",
		},
		{
			name:    "invalid query timeout",
			mutate:  func(c *Config) { c.Database.QueryTimeout = "soon" },
			wantErr: "invalid database query timeout",
		},
		{
			name:    "non-positive top_k",
			mutate:  func(c *Config) { c.VectorStore.TopK = 0 },
			wantErr: "top_k must be positive",
		},
		{
			name: "embedding enabled without dimensions",
			mutate: func(c *Config) {
				c.Embedding.Enabled = true
				c.Embedding.Dimensions = 0
			},
			wantErr: "embedding dimensions must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("MEDSQL_CONFIG", filepath.Join(t.TempDir(), "missing.json"))

			cfg, err := LoadConfig()
			require.NoError(t, err)

			tt.mutate(cfg)
			err = validateConfig(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestFlagOverrides(t *testing.T) {
	t.Setenv("MEDSQL_CONFIG", filepath.Join(t.TempDir(), "missing.json"))

	cfg, err := LoadConfigWithOverrides(map[string]interface{}{
		"db-driver": "duckdb",
		"llm-model": "gpt-4",
		"log-level": "debug",
	})
	require.NoError(t, err)

	assert.Equal(t, "duckdb", cfg.Database.Driver)
	assert.Equal(t, "gpt-4", cfg.LLM.Model)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "data"), ExpandPath("~/data"))
	assert.Equal(t, "/absolute/path", ExpandPath("/absolute/path"))
	assert.Equal(t, home, ExpandPath("~"))
}
