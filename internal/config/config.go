package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config represents the application configuration
type Config struct {
	Database    DatabaseConfig    `json:"database"     envPrefix:"MEDSQL_"`
	LLM         LLMConfig         `json:"llm"          envPrefix:"MEDSQL_"`
	Embedding   EmbeddingConfig   `json:"embedding"    envPrefix:"MEDSQL_"`
	VectorStore VectorStoreConfig `json:"vector_store" envPrefix:"MEDSQL_"`
	Export      ExportConfig      `json:"export"       envPrefix:"MEDSQL_"`
	Logging     LoggingConfig     `json:"logging"      envPrefix:"MEDSQL_"`
}

// DatabaseConfig represents database connection configuration
type DatabaseConfig struct {
	Driver       string `json:"driver"        env:"DB_DRIVER"        envDefault:"sqlite"` // duckdb, sqlite, postgres
	DSN          string `json:"dsn"           env:"DB_DSN"           envDefault:"~/.config/medsql-agent/hospital.db"`
	QueryTimeout string `json:"query_timeout" env:"DB_QUERY_TIMEOUT" envDefault:"30s"`
	SampleLimit  int    `json:"sample_limit"  env:"DB_SAMPLE_LIMIT"  envDefault:"5"`
}

// LLMConfig represents language model provider configuration
type LLMConfig struct {
	Provider     string `json:"provider"       env:"LLM_PROVIDER"  envDefault:"openai"` // openai, anthropic, ollama
	Model        string `json:"model"          env:"LLM_MODEL"     envDefault:"gpt-4o-mini"`
	APIKey       string `json:"api_key,omitempty" env:"LLM_API_KEY"`
	BaseURL      string `json:"base_url,omitempty" env:"LLM_BASE_URL"`
	Timeout      string `json:"timeout"        env:"LLM_TIMEOUT"   envDefault:"60s"`
	UseToolCalls bool   `json:"use_tool_calls" env:"LLM_TOOL_CALLS" envDefault:"false"`
}

// EmbeddingConfig represents embedding provider configuration
type EmbeddingConfig struct {
	Provider   string `json:"provider"   env:"EMBED_PROVIDER"   envDefault:"ollama"` // ollama, openai
	Model      string `json:"model"      env:"EMBED_MODEL"      envDefault:"nomic-embed-text"`
	APIKey     string `json:"api_key,omitempty" env:"EMBED_API_KEY"`
	BaseURL    string `json:"base_url,omitempty" env:"EMBED_BASE_URL"`
	Dimensions int    `json:"dimensions" env:"EMBED_DIMENSIONS" envDefault:"768"`
	Enabled    bool   `json:"enabled"    env:"EMBED_ENABLED"    envDefault:"false"`
}

// VectorStoreConfig represents schema index storage configuration
type VectorStoreConfig struct {
	Path string `json:"path"  env:"VECTOR_STORE_PATH" envDefault:"~/.config/medsql-agent/schema_store"`
	TopK int    `json:"top_k" env:"VECTOR_STORE_TOP_K" envDefault:"10"`
}

// ExportConfig represents CSV export configuration
type ExportConfig struct {
	Directory string `json:"directory" env:"EXPORT_DIR" envDefault:"~/.config/medsql-agent/exports"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level  string `json:"level"  env:"LOG_LEVEL"  envDefault:"info"`   // debug, info, warn, error
	Format string `json:"format" env:"LOG_FORMAT" envDefault:"text"`   // text, json
	Output string `json:"output" env:"LOG_OUTPUT" envDefault:"stderr"` // stdout, stderr, file
	File   string `json:"file"   env:"LOG_FILE"   envDefault:"~/.config/medsql-agent/logs/agent.log"`
}

// LoadConfig loads configuration from file and environment variables
func LoadConfig() (*Config, error) {
	return LoadConfigWithOverrides(nil)
}

// LoadConfigWithOverrides loads configuration with optional command-line flag
// overrides. Precedence, lowest to highest: envDefault tags, config file,
// environment variables, flags.
func LoadConfigWithOverrides(flagOverrides map[string]interface{}) (*Config, error) {
	config, err := defaultConfig()
	if err != nil {
		return nil, err
	}

	// The config file overrides defaults
	configPath := getConfigPath()
	if _, err := os.Stat(configPath); err == nil {
		if err := loadConfigFromFile(config, configPath); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	if err := applyEnvOverrides(config); err != nil {
		return nil, err
	}

	// Apply command-line flag overrides
	if flagOverrides != nil {
		applyFlagOverrides(config, flagOverrides)
	}

	// Validate configuration
	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// defaultConfig returns a config holding only the envDefault tag values.
// Parsing against an empty environment keeps real env vars out of this layer.
func defaultConfig() (*Config, error) {
	config := &Config{}

	if err := env.ParseWithOptions(config, env.Options{
		Environment: map[string]string{},
	}); err != nil {
		return nil, fmt.Errorf("failed to apply configuration defaults: %w", err)
	}

	return config, nil
}

// applyEnvOverrides overlays explicitly-set environment variables onto the
// config. env.Parse cannot be run on the merged struct directly: it would
// re-apply every envDefault tag and clobber file-loaded values. Instead the
// environment is parsed into a fresh struct and only the fields that differ
// from the pure defaults are copied over.
func applyEnvOverrides(config *Config) error {
	defaults, err := defaultConfig()
	if err != nil {
		return err
	}

	fromEnv := &Config{}
	if err := env.Parse(fromEnv); err != nil {
		return fmt.Errorf("failed to parse environment variables: %w", err)
	}

	var overlay func(target, envValue, defaultValue reflect.Value)
	overlay = func(target, envValue, defaultValue reflect.Value) {
		if target.Kind() == reflect.Struct {
			for i := range target.NumField() {
				overlay(target.Field(i), envValue.Field(i), defaultValue.Field(i))
			}

			return
		}

		if !envValue.Equal(defaultValue) {
			target.Set(envValue)
		}
	}

	overlay(
		reflect.ValueOf(config).Elem(),
		reflect.ValueOf(fromEnv).Elem(),
		reflect.ValueOf(defaults).Elem(),
	)

	return nil
}

// loadConfigFromFile loads configuration from a JSON file
func loadConfigFromFile(config *Config, configPath string) error {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var fileConfig Config
	if err := json.Unmarshal(data, &fileConfig); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	mergeConfigs(config, &fileConfig)

	return nil
}

// applyFlagOverrides applies command-line flag overrides to configuration
func applyFlagOverrides(config *Config, overrides map[string]interface{}) {
	for key, value := range overrides {
		switch key {
		case "db-driver":
			if str, ok := value.(string); ok && str != "" {
				config.Database.Driver = str
			}
		case "db-dsn":
			if str, ok := value.(string); ok && str != "" {
				config.Database.DSN = str
			}
		case "llm-provider":
			if str, ok := value.(string); ok && str != "" {
				config.LLM.Provider = str
			}
		case "llm-model":
			if str, ok := value.(string); ok && str != "" {
				config.LLM.Model = str
			}
		case "log-level":
			if str, ok := value.(string); ok && str != "" {
				config.Logging.Level = str
			}
		case "store-path":
			if str, ok := value.(string); ok && str != "" {
				config.VectorStore.Path = str
			}
		}
	}
}

// mergeConfigs merges source configuration into target configuration
func mergeConfigs(target, source *Config) {
	var mergeValues func(t, s reflect.Value)
	mergeValues = func(t, s reflect.Value) {
		if t.Kind() != s.Kind() {
			return
		}

		if t.Kind() == reflect.Struct {
			for i := range s.NumField() {
				mergeValues(t.Field(i), s.Field(i))
			}
		} else if s.Kind() == reflect.Bool {
			t.Set(s)
		} else if !s.IsZero() {
			t.Set(s)
		}
	}

	mergeValues(reflect.ValueOf(target).Elem(), reflect.ValueOf(source).Elem())
}

// validateConfig validates the configuration for common errors
func validateConfig(config *Config) error {
	validDrivers := map[string]bool{
		"duckdb": true, "sqlite": true, "postgres": true,
	}
	if !validDrivers[strings.ToLower(config.Database.Driver)] {
		return fmt.Errorf(
			"invalid database driver: %s (must be duckdb, sqlite, or postgres)",
			config.Database.Driver,
		)
	}

	validLLMProviders := map[string]bool{
		"openai": true, "anthropic": true, "ollama": true,
	}
	if !validLLMProviders[strings.ToLower(config.LLM.Provider)] {
		return fmt.Errorf(
			"invalid LLM provider: %s (must be openai, anthropic, or ollama)",
			config.LLM.Provider,
		)
	}

	validEmbedProviders := map[string]bool{
		"ollama": true, "openai": true,
	}
	if !validEmbedProviders[strings.ToLower(config.Embedding.Provider)] {
		return fmt.Errorf(
			"invalid embedding provider: %s (must be ollama or openai)",
			config.Embedding.Provider,
		)
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(config.Logging.Level)] {
		return fmt.Errorf(
			"invalid log level: %s (must be debug, info, warn, or error)",
			config.Logging.Level,
		)
	}

	validLogFormats := map[string]bool{
		"text": true, "json": true,
	}
	if !validLogFormats[strings.ToLower(config.Logging.Format)] {
		return fmt.Errorf("invalid log format: %s (must be text or json)", config.Logging.Format)
	}

	validLogOutputs := map[string]bool{
		"stdout": true, "stderr": true, "file": true,
	}
	if !validLogOutputs[strings.ToLower(config.Logging.Output)] {
		return fmt.Errorf(
			"invalid log output: %s (must be stdout, stderr, or file)",
			config.Logging.Output,
		)
	}

	if _, err := time.ParseDuration(config.Database.QueryTimeout); err != nil {
		return fmt.Errorf("invalid database query timeout: %s", config.Database.QueryTimeout)
	}

	if _, err := time.ParseDuration(config.LLM.Timeout); err != nil {
		return fmt.Errorf("invalid LLM timeout: %s", config.LLM.Timeout)
	}

	if config.VectorStore.TopK <= 0 {
		return fmt.Errorf("vector store top_k must be positive: %d", config.VectorStore.TopK)
	}

	if config.Embedding.Enabled && config.Embedding.Dimensions <= 0 {
		return fmt.Errorf("embedding dimensions must be positive: %d", config.Embedding.Dimensions)
	}

	return nil
}

// SaveConfig saves configuration to file
func SaveConfig(config *Config) error {
	configPath := getConfigPath()

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// getConfigPath returns the path to the configuration file
func getConfigPath() string {
	if configPath := os.Getenv("MEDSQL_CONFIG"); configPath != "" {
		return ExpandPath(configPath)
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./config.json"
	}

	return filepath.Join(homeDir, ".config", "medsql-agent", "config.json")
}

// ExpandPath expands ~ to home directory in file paths
func ExpandPath(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	if path == "~" {
		return homeDir
	}

	if strings.HasPrefix(path, "~/") {
		return filepath.Join(homeDir, path[2:])
	}

	return path
}

// ExpandAllPaths expands all paths in the configuration
func (c *Config) ExpandAllPaths() {
	if strings.ToLower(c.Database.Driver) != "postgres" {
		c.Database.DSN = ExpandPath(c.Database.DSN)
	}

	c.VectorStore.Path = ExpandPath(c.VectorStore.Path)
	c.Export.Directory = ExpandPath(c.Export.Directory)
	c.Logging.File = ExpandPath(c.Logging.File)
}

// EnsureDirectories creates necessary directories for the configuration
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.VectorStore.Path,
		c.Export.Directory,
		filepath.Dir(c.Logging.File),
	}

	if strings.ToLower(c.Database.Driver) != "postgres" {
		dirs = append(dirs, filepath.Dir(c.Database.DSN))
	}

	for _, dir := range dirs {
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("failed to create directory %s: %w", dir, err)
			}
		}
	}

	return nil
}
