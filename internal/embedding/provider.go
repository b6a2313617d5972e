package embedding

import (
	"context"
	"errors"
	"fmt"
)

// Provider defines the interface for embedding providers
type Provider interface {
	// GenerateEmbedding generates an embedding for the given text
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)

	// GetDimensions returns the dimensionality of embeddings produced by this provider
	GetDimensions() int

	// IsEnabled returns whether the provider is enabled and ready to use
	IsEnabled() bool

	// GetName returns the provider name for identification
	GetName() string
}

// Config represents embedding provider configuration
type Config struct {
	Provider   string `json:"provider"`   // "ollama" or "openai"
	Model      string `json:"model"`      // Model name
	APIKey     string `json:"api_key"`    // API key for remote providers
	BaseURL    string `json:"base_url"`   // Override for the provider endpoint
	Dimensions int    `json:"dimensions"` // Expected embedding dimensions
	Enabled    bool   `json:"enabled"`    // Whether embeddings are enabled
}

// DefaultConfig returns default embedding configuration
func DefaultConfig() Config {
	return Config{
		Provider:   "ollama",
		Model:      "nomic-embed-text",
		Dimensions: 768,
		Enabled:    false,
	}
}

// Manager selects and wraps an embedding provider. The provider is chosen
// once at construction; a disabled configuration yields the no-op provider,
// which in turn drives the index's substring-match degraded mode.
type Manager struct {
	config   Config
	provider Provider
}

// NewManager creates a new embedding manager
func NewManager(config Config) (*Manager, error) {
	manager := &Manager{
		config: config,
	}

	if !config.Enabled {
		manager.provider = &DisabledProvider{}
		return manager, nil
	}

	var provider Provider

	var err error

	switch config.Provider {
	case "ollama":
		provider, err = NewOllamaProvider(config)
	case "openai":
		provider, err = NewOpenAIProvider(config)
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", config.Provider)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedding provider: %w", err)
	}

	manager.provider = provider

	return manager, nil
}

// NewManagerWithProvider wraps an existing provider (used in tests)
func NewManagerWithProvider(config Config, provider Provider) *Manager {
	return &Manager{config: config, provider: provider}
}

// GenerateEmbedding generates an embedding using the configured provider
func (m *Manager) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if !m.provider.IsEnabled() {
		return nil, errors.New("embedding provider is disabled")
	}

	return m.provider.GenerateEmbedding(ctx, text)
}

// IsEnabled returns whether embeddings are enabled
func (m *Manager) IsEnabled() bool {
	return m.provider.IsEnabled()
}

// GetDimensions returns the embedding dimensions
func (m *Manager) GetDimensions() int {
	return m.provider.GetDimensions()
}

// GetName returns the active provider's name
func (m *Manager) GetName() string {
	return m.provider.GetName()
}

// DisabledProvider is a no-op provider for when embeddings are disabled
type DisabledProvider struct{}

func (p *DisabledProvider) GenerateEmbedding(_ context.Context, _ string) ([]float32, error) {
	return nil, errors.New("embedding provider is disabled")
}

func (p *DisabledProvider) GetDimensions() int {
	return 0
}

func (p *DisabledProvider) IsEnabled() bool {
	return false
}

func (p *DisabledProvider) GetName() string {
	return "disabled"
}
