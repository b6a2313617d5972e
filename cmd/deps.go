package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/Alice344/MedSQLAgent/internal/agent"
	"github.com/Alice344/MedSQLAgent/internal/config"
	"github.com/Alice344/MedSQLAgent/internal/database"
	"github.com/Alice344/MedSQLAgent/internal/embedding"
	"github.com/Alice344/MedSQLAgent/internal/llm"
	"github.com/Alice344/MedSQLAgent/internal/logging"
	"github.com/Alice344/MedSQLAgent/internal/prompt"
	"github.com/Alice344/MedSQLAgent/internal/vectorstore"
)

// loadRuntimeConfig loads configuration and initializes logging
func loadRuntimeConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	cfg.ExpandAllPaths()

	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to create data directories: %w", err)
	}

	if err := logging.InitializeLogger(cfg.Logging); err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}

	return cfg, nil
}

// initializeAgent builds the full pipeline from configuration. The caller
// owns the returned agent and must Close it.
func initializeAgent(ctx context.Context, cfg *config.Config) (*agent.Agent, error) {
	queryTimeout, err := time.ParseDuration(cfg.Database.QueryTimeout)
	if err != nil {
		return nil, fmt.Errorf("invalid query timeout: %w", err)
	}

	provider, err := database.NewSQLProvider(cfg.Database.Driver, cfg.Database.DSN, queryTimeout)
	if err != nil {
		return nil, err
	}

	embedder, err := embedding.NewManager(embedding.Config{
		Provider:   cfg.Embedding.Provider,
		Model:      cfg.Embedding.Model,
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Dimensions: cfg.Embedding.Dimensions,
		Enabled:    cfg.Embedding.Enabled,
	})
	if err != nil {
		_ = provider.Close()
		return nil, err
	}

	store, err := vectorstore.NewStore(cfg.VectorStore.Path, embedder)
	if err != nil {
		_ = provider.Close()
		return nil, err
	}

	llmTimeout, err := time.ParseDuration(cfg.LLM.Timeout)
	if err != nil {
		_ = provider.Close()
		return nil, fmt.Errorf("invalid LLM timeout: %w", err)
	}

	service, err := llm.NewClient(llm.Config{
		Provider:     cfg.LLM.Provider,
		Model:        cfg.LLM.Model,
		APIKey:       cfg.LLM.APIKey,
		BaseURL:      cfg.LLM.BaseURL,
		Timeout:      llmTimeout,
		UseToolCalls: cfg.LLM.UseToolCalls,
	})
	if err != nil {
		_ = provider.Close()
		return nil, err
	}

	builder := prompt.NewBuilder(store, cfg.VectorStore.TopK, true)

	a := agent.New(provider, store, service, builder)

	if err := a.Initialize(ctx); err != nil {
		_ = provider.Close()
		return nil, err
	}

	return a, nil
}

// setup is the shared preamble for commands that need the full pipeline
func setup(ctx context.Context) (*agent.Agent, *config.Config, error) {
	cfg, err := loadRuntimeConfig()
	if err != nil {
		return nil, nil, err
	}

	a, err := initializeAgent(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	return a, cfg, nil
}
