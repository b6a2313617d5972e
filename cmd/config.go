package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/Alice344/MedSQLAgent/internal/config"
)

func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:        "config",
		Usage:       "Display the active configuration",
		Description: `Show the effective configuration after merging the config file and environment variables. API keys are masked.`,
		Action: func(_ context.Context, _ *cli.Command) error {
			return runConfig()
		},
	}
}

func runConfig() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	cfg.ExpandAllPaths()

	PrintConfig(cfg)

	return nil
}

// PrintConfig renders the configuration in a readable format
func PrintConfig(cfg *config.Config) {
	fmt.Println("Active Configuration")
	fmt.Println("====================")

	fmt.Println("\nDatabase:")
	fmt.Printf("  Driver: %s\n", cfg.Database.Driver)
	fmt.Printf("  DSN: %s\n", cfg.Database.DSN)
	fmt.Printf("  Query Timeout: %s\n", cfg.Database.QueryTimeout)
	fmt.Printf("  Sample Limit: %d\n", cfg.Database.SampleLimit)

	fmt.Println("\nLLM:")
	fmt.Printf("  Provider: %s\n", cfg.LLM.Provider)
	fmt.Printf("  Model: %s\n", cfg.LLM.Model)
	fmt.Printf("  API Key: %s\n", maskSecret(cfg.LLM.APIKey))
	fmt.Printf("  Timeout: %s\n", cfg.LLM.Timeout)
	fmt.Printf("  Tool Calls: %t\n", cfg.LLM.UseToolCalls)

	if cfg.LLM.BaseURL != "" {
		fmt.Printf("  Base URL: %s\n", cfg.LLM.BaseURL)
	}

	fmt.Println("\nEmbedding:")
	fmt.Printf("  Enabled: %t\n", cfg.Embedding.Enabled)

	if cfg.Embedding.Enabled {
		fmt.Printf("  Provider: %s\n", cfg.Embedding.Provider)
		fmt.Printf("  Model: %s\n", cfg.Embedding.Model)
		fmt.Printf("  API Key: %s\n", maskSecret(cfg.Embedding.APIKey))
		fmt.Printf("  Dimensions: %d\n", cfg.Embedding.Dimensions)
	}

	fmt.Println("\nVector Store:")
	fmt.Printf("  Path: %s\n", cfg.VectorStore.Path)
	fmt.Printf("  Top K: %d\n", cfg.VectorStore.TopK)

	fmt.Println("\nExport:")
	fmt.Printf("  Directory: %s\n", cfg.Export.Directory)

	fmt.Println("\nLogging:")
	fmt.Printf("  Level: %s\n", cfg.Logging.Level)
	fmt.Printf("  Format: %s\n", cfg.Logging.Format)
	fmt.Printf("  Output: %s\n", cfg.Logging.Output)

	if cfg.Logging.Output == "file" {
		fmt.Printf("  File: %s\n", cfg.Logging.File)
	}
}

func maskSecret(value string) string {
	if value == "" {
		return "(not set)"
	}

	if len(value) <= 8 {
		return "****"
	}

	return value[:4] + "..." + value[len(value)-4:]
}
