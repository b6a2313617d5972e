package llm

import (
	"context"
	"fmt"
	"time"
)

// Service defines the interface for SQL generation
type Service interface {
	// GenerateSQL converts a natural language question into a structured
	// SQL proposal using the given system prompt
	GenerateSQL(ctx context.Context, question string, systemPrompt string) (*QueryResponse, error)
}

// QueryResponse is the fixed response contract for generation. Confidence
// defaults to 0 and TablesUsed to empty when the provider omits them.
type QueryResponse struct {
	SQL         string   `json:"sql"`
	Explanation string   `json:"explanation"`
	Confidence  float64  `json:"confidence"`
	TablesUsed  []string `json:"tables_used"`
}

// Config represents LLM service configuration
type Config struct {
	Provider     string        `json:"provider"` // openai, anthropic, ollama
	Model        string        `json:"model"`
	APIKey       string        `json:"api_key,omitempty"`
	BaseURL      string        `json:"base_url,omitempty"`
	Timeout      time.Duration `json:"timeout,omitempty"`
	UseToolCalls bool          `json:"use_tool_calls,omitempty"`
}

// Provider constants for different LLM providers
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderOllama    = "ollama"
)

// FallbackSQL is the inert placeholder statement carried by safe-failure
// results. It selects a literal and touches no real tables.
const FallbackSQL = "SELECT 'Error generating SQL' AS error_message"

// toolCallConfidence is assigned in tool-call mode, where the declared output
// schema omits a confidence field.
const toolCallConfidence = 0.9

// SafeFailureResult builds the well-formed result returned when generation
// fails, so downstream validation and execution never see a nil response.
func SafeFailureResult(err error) *QueryResponse {
	return &QueryResponse{
		SQL:         FallbackSQL,
		Explanation: fmt.Sprintf("Failed to generate SQL: %v", err),
		Confidence:  0,
		TablesUsed:  []string{},
	}
}
