package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Alice344/MedSQLAgent/internal/logging"
)

// responseMode is the provider capability selected once at construction:
// how the provider's reply is turned into a QueryResponse.
type responseMode int

const (
	// modeDirectJSON requests output constrained to a JSON object and
	// parses it directly
	modeDirectJSON responseMode = iota
	// modeTextExtract receives free text and extracts the first
	// brace-delimited JSON object from it
	modeTextExtract
	// modeToolCall declares an output schema and reads the returned
	// tool-call arguments
	modeToolCall
)

const defaultTimeout = 60 * time.Second

// Client implements the Service interface with multiple provider support.
// Any transport or parsing failure degrades to the safe-failure result
// rather than an error: callers always receive a well-formed response.
type Client struct {
	config     Config
	mode       responseMode
	httpClient *http.Client
	logger     *logging.Logger
}

// NewClient creates an LLM client, validating the configuration and fixing
// the response mode for the client's lifetime.
func NewClient(config Config) (*Client, error) {
	if config.Provider == "" {
		return nil, fmt.Errorf("provider is required")
	}

	if config.Model == "" {
		return nil, fmt.Errorf("model is required")
	}

	var mode responseMode

	switch config.Provider {
	case ProviderOpenAI:
		if config.APIKey == "" {
			return nil, fmt.Errorf("API key is required for OpenAI provider")
		}

		if config.BaseURL == "" {
			config.BaseURL = "https://api.openai.com/v1"
		}

		mode = modeDirectJSON
		if config.UseToolCalls {
			mode = modeToolCall
		}
	case ProviderAnthropic:
		if config.APIKey == "" {
			return nil, fmt.Errorf("API key is required for Anthropic provider")
		}

		if config.BaseURL == "" {
			config.BaseURL = "https://api.anthropic.com/v1"
		}

		mode = modeTextExtract
		if config.UseToolCalls {
			mode = modeToolCall
		}
	case ProviderOllama:
		if config.BaseURL == "" {
			config.BaseURL = "http://localhost:11434"
		}

		if config.UseToolCalls {
			return nil, fmt.Errorf("tool calls are not supported for Ollama provider")
		}

		mode = modeTextExtract
	default:
		return nil, fmt.Errorf("unsupported provider: %s", config.Provider)
	}

	if config.Timeout <= 0 {
		config.Timeout = defaultTimeout
	}

	return &Client{
		config: config,
		mode:   mode,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		logger: logging.GetLogger().WithField("component", "llm"),
	}, nil
}

// GenerateSQL converts a natural language question into a structured SQL
// proposal. The returned response is never nil and the error is always nil:
// failures are reported inside the response as the safe-failure result with
// confidence 0.
func (c *Client) GenerateSQL(
	ctx context.Context,
	question string,
	systemPrompt string,
) (*QueryResponse, error) {
	userMessage := fmt.Sprintf("Please convert the following query to SQL:\n%s", question)

	var (
		response *QueryResponse
		err      error
	)

	switch {
	case c.mode == modeToolCall && c.config.Provider == ProviderOpenAI:
		response, err = c.generateOpenAIToolCall(ctx, systemPrompt, userMessage)
	case c.mode == modeToolCall && c.config.Provider == ProviderAnthropic:
		response, err = c.generateAnthropicToolCall(ctx, systemPrompt, userMessage)
	case c.config.Provider == ProviderOpenAI:
		response, err = c.generateOpenAI(ctx, systemPrompt, userMessage)
	case c.config.Provider == ProviderAnthropic:
		response, err = c.generateAnthropic(ctx, systemPrompt, userMessage)
	default:
		response, err = c.generateOllama(ctx, systemPrompt, userMessage)
	}

	if err != nil {
		c.logger.WithError(err).Warn("SQL generation failed, returning safe failure result")
		return SafeFailureResult(err), nil
	}

	normalize(response)

	return response, nil
}

// normalize applies the response contract defaults
func normalize(response *QueryResponse) {
	if response.TablesUsed == nil {
		response.TablesUsed = []string{}
	}

	if response.Confidence < 0 {
		response.Confidence = 0
	}

	if response.Confidence > 1 {
		response.Confidence = 1
	}
}

// OpenAI API structures
type openAIRequest struct {
	Model          string                `json:"model"`
	Messages       []chatMessage         `json:"messages"`
	Temperature    float64               `json:"temperature"`
	ResponseFormat *openAIResponseFormat `json:"response_format,omitempty"`
	Tools          []openAITool          `json:"tools,omitempty"`
	ToolChoice     interface{}           `json:"tool_choice,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIResponseFormat struct {
	Type string `json:"type"`
}

type openAITool struct {
	Type     string         `json:"type"`
	Function openAIFunction `json:"function"`
}

type openAIFunction struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content   string `json:"content"`
			ToolCalls []struct {
				Function struct {
					Name      string `json:"name"`
					Arguments string `json:"arguments"`
				} `json:"function"`
			} `json:"tool_calls"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// generateOpenAI handles the direct-JSON mode: the provider is asked for a
// JSON object and the reply is parsed as-is.
func (c *Client) generateOpenAI(
	ctx context.Context,
	systemPrompt, userMessage string,
) (*QueryResponse, error) {
	reqBody := openAIRequest{
		Model: c.config.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userMessage},
		},
		Temperature:    0.1,
		ResponseFormat: &openAIResponseFormat{Type: "json_object"},
	}

	respBody, err := c.makeRequest(ctx, c.config.BaseURL+"/chat/completions", reqBody, c.openAIHeaders())
	if err != nil {
		return nil, err
	}

	var response openAIResponse
	if err := json.Unmarshal(respBody, &response); err != nil {
		return nil, fmt.Errorf("failed to parse OpenAI response: %w", err)
	}

	if response.Error != nil {
		return nil, fmt.Errorf("OpenAI API error: %s", response.Error.Message)
	}

	if len(response.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI")
	}

	var queryResp QueryResponse
	if err := json.Unmarshal([]byte(response.Choices[0].Message.Content), &queryResp); err != nil {
		return nil, fmt.Errorf("failed to parse query JSON: %w", err)
	}

	return &queryResp, nil
}

// sqlToolParameters is the declared output schema for tool-call mode.
// Confidence is deliberately absent; the client assigns a fixed value.
var sqlToolParameters = json.RawMessage(`{
	"type": "object",
	"properties": {
		"sql": {
			"type": "string",
			"description": "The SQL query generated from the natural language request"
		},
		"explanation": {
			"type": "string",
			"description": "Explanation of what the SQL query does"
		},
		"tables_used": {
			"type": "array",
			"items": {"type": "string"},
			"description": "Names of database tables used in the query"
		}
	},
	"required": ["sql", "explanation", "tables_used"]
}`)

// generateOpenAIToolCall handles the structured tool-call mode for OpenAI
func (c *Client) generateOpenAIToolCall(
	ctx context.Context,
	systemPrompt, userMessage string,
) (*QueryResponse, error) {
	reqBody := openAIRequest{
		Model: c.config.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userMessage},
		},
		Temperature: 0.1,
		Tools: []openAITool{{
			Type: "function",
			Function: openAIFunction{
				Name:        "generate_sql_query",
				Description: "Generate an SQL query based on the user's natural language request",
				Parameters:  sqlToolParameters,
			},
		}},
		ToolChoice: map[string]interface{}{
			"type":     "function",
			"function": map[string]string{"name": "generate_sql_query"},
		},
	}

	respBody, err := c.makeRequest(ctx, c.config.BaseURL+"/chat/completions", reqBody, c.openAIHeaders())
	if err != nil {
		return nil, err
	}

	var response openAIResponse
	if err := json.Unmarshal(respBody, &response); err != nil {
		return nil, fmt.Errorf("failed to parse OpenAI response: %w", err)
	}

	if response.Error != nil {
		return nil, fmt.Errorf("OpenAI API error: %s", response.Error.Message)
	}

	if len(response.Choices) == 0 || len(response.Choices[0].Message.ToolCalls) == 0 {
		return nil, fmt.Errorf("no tool call in OpenAI response")
	}

	var queryResp QueryResponse
	arguments := response.Choices[0].Message.ToolCalls[0].Function.Arguments

	if err := json.Unmarshal([]byte(arguments), &queryResp); err != nil {
		return nil, fmt.Errorf("failed to parse tool call arguments: %w", err)
	}

	queryResp.Confidence = toolCallConfidence

	return &queryResp, nil
}

func (c *Client) openAIHeaders() map[string]string {
	return map[string]string{
		"Authorization": "Bearer " + c.config.APIKey,
	}
}

// Anthropic API structures
type anthropicRequest struct {
	Model       string          `json:"model"`
	Messages    []chatMessage   `json:"messages"`
	MaxTokens   int             `json:"max_tokens"`
	System      string          `json:"system,omitempty"`
	Temperature float64         `json:"temperature,omitempty"`
	Tools       []anthropicTool `json:"tools,omitempty"`
	ToolChoice  interface{}     `json:"tool_choice,omitempty"`
}

type anthropicTool struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"input_schema"`
}

type anthropicResponse struct {
	Content []struct {
		Type  string          `json:"type"`
		Text  string          `json:"text"`
		Name  string          `json:"name"`
		Input json.RawMessage `json:"input"`
	} `json:"content"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// generateAnthropic handles the free-text-with-extraction mode: the reply is
// text expected to contain an embeddable JSON object.
func (c *Client) generateAnthropic(
	ctx context.Context,
	systemPrompt, userMessage string,
) (*QueryResponse, error) {
	reqBody := anthropicRequest{
		Model:       c.config.Model,
		MaxTokens:   2000,
		System:      systemPrompt,
		Temperature: 0.1,
		Messages: []chatMessage{
			{Role: "user", Content: userMessage},
		},
	}

	respBody, err := c.makeRequest(ctx, c.config.BaseURL+"/messages", reqBody, c.anthropicHeaders())
	if err != nil {
		return nil, err
	}

	var response anthropicResponse
	if err := json.Unmarshal(respBody, &response); err != nil {
		return nil, fmt.Errorf("failed to parse Anthropic response: %w", err)
	}

	if response.Error != nil {
		return nil, fmt.Errorf("Anthropic API error: %s", response.Error.Message)
	}

	if len(response.Content) == 0 {
		return nil, fmt.Errorf("no response from Anthropic")
	}

	return parseEmbeddedJSON(response.Content[0].Text)
}

// generateAnthropicToolCall handles the structured tool-call mode for Anthropic
func (c *Client) generateAnthropicToolCall(
	ctx context.Context,
	systemPrompt, userMessage string,
) (*QueryResponse, error) {
	reqBody := anthropicRequest{
		Model:     c.config.Model,
		MaxTokens: 2000,
		System:    systemPrompt,
		Messages: []chatMessage{
			{Role: "user", Content: userMessage},
		},
		Tools: []anthropicTool{{
			Name:        "generate_sql_query",
			Description: "Generate an SQL query based on the user's natural language request",
			InputSchema: sqlToolParameters,
		}},
		ToolChoice: map[string]string{"type": "tool", "name": "generate_sql_query"},
	}

	respBody, err := c.makeRequest(ctx, c.config.BaseURL+"/messages", reqBody, c.anthropicHeaders())
	if err != nil {
		return nil, err
	}

	var response anthropicResponse
	if err := json.Unmarshal(respBody, &response); err != nil {
		return nil, fmt.Errorf("failed to parse Anthropic response: %w", err)
	}

	if response.Error != nil {
		return nil, fmt.Errorf("Anthropic API error: %s", response.Error.Message)
	}

	for _, content := range response.Content {
		if content.Type != "tool_use" {
			continue
		}

		var queryResp QueryResponse
		if err := json.Unmarshal(content.Input, &queryResp); err != nil {
			return nil, fmt.Errorf("failed to parse tool call input: %w", err)
		}

		queryResp.Confidence = toolCallConfidence

		return &queryResp, nil
	}

	return nil, fmt.Errorf("no tool call in Anthropic response")
}

func (c *Client) anthropicHeaders() map[string]string {
	return map[string]string{
		"x-api-key":         c.config.APIKey,
		"anthropic-version": "2023-06-01",
	}
}

// Ollama API structures
type ollamaRequest struct {
	Model       string  `json:"model"`
	Prompt      string  `json:"prompt"`
	Stream      bool    `json:"stream"`
	Format      string  `json:"format,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
}

type ollamaResponse struct {
	Response string `json:"response"`
	Error    string `json:"error,omitempty"`
}

// generateOllama requests JSON-formatted output but still tolerates free
// text around the object, since local models honor the format hint unevenly.
func (c *Client) generateOllama(
	ctx context.Context,
	systemPrompt, userMessage string,
) (*QueryResponse, error) {
	reqBody := ollamaRequest{
		Model:       c.config.Model,
		Prompt:      fmt.Sprintf("System: %s\n\nUser: %s", systemPrompt, userMessage),
		Stream:      false,
		Format:      "json",
		Temperature: 0.1,
	}

	respBody, err := c.makeRequest(ctx, c.config.BaseURL+"/api/generate", reqBody, nil)
	if err != nil {
		return nil, err
	}

	var response ollamaResponse
	if err := json.Unmarshal(respBody, &response); err != nil {
		return nil, fmt.Errorf("failed to parse Ollama response: %w", err)
	}

	if response.Error != "" {
		return nil, fmt.Errorf("Ollama API error: %s", response.Error)
	}

	return parseEmbeddedJSON(response.Response)
}

// parseEmbeddedJSON parses provider text into a QueryResponse: first the
// whole text, then the first brace-delimited object inside it. The greedy
// first-to-last-brace scan is best effort; the safe-failure fallback in
// GenerateSQL is the correctness backstop.
func parseEmbeddedJSON(text string) (*QueryResponse, error) {
	var queryResp QueryResponse
	if err := json.Unmarshal([]byte(text), &queryResp); err == nil {
		return &queryResp, nil
	}

	extracted := extractJSONObject(text)
	if extracted == "" {
		return nil, fmt.Errorf("no JSON object found in response text")
	}

	if err := json.Unmarshal([]byte(extracted), &queryResp); err != nil {
		return nil, fmt.Errorf("failed to parse extracted JSON: %w", err)
	}

	return &queryResp, nil
}

// extractJSONObject returns the substring from the first '{' to the last '}'
func extractJSONObject(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")

	if start == -1 || end == -1 || end < start {
		return ""
	}

	return text[start : end+1]
}

// makeRequest makes an HTTP POST request with a JSON body
func (c *Client) makeRequest(
	ctx context.Context,
	url string,
	reqBody interface{},
	headers map[string]string,
) ([]byte, error) {
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	return body, nil
}
