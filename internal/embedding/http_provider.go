package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultRequestTimeout = 30 * time.Second

// OllamaProvider generates embeddings via the Ollama embeddings API
type OllamaProvider struct {
	config     Config
	httpClient *http.Client
}

type ollamaEmbedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaEmbedResponse struct {
	Embedding []float64 `json:"embedding"`
	Error     string    `json:"error,omitempty"`
}

// NewOllamaProvider creates an Ollama-backed embedding provider
func NewOllamaProvider(config Config) (*OllamaProvider, error) {
	if config.Model == "" {
		return nil, fmt.Errorf("embedding model is required")
	}

	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:11434"
	}

	return &OllamaProvider{
		config: config,
		httpClient: &http.Client{
			Timeout: defaultRequestTimeout,
		},
	}, nil
}

// GenerateEmbedding generates an embedding for the given text
func (p *OllamaProvider) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return make([]float32, p.config.Dimensions), nil
	}

	reqBody := ollamaEmbedRequest{
		Model:  p.config.Model,
		Prompt: text,
	}

	respBody, err := postJSON(ctx, p.httpClient, p.config.BaseURL+"/api/embeddings", reqBody, nil)
	if err != nil {
		return nil, err
	}

	var response ollamaEmbedResponse
	if err := json.Unmarshal(respBody, &response); err != nil {
		return nil, fmt.Errorf("failed to parse Ollama embedding response: %w", err)
	}

	if response.Error != "" {
		return nil, fmt.Errorf("Ollama API error: %s", response.Error)
	}

	return convertEmbedding(response.Embedding, p.config.Dimensions)
}

// GetDimensions returns the dimensionality of embeddings produced by this provider
func (p *OllamaProvider) GetDimensions() int {
	return p.config.Dimensions
}

// IsEnabled returns whether the provider is enabled and ready to use
func (p *OllamaProvider) IsEnabled() bool {
	return true
}

// GetName returns the provider name for identification
func (p *OllamaProvider) GetName() string {
	return "ollama:" + p.config.Model
}

// OpenAIProvider generates embeddings via the OpenAI embeddings API
type OpenAIProvider struct {
	config     Config
	httpClient *http.Client
}

type openAIEmbedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type openAIEmbedResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewOpenAIProvider creates an OpenAI-backed embedding provider
func NewOpenAIProvider(config Config) (*OpenAIProvider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("API key is required for OpenAI embedding provider")
	}

	if config.Model == "" {
		return nil, fmt.Errorf("embedding model is required")
	}

	if config.BaseURL == "" {
		config.BaseURL = "https://api.openai.com/v1"
	}

	return &OpenAIProvider{
		config: config,
		httpClient: &http.Client{
			Timeout: defaultRequestTimeout,
		},
	}, nil
}

// GenerateEmbedding generates an embedding for the given text
func (p *OpenAIProvider) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return make([]float32, p.config.Dimensions), nil
	}

	reqBody := openAIEmbedRequest{
		Model: p.config.Model,
		Input: []string{text},
	}

	headers := map[string]string{
		"Authorization": "Bearer " + p.config.APIKey,
	}

	respBody, err := postJSON(ctx, p.httpClient, p.config.BaseURL+"/embeddings", reqBody, headers)
	if err != nil {
		return nil, err
	}

	var response openAIEmbedResponse
	if err := json.Unmarshal(respBody, &response); err != nil {
		return nil, fmt.Errorf("failed to parse OpenAI embedding response: %w", err)
	}

	if response.Error != nil {
		return nil, fmt.Errorf("OpenAI API error: %s", response.Error.Message)
	}

	if len(response.Data) == 0 {
		return nil, fmt.Errorf("no embedding in OpenAI response")
	}

	return convertEmbedding(response.Data[0].Embedding, p.config.Dimensions)
}

// GetDimensions returns the dimensionality of embeddings produced by this provider
func (p *OpenAIProvider) GetDimensions() int {
	return p.config.Dimensions
}

// IsEnabled returns whether the provider is enabled and ready to use
func (p *OpenAIProvider) IsEnabled() bool {
	return true
}

// GetName returns the provider name for identification
func (p *OpenAIProvider) GetName() string {
	return "openai:" + p.config.Model
}

// postJSON makes a JSON POST request and returns the response body
func postJSON(
	ctx context.Context,
	client *http.Client,
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

	resp, err := client.Do(req)
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

// convertEmbedding converts a float64 vector to float32 and checks the
// expected dimensionality when one is configured
func convertEmbedding(vector []float64, wantDims int) ([]float32, error) {
	if wantDims > 0 && len(vector) != wantDims {
		return nil, fmt.Errorf("dimension mismatch: expected %d, got %d", wantDims, len(vector))
	}

	embedding := make([]float32, len(vector))
	for i, v := range vector {
		embedding[i] = float32(v)
	}

	return embedding, nil
}
