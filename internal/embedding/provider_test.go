package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerDisabled(t *testing.T) {
	manager, err := NewManager(Config{Enabled: false})
	require.NoError(t, err)

	assert.False(t, manager.IsEnabled())
	assert.Equal(t, "disabled", manager.GetName())

	_, err = manager.GenerateEmbedding(context.Background(), "Table: patients")
	assert.Error(t, err)
}

func TestManagerUnsupportedProvider(t *testing.T) {
	_, err := NewManager(Config{Enabled: true, Provider: "word2vec", Model: "m"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported embedding provider")
}

func TestOllamaProviderGenerateEmbedding(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/embeddings", r.URL.Path)

		var req ollamaEmbedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "nomic-embed-text", req.Model)
		assert.Equal(t, "Table: patients", req.Prompt)

		_ = json.NewEncoder(w).Encode(ollamaEmbedResponse{
			Embedding: []float64{0.1, 0.2, 0.3},
		})
	}))
	defer server.Close()

	provider, err := NewOllamaProvider(Config{
		Provider:   "ollama",
		Model:      "nomic-embed-text",
		BaseURL:    server.URL,
		Dimensions: 3,
		Enabled:    true,
	})
	require.NoError(t, err)

	vec, err := provider.GenerateEmbedding(context.Background(), "Table: patients")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)
}

func TestOllamaProviderDimensionMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(ollamaEmbedResponse{
			Embedding: []float64{0.1, 0.2},
		})
	}))
	defer server.Close()

	provider, err := NewOllamaProvider(Config{
		Model:      "nomic-embed-text",
		BaseURL:    server.URL,
		Dimensions: 768,
	})
	require.NoError(t, err)

	_, err = provider.GenerateEmbedding(context.Background(), "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dimension mismatch")
}

func TestOllamaProviderAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(ollamaEmbedResponse{Error: "model not found"})
	}))
	defer server.Close()

	provider, err := NewOllamaProvider(Config{Model: "missing", BaseURL: server.URL})
	require.NoError(t, err)

	_, err = provider.GenerateEmbedding(context.Background(), "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model not found")
}

func TestOpenAIProviderGenerateEmbedding(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		_, _ = w.Write([]byte(`{"data":[{"embedding":[0.5,0.6]}]}`))
	}))
	defer server.Close()

	provider, err := NewOpenAIProvider(Config{
		Provider:   "openai",
		Model:      "text-embedding-3-small",
		APIKey:     "test-key",
		BaseURL:    server.URL,
		Dimensions: 2,
	})
	require.NoError(t, err)

	vec, err := provider.GenerateEmbedding(context.Background(), "Table: doctors")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, 0.6}, vec)
}

func TestOpenAIProviderRequiresAPIKey(t *testing.T) {
	_, err := NewOpenAIProvider(Config{Model: "text-embedding-3-small"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key is required")
}

func TestEmptyTextReturnsZeroVector(t *testing.T) {
	provider, err := NewOllamaProvider(Config{Model: "nomic-embed-text", Dimensions: 4})
	require.NoError(t, err)

	vec, err := provider.GenerateEmbedding(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, make([]float32, 4), vec)
}
