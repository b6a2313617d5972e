package testutil

import (
	"context"
	"hash/fnv"
	"sync"

	"github.com/Alice344/MedSQLAgent/internal/llm"
	"github.com/Alice344/MedSQLAgent/internal/schema"
)

// MockSchemaProvider implements schema.Provider for testing with error injection
type MockSchemaProvider struct {
	mu sync.RWMutex

	schemas    map[string]schema.TableSchema
	results    map[string]*schema.ResultSet
	errors     map[string]error
	callCounts map[string]int
}

// ProviderOption is a functional option for configuring MockSchemaProvider
type ProviderOption func(*MockSchemaProvider)

// WithSchemas sets the table schemas returned by the mock
func WithSchemas(schemas map[string]schema.TableSchema) ProviderOption {
	return func(m *MockSchemaProvider) {
		m.schemas = schemas
	}
}

// WithQueryResult sets the result returned for a specific query string
func WithQueryResult(query string, result *schema.ResultSet) ProviderOption {
	return func(m *MockSchemaProvider) {
		m.results[query] = result
	}
}

// WithProviderError sets an error for a specific operation
// ("tables", "schemas", or a query string)
func WithProviderError(key string, err error) ProviderOption {
	return func(m *MockSchemaProvider) {
		m.errors[key] = err
	}
}

// NewMockSchemaProvider creates a new mock provider with the given options
func NewMockSchemaProvider(opts ...ProviderOption) *MockSchemaProvider {
	mock := &MockSchemaProvider{
		schemas:    make(map[string]schema.TableSchema),
		results:    make(map[string]*schema.ResultSet),
		errors:     make(map[string]error),
		callCounts: make(map[string]int),
	}

	for _, opt := range opts {
		opt(mock)
	}

	return mock
}

// ListTables returns the configured table names in map order
func (m *MockSchemaProvider) ListTables(_ context.Context) ([]string, error) {
	m.record("ListTables")

	m.mu.RLock()
	defer m.mu.RUnlock()

	if err, exists := m.errors["tables"]; exists {
		return nil, err
	}

	tables := make([]string, 0, len(m.schemas))
	for name := range m.schemas {
		tables = append(tables, name)
	}

	return tables, nil
}

// GetTableSchema returns the configured schema for one table
func (m *MockSchemaProvider) GetTableSchema(_ context.Context, tableName string) (schema.TableSchema, error) {
	m.record("GetTableSchema")

	m.mu.RLock()
	defer m.mu.RUnlock()

	if err, exists := m.errors[tableName]; exists {
		return schema.TableSchema{}, err
	}

	return m.schemas[tableName], nil
}

// GetAllSchemas returns a copy of the configured schema map
func (m *MockSchemaProvider) GetAllSchemas(_ context.Context) (map[string]schema.TableSchema, error) {
	m.record("GetAllSchemas")

	m.mu.RLock()
	defer m.mu.RUnlock()

	if err, exists := m.errors["schemas"]; exists {
		return nil, err
	}

	schemas := make(map[string]schema.TableSchema, len(m.schemas))
	for name, s := range m.schemas {
		schemas[name] = s
	}

	return schemas, nil
}

// ExecuteQuery returns the result configured for the exact query string
func (m *MockSchemaProvider) ExecuteQuery(_ context.Context, query string) (*schema.ResultSet, error) {
	m.record("ExecuteQuery")

	m.mu.RLock()
	defer m.mu.RUnlock()

	if err, exists := m.errors[query]; exists {
		return nil, err
	}

	if result, exists := m.results[query]; exists {
		return result, nil
	}

	return &schema.ResultSet{Columns: []string{}, Rows: [][]interface{}{}}, nil
}

// GetSampleData returns the result configured under "sample:<table>"
func (m *MockSchemaProvider) GetSampleData(_ context.Context, tableName string, _ int) (*schema.ResultSet, error) {
	m.record("GetSampleData")

	m.mu.RLock()
	defer m.mu.RUnlock()

	key := "sample:" + tableName

	if err, exists := m.errors[key]; exists {
		return nil, err
	}

	if result, exists := m.results[key]; exists {
		return result, nil
	}

	return &schema.ResultSet{Columns: []string{}, Rows: [][]interface{}{}}, nil
}

// Close is a no-op
func (m *MockSchemaProvider) Close() error {
	m.record("Close")
	return nil
}

// GetCallCount returns the number of times a method was called
func (m *MockSchemaProvider) GetCallCount(method string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.callCounts[method]
}

func (m *MockSchemaProvider) record(method string) {
	m.mu.Lock()
	m.callCounts[method]++
	m.mu.Unlock()
}

// MockLLMService implements llm.Service with a fixed response or error
type MockLLMService struct {
	mu sync.Mutex

	response *llm.QueryResponse
	err      error

	callCount   int
	lastPrompt  string
	lastRequest string
}

// NewMockLLMService creates a mock that returns the given response
func NewMockLLMService(response *llm.QueryResponse) *MockLLMService {
	return &MockLLMService{response: response}
}

// NewFailingLLMService creates a mock whose generation always fails
func NewFailingLLMService(err error) *MockLLMService {
	return &MockLLMService{err: err}
}

// GenerateSQL returns the configured response or error
func (m *MockLLMService) GenerateSQL(_ context.Context, question, systemPrompt string) (*llm.QueryResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.callCount++
	m.lastRequest = question
	m.lastPrompt = systemPrompt

	if m.err != nil {
		return nil, m.err
	}

	return m.response, nil
}

// CallCount returns how many times GenerateSQL was called
func (m *MockLLMService) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.callCount
}

// LastQuestion returns the question passed to the most recent call
func (m *MockLLMService) LastQuestion() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.lastRequest
}

// LastSystemPrompt returns the system prompt passed to the most recent call
func (m *MockLLMService) LastSystemPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.lastPrompt
}

// MockEmbeddingProvider implements embedding.Provider with deterministic
// vectors so distance-based assertions are stable across runs
type MockEmbeddingProvider struct {
	mu sync.Mutex

	dimensions int
	vectors    map[string][]float32
	err        error
	callCount  int
}

// NewMockEmbeddingProvider creates a mock producing vectors of the given size
func NewMockEmbeddingProvider(dimensions int) *MockEmbeddingProvider {
	return &MockEmbeddingProvider{
		dimensions: dimensions,
		vectors:    make(map[string][]float32),
	}
}

// SetVector pins the vector returned for an exact text
func (m *MockEmbeddingProvider) SetVector(text string, vector []float32) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.vectors[text] = vector
}

// SetError makes every subsequent call fail
func (m *MockEmbeddingProvider) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.err = err
}

// GenerateEmbedding returns the pinned vector for the text, or a hash-derived
// one so distinct texts map to distinct vectors
func (m *MockEmbeddingProvider) GenerateEmbedding(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.callCount++

	if m.err != nil {
		return nil, m.err
	}

	if vector, exists := m.vectors[text]; exists {
		return vector, nil
	}

	hash := fnv.New32a()
	_, _ = hash.Write([]byte(text))
	seed := hash.Sum32()

	vector := make([]float32, m.dimensions)
	for i := range vector {
		seed = seed*1664525 + 1013904223
		vector[i] = float32(seed%1000) / 1000.0
	}

	return vector, nil
}

// GetDimensions returns the configured dimensionality
func (m *MockEmbeddingProvider) GetDimensions() int {
	return m.dimensions
}

// IsEnabled always reports true
func (m *MockEmbeddingProvider) IsEnabled() bool {
	return true
}

// GetName identifies the mock in log output
func (m *MockEmbeddingProvider) GetName() string {
	return "mock"
}

// CallCount returns how many embeddings were requested
func (m *MockEmbeddingProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.callCount
}
