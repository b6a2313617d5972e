// Package agent orchestrates the question-to-answer pipeline: prompt
// assembly, SQL generation, safety validation, execution, and result
// packaging.
package agent

import (
	"context"
	"strings"
	"sync"

	"github.com/Alice344/MedSQLAgent/internal/errors"
	"github.com/Alice344/MedSQLAgent/internal/llm"
	"github.com/Alice344/MedSQLAgent/internal/logging"
	"github.com/Alice344/MedSQLAgent/internal/prompt"
	"github.com/Alice344/MedSQLAgent/internal/safety"
	"github.com/Alice344/MedSQLAgent/internal/schema"
	"github.com/Alice344/MedSQLAgent/internal/vectorstore"
)

// unsafeQueryMessage is the user-facing rejection text for denied statements
const unsafeQueryMessage = "query contains unsafe operations"

// QueryOutcome is the packaged result of one natural language query. Exactly
// one of Result or Error is meaningful: Success selects which.
type QueryOutcome struct {
	Success     bool              `json:"success"`
	SQL         string            `json:"sql"`
	Explanation string            `json:"explanation"`
	Confidence  float64           `json:"confidence"`
	TablesUsed  []string          `json:"tables_used"`
	Result      *schema.ResultSet `json:"result,omitempty"`
	RowCount    int               `json:"row_count"`
	Error       string            `json:"error,omitempty"`
}

// Agent wires the schema provider, schema store, prompt builder, and LLM
// service into a single query pipeline. The schema snapshot is cached and
// replaced wholesale by RefreshSchemas so concurrent queries never observe a
// half-updated mapping.
type Agent struct {
	provider schema.Provider
	store    *vectorstore.Store
	llm      llm.Service
	prompts  *prompt.Builder
	logger   *logging.Logger

	mu      sync.RWMutex
	schemas map[string]schema.TableSchema
}

// New creates an agent over the given components
func New(provider schema.Provider, store *vectorstore.Store, service llm.Service, prompts *prompt.Builder) *Agent {
	return &Agent{
		provider: provider,
		store:    store,
		llm:      service,
		prompts:  prompts,
		logger:   logging.GetLogger().WithField("component", "agent"),
		schemas:  make(map[string]schema.TableSchema),
	}
}

// Initialize loads the schema snapshot, populating the store on cold start.
// When the store already holds a persisted index the database is not
// re-introspected; call RefreshSchemas to pick up DDL changes.
func (a *Agent) Initialize(ctx context.Context) error {
	if a.store.Count() > 0 {
		a.mu.Lock()
		a.schemas = a.store.GetAllSchemas()
		a.mu.Unlock()

		a.logger.WithField("tables", len(a.schemas)).Debug("loaded schema snapshot from store")

		return nil
	}

	return a.RefreshSchemas(ctx)
}

// RefreshSchemas re-introspects the database and rebuilds the schema index.
// The in-memory snapshot swaps atomically after the rebuild succeeds.
func (a *Agent) RefreshSchemas(ctx context.Context) error {
	schemas, err := a.provider.GetAllSchemas(ctx)
	if err != nil {
		return errors.Wrap(err, errors.ErrTypeDatabase, "failed to introspect database schemas")
	}

	if err := a.store.Clear(); err != nil {
		return err
	}

	if err := a.store.AddSchemas(ctx, schemas); err != nil {
		return err
	}

	a.mu.Lock()
	a.schemas = schemas
	a.mu.Unlock()

	a.logger.WithField("tables", len(schemas)).Info("schema index refreshed")

	return nil
}

// ExecuteQuery runs the full pipeline for one natural language question.
// Pipeline failures are packaged into the outcome rather than returned; the
// error return covers only invalid input.
func (a *Agent) ExecuteQuery(ctx context.Context, question string, mode prompt.Mode) (*QueryOutcome, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, errors.New(errors.ErrTypeValidation, "question must not be empty")
	}

	a.mu.RLock()
	schemas := a.schemas
	a.mu.RUnlock()

	systemPrompt := a.prompts.Build(ctx, question, schemas, mode)

	response, err := a.llm.GenerateSQL(ctx, question, systemPrompt)
	if err != nil || response == nil {
		// The built-in client degrades to a safe-failure result itself;
		// this guard covers other Service implementations.
		response = llm.SafeFailureResult(err)
	}

	outcome := &QueryOutcome{
		SQL:         response.SQL,
		Explanation: response.Explanation,
		Confidence:  response.Confidence,
		TablesUsed:  response.TablesUsed,
	}

	if !safety.IsSafe(response.SQL) {
		a.logger.WithField("sql", response.SQL).Warn("rejected unsafe query")

		outcome.Error = unsafeQueryMessage

		return outcome, nil
	}

	result, err := a.provider.ExecuteQuery(ctx, response.SQL)
	if err != nil {
		a.logger.WithError(err).WithField("sql", response.SQL).Error("query execution failed")

		outcome.Error = err.Error()

		return outcome, nil
	}

	outcome.Success = true
	outcome.Result = result
	outcome.RowCount = result.RowCount

	return outcome, nil
}

// ListTables returns the table names in the current snapshot, for display
func (a *Agent) ListTables(ctx context.Context) ([]string, error) {
	return a.provider.ListTables(ctx)
}

// Schemas returns a copy of the current schema snapshot
func (a *Agent) Schemas() map[string]schema.TableSchema {
	a.mu.RLock()
	defer a.mu.RUnlock()

	schemas := make(map[string]schema.TableSchema, len(a.schemas))
	for name, s := range a.schemas {
		schemas[name] = s
	}

	return schemas
}

// GetSampleData returns up to limit rows of the given table
func (a *Agent) GetSampleData(ctx context.Context, tableName string, limit int) (*schema.ResultSet, error) {
	return a.provider.GetSampleData(ctx, tableName, limit)
}

// ClearStore empties the persisted schema index and the in-memory snapshot
func (a *Agent) ClearStore() error {
	if err := a.store.Clear(); err != nil {
		return err
	}

	a.mu.Lock()
	a.schemas = make(map[string]schema.TableSchema)
	a.mu.Unlock()

	return nil
}

// Close releases the underlying database connection
func (a *Agent) Close() error {
	return a.provider.Close()
}
