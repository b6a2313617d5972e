package cmd

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alice344/MedSQLAgent/internal/agent"
	"github.com/Alice344/MedSQLAgent/internal/embedding"
	"github.com/Alice344/MedSQLAgent/internal/llm"
	"github.com/Alice344/MedSQLAgent/internal/prompt"
	"github.com/Alice344/MedSQLAgent/internal/schema"
	"github.com/Alice344/MedSQLAgent/internal/testutil"
	"github.com/Alice344/MedSQLAgent/internal/vectorstore"
)

func newCommandAgent(t *testing.T, provider *testutil.MockSchemaProvider) *agent.Agent {
	t.Helper()

	manager, err := embedding.NewManager(embedding.Config{Enabled: false})
	require.NoError(t, err)

	store, err := vectorstore.NewStore(t.TempDir(), manager)
	require.NoError(t, err)

	service := testutil.NewMockLLMService(&llm.QueryResponse{SQL: "SELECT 1"})

	a := agent.New(provider, store, service, prompt.NewBuilder(store, 3, false))
	require.NoError(t, a.Initialize(context.Background()))

	return a
}

func TestRunTablesWithAgent(t *testing.T) {
	provider := testutil.NewMockSchemaProvider(
		testutil.WithSchemas(testutil.MedicalSchemas()),
	)

	a := newCommandAgent(t, provider)

	output, err := captureOutput(t, func() error {
		return RunTablesWithAgent(context.Background(), a)
	})

	require.NoError(t, err)
	assert.Contains(t, output, "Tables (2):")
	assert.Contains(t, output, "admissions (5 columns)")
	assert.Contains(t, output, "patients (4 columns)")
	assert.Contains(t, output, "patient_id INTEGER (not null)")
	assert.Contains(t, output, "discharge_date DATE (nullable)")
}

func TestRunTablesWithAgentEmpty(t *testing.T) {
	a := newCommandAgent(t, testutil.NewMockSchemaProvider())

	output, err := captureOutput(t, func() error {
		return RunTablesWithAgent(context.Background(), a)
	})

	require.NoError(t, err)
	assert.Contains(t, output, "No tables found.")
}

func TestRunSampleWithAgent(t *testing.T) {
	provider := testutil.NewMockSchemaProvider(
		testutil.WithSchemas(testutil.MedicalSchemas()),
		testutil.WithQueryResult("sample:patients", &schema.ResultSet{
			Columns:  []string{"patient_id", "name"},
			Rows:     [][]interface{}{{int64(1), "Alice"}},
			RowCount: 1,
		}),
	)

	a := newCommandAgent(t, provider)

	output, err := captureOutput(t, func() error {
		return RunSampleWithAgent(context.Background(), a, "patients", 5)
	})

	require.NoError(t, err)
	assert.Contains(t, output, "patient_id")
	assert.Contains(t, output, "Alice")
	assert.Contains(t, output, "1 row(s)")
}

func TestRunSampleWithAgentEmptyTable(t *testing.T) {
	provider := testutil.NewMockSchemaProvider(
		testutil.WithSchemas(testutil.MedicalSchemas()),
	)

	a := newCommandAgent(t, provider)

	output, err := captureOutput(t, func() error {
		return RunSampleWithAgent(context.Background(), a, "patients", 5)
	})

	require.NoError(t, err)
	assert.Contains(t, output, "Table patients is empty.")
}
