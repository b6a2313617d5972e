package database

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alice344/MedSQLAgent/internal/errors"
)

func newMockProvider(t *testing.T, driver string) (*SQLProvider, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	t.Cleanup(func() { _ = db.Close() })

	return NewSQLProviderWithDB(db, driver, time.Second), mock
}

func TestNewSQLProviderUnsupportedDriver(t *testing.T) {
	_, err := NewSQLProvider("oracle", "dsn", 0)

	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeConfig))
	assert.Contains(t, err.Error(), "oracle")
}

func TestListTables(t *testing.T) {
	provider, mock := newMockProvider(t, "sqlite")

	mock.ExpectQuery("SELECT name FROM sqlite_master").
		WillReturnRows(sqlmock.NewRows([]string{"name"}).
			AddRow("admissions").
			AddRow("patients"))

	tables, err := provider.ListTables(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"admissions", "patients"}, tables)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListTablesQueryError(t *testing.T) {
	provider, mock := newMockProvider(t, "duckdb")

	mock.ExpectQuery("SELECT table_name FROM information_schema.tables").
		WillReturnError(fmt.Errorf("connection reset"))

	_, err := provider.ListTables(context.Background())

	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeDatabase))
}

func TestGetTableSchemaPragma(t *testing.T) {
	provider, mock := newMockProvider(t, "sqlite")

	mock.ExpectQuery(`PRAGMA table_info`).
		WillReturnRows(sqlmock.NewRows([]string{"cid", "name", "type", "notnull", "dflt_value", "pk"}).
			AddRow(0, "patient_id", "INTEGER", int64(1), nil, int64(1)).
			AddRow(1, "name", "TEXT", int64(1), nil, int64(0)).
			AddRow(2, "discharge_date", "DATE", int64(0), "CURRENT_DATE", int64(0)))

	tableSchema, err := provider.GetTableSchema(context.Background(), "patients")

	require.NoError(t, err)
	assert.Equal(t, "patients", tableSchema.TableName)
	require.Len(t, tableSchema.Columns, 3)

	assert.Equal(t, "patient_id", tableSchema.Columns[0].Name)
	assert.False(t, tableSchema.Columns[0].Nullable)
	assert.Nil(t, tableSchema.Columns[0].Default)

	assert.True(t, tableSchema.Columns[2].Nullable)
	require.NotNil(t, tableSchema.Columns[2].Default)
	assert.Equal(t, "CURRENT_DATE", *tableSchema.Columns[2].Default)

	assert.Equal(t, []string{"patient_id"}, tableSchema.PrimaryKey)
}

func TestGetTableSchemaPostgres(t *testing.T) {
	provider, mock := newMockProvider(t, "postgres")

	mock.ExpectQuery("SELECT column_name, data_type, is_nullable, column_default").
		WithArgs("patients").
		WillReturnRows(sqlmock.NewRows([]string{"column_name", "data_type", "is_nullable", "column_default"}).
			AddRow("patient_id", "integer", "NO", nil).
			AddRow("name", "text", "YES", nil))

	mock.ExpectQuery("SELECT kcu.column_name").
		WithArgs("patients").
		WillReturnRows(sqlmock.NewRows([]string{"column_name"}).
			AddRow("patient_id"))

	tableSchema, err := provider.GetTableSchema(context.Background(), "patients")

	require.NoError(t, err)
	require.Len(t, tableSchema.Columns, 2)
	assert.False(t, tableSchema.Columns[0].Nullable)
	assert.True(t, tableSchema.Columns[1].Nullable)
	assert.Equal(t, []string{"patient_id"}, tableSchema.PrimaryKey)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetAllSchemas(t *testing.T) {
	provider, mock := newMockProvider(t, "sqlite")

	mock.ExpectQuery("SELECT name FROM sqlite_master").
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("patients"))
	mock.ExpectQuery(`PRAGMA table_info`).
		WillReturnRows(sqlmock.NewRows([]string{"cid", "name", "type", "notnull", "dflt_value", "pk"}).
			AddRow(0, "patient_id", "INTEGER", int64(1), nil, int64(1)))

	schemas, err := provider.GetAllSchemas(context.Background())

	require.NoError(t, err)
	require.Len(t, schemas, 1)
	assert.Contains(t, schemas, "patients")
}

func TestExecuteQuery(t *testing.T) {
	provider, mock := newMockProvider(t, "duckdb")

	mock.ExpectQuery("SELECT patient_id, name FROM patients").
		WillReturnRows(sqlmock.NewRows([]string{"patient_id", "name"}).
			AddRow(int64(1), []byte("Alice")).
			AddRow(int64(2), []byte("Bob")))

	result, err := provider.ExecuteQuery(context.Background(), "SELECT patient_id, name FROM patients")

	require.NoError(t, err)
	assert.Equal(t, []string{"patient_id", "name"}, result.Columns)
	assert.Equal(t, 2, result.RowCount)
	require.Len(t, result.Rows, 2)

	// []byte values come back as strings
	assert.Equal(t, "Alice", result.Rows[0][1])
}

func TestExecuteQueryEmptyResult(t *testing.T) {
	provider, mock := newMockProvider(t, "duckdb")

	mock.ExpectQuery("SELECT").
		WillReturnRows(sqlmock.NewRows([]string{"count"}))

	result, err := provider.ExecuteQuery(context.Background(), "SELECT count(*) FROM patients WHERE 1 = 0")

	require.NoError(t, err)
	assert.Equal(t, 0, result.RowCount)
	assert.NotNil(t, result.Rows)
	assert.Empty(t, result.Rows)
}

func TestExecuteQueryError(t *testing.T) {
	provider, mock := newMockProvider(t, "duckdb")

	mock.ExpectQuery("SELECT").
		WillReturnError(fmt.Errorf(`table "nonexistent" does not exist`))

	_, err := provider.ExecuteQuery(context.Background(), "SELECT * FROM nonexistent")

	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeExecution))
}

func TestGetSampleData(t *testing.T) {
	provider, mock := newMockProvider(t, "sqlite")

	mock.ExpectQuery(`SELECT \* FROM "patients" LIMIT 3`).
		WillReturnRows(sqlmock.NewRows([]string{"patient_id"}).
			AddRow(int64(1)).
			AddRow(int64(2)).
			AddRow(int64(3)))

	result, err := provider.GetSampleData(context.Background(), "patients", 3)

	require.NoError(t, err)
	assert.Equal(t, 3, result.RowCount)
}

func TestGetSampleDataDefaultLimit(t *testing.T) {
	provider, mock := newMockProvider(t, "sqlite")

	mock.ExpectQuery(`SELECT \* FROM "patients" LIMIT 5`).
		WillReturnRows(sqlmock.NewRows([]string{"patient_id"}))

	_, err := provider.GetSampleData(context.Background(), "patients", 0)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuoteIdent(t *testing.T) {
	assert.Equal(t, `"patients"`, quoteIdent("patients"))
	assert.Equal(t, `"odd""name"`, quoteIdent(`odd"name`))
}

func TestToBool(t *testing.T) {
	tests := []struct {
		value    interface{}
		expected bool
	}{
		{true, true},
		{false, false},
		{int64(1), true},
		{int64(0), false},
		{"1", true},
		{"0", false},
		{"true", true},
		{[]byte("1"), true},
		{nil, false},
		{3.14, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, toBool(tt.value), "value %v", tt.value)
	}
}
