package schema

import "context"

// Column represents a single column in a table schema
type Column struct {
	Name     string  `json:"name"`
	Type     string  `json:"type"`
	Nullable bool    `json:"nullable"`
	Default  *string `json:"default,omitempty"`
}

// TableSchema is an immutable snapshot of a table's structure. A refresh
// produces a whole new map of these; snapshots are never mutated in place.
type TableSchema struct {
	TableName  string   `json:"table_name"`
	Columns    []Column `json:"columns"`
	PrimaryKey []string `json:"primary_key"`
}

// ResultSet is a tabular query result
type ResultSet struct {
	Columns  []string        `json:"columns"`
	Rows     [][]interface{} `json:"rows"`
	RowCount int             `json:"row_count"`
}

// Provider exposes table metadata and read-only query execution. It owns all
// vendor-specific connection details and dialect differences; callers never
// special-case a database vendor.
type Provider interface {
	// ListTables returns the names of all tables
	ListTables(ctx context.Context) ([]string, error)

	// GetTableSchema returns the structural metadata for one table
	GetTableSchema(ctx context.Context, tableName string) (TableSchema, error)

	// GetAllSchemas returns a fresh snapshot mapping table name to schema
	GetAllSchemas(ctx context.Context) (map[string]TableSchema, error)

	// ExecuteQuery runs an already-validated read-only statement
	ExecuteQuery(ctx context.Context, query string) (*ResultSet, error)

	// GetSampleData returns up to limit rows from the given table
	GetSampleData(ctx context.Context, tableName string, limit int) (*ResultSet, error)

	// Close releases the underlying connection
	Close() error
}
