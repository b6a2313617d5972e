// Package database implements the schema.Provider interface over database/sql.
// All vendor-specific details live here: driver registration, introspection
// queries, and row-limiting syntax.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/Alice344/MedSQLAgent/internal/errors"
	"github.com/Alice344/MedSQLAgent/internal/schema"

	_ "github.com/jackc/pgx/v5/stdlib" // Postgres driver
	_ "modernc.org/sqlite"             // SQLite driver
)

const (
	defaultQueryTimeout = 30 * time.Second

	maxOpenConns    = 10
	maxIdleConns    = 5
	connMaxLifetime = 30 * time.Minute
)

// driverNames maps the configured driver to the database/sql driver name
var driverNames = map[string]string{
	"duckdb":   "duckdb",
	"sqlite":   "sqlite",
	"postgres": "pgx",
}

// SQLProvider implements schema.Provider for DuckDB, SQLite, and Postgres
type SQLProvider struct {
	db           *sql.DB
	driver       string
	queryTimeout time.Duration
}

// NewSQLProvider opens a connection for the given driver and DSN
func NewSQLProvider(driver, dsn string, queryTimeout time.Duration) (*SQLProvider, error) {
	driver = strings.ToLower(driver)

	sqlDriver, ok := driverNames[driver]
	if !ok {
		return nil, errors.Newf(errors.ErrTypeConfig, "unsupported database driver: %s", driver)
	}

	db, err := sql.Open(sqlDriver, dsn)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeDatabase, "failed to open database")
	}

	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, errors.ErrTypeDatabase, "failed to connect to database")
	}

	if queryTimeout <= 0 {
		queryTimeout = defaultQueryTimeout
	}

	return &SQLProvider{
		db:           db,
		driver:       driver,
		queryTimeout: queryTimeout,
	}, nil
}

// NewSQLProviderWithDB wraps an existing database handle (used in tests)
func NewSQLProviderWithDB(db *sql.DB, driver string, queryTimeout time.Duration) *SQLProvider {
	if queryTimeout <= 0 {
		queryTimeout = defaultQueryTimeout
	}

	return &SQLProvider{
		db:           db,
		driver:       strings.ToLower(driver),
		queryTimeout: queryTimeout,
	}
}

// ListTables returns the names of all user tables
func (p *SQLProvider) ListTables(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.queryTimeout)
	defer cancel()

	var query string

	switch p.driver {
	case "sqlite":
		query = `SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`
	case "postgres":
		query = `SELECT table_name FROM information_schema.tables WHERE table_schema = 'public' AND table_type = 'BASE TABLE' ORDER BY table_name`
	default: // duckdb
		query = `SELECT table_name FROM information_schema.tables WHERE table_schema = 'main' ORDER BY table_name`
	}

	rows, err := p.db.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeDatabase, "failed to list tables")
	}
	defer rows.Close()

	var tables []string

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, errors.Wrap(err, errors.ErrTypeDatabase, "failed to scan table name")
		}

		tables = append(tables, name)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeDatabase, "failed to read table names")
	}

	return tables, nil
}

// GetTableSchema returns the structural metadata for one table
func (p *SQLProvider) GetTableSchema(ctx context.Context, tableName string) (schema.TableSchema, error) {
	ctx, cancel := context.WithTimeout(ctx, p.queryTimeout)
	defer cancel()

	if p.driver == "postgres" {
		return p.postgresTableSchema(ctx, tableName)
	}

	return p.pragmaTableSchema(ctx, tableName)
}

// pragmaTableSchema introspects via PRAGMA table_info, which both SQLite and
// DuckDB support with the same column layout
func (p *SQLProvider) pragmaTableSchema(ctx context.Context, tableName string) (schema.TableSchema, error) {
	result := schema.TableSchema{TableName: tableName}

	rows, err := p.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", quoteIdent(tableName)))
	if err != nil {
		return result, errors.Wrapf(err, errors.ErrTypeDatabase,
			"failed to introspect table %s", tableName)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid          int
			name         string
			colType      string
			notNull, pk  interface{}
			defaultValue sql.NullString
		)

		if err := rows.Scan(&cid, &name, &colType, &notNull, &defaultValue, &pk); err != nil {
			return result, errors.Wrap(err, errors.ErrTypeDatabase, "failed to scan column info")
		}

		col := schema.Column{
			Name:     name,
			Type:     colType,
			Nullable: !toBool(notNull),
		}
		if defaultValue.Valid {
			def := defaultValue.String
			col.Default = &def
		}

		result.Columns = append(result.Columns, col)

		if toBool(pk) {
			result.PrimaryKey = append(result.PrimaryKey, name)
		}
	}

	if err := rows.Err(); err != nil {
		return result, errors.Wrap(err, errors.ErrTypeDatabase, "failed to read column info")
	}

	return result, nil
}

// postgresTableSchema introspects via information_schema
func (p *SQLProvider) postgresTableSchema(ctx context.Context, tableName string) (schema.TableSchema, error) {
	result := schema.TableSchema{TableName: tableName}

	const columnsQuery = `
		SELECT column_name, data_type, is_nullable, column_default
		FROM information_schema.columns
		WHERE table_schema = 'public' AND table_name = $1
		ORDER BY ordinal_position`

	rows, err := p.db.QueryContext(ctx, columnsQuery, tableName)
	if err != nil {
		return result, errors.Wrapf(err, errors.ErrTypeDatabase,
			"failed to introspect table %s", tableName)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			name, colType, isNullable string
			defaultValue              sql.NullString
		)

		if err := rows.Scan(&name, &colType, &isNullable, &defaultValue); err != nil {
			return result, errors.Wrap(err, errors.ErrTypeDatabase, "failed to scan column info")
		}

		col := schema.Column{
			Name:     name,
			Type:     colType,
			Nullable: strings.EqualFold(isNullable, "YES"),
		}
		if defaultValue.Valid {
			def := defaultValue.String
			col.Default = &def
		}

		result.Columns = append(result.Columns, col)
	}

	if err := rows.Err(); err != nil {
		return result, errors.Wrap(err, errors.ErrTypeDatabase, "failed to read column info")
	}

	const pkQuery = `
		SELECT kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
		WHERE tc.constraint_type = 'PRIMARY KEY'
			AND tc.table_schema = 'public'
			AND tc.table_name = $1
		ORDER BY kcu.ordinal_position`

	pkRows, err := p.db.QueryContext(ctx, pkQuery, tableName)
	if err != nil {
		return result, errors.Wrapf(err, errors.ErrTypeDatabase,
			"failed to read primary key of table %s", tableName)
	}
	defer pkRows.Close()

	for pkRows.Next() {
		var name string
		if err := pkRows.Scan(&name); err != nil {
			return result, errors.Wrap(err, errors.ErrTypeDatabase, "failed to scan primary key column")
		}

		result.PrimaryKey = append(result.PrimaryKey, name)
	}

	if err := pkRows.Err(); err != nil {
		return result, errors.Wrap(err, errors.ErrTypeDatabase, "failed to read primary key columns")
	}

	return result, nil
}

// GetAllSchemas returns a fresh snapshot of every table's schema
func (p *SQLProvider) GetAllSchemas(ctx context.Context) (map[string]schema.TableSchema, error) {
	tables, err := p.ListTables(ctx)
	if err != nil {
		return nil, err
	}

	schemas := make(map[string]schema.TableSchema, len(tables))

	for _, table := range tables {
		tableSchema, err := p.GetTableSchema(ctx, table)
		if err != nil {
			return nil, err
		}

		schemas[table] = tableSchema
	}

	return schemas, nil
}

// ExecuteQuery runs an already-validated read-only statement and returns the
// full result set
func (p *SQLProvider) ExecuteQuery(ctx context.Context, query string) (*schema.ResultSet, error) {
	ctx, cancel := context.WithTimeout(ctx, p.queryTimeout)
	defer cancel()

	rows, err := p.db.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeExecution, "SQL execution error")
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeExecution, "failed to read result columns")
	}

	result := &schema.ResultSet{
		Columns: columns,
		Rows:    [][]interface{}{},
	}

	for rows.Next() {
		values := make([]interface{}, len(columns))
		pointers := make([]interface{}, len(columns))

		for i := range values {
			pointers[i] = &values[i]
		}

		if err := rows.Scan(pointers...); err != nil {
			return nil, errors.Wrap(err, errors.ErrTypeExecution, "failed to scan result row")
		}

		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}

		result.Rows = append(result.Rows, values)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeExecution, "failed to read result rows")
	}

	result.RowCount = len(result.Rows)

	return result, nil
}

// GetSampleData returns up to limit rows from the given table. Row limiting
// is the one dialect seam exposed here; every wired driver uses LIMIT.
func (p *SQLProvider) GetSampleData(ctx context.Context, tableName string, limit int) (*schema.ResultSet, error) {
	if limit <= 0 {
		limit = 5
	}

	query := fmt.Sprintf("SELECT * FROM %s LIMIT %d", quoteIdent(tableName), limit)

	return p.ExecuteQuery(ctx, query)
}

// Close releases the underlying connection pool
func (p *SQLProvider) Close() error {
	return p.db.Close()
}

// quoteIdent double-quotes an identifier so table names survive reserved
// words and mixed case
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// toBool coerces the driver-dependent notnull/pk representation (int64 for
// SQLite, bool for DuckDB) to a bool
func toBool(v interface{}) bool {
	switch value := v.(type) {
	case bool:
		return value
	case int64:
		return value != 0
	case string:
		return value == "1" || strings.EqualFold(value, "true")
	case []byte:
		return toBool(string(value))
	default:
		return false
	}
}
