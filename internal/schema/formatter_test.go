package schema

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name   string
		schema TableSchema
		want   string
	}{
		{
			name: "columns with primary key",
			schema: TableSchema{
				TableName: "patients",
				Columns: []Column{
					{Name: "patient_id", Type: "INTEGER", Nullable: false},
					{Name: "name", Type: "VARCHAR", Nullable: true},
					{Name: "department", Type: "VARCHAR", Nullable: true},
				},
				PrimaryKey: []string{"patient_id"},
			},
			want: "Table: patients\n" +
				"Columns:\n" +
				"  patient_id (INTEGER, not null)\n" +
				"  name (VARCHAR, nullable)\n" +
				"  department (VARCHAR, nullable)\n" +
				"Primary Key: patient_id",
		},
		{
			name: "composite primary key",
			schema: TableSchema{
				TableName: "visits",
				Columns: []Column{
					{Name: "visit_date", Type: "TEXT", Nullable: false},
					{Name: "department", Type: "TEXT", Nullable: false},
				},
				PrimaryKey: []string{"visit_date", "department"},
			},
			want: "Table: visits\n" +
				"Columns:\n" +
				"  visit_date (TEXT, not null)\n" +
				"  department (TEXT, not null)\n" +
				"Primary Key: visit_date, department",
		},
		{
			name: "no primary key omits the line",
			schema: TableSchema{
				TableName: "visits_summary",
				Columns: []Column{
					{Name: "patient_count", Type: "INTEGER", Nullable: true},
				},
			},
			want: "Table: visits_summary\n" +
				"Columns:\n" +
				"  patient_count (INTEGER, nullable)",
		},
		{
			name:   "zero columns",
			schema: TableSchema{TableName: "empty_table"},
			want:   "Table: empty_table\nColumns:",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Format(tt.schema))
		})
	}
}

func TestFormatDeterministic(t *testing.T) {
	s := TableSchema{
		TableName: "doctors",
		Columns: []Column{
			{Name: "doctor_id", Type: "INTEGER", Nullable: false},
			{Name: "specialty", Type: "VARCHAR", Nullable: true},
		},
		PrimaryKey: []string{"doctor_id"},
	}

	first := Format(s)
	for range 10 {
		assert.Equal(t, first, Format(s))
	}
}

func TestFormatAll(t *testing.T) {
	schemas := map[string]TableSchema{
		"patients": {TableName: "patients", Columns: []Column{{Name: "id", Type: "INTEGER"}}},
		"doctors":  {TableName: "doctors", Columns: []Column{{Name: "id", Type: "INTEGER"}}},
	}

	out := FormatAll(schemas)

	assert.Contains(t, out, "Table: patients")
	assert.Contains(t, out, "Table: doctors")
	assert.Equal(t, 1, strings.Count(out, "\n\n"))
}
