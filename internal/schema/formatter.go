package schema

import (
	"fmt"
	"strings"
)

// Format renders a table schema as the canonical text block consumed by both
// the embedding index and the generation prompt. The layout is fixed: the
// same schema must always produce byte-identical text.
func Format(s TableSchema) string {
	parts := []string{fmt.Sprintf("Table: %s", s.TableName)}
	parts = append(parts, "Columns:")

	for _, col := range s.Columns {
		nullable := "not null"
		if col.Nullable {
			nullable = "nullable"
		}

		parts = append(parts, fmt.Sprintf("  %s (%s, %s)", col.Name, col.Type, nullable))
	}

	if len(s.PrimaryKey) > 0 {
		parts = append(parts, fmt.Sprintf("Primary Key: %s", strings.Join(s.PrimaryKey, ", ")))
	}

	return strings.Join(parts, "\n")
}

// FormatAll renders every schema in the mapping, separated by blank lines.
// Iteration follows Go map order; callers that need a stable prompt for the
// same schema set should not rely on section ordering.
func FormatAll(schemas map[string]TableSchema) string {
	blocks := make([]string, 0, len(schemas))
	for _, s := range schemas {
		blocks = append(blocks, Format(s))
	}

	return strings.Join(blocks, "\n\n")
}
