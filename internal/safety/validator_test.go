package safety

import "testing"

func TestIsSafe(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		want bool
	}{
		{
			name: "plain select",
			sql:  "SELECT patient_id, name FROM patients WHERE age > 60",
			want: true,
		},
		{
			name: "aggregate select",
			sql:  "SELECT department, COUNT(*) AS patient_count FROM patients GROUP BY department",
			want: true,
		},
		{
			name: "join select",
			sql:  "SELECT d.name FROM doctors d LEFT JOIN patients p ON d.department = p.department",
			want: true,
		},
		{
			name: "delete statement",
			sql:  "DELETE FROM patients",
			want: false,
		},
		{
			name: "lowercase delete",
			sql:  "delete from patients where patient_id = 1",
			want: false,
		},
		{
			name: "mixed case drop",
			sql:  "DrOp TaBlE patients",
			want: false,
		},
		{
			name: "update statement",
			sql:  "UPDATE patients SET name = 'x'",
			want: false,
		},
		{
			name: "insert statement",
			sql:  "INSERT INTO patients VALUES (1, 'x')",
			want: false,
		},
		{
			name: "truncate statement",
			sql:  "TRUNCATE TABLE visits_summary",
			want: false,
		},
		{
			name: "alter statement",
			sql:  "ALTER TABLE patients ADD COLUMN notes TEXT",
			want: false,
		},
		{
			name: "select hiding a drop in subquery",
			sql:  "SELECT * FROM patients; DROP TABLE patients",
			want: false,
		},
		{
			name: "keyword inside a string literal is a known false positive",
			sql:  "SELECT * FROM audit_log WHERE action = 'update'",
			want: false,
		},
		{
			name: "empty statement",
			sql:  "",
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsSafe(tt.sql); got != tt.want {
				t.Errorf("IsSafe(%q) = %v, want %v", tt.sql, got, tt.want)
			}
		})
	}
}

func TestDeniedKeywordsIsACopy(t *testing.T) {
	keywords := DeniedKeywords()
	keywords[0] = "SELECT"

	if !IsSafe("SELECT 1") {
		t.Error("mutating the returned slice must not affect validation")
	}
}
