// Package testutil provides shared mocks and fixture builders for tests.
package testutil

import "github.com/Alice344/MedSQLAgent/internal/schema"

// PatientsSchema builds the patients table fixture used across tests
func PatientsSchema() schema.TableSchema {
	return schema.TableSchema{
		TableName: "patients",
		Columns: []schema.Column{
			{Name: "patient_id", Type: "INTEGER", Nullable: false},
			{Name: "name", Type: "VARCHAR", Nullable: false},
			{Name: "date_of_birth", Type: "DATE", Nullable: true},
			{Name: "gender", Type: "VARCHAR", Nullable: true},
		},
		PrimaryKey: []string{"patient_id"},
	}
}

// AdmissionsSchema builds the admissions table fixture used across tests
func AdmissionsSchema() schema.TableSchema {
	return schema.TableSchema{
		TableName: "admissions",
		Columns: []schema.Column{
			{Name: "admission_id", Type: "INTEGER", Nullable: false},
			{Name: "patient_id", Type: "INTEGER", Nullable: false},
			{Name: "admit_date", Type: "DATE", Nullable: false},
			{Name: "discharge_date", Type: "DATE", Nullable: true},
			{Name: "diagnosis", Type: "VARCHAR", Nullable: true},
		},
		PrimaryKey: []string{"admission_id"},
	}
}

// MedicalSchemas builds the standard two-table fixture map
func MedicalSchemas() map[string]schema.TableSchema {
	return map[string]schema.TableSchema{
		"patients":   PatientsSchema(),
		"admissions": AdmissionsSchema(),
	}
}

// SingleRowResult builds a one-row result set for query execution tests
func SingleRowResult(column string, value interface{}) *schema.ResultSet {
	return &schema.ResultSet{
		Columns:  []string{column},
		Rows:     [][]interface{}{{value}},
		RowCount: 1,
	}
}
