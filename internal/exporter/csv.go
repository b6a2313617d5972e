// Package exporter writes query results to files for downstream analysis.
package exporter

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/Alice344/MedSQLAgent/internal/errors"
	"github.com/Alice344/MedSQLAgent/internal/schema"
)

const exportDirPerm = 0755

// CSVExporter writes result sets as CSV files into a fixed directory
type CSVExporter struct {
	directory string
}

// NewCSVExporter creates an exporter rooted at the given directory
func NewCSVExporter(directory string) *CSVExporter {
	return &CSVExporter{directory: directory}
}

// Export writes the result set to a uniquely named CSV file and returns its
// path. The header row carries the result columns; nil values render empty.
func (e *CSVExporter) Export(result *schema.ResultSet) (string, error) {
	if result == nil {
		return "", errors.New(errors.ErrTypeValidation, "no result to export")
	}

	if err := os.MkdirAll(e.directory, exportDirPerm); err != nil {
		return "", errors.Wrap(err, errors.ErrTypeFileSystem, "failed to create export directory")
	}

	name := fmt.Sprintf("query_result_%s_%s.csv",
		time.Now().Format("20060102_150405"),
		uuid.NewString()[:8])
	path := filepath.Join(e.directory, name)

	file, err := os.Create(path)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrTypeFileSystem, "failed to create export file")
	}
	defer file.Close()

	writer := csv.NewWriter(file)

	if err := writer.Write(result.Columns); err != nil {
		return "", errors.Wrap(err, errors.ErrTypeFileSystem, "failed to write CSV header")
	}

	row := make([]string, len(result.Columns))

	for _, values := range result.Rows {
		for i := range row {
			row[i] = ""
			if i < len(values) && values[i] != nil {
				row[i] = fmt.Sprintf("%v", values[i])
			}
		}

		if err := writer.Write(row); err != nil {
			return "", errors.Wrap(err, errors.ErrTypeFileSystem, "failed to write CSV row")
		}
	}

	writer.Flush()

	if err := writer.Error(); err != nil {
		return "", errors.Wrap(err, errors.ErrTypeFileSystem, "failed to flush CSV output")
	}

	if err := file.Close(); err != nil {
		return "", errors.Wrap(err, errors.ErrTypeFileSystem, "failed to close export file")
	}

	return path, nil
}
