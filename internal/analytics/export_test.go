// internal/analytics/export_test.go
package analytics

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exportRows(t *testing.T) *sqlmock.Rows {
	t.Helper()
	now := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	return sqlmock.NewRows([]string{
		"user_id", "location", "industry", "business_size",
		"annual_turnover", "employee_count", "confidence",
		"scheme_name", "interest_level", "last_mentioned_at",
	}).
		AddRow("user-1", "Mumbai", "Manufacturing - Textiles", "Small", int64(20000000), 15, 0.85, "Mudra Loan", "mentioned", now).
		AddRow("user-2", "Delhi", "Retail - Grocery", "Micro", nil, 3, 0.7, nil, nil, nil)
}

func TestExport_CSV(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectQuery("LEFT JOIN scheme_interests").WillReturnRows(exportRows(t))

	exporter := NewExporter(db, nopLogger{})
	payload, filename, err := exporter.Export(context.Background(), ExportRequest{Format: FormatCSV})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(filename, "msme-insights-export-"))
	assert.True(t, strings.HasSuffix(filename, ".csv"))
	assert.NotContains(t, filename, "_anonymized")

	records, err := csv.NewReader(strings.NewReader(string(payload))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3) // header + 2 rows
	assert.Equal(t, exportHeader, records[0])
	assert.Equal(t, "user-1", records[1][0])
	assert.Equal(t, "Mumbai", records[1][1])
	assert.Equal(t, "20000000", records[1][4])
	assert.Equal(t, "", records[2][4]) // null turnover stays empty
}

func TestExport_JSONAnonymized(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectQuery("LEFT JOIN scheme_interests").WillReturnRows(exportRows(t))

	exporter := NewExporter(db, nopLogger{})
	payload, filename, err := exporter.Export(context.Background(), ExportRequest{
		Format:    FormatJSON,
		Anonymize: true,
	})
	require.NoError(t, err)
	assert.Contains(t, filename, "_anonymized")

	var records []ExportRecord
	require.NoError(t, json.Unmarshal(payload, &records))
	require.Len(t, records, 2)

	for _, rec := range records {
		assert.Empty(t, rec.UserID)
	}
	// Location generalizes to the region bucket; counts stay exact.
	assert.NotEqual(t, "Mumbai", records[0].Location)
	assert.NotEmpty(t, records[0].Location)
	assert.Equal(t, 15, *records[0].EmployeeCount)
	assert.Equal(t, "Mudra Loan", records[0].SchemeName)
}

func TestExport_XLSX(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectQuery("LEFT JOIN scheme_interests").WillReturnRows(exportRows(t))

	exporter := NewExporter(db, nopLogger{})
	payload, filename, err := exporter.Export(context.Background(), ExportRequest{Format: FormatXLSX})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(filename, ".xlsx"))
	// XLSX payloads are zip archives.
	assert.Equal(t, "PK", string(payload[:2]))
}

func TestExport_UnsupportedFormat(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	exporter := NewExporter(db, nopLogger{})
	_, _, err = exporter.Export(context.Background(), ExportRequest{Format: "pdf"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "INVALID_EXPORT_FORMAT")
}

func TestFilename(t *testing.T) {
	day := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "msme-insights-export-2026-08-24.csv", Filename(FormatCSV, false, day))
	assert.Equal(t, "msme-insights-export-2026-08-24_anonymized.json", Filename(FormatJSON, true, day))
}
