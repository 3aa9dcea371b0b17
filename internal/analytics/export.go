// internal/analytics/export.go
package analytics

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	apperrors "msme-insights/internal/common/errors"
	"msme-insights/internal/models"
	"msme-insights/internal/normalize"
)

const (
	FormatCSV  = "csv"
	FormatJSON = "json"
	FormatXLSX = "xlsx"
)

type ExportRequest struct {
	Format    string                  `json:"format"`
	Filters   models.AnalyticsFilters `json:"filters"`
	Anonymize bool                    `json:"anonymize"`
}

// ExportRecord is one row of the joined attribute/interest export. With
// anonymization on, UserID is omitted and Location is generalized to its
// region bucket; every other field stays exact.
type ExportRecord struct {
	UserID          string  `json:"userId,omitempty"`
	Location        string  `json:"location,omitempty"`
	Industry        string  `json:"industry,omitempty"`
	BusinessSize    string  `json:"businessSize,omitempty"`
	AnnualTurnover  *int64  `json:"annualTurnover,omitempty"`
	EmployeeCount   *int    `json:"employeeCount,omitempty"`
	Confidence      float64 `json:"confidence"`
	SchemeName      string  `json:"schemeName,omitempty"`
	InterestLevel   string  `json:"interestLevel,omitempty"`
	LastMentionedAt string  `json:"lastMentionedAt,omitempty"`
}

var exportHeader = []string{
	"user_id", "location", "industry", "business_size", "annual_turnover",
	"employee_count", "confidence", "scheme_name", "interest_level", "last_mentioned_at",
}

type Exporter struct {
	db     *sql.DB
	logger Logger
}

func NewExporter(db *sql.DB, log Logger) *Exporter {
	return &Exporter{db: db, logger: log}
}

// Export produces the filtered joined records in the requested format and
// returns the payload alongside its conventional filename.
func (e *Exporter) Export(ctx context.Context, req ExportRequest) ([]byte, string, error) {
	switch req.Format {
	case FormatCSV, FormatJSON, FormatXLSX:
	default:
		return nil, "", apperrors.NewInvalidExportFormatError(req.Format)
	}

	records, err := e.fetchRecords(ctx, req.Filters, req.Anonymize)
	if err != nil {
		return nil, "", apperrors.NewExportFailedError(req.Format, err)
	}

	var payload []byte
	switch req.Format {
	case FormatCSV:
		payload, err = writeCSV(records, req.Anonymize)
	case FormatJSON:
		payload, err = json.MarshalIndent(records, "", "  ")
	case FormatXLSX:
		payload, err = writeXLSX(records, req.Anonymize)
	}
	if err != nil {
		return nil, "", apperrors.NewExportFailedError(req.Format, err)
	}

	e.logger.Info("analytics export produced", map[string]interface{}{
		"format":    req.Format,
		"records":   len(records),
		"anonymize": req.Anonymize,
	})
	return payload, Filename(req.Format, req.Anonymize, time.Now().UTC()), nil
}

// Filename follows the msme-insights-export-YYYY-MM-DD[_anonymized].<ext>
// convention.
func Filename(format string, anonymize bool, now time.Time) string {
	name := "msme-insights-export-" + now.Format("2006-01-02")
	if anonymize {
		name += "_anonymized"
	}
	return name + "." + format
}

func (e *Exporter) fetchRecords(ctx context.Context, filters models.AnalyticsFilters, anonymize bool) ([]ExportRecord, error) {
	where, args := filterClause(filters)
	query := fmt.Sprintf(`
		SELECT u.user_id, u.location, u.industry, u.business_size,
		       u.annual_turnover, u.employee_count, u.confidence,
		       si.scheme_name, si.interest_level, si.last_mentioned_at
		FROM user_business_attributes u
		LEFT JOIN scheme_interests si ON si.user_id = u.user_id
		WHERE %s
		ORDER BY u.user_id ASC, si.scheme_name ASC`, where)

	rows, err := e.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("export query: %w", err)
	}
	defer rows.Close()

	records := []ExportRecord{}
	for rows.Next() {
		var (
			rec             ExportRecord
			location        sql.NullString
			industry        sql.NullString
			businessSize    sql.NullString
			schemeName      sql.NullString
			interestLevel   sql.NullString
			lastMentionedAt sql.NullTime
		)
		err := rows.Scan(
			&rec.UserID, &location, &industry, &businessSize,
			&rec.AnnualTurnover, &rec.EmployeeCount, &rec.Confidence,
			&schemeName, &interestLevel, &lastMentionedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan export row: %w", err)
		}

		rec.Location = location.String
		rec.Industry = industry.String
		rec.BusinessSize = businessSize.String
		rec.SchemeName = schemeName.String
		rec.InterestLevel = interestLevel.String
		if lastMentionedAt.Valid {
			rec.LastMentionedAt = lastMentionedAt.Time.UTC().Format(time.RFC3339)
		}

		if anonymize {
			rec.UserID = ""
			if rec.Location != "" {
				rec.Location = normalize.Region(rec.Location)
			}
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate export rows: %w", err)
	}
	return records, nil
}

func (r ExportRecord) row(anonymize bool) []string {
	turnover := ""
	if r.AnnualTurnover != nil {
		turnover = strconv.FormatInt(*r.AnnualTurnover, 10)
	}
	employees := ""
	if r.EmployeeCount != nil {
		employees = strconv.Itoa(*r.EmployeeCount)
	}
	userID := r.UserID
	if anonymize {
		userID = ""
	}
	return []string{
		userID, r.Location, r.Industry, r.BusinessSize, turnover, employees,
		strconv.FormatFloat(r.Confidence, 'f', -1, 64),
		r.SchemeName, r.InterestLevel, r.LastMentionedAt,
	}
}

func writeCSV(records []ExportRecord, anonymize bool) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(exportHeader); err != nil {
		return nil, err
	}
	for _, rec := range records {
		if err := w.Write(rec.row(anonymize)); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeXLSX(records []ExportRecord, anonymize bool) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Export"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	for col, name := range exportHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, cell, name); err != nil {
			return nil, err
		}
	}

	for i, rec := range records {
		for col, value := range rec.row(anonymize) {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return nil, err
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
