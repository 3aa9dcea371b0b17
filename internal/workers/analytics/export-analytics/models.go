// internal/workers/analytics/export-analytics/models.go
package exportanalytics

import "msme-insights/internal/models"

type Input struct {
	Format    string                  `json:"format"` // "csv", "json" or "xlsx"
	Filters   models.AnalyticsFilters `json:"filters"`
	Anonymize bool                    `json:"anonymize"`
}

type Output struct {
	Filename   string `json:"filename"`
	FilePath   string `json:"filePath"`
	SizeBytes  int    `json:"sizeBytes"`
	Anonymized bool   `json:"anonymized"`
}
