// internal/workers/analytics/export-analytics/handler_test.go
package exportanalytics

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"msme-insights/internal/analytics"
	apperrors "msme-insights/internal/common/errors"
)

// TestLogger implements the Logger interface for testing
type TestLogger struct {
	t *testing.T
}

func (l *TestLogger) Info(msg string, fields map[string]interface{}) {
	l.t.Logf("INFO: %s %v", msg, fields)
}

func (l *TestLogger) Warn(msg string, fields map[string]interface{}) {
	l.t.Logf("WARN: %s %v", msg, fields)
}

func (l *TestLogger) Error(msg string, fields map[string]interface{}) {
	l.t.Logf("ERROR: %s %v", msg, fields)
}

type fakeExporter struct {
	payload  []byte
	filename string
	err      error
	lastReq  analytics.ExportRequest
}

func (f *fakeExporter) Export(_ context.Context, req analytics.ExportRequest) ([]byte, string, error) {
	f.lastReq = req
	return f.payload, f.filename, f.err
}

func TestExecute_WritesExportFile(t *testing.T) {
	dir := t.TempDir()
	exporter := &fakeExporter{
		payload:  []byte("user_id,location\nuser-1,Mumbai\n"),
		filename: "msme-insights-export-2026-08-24.csv",
	}
	h := NewHandler(&Config{OutputDir: dir, Timeout: 5 * time.Second}, exporter, &TestLogger{t})

	output, err := h.execute(context.Background(), &Input{Format: "csv"})
	require.NoError(t, err)

	assert.Equal(t, "msme-insights-export-2026-08-24.csv", output.Filename)
	assert.Equal(t, len(exporter.payload), output.SizeBytes)
	assert.False(t, output.Anonymized)

	written, err := os.ReadFile(filepath.Join(dir, output.Filename))
	require.NoError(t, err)
	assert.Equal(t, exporter.payload, written)
}

func TestExecute_ForwardsFiltersAndAnonymize(t *testing.T) {
	dir := t.TempDir()
	exporter := &fakeExporter{payload: []byte("[]"), filename: "msme-insights-export-2026-08-24_anonymized.json"}
	h := NewHandler(&Config{OutputDir: dir, Timeout: 5 * time.Second}, exporter, &TestLogger{t})

	input := &Input{Format: "json", Anonymize: true}
	input.Filters.Location = "Mumbai"

	output, err := h.execute(context.Background(), input)
	require.NoError(t, err)

	assert.True(t, exporter.lastReq.Anonymize)
	assert.Equal(t, "Mumbai", exporter.lastReq.Filters.Location)
	assert.True(t, output.Anonymized)
}

func TestExecute_ExportErrorSurfaces(t *testing.T) {
	exporter := &fakeExporter{err: apperrors.NewInvalidExportFormatError("pdf")}
	h := NewHandler(&Config{OutputDir: t.TempDir(), Timeout: 5 * time.Second}, exporter, &TestLogger{t})

	_, err := h.execute(context.Background(), &Input{Format: "pdf"})
	require.Error(t, err)

	stdErr := apperrors.AsStandardError(err, apperrors.ErrCodeExportFailed)
	assert.Equal(t, apperrors.ErrCodeInvalidExportFormat, stdErr.Code)
	assert.False(t, stdErr.Retryable)
}
