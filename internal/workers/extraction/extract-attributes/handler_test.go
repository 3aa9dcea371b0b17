// internal/workers/extraction/extract-attributes/handler_test.go
package extractattributes

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "msme-insights/internal/common/errors"
	"msme-insights/internal/models"
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

type fakeManager struct {
	triggered  *models.ExtractionJob
	triggerErr error
	runErr     error
	ranJobs    []string
	priority   models.JobPriority
}

func (f *fakeManager) Trigger(_ context.Context, _ string, priority models.JobPriority) (*models.ExtractionJob, error) {
	f.priority = priority
	return f.triggered, f.triggerErr
}

func (f *fakeManager) Run(_ context.Context, job *models.ExtractionJob) error {
	f.ranJobs = append(f.ranJobs, job.ID)
	if f.runErr == nil {
		job.Status = models.JobStatusCompleted
		job.DetectedLanguages = []string{"english"}
	}
	return f.runErr
}

func TestExecute_RunsFreshJob(t *testing.T) {
	manager := &fakeManager{
		triggered: &models.ExtractionJob{ID: "job-1", Status: models.JobStatusPending},
	}
	h := NewHandler(LoadConfig(), manager, nil, &TestLogger{t})

	output, err := h.execute(context.Background(), &Input{ConversationID: "conv-1"})
	require.NoError(t, err)

	assert.Equal(t, []string{"job-1"}, manager.ranJobs)
	assert.Equal(t, "job-1", output.JobID)
	assert.Equal(t, "completed", output.Status)
	assert.False(t, output.Reused)
	assert.Equal(t, []string{"english"}, output.DetectedLanguages)
	assert.Equal(t, models.JobPriorityNormal, manager.priority)
}

func TestExecute_HighPriorityPassedThrough(t *testing.T) {
	manager := &fakeManager{
		triggered: &models.ExtractionJob{ID: "job-1", Status: models.JobStatusPending},
	}
	h := NewHandler(LoadConfig(), manager, nil, &TestLogger{t})

	_, err := h.execute(context.Background(), &Input{ConversationID: "conv-1", Priority: "high"})
	require.NoError(t, err)
	assert.Equal(t, models.JobPriorityHigh, manager.priority)
}

func TestExecute_ReusedJobSkipsRun(t *testing.T) {
	manager := &fakeManager{
		triggered: &models.ExtractionJob{
			ID:                "job-done",
			Status:            models.JobStatusCompleted,
			Reused:            true,
			DetectedLanguages: []string{"hindi"},
		},
	}
	h := NewHandler(LoadConfig(), manager, nil, &TestLogger{t})

	output, err := h.execute(context.Background(), &Input{ConversationID: "conv-1"})
	require.NoError(t, err)

	assert.Empty(t, manager.ranJobs)
	assert.True(t, output.Reused)
	assert.Equal(t, "job-done", output.JobID)
	assert.Equal(t, []string{"hindi"}, output.DetectedLanguages)
}

func TestExecute_TriggerFailureSurfaces(t *testing.T) {
	manager := &fakeManager{
		triggerErr: apperrors.NewConversationNotFoundError("conv-x"),
	}
	h := NewHandler(LoadConfig(), manager, nil, &TestLogger{t})

	_, err := h.execute(context.Background(), &Input{ConversationID: "conv-x"})
	require.Error(t, err)

	stdErr := apperrors.AsStandardError(err, apperrors.ErrCodePersistenceFailure)
	assert.Equal(t, apperrors.ErrCodeConversationNotFound, stdErr.Code)
	assert.False(t, stdErr.Retryable)
}

func TestExecute_RunFailureSurfaces(t *testing.T) {
	manager := &fakeManager{
		triggered: &models.ExtractionJob{ID: "job-1", Status: models.JobStatusPending},
		runErr:    apperrors.NewLLMUnavailableError(assert.AnError),
	}
	h := NewHandler(LoadConfig(), manager, nil, &TestLogger{t})

	_, err := h.execute(context.Background(), &Input{ConversationID: "conv-1"})
	require.Error(t, err)

	stdErr := apperrors.AsStandardError(err, apperrors.ErrCodePersistenceFailure)
	assert.Equal(t, apperrors.ErrCodeLLMUnavailable, stdErr.Code)
	assert.True(t, stdErr.Retryable)
}
