// internal/workers/extraction/extract-attributes/handler.go
package extractattributes

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	apperrors "msme-insights/internal/common/errors"
	"msme-insights/internal/models"
)

const (
	TaskType = "extract-business-attributes"
)

// JobManager is the extraction lifecycle owner (trigger idempotency + run).
type JobManager interface {
	Trigger(ctx context.Context, conversationID string, priority models.JobPriority) (*models.ExtractionJob, error)
	Run(ctx context.Context, job *models.ExtractionJob) error
}

// Logger interface definition
type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// Recorder receives per-job outcome telemetry. Nil disables recording.
type Recorder interface {
	RecordJobProcessed(ctx context.Context, status string)
	RecordJobDuration(ctx context.Context, duration time.Duration, status string)
}

type Handler struct {
	config   *Config
	manager  JobManager
	recorder Recorder
	logger   Logger
}

func NewHandler(config *Config, manager JobManager, recorder Recorder, log Logger) *Handler {
	return &Handler{
		config:   config,
		manager:  manager,
		recorder: recorder,
		logger:   log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"taskType":    TaskType,
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(client, job, apperrors.AsStandardError(fmt.Errorf("parse input: %w", err), apperrors.ErrCodeInvalidJobState), 0)
		return
	}
	if input.ConversationID == "" {
		h.failJob(client, job, apperrors.NewConversationNotFoundError(""), 0)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	started := time.Now()
	output, err := h.execute(ctx, &input)
	if err != nil {
		h.record(ctx, "failed", started)
		stdErr := apperrors.AsStandardError(err, apperrors.ErrCodePersistenceFailure)
		if stdErr.Retryable {
			h.failJob(client, job, stdErr, int32(h.config.MaxRetries))
			return
		}
		h.throwError(client, job, stdErr)
		return
	}

	h.record(ctx, output.Status, started)
	h.completeJob(client, job, output)
}

func (h *Handler) record(ctx context.Context, status string, started time.Time) {
	if h.recorder == nil {
		return
	}
	h.recorder.RecordJobProcessed(ctx, status)
	h.recorder.RecordJobDuration(ctx, time.Since(started), status)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	priority := models.JobPriorityNormal
	if input.Priority == string(models.JobPriorityHigh) {
		priority = models.JobPriorityHigh
	}

	extraction, err := h.manager.Trigger(ctx, input.ConversationID, priority)
	if err != nil {
		return nil, err
	}

	// A reused completed job is already done; a reused active job is being
	// driven by its original worker. Either way there is nothing to run.
	if extraction.Reused {
		h.logger.Info("snapshot already covered, reusing job", map[string]interface{}{
			"jobId":  extraction.ID,
			"status": string(extraction.Status),
		})
		return &Output{
			JobID:             extraction.ID,
			Status:            string(extraction.Status),
			Reused:            true,
			DetectedLanguages: extraction.DetectedLanguages,
		}, nil
	}

	if err := h.manager.Run(ctx, extraction); err != nil {
		return nil, err
	}

	return &Output{
		JobID:             extraction.ID,
		Status:            string(extraction.Status),
		DetectedLanguages: extraction.DetectedLanguages,
	}, nil
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)

	if err != nil {
		h.logger.Error("Failed to create complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return
	}

	_, err = cmd.Send(context.Background())
	if err != nil {
		h.logger.Error("Failed to send complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
	}
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, stdErr *apperrors.StandardError, retries int32) {
	h.logger.Error("job failed", map[string]interface{}{
		"jobKey":    job.Key,
		"errorCode": string(stdErr.Code),
		"error":     stdErr.Message,
	})

	_, _ = client.NewFailJobCommand().
		JobKey(job.Key).
		Retries(retries).
		ErrorMessage(string(stdErr.Code) + ": " + stdErr.Message).
		Send(context.Background())
}

// throwError raises a BPMN error so the workflow's error boundary can route
// non-retryable failures.
func (h *Handler) throwError(client worker.JobClient, job entities.Job, stdErr *apperrors.StandardError) {
	h.logger.Error("job raised business error", map[string]interface{}{
		"jobKey":    job.Key,
		"errorCode": string(stdErr.Code),
	})

	_, err := client.NewThrowErrorCommand().
		JobKey(job.Key).
		ErrorCode(string(stdErr.Code)).
		ErrorMessage(stdErr.Message).
		Send(context.Background())
	if err != nil {
		h.logger.Error("Failed to send throw error command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
	}
}
