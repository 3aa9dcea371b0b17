// internal/workers/analytics/export-analytics/handler.go
package exportanalytics

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"msme-insights/internal/analytics"
	apperrors "msme-insights/internal/common/errors"
)

const (
	TaskType = "export-analytics"
)

type Exporter interface {
	Export(ctx context.Context, req analytics.ExportRequest) ([]byte, string, error)
}

// Logger interface definition
type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

type Handler struct {
	config   *Config
	exporter Exporter
	logger   Logger
}

func NewHandler(config *Config, exporter Exporter, log Logger) *Handler {
	return &Handler{
		config:   config,
		exporter: exporter,
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
		h.throwError(client, job, apperrors.NewInvalidExportFormatError("unparseable input"))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		stdErr := apperrors.AsStandardError(err, apperrors.ErrCodeExportFailed)
		if stdErr.Retryable {
			h.failJob(client, job, stdErr)
			return
		}
		h.throwError(client, job, stdErr)
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	payload, filename, err := h.exporter.Export(ctx, analytics.ExportRequest{
		Format:    input.Format,
		Filters:   input.Filters,
		Anonymize: input.Anonymize,
	})
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(h.config.OutputDir, 0o755); err != nil {
		return nil, apperrors.NewExportFailedError(input.Format, fmt.Errorf("create output dir: %w", err))
	}

	path := filepath.Join(h.config.OutputDir, filename)
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return nil, apperrors.NewExportFailedError(input.Format, fmt.Errorf("write export file: %w", err))
	}

	h.logger.Info("export written", map[string]interface{}{
		"filePath":  path,
		"sizeBytes": len(payload),
	})

	return &Output{
		Filename:   filename,
		FilePath:   path,
		SizeBytes:  len(payload),
		Anonymized: input.Anonymize,
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

func (h *Handler) failJob(client worker.JobClient, job entities.Job, stdErr *apperrors.StandardError) {
	h.logger.Error("job failed", map[string]interface{}{
		"jobKey":    job.Key,
		"errorCode": string(stdErr.Code),
		"error":     stdErr.Message,
	})

	_, _ = client.NewFailJobCommand().
		JobKey(job.Key).
		Retries(2).
		ErrorMessage(string(stdErr.Code) + ": " + stdErr.Message).
		Send(context.Background())
}

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
