// internal/jobs/manager.go

// Package jobs owns the extraction job lifecycle: trigger-time idempotency,
// the pending -> processing -> completed|failed state machine, and the
// normalize-then-persist path for successful extractions.
package jobs

import (
	"context"
	"errors"
	"time"

	apperrors "msme-insights/internal/common/errors"
	"msme-insights/internal/common/metrics"
	"msme-insights/internal/extractor"
	"msme-insights/internal/models"
	"msme-insights/internal/normalize"
	"msme-insights/internal/store"
)

// MinConfidence gates persistence: extractions below it complete the job but
// write nothing.
const MinConfidence = 0.5

type ConversationSource interface {
	GetConversation(ctx context.Context, conversationID string) (*models.Conversation, error)
	GetMessages(ctx context.Context, conversationID string) ([]models.Message, error)
}

type JobStore interface {
	FindActive(ctx context.Context, conversationID string, messageCount int) (*models.ExtractionJob, error)
	FindCompleted(ctx context.Context, conversationID string, messageCount int) (*models.ExtractionJob, error)
	Insert(ctx context.Context, conversationID, userID string, messageCount int, priority models.JobPriority) (*models.ExtractionJob, error)
	MarkProcessing(ctx context.Context, jobID string) error
	MarkCompleted(ctx context.Context, jobID string, languages []string) error
	MarkFailed(ctx context.Context, jobID, errorMessage string) error
}

type AttributeStore interface {
	Upsert(ctx context.Context, attrs *models.NormalizedUserAttributes) error
}

type InterestStore interface {
	Upsert(ctx context.Context, userID string, mention models.SchemeMention, mentionedAt time.Time) error
}

type Extractor interface {
	Extract(ctx context.Context, history []models.Message) (*models.ExtractionResult, error)
}

// Indexer mirrors the Elasticsearch sink. Optional; nil disables indexing.
type Indexer interface {
	IndexExtraction(ctx context.Context, doc store.ExtractionDocument) error
}

// Notifier delivers failure alerts. Optional; nil disables notifications.
type Notifier interface {
	NotifyJobFailure(ctx context.Context, job *models.ExtractionJob, stdErr *apperrors.StandardError)
}

// Logger interface definition
type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

type Manager struct {
	conversations ConversationSource
	jobs          JobStore
	attributes    AttributeStore
	interests     InterestStore
	extractor     Extractor
	indexer       Indexer
	notifier      Notifier
	logger        Logger
}

func NewManager(
	conversations ConversationSource,
	jobs JobStore,
	attributes AttributeStore,
	interests InterestStore,
	ext Extractor,
	indexer Indexer,
	notifier Notifier,
	log Logger,
) *Manager {
	return &Manager{
		conversations: conversations,
		jobs:          jobs,
		attributes:    attributes,
		interests:     interests,
		extractor:     ext,
		indexer:       indexer,
		notifier:      notifier,
		logger:        log,
	}
}

// Trigger resolves a trigger request to a job for the conversation's current
// message-count snapshot. At most one job per snapshot ever does LLM work:
// an active job or a prior completed job for the same snapshot is returned
// as-is with Reused set, and the insert race is settled by the database.
func (m *Manager) Trigger(ctx context.Context, conversationID string, priority models.JobPriority) (*models.ExtractionJob, error) {
	conv, err := m.conversations.GetConversation(ctx, conversationID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperrors.NewConversationNotFoundError(conversationID)
		}
		return nil, apperrors.NewPersistenceFailureError("get conversation", err)
	}

	if job, err := m.jobs.FindActive(ctx, conv.ID, conv.MessageCount); err != nil {
		return nil, apperrors.NewPersistenceFailureError("find active job", err)
	} else if job != nil {
		metrics.ExtractionJobsReused.Inc()
		job.Reused = true
		return job, nil
	}

	if job, err := m.jobs.FindCompleted(ctx, conv.ID, conv.MessageCount); err != nil {
		return nil, apperrors.NewPersistenceFailureError("find completed job", err)
	} else if job != nil {
		metrics.ExtractionJobsReused.Inc()
		job.Reused = true
		return job, nil
	}

	job, err := m.jobs.Insert(ctx, conv.ID, conv.UserID, conv.MessageCount, priority)
	if errors.Is(err, store.ErrDuplicateActiveJob) {
		// Lost the insert race; the winner's job is the job.
		winner, ferr := m.jobs.FindActive(ctx, conv.ID, conv.MessageCount)
		if ferr != nil || winner == nil {
			return nil, apperrors.NewPersistenceFailureError("resolve duplicate job", err)
		}
		metrics.ExtractionJobsReused.Inc()
		winner.Reused = true
		return winner, nil
	}
	if err != nil {
		return nil, apperrors.NewPersistenceFailureError("insert job", err)
	}

	m.logger.Info("extraction job created", map[string]interface{}{
		"jobId":          job.ID,
		"conversationId": conv.ID,
		"messageCount":   conv.MessageCount,
		"priority":       string(priority),
	})
	return job, nil
}

// Run executes a pending job end to end. Failures are recorded on the job
// row; the returned error carries the standardized code for the caller's
// workflow integration.
func (m *Manager) Run(ctx context.Context, job *models.ExtractionJob) error {
	start := time.Now()

	if err := m.jobs.MarkProcessing(ctx, job.ID); err != nil {
		if errors.Is(err, store.ErrNotPending) {
			// Another worker owns it, or it already finished. Not a failure
			// of this job, so the row is left alone.
			return apperrors.NewInvalidJobStateError(job.ID, "not pending")
		}
		return apperrors.NewPersistenceFailureError("mark processing", err)
	}
	job.Status = models.JobStatusProcessing

	messages, err := m.conversations.GetMessages(ctx, job.ConversationID)
	if err != nil {
		return m.fail(ctx, job, apperrors.NewPersistenceFailureError("get messages", err))
	}

	result, err := m.extractor.Extract(ctx, messages)
	if err != nil {
		return m.fail(ctx, job, extractionError(err, job.ConversationID))
	}

	languages := m.detectLanguages(messages, result)

	if result.Confidence >= MinConfidence {
		if err := m.persist(ctx, job, result); err != nil {
			return m.fail(ctx, job, apperrors.AsStandardError(err, apperrors.ErrCodePersistenceFailure))
		}
	} else {
		m.logger.Info("extraction below confidence gate, nothing persisted", map[string]interface{}{
			"jobId":      job.ID,
			"confidence": result.Confidence,
		})
	}

	if err := m.jobs.MarkCompleted(ctx, job.ID, languages); err != nil {
		return m.fail(ctx, job, apperrors.NewPersistenceFailureError("mark completed", err))
	}
	job.Status = models.JobStatusCompleted
	job.DetectedLanguages = languages

	m.index(ctx, job, result)

	metrics.ExtractionJobsCompleted.WithLabelValues(string(job.Priority)).Inc()
	metrics.ExtractionJobDuration.WithLabelValues(string(job.Priority)).Observe(time.Since(start).Seconds())

	m.logger.Info("extraction job completed", map[string]interface{}{
		"jobId":      job.ID,
		"confidence": result.Confidence,
		"languages":  languages,
		"durationMs": time.Since(start).Milliseconds(),
	})
	return nil
}

// detectLanguages unions deterministic detection over the user's turns with
// whatever the LLM reported, keeping first-seen order with detection first.
func (m *Manager) detectLanguages(messages []models.Message, result *models.ExtractionResult) []string {
	var userTurns []models.Message
	for _, msg := range messages {
		if msg.Role == models.MessageRoleUser {
			userTurns = append(userTurns, msg)
		}
	}

	languages := normalize.DetectLanguages(userTurns)
	seen := make(map[string]struct{}, len(languages))
	for _, l := range languages {
		seen[l] = struct{}{}
	}
	for _, l := range result.DetectedLanguages {
		if _, ok := seen[l]; !ok {
			seen[l] = struct{}{}
			languages = append(languages, l)
		}
	}
	return languages
}

func (m *Manager) persist(ctx context.Context, job *models.ExtractionJob, result *models.ExtractionResult) error {
	attrs := normalizeResult(job.UserID, result)
	if !attrs.Empty() {
		if err := m.attributes.Upsert(ctx, attrs); err != nil {
			return apperrors.NewPersistenceFailureError("upsert attributes", err)
		}
	}

	now := time.Now().UTC()
	for _, mention := range result.SchemeInterests {
		if mention.SchemeName == "" {
			continue
		}
		if err := m.interests.Upsert(ctx, job.UserID, mention, now); err != nil {
			return apperrors.NewPersistenceFailureError("upsert scheme interest", err)
		}
	}
	return nil
}

// normalizeResult runs every raw field through the deterministic rules.
// Fields the rules cannot resolve stay nil and never reach storage.
func normalizeResult(userID string, result *models.ExtractionResult) *models.NormalizedUserAttributes {
	attrs := &models.NormalizedUserAttributes{
		UserID:     userID,
		Confidence: result.Confidence,
	}

	if result.Location != nil {
		attrs.Location = normalize.Location(*result.Location)
	}
	if result.Industry != nil {
		attrs.Industry = normalize.Industry(*result.Industry)
	}

	if result.AnnualTurnover.Amount != nil {
		attrs.AnnualTurnover = result.AnnualTurnover.Amount
	} else if result.AnnualTurnover.Text != "" {
		attrs.AnnualTurnover = normalize.Currency(result.AnnualTurnover.Text)
	}

	if result.EmployeeCount != nil && *result.EmployeeCount >= 0 {
		attrs.EmployeeCount = result.EmployeeCount
	}

	attrs.BusinessSize = normalize.BusinessSize(result.BusinessSize, attrs.EmployeeCount, attrs.AnnualTurnover)
	return attrs
}

func (m *Manager) index(ctx context.Context, job *models.ExtractionJob, result *models.ExtractionResult) {
	if m.indexer == nil {
		return
	}
	doc := store.ExtractionDocument{
		JobID:             job.ID,
		ConversationID:    job.ConversationID,
		UserID:            job.UserID,
		Attributes:        *normalizeResult(job.UserID, result),
		SchemeInterests:   result.SchemeInterests,
		DetectedLanguages: job.DetectedLanguages,
		CompletedAt:       time.Now().UTC(),
	}
	if err := m.indexer.IndexExtraction(ctx, doc); err != nil {
		// Search is a convenience sink, never a reason to fail the job.
		m.logger.Warn("extraction index write failed", map[string]interface{}{
			"jobId": job.ID,
			"error": err.Error(),
		})
	}
}

func (m *Manager) fail(ctx context.Context, job *models.ExtractionJob, stdErr *apperrors.StandardError) error {
	if err := m.jobs.MarkFailed(ctx, job.ID, string(stdErr.Code)+": "+stdErr.Message); err != nil {
		m.logger.Error("failed to mark job failed", map[string]interface{}{
			"jobId": job.ID,
			"error": err.Error(),
		})
	}
	job.Status = models.JobStatusFailed
	job.ErrorMessage = stdErr.Message

	if m.notifier != nil {
		m.notifier.NotifyJobFailure(ctx, job, stdErr)
	}

	metrics.ExtractionJobsFailed.WithLabelValues(string(job.Priority), string(stdErr.Code)).Inc()

	m.logger.Error("extraction job failed", map[string]interface{}{
		"jobId":     job.ID,
		"errorCode": string(stdErr.Code),
		"retryable": stdErr.Retryable,
	})
	return stdErr
}

func extractionError(err error, conversationID string) *apperrors.StandardError {
	switch {
	case errors.Is(err, extractor.ErrExtractionTimeout):
		return apperrors.NewExtractionTimeoutError(conversationID)
	case errors.Is(err, extractor.ErrMalformedResponse):
		return apperrors.NewMalformedResponseError(err.Error())
	case errors.Is(err, extractor.ErrLLMUnavailable):
		return apperrors.NewLLMUnavailableError(err)
	}
	return apperrors.AsStandardError(err, apperrors.ErrCodeLLMUnavailable)
}
