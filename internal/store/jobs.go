// internal/store/jobs.go
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"msme-insights/internal/models"
)

// ErrDuplicateActiveJob is returned when the partial unique index rejects a
// second active job for the same (conversation, message count) snapshot.
var ErrDuplicateActiveJob = errors.New("active job already exists for snapshot")

// ErrNotPending is returned when a pending->processing transition finds the
// job in any other state.
var ErrNotPending = errors.New("job is not pending")

const jobColumns = `id, conversation_id, user_id, message_count_at_extraction,
	status, priority, COALESCE(error_message, ''), detected_languages,
	started_at, completed_at, created_at`

type JobStore struct {
	db *sql.DB
}

func NewJobStore(db *sql.DB) *JobStore {
	return &JobStore{db: db}
}

func scanJob(row interface{ Scan(...interface{}) error }) (*models.ExtractionJob, error) {
	var j models.ExtractionJob
	var languages pq.StringArray
	err := row.Scan(
		&j.ID, &j.ConversationID, &j.UserID, &j.MessageCountAtExtraction,
		&j.Status, &j.Priority, &j.ErrorMessage, &languages,
		&j.StartedAt, &j.CompletedAt, &j.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	j.DetectedLanguages = []string(languages)
	return &j, nil
}

// FindActive returns the pending or processing job holding the idempotency
// slot for the snapshot, if any.
func (s *JobStore) FindActive(ctx context.Context, conversationID string, messageCount int) (*models.ExtractionJob, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM extraction_jobs
		WHERE conversation_id = $1
		  AND message_count_at_extraction = $2
		  AND status IN ('pending', 'processing')`, jobColumns)

	job, err := scanJob(s.db.QueryRowContext(ctx, query, conversationID, messageCount))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find active job: %w", err)
	}
	return job, nil
}

// FindCompleted returns the most recent completed job for the snapshot, if any.
func (s *JobStore) FindCompleted(ctx context.Context, conversationID string, messageCount int) (*models.ExtractionJob, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM extraction_jobs
		WHERE conversation_id = $1
		  AND message_count_at_extraction = $2
		  AND status = 'completed'
		ORDER BY completed_at DESC
		LIMIT 1`, jobColumns)

	job, err := scanJob(s.db.QueryRowContext(ctx, query, conversationID, messageCount))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find completed job: %w", err)
	}
	return job, nil
}

// Insert creates a pending job for the snapshot. The insert is conditional on
// the partial unique index over active jobs: a concurrent insert for the same
// snapshot makes exactly one winner, the loser gets ErrDuplicateActiveJob.
func (s *JobStore) Insert(ctx context.Context, conversationID, userID string, messageCount int, priority models.JobPriority) (*models.ExtractionJob, error) {
	const query = `
		INSERT INTO extraction_jobs
			(id, conversation_id, user_id, message_count_at_extraction, status, priority, created_at)
		VALUES ($1, $2, $3, $4, 'pending', $5, $6)
		ON CONFLICT (conversation_id, message_count_at_extraction)
			WHERE status IN ('pending', 'processing')
		DO NOTHING
		RETURNING id, created_at`

	job := &models.ExtractionJob{
		ID:                       uuid.New().String(),
		ConversationID:           conversationID,
		UserID:                   userID,
		MessageCountAtExtraction: messageCount,
		Status:                   models.JobStatusPending,
		Priority:                 priority,
	}

	err := s.db.QueryRowContext(ctx, query,
		job.ID, conversationID, userID, messageCount, priority, time.Now().UTC(),
	).Scan(&job.ID, &job.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		// DO NOTHING returned no row: somebody else holds the slot.
		return nil, ErrDuplicateActiveJob
	}
	if err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}
	return job, nil
}

// MarkProcessing transitions pending -> processing. The WHERE guard makes the
// transition race-safe: only one worker can win it.
func (s *JobStore) MarkProcessing(ctx context.Context, jobID string) error {
	const query = `
		UPDATE extraction_jobs
		SET status = 'processing', started_at = $2
		WHERE id = $1 AND status = 'pending'`

	res, err := s.db.ExecContext(ctx, query, jobID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("mark processing: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark processing: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("job %s: %w", jobID, ErrNotPending)
	}
	return nil
}

func (s *JobStore) MarkCompleted(ctx context.Context, jobID string, languages []string) error {
	const query = `
		UPDATE extraction_jobs
		SET status = 'completed', completed_at = $2, detected_languages = $3
		WHERE id = $1 AND status = 'processing'`

	res, err := s.db.ExecContext(ctx, query, jobID, time.Now().UTC(), pq.Array(languages))
	if err != nil {
		return fmt.Errorf("mark completed: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark completed: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("job %s not processing: %w", jobID, ErrNotFound)
	}
	return nil
}

func (s *JobStore) MarkFailed(ctx context.Context, jobID, errorMessage string) error {
	const query = `
		UPDATE extraction_jobs
		SET status = 'failed', completed_at = $2, error_message = $3
		WHERE id = $1 AND status IN ('pending', 'processing')`

	res, err := s.db.ExecContext(ctx, query, jobID, time.Now().UTC(), errorMessage)
	if err != nil {
		return fmt.Errorf("mark failed: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark failed: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("job %s not active: %w", jobID, ErrNotFound)
	}
	return nil
}

// GetJob fetches a job by id.
func (s *JobStore) GetJob(ctx context.Context, jobID string) (*models.ExtractionJob, error) {
	query := fmt.Sprintf(`SELECT %s FROM extraction_jobs WHERE id = $1`, jobColumns)

	job, err := scanJob(s.db.QueryRowContext(ctx, query, jobID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("job %s: %w", jobID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}
