// test/e2e/e2e_test.go

// End-to-end pipeline tests: a stubbed LLM gateway behind httptest, the real
// extractor, normalization rules and job manager, and in-memory stores.
package e2e

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"msme-insights/internal/extractor"
	"msme-insights/internal/jobs"
	"msme-insights/internal/models"
	"msme-insights/internal/store"
)

type nopLogger struct{}

func (nopLogger) Info(string, map[string]interface{})  {}
func (nopLogger) Warn(string, map[string]interface{})  {}
func (nopLogger) Error(string, map[string]interface{}) {}

func (l nopLogger) WithFields(map[string]interface{}) extractor.Logger { return l }

// memStore is an in-memory stand-in for the PostgreSQL repositories that
// keeps the same semantics: active-snapshot uniqueness, the guarded state
// machine, the confidence-aware attribute merge and monotonic interests.
type memStore struct {
	mu            sync.Mutex
	conversations map[string]*models.Conversation
	messages      map[string][]models.Message
	jobs          map[string]*models.ExtractionJob
	attrs         map[string]*models.NormalizedUserAttributes
	interests     map[string]map[string]*models.SchemeInterest
}

func newMemStore() *memStore {
	return &memStore{
		conversations: make(map[string]*models.Conversation),
		messages:      make(map[string][]models.Message),
		jobs:          make(map[string]*models.ExtractionJob),
		attrs:         make(map[string]*models.NormalizedUserAttributes),
		interests:     make(map[string]map[string]*models.SchemeInterest),
	}
}

func (m *memStore) addConversation(userID string, contents ...string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.New().String()
	m.conversations[id] = &models.Conversation{
		ID:           id,
		UserID:       userID,
		MessageCount: len(contents),
	}
	now := time.Now().UTC()
	for i, content := range contents {
		m.messages[id] = append(m.messages[id], models.Message{
			ID:             uuid.New().String(),
			ConversationID: id,
			Role:           models.MessageRoleUser,
			Content:        content,
			CreatedAt:      now.Add(time.Duration(i) * time.Second),
		})
	}
	return id
}

func (m *memStore) GetConversation(_ context.Context, id string) (*models.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	conv, ok := m.conversations[id]
	if !ok {
		return nil, fmt.Errorf("conversation %s: %w", id, store.ErrNotFound)
	}
	return conv, nil
}

func (m *memStore) GetMessages(_ context.Context, id string) ([]models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.messages[id], nil
}

func (m *memStore) FindActive(_ context.Context, conversationID string, messageCount int) (*models.ExtractionJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.findLocked(conversationID, messageCount, true), nil
}

func (m *memStore) FindCompleted(_ context.Context, conversationID string, messageCount int) (*models.ExtractionJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.findLocked(conversationID, messageCount, false), nil
}

func (m *memStore) findLocked(conversationID string, messageCount int, active bool) *models.ExtractionJob {
	for _, j := range m.jobs {
		if j.ConversationID != conversationID || j.MessageCountAtExtraction != messageCount {
			continue
		}
		if active && j.Active() {
			return j
		}
		if !active && j.Status == models.JobStatusCompleted {
			return j
		}
	}
	return nil
}

func (m *memStore) Insert(_ context.Context, conversationID, userID string, messageCount int, priority models.JobPriority) (*models.ExtractionJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findLocked(conversationID, messageCount, true) != nil {
		return nil, store.ErrDuplicateActiveJob
	}
	job := &models.ExtractionJob{
		ID:                       uuid.New().String(),
		ConversationID:           conversationID,
		UserID:                   userID,
		MessageCountAtExtraction: messageCount,
		Status:                   models.JobStatusPending,
		Priority:                 priority,
		CreatedAt:                time.Now().UTC(),
	}
	m.jobs[job.ID] = job
	return job, nil
}

func (m *memStore) MarkProcessing(_ context.Context, jobID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	j := m.jobs[jobID]
	if j == nil || j.Status != models.JobStatusPending {
		return fmt.Errorf("job %s: %w", jobID, store.ErrNotPending)
	}
	j.Status = models.JobStatusProcessing
	now := time.Now().UTC()
	j.StartedAt = &now
	return nil
}

func (m *memStore) MarkCompleted(_ context.Context, jobID string, languages []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	j := m.jobs[jobID]
	if j == nil || j.Status != models.JobStatusProcessing {
		return store.ErrNotFound
	}
	j.Status = models.JobStatusCompleted
	j.DetectedLanguages = languages
	now := time.Now().UTC()
	j.CompletedAt = &now
	return nil
}

func (m *memStore) MarkFailed(_ context.Context, jobID, msg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	j := m.jobs[jobID]
	if j == nil || !j.Active() {
		return store.ErrNotFound
	}
	j.Status = models.JobStatusFailed
	j.ErrorMessage = msg
	now := time.Now().UTC()
	j.CompletedAt = &now
	return nil
}

func (m *memStore) Upsert(_ context.Context, attrs *models.NormalizedUserAttributes) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.attrs[attrs.UserID]
	if !ok {
		cp := *attrs
		m.attrs[attrs.UserID] = &cp
		return nil
	}
	merge := func(stored, incoming *string) *string {
		if incoming == nil {
			return stored
		}
		if stored == nil || attrs.Confidence >= existing.Confidence {
			return incoming
		}
		return stored
	}
	existing.Location = merge(existing.Location, attrs.Location)
	existing.Industry = merge(existing.Industry, attrs.Industry)
	existing.BusinessSize = merge(existing.BusinessSize, attrs.BusinessSize)
	if attrs.AnnualTurnover != nil && (existing.AnnualTurnover == nil || attrs.Confidence >= existing.Confidence) {
		existing.AnnualTurnover = attrs.AnnualTurnover
	}
	if attrs.EmployeeCount != nil && (existing.EmployeeCount == nil || attrs.Confidence >= existing.Confidence) {
		existing.EmployeeCount = attrs.EmployeeCount
	}
	if attrs.Confidence > existing.Confidence {
		existing.Confidence = attrs.Confidence
	}
	return nil
}

func (m *memStore) UpsertInterest(_ context.Context, userID string, mention models.SchemeMention, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	byScheme, ok := m.interests[userID]
	if !ok {
		byScheme = make(map[string]*models.SchemeInterest)
		m.interests[userID] = byScheme
	}
	existing, ok := byScheme[mention.SchemeName]
	if !ok {
		byScheme[mention.SchemeName] = &models.SchemeInterest{
			UserID:          userID,
			SchemeName:      mention.SchemeName,
			InterestLevel:   mention.InterestLevel,
			LastMentionedAt: at,
		}
		return nil
	}
	if mention.InterestLevel.Rank() > existing.InterestLevel.Rank() {
		existing.InterestLevel = mention.InterestLevel
	}
	if at.After(existing.LastMentionedAt) {
		existing.LastMentionedAt = at
	}
	return nil
}

// interestAdapter exposes UpsertInterest under the jobs.InterestStore name.
type interestAdapter struct{ *memStore }

func (a interestAdapter) Upsert(ctx context.Context, userID string, mention models.SchemeMention, at time.Time) error {
	return a.UpsertInterest(ctx, userID, mention, at)
}

func newPipeline(t *testing.T, llmReply string) (*jobs.Manager, *memStore) {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(llmReply))
	}))
	t.Cleanup(server.Close)

	ext := extractor.New(extractor.Config{
		BaseURL: server.URL,
		Timeout: 5 * time.Second,
	}, nopLogger{})

	ms := newMemStore()
	manager := jobs.NewManager(ms, ms, ms, interestAdapter{ms}, ext, nil, nil, nopLogger{})
	return manager, ms
}

func TestPipeline_EnglishTextileConversation(t *testing.T) {
	reply := `{
		"location": "Mumbai",
		"industry": "textile manufacturing",
		"businessSize": null,
		"annualTurnover": "2 crore",
		"employeeCount": 15,
		"schemeInterests": [{"schemeName": "Mudra Loan", "interestLevel": "mentioned"}],
		"confidence": 0.9,
		"detectedLanguages": ["english"]
	}`
	manager, ms := newPipeline(t, reply)

	convID := ms.addConversation("user-1",
		"I run a textile manufacturing business in Mumbai",
		"We have 15 employees and annual turnover of 2 crore rupees",
		"I want to know about Mudra loan scheme",
	)

	job, err := manager.Trigger(context.Background(), convID, models.JobPriorityNormal)
	require.NoError(t, err)
	require.NoError(t, manager.Run(context.Background(), job))

	attrs := ms.attrs["user-1"]
	require.NotNil(t, attrs)
	assert.Equal(t, "Mumbai", *attrs.Location)
	assert.Equal(t, "Manufacturing - Textiles", *attrs.Industry)
	assert.Equal(t, "Small", *attrs.BusinessSize)
	assert.Equal(t, int64(20000000), *attrs.AnnualTurnover)
	assert.Equal(t, 15, *attrs.EmployeeCount)

	interests := ms.interests["user-1"]
	require.Len(t, interests, 1)
	mudra := interests["Mudra Loan"]
	require.NotNil(t, mudra)
	assert.Contains(t, mudra.SchemeName, "Mudra")
	assert.Equal(t, models.InterestMentioned, mudra.InterestLevel)

	stored := ms.jobs[job.ID]
	assert.Equal(t, models.JobStatusCompleted, stored.Status)
	assert.Contains(t, stored.DetectedLanguages, "english")
}

func TestPipeline_HindiGroceryConversation(t *testing.T) {
	reply := `{
		"location": "दिल्ली",
		"industry": "किराने की दुकान",
		"businessSize": null,
		"annualTurnover": null,
		"employeeCount": 3,
		"schemeInterests": [],
		"confidence": 0.8,
		"detectedLanguages": ["hindi"]
	}`
	manager, ms := newPipeline(t, reply)

	convID := ms.addConversation("user-2",
		"मेरी दिल्ली में एक छोटी दुकान है",
		"किराने का सामान बेचता हूं",
		"3 लोग काम करते हैं",
	)

	job, err := manager.Trigger(context.Background(), convID, models.JobPriorityNormal)
	require.NoError(t, err)
	require.NoError(t, manager.Run(context.Background(), job))

	attrs := ms.attrs["user-2"]
	require.NotNil(t, attrs)
	assert.Equal(t, "Delhi", *attrs.Location)
	assert.Equal(t, "Retail - Grocery", *attrs.Industry)
	assert.Equal(t, "Micro", *attrs.BusinessSize)
	assert.Equal(t, 3, *attrs.EmployeeCount)
	assert.Nil(t, attrs.AnnualTurnover)

	stored := ms.jobs[job.ID]
	assert.Contains(t, stored.DetectedLanguages, "hindi")
}

func TestPipeline_TriggerIdempotence(t *testing.T) {
	reply := `{
		"location": null, "industry": null, "businessSize": null,
		"annualTurnover": null, "employeeCount": null,
		"schemeInterests": [], "confidence": 0.2, "detectedLanguages": ["english"]
	}`
	manager, ms := newPipeline(t, reply)
	convID := ms.addConversation("user-3", "hello")

	first, err := manager.Trigger(context.Background(), convID, models.JobPriorityNormal)
	require.NoError(t, err)
	assert.False(t, first.Reused)

	// Same snapshot while the first job is still pending: same job id back.
	second, err := manager.Trigger(context.Background(), convID, models.JobPriorityNormal)
	require.NoError(t, err)
	assert.True(t, second.Reused)
	assert.Equal(t, first.ID, second.ID)

	require.NoError(t, manager.Run(context.Background(), first))

	// Completed snapshot is never re-run.
	third, err := manager.Trigger(context.Background(), convID, models.JobPriorityNormal)
	require.NoError(t, err)
	assert.True(t, third.Reused)
	assert.Equal(t, first.ID, third.ID)
	assert.Equal(t, models.JobStatusCompleted, third.Status)

	// New messages move the snapshot; a fresh job is created.
	ms.mu.Lock()
	ms.conversations[convID].MessageCount++
	ms.mu.Unlock()

	fourth, err := manager.Trigger(context.Background(), convID, models.JobPriorityNormal)
	require.NoError(t, err)
	assert.False(t, fourth.Reused)
	assert.NotEqual(t, first.ID, fourth.ID)
}

func TestPipeline_LowConfidencePersistsNothing(t *testing.T) {
	reply := `{
		"location": "Mumbai", "industry": "textiles", "businessSize": null,
		"annualTurnover": 5000000, "employeeCount": 4,
		"schemeInterests": [{"schemeName": "PMEGP", "interestLevel": "inquired"}],
		"confidence": 0.49, "detectedLanguages": ["english"]
	}`
	manager, ms := newPipeline(t, reply)
	convID := ms.addConversation("user-4", "maybe a business, maybe not")

	job, err := manager.Trigger(context.Background(), convID, models.JobPriorityNormal)
	require.NoError(t, err)
	require.NoError(t, manager.Run(context.Background(), job))

	assert.Nil(t, ms.attrs["user-4"])
	assert.Empty(t, ms.interests["user-4"])
	assert.Equal(t, models.JobStatusCompleted, ms.jobs[job.ID].Status)
}

func TestPipeline_MalformedLLMReplyFailsJob(t *testing.T) {
	manager, ms := newPipeline(t, "I am sorry, I cannot produce JSON today")
	convID := ms.addConversation("user-5", "hello")

	job, err := manager.Trigger(context.Background(), convID, models.JobPriorityNormal)
	require.NoError(t, err)

	err = manager.Run(context.Background(), job)
	require.Error(t, err)

	stored := ms.jobs[job.ID]
	assert.Equal(t, models.JobStatusFailed, stored.Status)
	assert.Contains(t, stored.ErrorMessage, "MALFORMED_RESPONSE")
	assert.Nil(t, ms.attrs["user-5"])
}
