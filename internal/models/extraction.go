// internal/models/extraction.go
package models

import (
	"encoding/json"
	"math"
	"strings"
	"time"
)

// JobStatus is the lifecycle state of an extraction job.
// Transitions: pending -> processing -> completed | failed.
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// JobPriority distinguishes manual (high) from automatic (normal) triggers.
type JobPriority string

const (
	JobPriorityNormal JobPriority = "normal"
	JobPriorityHigh   JobPriority = "high"
)

// ExtractionJob tracks one extraction attempt against a conversation
// snapshot. At most one job per (conversation_id, message_count_at_extraction)
// may be pending or processing at a time.
type ExtractionJob struct {
	ID                       string      `json:"id"`
	ConversationID           string      `json:"conversationId"`
	UserID                   string      `json:"userId"`
	MessageCountAtExtraction int         `json:"messageCountAtExtraction"`
	Status                   JobStatus   `json:"status"`
	Priority                 JobPriority `json:"priority"`
	ErrorMessage             string      `json:"errorMessage,omitempty"`
	DetectedLanguages        []string    `json:"detectedLanguages,omitempty"`
	StartedAt                *time.Time  `json:"startedAt,omitempty"`
	CompletedAt              *time.Time  `json:"completedAt,omitempty"`
	CreatedAt                time.Time   `json:"createdAt"`

	// Reused is set when Trigger returned an existing job instead of
	// creating a new one. Not persisted.
	Reused bool `json:"reused,omitempty"`
}

// Active reports whether the job still holds the idempotency slot.
func (j *ExtractionJob) Active() bool {
	return j.Status == JobStatusPending || j.Status == JobStatusProcessing
}

// InterestLevel describes how strongly a user engaged with a scheme.
type InterestLevel string

const (
	InterestMentioned InterestLevel = "mentioned"
	InterestInquired  InterestLevel = "inquired"
	InterestDetailed  InterestLevel = "detailed"
)

// Rank orders interest levels for the monotonic-upgrade rule. Unknown levels
// rank below "mentioned" so they never downgrade a stored value.
func (l InterestLevel) Rank() int {
	switch l {
	case InterestMentioned:
		return 1
	case InterestInquired:
		return 2
	case InterestDetailed:
		return 3
	}
	return 0
}

// SchemeMention is one scheme-interest entry in a raw extraction result.
type SchemeMention struct {
	SchemeName    string        `json:"schemeName"`
	InterestLevel InterestLevel `json:"interestLevel"`
}

// TurnoverINR holds an annual turnover from the LLM. The contract asks for a
// rupee number, but models sometimes echo the user's phrasing ("2 crore"), so
// decoding accepts both; string values are handed to the currency normalizer
// downstream.
type TurnoverINR struct {
	Amount *int64
	Text   string
}

func (t *TurnoverINR) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*t = TurnoverINR{}
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var text string
		if err := json.Unmarshal(b, &text); err != nil {
			return err
		}
		*t = TurnoverINR{Text: text}
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	v := int64(math.Round(f))
	*t = TurnoverINR{Amount: &v}
	return nil
}

func (t TurnoverINR) MarshalJSON() ([]byte, error) {
	if t.Amount != nil {
		return json.Marshal(*t.Amount)
	}
	if t.Text != "" {
		return json.Marshal(t.Text)
	}
	return []byte("null"), nil
}

// ExtractionResult is the raw, un-normalized payload returned by the LLM for
// one conversation. It is ephemeral: the job manager consumes it immediately.
type ExtractionResult struct {
	Location          *string         `json:"location"`
	Industry          *string         `json:"industry"`
	BusinessSize      *string         `json:"businessSize"`
	AnnualTurnover    TurnoverINR     `json:"annualTurnover"`
	EmployeeCount     *int            `json:"employeeCount"`
	SchemeInterests   []SchemeMention `json:"schemeInterests"`
	Confidence        float64         `json:"confidence"`
	ExtractionNotes   string          `json:"extractionNotes"`
	DetectedLanguages []string        `json:"detectedLanguages"`
}

// NormalizedUserAttributes is the persisted, canonical attribute row for a
// user (upsert semantics, one logical row per user). Every non-null field
// passed the confidence gate when it was written; Confidence records the
// highest confidence that has written to the row.
type NormalizedUserAttributes struct {
	UserID         string    `json:"userId"`
	Location       *string   `json:"location"`
	Industry       *string   `json:"industry"`
	BusinessSize   *string   `json:"businessSize"`
	AnnualTurnover *int64    `json:"annualTurnover"`
	EmployeeCount  *int      `json:"employeeCount"`
	Confidence     float64   `json:"confidence"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Empty reports whether no attribute field survived normalization.
func (a *NormalizedUserAttributes) Empty() bool {
	return a.Location == nil && a.Industry == nil && a.BusinessSize == nil &&
		a.AnnualTurnover == nil && a.EmployeeCount == nil
}

// SchemeInterest is the persisted per-(user, scheme) interest row. The level
// only ever upgrades (mentioned -> inquired -> detailed).
type SchemeInterest struct {
	UserID          string        `json:"userId"`
	SchemeName      string        `json:"schemeName"`
	InterestLevel   InterestLevel `json:"interestLevel"`
	LastMentionedAt time.Time     `json:"lastMentionedAt"`
}
