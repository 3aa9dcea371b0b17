// internal/common/errors/errors.go

// Package errors provides standardized error handling for the extraction
// pipeline and its workflow integration.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// AIExtractor failures.
	ErrCodeLLMUnavailable    ErrorCode = "LLM_UNAVAILABLE"
	ErrCodeMalformedResponse ErrorCode = "MALFORMED_RESPONSE"
	ErrCodeExtractionTimeout ErrorCode = "EXTRACTION_TIMEOUT"

	// Job lifecycle and persistence failures.
	ErrCodePersistenceFailure   ErrorCode = "PERSISTENCE_FAILURE"
	ErrCodeInvalidJobState      ErrorCode = "INVALID_JOB_STATE"
	ErrCodeConversationNotFound ErrorCode = "CONVERSATION_NOT_FOUND"

	// Supplemental surfaces.
	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeExportFailed           ErrorCode = "EXPORT_FAILED"
	ErrCodeInvalidExportFormat    ErrorCode = "INVALID_EXPORT_FORMAT"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ToJobFailVariables returns a map suitable for workflow job-fail variables.
func (e *StandardError) ToJobFailVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    string(e.Code),
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.Metadata {
		vars[k] = v
	}
	return vars
}

// AsStandardError unwraps err to a *StandardError, or wraps it under a
// fallback code when it is not one.
func AsStandardError(err error, fallback ErrorCode) *StandardError {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr
	}
	return &StandardError{
		Code:      fallback,
		Message:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewLLMUnavailableError creates a retryable LLM connectivity error.
func NewLLMUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeLLMUnavailable,
		Message:   "LLM completion service unavailable",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewMalformedResponseError creates a non-retryable parse/validation error
// for an LLM payload that does not match the extraction contract.
func NewMalformedResponseError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeMalformedResponse,
		Message:   "LLM response does not match the extraction schema",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewExtractionTimeoutError creates a retryable timeout error.
func NewExtractionTimeoutError(conversationID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeExtractionTimeout,
		Message:   "LLM extraction timed out",
		Details:   fmt.Sprintf("conversationId: %s", conversationID),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewPersistenceFailureError creates a retryable datastore error.
func NewPersistenceFailureError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodePersistenceFailure,
		Message:   "Datastore operation failed",
		Details:   fmt.Sprintf("operation: %s, error: %s", operation, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidJobStateError creates a non-retryable state-machine violation.
func NewInvalidJobStateError(jobID, status string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidJobState,
		Message:   "Job is not in a runnable state",
		Details:   fmt.Sprintf("jobId: %s, status: %s", jobID, status),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewConversationNotFoundError creates a non-retryable lookup error.
func NewConversationNotFoundError(conversationID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeConversationNotFound,
		Message:   "Conversation not found",
		Details:   fmt.Sprintf("conversationId: %s", conversationID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotificationSendFailedError creates a retryable notification error.
func NewNotificationSendFailedError(channel string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   "Failure notification could not be delivered",
		Details:   fmt.Sprintf("channel: %s, error: %s", channel, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewExportFailedError creates a retryable export error.
func NewExportFailedError(format string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeExportFailed,
		Message:   "Analytics export failed",
		Details:   fmt.Sprintf("format: %s, error: %s", format, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidExportFormatError creates a non-retryable format error.
func NewInvalidExportFormatError(format string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidExportFormat,
		Message:   "Unsupported export format",
		Details:   fmt.Sprintf("format: %s", format),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}
