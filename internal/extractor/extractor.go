// internal/extractor/extractor.go
package extractor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"msme-insights/internal/models"
	"msme-insights/internal/prompt"
)

var (
	ErrLLMUnavailable    = errors.New("LLM_UNAVAILABLE")
	ErrMalformedResponse = errors.New("MALFORMED_RESPONSE")
	ErrExtractionTimeout = errors.New("EXTRACTION_TIMEOUT")
)

// Logger interface definition
type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	WithFields(fields map[string]interface{}) Logger
}

type Config struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	MaxRetries int
}

// Extractor calls the LLM gateway and turns its reply into a validated
// ExtractionResult. It carries no retry policy beyond transient HTTP
// failures inside a single Extract call; job-level retries belong to the
// workflow engine.
type Extractor struct {
	config Config
	client *http.Client
	logger Logger
}

func New(config Config, log Logger) *Extractor {
	return &Extractor{
		config: config,
		client: &http.Client{
			Timeout: config.Timeout,
		},
		logger: log.WithFields(map[string]interface{}{
			"component": "extractor",
		}),
	}
}

// Extract builds the extraction prompt from the conversation history and
// asks the LLM for structured attributes. The same history always produces
// the same prompt, so results are reproducible up to model nondeterminism
// (temperature is pinned to 0).
func (e *Extractor) Extract(ctx context.Context, history []models.Message) (*models.ExtractionResult, error) {
	requestBody := map[string]interface{}{
		"prompt":      prompt.Build(history),
		"temperature": 0,
	}
	body, _ := json.Marshal(requestBody)

	var resp *http.Response
	var lastErr error

	for attempt := 0; attempt <= e.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(100*(1<<(attempt-1))) * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ErrExtractionTimeout
			}
		}

		req, err := http.NewRequestWithContext(ctx, "POST", e.config.BaseURL+"/api/ai/extract", bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLLMUnavailable, err)
		}
		req.Header.Set("Content-Type", "application/json")
		if e.config.APIKey != "" {
			req.Header.Set("Authorization", "Bearer "+e.config.APIKey)
		}

		resp, lastErr = e.client.Do(req)

		if ctx.Err() != nil ||
			errors.Is(lastErr, context.DeadlineExceeded) ||
			errors.Is(lastErr, context.Canceled) {
			return nil, ErrExtractionTimeout
		}

		if lastErr == nil {
			if resp.StatusCode == http.StatusOK {
				break
			}
			status := resp.StatusCode
			resp.Body.Close()
			lastErr = fmt.Errorf("status %d", status)
			resp = nil
			// 4xx responses will not get better on retry
			if status >= 400 && status < 500 {
				break
			}
		}
	}

	if lastErr != nil || resp == nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, ErrExtractionTimeout
		}
		return nil, fmt.Errorf("%w: %v", ErrLLMUnavailable, lastErr)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrLLMUnavailable, err)
	}

	result, err := e.parseResponse(raw)
	if err != nil {
		return nil, err
	}

	e.logger.Info("extraction completed", map[string]interface{}{
		"confidence": result.Confidence,
		"schemes":    len(result.SchemeInterests),
		"languages":  result.DetectedLanguages,
	})

	return result, nil
}

// parseResponse tolerates the two gateway reply shapes seen in practice:
// the extraction object directly, or an OpenAI-style envelope with the
// object embedded as text in choices[0].message.content.
func (e *Extractor) parseResponse(raw []byte) (*models.ExtractionResult, error) {
	payload := raw

	var envelope struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil && len(envelope.Choices) > 0 {
		payload = []byte(envelope.Choices[0].Message.Content)
	}

	extracted, ok := extractJSONObject(string(payload))
	if !ok {
		return nil, fmt.Errorf("%w: no JSON object in response", ErrMalformedResponse)
	}

	if err := validateResult([]byte(extracted)); err != nil {
		return nil, err
	}

	var result models.ExtractionResult
	if err := json.Unmarshal([]byte(extracted), &result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	// Clamp rather than reject: small overshoots are a model quirk, not a
	// contract violation.
	if result.Confidence < 0 {
		result.Confidence = 0
	}
	if result.Confidence > 1 {
		result.Confidence = 1
	}
	if result.SchemeInterests == nil {
		result.SchemeInterests = []models.SchemeMention{}
	}

	return &result, nil
}

// extractJSONObject pulls the outermost {...} from text, surviving markdown
// fences and prose the model sometimes wraps around its answer.
func extractJSONObject(text string) (string, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return "", false
	}
	return text[start : end+1], true
}
