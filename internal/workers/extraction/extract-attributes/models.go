// internal/workers/extraction/extract-attributes/models.go
package extractattributes

type Input struct {
	ConversationID string `json:"conversationId"`
	Priority       string `json:"priority"` // "normal" (default) or "high"
}

type Output struct {
	JobID             string   `json:"jobId"`
	Status            string   `json:"status"`
	Reused            bool     `json:"reused"`
	DetectedLanguages []string `json:"detectedLanguages,omitempty"`
}
