// internal/models/conversation.go
package models

import "time"

// MessageRole identifies who authored a chat message.
type MessageRole string

const (
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
)

// Message is a single turn in a conversation. Messages are written by the
// external chat pipeline; this service only reads them.
type Message struct {
	ID             string      `json:"id"`
	ConversationID string      `json:"conversationId"`
	Role           MessageRole `json:"role"`
	Content        string      `json:"content"`
	CreatedAt      time.Time   `json:"createdAt"`
}

// Conversation is the chat-pipeline owned conversation record. MessageCount
// increments monotonically and is the snapshot half of the extraction
// idempotency key.
type Conversation struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	MessageCount int       `json:"messageCount"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
