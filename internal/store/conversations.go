// internal/store/conversations.go

// Package store holds the PostgreSQL repositories for conversations,
// extraction jobs, normalized attributes and scheme interests, plus the
// optional Elasticsearch indexer.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"msme-insights/internal/models"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

type ConversationStore struct {
	db *sql.DB
}

func NewConversationStore(db *sql.DB) *ConversationStore {
	return &ConversationStore{db: db}
}

func (s *ConversationStore) GetConversation(ctx context.Context, conversationID string) (*models.Conversation, error) {
	const query = `
		SELECT id, user_id, message_count, created_at, updated_at
		FROM conversations
		WHERE id = $1`

	var c models.Conversation
	err := s.db.QueryRowContext(ctx, query, conversationID).Scan(
		&c.ID, &c.UserID, &c.MessageCount, &c.CreatedAt, &c.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("conversation %s: %w", conversationID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	return &c, nil
}

// GetMessages returns the full history in chronological order.
func (s *ConversationStore) GetMessages(ctx context.Context, conversationID string) ([]models.Message, error) {
	const query = `
		SELECT id, conversation_id, role, content, created_at
		FROM conversation_messages
		WHERE conversation_id = $1
		ORDER BY created_at ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, query, conversationID)
	if err != nil {
		return nil, fmt.Errorf("get messages: %w", err)
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return messages, nil
}
