package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/parley-ai/parley/pkg/core/types"
)

// Conversation groups the messages exchanged with one agent.
type Conversation struct {
	ID        string    `json:"id"`
	AgentID   string    `json:"agentId"`
	Title     string    `json:"title,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// StoredMessage is one persisted turn message.
type StoredMessage struct {
	ID             string     `json:"id"`
	ConversationID string     `json:"conversationId"`
	Role           types.Role `json:"role"`
	Content        string     `json:"content"`
	CreatedAt      time.Time  `json:"createdAt"`
}

func (s *Store) CreateConversation(ctx context.Context, agentID, title string) (*Conversation, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO conversations (id, agent_id, title)
		VALUES ($1, $2, $3)
		RETURNING id, agent_id, title, created_at`,
		uuid.NewString(), agentID, title,
	)
	return scanConversation(row)
}

func (s *Store) ListConversations(ctx context.Context, agentID string) ([]*Conversation, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, agent_id, title, created_at
		FROM conversations
		WHERE agent_id = $1
		ORDER BY created_at`,
		agentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	conversations := []*Conversation{}
	for rows.Next() {
		c, err := scanConversation(rows)
		if err != nil {
			return nil, err
		}
		conversations = append(conversations, c)
	}
	return conversations, rows.Err()
}

// AppendMessage persists one message at the end of a conversation.
func (s *Store) AppendMessage(ctx context.Context, conversationID string, role types.Role, content string) (*StoredMessage, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO messages (id, conversation_id, role, content)
		VALUES ($1, $2, $3, $4)
		RETURNING id, conversation_id, role, content, created_at`,
		uuid.NewString(), conversationID, string(role), content,
	)
	return scanMessage(row)
}

// ListMessages returns a conversation's messages oldest first.
func (s *Store) ListMessages(ctx context.Context, conversationID string) ([]*StoredMessage, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, conversation_id, role, content, created_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at`,
		conversationID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := []*StoredMessage{}
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// History converts stored messages into the pipeline's message shape.
func History(stored []*StoredMessage) []types.Message {
	history := make([]types.Message, 0, len(stored))
	for _, m := range stored {
		history = append(history, types.Message{Role: m.Role, Content: m.Content})
	}
	return history
}

func scanConversation(row pgx.Row) (*Conversation, error) {
	var c Conversation
	if err := row.Scan(&c.ID, &c.AgentID, &c.Title, &c.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func scanMessage(row pgx.Row) (*StoredMessage, error) {
	var m StoredMessage
	var role string
	if err := row.Scan(&m.ID, &m.ConversationID, &role, &m.Content, &m.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	m.Role = types.Role(role)
	return &m, nil
}
