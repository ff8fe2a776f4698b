package conversation

import (
	"context"
	"errors"
	"time"
)

// ErrConversationNotFound is returned when a conversation id or session id
// has no stored conversation.
var ErrConversationNotFound = errors.New("conversation: not found")

// MessageType tags who wrote a message.
type MessageType string

const (
	MessageTypeUser MessageType = "user"
	MessageTypeBot  MessageType = "bot"
)

// Conversation groups the messages of one chat session.
type Conversation struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"session_id"`
	CustomerID string    `json:"customer_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Message is one stored chat line.
type Message struct {
	ID             int64       `json:"id"`
	ConversationID string      `json:"conversation_id"`
	Type           MessageType `json:"type"`
	Content        string      `json:"content"`
	CreatedAt      time.Time   `json:"timestamp"`
}

// Store persists conversations and their messages.
//
// Create resolves or creates: calling it twice for one session returns the
// same conversation. RecentMessages returns the newest limit messages oldest
// first; a limit of zero or less returns the whole conversation.
type Store interface {
	Create(ctx context.Context, sessionID string) (*Conversation, error)
	GetBySession(ctx context.Context, sessionID string) (*Conversation, error)
	AttachCustomer(ctx context.Context, conversationID, customerID string) error
	AppendMessage(ctx context.Context, conversationID string, typ MessageType, content string) (*Message, error)
	RecentMessages(ctx context.Context, conversationID string, limit int) ([]Message, error)
}
