package conversation

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-process Store used by tests and the CLI.
type MemoryStore struct {
	mu        sync.RWMutex
	byID      map[string]*Conversation
	bySession map[string]string
	messages  map[string][]Message
	nextID    int64
	now       func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:      make(map[string]*Conversation),
		bySession: make(map[string]string),
		messages:  make(map[string][]Message),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *MemoryStore) Create(ctx context.Context, sessionID string) (*Conversation, error) {
	if sessionID == "" {
		return nil, errors.New("conversation: session id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.bySession[sessionID]; ok {
		c := *s.byID[id]
		return &c, nil
	}
	now := s.now()
	c := &Conversation{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.byID[c.ID] = c
	s.bySession[sessionID] = c.ID
	out := *c
	return &out, nil
}

func (s *MemoryStore) GetBySession(ctx context.Context, sessionID string) (*Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.bySession[sessionID]
	if !ok {
		return nil, ErrConversationNotFound
	}
	c := *s.byID[id]
	return &c, nil
}

func (s *MemoryStore) AttachCustomer(ctx context.Context, conversationID, customerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.byID[conversationID]
	if !ok {
		return ErrConversationNotFound
	}
	c.CustomerID = customerID
	c.UpdatedAt = s.now()
	return nil
}

func (s *MemoryStore) AppendMessage(ctx context.Context, conversationID string, typ MessageType, content string) (*Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.byID[conversationID]
	if !ok {
		return nil, ErrConversationNotFound
	}
	s.nextID++
	msg := Message{
		ID:             s.nextID,
		ConversationID: conversationID,
		Type:           typ,
		Content:        content,
		CreatedAt:      s.now(),
	}
	s.messages[conversationID] = append(s.messages[conversationID], msg)
	c.UpdatedAt = msg.CreatedAt
	return &msg, nil
}

func (s *MemoryStore) RecentMessages(ctx context.Context, conversationID string, limit int) ([]Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.byID[conversationID]; !ok {
		return nil, ErrConversationNotFound
	}
	all := s.messages[conversationID]
	if limit > 0 && len(all) > limit {
		all = all[len(all)-limit:]
	}
	return append([]Message(nil), all...), nil
}
