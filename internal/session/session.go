// Package session keeps the per-visitor working state between turns: which
// conversation a browser session belongs to and the profile gathered so far.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/wolfman30/storefront-ai-assistant/internal/profile"
)

// ErrSessionNotFound is returned when no state is stored for a session.
var ErrSessionNotFound = errors.New("session: not found")

// State is the session-scoped working state of one visitor. FirstMessageID
// is the first stored message of this session generation; older messages of
// the conversation predate a reset.
type State struct {
	SessionID      string          `json:"session_id"`
	ConversationID string          `json:"conversation_id,omitempty"`
	CustomerID     string          `json:"customer_id,omitempty"`
	Profile        profile.Profile `json:"profile"`
	FirstMessageID int64           `json:"first_message_id,omitempty"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// Store persists session state. Delete is the reset operation; it never
// touches durable customer or product records.
type Store interface {
	Load(ctx context.Context, sessionID string) (*State, error)
	Save(ctx context.Context, state *State) error
	Delete(ctx context.Context, sessionID string) error
}
