package conversation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// SQLStore persists conversations and messages to PostgreSQL through
// database/sql (pgx stdlib driver).
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	if db == nil {
		panic("conversation: sql db cannot be nil")
	}
	return &SQLStore{db: db}
}

const conversationColumns = `id::text, session_id, COALESCE(customer_id::text, ''), created_at, updated_at`

func (s *SQLStore) Create(ctx context.Context, sessionID string) (*Conversation, error) {
	if sessionID == "" {
		return nil, errors.New("conversation: session id is required")
	}
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO conversations (id, session_id)
		VALUES ($1, $2)
		ON CONFLICT (session_id) DO UPDATE SET updated_at = now()
		RETURNING `+conversationColumns,
		uuid.NewString(), sessionID,
	)
	c, err := scanConversation(row)
	if err != nil {
		return nil, fmt.Errorf("conversation: create: %w", err)
	}
	return c, nil
}

func (s *SQLStore) GetBySession(ctx context.Context, sessionID string) (*Conversation, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+conversationColumns+` FROM conversations WHERE session_id = $1`,
		sessionID,
	)
	c, err := scanConversation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrConversationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("conversation: get by session: %w", err)
	}
	return c, nil
}

func (s *SQLStore) AttachCustomer(ctx context.Context, conversationID, customerID string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE conversations SET customer_id = $2, updated_at = now() WHERE id = $1`,
		conversationID, customerID,
	)
	if err != nil {
		return fmt.Errorf("conversation: attach customer: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrConversationNotFound
	}
	return nil
}

func (s *SQLStore) AppendMessage(ctx context.Context, conversationID string, typ MessageType, content string) (*Message, error) {
	msg := Message{ConversationID: conversationID, Type: typ, Content: content}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO conversation_messages (conversation_id, type, content)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`,
		conversationID, string(typ), content,
	).Scan(&msg.ID, &msg.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("conversation: append message: %w", err)
	}

	if _, err := s.db.ExecContext(ctx,
		`UPDATE conversations SET updated_at = $2 WHERE id = $1`,
		conversationID, msg.CreatedAt,
	); err != nil {
		return nil, fmt.Errorf("conversation: touch conversation: %w", err)
	}
	return &msg, nil
}

func (s *SQLStore) RecentMessages(ctx context.Context, conversationID string, limit int) ([]Message, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if limit > 0 {
		rows, err = s.db.QueryContext(ctx, `
			SELECT id, type, content, created_at FROM (
				SELECT id, type, content, created_at
				FROM conversation_messages
				WHERE conversation_id = $1
				ORDER BY id DESC
				LIMIT $2
			) recent
			ORDER BY id ASC`,
			conversationID, limit,
		)
	} else {
		rows, err = s.db.QueryContext(ctx, `
			SELECT id, type, content, created_at
			FROM conversation_messages
			WHERE conversation_id = $1
			ORDER BY id ASC`,
			conversationID,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("conversation: recent messages: %w", err)
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		msg := Message{ConversationID: conversationID}
		var typ string
		if err := rows.Scan(&msg.ID, &typ, &msg.Content, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("conversation: scan message: %w", err)
		}
		msg.Type = MessageType(typ)
		out = append(out, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("conversation: iterate messages: %w", err)
	}
	return out, nil
}

func scanConversation(row *sql.Row) (*Conversation, error) {
	var c Conversation
	if err := row.Scan(&c.ID, &c.SessionID, &c.CustomerID, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}
