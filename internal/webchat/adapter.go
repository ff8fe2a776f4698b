package webchat

import (
	"time"

	"github.com/wolfman30/storefront-ai-assistant/internal/conversation"
)

// Frame types exchanged over the WebSocket.
const (
	FrameMessage = "message"
	FramePing    = "ping"
	FramePong    = "pong"
	FrameReset   = "reset"
	FrameSession = "session"
	FrameTyping  = "typing"
	FrameTurn    = "turn"
	FrameError   = "error"
)

// InboundMessage is what the widget sends. An empty Type is a message.
type InboundMessage struct {
	Type    string `json:"type,omitempty"`
	Message string `json:"message"`
}

// OutboundMessage is what we send to the widget.
type OutboundMessage struct {
	Type      string                   `json:"type"`
	SessionID string                   `json:"session_id,omitempty"`
	Text      string                   `json:"text,omitempty"`
	Turn      *conversation.TurnResult `json:"turn,omitempty"`
}

// HistoryMessage is one transcript entry in a history response.
type HistoryMessage struct {
	Type      string `json:"type"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

// HistoryResponse is returned by GET /api/chat/history.
type HistoryResponse struct {
	ConversationID string           `json:"conversation_id"`
	Messages       []HistoryMessage `json:"messages"`
}

func historyFromMessages(msgs []conversation.Message) []HistoryMessage {
	history := make([]HistoryMessage, 0, len(msgs))
	for _, m := range msgs {
		history = append(history, HistoryMessage{
			Type:      string(m.Type),
			Content:   m.Content,
			Timestamp: m.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return history
}

func turnFrame(result *conversation.TurnResult) OutboundMessage {
	return OutboundMessage{
		Type:      FrameTurn,
		SessionID: result.SessionID,
		Text:      result.Reply,
		Turn:      result,
	}
}

func errorFrame(text string) OutboundMessage {
	return OutboundMessage{Type: FrameError, Text: text}
}
