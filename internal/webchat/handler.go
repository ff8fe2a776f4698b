package webchat

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/net/websocket"

	"github.com/wolfman30/storefront-ai-assistant/internal/conversation"
	"github.com/wolfman30/storefront-ai-assistant/pkg/logging"
)

const maxBodyBytes = 16 << 10

// Engine runs chat turns for a session.
type Engine interface {
	HandleTurn(ctx context.Context, req conversation.TurnRequest) (*conversation.TurnResult, error)
	Reset(ctx context.Context, sessionID string) error
	Transcript(ctx context.Context, sessionID string) (*conversation.Conversation, []conversation.Message, error)
}

// Handler exposes the chat turn API over HTTP and WebSocket.
type Handler struct {
	engine Engine
	logger *logging.Logger

	mu    sync.RWMutex
	conns map[string]*websocket.Conn // sessionID -> active connection
}

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
}

// ResetRequest is the body of POST /api/reset.
type ResetRequest struct {
	SessionID string `json:"session_id"`
}

// NewHandler creates a web chat handler.
func NewHandler(engine Engine, logger *logging.Logger) *Handler {
	if engine == nil {
		panic("webchat: engine required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		engine: engine,
		logger: logger,
		conns:  make(map[string]*websocket.Conn),
	}
}

// generateSessionID creates a random session identifier.
func generateSessionID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return uuid.New().String()
	}
	return hex.EncodeToString(b)
}

// HandleChat processes one message: POST /api/chat.
func (h *Handler) HandleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}
	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		sessionID = generateSessionID()
	}

	result, err := h.engine.HandleTurn(r.Context(), conversation.TurnRequest{SessionID: sessionID, Message: req.Message})
	if err != nil {
		if errors.Is(err, conversation.ErrEmptyMessage) {
			writeError(w, http.StatusBadRequest, "message is required")
			return
		}
		h.logger.Error("webchat: turn failed", "session_id", sessionID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to process message")
		return
	}

	h.logger.Info("webchat: turn handled",
		"session_id", result.SessionID,
		"conversation_id", result.ConversationID,
		"missing_fields", len(result.MissingFields),
		"products", len(result.Products),
		"degraded", result.Degraded,
	)
	writeJSON(w, http.StatusOK, result)
}

// HandleReset clears session state: POST /api/reset.
func (h *Handler) HandleReset(w http.ResponseWriter, r *http.Request) {
	var req ResetRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "session_id is required")
		return
	}
	if err := h.engine.Reset(r.Context(), sessionID); err != nil {
		h.logger.Error("webchat: reset failed", "session_id", sessionID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to reset session")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset", "session_id": sessionID})
}

// HandleHistory returns the session's transcript: GET /api/chat/history.
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimSpace(r.URL.Query().Get("session_id"))
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "session_id parameter required")
		return
	}

	conv, msgs, err := h.engine.Transcript(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, conversation.ErrConversationNotFound) {
			writeError(w, http.StatusNotFound, "conversation not found")
			return
		}
		h.logger.Error("webchat: failed to load history", "session_id", sessionID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load history")
		return
	}

	writeJSON(w, http.StatusOK, HistoryResponse{
		ConversationID: conv.ID,
		Messages:       historyFromMessages(msgs),
	})
}

// HandleWebSocket upgrades to WebSocket; each inbound frame is one turn.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	websocket.Handler(func(conn *websocket.Conn) {
		h.serveWS(conn, r)
	}).ServeHTTP(w, r)
}

func (h *Handler) serveWS(conn *websocket.Conn, r *http.Request) {
	ctx := r.Context()
	sessionID := strings.TrimSpace(r.URL.Query().Get("session_id"))
	if sessionID == "" {
		sessionID = generateSessionID()
	}

	_ = websocket.JSON.Send(conn, OutboundMessage{Type: FrameSession, SessionID: sessionID})

	h.register(sessionID, conn)
	defer h.unregister(sessionID, conn)

	h.logger.Info("webchat: connection opened", "session_id", sessionID)

	for {
		var msg InboundMessage
		if err := websocket.JSON.Receive(conn, &msg); err != nil {
			h.logger.Debug("webchat: connection closed", "session_id", sessionID, "error", err)
			return
		}

		switch msg.Type {
		case FramePing:
			_ = websocket.JSON.Send(conn, OutboundMessage{Type: FramePong})
		case FrameReset:
			if err := h.engine.Reset(ctx, sessionID); err != nil {
				h.logger.Error("webchat: reset failed", "session_id", sessionID, "error", err)
				_ = websocket.JSON.Send(conn, errorFrame("Sorry, the conversation could not be reset."))
				continue
			}
			_ = websocket.JSON.Send(conn, OutboundMessage{Type: FrameReset, SessionID: sessionID})
		case "", FrameMessage:
			if strings.TrimSpace(msg.Message) == "" {
				continue
			}
			_ = websocket.JSON.Send(conn, OutboundMessage{Type: FrameTyping})
			result, err := h.engine.HandleTurn(ctx, conversation.TurnRequest{SessionID: sessionID, Message: msg.Message})
			if err != nil {
				h.logger.Error("webchat: turn failed", "session_id", sessionID, "error", err)
				_ = websocket.JSON.Send(conn, errorFrame("Sorry, something went wrong. Please try again."))
				continue
			}
			_ = websocket.JSON.Send(conn, turnFrame(result))
		}
	}
}

func (h *Handler) register(sessionID string, conn *websocket.Conn) {
	h.mu.Lock()
	h.conns[sessionID] = conn
	h.mu.Unlock()
}

func (h *Handler) unregister(sessionID string, conn *websocket.Conn) {
	h.mu.Lock()
	if h.conns[sessionID] == conn {
		delete(h.conns, sessionID)
	}
	h.mu.Unlock()
}

// ActiveConnections reports how many WebSocket sessions are open.
func (h *Handler) ActiveConnections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
