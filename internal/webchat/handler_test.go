package webchat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"

	"github.com/wolfman30/storefront-ai-assistant/internal/conversation"
	"github.com/wolfman30/storefront-ai-assistant/internal/customers"
	"github.com/wolfman30/storefront-ai-assistant/internal/products"
	"github.com/wolfman30/storefront-ai-assistant/internal/session"
	"github.com/wolfman30/storefront-ai-assistant/pkg/logging"
)

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	matcher, err := products.NewMatcher(products.StrategyScore, 5)
	require.NoError(t, err)
	orch := conversation.NewOrchestrator(conversation.Dependencies{
		Sessions:      session.NewMemoryStore(),
		Conversations: conversation.NewMemoryStore(),
		Customers:     customers.NewInMemoryRepository(),
		Catalog:       products.NewInMemoryRepository(nil),
		Matcher:       matcher,
		Responder:     conversation.NewRuleResponder(),
	}, logging.New("error"))
	return NewHandler(orch, logging.New("error"))
}

func postJSON(t *testing.T, fn http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	fn(w, req)
	return w
}

func decodeTurn(t *testing.T, w *httptest.ResponseRecorder) conversation.TurnResult {
	t.Helper()
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var result conversation.TurnResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	return result
}

func TestGenerateSessionID(t *testing.T) {
	s1 := generateSessionID()
	s2 := generateSessionID()
	assert.NotEmpty(t, s1)
	assert.NotEqual(t, s1, s2)
	assert.Len(t, s1, 32)
}

func TestHandleChat_Turns(t *testing.T) {
	h := newTestHandler(t)

	first := decodeTurn(t, postJSON(t, h.HandleChat, `{"message":"Hi I'm Sara","session_id":"sess-1"}`))
	assert.Equal(t, "sess-1", first.SessionID)
	assert.Equal(t, "Sara", first.Profile.Name)
	assert.Equal(t, []string{"email", "phone", "looking_for"}, first.MissingFields)
	assert.Empty(t, first.Products)

	second := decodeTurn(t, postJSON(t, h.HandleChat, `{"message":"sara@mail.com, need a gaming laptop, budget $1500","session_id":"sess-1"}`))
	assert.Equal(t, first.ConversationID, second.ConversationID)
	assert.Equal(t, []string{"phone"}, second.MissingFields)
	assert.Len(t, second.Products, 3)
	assert.NotEmpty(t, second.CustomerID)
}

func TestHandleChat_ResponseShape(t *testing.T) {
	h := newTestHandler(t)
	w := postJSON(t, h.HandleChat, `{"message":"hello"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var raw map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))
	for _, key := range []string{"reply", "products", "session_id", "missing_fields", "customer_profile", "conversation_id", "needs_more_info", "degraded"} {
		assert.Contains(t, raw, key)
	}
	assert.Len(t, raw["session_id"], 32)
}

func TestHandleChat_BadRequests(t *testing.T) {
	h := newTestHandler(t)
	for name, body := range map[string]string{
		"invalid json":  `{"message":`,
		"empty message": `{"message":"   ","session_id":"s"}`,
		"no message":    `{"session_id":"s"}`,
	} {
		t.Run(name, func(t *testing.T) {
			w := postJSON(t, h.HandleChat, body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

type failingEngine struct{ err error }

func (f failingEngine) HandleTurn(context.Context, conversation.TurnRequest) (*conversation.TurnResult, error) {
	return nil, f.err
}

func (f failingEngine) Reset(context.Context, string) error { return f.err }

func (f failingEngine) Transcript(context.Context, string) (*conversation.Conversation, []conversation.Message, error) {
	return nil, nil, f.err
}

func TestHandleChat_EngineError(t *testing.T) {
	h := NewHandler(failingEngine{err: errors.New("boom")}, logging.New("error"))
	w := postJSON(t, h.HandleChat, `{"message":"hi","session_id":"s"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	w = postJSON(t, h.HandleReset, `{"session_id":"s"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestHandleReset(t *testing.T) {
	h := newTestHandler(t)
	decodeTurn(t, postJSON(t, h.HandleChat, `{"message":"Hi I'm Sara","session_id":"sess-r"}`))

	w := postJSON(t, h.HandleReset, `{"session_id":"sess-r"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, map[string]string{"status": "reset", "session_id": "sess-r"}, body)

	after := decodeTurn(t, postJSON(t, h.HandleChat, `{"message":"hello","session_id":"sess-r"}`))
	assert.Empty(t, after.Profile.Name)
	assert.Equal(t, []string{"name", "email", "phone", "looking_for"}, after.MissingFields)

	w = postJSON(t, h.HandleReset, `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleHistory(t *testing.T) {
	h := newTestHandler(t)
	first := decodeTurn(t, postJSON(t, h.HandleChat, `{"message":"Hi I'm Sara","session_id":"sess-h"}`))

	req := httptest.NewRequest(http.MethodGet, "/api/chat/history?session_id=sess-h", nil)
	w := httptest.NewRecorder()
	h.HandleHistory(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp HistoryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, first.ConversationID, resp.ConversationID)
	require.Len(t, resp.Messages, 2)
	assert.Equal(t, "user", resp.Messages[0].Type)
	assert.Equal(t, "Hi I'm Sara", resp.Messages[0].Content)
	assert.Equal(t, "bot", resp.Messages[1].Type)
	assert.Equal(t, first.Reply, resp.Messages[1].Content)
}

func TestHandleHistory_Errors(t *testing.T) {
	h := newTestHandler(t)

	w := httptest.NewRecorder()
	h.HandleHistory(w, httptest.NewRequest(http.MethodGet, "/api/chat/history", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	h.HandleHistory(w, httptest.NewRequest(http.MethodGet, "/api/chat/history?session_id=nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleWebSocket(t *testing.T) {
	h := newTestHandler(t)
	srv := httptest.NewServer(http.HandlerFunc(h.HandleWebSocket))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?session_id=ws-1"
	conn, err := websocket.Dial(wsURL, "", srv.URL)
	require.NoError(t, err)
	defer conn.Close()

	var frame OutboundMessage
	require.NoError(t, websocket.JSON.Receive(conn, &frame))
	assert.Equal(t, FrameSession, frame.Type)
	assert.Equal(t, "ws-1", frame.SessionID)

	require.NoError(t, websocket.JSON.Send(conn, InboundMessage{Type: FramePing}))
	require.NoError(t, websocket.JSON.Receive(conn, &frame))
	assert.Equal(t, FramePong, frame.Type)

	require.NoError(t, websocket.JSON.Send(conn, InboundMessage{Message: "Hi I'm Sara"}))
	require.NoError(t, websocket.JSON.Receive(conn, &frame))
	assert.Equal(t, FrameTyping, frame.Type)

	frame = OutboundMessage{}
	require.NoError(t, websocket.JSON.Receive(conn, &frame))
	assert.Equal(t, FrameTurn, frame.Type)
	require.NotNil(t, frame.Turn)
	assert.Equal(t, "Sara", frame.Turn.Profile.Name)
	assert.Equal(t, frame.Turn.Reply, frame.Text)

	require.NoError(t, websocket.JSON.Send(conn, InboundMessage{Type: FrameReset}))
	frame = OutboundMessage{}
	require.NoError(t, websocket.JSON.Receive(conn, &frame))
	assert.Equal(t, FrameReset, frame.Type)
	assert.Equal(t, 1, h.ActiveConnections())
}
