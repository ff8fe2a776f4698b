package conversation

import "context"

// ChatRole is the speaker of a ChatMessage. Providers map it onto their own
// role names.
type ChatRole string

const (
	ChatRoleSystem    ChatRole = "system"
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
)

type ChatMessage struct {
	Role    ChatRole `json:"role"`
	Content string   `json:"content"`
}

// transcriptToChat converts stored shopper and assistant messages into model
// chat turns, oldest first.
func transcriptToChat(history []Message) []ChatMessage {
	out := make([]ChatMessage, 0, len(history)+1)
	for _, msg := range history {
		role := ChatRoleUser
		if msg.Type == MessageTypeBot {
			role = ChatRoleAssistant
		}
		out = append(out, ChatMessage{Role: role, Content: msg.Content})
	}
	return out
}

// LLMRequest asks one model for a reply. The selector fills Model. A negative
// Temperature keeps the provider default.
type LLMRequest struct {
	Model       string
	System      []string
	Messages    []ChatMessage
	MaxTokens   int32
	Temperature float32
}

// LLMResponse carries the completion text and the token counts the selector
// reports to metrics.
type LLMResponse struct {
	Text         string
	Model        string
	InputTokens  int32
	OutputTokens int32
	StopReason   string
}

// LLMClient is implemented by each model provider client.
type LLMClient interface {
	Complete(ctx context.Context, req LLMRequest) (LLMResponse, error)
}
