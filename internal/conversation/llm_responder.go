package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/wolfman30/storefront-ai-assistant/internal/profile"
	"github.com/wolfman30/storefront-ai-assistant/pkg/logging"
)

const (
	DefaultMaxTokens   = 150
	DefaultTemperature = 0.7
)

// LLMResponder asks a language model for the reply and for any profile
// fields it noticed.
type LLMResponder struct {
	client      LLMClient
	maxTokens   int32
	temperature float32
	logger      *logging.Logger
}

type LLMResponderOption func(*LLMResponder)

func WithMaxTokens(n int) LLMResponderOption {
	return func(r *LLMResponder) {
		if n > 0 {
			r.maxTokens = int32(n)
		}
	}
}

func WithTemperature(t float64) LLMResponderOption {
	return func(r *LLMResponder) {
		r.temperature = float32(t)
	}
}

func NewLLMResponder(client LLMClient, logger *logging.Logger, opts ...LLMResponderOption) *LLMResponder {
	if client == nil {
		panic("conversation: llm client cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	r := &LLMResponder{
		client:      client,
		maxTokens:   DefaultMaxTokens,
		temperature: DefaultTemperature,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *LLMResponder) Respond(ctx context.Context, in ResponderInput) (ResponderOutput, error) {
	messages := append(transcriptToChat(in.History), ChatMessage{Role: ChatRoleUser, Content: in.Message})

	resp, err := r.client.Complete(ctx, LLMRequest{
		System:      BuildSystemPrompt(in.Profile, in.MissingFields, in.Products),
		Messages:    messages,
		MaxTokens:   r.maxTokens,
		Temperature: r.temperature,
	})
	if err != nil {
		return ResponderOutput{}, err
	}

	out := ParseModelOutput(resp.Text)
	if out.Reply == "" {
		return ResponderOutput{}, errors.New("conversation: model returned an empty reply")
	}
	out.Intent = ClassifyIntent(in.Message)
	out.Model = resp.Model
	r.logger.Debug("llm responder replied",
		"model", resp.Model,
		"reply_len", len(out.Reply),
		"extracted", len(out.ExtractedFields.Known()),
	)
	return out, nil
}

type modelPayload struct {
	Reply           string         `json:"reply"`
	ExtractedFields map[string]any `json:"extracted_fields"`
	NeedsMoreInfo   *bool          `json:"needs_more_info"`
}

// ParseModelOutput decodes the JSON reply contract. Anything that does not
// decode into a non-empty reply is treated as plain reply text with no
// extracted fields.
func ParseModelOutput(text string) ResponderOutput {
	raw := strings.TrimSpace(text)
	if payload, ok := decodePayload(raw); ok {
		fields, _ := profile.FromMap(payload.ExtractedFields)
		out := ResponderOutput{
			Reply:           strings.TrimSpace(payload.Reply),
			ExtractedFields: fields,
		}
		if payload.NeedsMoreInfo != nil {
			out.NeedsMoreInfo = *payload.NeedsMoreInfo
		} else {
			out.NeedsMoreInfo = asksForContact(out.Reply)
		}
		return out
	}
	return ResponderOutput{Reply: raw, NeedsMoreInfo: asksForContact(raw)}
}

func decodePayload(raw string) (modelPayload, bool) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return modelPayload{}, false
	}
	var payload modelPayload
	if err := json.Unmarshal([]byte(raw[start:end+1]), &payload); err != nil {
		return modelPayload{}, false
	}
	if strings.TrimSpace(payload.Reply) == "" {
		return modelPayload{}, false
	}
	return payload, true
}
