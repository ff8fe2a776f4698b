package conversation

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/storefront-ai-assistant/internal/products"
	"github.com/wolfman30/storefront-ai-assistant/internal/profile"
)

type capturingLLM struct {
	req  LLMRequest
	text string
	err  error
}

func (c *capturingLLM) Complete(ctx context.Context, req LLMRequest) (LLMResponse, error) {
	c.req = req
	if c.err != nil {
		return LLMResponse{}, c.err
	}
	return LLMResponse{Text: c.text, Model: "test-model"}, nil
}

func TestParseModelOutput(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		reply     string
		fields    profile.Profile
		needsMore bool
	}{
		{
			name:      "json contract",
			text:      `{"reply": "Great choice!", "extracted_fields": {"name": "Sara", "budget": 1500, "phone": null}, "needs_more_info": true}`,
			reply:     "Great choice!",
			fields:    profile.Profile{Name: "Sara", Budget: "$1500"},
			needsMore: true,
		},
		{
			name:   "fenced json",
			text:   "```json\n{\"reply\": \"Here you go\", \"extracted_fields\": {}, \"needs_more_info\": false}\n```",
			reply:  "Here you go",
			fields: profile.Profile{},
		},
		{
			name:      "json without needs_more_info falls back to indicators",
			text:      `{"reply": "What is your email address?"}`,
			reply:     "What is your email address?",
			needsMore: true,
		},
		{
			name:      "plain text",
			text:      "  Could I get your phone number?  ",
			reply:     "Could I get your phone number?",
			needsMore: true,
		},
		{
			name:  "json without reply is plain text",
			text:  `{"extracted_fields": {"name": "Sara"}}`,
			reply: `{"extracted_fields": {"name": "Sara"}}`,
		},
		{
			name:  "broken json",
			text:  `{"reply": "oops"`,
			reply: `{"reply": "oops"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := ParseModelOutput(tt.text)
			assert.Equal(t, tt.reply, out.Reply)
			assert.Equal(t, tt.fields, out.ExtractedFields)
			assert.Equal(t, tt.needsMore, out.NeedsMoreInfo)
		})
	}
}

func TestLLMResponder_Respond(t *testing.T) {
	llm := &capturingLLM{text: `{"reply": "The Dell XPS fits your budget.", "extracted_fields": {"color_preference": "Silver"}, "needs_more_info": false}`}
	r := NewLLMResponder(llm, nil)

	out, err := r.Respond(context.Background(), ResponderInput{
		Message:       "I want to compare laptops",
		Profile:       profile.Profile{Name: "Sara", LookingFor: "laptop"},
		Products:      []products.Product{{ID: "p1", Name: "Dell XPS 13 Plus", Brand: "Dell", Price: 1399.99}},
		MissingFields: []string{"email", "phone"},
		History: []Message{
			{Type: MessageTypeUser, Content: "hi"},
			{Type: MessageTypeBot, Content: "hello"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "The Dell XPS fits your budget.", out.Reply)
	assert.Equal(t, "Silver", out.ExtractedFields.ColorPreference)
	assert.False(t, out.NeedsMoreInfo)
	assert.Equal(t, IntentBrowsing, out.Intent)
	assert.Equal(t, "test-model", out.Model)

	assert.Equal(t, int32(DefaultMaxTokens), llm.req.MaxTokens)
	assert.InDelta(t, DefaultTemperature, llm.req.Temperature, 0.0001)
	require.Len(t, llm.req.Messages, 3)
	assert.Equal(t, ChatRoleUser, llm.req.Messages[0].Role)
	assert.Equal(t, ChatRoleAssistant, llm.req.Messages[1].Role)
	assert.Equal(t, "I want to compare laptops", llm.req.Messages[2].Content)

	system := strings.Join(llm.req.System, "\n")
	assert.Contains(t, system, "CUSTOMER CONTEXT")
	assert.Contains(t, system, `"name": "Sara"`)
	assert.Contains(t, system, "AVAILABLE PRODUCTS")
	assert.Contains(t, system, "Dell XPS 13 Plus")
	assert.Contains(t, system, "email, phone")
}

func TestLLMResponder_Errors(t *testing.T) {
	r := NewLLMResponder(&capturingLLM{err: ErrAllModelsFailed}, nil)
	_, err := r.Respond(context.Background(), ResponderInput{Message: "hi"})
	assert.ErrorIs(t, err, ErrAllModelsFailed)

	r = NewLLMResponder(&capturingLLM{text: `{"reply": "   "}`}, nil, WithMaxTokens(300), WithTemperature(0.2))
	assert.Equal(t, int32(300), r.maxTokens)
	_, err = r.Respond(context.Background(), ResponderInput{Message: "hi"})
	assert.NoError(t, err)

	r = NewLLMResponder(&capturingLLM{err: errors.New("x")}, nil)
	_, err = r.Respond(context.Background(), ResponderInput{Message: "hi"})
	assert.Error(t, err)
}

func TestBuildSystemPrompt_CapsProducts(t *testing.T) {
	items := make([]products.Product, 8)
	for i := range items {
		items[i] = products.Product{ID: string(rune('a' + i)), Name: "Item"}
	}
	blocks := BuildSystemPrompt(profile.Profile{}, nil, items)
	joined := strings.Join(blocks, "\n")

	assert.Equal(t, promptProductLimit, strings.Count(joined, `"id":`))
	assert.NotContains(t, joined, "Still unknown")
	assert.Contains(t, blocks[len(blocks)-1], "RESPONSE FORMAT")
}

func TestClassifyIntent(t *testing.T) {
	tests := map[string]string{
		"I'm looking for a laptop":        IntentBrowsing,
		"what's the difference?":          IntentComparing,
		"I'd like to purchase the Dell":   IntentReadyToBuy,
		"tell me more about the ThinkPad": IntentNeedInfo,
		"hello":                           "",
	}
	for msg, want := range tests {
		assert.Equal(t, want, ClassifyIntent(msg), msg)
	}
}
