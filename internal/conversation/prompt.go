package conversation

import (
	"encoding/json"
	"strings"

	"github.com/wolfman30/storefront-ai-assistant/internal/products"
	"github.com/wolfman30/storefront-ai-assistant/internal/profile"
)

const promptProductLimit = 5

const assistantPersona = `You are a friendly, knowledgeable shopping assistant for an online electronics store.

Your goals:
- Understand what the customer is shopping for, their budget and brand preferences.
- Recommend products from AVAILABLE PRODUCTS only. Never invent products or prices.
- Collect the customer's name, email and phone number naturally once they show interest.
  Explain that it lets the store follow up with details and offers.
- Respect any stated budget and any brand the customer wants to avoid.
- Keep replies short and conversational.`

const outputContract = `RESPONSE FORMAT:
Reply with a single JSON object and nothing else:
{"reply": "<message to the customer>", "extracted_fields": {<any of name, email, phone, looking_for, budget, brand_preference, exclude_brand, color_preference the customer stated>}, "needs_more_info": <true|false>}
Only include fields the customer actually stated. Use an empty object when there are none.`

type customerContext struct {
	Profile       map[string]string `json:"profile"`
	MissingFields []string          `json:"missing_fields"`
}

// BuildSystemPrompt assembles the system blocks for one turn.
func BuildSystemPrompt(p profile.Profile, missing []string, items []products.Product) []string {
	blocks := []string{assistantPersona}

	ctxJSON, err := json.MarshalIndent(customerContext{Profile: p.Known(), MissingFields: missing}, "", "  ")
	if err == nil {
		blocks = append(blocks, "CUSTOMER CONTEXT:\n"+string(ctxJSON))
	}
	if missing := strings.Join(missing, ", "); missing != "" {
		blocks = append(blocks, "Still unknown about the customer: "+missing+". Ask for at most one of these.")
	}

	if len(items) > 0 {
		if len(items) > promptProductLimit {
			items = items[:promptProductLimit]
		}
		productJSON, err := json.MarshalIndent(items, "", "  ")
		if err == nil {
			blocks = append(blocks, "AVAILABLE PRODUCTS:\n"+string(productJSON))
		}
	}

	return append(blocks, outputContract)
}
