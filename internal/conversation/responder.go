package conversation

import (
	"context"
	"strings"

	"github.com/wolfman30/storefront-ai-assistant/internal/products"
	"github.com/wolfman30/storefront-ai-assistant/internal/profile"
)

// Customer intents reported alongside a reply.
const (
	IntentBrowsing   = "browsing"
	IntentComparing  = "comparing"
	IntentReadyToBuy = "ready_to_buy"
	IntentNeedInfo   = "need_info"
)

// ResponderInput is everything a responder sees for one turn.
type ResponderInput struct {
	Message       string
	Profile       profile.Profile
	Products      []products.Product
	MissingFields []string
	History       []Message
}

// ResponderOutput is a reply plus whatever the responder itself extracted.
type ResponderOutput struct {
	Reply           string
	ExtractedFields profile.Profile
	NeedsMoreInfo   bool
	Intent          string
	Model           string
}

// Responder produces the natural-language reply for a turn.
type Responder interface {
	Respond(ctx context.Context, in ResponderInput) (ResponderOutput, error)
}

var intentKeywords = []struct {
	intent   string
	keywords []string
}{
	{IntentBrowsing, []string{"looking for", "need", "want", "searching"}},
	{IntentComparing, []string{"compare", "difference", "versus", "better"}},
	{IntentReadyToBuy, []string{"buy", "purchase", "order", "interested", "want this"}},
	{IntentNeedInfo, []string{"tell me more", "details", "specifications", "more info"}},
}

// ClassifyIntent returns the first intent whose keywords appear in message,
// or "" when none do.
func ClassifyIntent(message string) string {
	lower := strings.ToLower(message)
	for _, entry := range intentKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(lower, kw) {
				return entry.intent
			}
		}
	}
	return ""
}

var contactIndicators = []string{
	"contact information",
	"name and phone",
	"phone number",
	"your name",
	"your email",
	"email address",
	"how can i reach",
	"follow up with you",
	"send you",
	"contact you",
}

// asksForContact reports whether reply asks the visitor for contact details.
func asksForContact(reply string) bool {
	lower := strings.ToLower(reply)
	for _, indicator := range contactIndicators {
		if strings.Contains(lower, indicator) {
			return true
		}
	}
	return false
}
