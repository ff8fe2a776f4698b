package conversation

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/wolfman30/storefront-ai-assistant/internal/profile"
)

const ruleProductLimit = 3

var fieldQuestions = map[string]string{
	string(profile.FieldName):       "May I have your name?",
	string(profile.FieldEmail):      "What's the best email address to send you details?",
	string(profile.FieldPhone):      "Could you share a phone number in case we need to follow up?",
	string(profile.FieldLookingFor): "What are you shopping for today?",
	profile.MissingPreferences:      "Do you have a budget or a favorite brand in mind?",
}

// RuleResponder is the deterministic responder used when no model is
// configured.
type RuleResponder struct {
	printer *message.Printer
}

func NewRuleResponder() *RuleResponder {
	return &RuleResponder{printer: message.NewPrinter(language.English)}
}

func (r *RuleResponder) Respond(ctx context.Context, in ResponderInput) (ResponderOutput, error) {
	var b strings.Builder

	if in.Profile.Name != "" {
		fmt.Fprintf(&b, "Thanks, %s! ", in.Profile.Name)
	} else {
		b.WriteString("Thanks for reaching out! ")
	}

	if len(in.Products) > 0 {
		b.WriteString("Here are some options you might like:")
		for i, item := range in.Products {
			if i == ruleProductLimit {
				break
			}
			b.WriteString("\n- ")
			b.WriteString(r.printer.Sprintf("%s by %s: $%.2f", item.Name, item.Brand, item.Price))
		}
		if len(in.MissingFields) > 0 {
			b.WriteString("\n")
		}
	}

	if len(in.MissingFields) > 0 {
		question, ok := fieldQuestions[in.MissingFields[0]]
		if !ok {
			question = "Could you tell me a bit more about what you need?"
		}
		b.WriteString(question)
	} else if len(in.Products) == 0 {
		b.WriteString("I couldn't find a match yet. Could you tell me more about what you need?")
	}

	return ResponderOutput{
		Reply:         strings.TrimSpace(b.String()),
		NeedsMoreInfo: len(in.MissingFields) > 0,
		Intent:        ClassifyIntent(in.Message),
		Model:         "rules",
	}, nil
}
