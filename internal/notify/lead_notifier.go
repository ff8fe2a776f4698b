package notify

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/wolfman30/storefront-ai-assistant/internal/customers"
	"github.com/wolfman30/storefront-ai-assistant/internal/profile"
	"github.com/wolfman30/storefront-ai-assistant/pkg/logging"
)

// CategoryQualifiedLead tags lead notifications at the email provider.
const CategoryQualifiedLead = "lead-qualified"

// LeadNotifier emails the sales inbox when a customer becomes qualified.
type LeadNotifier struct {
	email  EmailSender
	to     string
	logger *logging.Logger
}

// NewLeadNotifier returns nil when there is no sender or recipient, so
// callers can skip notifications entirely.
func NewLeadNotifier(email EmailSender, to string, logger *logging.Logger) *LeadNotifier {
	if email == nil || strings.TrimSpace(to) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &LeadNotifier{email: email, to: strings.TrimSpace(to), logger: logger}
}

// NotifyQualified sends a summary of the customer's profile.
func (n *LeadNotifier) NotifyQualified(ctx context.Context, c *customers.Customer) error {
	if n == nil || c == nil {
		return nil
	}
	name := c.Profile.Name
	if name == "" {
		name = c.Profile.Email
	}

	msg := EmailMessage{
		To:         n.to,
		Subject:    fmt.Sprintf("New qualified lead: %s", name),
		Body:       leadSummary(c),
		HTML:       leadSummaryHTML(c),
		ReplyTo:    c.Profile.Email,
		ReplyName:  c.Profile.Name,
		Categories: []string{CategoryQualifiedLead},
		CustomerID: c.ID,
	}
	if err := n.email.Send(ctx, msg); err != nil {
		return fmt.Errorf("notify: lead notification: %w", err)
	}
	n.logger.Info("lead notification sent", "customer_id", c.ID)
	return nil
}

const leadIntro = "A shopper just shared everything needed for follow-up."

func leadSummary(c *customers.Customer) string {
	var b strings.Builder
	b.WriteString(leadIntro + "\n\n")
	fmt.Fprintf(&b, "Customer ID: %s\n", c.ID)
	for _, f := range summaryFields(c) {
		fmt.Fprintf(&b, "%s: %s\n", fieldLabel(f), c.Profile.Get(f))
	}
	return b.String()
}

func leadSummaryHTML(c *customers.Customer) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<p>%s</p>\n<table>\n", leadIntro)
	fmt.Fprintf(&b, "<tr><th>Customer ID</th><td>%s</td></tr>\n", html.EscapeString(c.ID))
	for _, f := range summaryFields(c) {
		fmt.Fprintf(&b, "<tr><th>%s</th><td>%s</td></tr>\n", fieldLabel(f), html.EscapeString(c.Profile.Get(f)))
	}
	b.WriteString("</table>\n")
	return b.String()
}

func summaryFields(c *customers.Customer) []profile.Field {
	out := make([]profile.Field, 0, len(profile.Fields))
	for _, f := range profile.Fields {
		if f != profile.FieldTimestamp && c.Profile.Get(f) != "" {
			out = append(out, f)
		}
	}
	return out
}

func fieldLabel(f profile.Field) string {
	words := strings.Split(string(f), "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}
