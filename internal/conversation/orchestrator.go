package conversation

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/storefront-ai-assistant/internal/customers"
	"github.com/wolfman30/storefront-ai-assistant/internal/observability/metrics"
	"github.com/wolfman30/storefront-ai-assistant/internal/products"
	"github.com/wolfman30/storefront-ai-assistant/internal/profile"
	"github.com/wolfman30/storefront-ai-assistant/internal/session"
	"github.com/wolfman30/storefront-ai-assistant/pkg/logging"
)

// ErrEmptyMessage is returned for turns without any text.
var ErrEmptyMessage = errors.New("conversation: message is required")

// DegradedReply is sent when every responder attempt failed.
const DegradedReply = "I'm sorry, I'm having trouble responding right now. Please try again in a moment."

const (
	defaultHistoryLimit = 5
	defaultSurfaceLimit = 3
)

// LeadNotifier is told when a customer first has every required field.
type LeadNotifier interface {
	NotifyQualified(ctx context.Context, customer *customers.Customer) error
}

// TurnRequest is one inbound visitor message.
type TurnRequest struct {
	SessionID string
	Message   string
}

// TurnResult is the assembled outcome of a turn.
type TurnResult struct {
	Reply          string             `json:"reply"`
	Products       []products.Product `json:"products"`
	SessionID      string             `json:"session_id"`
	MissingFields  []string           `json:"missing_fields"`
	Profile        profile.Profile    `json:"customer_profile"`
	ConversationID string             `json:"conversation_id"`
	CustomerID     string             `json:"customer_id,omitempty"`
	NeedsMoreInfo  bool               `json:"needs_more_info"`
	Intent         string             `json:"intent,omitempty"`
	Degraded       bool               `json:"degraded"`
}

// Dependencies are the collaborators an Orchestrator sequences.
type Dependencies struct {
	Sessions      session.Store
	Conversations Store
	Customers     customers.Repository
	Catalog       products.Repository
	Matcher       products.Matcher
	Responder     Responder
}

// Orchestrator runs a chat turn end to end: extraction, merge, customer
// persistence, gating, matching, the responder call and a second merge of
// whatever the responder extracted.
type Orchestrator struct {
	sessions      session.Store
	conversations Store
	customers     customers.Repository
	catalog       products.Repository
	matcher       products.Matcher
	responder     Responder

	notifier     LeadNotifier
	logger       *logging.Logger
	metrics      *metrics.ConversationMetrics
	tracer       trace.Tracer
	historyLimit int
	surfaceLimit int
	now          func() time.Time
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator)

func WithHistoryLimit(n int) OrchestratorOption {
	return func(o *Orchestrator) {
		if n > 0 {
			o.historyLimit = n
		}
	}
}

// WithSurfaceLimit caps how many matched products are returned to the caller.
func WithSurfaceLimit(n int) OrchestratorOption {
	return func(o *Orchestrator) {
		if n > 0 {
			o.surfaceLimit = n
		}
	}
}

func WithLeadNotifier(n LeadNotifier) OrchestratorOption {
	return func(o *Orchestrator) {
		o.notifier = n
	}
}

func WithMetrics(m *metrics.ConversationMetrics) OrchestratorOption {
	return func(o *Orchestrator) {
		o.metrics = m
	}
}

func WithTracer(t trace.Tracer) OrchestratorOption {
	return func(o *Orchestrator) {
		if t != nil {
			o.tracer = t
		}
	}
}

func WithClock(now func() time.Time) OrchestratorOption {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

func NewOrchestrator(deps Dependencies, logger *logging.Logger, opts ...OrchestratorOption) *Orchestrator {
	switch {
	case deps.Sessions == nil:
		panic("conversation: session store cannot be nil")
	case deps.Conversations == nil:
		panic("conversation: conversation store cannot be nil")
	case deps.Customers == nil:
		panic("conversation: customer repository cannot be nil")
	case deps.Catalog == nil:
		panic("conversation: product repository cannot be nil")
	case deps.Matcher == nil:
		panic("conversation: matcher cannot be nil")
	case deps.Responder == nil:
		panic("conversation: responder cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	o := &Orchestrator{
		sessions:      deps.Sessions,
		conversations: deps.Conversations,
		customers:     deps.Customers,
		catalog:       deps.Catalog,
		matcher:       deps.Matcher,
		responder:     deps.Responder,
		logger:        logger,
		tracer:        otel.Tracer("storefront.internal.conversation"),
		historyLimit:  defaultHistoryLimit,
		surfaceLimit:  defaultSurfaceLimit,
		now:           func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// turn carries the working state of one HandleTurn call. conversationID is
// state.ConversationID, or a throwaway id when the conversation could not be
// stored.
type turn struct {
	state          *session.State
	conversationID string
	persisted      bool
	missing        []string
	matched        []products.Product
}

// HandleTurn processes one visitor message. Only an empty message is an
// error; storage and responder failures degrade the turn instead.
func (o *Orchestrator) HandleTurn(ctx context.Context, req TurnRequest) (*TurnResult, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, ErrEmptyMessage
	}
	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	started := o.now()
	ctx, span := o.tracer.Start(ctx, "conversation.turn", trace.WithAttributes(attribute.String("session.id", sessionID)))
	defer span.End()

	o.logger.Debug("turn received",
		"session_id", sessionID,
		"message_len", len(message),
		"preview", logging.Redact(message, 60),
	)

	t := &turn{state: o.loadState(ctx, sessionID)}
	o.resolveConversation(ctx, t)

	userMsgID := o.appendMessage(ctx, t, MessageTypeUser, message)
	if t.state.FirstMessageID == 0 {
		t.state.FirstMessageID = userMsgID
	}

	extracted := profile.Extract(message, t.state.Profile)
	t.state.Profile = profile.Merge(t.state.Profile, extracted)
	o.evaluate(ctx, t)

	history := o.history(ctx, t, userMsgID)
	out, err := o.responder.Respond(ctx, ResponderInput{
		Message:       message,
		Profile:       t.state.Profile,
		Products:      t.matched,
		MissingFields: t.missing,
		History:       history,
	})
	degraded := false
	if err != nil {
		span.RecordError(err)
		o.logger.Error("responder failed", "session_id", sessionID, "error", err)
		out = ResponderOutput{
			Reply:         DegradedReply,
			NeedsMoreInfo: len(t.missing) > 0,
			Intent:        ClassifyIntent(message),
		}
		degraded = true
	}

	if merged := profile.Merge(t.state.Profile, out.ExtractedFields); merged != t.state.Profile {
		t.state.Profile = merged
		o.evaluate(ctx, t)
	}

	o.appendMessage(ctx, t, MessageTypeBot, out.Reply)

	t.state.UpdatedAt = o.now()
	if err := o.sessions.Save(ctx, t.state); err != nil {
		span.RecordError(err)
		o.logger.Warn("failed to save session state", "session_id", sessionID, "error", err)
	}

	surfaced := t.matched
	if len(surfaced) > o.surfaceLimit {
		surfaced = surfaced[:o.surfaceLimit]
	}
	if surfaced == nil {
		surfaced = []products.Product{}
	}

	o.metrics.ObserveTurn(degraded, o.now().Sub(started).Seconds())
	span.SetAttributes(
		attribute.String("conversation.id", t.conversationID),
		attribute.Int("conversation.missing_fields", len(t.missing)),
		attribute.Int("conversation.products", len(surfaced)),
		attribute.Bool("conversation.degraded", degraded),
	)

	return &TurnResult{
		Reply:          out.Reply,
		Products:       surfaced,
		SessionID:      sessionID,
		MissingFields:  t.missing,
		Profile:        t.state.Profile,
		ConversationID: t.conversationID,
		CustomerID:     t.state.CustomerID,
		NeedsMoreInfo:  out.NeedsMoreInfo,
		Intent:         out.Intent,
		Degraded:       degraded,
	}, nil
}

// Reset forgets the session's working state. Conversation transcripts and
// customer records are kept.
func (o *Orchestrator) Reset(ctx context.Context, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return errors.New("conversation: session id is required")
	}
	if err := o.sessions.Delete(ctx, sessionID); err != nil {
		return err
	}
	o.logger.Info("session reset", "session_id", sessionID)
	return nil
}

// Transcript returns the full message log of the session's conversation.
func (o *Orchestrator) Transcript(ctx context.Context, sessionID string) (*Conversation, []Message, error) {
	conv, err := o.conversations.GetBySession(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	msgs, err := o.conversations.RecentMessages(ctx, conv.ID, 0)
	if err != nil {
		return nil, nil, err
	}
	if msgs == nil {
		msgs = []Message{}
	}
	return conv, msgs, nil
}

func (o *Orchestrator) loadState(ctx context.Context, sessionID string) *session.State {
	st, err := o.sessions.Load(ctx, sessionID)
	if err == nil {
		return st
	}
	if !errors.Is(err, session.ErrSessionNotFound) {
		o.logger.Warn("failed to load session state", "session_id", sessionID, "error", err)
	}
	return &session.State{SessionID: sessionID}
}

func (o *Orchestrator) resolveConversation(ctx context.Context, t *turn) {
	if t.state.ConversationID != "" {
		t.conversationID = t.state.ConversationID
		t.persisted = true
		return
	}
	conv, err := o.conversations.Create(ctx, t.state.SessionID)
	if err != nil {
		o.logger.Warn("failed to create conversation, continuing unpersisted",
			"session_id", t.state.SessionID,
			"error", err,
		)
		t.conversationID = uuid.NewString()
		return
	}
	t.state.ConversationID = conv.ID
	t.conversationID = conv.ID
	t.persisted = true
}

func (o *Orchestrator) appendMessage(ctx context.Context, t *turn, typ MessageType, content string) int64 {
	if !t.persisted {
		return 0
	}
	msg, err := o.conversations.AppendMessage(ctx, t.state.ConversationID, typ, content)
	if err != nil {
		o.logger.Warn("failed to append message",
			"conversation_id", t.state.ConversationID,
			"type", string(typ),
			"error", err,
		)
		return 0
	}
	return msg.ID
}

// history returns the recent messages of this session generation, without
// the message being answered.
func (o *Orchestrator) history(ctx context.Context, t *turn, currentID int64) []Message {
	if !t.persisted {
		return nil
	}
	msgs, err := o.conversations.RecentMessages(ctx, t.state.ConversationID, o.historyLimit+1)
	if err != nil {
		o.logger.Warn("failed to load recent messages", "conversation_id", t.state.ConversationID, "error", err)
		return nil
	}
	out := make([]Message, 0, len(msgs))
	for _, m := range msgs {
		if m.ID == currentID || m.ID < t.state.FirstMessageID {
			continue
		}
		out = append(out, m)
	}
	if len(out) > o.historyLimit {
		out = out[len(out)-o.historyLimit:]
	}
	return out
}

// evaluate runs customer persistence, the completeness gate and product
// matching against the current profile.
func (o *Orchestrator) evaluate(ctx context.Context, t *turn) {
	if t.state.Profile.Has(profile.FieldEmail) {
		o.persistCustomer(ctx, t)
	}
	t.missing = profile.MissingFields(t.state.Profile)
	t.matched = nil
	if profile.ReadyForProducts(t.state.Profile, t.missing) {
		t.matched = o.matchProducts(ctx, t.state.Profile)
	}
}

func (o *Orchestrator) matchProducts(ctx context.Context, p profile.Profile) []products.Product {
	catalog, err := o.catalog.List(ctx, products.Filter{})
	if err != nil {
		o.logger.Warn("failed to list products", "error", err)
		return nil
	}
	matched := o.matcher.Match(p.LookingFor, p, catalog)
	o.metrics.ObserveProductsMatched(len(matched))
	return matched
}

// persistCustomer resolves or creates the durable record for the profile's
// email. An existing record is merged with the session profile so data from
// earlier sessions survives. Failures leave the session profile as it was.
func (o *Orchestrator) persistCustomer(ctx context.Context, t *turn) {
	p := t.state.Profile
	p.ConversationID = t.conversationID
	p.Timestamp = o.now().Format(time.RFC3339)

	cust, err := o.upsertCustomer(ctx, p)
	if err != nil {
		o.logger.Warn("failed to persist customer",
			"session_id", t.state.SessionID,
			"error", err,
		)
		return
	}

	t.state.Profile = cust.Profile
	if t.state.CustomerID != cust.ID {
		t.state.CustomerID = cust.ID
		o.logger.Debug("customer linked to session",
			"session_id", t.state.SessionID,
			"customer_id", cust.ID,
			"email_hash", logging.Fingerprint(cust.Profile.Email),
		)
		if t.persisted {
			if err := o.conversations.AttachCustomer(ctx, t.state.ConversationID, cust.ID); err != nil {
				o.logger.Warn("failed to link customer to conversation",
					"conversation_id", t.state.ConversationID,
					"customer_id", cust.ID,
					"error", err,
				)
			}
		}
	}

	if cust.Status == customers.StatusNew && profile.HasRequired(cust.Profile) {
		o.qualify(ctx, cust)
	}
}

func (o *Orchestrator) upsertCustomer(ctx context.Context, p profile.Profile) (*customers.Customer, error) {
	existing, err := o.customers.GetByEmail(ctx, p.Email)
	if err == nil {
		return o.mergeInto(ctx, existing, p)
	}
	if !customers.IsNotFound(err) {
		return nil, err
	}

	created, err := o.customers.Create(ctx, p)
	o.metrics.ObserveCustomerWrite("create", err)
	if errors.Is(err, customers.ErrDuplicateEmail) {
		existing, err = o.customers.GetByEmail(ctx, p.Email)
		if err != nil {
			return nil, err
		}
		return o.mergeInto(ctx, existing, p)
	}
	return created, err
}

func (o *Orchestrator) mergeInto(ctx context.Context, existing *customers.Customer, p profile.Profile) (*customers.Customer, error) {
	merged := profile.Merge(existing.Profile, p)
	if merged == existing.Profile {
		return existing, nil
	}
	updated, err := o.customers.Update(ctx, existing.ID, merged)
	o.metrics.ObserveCustomerWrite("update", err)
	return updated, err
}

func (o *Orchestrator) qualify(ctx context.Context, cust *customers.Customer) {
	updated, err := o.customers.UpdateStatus(ctx, cust.ID, customers.StatusQualified)
	o.metrics.ObserveCustomerWrite("qualify", err)
	if err != nil {
		o.logger.Warn("failed to qualify customer", "customer_id", cust.ID, "error", err)
		return
	}
	o.logger.Info("customer qualified", "customer_id", updated.ID)
	if o.notifier == nil {
		return
	}
	if err := o.notifier.NotifyQualified(ctx, updated); err != nil {
		o.logger.Warn("lead notification failed", "customer_id", updated.ID, "error", err)
	}
}
