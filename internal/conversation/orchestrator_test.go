package conversation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/storefront-ai-assistant/internal/customers"
	"github.com/wolfman30/storefront-ai-assistant/internal/products"
	"github.com/wolfman30/storefront-ai-assistant/internal/profile"
	"github.com/wolfman30/storefront-ai-assistant/internal/session"
	"github.com/wolfman30/storefront-ai-assistant/pkg/logging"
)

type scriptedResponder struct {
	outputs []ResponderOutput
	errs    []error
	calls   []ResponderInput
}

func (r *scriptedResponder) Respond(ctx context.Context, in ResponderInput) (ResponderOutput, error) {
	i := len(r.calls)
	r.calls = append(r.calls, in)
	if i < len(r.errs) && r.errs[i] != nil {
		return ResponderOutput{}, r.errs[i]
	}
	if i < len(r.outputs) {
		return r.outputs[i], nil
	}
	return ResponderOutput{Reply: "ok"}, nil
}

type recordingNotifier struct {
	qualified []*customers.Customer
}

func (n *recordingNotifier) NotifyQualified(ctx context.Context, c *customers.Customer) error {
	n.qualified = append(n.qualified, c)
	return nil
}

type failingCreateStore struct {
	*MemoryStore
}

func (s failingCreateStore) Create(ctx context.Context, sessionID string) (*Conversation, error) {
	return nil, errors.New("db down")
}

// customerLookupDown fails every email lookup.
type customerLookupDown struct {
	*customers.InMemoryRepository
	creates int
}

func (r *customerLookupDown) GetByEmail(ctx context.Context, email string) (*customers.Customer, error) {
	return nil, errors.New("connection refused")
}

func (r *customerLookupDown) Create(ctx context.Context, p profile.Profile) (*customers.Customer, error) {
	r.creates++
	return r.InMemoryRepository.Create(ctx, p)
}

type customerUpdateDown struct {
	*customers.InMemoryRepository
}

func (r customerUpdateDown) Update(ctx context.Context, id string, p profile.Profile) (*customers.Customer, error) {
	return nil, errors.New("connection refused")
}

// racingCustomers misses the first email lookups, as when another request
// inserts the same email between lookup and create.
type racingCustomers struct {
	*customers.InMemoryRepository
	misses int
}

func (r *racingCustomers) GetByEmail(ctx context.Context, email string) (*customers.Customer, error) {
	if r.misses > 0 {
		r.misses--
		return nil, customers.ErrCustomerNotFound
	}
	return r.InMemoryRepository.GetByEmail(ctx, email)
}

type harness struct {
	orch      *Orchestrator
	sessions  *session.MemoryStore
	convs     Store
	customers customers.Repository
	notifier  *recordingNotifier
}

func newHarness(t *testing.T, responder Responder, convs Store) *harness {
	t.Helper()
	return newHarnessWithCustomers(t, responder, convs, nil)
}

func newHarnessWithCustomers(t *testing.T, responder Responder, convs Store, repo customers.Repository) *harness {
	t.Helper()
	if convs == nil {
		convs = NewMemoryStore()
	}
	if repo == nil {
		repo = customers.NewInMemoryRepository()
	}
	matcher, err := products.NewMatcher(products.StrategyScore, 5)
	require.NoError(t, err)

	h := &harness{
		sessions:  session.NewMemoryStore(),
		convs:     convs,
		customers: repo,
		notifier:  &recordingNotifier{},
	}
	h.orch = NewOrchestrator(Dependencies{
		Sessions:      h.sessions,
		Conversations: convs,
		Customers:     h.customers,
		Catalog:       products.NewInMemoryRepository(nil),
		Matcher:       matcher,
		Responder:     responder,
	}, logging.New("error"), WithLeadNotifier(h.notifier))
	return h
}

func productNames(items []products.Product) []string {
	out := make([]string, len(items))
	for i, p := range items {
		out[i] = p.Name
	}
	return out
}

func TestOrchestrator_SaraScenario(t *testing.T) {
	h := newHarness(t, NewRuleResponder(), nil)
	ctx := context.Background()

	first, err := h.orch.HandleTurn(ctx, TurnRequest{SessionID: "s-sara", Message: "Hi I'm Sara"})
	require.NoError(t, err)
	assert.Equal(t, "s-sara", first.SessionID)
	assert.Equal(t, "Sara", first.Profile.Name)
	assert.Equal(t, []string{"email", "phone", "looking_for"}, first.MissingFields)
	assert.Empty(t, first.Products)
	assert.NotEmpty(t, first.ConversationID)
	assert.Empty(t, first.CustomerID)
	assert.True(t, first.NeedsMoreInfo)
	assert.Contains(t, first.Reply, "Sara")

	second, err := h.orch.HandleTurn(ctx, TurnRequest{SessionID: "s-sara", Message: "sara@mail.com, need a gaming laptop, budget $1500"})
	require.NoError(t, err)
	assert.Equal(t, first.ConversationID, second.ConversationID)
	assert.Equal(t, "Sara", second.Profile.Name)
	assert.Equal(t, "sara@mail.com", second.Profile.Email)
	assert.Equal(t, "gaming laptop", second.Profile.LookingFor)
	assert.Equal(t, "$1500", second.Profile.Budget)
	assert.Equal(t, []string{"phone"}, second.MissingFields)
	assert.Equal(t, []string{"Dell XPS 13 Plus", "HP Spectre x360 14", "Microsoft Surface Laptop 5"}, productNames(second.Products))
	require.NotEmpty(t, second.CustomerID)

	stored, err := h.customers.GetByEmail(ctx, "sara@mail.com")
	require.NoError(t, err)
	assert.Equal(t, second.CustomerID, stored.ID)
	assert.Equal(t, customers.StatusNew, stored.Status)
	assert.Equal(t, "Sara", stored.Profile.Name)
	assert.Empty(t, h.notifier.qualified)

	conv, msgs, err := h.orch.Transcript(ctx, "s-sara")
	require.NoError(t, err)
	assert.Equal(t, second.CustomerID, conv.CustomerID)
	require.Len(t, msgs, 4)
	assert.Equal(t, MessageTypeUser, msgs[0].Type)
	assert.Equal(t, "Hi I'm Sara", msgs[0].Content)
	assert.Equal(t, MessageTypeBot, msgs[3].Type)
	assert.Equal(t, second.Reply, msgs[3].Content)
}

func TestOrchestrator_ResponderFieldsAreMergedAndRegated(t *testing.T) {
	responder := &scriptedResponder{outputs: []ResponderOutput{{
		Reply:           "Thanks Sara, I have your number.",
		ExtractedFields: profile.Profile{Phone: "555-123-4567", Name: "   "},
	}}}
	h := newHarness(t, responder, nil)
	ctx := context.Background()

	res, err := h.orch.HandleTurn(ctx, TurnRequest{SessionID: "s-1", Message: "I'm Sara, sara@mail.com, looking for a laptop"})
	require.NoError(t, err)

	require.Len(t, responder.calls, 1)
	in := responder.calls[0]
	assert.Equal(t, []string{"phone"}, in.MissingFields)
	assert.Len(t, in.Products, 5)
	assert.Empty(t, in.History)

	assert.Equal(t, "Sara", res.Profile.Name)
	assert.Equal(t, "555-123-4567", res.Profile.Phone)
	assert.Equal(t, []string{profile.MissingPreferences}, res.MissingFields)
	assert.Len(t, res.Products, 3)

	stored, err := h.customers.GetByEmail(ctx, "sara@mail.com")
	require.NoError(t, err)
	assert.Equal(t, customers.StatusQualified, stored.Status)
	assert.Equal(t, "555-123-4567", stored.Profile.Phone)
	require.Len(t, h.notifier.qualified, 1)
	assert.Equal(t, stored.ID, h.notifier.qualified[0].ID)
}

func TestOrchestrator_ExcludedBrandIsNeverSurfaced(t *testing.T) {
	h := newHarness(t, NewRuleResponder(), nil)

	res, err := h.orch.HandleTurn(context.Background(), TurnRequest{
		SessionID: "s-tom",
		Message:   "I'm Tom, tom@x.com, 555-123-4567, looking for a laptop, I don't want Apple",
	})
	require.NoError(t, err)

	assert.Equal(t, "Apple", res.Profile.ExcludeBrand)
	assert.Empty(t, res.Profile.BrandPreference)
	assert.Equal(t, []string{profile.MissingPreferences}, res.MissingFields)
	require.Len(t, res.Products, 3)
	for _, p := range res.Products {
		assert.NotEqual(t, "Apple", p.Brand)
	}
	require.Len(t, h.notifier.qualified, 1)
}

func TestOrchestrator_MergesIntoExistingCustomer(t *testing.T) {
	h := newHarness(t, NewRuleResponder(), nil)
	ctx := context.Background()

	_, err := h.customers.Create(ctx, profile.Profile{Email: "Sara@Mail.com", Phone: "555-000-1111", Budget: "$900"})
	require.NoError(t, err)

	res, err := h.orch.HandleTurn(ctx, TurnRequest{SessionID: "s-2", Message: "Hi I'm Sara, sara@mail.com"})
	require.NoError(t, err)

	assert.Equal(t, "555-000-1111", res.Profile.Phone)
	assert.Equal(t, "$900", res.Profile.Budget)
	assert.Equal(t, []string{"looking_for"}, res.MissingFields)

	stored, err := h.customers.GetByEmail(ctx, "sara@mail.com")
	require.NoError(t, err)
	assert.Equal(t, res.CustomerID, stored.ID)
	assert.Equal(t, "Sara", stored.Profile.Name)
	assert.Equal(t, "$900", stored.Profile.Budget)
	assert.Equal(t, res.ConversationID, stored.Profile.ConversationID)
}

func TestOrchestrator_DegradedReplyWhenResponderFails(t *testing.T) {
	responder := &scriptedResponder{errs: []error{ErrAllModelsFailed}}
	h := newHarness(t, responder, nil)
	ctx := context.Background()

	res, err := h.orch.HandleTurn(ctx, TurnRequest{SessionID: "s-3", Message: "Hi I'm Sara"})
	require.NoError(t, err)
	assert.True(t, res.Degraded)
	assert.Equal(t, DegradedReply, res.Reply)
	assert.Equal(t, "Sara", res.Profile.Name)

	_, msgs, err := h.orch.Transcript(ctx, "s-3")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, DegradedReply, msgs[1].Content)
}

func TestOrchestrator_HistoryAndReset(t *testing.T) {
	responder := &scriptedResponder{outputs: []ResponderOutput{{Reply: "hello"}, {Reply: "sure"}, {Reply: "welcome back"}}}
	h := newHarness(t, responder, nil)
	ctx := context.Background()

	first, err := h.orch.HandleTurn(ctx, TurnRequest{SessionID: "s-4", Message: "Hi I'm Sara"})
	require.NoError(t, err)
	_, err = h.orch.HandleTurn(ctx, TurnRequest{SessionID: "s-4", Message: "what else?"})
	require.NoError(t, err)

	history := responder.calls[1].History
	require.Len(t, history, 2)
	assert.Equal(t, "Hi I'm Sara", history[0].Content)
	assert.Equal(t, "hello", history[1].Content)
	assert.Equal(t, "Sara", responder.calls[1].Profile.Name)

	require.NoError(t, h.orch.Reset(ctx, "s-4"))
	_, err = h.sessions.Load(ctx, "s-4")
	assert.ErrorIs(t, err, session.ErrSessionNotFound)

	third, err := h.orch.HandleTurn(ctx, TurnRequest{SessionID: "s-4", Message: "hello there"})
	require.NoError(t, err)
	assert.Empty(t, third.Profile.Name)
	assert.Equal(t, first.ConversationID, third.ConversationID)
	assert.Empty(t, responder.calls[2].History)

	_, msgs, err := h.orch.Transcript(ctx, "s-4")
	require.NoError(t, err)
	assert.Len(t, msgs, 6)
}

func TestOrchestrator_ContinuesWhenConversationCannotBeCreated(t *testing.T) {
	h := newHarness(t, NewRuleResponder(), failingCreateStore{NewMemoryStore()})

	res, err := h.orch.HandleTurn(context.Background(), TurnRequest{SessionID: "s-5", Message: "Hi I'm Sara"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.ConversationID)
	assert.Equal(t, "Sara", res.Profile.Name)
	assert.False(t, res.Degraded)
}

func TestOrchestrator_ContinuesWhenCustomerLookupFails(t *testing.T) {
	repo := &customerLookupDown{InMemoryRepository: customers.NewInMemoryRepository()}
	h := newHarnessWithCustomers(t, &scriptedResponder{}, nil, repo)

	res, err := h.orch.HandleTurn(context.Background(), TurnRequest{SessionID: "s-lookup", Message: "I'm Sara, sara@mail.com, looking for a laptop"})
	require.NoError(t, err)
	assert.False(t, res.Degraded)
	assert.Empty(t, res.CustomerID)
	assert.Equal(t, "Sara", res.Profile.Name)
	assert.Equal(t, "sara@mail.com", res.Profile.Email)
	assert.Equal(t, "laptop", res.Profile.LookingFor)
	assert.Equal(t, []string{"phone"}, res.MissingFields)
	assert.NotEmpty(t, res.Products)
	assert.Zero(t, repo.creates, "a failed lookup must not fall through to create")
	assert.Empty(t, h.notifier.qualified)
}

func TestOrchestrator_KeepsSessionProfileWhenCustomerUpdateFails(t *testing.T) {
	mem := customers.NewInMemoryRepository()
	ctx := context.Background()
	_, err := mem.Create(ctx, profile.Profile{Email: "sara@mail.com", Phone: "555-000-1111"})
	require.NoError(t, err)
	h := newHarnessWithCustomers(t, &scriptedResponder{}, nil, customerUpdateDown{mem})

	res, err := h.orch.HandleTurn(ctx, TurnRequest{SessionID: "s-update", Message: "Hi I'm Sara, sara@mail.com"})
	require.NoError(t, err)
	assert.False(t, res.Degraded)
	assert.Empty(t, res.CustomerID)
	assert.Equal(t, "Sara", res.Profile.Name)
	assert.Empty(t, res.Profile.Phone, "stored data is only adopted after a successful write")
	assert.Equal(t, []string{"phone", "looking_for"}, res.MissingFields)

	stored, err := mem.GetByEmail(ctx, "sara@mail.com")
	require.NoError(t, err)
	assert.Empty(t, stored.Profile.Name)

	st, err := h.sessions.Load(ctx, "s-update")
	require.NoError(t, err)
	assert.Equal(t, "Sara", st.Profile.Name)
	assert.Empty(t, st.CustomerID)
}

func TestOrchestrator_DuplicateEmailOnCreateMergesIntoStoredRecord(t *testing.T) {
	mem := customers.NewInMemoryRepository()
	ctx := context.Background()
	existing, err := mem.Create(ctx, profile.Profile{Email: "sara@mail.com", Budget: "$900"})
	require.NoError(t, err)
	h := newHarnessWithCustomers(t, &scriptedResponder{}, nil, &racingCustomers{InMemoryRepository: mem, misses: 1})

	res, err := h.orch.HandleTurn(ctx, TurnRequest{SessionID: "s-race", Message: "Hi I'm Sara, sara@mail.com"})
	require.NoError(t, err)
	assert.Equal(t, existing.ID, res.CustomerID)
	assert.Equal(t, "Sara", res.Profile.Name)
	assert.Equal(t, "$900", res.Profile.Budget)

	stored, err := mem.GetByEmail(ctx, "sara@mail.com")
	require.NoError(t, err)
	assert.Equal(t, existing.ID, stored.ID)
	assert.Equal(t, "Sara", stored.Profile.Name)
	assert.Equal(t, "$900", stored.Profile.Budget)

	all, err := mem.List(ctx, customers.ListFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestOrchestrator_GeneratesSessionID(t *testing.T) {
	h := newHarness(t, NewRuleResponder(), nil)

	res, err := h.orch.HandleTurn(context.Background(), TurnRequest{Message: "hello"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.SessionID)

	st, err := h.sessions.Load(context.Background(), res.SessionID)
	require.NoError(t, err)
	assert.Equal(t, res.ConversationID, st.ConversationID)
}

func TestOrchestrator_RejectsEmptyMessage(t *testing.T) {
	h := newHarness(t, NewRuleResponder(), nil)

	_, err := h.orch.HandleTurn(context.Background(), TurnRequest{SessionID: "s", Message: "   "})
	assert.ErrorIs(t, err, ErrEmptyMessage)
	assert.Error(t, h.orch.Reset(context.Background(), ""))
}

func TestNewOrchestratorPanicsOnMissingDependency(t *testing.T) {
	assert.Panics(t, func() {
		NewOrchestrator(Dependencies{}, nil)
	})
}
