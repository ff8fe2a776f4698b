package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/wolfman30/storefront-ai-assistant/internal/observability/metrics"
	"github.com/wolfman30/storefront-ai-assistant/pkg/logging"
)

// ErrAllModelsFailed is returned when the current model and its failover
// both fail.
var ErrAllModelsFailed = errors.New("conversation: all models failed")

// ModelTarget is one entry of the failover list.
type ModelTarget struct {
	Name   string
	Model  string
	Client LLMClient
}

// ModelSelector is an LLMClient over a round-robin list of model targets.
// A failed call moves the cursor to the next target and retries exactly once;
// the cursor stays there for later calls.
type ModelSelector struct {
	targets []ModelTarget
	timeout time.Duration
	logger  *logging.Logger
	metrics *metrics.ConversationMetrics

	mu      sync.Mutex
	current int
}

// ModelSelectorOption configures a ModelSelector.
type ModelSelectorOption func(*ModelSelector)

// WithCallTimeout bounds each individual model call.
func WithCallTimeout(d time.Duration) ModelSelectorOption {
	return func(s *ModelSelector) {
		if d > 0 {
			s.timeout = d
		}
	}
}

func WithSelectorMetrics(m *metrics.ConversationMetrics) ModelSelectorOption {
	return func(s *ModelSelector) {
		s.metrics = m
	}
}

func NewModelSelector(targets []ModelTarget, logger *logging.Logger, opts ...ModelSelectorOption) (*ModelSelector, error) {
	if len(targets) == 0 {
		return nil, errors.New("conversation: at least one model target is required")
	}
	for i, t := range targets {
		if t.Client == nil {
			return nil, fmt.Errorf("conversation: model target %d has no client", i)
		}
	}
	if logger == nil {
		logger = logging.Default()
	}
	s := &ModelSelector{
		targets: append([]ModelTarget(nil), targets...),
		logger:  logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Current returns the target the next call will use first.
func (s *ModelSelector) Current() ModelTarget {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.targets[s.current]
}

func (s *ModelSelector) advance(from int) ModelTarget {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == from {
		s.current = (s.current + 1) % len(s.targets)
	}
	return s.targets[s.current]
}

func (s *ModelSelector) cursor() (int, ModelTarget) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current, s.targets[s.current]
}

// Complete calls the current target, failing over once on error. The
// request's Model is overridden by each target's model.
func (s *ModelSelector) Complete(ctx context.Context, req LLMRequest) (LLMResponse, error) {
	idx, target := s.cursor()
	resp, err := s.call(ctx, target, req)
	if err == nil {
		return resp, nil
	}

	s.logger.Warn("model call failed",
		"model", target.label(),
		"error", err.Error(),
		"failover_available", len(s.targets) > 1,
	)
	if len(s.targets) == 1 {
		return LLMResponse{}, fmt.Errorf("%w: %v", ErrAllModelsFailed, err)
	}

	next := s.advance(idx)
	s.metrics.ObserveFailover()
	resp, nextErr := s.call(ctx, next, req)
	if nextErr != nil {
		s.logger.Error("failover model also failed",
			"model", next.label(),
			"primary_error", err.Error(),
			"fallback_error", nextErr.Error(),
		)
		return LLMResponse{}, fmt.Errorf("%w: %v; %v", ErrAllModelsFailed, err, nextErr)
	}
	s.logger.Info("failover model succeeded", "model", next.label())
	return resp, nil
}

func (s *ModelSelector) call(ctx context.Context, target ModelTarget, req LLMRequest) (LLMResponse, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	req.Model = target.Model
	resp, err := target.Client.Complete(ctx, req)
	s.metrics.ObserveModelCall(target.label(), err)
	if err == nil && strings.TrimSpace(resp.Text) == "" {
		err = errors.New("conversation: empty completion")
	}
	if err != nil {
		return LLMResponse{}, err
	}
	if resp.Model == "" {
		resp.Model = target.Model
	}
	s.metrics.ObserveTokens(target.label(), resp.InputTokens, resp.OutputTokens)
	return resp, nil
}

func (t ModelTarget) label() string {
	if t.Name != "" {
		return t.Name
	}
	return t.Model
}
