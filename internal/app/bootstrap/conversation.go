package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	appconfig "github.com/wolfman30/storefront-ai-assistant/internal/config"
	"github.com/wolfman30/storefront-ai-assistant/internal/conversation"
	"github.com/wolfman30/storefront-ai-assistant/internal/observability/metrics"
	"github.com/wolfman30/storefront-ai-assistant/internal/products"
	"github.com/wolfman30/storefront-ai-assistant/pkg/logging"
)

// BuildModelTargets lists the configured LLM endpoints in failover order:
// the OpenAI-compatible models first, then Gemini, then Bedrock. The
// returned cleanup closes clients that hold connections.
func BuildModelTargets(ctx context.Context, cfg *appconfig.Config, loadAWS AWSConfigLoader, logger *logging.Logger) ([]conversation.ModelTarget, func(), error) {
	if cfg == nil {
		return nil, func() {}, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	var targets []conversation.ModelTarget
	var closers []func()
	cleanup := func() {
		for _, c := range closers {
			c()
		}
	}

	if cfg.HasOpenAI() {
		client := conversation.NewOpenAIClient(cfg.GitHubToken, cfg.OpenAIBaseURL)
		for _, model := range cfg.LLMModels {
			model = strings.TrimSpace(model)
			if model == "" {
				continue
			}
			targets = append(targets, conversation.ModelTarget{Name: "openai:" + model, Model: model, Client: client})
		}
	}

	if key := strings.TrimSpace(cfg.GeminiAPIKey); key != "" {
		gemini, err := conversation.NewGeminiClient(ctx, key, cfg.GeminiModel)
		if err != nil {
			cleanup()
			return nil, func() {}, fmt.Errorf("bootstrap: gemini client: %w", err)
		}
		closers = append(closers, func() { _ = gemini.Close() })
		targets = append(targets, conversation.ModelTarget{Name: "gemini:" + cfg.GeminiModel, Model: cfg.GeminiModel, Client: gemini})
	}

	if model := strings.TrimSpace(cfg.BedrockModelID); model != "" {
		if loadAWS == nil {
			cleanup()
			return nil, func() {}, fmt.Errorf("bootstrap: aws config loader required for bedrock")
		}
		awsCfg, err := loadAWS(ctx)
		if err != nil {
			cleanup()
			return nil, func() {}, fmt.Errorf("bootstrap: load aws config: %w", err)
		}
		client := conversation.NewBedrockClient(bedrockruntime.NewFromConfig(awsCfg))
		targets = append(targets, conversation.ModelTarget{Name: "bedrock:" + model, Model: model, Client: client})
	}

	for _, t := range targets {
		logger.Info("llm target configured", "target", t.Name)
	}
	return targets, cleanup, nil
}

// BuildResponder wires the LLM responder behind a failover selector, or the
// rule-based responder when no model is configured.
func BuildResponder(ctx context.Context, cfg *appconfig.Config, loadAWS AWSConfigLoader, m *metrics.ConversationMetrics, logger *logging.Logger) (conversation.Responder, func(), error) {
	if logger == nil {
		logger = logging.Default()
	}
	targets, cleanup, err := BuildModelTargets(ctx, cfg, loadAWS, logger)
	if err != nil {
		return nil, cleanup, err
	}
	if len(targets) == 0 {
		logger.Warn("no LLM configured; using rule-based responder")
		return conversation.NewRuleResponder(), cleanup, nil
	}

	selector, err := conversation.NewModelSelector(targets, logger,
		conversation.WithCallTimeout(cfg.LLMTimeout),
		conversation.WithSelectorMetrics(m),
	)
	if err != nil {
		cleanup()
		return nil, func() {}, fmt.Errorf("bootstrap: model selector: %w", err)
	}
	responder := conversation.NewLLMResponder(selector, logger,
		conversation.WithMaxTokens(cfg.LLMMaxTokens),
		conversation.WithTemperature(cfg.LLMTemperature),
	)
	return responder, cleanup, nil
}

// BuildOrchestrator assembles the turn orchestrator from its collaborators.
func BuildOrchestrator(cfg *appconfig.Config, stores *Stores, responder conversation.Responder, notifier conversation.LeadNotifier, m *metrics.ConversationMetrics, logger *logging.Logger) (*conversation.Orchestrator, error) {
	if cfg == nil || stores == nil || responder == nil {
		return nil, fmt.Errorf("bootstrap: config, stores and responder are required")
	}
	matcher, err := products.NewMatcher(cfg.ProductMatchStrategy, cfg.ProductMatchLimit)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: product matcher: %w", err)
	}

	opts := []conversation.OrchestratorOption{
		conversation.WithHistoryLimit(cfg.HistoryLimit),
		conversation.WithSurfaceLimit(cfg.ProductSurfaceLimit),
		conversation.WithMetrics(m),
	}
	if notifier != nil {
		opts = append(opts, conversation.WithLeadNotifier(notifier))
	}

	return conversation.NewOrchestrator(conversation.Dependencies{
		Sessions:      stores.Sessions,
		Conversations: stores.Conversations,
		Customers:     stores.Customers,
		Catalog:       stores.Catalog,
		Matcher:       matcher,
		Responder:     responder,
	}, logger, opts...), nil
}
