package bootstrap

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wolfman30/storefront-ai-assistant/internal/api/router"
	appconfig "github.com/wolfman30/storefront-ai-assistant/internal/config"
	"github.com/wolfman30/storefront-ai-assistant/internal/conversation"
	"github.com/wolfman30/storefront-ai-assistant/internal/customers"
	httpmiddleware "github.com/wolfman30/storefront-ai-assistant/internal/http/middleware"
	"github.com/wolfman30/storefront-ai-assistant/internal/observability/metrics"
	"github.com/wolfman30/storefront-ai-assistant/internal/products"
	"github.com/wolfman30/storefront-ai-assistant/internal/webchat"
	"github.com/wolfman30/storefront-ai-assistant/pkg/logging"
)

// App is the fully wired HTTP service.
type App struct {
	Orchestrator *conversation.Orchestrator
	Handler      http.Handler

	cleanup []func()
}

// Close releases every resource acquired by Build.
func (a *App) Close() {
	for i := len(a.cleanup) - 1; i >= 0; i-- {
		a.cleanup[i]()
	}
	a.cleanup = nil
}

// Build wires stores, responder, orchestrator and router from config.
func Build(ctx context.Context, cfg *appconfig.Config, loadAWS AWSConfigLoader, logger *logging.Logger) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	app := &App{}
	fail := func(err error) (*App, error) {
		app.Close()
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	convMetrics := metrics.NewConversationMetrics(registry)

	stores, err := BuildStores(ctx, cfg, logger)
	if err != nil {
		return fail(err)
	}
	app.cleanup = append(app.cleanup, stores.Close)

	responder, closeResponder, err := BuildResponder(ctx, cfg, loadAWS, convMetrics, logger.Component("responder"))
	if err != nil {
		return fail(err)
	}
	app.cleanup = append(app.cleanup, closeResponder)

	notifier, err := BuildLeadNotifier(ctx, cfg, loadAWS, logger.Component("notify"))
	if err != nil {
		return fail(err)
	}

	orch, err := BuildOrchestrator(cfg, stores, responder, notifier, convMetrics, logger.Component("orchestrator"))
	if err != nil {
		return fail(err)
	}
	app.Orchestrator = orch

	limiter := httpmiddleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	app.cleanup = append(app.cleanup, limiter.Stop)

	chat := webchat.NewHandler(orch, logger.Component("webchat"))
	metrics.RegisterActiveConnections(registry, chat.ActiveConnections)

	app.Handler = router.New(&router.Config{
		Logger:             logger,
		ChatHandler:        chat,
		ProductsHandler:    products.NewHandler(stores.Catalog, logger),
		CustomersHandler:   customers.NewHandler(stores.Customers, logger),
		RateLimiter:        limiter,
		AdminAuthSecret:    cfg.AdminJWTSecret,
		MetricsHandler:     promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})
	return app, nil
}
