package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wolfman30/storefront-ai-assistant/internal/customers"
	httpmiddleware "github.com/wolfman30/storefront-ai-assistant/internal/http/middleware"
	"github.com/wolfman30/storefront-ai-assistant/internal/products"
	"github.com/wolfman30/storefront-ai-assistant/internal/webchat"
	"github.com/wolfman30/storefront-ai-assistant/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	ChatHandler        *webchat.Handler
	ProductsHandler    *products.Handler
	CustomersHandler   *customers.Handler
	RateLimiter        *httpmiddleware.RateLimiter
	AdminAuthSecret    string
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	r.Use(httpmiddleware.RequestLogger(cfg.Logger))

	r.Get("/health", health)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Route("/api", func(api chi.Router) {
		if cfg.ChatHandler != nil {
			api.Group(func(chat chi.Router) {
				if cfg.RateLimiter != nil {
					chat.Use(httpmiddleware.RateLimit(cfg.RateLimiter))
				}
				chat.With(requireJSON).Post("/chat", cfg.ChatHandler.HandleChat)
				chat.With(requireJSON).Post("/reset", cfg.ChatHandler.HandleReset)
				chat.Get("/chat/history", cfg.ChatHandler.HandleHistory)
				chat.Get("/chat/ws", cfg.ChatHandler.HandleWebSocket)
			})
		}
		if cfg.ProductsHandler != nil {
			api.Route("/products", func(r chi.Router) {
				r.Use(middleware.Compress(5))
				r.Get("/", cfg.ProductsHandler.List)
				r.Get("/{productID}", cfg.ProductsHandler.Get)
			})
		}
	})

	if cfg.CustomersHandler != nil && cfg.AdminAuthSecret != "" {
		r.Route("/admin", func(admin chi.Router) {
			admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
			admin.Route("/customers", func(r chi.Router) {
				r.Get("/", cfg.CustomersHandler.ListCustomers)
				r.Get("/{customerID}", cfg.CustomersHandler.GetCustomer)
				r.With(requireJSON).Patch("/{customerID}/status", cfg.CustomersHandler.UpdateStatus)
			})
		})
	}

	return r
}

func health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
