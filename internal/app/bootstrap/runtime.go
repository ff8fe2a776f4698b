package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"

	appconfig "github.com/wolfman30/storefront-ai-assistant/internal/config"
	"github.com/wolfman30/storefront-ai-assistant/internal/conversation"
	"github.com/wolfman30/storefront-ai-assistant/internal/customers"
	"github.com/wolfman30/storefront-ai-assistant/internal/products"
	"github.com/wolfman30/storefront-ai-assistant/internal/session"
	"github.com/wolfman30/storefront-ai-assistant/pkg/logging"
)

// Stores groups the persistence collaborators of the orchestrator.
type Stores struct {
	Sessions      session.Store
	Conversations conversation.Store
	Customers     customers.Repository
	Catalog       products.Repository

	closers []func()
}

// Close releases database and Redis connections.
func (s *Stores) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available; falling back to in-memory sessions", "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

// BuildStores picks Postgres and Redis backends when configured and
// in-memory ones otherwise.
func BuildStores(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (*Stores, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	stores := &Stores{}
	if client := BuildRedisClient(ctx, cfg, logger, true); client != nil {
		stores.Sessions = session.NewRedisStore(client, cfg.SessionTTL, nil)
		stores.closers = append(stores.closers, func() { _ = client.Close() })
		logger.Info("session store: redis", "addr", cfg.RedisAddr, "ttl", cfg.SessionTTL.String())
	} else {
		stores.Sessions = session.NewMemoryStore()
		logger.Info("session store: in-memory")
	}

	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		stores.Conversations = conversation.NewMemoryStore()
		stores.Customers = customers.NewInMemoryRepository()
		stores.Catalog = products.NewInMemoryRepository(nil)
		logger.Warn("DATABASE_URL not set; using in-memory repositories")
		return stores, nil
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		stores.Close()
		return nil, fmt.Errorf("bootstrap: connect postgres: %w", err)
	}
	stores.closers = append(stores.closers, pool.Close)
	if err := pool.Ping(ctx); err != nil {
		stores.Close()
		return nil, fmt.Errorf("bootstrap: ping postgres: %w", err)
	}

	sqlDB, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		stores.Close()
		return nil, fmt.Errorf("bootstrap: open sql db: %w", err)
	}
	stores.closers = append(stores.closers, func() { _ = sqlDB.Close() })

	stores.Conversations = conversation.NewSQLStore(sqlDB)
	stores.Customers = customers.NewPostgresRepository(pool)
	stores.Catalog = products.NewPostgresRepository(pool)
	logger.Info("repositories: postgres")
	return stores, nil
}
