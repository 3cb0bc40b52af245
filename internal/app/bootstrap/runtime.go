package bootstrap

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/barberq/internal/barberq"
	"github.com/wolfman30/barberq/internal/booking"
	appconfig "github.com/wolfman30/barberq/internal/config"
	"github.com/wolfman30/barberq/internal/observability/metrics"
	"github.com/wolfman30/barberq/pkg/logging"
)

// sweepInterval is how often the in-memory session store drops expired sessions.
const sweepInterval = time.Minute

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "addr", cfg.RedisAddr, "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

// BuildSessionStore picks the wizard session store. Redis is used when configured
// and reachable; otherwise sessions live in memory and a sweeper runs until ctx ends.
// The returned cleanup releases the store's resources.
func BuildSessionStore(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (booking.Store, func(), error) {
	if cfg == nil {
		return nil, nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	if cfg.UsesRedisSessions() {
		if strings.TrimSpace(cfg.RedisAddr) == "" {
			if cfg.Env == "production" {
				return nil, nil, fmt.Errorf("bootstrap: SESSION_STORE=redis requires REDIS_ADDR")
			}
			logger.Warn("SESSION_STORE=redis but REDIS_ADDR is empty, falling back to in-memory wizard sessions")
		} else if client := BuildRedisClient(ctx, cfg, logger, true); client != nil {
			logger.Info("wizard sessions stored in redis", "addr", cfg.RedisAddr, "ttl", cfg.SessionTTL)
			return booking.NewRedisStore(client), func() { _ = client.Close() }, nil
		} else if cfg.Env == "production" {
			return nil, nil, fmt.Errorf("bootstrap: redis session store unavailable at %s", cfg.RedisAddr)
		} else {
			logger.Warn("falling back to in-memory wizard sessions")
		}
	} else if cfg.SessionStore != "" && cfg.SessionStore != "memory" && cfg.SessionStore != "redis" {
		return nil, nil, fmt.Errorf("bootstrap: unknown session store %q", cfg.SessionStore)
	}

	store := booking.NewMemoryStore()
	sweepCtx, cancel := context.WithCancel(ctx)
	go store.RunSweeper(sweepCtx, sweepInterval)
	logger.Info("wizard sessions stored in memory", "ttl", cfg.SessionTTL)
	return store, cancel, nil
}

// BuildAPIClient returns the BarberQ API client.
func BuildAPIClient(cfg *appconfig.Config, logger *logging.Logger) *barberq.Client {
	return barberq.NewClient(cfg.APIBaseURL, logger, barberq.WithTimeout(cfg.UpstreamTimeout))
}

// BuildSessionManager wires the wizard session manager.
func BuildSessionManager(cfg *appconfig.Config, api booking.API, store booking.Store, m *metrics.BookingMetrics, logger *logging.Logger) *booking.Manager {
	return booking.NewManager(api, store, booking.Options{
		Logger:         logger,
		Metrics:        m,
		SessionTTL:     cfg.SessionTTL,
		FetchTimeout:   cfg.SlotsTimeout,
		BookingTimeout: cfg.BookingTimeout,
		Location:       cfg.Location(),
	})
}
