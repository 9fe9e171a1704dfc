// Package app assembles the provider chain, store and Redis client from
// config for the commands.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"avseries/internal/alphavantage"
	"avseries/internal/config"
	"avseries/internal/httpx"
	"avseries/internal/provider"
	"avseries/internal/provider/alphavantageadapter"
	"avseries/internal/provider/cache"
	"avseries/internal/provider/ratelimit"
	"avseries/internal/store"
)

// NewProvider builds the Alpha Vantage provider wrapped, innermost first,
// in a rate limiter, the Redis cache (when rdb is set) and the in-memory
// cache. Cache hits never spend quota.
func NewProvider(cfg config.Config, rdb *redis.Client) provider.Provider {
	av := cfg.AlphaVantage
	if av.APIKey == "" {
		slog.Warn("ALPHAVANTAGE_API_KEY not set; upstream calls will be rejected")
	}

	httpClient := httpx.New(time.Duration(cfg.Server.RequestTimeoutSec) * time.Second)

	client := alphavantage.NewWithURL(av.APIKey, av.BaseURL,
		alphavantage.WithHTTPClient(httpClient),
		alphavantage.WithHeader(http.Header{"Accept": []string{"application/json"}}),
	)
	var p provider.Provider = alphavantageadapter.New(alphavantageadapter.Config{}, client)

	// Prefer token bucket with burst if RPM is set, otherwise use min-interval
	if av.MaxRequestsPerMinute > 0 {
		p = &ratelimit.TokenBucketProvider{P: p, TB: ratelimit.PerMinute(av.MaxRequestsPerMinute, av.Burst)}
	} else if av.MinRequestIntervalSec > 0 {
		p = &ratelimit.MinInterval{P: p, Interval: time.Duration(av.MinRequestIntervalSec) * time.Second}
	}
	if rdb != nil {
		p = cache.NewRedis(rdb, time.Duration(cfg.Redis.TTLSeconds)*time.Second, p, "avseries")
	}
	if av.CacheTTLSeconds > 0 {
		p = &cache.Provider{P: p, TTL: time.Duration(av.CacheTTLSeconds) * time.Second, MaxItems: av.CacheMaxItems}
	}
	return p
}

// NewRedis returns a client for cfg.Redis, or nil when Redis is not
// configured or unreachable.
func NewRedis(ctx context.Context, cfg config.Redis) *redis.Client {
	if cfg.Addr == "" {
		return nil
	}
	rdb := redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB})
	if err := rdb.Ping(ctx).Err(); err != nil {
		slog.Warn("redis unavailable; continuing without shared cache", "addr", cfg.Addr, "error", err)
		_ = rdb.Close()
		return nil
	}
	return rdb
}

// OpenStore opens and migrates the configured store. It returns nil, nil
// when no driver is configured.
func OpenStore(ctx context.Context, cfg config.Store) (*store.Store, error) {
	if cfg.Driver == "" {
		return nil, nil
	}
	s, err := store.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}
