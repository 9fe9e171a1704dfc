package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"avseries/internal/provider"
	"avseries/internal/timeseries"
)

// Redis decorates a Provider with a shared Redis cache. Series are stored
// as JSON. Cache failures are logged and never fail a fetch.
type Redis struct {
	inner     provider.Provider
	rdb       *redis.Client
	ttl       time.Duration
	namespace string
}

// NewRedis wraps inner. If ttl is 0, it defaults to 5 minutes. If namespace
// is empty, it uses "series". A nil rdb disables caching.
func NewRedis(rdb *redis.Client, ttl time.Duration, inner provider.Provider, namespace string) *Redis {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if namespace == "" {
		namespace = "series"
	}
	return &Redis{inner: inner, rdb: rdb, ttl: ttl, namespace: namespace}
}

func (r *Redis) Name() string { return r.inner.Name() }

func (r *Redis) Fetch(ctx context.Context, req provider.Request) (timeseries.TimeSeries, error) {
	if r.rdb == nil {
		return r.inner.Fetch(ctx, req)
	}

	key := r.CacheKey(req)

	if b, err := r.rdb.Get(ctx, key).Bytes(); err == nil && len(b) > 0 {
		var ts timeseries.TimeSeries
		if err := json.Unmarshal(b, &ts); err == nil {
			return ts, nil
		}
		// corrupted entry
		if err := r.rdb.Del(ctx, key).Err(); err != nil {
			slog.Warn("redis cache delete failed", "key", key, "error", err)
		}
	} else if err != nil && !errors.Is(err, redis.Nil) {
		slog.Warn("redis cache get failed", "key", key, "error", err)
	}

	ts, err := r.inner.Fetch(ctx, req)
	if err != nil {
		return timeseries.TimeSeries{}, err
	}

	if b, err := json.Marshal(ts); err == nil {
		if err := r.rdb.Set(ctx, key, b, r.ttl).Err(); err != nil {
			slog.Warn("redis cache set failed", "key", key, "error", err)
		}
	}
	return ts, nil
}

// CacheKey is the Redis key used for req.
func (r *Redis) CacheKey(req provider.Request) string {
	return fmt.Sprintf("%s:%s:%s:%s:%s",
		r.namespace,
		safe(strings.ToUpper(strings.TrimSpace(req.Symbol))),
		safe(string(req.Interval)),
		strconv.FormatBool(req.Adjusted),
		strconv.FormatBool(req.FullHistory),
	)
}

// safe escapes characters that are problematic for Redis keys.
func safe(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, ":", "_")
	return s
}
