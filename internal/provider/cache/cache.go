package cache

import (
	"context"
	"sync"
	"time"

	"avseries/internal/provider"
	"avseries/internal/timeseries"
)

// entry stores one cached series with expiry.
type entry struct {
	expiresAt time.Time
	series    timeseries.TimeSeries
}

// Provider caches results per Request.Key for a TTL.
// Callers get their own copy of the data, so sorting or trimming a
// returned series never touches the cache.
type Provider struct {
	P        provider.Provider
	TTL      time.Duration
	MaxItems int

	mu    sync.RWMutex
	items map[string]entry
}

func (c *Provider) Name() string { return c.P.Name() }

// Fetch returns the cached series for req when still valid, otherwise
// asks the wrapped provider and stores the result. Errors are not cached.
func (c *Provider) Fetch(ctx context.Context, req provider.Request) (timeseries.TimeSeries, error) {
	if c.TTL <= 0 {
		return c.P.Fetch(ctx, req)
	}

	key := req.Key()
	now := time.Now()

	c.mu.RLock()
	e, ok := c.items[key]
	c.mu.RUnlock()
	if ok && now.Before(e.expiresAt) {
		return clone(e.series), nil
	}

	ts, err := c.P.Fetch(ctx, req)
	if err != nil {
		return timeseries.TimeSeries{}, err
	}

	c.mu.Lock()
	if c.items == nil {
		c.items = make(map[string]entry)
	}
	c.items[key] = entry{expiresAt: now.Add(c.TTL), series: clone(ts)}
	c.evictLocked(now)
	c.mu.Unlock()

	return ts, nil
}

// evictLocked caps the cache at MaxItems: expired entries go first, then
// arbitrary ones.
func (c *Provider) evictLocked(now time.Time) {
	if c.MaxItems <= 0 || len(c.items) <= c.MaxItems {
		return
	}
	for k, v := range c.items {
		if now.After(v.expiresAt) {
			delete(c.items, k)
		}
	}
	for k := range c.items {
		if len(c.items) <= c.MaxItems {
			break
		}
		delete(c.items, k)
	}
}

// Len reports the number of cached entries, expired ones included.
func (c *Provider) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

func clone(ts timeseries.TimeSeries) timeseries.TimeSeries {
	data := make([]timeseries.AssetTradeInfo, len(ts.Data))
	copy(data, ts.Data)
	for i := range data {
		if a := data[i].Adjustment; a != nil {
			adj := *a
			data[i].Adjustment = &adj
		}
	}
	return timeseries.New(ts.Symbol, ts.Interval, data)
}
