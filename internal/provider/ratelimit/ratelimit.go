package ratelimit

import (
	"context"
	"sync"
	"time"

	"avseries/internal/provider"
	"avseries/internal/timeseries"
)

// MinInterval wraps a provider and enforces a minimum time between calls.
// Each call waits until Interval has elapsed since the previous call started,
// or returns early if ctx is canceled. A canceled caller claims no slot.
type MinInterval struct {
	P        provider.Provider
	Interval time.Duration

	mu   sync.Mutex
	last time.Time
}

func (m *MinInterval) Name() string { return m.P.Name() }

func (m *MinInterval) Fetch(ctx context.Context, req provider.Request) (timeseries.TimeSeries, error) {
	if m.Interval > 0 {
		if err := m.acquire(ctx); err != nil {
			return timeseries.TimeSeries{}, err
		}
	}
	return m.P.Fetch(ctx, req)
}

// acquire blocks until a start slot is free and claims it.
func (m *MinInterval) acquire(ctx context.Context) error {
	for {
		m.mu.Lock()
		now := time.Now()
		wait := m.last.Add(m.Interval).Sub(now)
		if wait <= 0 {
			m.last = now
			m.mu.Unlock()
			return nil
		}
		m.mu.Unlock()

		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
}
