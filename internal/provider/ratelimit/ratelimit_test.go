package ratelimit_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"avseries/internal/provider"
	"avseries/internal/provider/providertest"
	"avseries/internal/provider/ratelimit"
	"avseries/internal/timeseries"
)

func newFake() *providertest.Fake {
	start := time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC)
	return &providertest.Fake{Series: map[string]timeseries.TimeSeries{
		"IBM": timeseries.New("IBM", timeseries.Daily, providertest.Bars(timeseries.Daily, start, 3)),
	}}
}

func TestTokenBucket_Burst(t *testing.T) {
	t.Parallel()

	tb := ratelimit.NewTokenBucket(1000, 3)
	for i := 0; i < 3; i++ {
		ctx, cancel := context.WithTimeout(t.Context(), 10*time.Millisecond)
		require.NoError(t, tb.Wait(ctx))
		cancel()
	}
}

func TestTokenBucket_WaitCanceled(t *testing.T) {
	t.Parallel()

	// Arrange: one token, refilled once a minute.
	tb := ratelimit.PerMinute(1, 1)
	require.NoError(t, tb.Wait(t.Context()))

	// Act: the second token is a minute away.
	ctx, cancel := context.WithTimeout(t.Context(), 20*time.Millisecond)
	defer cancel()
	err := tb.Wait(ctx)

	// Assert
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestTokenBucketProvider(t *testing.T) {
	t.Parallel()

	fake := newFake()
	p := &ratelimit.TokenBucketProvider{P: fake, TB: ratelimit.PerMinute(1, 1)}
	require.Equal(t, "fake", p.Name())

	ts, err := p.Fetch(t.Context(), provider.Request{Symbol: "IBM", Interval: timeseries.Daily})
	require.NoError(t, err)
	require.Equal(t, 3, ts.Len())

	ctx, cancel := context.WithTimeout(t.Context(), 20*time.Millisecond)
	defer cancel()
	_, err = p.Fetch(ctx, provider.Request{Symbol: "IBM", Interval: timeseries.Daily})
	require.ErrorIs(t, err, context.DeadlineExceeded)

	// Assert: the gated call never reached the provider.
	require.Len(t, fake.Calls(), 1)
}

func TestMinInterval_SpacesCalls(t *testing.T) {
	t.Parallel()

	fake := newFake()
	p := &ratelimit.MinInterval{P: fake, Interval: 30 * time.Millisecond}

	start := time.Now()
	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := p.Fetch(t.Context(), provider.Request{Symbol: "IBM"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	// Assert: three calls need at least two full intervals.
	require.GreaterOrEqual(t, time.Since(start), 60*time.Millisecond)
	require.Len(t, fake.Calls(), 3)
}

func TestMinInterval_Canceled(t *testing.T) {
	t.Parallel()

	fake := newFake()
	p := &ratelimit.MinInterval{P: fake, Interval: time.Minute}

	_, err := p.Fetch(t.Context(), provider.Request{Symbol: "IBM"})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(t.Context(), 20*time.Millisecond)
	defer cancel()
	_, err = p.Fetch(ctx, provider.Request{Symbol: "IBM"})
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Len(t, fake.Calls(), 1)
}

func TestMinInterval_CanceledWaitersFreeSlots(t *testing.T) {
	t.Parallel()

	fake := newFake()
	interval := 100 * time.Millisecond
	p := &ratelimit.MinInterval{P: fake, Interval: interval}

	_, err := p.Fetch(t.Context(), provider.Request{Symbol: "IBM"})
	require.NoError(t, err)

	// Arrange: several callers give up while queued.
	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(t.Context(), 10*time.Millisecond)
			defer cancel()
			_, err := p.Fetch(ctx, provider.Request{Symbol: "IBM"})
			assert.ErrorIs(t, err, context.DeadlineExceeded)
		}()
	}
	wg.Wait()
	time.Sleep(interval)

	// Act
	start := time.Now()
	_, err = p.Fetch(t.Context(), provider.Request{Symbol: "IBM"})

	// Assert: an idle interval later the next call goes straight through.
	require.NoError(t, err)
	require.Less(t, time.Since(start), interval/2)
	require.Len(t, fake.Calls(), 2)
}
