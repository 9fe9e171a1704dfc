package ratelimit

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"avseries/internal/provider"
	"avseries/internal/timeseries"
)

// TokenBucket wraps a rate.Limiter refilling at tokensPerSecond and
// holding at most burst tokens. It starts full to allow an initial burst.
type TokenBucket struct {
	lim *rate.Limiter
}

func NewTokenBucket(tokensPerSecond float64, burst int) *TokenBucket {
	if tokensPerSecond <= 0 {
		tokensPerSecond = 0.0000001
	}
	if burst <= 0 {
		burst = 1
	}
	return &TokenBucket{lim: rate.NewLimiter(rate.Limit(tokensPerSecond), burst)}
}

// PerMinute returns a bucket allowing rpm calls per minute. Alpha Vantage
// quotas are expressed this way.
func PerMinute(rpm, burst int) *TokenBucket {
	return NewTokenBucket(float64(rpm)/60, burst)
}

// Wait blocks until one token is available or ctx is done. A wait that
// cannot finish before the ctx deadline fails immediately with an error
// wrapping context.DeadlineExceeded.
func (tb *TokenBucket) Wait(ctx context.Context) error {
	if err := tb.lim.Wait(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: %v", context.DeadlineExceeded, err)
	}
	return nil
}

// TokenBucketProvider wraps a Provider and gates calls using a token bucket.
type TokenBucketProvider struct {
	P  provider.Provider
	TB *TokenBucket
}

func (t *TokenBucketProvider) Name() string { return t.P.Name() }

func (t *TokenBucketProvider) Fetch(ctx context.Context, req provider.Request) (timeseries.TimeSeries, error) {
	if t.TB != nil {
		if err := t.TB.Wait(ctx); err != nil {
			return timeseries.TimeSeries{}, err
		}
	}
	return t.P.Fetch(ctx, req)
}
