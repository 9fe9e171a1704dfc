// Package providertest has an in-memory provider.Provider for tests.
package providertest

import (
	"context"
	"errors"
	"sync"
	"time"

	"avseries/internal/provider"
	"avseries/internal/timeseries"
)

// ErrNotFound is returned for symbols the Fake has no series for.
var ErrNotFound = errors.New("providertest: series not found")

// Fake serves fixed series keyed by symbol and records calls.
type Fake struct {
	Series map[string]timeseries.TimeSeries
	// Err, when set, is returned by every call.
	Err error

	mu    sync.Mutex
	calls []provider.Request
}

func (f *Fake) Name() string { return "fake" }

func (f *Fake) Fetch(ctx context.Context, req provider.Request) (timeseries.TimeSeries, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return timeseries.TimeSeries{}, err
	}
	if f.Err != nil {
		return timeseries.TimeSeries{}, f.Err
	}
	ts, ok := f.Series[req.Symbol]
	if !ok {
		return timeseries.TimeSeries{}, ErrNotFound
	}
	if req.Interval != "" && ts.Interval != req.Interval {
		return timeseries.TimeSeries{}, ErrNotFound
	}
	out := timeseries.New(ts.Symbol, ts.Interval, append([]timeseries.AssetTradeInfo(nil), ts.Data...))
	return out, nil
}

// Calls returns the requests seen so far.
func (f *Fake) Calls() []provider.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]provider.Request(nil), f.calls...)
}

// Bars builds n consecutive bars for interval starting at start. Close
// grows by one per bar starting at 100.
func Bars(interval timeseries.Interval, start time.Time, n int) []timeseries.AssetTradeInfo {
	out := make([]timeseries.AssetTradeInfo, 0, n)
	ts := start
	for i := 0; i < n; i++ {
		c := 100 + float64(i)
		out = append(out, timeseries.AssetTradeInfo{
			Timestamp: ts,
			Open:      c - 0.5,
			High:      c + 1,
			Low:       c - 1,
			Close:     c,
			Volume:    int64(1000 * (i + 1)),
		})
		ts = interval.Next(ts)
	}
	return out
}
