package provider

import (
	"context"
	"strconv"
	"strings"

	"avseries/internal/timeseries"
)

// Request selects one series from a provider.
type Request struct {
	Symbol      string              `json:"symbol"`
	Interval    timeseries.Interval `json:"interval"`
	Adjusted    bool                `json:"adjusted"`
	FullHistory bool                `json:"full_history"`
}

// Key identifies r for caching. Symbols are case-insensitive.
func (r Request) Key() string {
	return strings.Join([]string{
		strings.ToUpper(strings.TrimSpace(r.Symbol)),
		string(r.Interval),
		strconv.FormatBool(r.Adjusted),
		strconv.FormatBool(r.FullHistory),
	}, "|")
}

// Provider is implemented by every series source and decorator.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, req Request) (timeseries.TimeSeries, error)
}
