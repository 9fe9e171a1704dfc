// Package timeseries holds the provider-neutral OHLCV series shape.
package timeseries

import (
	"fmt"
	"sort"
	"time"
)

// Interval is the sampling interval between nominal observations.
type Interval string

const (
	Daily   Interval = "1day"
	Weekly  Interval = "1week"
	Monthly Interval = "1month"
)

// ParseInterval accepts the interval strings used by the API and config.
func ParseInterval(s string) (Interval, error) {
	switch Interval(s) {
	case Daily, Weekly, Monthly:
		return Interval(s), nil
	case "":
		return Daily, nil
	}
	return "", fmt.Errorf("unknown interval %q", s)
}

// Nominal returns the nominal duration of one period. Months are counted
// as 30 days; use Next for calendar stepping.
func (i Interval) Nominal() time.Duration {
	switch i {
	case Daily:
		return 24 * time.Hour
	case Weekly:
		return 7 * 24 * time.Hour
	case Monthly:
		return 30 * 24 * time.Hour
	}
	return 0
}

// Next returns the start of the period after t.
func (i Interval) Next(t time.Time) time.Time {
	switch i {
	case Daily:
		return t.AddDate(0, 0, 1)
	case Weekly:
		return t.AddDate(0, 0, 7)
	case Monthly:
		return t.AddDate(0, 1, 0)
	}
	return t
}

func (i Interval) String() string { return string(i) }

// Adjustment carries the dividend/split fields of adjusted series.
type Adjustment struct {
	AdjustedClose    float64 `json:"adjusted_close"`
	DividendAmount   float64 `json:"dividend_amount"`
	SplitCoefficient float64 `json:"split_coefficient"`
}

// AssetTradeInfo is one trading period. Timestamp is midnight UTC of the
// period's date.
type AssetTradeInfo struct {
	Timestamp  time.Time   `json:"timestamp"`
	Open       float64     `json:"open"`
	High       float64     `json:"high"`
	Low        float64     `json:"low"`
	Close      float64     `json:"close"`
	Volume     int64       `json:"volume"`
	Adjustment *Adjustment `json:"adjustment,omitempty"`
}

// TimeSeries is a sequence of trading periods for one symbol.
// Data carries no ordering guarantee; call Sort when order matters.
type TimeSeries struct {
	Symbol   string           `json:"symbol"`
	Interval Interval         `json:"interval"`
	Data     []AssetTradeInfo `json:"data"`
}

// New builds a series from data and interval.
func New(symbol string, interval Interval, data []AssetTradeInfo) TimeSeries {
	return TimeSeries{Symbol: symbol, Interval: interval, Data: data}
}

func (ts TimeSeries) Len() int { return len(ts.Data) }

// Sort orders Data chronologically in place.
func (ts TimeSeries) Sort() {
	sort.Slice(ts.Data, func(i, j int) bool {
		return ts.Data[i].Timestamp.Before(ts.Data[j].Timestamp)
	})
}

// Latest returns the most recent period, false when the series is empty.
func (ts TimeSeries) Latest() (AssetTradeInfo, bool) {
	if len(ts.Data) == 0 {
		return AssetTradeInfo{}, false
	}
	latest := ts.Data[0]
	for _, d := range ts.Data[1:] {
		if d.Timestamp.After(latest.Timestamp) {
			latest = d
		}
	}
	return latest, true
}

// Tail returns a copy holding the last n periods in chronological order.
// n <= 0 keeps everything.
func (ts TimeSeries) Tail(n int) TimeSeries {
	data := make([]AssetTradeInfo, len(ts.Data))
	copy(data, ts.Data)
	out := TimeSeries{Symbol: ts.Symbol, Interval: ts.Interval, Data: data}
	out.Sort()
	if n > 0 && len(out.Data) > n {
		out.Data = out.Data[len(out.Data)-n:]
	}
	return out
}
