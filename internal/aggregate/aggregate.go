package aggregate

import (
	"sort"
	"strings"
	"time"

	"avseries/internal/timeseries"
)

// Key identifies a latest-bar bucket.
type Key struct {
	Symbol   string
	Interval timeseries.Interval
}

// Latest is the most recent bar of one symbol at one interval.
type Latest struct {
	Symbol    string                 `json:"symbol"`
	Interval  timeseries.Interval    `json:"interval"`
	Timestamp time.Time              `json:"timestamp"`
	Open      float64                `json:"open"`
	High      float64                `json:"high"`
	Low       float64                `json:"low"`
	Close     float64                `json:"close"`
	Volume    int64                  `json:"volume"`
	Adjusted  *timeseries.Adjustment `json:"adjustment,omitempty"`
	// PrevClose and ChangePct are set when the series had an earlier bar.
	PrevClose *float64 `json:"prev_close,omitempty"`
	ChangePct *float64 `json:"change_pct,omitempty"`
}

// LatestBySymbol collapses series into one row per (symbol, interval)
// keeping the newest bar. Symbols compare case-insensitively and are
// reported upper-cased. For equal timestamps, later input wins. Empty
// series are skipped. Output is sorted by symbol, then interval.
func LatestBySymbol(series []timeseries.TimeSeries) []Latest {
	latest := make(map[Key]Latest, len(series))

	for _, ts := range series {
		bar, ok := ts.Latest()
		if !ok {
			continue
		}
		sym := strings.ToUpper(strings.TrimSpace(ts.Symbol))
		key := Key{Symbol: sym, Interval: ts.Interval}
		if cur, ok := latest[key]; ok && bar.Timestamp.Before(cur.Timestamp) {
			continue
		}

		row := Latest{
			Symbol:    sym,
			Interval:  ts.Interval,
			Timestamp: bar.Timestamp,
			Open:      bar.Open,
			High:      bar.High,
			Low:       bar.Low,
			Close:     bar.Close,
			Volume:    bar.Volume,
			Adjusted:  bar.Adjustment,
		}
		if prev, ok := previous(ts, bar.Timestamp); ok {
			pc := prev.Close
			row.PrevClose = &pc
			if pc != 0 {
				chg := (bar.Close - pc) / pc * 100
				row.ChangePct = &chg
			}
		}
		latest[key] = row
	}

	out := make([]Latest, 0, len(latest))
	for _, v := range latest {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Symbol != out[j].Symbol {
			return out[i].Symbol < out[j].Symbol
		}
		return out[i].Interval < out[j].Interval
	})
	return out
}

// previous returns the newest bar strictly before t.
func previous(ts timeseries.TimeSeries, t time.Time) (timeseries.AssetTradeInfo, bool) {
	var (
		best  timeseries.AssetTradeInfo
		found bool
	)
	for _, d := range ts.Data {
		if !d.Timestamp.Before(t) {
			continue
		}
		if !found || d.Timestamp.After(best.Timestamp) {
			best, found = d, true
		}
	}
	return best, found
}
