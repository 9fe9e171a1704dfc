package alphavantage

import (
	"time"

	"avseries/internal/timeseries"
)

// TimeSeries converts r into the provider-neutral shape. Each date becomes
// midnight UTC; adjusted rows keep their adjustment fields. The interval
// follows r.Function. Data is in map iteration order.
func (r *Response[M, P]) TimeSeries() timeseries.TimeSeries {
	data := make([]timeseries.AssetTradeInfo, 0, len(r.Prices))
	for date, p := range r.Prices {
		data = append(data, p.tradeInfo(date.In(time.UTC)))
	}
	return timeseries.New(r.MetaData.header().Symbol, r.Function.Interval(), data)
}
