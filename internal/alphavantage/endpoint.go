package alphavantage

import (
	"fmt"

	"avseries/internal/timeseries"
)

// Function is the value of the "function" query parameter.
type Function string

const (
	TimeSeriesDaily           Function = "TIME_SERIES_DAILY"
	TimeSeriesDailyAdjusted   Function = "TIME_SERIES_DAILY_ADJUSTED"
	TimeSeriesWeekly          Function = "TIME_SERIES_WEEKLY"
	TimeSeriesWeeklyAdjusted  Function = "TIME_SERIES_WEEKLY_ADJUSTED"
	TimeSeriesMonthly         Function = "TIME_SERIES_MONTHLY"
	TimeSeriesMonthlyAdjusted Function = "TIME_SERIES_MONTHLY_ADJUSTED"
)

const metaDataKey = "Meta Data"

// endpoint describes the response shape of one Function.
type endpoint struct {
	seriesKey string
	interval  timeseries.Interval
	adjusted  bool
}

// endpoints is keyed by Function. Daily adjusted reuses the daily series key.
var endpoints = map[Function]endpoint{
	TimeSeriesDaily:           {seriesKey: "Time Series (Daily)", interval: timeseries.Daily},
	TimeSeriesDailyAdjusted:   {seriesKey: "Time Series (Daily)", interval: timeseries.Daily, adjusted: true},
	TimeSeriesWeekly:          {seriesKey: "Weekly Time Series", interval: timeseries.Weekly},
	TimeSeriesWeeklyAdjusted:  {seriesKey: "Weekly Adjusted Time Series", interval: timeseries.Weekly, adjusted: true},
	TimeSeriesMonthly:         {seriesKey: "Monthly Time Series", interval: timeseries.Monthly},
	TimeSeriesMonthlyAdjusted: {seriesKey: "Monthly Adjusted Time Series", interval: timeseries.Monthly, adjusted: true},
}

func lookupEndpoint(fn Function) (endpoint, error) {
	ep, ok := endpoints[fn]
	if !ok {
		return endpoint{}, fmt.Errorf("unknown function %q", string(fn))
	}
	return ep, nil
}

// Interval returns the sampling interval of the series fn returns.
func (fn Function) Interval() timeseries.Interval {
	return endpoints[fn].interval
}

// Adjusted reports whether fn returns an adjusted series.
func (fn Function) Adjusted() bool {
	return endpoints[fn].adjusted
}

// FunctionFor maps an interval and adjustment flag to its Function.
func FunctionFor(interval timeseries.Interval, adjusted bool) (Function, error) {
	for fn, ep := range endpoints {
		if ep.interval == interval && ep.adjusted == adjusted {
			return fn, nil
		}
	}
	return "", fmt.Errorf("no time series function for interval %q (adjusted=%t)", interval, adjusted)
}
