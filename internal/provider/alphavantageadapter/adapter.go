package alphavantageadapter

import (
	"context"
	"errors"
	"strings"

	"avseries/internal/alphavantage"
	"avseries/internal/provider"
	"avseries/internal/timeseries"
)

type Config struct {
	Name string // display name, default: AlphaVantage
}

// Adapter exposes an Alpha Vantage client as a provider.Provider.
type Adapter struct {
	cfg    Config
	client *alphavantage.Client
}

func New(cfg Config, client *alphavantage.Client) *Adapter {
	if cfg.Name == "" {
		cfg.Name = "AlphaVantage"
	}
	return &Adapter{cfg: cfg, client: client}
}

func (a *Adapter) Name() string { return a.cfg.Name }

// Fetch maps req onto the matching endpoint and returns the series sorted
// oldest first. An empty interval means daily.
func (a *Adapter) Fetch(ctx context.Context, req provider.Request) (timeseries.TimeSeries, error) {
	symbol := strings.TrimSpace(req.Symbol)
	if symbol == "" {
		return timeseries.TimeSeries{}, errors.New("alphavantage: empty symbol")
	}
	interval, err := timeseries.ParseInterval(string(req.Interval))
	if err != nil {
		return timeseries.TimeSeries{}, err
	}
	fn, err := alphavantage.FunctionFor(interval, req.Adjusted)
	if err != nil {
		return timeseries.TimeSeries{}, err
	}

	var ts timeseries.TimeSeries
	switch fn {
	case alphavantage.TimeSeriesDaily:
		ts, err = normalize(a.client.GetTimeSeriesDaily(ctx, symbol, req.FullHistory))
	case alphavantage.TimeSeriesDailyAdjusted:
		ts, err = normalize(a.client.GetTimeSeriesDailyAdjusted(ctx, symbol, req.FullHistory))
	case alphavantage.TimeSeriesWeekly:
		ts, err = normalize(a.client.GetTimeSeriesWeekly(ctx, symbol, req.FullHistory))
	case alphavantage.TimeSeriesWeeklyAdjusted:
		ts, err = normalize(a.client.GetTimeSeriesWeeklyAdjusted(ctx, symbol, req.FullHistory))
	case alphavantage.TimeSeriesMonthly:
		ts, err = normalize(a.client.GetTimeSeriesMonthly(ctx, symbol, req.FullHistory))
	case alphavantage.TimeSeriesMonthlyAdjusted:
		ts, err = normalize(a.client.GetTimeSeriesMonthlyAdjusted(ctx, symbol, req.FullHistory))
	}
	if err != nil {
		return timeseries.TimeSeries{}, err
	}
	ts.Sort()
	return ts, nil
}

func normalize[M alphavantage.Meta, P alphavantage.Row](res *alphavantage.Response[M, P], err error) (timeseries.TimeSeries, error) {
	if err != nil {
		return timeseries.TimeSeries{}, err
	}
	return res.TimeSeries(), nil
}
