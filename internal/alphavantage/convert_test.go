package alphavantage_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"avseries/internal/alphavantage"
	"avseries/internal/timeseries"
)

func TestTimeSeries_Daily(t *testing.T) {
	t.Parallel()

	res, err := alphavantage.Decode[alphavantage.MetaDataWithOutputSize, alphavantage.PriceInfo](
		alphavantage.TimeSeriesDaily, loadFixture(t, "time_series_daily.json"))
	require.NoError(t, err)

	ts := res.TimeSeries()
	require.Equal(t, "IBM", ts.Symbol)
	require.Equal(t, timeseries.Daily, ts.Interval)
	require.Equal(t, len(res.Prices), ts.Len())

	for _, row := range ts.Data {
		// Assert: every point is midnight UTC and carries no adjustment.
		require.Equal(t, time.UTC, row.Timestamp.Location())
		require.Zero(t, row.Timestamp.Hour())
		require.Zero(t, row.Timestamp.Minute())
		require.Nil(t, row.Adjustment)
	}

	ts.Sort()
	first := ts.Data[0]
	require.Equal(t, time.Date(2024, time.March, 6, 0, 0, 0, 0, time.UTC), first.Timestamp)

	latest, ok := ts.Latest()
	require.True(t, ok)
	require.Equal(t, time.Date(2024, time.March, 8, 0, 0, 0, 0, time.UTC), latest.Timestamp)
}

func TestTimeSeries_PreservesValues(t *testing.T) {
	t.Parallel()

	res, err := alphavantage.Decode[alphavantage.MetaData, alphavantage.PriceInfo](
		alphavantage.TimeSeriesMonthly, loadFixture(t, "time_series_monthly.json"))
	require.NoError(t, err)

	ts := res.TimeSeries()
	require.Equal(t, timeseries.Monthly, ts.Interval)
	require.Len(t, ts.Data, len(res.Prices))

	for _, row := range ts.Data {
		d := row.Timestamp
		var want alphavantage.PriceInfo
		for date, p := range res.Prices {
			if date.Year == d.Year() && date.Month == d.Month() && date.Day == d.Day() {
				want = p
			}
		}
		require.NotZero(t, want.Volume, "no source row for %s", d)
		require.Equal(t, want.Open, row.Open)
		require.Equal(t, want.High, row.High)
		require.Equal(t, want.Low, row.Low)
		require.Equal(t, want.Close, row.Close)
		require.Equal(t, want.Volume, row.Volume)
	}
}

func TestTimeSeries_Adjusted(t *testing.T) {
	t.Parallel()

	res, err := alphavantage.Decode[alphavantage.MetaDataWithOutputSize, alphavantage.AdjustedPriceInfo](
		alphavantage.TimeSeriesDailyAdjusted, loadFixture(t, "time_series_daily_adjusted.json"))
	require.NoError(t, err)

	ts := res.TimeSeries()
	ts.Sort()
	require.Equal(t, timeseries.Daily, ts.Interval)
	require.Len(t, ts.Data, 2)

	row := ts.Data[0]
	require.Equal(t, time.Date(2024, time.February, 8, 0, 0, 0, 0, time.UTC), row.Timestamp)
	require.Equal(t, 184.36, row.Close)
	require.Equal(t, int64(5049018), row.Volume)
	require.NotNil(t, row.Adjustment)
	require.Equal(t, 182.7014, row.Adjustment.AdjustedClose)
	require.Equal(t, 1.66, row.Adjustment.DividendAmount)
	require.Equal(t, 1.0, row.Adjustment.SplitCoefficient)
}

func TestTimeSeries_IntervalPerFunction(t *testing.T) {
	t.Parallel()

	weekly, err := alphavantage.Decode[alphavantage.MetaData, alphavantage.AdjustedPriceInfo](
		alphavantage.TimeSeriesWeeklyAdjusted, loadFixture(t, "time_series_weekly_adjusted.json"))
	require.NoError(t, err)
	require.Equal(t, timeseries.Weekly, weekly.TimeSeries().Interval)

	monthly, err := alphavantage.Decode[alphavantage.MetaData, alphavantage.AdjustedPriceInfo](
		alphavantage.TimeSeriesMonthlyAdjusted, loadFixture(t, "time_series_monthly_adjusted.json"))
	require.NoError(t, err)
	require.Equal(t, timeseries.Monthly, monthly.TimeSeries().Interval)
}

func TestTimeSeries_Empty(t *testing.T) {
	t.Parallel()

	res := alphavantage.WeeklyResponse{Function: alphavantage.TimeSeriesWeekly}
	res.MetaData.Symbol = "IBM"

	ts := res.TimeSeries()
	require.Equal(t, "IBM", ts.Symbol)
	require.Zero(t, ts.Len())
	_, ok := ts.Latest()
	require.False(t, ok)
}

func TestFunctionFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		interval timeseries.Interval
		adjusted bool
		want     alphavantage.Function
	}{
		{timeseries.Daily, false, alphavantage.TimeSeriesDaily},
		{timeseries.Daily, true, alphavantage.TimeSeriesDailyAdjusted},
		{timeseries.Weekly, false, alphavantage.TimeSeriesWeekly},
		{timeseries.Weekly, true, alphavantage.TimeSeriesWeeklyAdjusted},
		{timeseries.Monthly, false, alphavantage.TimeSeriesMonthly},
		{timeseries.Monthly, true, alphavantage.TimeSeriesMonthlyAdjusted},
	}

	for _, tt := range tests {
		fn, err := alphavantage.FunctionFor(tt.interval, tt.adjusted)
		require.NoError(t, err)
		require.Equal(t, tt.want, fn)
		require.Equal(t, tt.interval, fn.Interval())
		require.Equal(t, tt.adjusted, fn.Adjusted())
	}

	_, err := alphavantage.FunctionFor(timeseries.Interval("1hour"), false)
	require.Error(t, err)
}
