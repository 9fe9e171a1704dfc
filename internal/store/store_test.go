package store_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"avseries/internal/provider/providertest"
	"avseries/internal/store"
	"avseries/internal/timeseries"
)

var start = time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC)

// setupTestStore prepares an in-memory SQLite store for testing.
func setupTestStore(t *testing.T) *store.Store {
	t.Helper()

	s, err := store.Open(store.DriverSQLite, ":memory:")
	require.NoError(t, err, "failed to initialize test database")
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.Migrate(t.Context()), "failed to migrate table")
	return s
}

func TestOpen_UnknownDriver(t *testing.T) {
	t.Parallel()

	_, err := store.Open("mysql", "dsn")
	require.ErrorIs(t, err, store.ErrUnknownDriver)
}

func TestUpsertAndFind(t *testing.T) {
	t.Parallel()

	s := setupTestStore(t)

	bars := providertest.Bars(timeseries.Daily, start, 3)
	// Arrange: out of order input.
	bars[0], bars[2] = bars[2], bars[0]
	require.NoError(t, s.UpsertSeries(t.Context(), timeseries.New("IBM", timeseries.Daily, bars)))

	ts, err := s.FindSeries(t.Context(), "IBM", timeseries.Daily, 0)
	require.NoError(t, err)

	assert.Equal(t, "IBM", ts.Symbol)
	assert.Equal(t, timeseries.Daily, ts.Interval)
	require.Len(t, ts.Data, 3)
	for i, d := range ts.Data {
		assert.True(t, start.AddDate(0, 0, i).Equal(d.Timestamp), "bar %d at %s", i, d.Timestamp)
		assert.Equal(t, 100+float64(i), d.Close)
		assert.Nil(t, d.Adjustment)
	}
}

func TestFindSeries_Limit(t *testing.T) {
	t.Parallel()

	s := setupTestStore(t)
	require.NoError(t, s.UpsertSeries(t.Context(),
		timeseries.New("IBM", timeseries.Weekly, providertest.Bars(timeseries.Weekly, start, 5))))

	ts, err := s.FindSeries(t.Context(), "IBM", timeseries.Weekly, 2)
	require.NoError(t, err)
	require.Len(t, ts.Data, 2)

	// Assert: the most recent two bars, oldest first.
	assert.Equal(t, 103.0, ts.Data[0].Close)
	assert.Equal(t, 104.0, ts.Data[1].Close)
}

func TestUpsertSeries_UpdatesExisting(t *testing.T) {
	t.Parallel()

	s := setupTestStore(t)
	bars := providertest.Bars(timeseries.Daily, start, 2)
	require.NoError(t, s.UpsertSeries(t.Context(), timeseries.New("IBM", timeseries.Daily, bars)))

	bars[1].Close = 42
	bars[1].Volume = 7
	require.NoError(t, s.UpsertSeries(t.Context(), timeseries.New("IBM", timeseries.Daily, bars)))

	ts, err := s.FindSeries(t.Context(), "IBM", timeseries.Daily, 0)
	require.NoError(t, err)
	require.Len(t, ts.Data, 2)
	assert.Equal(t, 42.0, ts.Data[1].Close)
	assert.Equal(t, int64(7), ts.Data[1].Volume)
}

func TestUpsertSeries_Adjustments(t *testing.T) {
	t.Parallel()

	s := setupTestStore(t)

	adjusted := providertest.Bars(timeseries.Monthly, start, 2)
	for i := range adjusted {
		adjusted[i].Adjustment = &timeseries.Adjustment{AdjustedClose: adjusted[i].Close - 1, DividendAmount: 1.66, SplitCoefficient: 1}
	}
	require.NoError(t, s.UpsertSeries(t.Context(), timeseries.New("IBM", timeseries.Monthly, adjusted)))

	// Act: a raw series for the same bars must not erase the adjustment.
	raw := providertest.Bars(timeseries.Monthly, start, 2)
	require.NoError(t, s.UpsertSeries(t.Context(), timeseries.New("IBM", timeseries.Monthly, raw)))

	ts, err := s.FindSeries(t.Context(), "IBM", timeseries.Monthly, 0)
	require.NoError(t, err)
	require.Len(t, ts.Data, 2)
	require.NotNil(t, ts.Data[0].Adjustment)
	assert.Equal(t, 99.0, ts.Data[0].Adjustment.AdjustedClose)
	assert.Equal(t, 1.66, ts.Data[0].Adjustment.DividendAmount)
	assert.Equal(t, 1.0, ts.Data[0].Adjustment.SplitCoefficient)
}

func TestFindSeries_Isolation(t *testing.T) {
	t.Parallel()

	s := setupTestStore(t)
	require.NoError(t, s.UpsertSeries(t.Context(), timeseries.New("IBM", timeseries.Daily, providertest.Bars(timeseries.Daily, start, 2))))
	require.NoError(t, s.UpsertSeries(t.Context(), timeseries.New("MSFT", timeseries.Daily, providertest.Bars(timeseries.Daily, start, 3))))
	require.NoError(t, s.UpsertSeries(t.Context(), timeseries.New("IBM", timeseries.Weekly, providertest.Bars(timeseries.Weekly, start, 4))))

	ts, err := s.FindSeries(t.Context(), "IBM", timeseries.Daily, 0)
	require.NoError(t, err)
	assert.Len(t, ts.Data, 2)

	ts, err = s.FindSeries(t.Context(), "AAPL", timeseries.Daily, 0)
	require.NoError(t, err)
	assert.Empty(t, ts.Data)

	symbols, err := s.Symbols(t.Context(), timeseries.Daily)
	require.NoError(t, err)
	assert.Equal(t, []string{"IBM", "MSFT"}, symbols)
}

func TestUpsertSeries_Empty(t *testing.T) {
	t.Parallel()

	s := setupTestStore(t)
	require.NoError(t, s.UpsertSeries(t.Context(), timeseries.New("IBM", timeseries.Daily, nil)))
}
