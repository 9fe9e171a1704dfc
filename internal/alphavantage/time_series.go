package alphavantage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// apiMessageKeys are the top-level keys Alpha Vantage uses instead of a
// series when it rejects a call.
var apiMessageKeys = []string{"Error Message", "Note", "Information"}

// GetTimeSeriesDaily retrieves the raw daily series for symbol. fullHistory
// selects the full 20+ year history instead of the latest 100 points.
func (c *Client) GetTimeSeriesDaily(ctx context.Context, symbol string, fullHistory bool) (*DailyResponse, error) {
	return getTimeSeries[MetaDataWithOutputSize, PriceInfo](ctx, c, TimeSeriesDaily, symbol, fullHistory)
}

// GetTimeSeriesDailyAdjusted retrieves the adjusted daily series for symbol.
func (c *Client) GetTimeSeriesDailyAdjusted(ctx context.Context, symbol string, fullHistory bool) (*DailyAdjustedResponse, error) {
	return getTimeSeries[MetaDataWithOutputSize, AdjustedPriceInfo](ctx, c, TimeSeriesDailyAdjusted, symbol, fullHistory)
}

// GetTimeSeriesWeekly retrieves the raw weekly series for symbol.
func (c *Client) GetTimeSeriesWeekly(ctx context.Context, symbol string, fullHistory bool) (*WeeklyResponse, error) {
	return getTimeSeries[MetaData, PriceInfo](ctx, c, TimeSeriesWeekly, symbol, fullHistory)
}

// GetTimeSeriesWeeklyAdjusted retrieves the adjusted weekly series for symbol.
func (c *Client) GetTimeSeriesWeeklyAdjusted(ctx context.Context, symbol string, fullHistory bool) (*WeeklyAdjustedResponse, error) {
	return getTimeSeries[MetaData, AdjustedPriceInfo](ctx, c, TimeSeriesWeeklyAdjusted, symbol, fullHistory)
}

// GetTimeSeriesMonthly retrieves the raw monthly series for symbol.
func (c *Client) GetTimeSeriesMonthly(ctx context.Context, symbol string, fullHistory bool) (*MonthlyResponse, error) {
	return getTimeSeries[MetaData, PriceInfo](ctx, c, TimeSeriesMonthly, symbol, fullHistory)
}

// GetTimeSeriesMonthlyAdjusted retrieves the adjusted monthly series for symbol.
func (c *Client) GetTimeSeriesMonthlyAdjusted(ctx context.Context, symbol string, fullHistory bool) (*MonthlyAdjustedResponse, error) {
	return getTimeSeries[MetaData, AdjustedPriceInfo](ctx, c, TimeSeriesMonthlyAdjusted, symbol, fullHistory)
}

// MakeURL builds the request URL for fn. The base URL path is always
// replaced by /query. Parameters keep the order function, symbol, apikey,
// then outputsize=full when fullHistory is set.
func (c *Client) MakeURL(fn Function, symbol string, fullHistory bool) (*url.URL, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, &Error{Kind: KindURL, Function: fn, Err: err}
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, &Error{Kind: KindURL, Function: fn, Err: fmt.Errorf("base url %q: missing scheme or host", c.baseURL)}
	}
	u.Path = "/query"
	u.RawPath = ""
	u.Fragment = ""
	u.RawFragment = ""

	// url.Values.Encode sorts keys, so the query is assembled by hand.
	var q strings.Builder
	q.WriteString(u.RawQuery)
	appendPair := func(key, value string) {
		if q.Len() > 0 {
			q.WriteByte('&')
		}
		q.WriteString(url.QueryEscape(key))
		q.WriteByte('=')
		q.WriteString(url.QueryEscape(value))
	}
	appendPair("function", string(fn))
	appendPair("symbol", symbol)
	appendPair("apikey", c.apiKey)
	if fullHistory {
		appendPair("outputsize", "full")
	}
	u.RawQuery = q.String()
	return u, nil
}

func getTimeSeries[M Meta, P Row](ctx context.Context, c *Client, fn Function, symbol string, fullHistory bool) (*Response[M, P], error) {
	body, err := c.get(ctx, fn, symbol, fullHistory)
	if err != nil {
		return nil, err
	}
	if apiErr := findAPIError(body); apiErr != nil {
		return nil, &Error{Kind: KindAPI, Function: fn, Err: apiErr}
	}
	res, err := Decode[M, P](fn, body)
	if err != nil {
		return nil, &Error{Kind: KindDecode, Function: fn, Err: err}
	}
	return res, nil
}

// get performs the request and returns the full body of a 2xx response.
func (c *Client) get(ctx context.Context, fn Function, symbol string, fullHistory bool) ([]byte, error) {
	u, err := c.MakeURL(fn, symbol, fullHistory)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), http.NoBody)
	if err != nil {
		return nil, &Error{Kind: KindHTTP, Function: fn, Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header = c.header.Clone()

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &Error{Kind: KindHTTP, Function: fn, Err: fmt.Errorf("performing request: %w", err)}
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(res.Body, 2<<10))
		return nil, &Error{Kind: KindHTTP, Function: fn, Err: &StatusError{StatusCode: res.StatusCode, Body: strings.TrimSpace(string(b))}}
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, &Error{Kind: KindHTTP, Function: fn, Err: fmt.Errorf("reading body: %w", err)}
	}
	return body, nil
}

// findAPIError returns the rejection message of a body that carries one of
// apiMessageKeys and no "Meta Data". Bodies that are not JSON objects are
// left for the decoder to report.
func findAPIError(body []byte) *APIError {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(body, &top); err != nil {
		return nil
	}
	if _, ok := top[metaDataKey]; ok {
		return nil
	}
	for _, key := range apiMessageKeys {
		raw, ok := top[key]
		if !ok {
			continue
		}
		var msg string
		if err := json.Unmarshal(raw, &msg); err != nil {
			msg = string(raw)
		}
		return &APIError{Key: key, Message: msg}
	}
	return nil
}
