package alphavantage

import (
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/civil"

	"avseries/internal/timeseries"
)

// MetaData is the "Meta Data" header of weekly and monthly responses.
type MetaData struct {
	Information   string
	Symbol        string
	LastRefreshed string
	TimeZone      string
}

// UnmarshalJSON decodes the four ordinal-prefixed keys.
func (m *MetaData) UnmarshalJSON(b []byte) error {
	f, err := decodeFields(b)
	if err != nil {
		return err
	}
	var out MetaData
	if err := f.str("1. Information", &out.Information); err != nil {
		return err
	}
	if err := f.str("2. Symbol", &out.Symbol); err != nil {
		return err
	}
	if err := f.str("3. Last Refreshed", &out.LastRefreshed); err != nil {
		return err
	}
	if err := f.str("4. Time Zone", &out.TimeZone); err != nil {
		return err
	}
	*m = out
	return nil
}

func (m MetaData) header() MetaData { return m }

// MetaDataWithOutputSize is the "Meta Data" header of daily responses.
// The output size key shifts the time zone to "5. Time Zone".
type MetaDataWithOutputSize struct {
	MetaData
	OutputSize string
}

// UnmarshalJSON decodes the five ordinal-prefixed keys.
func (m *MetaDataWithOutputSize) UnmarshalJSON(b []byte) error {
	f, err := decodeFields(b)
	if err != nil {
		return err
	}
	var out MetaDataWithOutputSize
	if err := f.str("1. Information", &out.Information); err != nil {
		return err
	}
	if err := f.str("2. Symbol", &out.Symbol); err != nil {
		return err
	}
	if err := f.str("3. Last Refreshed", &out.LastRefreshed); err != nil {
		return err
	}
	if err := f.str("4. Output Size", &out.OutputSize); err != nil {
		return err
	}
	if err := f.str("5. Time Zone", &out.TimeZone); err != nil {
		return err
	}
	*m = out
	return nil
}

func (m MetaDataWithOutputSize) header() MetaData { return m.MetaData }

// Meta is the set of metadata shapes a Response can carry.
type Meta interface {
	MetaData | MetaDataWithOutputSize
	header() MetaData
}

// Row is the set of price shapes a Response can carry.
type Row interface {
	PriceInfo | AdjustedPriceInfo
	tradeInfo(ts time.Time) timeseries.AssetTradeInfo
}

// Response is the decoded body of a time series call. Which JSON key holds
// the series depends on Function, so Function must be set before the body
// is unmarshalled; the Client does that.
type Response[M Meta, P Row] struct {
	Function Function
	MetaData M
	Prices   map[civil.Date]P
}

type (
	DailyResponse           = Response[MetaDataWithOutputSize, PriceInfo]
	DailyAdjustedResponse   = Response[MetaDataWithOutputSize, AdjustedPriceInfo]
	WeeklyResponse          = Response[MetaData, PriceInfo]
	WeeklyAdjustedResponse  = Response[MetaData, AdjustedPriceInfo]
	MonthlyResponse         = Response[MetaData, PriceInfo]
	MonthlyAdjustedResponse = Response[MetaData, AdjustedPriceInfo]
)

// UnmarshalJSON requires "Meta Data" and the series key of r.Function.
// Any other top-level keys are ignored.
func (r *Response[M, P]) UnmarshalJSON(b []byte) error {
	ep, err := lookupEndpoint(r.Function)
	if err != nil {
		return err
	}
	f, err := decodeFields(b)
	if err != nil {
		return err
	}

	rawMeta, ok := f[metaDataKey]
	if !ok {
		return &FieldError{Field: metaDataKey, Err: ErrMissingField}
	}
	rawSeries, ok := f[ep.seriesKey]
	if !ok {
		return &FieldError{Field: ep.seriesKey, Err: ErrMissingField}
	}

	var meta M
	if err := json.Unmarshal(rawMeta, &meta); err != nil {
		return fmt.Errorf("%s: %w", metaDataKey, err)
	}
	var prices map[civil.Date]P
	if err := json.Unmarshal(rawSeries, &prices); err != nil {
		return fmt.Errorf("%s: %w", ep.seriesKey, err)
	}
	if prices == nil {
		return fmt.Errorf("%s: expected JSON object, got null", ep.seriesKey)
	}

	r.MetaData = meta
	r.Prices = prices
	return nil
}

// Decode parses body as the response of fn.
func Decode[M Meta, P Row](fn Function, body []byte) (*Response[M, P], error) {
	r := &Response[M, P]{Function: fn}
	if err := json.Unmarshal(body, r); err != nil {
		return nil, err
	}
	return r, nil
}
