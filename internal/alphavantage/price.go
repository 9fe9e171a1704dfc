package alphavantage

import (
	"time"

	"avseries/internal/timeseries"
)

// PriceInfo is one period of a raw (unadjusted) series.
type PriceInfo struct {
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
}

// UnmarshalJSON decodes the "1. open" .. "5. volume" keys.
func (p *PriceInfo) UnmarshalJSON(b []byte) error {
	f, err := decodeFields(b)
	if err != nil {
		return err
	}
	var out PriceInfo
	if err := f.float("1. open", &out.Open); err != nil {
		return err
	}
	if err := f.float("2. high", &out.High); err != nil {
		return err
	}
	if err := f.float("3. low", &out.Low); err != nil {
		return err
	}
	if err := f.float("4. close", &out.Close); err != nil {
		return err
	}
	if err := f.int("5. volume", &out.Volume); err != nil {
		return err
	}
	*p = out
	return nil
}

func (p PriceInfo) tradeInfo(ts time.Time) timeseries.AssetTradeInfo {
	return timeseries.AssetTradeInfo{
		Timestamp: ts,
		Open:      p.Open,
		High:      p.High,
		Low:       p.Low,
		Close:     p.Close,
		Volume:    p.Volume,
	}
}

// AdjustedPriceInfo is one period of a dividend/split adjusted series.
type AdjustedPriceInfo struct {
	Open           float64
	High           float64
	Low            float64
	Close          float64
	AdjustedClose  float64
	Volume         int64
	DividendAmount float64
	// SplitCoefficient is 0 when the payload omits it. Weekly and monthly
	// adjusted series never carry it.
	SplitCoefficient float64
}

// UnmarshalJSON decodes the "1. open" .. "8. split coefficient" keys.
func (p *AdjustedPriceInfo) UnmarshalJSON(b []byte) error {
	f, err := decodeFields(b)
	if err != nil {
		return err
	}
	var out AdjustedPriceInfo
	if err := f.float("1. open", &out.Open); err != nil {
		return err
	}
	if err := f.float("2. high", &out.High); err != nil {
		return err
	}
	if err := f.float("3. low", &out.Low); err != nil {
		return err
	}
	if err := f.float("4. close", &out.Close); err != nil {
		return err
	}
	if err := f.float("5. adjusted close", &out.AdjustedClose); err != nil {
		return err
	}
	if err := f.int("6. volume", &out.Volume); err != nil {
		return err
	}
	if err := f.float("7. dividend amount", &out.DividendAmount); err != nil {
		return err
	}
	if err := f.optFloat("8. split coefficient", &out.SplitCoefficient); err != nil {
		return err
	}
	*p = out
	return nil
}

func (p AdjustedPriceInfo) tradeInfo(ts time.Time) timeseries.AssetTradeInfo {
	return timeseries.AssetTradeInfo{
		Timestamp: ts,
		Open:      p.Open,
		High:      p.High,
		Low:       p.Low,
		Close:     p.Close,
		Volume:    p.Volume,
		Adjustment: &timeseries.Adjustment{
			AdjustedClose:    p.AdjustedClose,
			DividendAmount:   p.DividendAmount,
			SplitCoefficient: p.SplitCoefficient,
		},
	}
}
