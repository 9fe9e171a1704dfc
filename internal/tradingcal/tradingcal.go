// Package tradingcal checks daily series against exchange trading days.
package tradingcal

import (
	"strings"
	"time"

	"github.com/scmhub/calendar"

	"avseries/internal/timeseries"
)

// suffixMIC maps ticker suffixes to ISO 10383 MIC codes. Bare tickers
// are US listings.
var suffixMIC = map[string]string{
	".L":   "xlon",
	".PA":  "xpar",
	".DE":  "xfra",
	".AS":  "xams",
	".MI":  "xmil",
	".SW":  "xswx",
	".TO":  "xtse",
	".T":   "xtks",
	".HK":  "xhkg",
	".AX":  "xasx",
	".BSE": "xbom",
}

// Calendar answers trading-day questions for one exchange.
type Calendar struct {
	cal *calendar.Calendar
	loc *time.Location
}

// ForSymbol picks the exchange calendar from the ticker suffix, falling
// back to NYSE. Without any calendar it treats Monday to Friday as
// trading days.
func ForSymbol(symbol string) *Calendar {
	mic := "xnys"
	if i := strings.LastIndex(symbol, "."); i > 0 {
		if m, ok := suffixMIC[strings.ToUpper(symbol[i:])]; ok {
			mic = m
		}
	}
	cal := calendar.GetCalendar(mic)
	if cal == nil {
		cal = calendar.GetCalendar("xnys")
	}
	if cal == nil {
		return &Calendar{loc: time.UTC}
	}
	loc := cal.Loc
	if loc == nil {
		loc = time.UTC
	}
	return &Calendar{cal: cal, loc: loc}
}

// IsTradingDay reports whether the calendar date of day is a session.
// Only the year, month and day of day are used.
func (c *Calendar) IsTradingDay(day time.Time) bool {
	// noon local keeps the date stable across time zones
	d := time.Date(day.Year(), day.Month(), day.Day(), 12, 0, 0, 0, c.loc)
	if c.cal == nil {
		wd := d.Weekday()
		return wd != time.Saturday && wd != time.Sunday
	}
	return c.cal.IsBusinessDay(d)
}

// MissingDays lists trading days between the first and last bar of a
// daily series that have no bar, oldest first. Other intervals have no
// gaps by this definition.
func (c *Calendar) MissingDays(ts timeseries.TimeSeries) []time.Time {
	if ts.Interval != timeseries.Daily || len(ts.Data) < 2 {
		return nil
	}
	have := make(map[string]struct{}, len(ts.Data))
	first, last := ts.Data[0].Timestamp, ts.Data[0].Timestamp
	for _, d := range ts.Data {
		have[d.Timestamp.Format(time.DateOnly)] = struct{}{}
		if d.Timestamp.Before(first) {
			first = d.Timestamp
		}
		if d.Timestamp.After(last) {
			last = d.Timestamp
		}
	}

	var out []time.Time
	for day := first.AddDate(0, 0, 1); day.Before(last); day = day.AddDate(0, 0, 1) {
		if _, ok := have[day.Format(time.DateOnly)]; ok {
			continue
		}
		if c.IsTradingDay(day) {
			out = append(out, day)
		}
	}
	return out
}
