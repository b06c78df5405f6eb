package model

import "time"

// OHLCV represents a single daily candlestick bar.
type OHLCV struct {
	Time   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// Series holds the daily bars of one symbol in chronological order.
// Dates are strictly increasing with no duplicate calendar days.
type Series struct {
	Symbol    string    `json:"symbol"`
	Bars      []OHLCV   `json:"bars"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Len returns the number of observations in the series.
func (s *Series) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Bars)
}

// Closes returns the close prices in order.
func (s *Series) Closes() []float64 {
	closes := make([]float64, s.Len())
	for i, b := range s.Bars {
		closes[i] = b.Close
	}
	return closes
}

// Last returns the most recent bar. ok is false for an empty series.
func (s *Series) Last() (bar OHLCV, ok bool) {
	if s.Len() == 0 {
		return OHLCV{}, false
	}
	return s.Bars[len(s.Bars)-1], true
}

// DateRange is an optional [Start, End] window. A zero Start or End means the
// bound is absent and the provider default applies.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// IsZero reports whether neither bound is set.
func (r DateRange) IsZero() bool {
	return r.Start.IsZero() && r.End.IsZero()
}

// LastTradingDays returns a window ending today that comfortably covers n
// trading days (weekends plus a margin for holidays).
func LastTradingDays(n int, now time.Time) DateRange {
	calendarDays := n*7/5 + 10
	end := now.UTC().Truncate(24 * time.Hour)
	return DateRange{
		Start: end.AddDate(0, 0, -calendarDays),
		End:   end.Add(24 * time.Hour),
	}
}
