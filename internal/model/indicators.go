package model

import "time"

// IndicatorPoint is one dated value of a derived series.
type IndicatorPoint struct {
	Time  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// IndicatorSet holds the moving-average series and summary statistics
// computed over a price series.
type IndicatorSet struct {
	Symbol  string           `json:"symbol"`
	EMASpan int              `json:"ema_span"`
	EMA     []IndicatorPoint `json:"ema"`
	SMAWin  int              `json:"sma_window"`
	SMA     []IndicatorPoint `json:"sma,omitempty"`
	RSI     float64          `json:"rsi"`
	High    float64          `json:"high"`
	Low     float64          `json:"low"`
	// Position of the last close within [Low, High], 0.0 ~ 1.0.
	Position float64 `json:"position"`
}
