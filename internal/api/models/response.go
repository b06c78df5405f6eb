package models

import (
	"time"

	"github.com/shopspring/decimal"

	"stockdash/internal/model"
	"stockdash/internal/recorder"
)

func init() {
	// Prices are emitted as JSON numbers for charting clients.
	decimal.MarshalJSONWithoutQuotes = true
}

const dateLayout = "2006-01-02"

// price keeps every significant digit so sub-cent quotes survive; rounding
// for display is left to the client.
func price(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

// ForecastResponse is the body of a successful forecast.
type ForecastResponse struct {
	Symbol      string          `json:"symbol"`
	Model       string          `json:"model"`
	Horizon     int             `json:"horizon"`
	LastIndex   int             `json:"last_index"`
	LastClose   decimal.Decimal `json:"last_close"`
	LastDate    string          `json:"last_date"`
	TrainSize   int             `json:"train_size"`
	HoldoutSize int             `json:"holdout_size"`
	HoldoutMAE  decimal.Decimal `json:"holdout_mae"`
	Points      []ForecastPoint `json:"points"`
	GeneratedAt time.Time       `json:"generated_at"`
}

// ForecastPoint pairs an ordinal day index with a predicted close.
type ForecastPoint struct {
	Index int             `json:"index"`
	Price decimal.Decimal `json:"price"`
}

// NewForecastResponse converts a service result.
func NewForecastResponse(res *model.ForecastResult) ForecastResponse {
	out := ForecastResponse{
		Symbol:      res.Symbol,
		Model:       res.Model,
		Horizon:     len(res.Points),
		LastIndex:   res.LastIndex,
		LastClose:   price(res.LastClose),
		LastDate:    res.LastDate.Format(dateLayout),
		TrainSize:   res.TrainSize,
		HoldoutSize: res.HoldoutSize,
		HoldoutMAE:  price(res.HoldoutMAE),
		Points:      make([]ForecastPoint, len(res.Points)),
		GeneratedAt: res.GeneratedAt,
	}
	for i, p := range res.Points {
		out.Points[i] = ForecastPoint{Index: p.Index, Price: price(p.Price)}
	}
	return out
}

// Bar is one daily observation.
type Bar struct {
	Date   string          `json:"date"`
	Open   decimal.Decimal `json:"open"`
	High   decimal.Decimal `json:"high"`
	Low    decimal.Decimal `json:"low"`
	Close  decimal.Decimal `json:"close"`
	Volume int64           `json:"volume"`
}

// PricesResponse is the price-over-time series.
type PricesResponse struct {
	Symbol string `json:"symbol"`
	Count  int    `json:"count"`
	Bars   []Bar  `json:"bars"`
}

// NewPricesResponse converts a series.
func NewPricesResponse(s *model.Series) PricesResponse {
	out := PricesResponse{Symbol: s.Symbol, Count: s.Len(), Bars: make([]Bar, s.Len())}
	for i, b := range s.Bars {
		out.Bars[i] = Bar{
			Date:   b.Time.Format(dateLayout),
			Open:   price(b.Open),
			High:   price(b.High),
			Low:    price(b.Low),
			Close:  price(b.Close),
			Volume: int64(b.Volume),
		}
	}
	return out
}

// Point is one dated indicator value.
type Point struct {
	Date  string          `json:"date"`
	Value decimal.Decimal `json:"value"`
}

// IndicatorsResponse carries the moving-average series and summary stats.
type IndicatorsResponse struct {
	Symbol    string          `json:"symbol"`
	EMASpan   int             `json:"ema_span"`
	EMA       []Point         `json:"ema"`
	SMAWindow int             `json:"sma_window,omitempty"`
	SMA       []Point         `json:"sma,omitempty"`
	RSI       decimal.Decimal `json:"rsi"`
	High      decimal.Decimal `json:"high"`
	Low       decimal.Decimal `json:"low"`
	Position  decimal.Decimal `json:"position"`
}

func points(in []model.IndicatorPoint) []Point {
	out := make([]Point, len(in))
	for i, p := range in {
		out[i] = Point{Date: p.Time.Format(dateLayout), Value: price(p.Value)}
	}
	return out
}

// NewIndicatorsResponse converts an indicator set.
func NewIndicatorsResponse(set *model.IndicatorSet) IndicatorsResponse {
	return IndicatorsResponse{
		Symbol:    set.Symbol,
		EMASpan:   set.EMASpan,
		EMA:       points(set.EMA),
		SMAWindow: set.SMAWin,
		SMA:       points(set.SMA),
		RSI:       decimal.NewFromFloat(set.RSI).Round(2),
		High:      price(set.High),
		Low:       price(set.Low),
		Position:  decimal.NewFromFloat(set.Position).Round(4),
	}
}

// OverviewResponse bundles profile, prices and indicators.
type OverviewResponse struct {
	Profile    *model.CompanyProfile `json:"profile,omitempty"`
	Prices     PricesResponse        `json:"prices"`
	Indicators IndicatorsResponse    `json:"indicators"`
}

// JournalEntry is one recorded forecast request.
type JournalEntry struct {
	RequestID  string    `json:"request_id"`
	Source     string    `json:"source"`
	Symbol     string    `json:"symbol"`
	Horizon    int       `json:"horizon"`
	Model      string    `json:"model,omitempty"`
	Outcome    string    `json:"outcome"`
	DurationMS int64     `json:"duration_ms"`
	Error      string    `json:"error,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewJournal converts recorder events.
func NewJournal(events []recorder.ForecastEvent) []JournalEntry {
	out := make([]JournalEntry, len(events))
	for i, e := range events {
		out[i] = JournalEntry{
			RequestID:  e.RequestID,
			Source:     e.Source,
			Symbol:     e.Symbol,
			Horizon:    e.Horizon,
			Model:      e.Model,
			Outcome:    e.Outcome,
			DurationMS: e.Duration.Milliseconds(),
			Error:      e.Error,
			Timestamp:  e.Timestamp.UTC(),
		}
	}
	return out
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
