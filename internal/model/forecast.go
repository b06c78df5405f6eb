package model

import "time"

// ForecastRequest asks for Horizon future closes of Symbol.
type ForecastRequest struct {
	Symbol  string `json:"symbol" form:"symbol"`
	Horizon int    `json:"horizon" form:"horizon"`
}

// ForecastPoint pairs a future ordinal day index with its predicted close.
type ForecastPoint struct {
	Index int     `json:"index"`
	Price float64 `json:"price"`
}

// ForecastResult is the output of one forecast call. It is computed on demand
// and never cached.
type ForecastResult struct {
	Symbol      string          `json:"symbol"`
	Model       string          `json:"model"`
	Points      []ForecastPoint `json:"points"`
	LastIndex   int             `json:"last_index"`
	LastClose   float64         `json:"last_close"`
	LastDate    time.Time       `json:"last_date"`
	TrainSize   int             `json:"train_size"`
	HoldoutSize int             `json:"holdout_size"`
	// Mean absolute error on the holdout observations; 0 when HoldoutSize is 0.
	HoldoutMAE  float64   `json:"holdout_mae"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Prices returns the predicted closes in order.
func (r *ForecastResult) Prices() []float64 {
	out := make([]float64, len(r.Points))
	for i, p := range r.Points {
		out[i] = p.Price
	}
	return out
}
