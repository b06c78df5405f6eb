package models

// ForecastRequest is accepted as a JSON body (POST) or query string (GET).
// Horizon is validated by the forecast service so that a missing or zero
// value yields INVALID_HORIZON rather than a binding error.
type ForecastRequest struct {
	Symbol  string `json:"symbol" form:"symbol"`
	Horizon int    `json:"horizon" form:"horizon"`
}

// RangeQuery holds the optional date bounds of a price request (YYYY-MM-DD).
type RangeQuery struct {
	Start string `form:"start"`
	End   string `form:"end"`
}

// IndicatorQuery extends RangeQuery with indicator windows.
type IndicatorQuery struct {
	RangeQuery
	Span   int `form:"span" binding:"omitempty,min=1,max=400"`
	Window int `form:"window" binding:"omitempty,min=1,max=400"`
}
