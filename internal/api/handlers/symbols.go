package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"stockdash/internal/api/models"
	"stockdash/internal/collector"
	"stockdash/internal/model"
)

// SymbolHandler serves profile, prices and indicators for a ticker.
type SymbolHandler struct {
	col *collector.Collector
}

// NewSymbolHandler creates a new symbol handler
func NewSymbolHandler(col *collector.Collector) *SymbolHandler {
	return &SymbolHandler{col: col}
}

func symbolParam(c *gin.Context) string {
	return strings.ToUpper(strings.TrimSpace(c.Param("symbol")))
}

func parseRange(q models.RangeQuery) (model.DateRange, error) {
	var rng model.DateRange
	var err error
	if q.Start != "" {
		if rng.Start, err = time.Parse("2006-01-02", q.Start); err != nil {
			return rng, fmt.Errorf("start: expected YYYY-MM-DD, got %q", q.Start)
		}
	}
	if q.End != "" {
		if rng.End, err = time.Parse("2006-01-02", q.End); err != nil {
			return rng, fmt.Errorf("end: expected YYYY-MM-DD, got %q", q.End)
		}
		// Inclusive of the end day.
		rng.End = rng.End.Add(24*time.Hour - time.Nanosecond)
	}
	if !rng.Start.IsZero() && !rng.End.IsZero() && rng.Start.After(rng.End) {
		return rng, fmt.Errorf("start %s is after end %s", q.Start, q.End)
	}
	return rng, nil
}

func (h *SymbolHandler) bindRange(c *gin.Context, q *models.RangeQuery) (model.DateRange, bool) {
	rng, err := parseRange(*q)
	if err != nil {
		abort(c, http.StatusBadRequest, "INVALID_DATE_RANGE", err.Error(), nil)
		return rng, false
	}
	return rng, true
}

// GetProfile handles GET /api/v1/symbols/:symbol/profile
func (h *SymbolHandler) GetProfile(c *gin.Context) {
	sym := symbolParam(c)
	p, err := h.col.Profile(c.Request.Context(), sym)
	if err != nil {
		writeError(c, sym, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// GetPrices handles GET /api/v1/symbols/:symbol/prices
func (h *SymbolHandler) GetPrices(c *gin.Context) {
	sym := symbolParam(c)
	var q models.RangeQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		abort(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
		return
	}
	rng, ok := h.bindRange(c, &q)
	if !ok {
		return
	}
	series, err := h.col.Prices(c.Request.Context(), sym, rng)
	if err != nil {
		writeError(c, sym, err)
		return
	}
	c.JSON(http.StatusOK, models.NewPricesResponse(series))
}

// GetIndicators handles GET /api/v1/symbols/:symbol/indicators
func (h *SymbolHandler) GetIndicators(c *gin.Context) {
	sym := symbolParam(c)
	var q models.IndicatorQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		abort(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
		return
	}
	rng, ok := h.bindRange(c, &q.RangeQuery)
	if !ok {
		return
	}
	opts := h.col.Options
	if q.Span > 0 {
		opts.EMASpan = q.Span
	}
	if q.Window > 0 {
		opts.SMAWindow = q.Window
	}
	set, err := h.col.Indicators(c.Request.Context(), sym, rng, opts)
	if err != nil {
		writeError(c, sym, err)
		return
	}
	c.JSON(http.StatusOK, models.NewIndicatorsResponse(set))
}

// GetOverview handles GET /api/v1/symbols/:symbol/overview
func (h *SymbolHandler) GetOverview(c *gin.Context) {
	sym := symbolParam(c)
	var q models.RangeQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		abort(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
		return
	}
	rng, ok := h.bindRange(c, &q)
	if !ok {
		return
	}
	ov, err := h.col.Overview(c.Request.Context(), sym, rng)
	if err != nil {
		writeError(c, sym, err)
		return
	}
	c.JSON(http.StatusOK, models.OverviewResponse{
		Profile:    ov.Profile,
		Prices:     models.NewPricesResponse(ov.Series),
		Indicators: models.NewIndicatorsResponse(ov.Indicators),
	})
}
