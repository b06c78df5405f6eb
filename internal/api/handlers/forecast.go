package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"stockdash/internal/api/models"
	"stockdash/internal/forecast"
	"stockdash/internal/model"
	"stockdash/internal/recorder"
)

// ForecastHandler handles forecast requests
type ForecastHandler struct {
	fc         forecast.Forecaster
	rec        recorder.Recorder
	maxHorizon int
}

// NewForecastHandler creates a new forecast handler. maxHorizon <= 0 means no cap.
func NewForecastHandler(fc forecast.Forecaster, rec recorder.Recorder, maxHorizon int) *ForecastHandler {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &ForecastHandler{fc: fc, rec: rec, maxHorizon: maxHorizon}
}

// Forecast handles GET and POST /api/v1/forecast
func (h *ForecastHandler) Forecast(c *gin.Context) {
	var req models.ForecastRequest
	var err error
	if c.Request.Method == http.MethodPost {
		err = c.ShouldBindJSON(&req)
	} else {
		err = c.ShouldBindQuery(&req)
	}
	if err != nil {
		abort(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
		return
	}
	if h.maxHorizon > 0 && req.Horizon > h.maxHorizon {
		abort(c, http.StatusBadRequest, "INVALID_HORIZON",
			fmt.Sprintf("horizon must be at most %d", h.maxHorizon),
			map[string]interface{}{"max_horizon": h.maxHorizon})
		return
	}

	res, err := h.fc.Forecast(c.Request.Context(), model.ForecastRequest{Symbol: req.Symbol, Horizon: req.Horizon})
	if err != nil {
		writeError(c, req.Symbol, err)
		return
	}
	c.JSON(http.StatusOK, models.NewForecastResponse(res))
}

// RecentForecasts handles GET /api/v1/forecasts/recent
func (h *ForecastHandler) RecentForecasts(c *gin.Context) {
	var q struct {
		Limit int `form:"limit" binding:"omitempty,min=1,max=500"`
	}
	if err := c.ShouldBindQuery(&q); err != nil {
		abort(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
		return
	}
	events, err := h.rec.RecentForecasts(c.Request.Context(), q.Limit)
	if err != nil {
		abort(c, http.StatusInternalServerError, "JOURNAL_ERROR", err.Error(), nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"forecasts": models.NewJournal(events)})
}
