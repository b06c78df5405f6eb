package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"stockdash/internal/api/models"
	"stockdash/internal/collector"
	"stockdash/internal/forecast"
)

func abort(c *gin.Context, status int, code, message string, details map[string]interface{}) {
	c.AbortWithStatusJSON(status, models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// writeError maps service and provider errors to HTTP responses.
func writeError(c *gin.Context, symbol string, err error) {
	details := map[string]interface{}{}
	if symbol != "" {
		details["symbol"] = symbol
	}
	switch {
	case errors.Is(err, forecast.ErrInvalidHorizon):
		abort(c, http.StatusBadRequest, "INVALID_HORIZON", err.Error(), details)
	case errors.Is(err, forecast.ErrMissingSymbol):
		abort(c, http.StatusBadRequest, "MISSING_SYMBOL", err.Error(), nil)
	case errors.Is(err, collector.ErrNoProfile):
		abort(c, http.StatusNotImplemented, "PROFILE_UNSUPPORTED", err.Error(), details)
	case errors.Is(err, collector.ErrNoData):
		abort(c, http.StatusNotFound, "DATA_UNAVAILABLE", "no market data for symbol", details)
	case errors.Is(err, context.DeadlineExceeded):
		abort(c, http.StatusGatewayTimeout, "DATA_UNAVAILABLE", "market data provider timed out", details)
	case errors.Is(err, forecast.ErrDataUnavailable):
		abort(c, http.StatusBadGateway, "DATA_UNAVAILABLE", "market data provider failed", details)
	default:
		abort(c, http.StatusBadGateway, "DATA_FETCH_ERROR", "market data provider failed", details)
	}
}
