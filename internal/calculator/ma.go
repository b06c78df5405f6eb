package calculator

import (
	"errors"

	"stockdash/internal/model"
)

// CalculateSMA computes the simple moving average of the given prices over the specified period.
func CalculateSMA(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(prices) < period {
		return 0, errors.New("not enough data for SMA calculation")
	}
	sum := 0.0
	for i := len(prices) - period; i < len(prices); i++ {
		sum += prices[i]
	}
	return sum / float64(period), nil
}

// SMASeries returns the rolling simple moving average for every bar that has a
// full window behind it. The first window-1 bars produce no point.
func SMASeries(bars []model.OHLCV, window int) ([]model.IndicatorPoint, error) {
	if window <= 0 {
		return nil, errors.New("window must be positive")
	}
	if len(bars) < window {
		return nil, nil
	}
	out := make([]model.IndicatorPoint, 0, len(bars)-window+1)
	sum := 0.0
	for i, b := range bars {
		sum += b.Close
		if i >= window {
			sum -= bars[i-window].Close
		}
		if i >= window-1 {
			out = append(out, model.IndicatorPoint{Time: b.Time, Value: sum / float64(window)})
		}
	}
	return out, nil
}

// EMASeries returns the exponential moving average of closes with the given
// span, seeded with the first close (no bias adjustment):
//
//	ema[0] = close[0]
//	ema[i] = alpha*close[i] + (1-alpha)*ema[i-1], alpha = 2/(span+1)
func EMASeries(bars []model.OHLCV, span int) ([]model.IndicatorPoint, error) {
	if span <= 0 {
		return nil, errors.New("span must be positive")
	}
	if len(bars) == 0 {
		return nil, nil
	}
	alpha := 2.0 / (float64(span) + 1.0)
	out := make([]model.IndicatorPoint, len(bars))
	ema := bars[0].Close
	for i, b := range bars {
		if i > 0 {
			ema = alpha*b.Close + (1-alpha)*ema
		}
		out[i] = model.IndicatorPoint{Time: b.Time, Value: ema}
	}
	return out, nil
}

func extractCloses(bars []model.OHLCV) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}
