package calculator

import (
	"fmt"

	"stockdash/internal/model"
)

// Options selects the indicator windows.
type Options struct {
	EMASpan   int
	SMAWindow int
	RSIPeriod int
}

// DefaultOptions mirrors the dashboard: EMA(20), SMA(20), RSI(14).
func DefaultOptions() Options {
	return Options{EMASpan: 20, SMAWindow: 20, RSIPeriod: 14}
}

// Compute derives the moving averages and range statistics of a series.
func Compute(series *model.Series, opts Options) (*model.IndicatorSet, error) {
	if series.Len() == 0 {
		return nil, fmt.Errorf("compute indicators: empty series")
	}
	ema, err := EMASeries(series.Bars, opts.EMASpan)
	if err != nil {
		return nil, fmt.Errorf("ema: %w", err)
	}
	set := &model.IndicatorSet{Symbol: series.Symbol, EMASpan: opts.EMASpan, EMA: ema}

	if opts.SMAWindow > 0 {
		sma, err := SMASeries(series.Bars, opts.SMAWindow)
		if err != nil {
			return nil, fmt.Errorf("sma: %w", err)
		}
		set.SMAWin = opts.SMAWindow
		set.SMA = sma
	}

	set.RSI = 50
	if opts.RSIPeriod > 0 {
		rsi, err := CalculateRSI(extractCloses(series.Bars), opts.RSIPeriod)
		if err != nil {
			return nil, fmt.Errorf("rsi: %w", err)
		}
		set.RSI = rsi
	}

	high, low, err := CalculateRange(series.Bars, 0)
	if err != nil {
		return nil, err
	}
	set.High, set.Low = high, low
	last, _ := series.Last()
	if pos, err := CalculatePosition(last.Close, high, low); err == nil {
		set.Position = pos
	}
	return set, nil
}
