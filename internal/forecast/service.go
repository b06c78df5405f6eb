// Package forecast predicts the next closes of a symbol from a short window of
// daily observations. Each call fetches fresh data, fits a new model and
// discards it; the Service keeps no state between calls.
package forecast

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"stockdash/internal/collector"
	"stockdash/internal/metrics"
	"stockdash/internal/model"
	"stockdash/internal/regression"
)

var (
	// ErrInvalidHorizon is returned for a horizon below 1.
	ErrInvalidHorizon = errors.New("horizon must be a positive integer")
	// ErrMissingSymbol is returned when no symbol is given.
	ErrMissingSymbol = errors.New("symbol is required")
	// ErrDataUnavailable is returned when the provider fails or has no observations.
	ErrDataUnavailable = errors.New("market data unavailable")
)

// Config tunes the Service.
type Config struct {
	LookbackDays    int
	HoldoutFraction float64
	Model           string
	Params          regression.Params
	FetchTimeout    time.Duration
}

// DefaultConfig returns the stock dashboard settings.
func DefaultConfig() Config {
	return Config{
		LookbackDays:    15,
		HoldoutFraction: 0.1,
		Model:           "svr",
		Params:          regression.DefaultParams(),
		FetchTimeout:    10 * time.Second,
	}
}

// Service runs forecasts against a Fetcher.
type Service struct {
	fetcher collector.Fetcher
	cfg     Config
	log     *slog.Logger
	now     func() time.Time
}

// NewService validates cfg and builds a Service. Zero fields take defaults.
func NewService(fetcher collector.Fetcher, cfg Config, logger *slog.Logger) (*Service, error) {
	def := DefaultConfig()
	if cfg.LookbackDays <= 0 {
		cfg.LookbackDays = def.LookbackDays
	}
	if cfg.HoldoutFraction < 0 || cfg.HoldoutFraction >= 1 {
		return nil, fmt.Errorf("holdout fraction %v out of range [0,1)", cfg.HoldoutFraction)
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = def.FetchTimeout
	}
	if cfg.Params == (regression.Params{}) {
		cfg.Params = def.Params
	}
	if _, err := regression.New(cfg.Model, cfg.Params); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		fetcher: fetcher,
		cfg:     cfg,
		log:     logger.With("component", "forecast"),
		now:     time.Now,
	}, nil
}

// Config returns the effective configuration.
func (s *Service) Config() Config { return s.cfg }

// Forecast fetches the lookback window for req.Symbol, fits the model on
// ordinal day index against close, and predicts req.Horizon points at
// indices n..n+horizon-1 where n is the number of observations.
func (s *Service) Forecast(ctx context.Context, req model.ForecastRequest) (*model.ForecastResult, error) {
	started := s.now()
	res, err := s.forecast(ctx, req)
	metrics.ObserveForecast(Outcome(err), started)
	if err != nil {
		s.log.Warn("forecast failed", "symbol", req.Symbol, "horizon", req.Horizon, "err", err)
		return nil, err
	}
	s.log.Debug("forecast done",
		"symbol", res.Symbol,
		"horizon", req.Horizon,
		"train", res.TrainSize,
		"holdout_mae", res.HoldoutMAE,
		"took", time.Since(started))
	return res, nil
}

func (s *Service) forecast(ctx context.Context, req model.ForecastRequest) (*model.ForecastResult, error) {
	if req.Horizon <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidHorizon, req.Horizon)
	}
	symbol := strings.ToUpper(strings.TrimSpace(req.Symbol))
	if symbol == "" {
		return nil, ErrMissingSymbol
	}

	fctx, cancel := context.WithTimeout(ctx, s.cfg.FetchTimeout)
	bars, err := s.fetcher.FetchDailyBars(fctx, symbol, s.cfg.LookbackDays)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDataUnavailable, symbol, err)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: %s: no observations", ErrDataUnavailable, symbol)
	}
	if len(bars) > s.cfg.LookbackDays {
		bars = bars[len(bars)-s.cfg.LookbackDays:]
	}

	n := len(bars)
	x := make([]float64, n)
	y := make([]float64, n)
	for i, b := range bars {
		x[i] = float64(i)
		y[i] = b.Close
	}

	holdout := HoldoutSize(n, s.cfg.HoldoutFraction)
	train := n - holdout

	reg, err := regression.New(s.cfg.Model, s.cfg.Params)
	if err != nil {
		return nil, err
	}
	if err := reg.Fit(x[:train], y[:train]); err != nil {
		return nil, fmt.Errorf("fit %s: %w", reg.Name(), err)
	}

	mae := 0.0
	for i := train; i < n; i++ {
		mae += math.Abs(reg.Predict(x[i]) - y[i])
	}
	if holdout > 0 {
		mae /= float64(holdout)
	}

	last := bars[n-1]
	res := &model.ForecastResult{
		Symbol:      symbol,
		Model:       reg.Name(),
		Points:      make([]model.ForecastPoint, req.Horizon),
		LastIndex:   n - 1,
		LastClose:   last.Close,
		LastDate:    last.Time,
		TrainSize:   train,
		HoldoutSize: holdout,
		HoldoutMAE:  mae,
		GeneratedAt: s.now().UTC(),
	}
	for k := range res.Points {
		idx := n + k
		res.Points[k] = model.ForecastPoint{Index: idx, Price: reg.Predict(float64(idx))}
	}
	return res, nil
}

// HoldoutSize returns ceil(n*fraction), clamped so at least one observation
// stays in the training set.
func HoldoutSize(n int, fraction float64) int {
	if n <= 1 || fraction <= 0 {
		return 0
	}
	h := int(math.Ceil(float64(n) * fraction))
	return min(h, n-1)
}

// Outcome maps a Forecast error to a short label for metrics and the journal.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrInvalidHorizon):
		return "invalid_horizon"
	case errors.Is(err, ErrMissingSymbol):
		return "missing_symbol"
	case errors.Is(err, ErrDataUnavailable):
		return "data_unavailable"
	default:
		return "error"
	}
}
