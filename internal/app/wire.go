// Package app assembles services from configuration for the binaries.
package app

import (
	"fmt"
	"log/slog"

	"stockdash/internal/collector"
	"stockdash/internal/config"
	"stockdash/internal/forecast"
	"stockdash/internal/recorder"
	"stockdash/internal/regression"
)

// NewFetcher builds the configured provider behind the shared rate limiter.
func NewFetcher(cfg *config.Config) (collector.Fetcher, error) {
	ds := cfg.DataSource
	var f collector.Fetcher
	switch ds.Provider {
	case "", "yahoo":
		f = collector.NewYahooFetcher(cfg.Proxy, ds.Timeout)
	case "alpaca":
		f = collector.NewAlpacaFetcher(ds.APIKey, ds.APISecret, ds.BaseURL, ds.Feed)
	case "rest":
		f = collector.NewRESTFetcher(ds.BaseURL, ds.APIKey, cfg.Proxy, ds.Timeout)
	case "parquet":
		// Local files need no throttling.
		return collector.NewParquetArchive(ds.ArchiveDir), nil
	case "mock":
		return &collector.MockFetcher{Price: 100}, nil
	default:
		return nil, fmt.Errorf("unknown data provider %q", ds.Provider)
	}
	return collector.NewLimitedFetcher(f, ds.RatePerMin, ds.Timeout), nil
}

// NewForecastService builds the forecast service from the forecast section.
func NewForecastService(cfg *config.Config, f collector.Fetcher, logger *slog.Logger) (*forecast.Service, error) {
	params := regression.DefaultParams()
	params.C = cfg.Forecast.C
	params.Epsilon = cfg.Forecast.Epsilon
	return forecast.NewService(f, forecast.Config{
		LookbackDays:    cfg.Forecast.LookbackDays,
		HoldoutFraction: cfg.Forecast.HoldoutFraction,
		Model:           cfg.Forecast.Model,
		Params:          params,
		FetchTimeout:    cfg.DataSource.Timeout,
	}, logger)
}

// OpenRecorder opens the SQLite journal, falling back to a no-op recorder
// when no path is configured or the database cannot be opened.
func OpenRecorder(cfg *config.Config, logger *slog.Logger) recorder.Recorder {
	if cfg.Database.SQLitePath == "" {
		return recorder.NewNoopRecorder()
	}
	rec, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, logger)
	if err != nil {
		logger.Warn("init sqlite recorder failed, using noop", "err", err)
		return recorder.NewNoopRecorder()
	}
	return rec
}
