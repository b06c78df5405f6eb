package recorder

import (
	"context"
	"time"
)

// ForecastEvent describes one forecast request. The predicted prices are not
// stored; results are recomputed on demand.
type ForecastEvent struct {
	RequestID string
	Source    string // "http", "telegram", "cli", "schedule"
	Symbol    string
	Horizon   int
	Model     string
	Outcome   string // "ok", "invalid_horizon", "missing_symbol", "data_unavailable", "error"
	TrainSize int
	Duration  time.Duration
	Error     string
	Timestamp time.Time
}

// DigestRun records one scheduled watchlist digest.
type DigestRun struct {
	Symbols   int
	Succeeded int
	Failed    int
	Sent      bool
	Timestamp time.Time
}

// Recorder persists the request journal.
type Recorder interface {
	RecordForecast(ctx context.Context, evt *ForecastEvent) error
	RecordDigest(ctx context.Context, run *DigestRun) error
	RecentForecasts(ctx context.Context, limit int) ([]ForecastEvent, error)
	Close() error
}
