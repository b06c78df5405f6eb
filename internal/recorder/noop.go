package recorder

import "context"

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordForecast(context.Context, *ForecastEvent) error { return nil }
func (n *NoopRecorder) RecordDigest(context.Context, *DigestRun) error       { return nil }
func (n *NoopRecorder) RecentForecasts(context.Context, int) ([]ForecastEvent, error) {
	return nil, nil
}
func (n *NoopRecorder) Close() error { return nil }
