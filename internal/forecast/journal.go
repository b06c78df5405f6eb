package forecast

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"stockdash/internal/model"
	"stockdash/internal/recorder"
)

// Forecaster is implemented by Service and by its decorators.
type Forecaster interface {
	Forecast(ctx context.Context, req model.ForecastRequest) (*model.ForecastResult, error)
}

var _ Forecaster = (*Service)(nil)

type requestIDKey struct{}

// WithRequestID attaches a request id that the journal will store.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the id attached by WithRequestID, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// Journaled records every forecast call to a Recorder.
type Journaled struct {
	next   Forecaster
	rec    recorder.Recorder
	source string
	log    *slog.Logger
}

// NewJournaled wraps next so each call is written to rec under source.
func NewJournaled(next Forecaster, rec recorder.Recorder, source string, logger *slog.Logger) *Journaled {
	if logger == nil {
		logger = slog.Default()
	}
	return &Journaled{next: next, rec: rec, source: source, log: logger}
}

func (j *Journaled) Forecast(ctx context.Context, req model.ForecastRequest) (*model.ForecastResult, error) {
	started := time.Now()
	res, err := j.next.Forecast(ctx, req)

	id := RequestID(ctx)
	if id == "" {
		id = uuid.NewString()
	}
	evt := &recorder.ForecastEvent{
		RequestID: id,
		Source:    j.source,
		Symbol:    req.Symbol,
		Horizon:   req.Horizon,
		Outcome:   Outcome(err),
		Duration:  time.Since(started),
		Timestamp: started,
	}
	if res != nil {
		evt.Symbol = res.Symbol
		evt.Model = res.Model
		evt.TrainSize = res.TrainSize
	}
	if err != nil {
		evt.Error = err.Error()
	}
	// The journal must not fail the forecast or be cut short by a cancelled request.
	if rerr := j.rec.RecordForecast(context.WithoutCancel(ctx), evt); rerr != nil {
		j.log.Error("record forecast", "request_id", id, "err", rerr)
	}
	return res, err
}
