package collector

import (
	"context"
	"errors"
	"time"

	"golang.org/x/time/rate"

	"stockdash/internal/metrics"
	"stockdash/internal/model"
)

// LimitedFetcher throttles an inner Fetcher with a shared token bucket and
// bounds each call with a timeout.
type LimitedFetcher struct {
	inner   Fetcher
	limiter *rate.Limiter
	timeout time.Duration
}

// NewLimitedFetcher allows perMinute calls per minute (burst 1 when perMinute
// is small). perMinute <= 0 disables throttling.
func NewLimitedFetcher(inner Fetcher, perMinute int, timeout time.Duration) *LimitedFetcher {
	limit := rate.Inf
	burst := 1
	if perMinute > 0 {
		limit = rate.Limit(float64(perMinute) / 60)
		burst = max(1, perMinute/10)
	}
	return &LimitedFetcher{
		inner:   inner,
		limiter: rate.NewLimiter(limit, burst),
		timeout: timeout,
	}
}

func (l *LimitedFetcher) Name() string { return l.inner.Name() }

func (l *LimitedFetcher) begin(ctx context.Context) (context.Context, context.CancelFunc, error) {
	if l.timeout > 0 {
		ctx, cancel := context.WithTimeout(ctx, l.timeout)
		if err := l.limiter.Wait(ctx); err != nil {
			cancel()
			return nil, nil, err
		}
		return ctx, cancel, nil
	}
	if err := l.limiter.Wait(ctx); err != nil {
		return nil, nil, err
	}
	return ctx, func() {}, nil
}

func (l *LimitedFetcher) record(err error) {
	result := "ok"
	switch {
	case err == nil:
	case errors.Is(err, ErrNoData):
		result = "empty"
	case errors.Is(err, context.DeadlineExceeded):
		result = "timeout"
	default:
		result = "error"
	}
	metrics.FetchTotal.WithLabelValues(l.inner.Name(), result).Inc()
}

func (l *LimitedFetcher) FetchDailyBars(ctx context.Context, symbol string, days int) ([]model.OHLCV, error) {
	ctx, cancel, err := l.begin(ctx)
	if err != nil {
		l.record(err)
		return nil, err
	}
	defer cancel()
	bars, err := l.inner.FetchDailyBars(ctx, symbol, days)
	l.record(err)
	return bars, err
}

func (l *LimitedFetcher) FetchRange(ctx context.Context, symbol string, rng model.DateRange) ([]model.OHLCV, error) {
	ctx, cancel, err := l.begin(ctx)
	if err != nil {
		l.record(err)
		return nil, err
	}
	defer cancel()
	bars, err := l.inner.FetchRange(ctx, symbol, rng)
	l.record(err)
	return bars, err
}

// FetchProfile passes through to the inner fetcher when it serves profiles.
func (l *LimitedFetcher) FetchProfile(ctx context.Context, symbol string) (*model.CompanyProfile, error) {
	pf, ok := l.inner.(ProfileFetcher)
	if !ok {
		return nil, ErrNoProfile
	}
	ctx, cancel, err := l.begin(ctx)
	if err != nil {
		l.record(err)
		return nil, err
	}
	defer cancel()
	p, err := pf.FetchProfile(ctx, symbol)
	l.record(err)
	return p, err
}
