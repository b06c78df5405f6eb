package forecast

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"
	"time"

	"stockdash/internal/collector"
	"stockdash/internal/model"
	"stockdash/internal/regression"
)

var day0 = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, f collector.Fetcher, cfg Config) *Service {
	t.Helper()
	svc, err := NewService(f, cfg, nil)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	svc.now = func() time.Time { return day0 }
	return svc
}

func TestForecastLinearTrend(t *testing.T) {
	m := &collector.MockFetcher{Bars: collector.LinearBars(15, 100, 1, day0)}
	svc := newTestService(t, m, DefaultConfig())

	res, err := svc.Forecast(context.Background(), model.ForecastRequest{Symbol: "aapl", Horizon: 3})
	if err != nil {
		t.Fatal(err)
	}
	if res.Symbol != "AAPL" {
		t.Errorf("symbol = %s", res.Symbol)
	}
	if len(res.Points) != 3 {
		t.Fatalf("points = %d, want 3", len(res.Points))
	}
	for k, p := range res.Points {
		if p.Index != 15+k {
			t.Errorf("point %d index = %d, want %d", k, p.Index, 15+k)
		}
		if p.Price < 114 || p.Price > 119 {
			t.Errorf("point %d price = %.3f, want within [114, 119]", k, p.Price)
		}
		if k > 0 && p.Price <= res.Points[k-1].Price {
			t.Errorf("predictions not increasing at %d", k)
		}
	}
	if res.LastIndex != 14 || res.LastClose != 114 {
		t.Errorf("last = %d/%v", res.LastIndex, res.LastClose)
	}
	if res.TrainSize != 13 || res.HoldoutSize != 2 {
		t.Errorf("train/holdout = %d/%d, want 13/2", res.TrainSize, res.HoldoutSize)
	}
	if res.HoldoutMAE > 1 {
		t.Errorf("holdout MAE = %v", res.HoldoutMAE)
	}
}

func TestForecastDeterministic(t *testing.T) {
	bars := collector.LinearBars(15, 50, 0.7, day0)
	bars[4].Close = 60
	bars[9].Close = 48
	m := &collector.MockFetcher{Bars: bars}
	svc := newTestService(t, m, DefaultConfig())

	req := model.ForecastRequest{Symbol: "MSFT", Horizon: 5}
	a, err := svc.Forecast(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	b, err := svc.Forecast(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Errorf("results differ:\n%+v\n%+v", a, b)
	}
}

func TestForecastIndicesStrictlyIncreasing(t *testing.T) {
	for _, n := range []int{2, 7, 15} {
		m := &collector.MockFetcher{Bars: collector.LinearBars(n, 10, -0.5, day0)}
		svc := newTestService(t, m, DefaultConfig())
		res, err := svc.Forecast(context.Background(), model.ForecastRequest{Symbol: "X", Horizon: 10})
		if err != nil {
			t.Fatal(err)
		}
		if len(res.Points) != 10 || res.Points[0].Index != n {
			t.Fatalf("n=%d: first index %d, len %d", n, res.Points[0].Index, len(res.Points))
		}
		for k := 1; k < len(res.Points); k++ {
			if res.Points[k].Index != res.Points[k-1].Index+1 {
				t.Errorf("n=%d: gap at %d", n, k)
			}
		}
	}
}

func TestForecastInvalidHorizon(t *testing.T) {
	for _, h := range []int{0, -1, -100} {
		m := &collector.MockFetcher{Bars: collector.LinearBars(15, 100, 1, day0)}
		svc := newTestService(t, m, DefaultConfig())
		res, err := svc.Forecast(context.Background(), model.ForecastRequest{Symbol: "AAPL", Horizon: h})
		if !errors.Is(err, ErrInvalidHorizon) {
			t.Errorf("horizon %d: err = %v", h, err)
		}
		if res != nil {
			t.Errorf("horizon %d: result should be nil", h)
		}
		if m.Calls() != 0 {
			t.Errorf("horizon %d: fetcher called %d times", h, m.Calls())
		}
	}
}

func TestForecastMissingSymbol(t *testing.T) {
	m := &collector.MockFetcher{Bars: collector.LinearBars(15, 100, 1, day0)}
	svc := newTestService(t, m, DefaultConfig())
	_, err := svc.Forecast(context.Background(), model.ForecastRequest{Symbol: "  ", Horizon: 3})
	if !errors.Is(err, ErrMissingSymbol) {
		t.Errorf("err = %v", err)
	}
	if m.Calls() != 0 {
		t.Error("fetcher should not be called")
	}
}

func TestForecastDataUnavailable(t *testing.T) {
	tests := []struct {
		name string
		m    *collector.MockFetcher
	}{
		{"provider error", &collector.MockFetcher{Err: errors.New("connection refused")}},
		{"no data", &collector.MockFetcher{Err: collector.ErrNoData}},
		{"empty series", &collector.MockFetcher{Bars: []model.OHLCV{}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(t, tt.m, DefaultConfig())
			res, err := svc.Forecast(context.Background(), model.ForecastRequest{Symbol: "ZZZZ", Horizon: 3})
			if !errors.Is(err, ErrDataUnavailable) {
				t.Errorf("err = %v", err)
			}
			if res != nil {
				t.Error("result should be nil")
			}
			if got := Outcome(err); got != "data_unavailable" {
				t.Errorf("outcome = %s", got)
			}
		})
	}
}

// stalledFetcher never answers before the context ends.
type stalledFetcher struct{}

func (stalledFetcher) Name() string { return "stalled" }

func (stalledFetcher) FetchDailyBars(ctx context.Context, _ string, _ int) ([]model.OHLCV, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (stalledFetcher) FetchRange(ctx context.Context, _ string, _ model.DateRange) ([]model.OHLCV, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestForecastFetchTimeout(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FetchTimeout = 20 * time.Millisecond
	svc := newTestService(t, stalledFetcher{}, cfg)

	started := time.Now()
	res, err := svc.Forecast(context.Background(), model.ForecastRequest{Symbol: "AAPL", Horizon: 3})
	if res != nil {
		t.Errorf("expected nil result, got %+v", res)
	}
	if !errors.Is(err, ErrDataUnavailable) {
		t.Errorf("err = %v, want ErrDataUnavailable", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want it to wrap context.DeadlineExceeded", err)
	}
	if took := time.Since(started); took > 2*time.Second {
		t.Errorf("timeout not applied, call took %v", took)
	}
}

func TestForecastSingleObservation(t *testing.T) {
	m := &collector.MockFetcher{Bars: collector.LinearBars(1, 42.5, 0, day0)}
	svc := newTestService(t, m, DefaultConfig())
	res, err := svc.Forecast(context.Background(), model.ForecastRequest{Symbol: "ONE", Horizon: 4})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Points) != 4 || res.HoldoutSize != 0 || res.TrainSize != 1 {
		t.Fatalf("res = %+v", res)
	}
	for _, p := range res.Points {
		if math.Abs(p.Price-42.5) > 1e-9 {
			t.Errorf("price = %v, want 42.5", p.Price)
		}
	}
}

func TestForecastTrimsToLookback(t *testing.T) {
	m := &collector.MockFetcher{Bars: collector.LinearBars(40, 1, 1, day0)}
	// MockFetcher already trims; pass a fetcher that ignores days.
	svc := newTestService(t, fullFetcher{m}, DefaultConfig())
	res, err := svc.Forecast(context.Background(), model.ForecastRequest{Symbol: "X", Horizon: 1})
	if err != nil {
		t.Fatal(err)
	}
	if res.LastIndex != 14 || res.Points[0].Index != 15 {
		t.Errorf("last index = %d, first point = %d", res.LastIndex, res.Points[0].Index)
	}
}

type fullFetcher struct{ *collector.MockFetcher }

func (f fullFetcher) FetchDailyBars(ctx context.Context, symbol string, _ int) ([]model.OHLCV, error) {
	return f.MockFetcher.FetchDailyBars(ctx, symbol, 0)
}

func TestForecastOLS(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Model = "ols"
	m := &collector.MockFetcher{Bars: collector.LinearBars(15, 100, 1, day0)}
	svc := newTestService(t, m, cfg)
	res, err := svc.Forecast(context.Background(), model.ForecastRequest{Symbol: "X", Horizon: 2})
	if err != nil {
		t.Fatal(err)
	}
	if res.Model != "ols" {
		t.Errorf("model = %s", res.Model)
	}
	if math.Abs(res.Points[0].Price-115) > 1e-9 || math.Abs(res.Points[1].Price-116) > 1e-9 {
		t.Errorf("prices = %v", res.Prices())
	}
}

func TestNewServiceValidation(t *testing.T) {
	m := &collector.MockFetcher{}
	if _, err := NewService(m, Config{Model: "tree"}, nil); err == nil {
		t.Error("unknown model should fail")
	}
	if _, err := NewService(m, Config{HoldoutFraction: 1}, nil); err == nil {
		t.Error("holdout fraction 1 should fail")
	}
	svc, err := NewService(m, Config{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if svc.Config().LookbackDays != 15 || svc.Config().Params != regression.DefaultParams() {
		t.Errorf("defaults not applied: %+v", svc.Config())
	}
}

func TestHoldoutSize(t *testing.T) {
	tests := []struct {
		n    int
		frac float64
		want int
	}{
		{15, 0.1, 2},
		{10, 0.1, 1},
		{1, 0.1, 0},
		{2, 0.9, 1},
		{15, 0, 0},
	}
	for _, tt := range tests {
		if got := HoldoutSize(tt.n, tt.frac); got != tt.want {
			t.Errorf("HoldoutSize(%d, %v) = %d, want %d", tt.n, tt.frac, got, tt.want)
		}
	}
}

func TestOutcome(t *testing.T) {
	tests := map[error]string{
		nil:                 "ok",
		ErrInvalidHorizon:   "invalid_horizon",
		ErrMissingSymbol:    "missing_symbol",
		ErrDataUnavailable:  "data_unavailable",
		errors.New("other"): "error",
	}
	for err, want := range tests {
		if got := Outcome(err); got != want {
			t.Errorf("Outcome(%v) = %s, want %s", err, got, want)
		}
	}
}
