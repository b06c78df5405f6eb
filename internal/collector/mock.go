package collector

import (
	"context"
	"sync/atomic"
	"time"

	"stockdash/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Price   float64       // base price for generated bars when Bars is nil
	Bars    []model.OHLCV // returned as-is when set
	Profile *model.CompanyProfile
	Err     error

	calls atomic.Int64
}

func (m *MockFetcher) Name() string { return "mock" }

// Calls reports how many fetches were made.
func (m *MockFetcher) Calls() int { return int(m.calls.Load()) }

func (m *MockFetcher) FetchDailyBars(_ context.Context, _ string, days int) ([]model.OHLCV, error) {
	m.calls.Add(1)
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Bars != nil {
		return lastN(m.Bars, days), nil
	}
	return generateMockBars(m.Price, days), nil
}

func (m *MockFetcher) FetchRange(_ context.Context, _ string, rng model.DateRange) ([]model.OHLCV, error) {
	m.calls.Add(1)
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Bars == nil {
		return generateMockBars(m.Price, 250), nil
	}
	if rng.IsZero() {
		return m.Bars, nil
	}
	end := rng.End
	if end.IsZero() {
		end = time.Date(9999, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	return filterRange(m.Bars, rng.Start, end), nil
}

func (m *MockFetcher) FetchProfile(_ context.Context, symbol string) (*model.CompanyProfile, error) {
	m.calls.Add(1)
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Profile != nil {
		return m.Profile, nil
	}
	return &model.CompanyProfile{Symbol: symbol, ShortName: symbol}, nil
}

func generateMockBars(basePrice float64, count int) []model.OHLCV {
	bars := make([]model.OHLCV, count)
	today := time.Now().UTC().Truncate(24 * time.Hour)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.001)
		bars[i] = model.OHLCV{
			Time:   today.AddDate(0, 0, -(count - i)),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		}
	}
	return bars
}

// LinearBars builds n consecutive daily bars whose close is start+i*step.
func LinearBars(n int, start, step float64, from time.Time) []model.OHLCV {
	bars := make([]model.OHLCV, n)
	for i := range bars {
		c := start + float64(i)*step
		bars[i] = model.OHLCV{
			Time:   from.AddDate(0, 0, i),
			Open:   c,
			High:   c,
			Low:    c,
			Close:  c,
			Volume: 1000,
		}
	}
	return bars
}
