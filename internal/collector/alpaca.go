package collector

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"stockdash/internal/model"
)

var _ Fetcher = (*AlpacaFetcher)(nil)

// AlpacaFetcher reads daily bars from the Alpaca market-data API.
type AlpacaFetcher struct {
	client *marketdata.Client
	feed   string
	now    func() time.Time
}

// NewAlpacaFetcher creates a fetcher for the given credentials. An empty
// dataURL uses the library default; an empty feed uses "iex".
func NewAlpacaFetcher(apiKey, apiSecret, dataURL, feed string) *AlpacaFetcher {
	opts := marketdata.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
	}
	if dataURL != "" {
		opts.BaseURL = dataURL
	}
	if feed == "" {
		feed = "iex"
	}
	return &AlpacaFetcher{
		client: marketdata.NewClient(opts),
		feed:   feed,
		now:    time.Now,
	}
}

func (f *AlpacaFetcher) Name() string { return "alpaca" }

func (f *AlpacaFetcher) FetchDailyBars(ctx context.Context, symbol string, days int) ([]model.OHLCV, error) {
	rng := model.LastTradingDays(days, f.now())
	bars, err := f.fetch(ctx, symbol, rng.Start, rng.End)
	if err != nil {
		return nil, err
	}
	return lastN(bars, days), nil
}

func (f *AlpacaFetcher) FetchRange(ctx context.Context, symbol string, rng model.DateRange) ([]model.OHLCV, error) {
	start, end := resolveRange(rng, f.now())
	return f.fetch(ctx, symbol, start, end)
}

func (f *AlpacaFetcher) fetch(ctx context.Context, symbol string, start, end time.Time) ([]model.OHLCV, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	// The SDK call is not context aware; run it aside so cancellation returns promptly.
	type result struct {
		bars []marketdata.Bar
		err  error
	}
	done := make(chan result, 1)
	go func() {
		bars, err := f.client.GetBars(strings.ToUpper(symbol), marketdata.GetBarsRequest{
			TimeFrame:  marketdata.OneDay,
			Start:      start,
			End:        end,
			Feed:       marketdata.Feed(f.feed),
			Adjustment: marketdata.Split,
		})
		done <- result{bars, err}
	}()

	var res result
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-done:
	}
	if res.err != nil {
		return nil, fmt.Errorf("GetBars %s: %w", symbol, res.err)
	}

	bars := make([]model.OHLCV, 0, len(res.bars))
	for _, ab := range res.bars {
		bars = append(bars, model.OHLCV{
			Time:   ab.Timestamp.UTC(),
			Open:   ab.Open,
			High:   ab.High,
			Low:    ab.Low,
			Close:  ab.Close,
			Volume: float64(ab.Volume),
		})
	}
	bars = normalize(bars)
	if len(bars) == 0 {
		return nil, fmt.Errorf("alpaca %s: %w", symbol, ErrNoData)
	}
	return bars, nil
}
