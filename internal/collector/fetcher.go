package collector

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"sort"
	"time"

	"stockdash/internal/model"
)

// ErrNoData is returned when a provider answers but has no bars for the symbol.
var ErrNoData = errors.New("no data returned")

// ErrNoProfile is returned when the configured provider has no company metadata.
var ErrNoProfile = errors.New("provider does not serve company profiles")

// Fetcher defines the interface for fetching daily market data.
type Fetcher interface {
	// FetchDailyBars returns the most recent days daily bars, oldest first.
	FetchDailyBars(ctx context.Context, symbol string, days int) ([]model.OHLCV, error)
	// FetchRange returns daily bars inside rng. Absent bounds fall back to the
	// provider default window.
	FetchRange(ctx context.Context, symbol string, rng model.DateRange) ([]model.OHLCV, error)
	Name() string
}

// ProfileFetcher is implemented by providers that expose company metadata.
type ProfileFetcher interface {
	FetchProfile(ctx context.Context, symbol string) (*model.CompanyProfile, error)
}

// defaultLookback is the window used when a range has no start.
const defaultLookback = 365 * 24 * time.Hour

func resolveRange(rng model.DateRange, now time.Time) (start, end time.Time) {
	start, end = rng.Start, rng.End
	if end.IsZero() {
		end = now
	}
	if start.IsZero() {
		start = end.Add(-defaultLookback)
	}
	return start, end
}

// normalize sorts bars chronologically, drops empty bars and keeps the last
// bar of any calendar day that appears twice.
func normalize(bars []model.OHLCV) []model.OHLCV {
	out := make([]model.OHLCV, 0, len(bars))
	for _, b := range bars {
		if b.Close == 0 && b.Open == 0 && b.High == 0 && b.Low == 0 {
			continue // null bars (holidays etc.)
		}
		out = append(out, b)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })

	deduped := out[:0]
	for _, b := range out {
		if n := len(deduped); n > 0 && sameDay(deduped[n-1].Time, b.Time) {
			deduped[n-1] = b
			continue
		}
		deduped = append(deduped, b)
	}
	return deduped
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

func lastN(bars []model.OHLCV, n int) []model.OHLCV {
	if n > 0 && len(bars) > n {
		return bars[len(bars)-n:]
	}
	return bars
}

func filterRange(bars []model.OHLCV, start, end time.Time) []model.OHLCV {
	out := bars[:0:0]
	for _, b := range bars {
		if b.Time.Before(start) || b.Time.After(end) {
			continue
		}
		out = append(out, b)
	}
	return out
}

// newHTTPClient builds a client with an optional proxy.
func newHTTPClient(proxyURL string, timeout time.Duration) *http.Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}
