package collector

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"stockdash/internal/calculator"
	"stockdash/internal/model"
)

// Overview bundles everything the dashboard shows for one symbol.
type Overview struct {
	Profile    *model.CompanyProfile `json:"profile,omitempty"`
	Series     *model.Series         `json:"series"`
	Indicators *model.IndicatorSet   `json:"indicators"`
}

// Collector orchestrates data fetching and indicator computation.
type Collector struct {
	Fetcher  Fetcher
	Profiles ProfileFetcher // optional
	Options  calculator.Options
	log      *slog.Logger
}

// NewCollector creates a new Collector. The fetcher also serves profiles when
// it implements ProfileFetcher.
func NewCollector(fetcher Fetcher, logger *slog.Logger) *Collector {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Collector{
		Fetcher: fetcher,
		Options: calculator.DefaultOptions(),
		log:     logger.With("component", "collector"),
	}
	if pf, ok := fetcher.(ProfileFetcher); ok {
		c.Profiles = pf
	}
	return c
}

// Prices returns the daily series for symbol inside rng.
func (c *Collector) Prices(ctx context.Context, symbol string, rng model.DateRange) (*model.Series, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	bars, err := c.Fetcher.FetchRange(ctx, symbol, rng)
	if err != nil {
		return nil, fmt.Errorf("fetch %s prices: %w", symbol, err)
	}
	return &model.Series{Symbol: symbol, Bars: bars, FetchedAt: time.Now().UTC()}, nil
}

// Profile returns the company metadata for symbol.
func (c *Collector) Profile(ctx context.Context, symbol string) (*model.CompanyProfile, error) {
	if c.Profiles == nil {
		return nil, ErrNoProfile
	}
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	p, err := c.Profiles.FetchProfile(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("fetch %s profile: %w", symbol, err)
	}
	return p, nil
}

// Indicators fetches prices for rng and computes the moving averages over them.
func (c *Collector) Indicators(ctx context.Context, symbol string, rng model.DateRange, opts calculator.Options) (*model.IndicatorSet, error) {
	series, err := c.Prices(ctx, symbol, rng)
	if err != nil {
		return nil, err
	}
	return calculator.Compute(series, opts)
}

// Overview fetches profile and prices concurrently. A missing profile is
// logged and left empty; a missing price series fails the call.
func (c *Collector) Overview(ctx context.Context, symbol string, rng model.DateRange) (*Overview, error) {
	var (
		ov      Overview
		profErr error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		series, err := c.Prices(gctx, symbol, rng)
		if err != nil {
			return err
		}
		ov.Series = series
		return nil
	})
	if c.Profiles != nil {
		g.Go(func() error {
			ov.Profile, profErr = c.Profile(gctx, symbol)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if profErr != nil {
		c.log.Warn("profile unavailable", "symbol", symbol, "err", profErr)
	}

	ind, err := calculator.Compute(ov.Series, c.Options)
	if err != nil {
		return nil, err
	}
	ov.Indicators = ind
	return &ov, nil
}
