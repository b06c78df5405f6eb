package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"stockdash/internal/collector"
	"stockdash/internal/forecast"
	"stockdash/internal/model"
	"stockdash/internal/notifier"
)

var timeNow = time.Now

// Commands answers Telegram bot commands.
type Commands struct {
	Forecast       forecast.Forecaster
	Collector      *collector.Collector
	DefaultHorizon int
	MaxHorizon     int
	log            *slog.Logger
}

// NewCommands builds the command router.
func NewCommands(fc forecast.Forecaster, col *collector.Collector, defaultHorizon, maxHorizon int, logger *slog.Logger) *Commands {
	if logger == nil {
		logger = slog.Default()
	}
	return &Commands{
		Forecast:       fc,
		Collector:      col,
		DefaultHorizon: defaultHorizon,
		MaxHorizon:     maxHorizon,
		log:            logger.With("component", "commands"),
	}
}

// HandleCommand processes a user command and returns a reply.
func (c *Commands) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return notifier.FormatHelp()
	}
	// "/forecast@MyBot AAPL" in group chats
	name, _, _ := strings.Cut(strings.ToLower(fields[0]), "@")
	args := fields[1:]

	switch name {
	case "/forecast":
		return c.forecast(ctx, args)
	case "/price":
		return c.withSymbol(args, func(sym string) string {
			series, err := c.Collector.Prices(ctx, sym, model.LastTradingDays(5, timeNow()))
			if err != nil {
				return c.failure(sym, err)
			}
			return notifier.FormatPrice(series)
		})
	case "/info":
		return c.withSymbol(args, func(sym string) string {
			p, err := c.Collector.Profile(ctx, sym)
			if err != nil {
				return c.failure(sym, err)
			}
			return notifier.FormatProfile(p, 600)
		})
	case "/ema":
		return c.withSymbol(args, func(sym string) string {
			set, err := c.Collector.Indicators(ctx, sym, model.LastTradingDays(120, timeNow()), c.Collector.Options)
			if err != nil {
				return c.failure(sym, err)
			}
			return notifier.FormatIndicators(set)
		})
	default:
		return notifier.FormatHelp()
	}
}

func (c *Commands) withSymbol(args []string, fn func(string) string) string {
	if len(args) == 0 {
		return "Usage: command SYMBOL\n\n" + notifier.FormatHelp()
	}
	return fn(strings.ToUpper(args[0]))
}

func (c *Commands) forecast(ctx context.Context, args []string) string {
	if len(args) == 0 {
		return "Usage: /forecast SYMBOL [DAYS]"
	}
	horizon := c.DefaultHorizon
	if len(args) > 1 {
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Sprintf("DAYS must be a whole number, got %q", args[1])
		}
		horizon = n
	}
	if c.MaxHorizon > 0 && horizon > c.MaxHorizon {
		return fmt.Sprintf("DAYS must be at most %d", c.MaxHorizon)
	}

	res, err := c.Forecast.Forecast(ctx, model.ForecastRequest{Symbol: args[0], Horizon: horizon})
	switch {
	case errors.Is(err, forecast.ErrInvalidHorizon):
		return "DAYS must be a positive integer"
	case err != nil:
		return c.failure(strings.ToUpper(args[0]), err)
	}
	return notifier.FormatForecast(res)
}

func (c *Commands) failure(sym string, err error) string {
	c.log.Warn("command failed", "symbol", sym, "err", err)
	if errors.Is(err, forecast.ErrDataUnavailable) || errors.Is(err, collector.ErrNoData) {
		return fmt.Sprintf("❌ No market data for %s", sym)
	}
	if errors.Is(err, collector.ErrNoProfile) {
		return "❌ Company profiles are not available from this data source"
	}
	return fmt.Sprintf("❌ %s: request failed", sym)
}
