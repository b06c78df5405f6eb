package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"stockdash/internal/app"
	"stockdash/internal/collector"
	"stockdash/internal/config"
	"stockdash/internal/forecast"
	"stockdash/internal/logging"
	"stockdash/internal/model"
	"stockdash/internal/notifier"
	"stockdash/internal/report"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "forecast":
		err = cmdForecast(os.Args[2:])
	case "prices":
		err = cmdPrices(os.Args[2:])
	case "profile":
		err = cmdProfile(os.Args[2:])
	case "archive":
		err = cmdArchive(os.Args[2:])
	case "export":
		err = cmdExport(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		if errors.Is(err, forecast.ErrInvalidHorizon) || errors.Is(err, forecast.ErrMissingSymbol) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("usage:")
	fmt.Println("  forecast forecast --symbol AAPL --horizon 5 [--json]")
	fmt.Println("  forecast prices   --symbol AAPL [--start 2024-01-01] [--end 2024-06-30] [--json]")
	fmt.Println("  forecast profile  --symbol AAPL")
	fmt.Println("  forecast archive  --symbol AAPL --dir data/archive [--start 2020-01-01]")
	fmt.Println("  forecast export   --symbol AAPL --horizon 5 --out aapl.xlsx")
	fmt.Println("")
	fmt.Println("notes:")
	fmt.Println("  - settings come from CONFIG_PATH (default configs/config.yaml) and the environment")
	fmt.Println("  - --provider overrides data_source.provider for one run")
}

type common struct {
	symbol   *string
	provider *string
	asJSON   *bool
}

func newFlagSet(name string) (*flag.FlagSet, common) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	return fs, common{
		symbol:   fs.String("symbol", "", "Ticker symbol, e.g. AAPL"),
		provider: fs.String("provider", "", "Data provider: yahoo, alpaca, rest, parquet, mock"),
		asJSON:   fs.Bool("json", false, "Print JSON instead of text"),
	}
}

type env struct {
	cfg     *config.Config
	log     *slog.Logger
	fetcher collector.Fetcher
}

func setup(c common) (*env, error) {
	_ = godotenv.Load()
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	if *c.provider != "" {
		cfg.DataSource.Provider = *c.provider
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := logging.NewWriter(os.Stderr, cfg.Logging.Level, "text")
	logging.SetDefault(logger)

	f, err := app.NewFetcher(cfg)
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, log: logger, fetcher: f}, nil
}

// requireSymbol normalises the --symbol flag, failing before any provider call.
func requireSymbol(c common) (string, error) {
	sym := strings.ToUpper(strings.TrimSpace(*c.symbol))
	if sym == "" {
		return "", forecast.ErrMissingSymbol
	}
	return sym, nil
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse("2006-01-02", s)
}

func dateRange(start, end string) (model.DateRange, error) {
	var rng model.DateRange
	var err error
	if rng.Start, err = parseDate(start); err != nil {
		return rng, fmt.Errorf("--start: %w", err)
	}
	if rng.End, err = parseDate(end); err != nil {
		return rng, fmt.Errorf("--end: %w", err)
	}
	if !rng.End.IsZero() {
		rng.End = rng.End.Add(24*time.Hour - time.Nanosecond)
	}
	return rng, nil
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// text strips the HTML tags used by the Telegram formatter.
func text(s string) string {
	r := strings.NewReplacer("<b>", "", "</b>", "", "&amp;", "&", "&lt;", "<", "&gt;", ">", "&#34;", `"`, "&#39;", "'")
	return r.Replace(s)
}

func runForecast(ctx context.Context, e *env, symbol string, horizon int) (*model.ForecastResult, error) {
	svc, err := app.NewForecastService(e.cfg, e.fetcher, e.log)
	if err != nil {
		return nil, err
	}
	rec := app.OpenRecorder(e.cfg, e.log)
	defer rec.Close()
	return forecast.NewJournaled(svc, rec, "cli", e.log).Forecast(ctx, model.ForecastRequest{Symbol: symbol, Horizon: horizon})
}

func cmdForecast(args []string) error {
	fs, c := newFlagSet("forecast")
	horizon := fs.Int("horizon", 5, "Number of future trading days to predict")
	_ = fs.Parse(args)

	e, err := setup(c)
	if err != nil {
		return err
	}
	res, err := runForecast(context.Background(), e, *c.symbol, *horizon)
	if err != nil {
		return err
	}
	if *c.asJSON {
		return printJSON(res)
	}
	fmt.Print(text(notifier.FormatForecast(res)))
	return nil
}

func cmdPrices(args []string) error {
	fs, c := newFlagSet("prices")
	start := fs.String("start", "", "First day, YYYY-MM-DD (default: one year back)")
	end := fs.String("end", "", "Last day, YYYY-MM-DD (default: today)")
	_ = fs.Parse(args)

	symbol, err := requireSymbol(c)
	if err != nil {
		return err
	}
	e, err := setup(c)
	if err != nil {
		return err
	}
	rng, err := dateRange(*start, *end)
	if err != nil {
		return err
	}
	series, err := collector.NewCollector(e.fetcher, e.log).Prices(context.Background(), symbol, rng)
	if err != nil {
		return err
	}
	if *c.asJSON {
		return printJSON(series)
	}
	for _, b := range series.Bars {
		fmt.Printf("%s  %s\n", b.Time.Format("2006-01-02"), notifier.Price(b.Close))
	}
	return nil
}

func cmdProfile(args []string) error {
	fs, c := newFlagSet("profile")
	_ = fs.Parse(args)

	symbol, err := requireSymbol(c)
	if err != nil {
		return err
	}
	e, err := setup(c)
	if err != nil {
		return err
	}
	p, err := collector.NewCollector(e.fetcher, e.log).Profile(context.Background(), symbol)
	if err != nil {
		return err
	}
	if *c.asJSON {
		return printJSON(p)
	}
	fmt.Print(text(notifier.FormatProfile(p, 0)))
	return nil
}

func cmdArchive(args []string) error {
	fs, c := newFlagSet("archive")
	dir := fs.String("dir", "", "Archive directory (default: data_source.archive_dir or data/archive)")
	start := fs.String("start", "", "First day, YYYY-MM-DD (default: one year back)")
	end := fs.String("end", "", "Last day, YYYY-MM-DD (default: today)")
	_ = fs.Parse(args)

	symbol, err := requireSymbol(c)
	if err != nil {
		return err
	}
	e, err := setup(c)
	if err != nil {
		return err
	}
	rng, err := dateRange(*start, *end)
	if err != nil {
		return err
	}
	bars, err := e.fetcher.FetchRange(context.Background(), symbol, rng)
	if err != nil {
		return err
	}

	root := *dir
	if root == "" {
		root = e.cfg.DataSource.ArchiveDir
	}
	if root == "" {
		root = filepath.Join("data", "archive")
	}
	if err := collector.NewParquetArchive(root).WriteBars(context.Background(), symbol, bars); err != nil {
		return err
	}
	e.log.Info("archived bars", "symbol", symbol, "bars", len(bars), "dir", root)
	return nil
}

func cmdExport(args []string) error {
	fs, c := newFlagSet("export")
	horizon := fs.Int("horizon", 5, "Forecast horizon; 0 skips the forecast sheet")
	out := fs.String("out", "", "Output .xlsx path (default: <SYMBOL>.xlsx)")
	start := fs.String("start", "", "First day, YYYY-MM-DD (default: one year back)")
	end := fs.String("end", "", "Last day, YYYY-MM-DD (default: today)")
	_ = fs.Parse(args)

	symbol, err := requireSymbol(c)
	if err != nil {
		return err
	}
	e, err := setup(c)
	if err != nil {
		return err
	}
	rng, err := dateRange(*start, *end)
	if err != nil {
		return err
	}
	ctx := context.Background()
	ov, err := collector.NewCollector(e.fetcher, e.log).Overview(ctx, symbol, rng)
	if err != nil {
		return err
	}

	wb := report.Workbook{Profile: ov.Profile, Series: ov.Series, Indicators: ov.Indicators}
	if *horizon > 0 {
		if wb.Forecast, err = runForecast(ctx, e, symbol, *horizon); err != nil {
			return err
		}
	}
	path := *out
	if path == "" {
		path = ov.Series.Symbol + ".xlsx"
	}
	if err := report.WriteWorkbook(path, wb); err != nil {
		return err
	}
	e.log.Info("workbook written", "path", path)
	return nil
}
