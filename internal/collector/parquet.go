package collector

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"

	"stockdash/internal/model"
)

var _ Fetcher = (*ParquetArchive)(nil)

// ParquetArchive stores daily bars on disk and serves them back as a Fetcher.
// Files are laid out as <Dir>/<SYMBOL>/<YYYY>.parquet.
type ParquetArchive struct {
	Dir string
	now func() time.Time
}

// NewParquetArchive creates an archive rooted at dir.
func NewParquetArchive(dir string) *ParquetArchive {
	return &ParquetArchive{Dir: dir, now: time.Now}
}

// barRecord is the on-disk schema.
type barRecord struct {
	Timestamp int64   `parquet:"timestamp,timestamp(millisecond)"`
	Open      float64 `parquet:"open"`
	High      float64 `parquet:"high"`
	Low       float64 `parquet:"low"`
	Close     float64 `parquet:"close"`
	Volume    float64 `parquet:"volume"`
}

func (a *ParquetArchive) Name() string { return "parquet" }

func (a *ParquetArchive) path(symbol string, year int) string {
	return filepath.Join(a.Dir, strings.ToUpper(symbol), strconv.Itoa(year)+".parquet")
}

// WriteBars merges bars into the archive, replacing any bar with the same timestamp.
func (a *ParquetArchive) WriteBars(_ context.Context, symbol string, bars []model.OHLCV) error {
	if len(bars) == 0 {
		return nil
	}
	groups := make(map[int][]barRecord)
	for _, b := range bars {
		y := b.Time.UTC().Year()
		groups[y] = append(groups[y], barRecord{
			Timestamp: b.Time.UnixMilli(),
			Open:      b.Open,
			High:      b.High,
			Low:       b.Low,
			Close:     b.Close,
			Volume:    b.Volume,
		})
	}

	for year, records := range groups {
		path := a.path(symbol, year)
		existing, err := parquet.ReadFile[barRecord](path)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		merged := mergeRecords(existing, records)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		if err := parquet.WriteFile(path, merged); err != nil {
			return fmt.Errorf("writing bars for %s/%d: %w", symbol, year, err)
		}
	}
	return nil
}

func mergeRecords(existing, incoming []barRecord) []barRecord {
	seen := make(map[int64]barRecord, len(existing)+len(incoming))
	for _, r := range existing {
		seen[r.Timestamp] = r
	}
	for _, r := range incoming {
		seen[r.Timestamp] = r
	}
	merged := make([]barRecord, 0, len(seen))
	for _, r := range seen {
		merged = append(merged, r)
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].Timestamp < merged[j].Timestamp })
	return merged
}

// readYears loads every bar stored for symbol in [fromYear, toYear].
func (a *ParquetArchive) readYears(symbol string, fromYear, toYear int) ([]model.OHLCV, error) {
	var bars []model.OHLCV
	for year := fromYear; year <= toYear; year++ {
		rows, err := parquet.ReadFile[barRecord](a.path(symbol, year))
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("reading %s/%d: %w", symbol, year, err)
		}
		for _, r := range rows {
			bars = append(bars, model.OHLCV{
				Time:   time.UnixMilli(r.Timestamp).UTC(),
				Open:   r.Open,
				High:   r.High,
				Low:    r.Low,
				Close:  r.Close,
				Volume: r.Volume,
			})
		}
	}
	return normalize(bars), nil
}

// years lists the archived years for symbol, oldest first.
func (a *ParquetArchive) years(symbol string) ([]int, error) {
	entries, err := os.ReadDir(filepath.Join(a.Dir, strings.ToUpper(symbol)))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var years []int
	for _, e := range entries {
		name := strings.TrimSuffix(e.Name(), ".parquet")
		if y, err := strconv.Atoi(name); err == nil && !e.IsDir() {
			years = append(years, y)
		}
	}
	sort.Ints(years)
	return years, nil
}

func (a *ParquetArchive) FetchDailyBars(ctx context.Context, symbol string, days int) ([]model.OHLCV, error) {
	years, err := a.years(symbol)
	if err != nil {
		return nil, err
	}
	if len(years) == 0 {
		return nil, fmt.Errorf("archive %s: %w", symbol, ErrNoData)
	}
	// Walk back one year at a time until enough bars are loaded.
	last := years[len(years)-1]
	for from := last; from >= years[0]; from-- {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		bars, err := a.readYears(symbol, from, last)
		if err != nil {
			return nil, err
		}
		if len(bars) >= days || from == years[0] {
			if len(bars) == 0 {
				return nil, fmt.Errorf("archive %s: %w", symbol, ErrNoData)
			}
			return lastN(bars, days), nil
		}
	}
	return nil, fmt.Errorf("archive %s: %w", symbol, ErrNoData)
}

func (a *ParquetArchive) FetchRange(_ context.Context, symbol string, rng model.DateRange) ([]model.OHLCV, error) {
	start, end := resolveRange(rng, a.now())
	bars, err := a.readYears(symbol, start.UTC().Year(), end.UTC().Year())
	if err != nil {
		return nil, err
	}
	bars = filterRange(bars, start, end)
	if len(bars) == 0 {
		return nil, fmt.Errorf("archive %s: %w", symbol, ErrNoData)
	}
	return bars, nil
}
