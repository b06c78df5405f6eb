package report

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"stockdash/internal/calculator"
	"stockdash/internal/model"
)

func TestWriteWorkbook(t *testing.T) {
	day0 := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	series := &model.Series{Symbol: "AAPL"}
	for i := 0; i < 5; i++ {
		c := 100 + float64(i)
		series.Bars = append(series.Bars, model.OHLCV{Time: day0.AddDate(0, 0, i), Open: c, High: c, Low: c, Close: c, Volume: 10})
	}
	ind, err := calculator.Compute(series, calculator.Options{EMASpan: 3, SMAWindow: 3})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "aapl.xlsx")
	err = WriteWorkbook(path, Workbook{
		Profile:    &model.CompanyProfile{Symbol: "AAPL", ShortName: "Apple Inc."},
		Series:     series,
		Indicators: ind,
		Forecast: &model.ForecastResult{
			Symbol: "AAPL", Model: "svr",
			Points: []model.ForecastPoint{{Index: 5, Price: 105}, {Index: 6, Price: 106}},
		},
	})
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Prices", "Forecast", "Profile"}, f.GetSheetList())

	rows, err := f.GetRows("Prices")
	require.NoError(t, err)
	require.Len(t, rows, 6)
	assert.Equal(t, []string{"Date", "Open", "High", "Low", "Close", "Volume", "EMA(3)", "SMA(3)"}, rows[0])
	assert.Equal(t, "2024-01-02", rows[1][0])

	v, err := f.GetCellValue("Prices", "H2")
	require.NoError(t, err)
	assert.Equal(t, "", v, "no SMA before a full window")
	v, err = f.GetCellValue("Prices", "H4")
	require.NoError(t, err)
	assert.Equal(t, "101", v)

	rows, err = f.GetRows("Forecast")
	require.NoError(t, err)
	assert.Equal(t, "6", rows[2][0])
	assert.Equal(t, "106", rows[2][1])

	name, err := f.GetCellValue("Profile", "B3")
	require.NoError(t, err)
	assert.Equal(t, "Apple Inc.", name)
}

func TestWriteWorkbookEmpty(t *testing.T) {
	err := WriteWorkbook(filepath.Join(t.TempDir(), "x.xlsx"), Workbook{})
	assert.Error(t, err)
}
