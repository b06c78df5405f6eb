// Package report exports dashboard data to spreadsheet workbooks.
package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"stockdash/internal/model"
)

const (
	pricesSheet   = "Prices"
	forecastSheet = "Forecast"
	profileSheet  = "Profile"
)

// Workbook is the content of one export. Nil parts are skipped.
type Workbook struct {
	Profile    *model.CompanyProfile
	Series     *model.Series
	Indicators *model.IndicatorSet
	Forecast   *model.ForecastResult
}

// WriteWorkbook saves w as an .xlsx file at path.
func WriteWorkbook(path string, w Workbook) error {
	f := excelize.NewFile()
	defer f.Close()

	sheets := 0
	if w.Series != nil {
		if err := writePrices(f, w.Series, w.Indicators); err != nil {
			return err
		}
		sheets++
	}
	if w.Forecast != nil {
		if err := writeForecast(f, w.Forecast); err != nil {
			return err
		}
		sheets++
	}
	if w.Profile != nil {
		if err := writeProfile(f, w.Profile); err != nil {
			return err
		}
		sheets++
	}
	if sheets == 0 {
		return fmt.Errorf("workbook is empty")
	}

	// The default sheet is only kept when nothing else was written.
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return err
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

func newSheet(f *excelize.File, name string, header []interface{}) error {
	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("new sheet %s: %w", name, err)
	}
	return f.SetSheetRow(name, "A1", &header)
}

func writePrices(f *excelize.File, s *model.Series, ind *model.IndicatorSet) error {
	header := []interface{}{"Date", "Open", "High", "Low", "Close", "Volume"}
	var ema, sma map[string]float64
	if ind != nil {
		ema = byDate(ind.EMA)
		header = append(header, fmt.Sprintf("EMA(%d)", ind.EMASpan))
		if ind.SMAWin > 0 {
			sma = byDate(ind.SMA)
			header = append(header, fmt.Sprintf("SMA(%d)", ind.SMAWin))
		}
	}
	if err := newSheet(f, pricesSheet, header); err != nil {
		return err
	}

	for i, b := range s.Bars {
		date := b.Time.Format("2006-01-02")
		row := []interface{}{date, b.Open, b.High, b.Low, b.Close, b.Volume}
		if ema != nil {
			row = append(row, cellOrBlank(ema, date))
		}
		if sma != nil {
			row = append(row, cellOrBlank(sma, date))
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(pricesSheet, cell, &row); err != nil {
			return fmt.Errorf("write price row %d: %w", i, err)
		}
	}
	return nil
}

func byDate(points []model.IndicatorPoint) map[string]float64 {
	m := make(map[string]float64, len(points))
	for _, p := range points {
		m[p.Time.Format("2006-01-02")] = p.Value
	}
	return m
}

func cellOrBlank(m map[string]float64, date string) interface{} {
	if v, ok := m[date]; ok {
		return v
	}
	return ""
}

func writeForecast(f *excelize.File, res *model.ForecastResult) error {
	if err := newSheet(f, forecastSheet, []interface{}{"Index", "Price"}); err != nil {
		return err
	}
	for i, p := range res.Points {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := []interface{}{p.Index, p.Price}
		if err := f.SetSheetRow(forecastSheet, cell, &row); err != nil {
			return err
		}
	}
	// Fit summary to the right of the points.
	summary := [][]interface{}{
		{"Symbol", res.Symbol},
		{"Model", res.Model},
		{"Last index", res.LastIndex},
		{"Last close", res.LastClose},
		{"Train size", res.TrainSize},
		{"Holdout size", res.HoldoutSize},
		{"Holdout MAE", res.HoldoutMAE},
		{"Generated", res.GeneratedAt.Format("2006-01-02 15:04:05")},
	}
	for i, row := range summary {
		cell, _ := excelize.CoordinatesToCellName(4, i+1)
		if err := f.SetSheetRow(forecastSheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

func writeProfile(f *excelize.File, p *model.CompanyProfile) error {
	if err := newSheet(f, profileSheet, []interface{}{"Field", "Value"}); err != nil {
		return err
	}
	rows := [][]interface{}{
		{"Symbol", p.Symbol},
		{"Name", p.ShortName},
		{"Long name", p.LongName},
		{"Sector", p.Sector},
		{"Industry", p.Industry},
		{"Website", p.Website},
		{"Logo", p.LogoURL},
		{"Currency", p.Currency},
		{"Exchange", p.Exchange},
		{"Summary", p.LongBusinessSummary},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(profileSheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}
