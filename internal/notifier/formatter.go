package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"stockdash/internal/model"
)

// Price renders a price rounded half away from zero to two places.
func Price(v float64) string {
	return decimal.NewFromFloat(v).Round(2).StringFixed(2)
}

// Change renders the signed percentage move from prev to cur.
func Change(prev, cur float64) string {
	if prev == 0 {
		return "n/a"
	}
	pct := decimal.NewFromFloat(cur).Sub(decimal.NewFromFloat(prev)).
		Div(decimal.NewFromFloat(prev)).Mul(decimal.NewFromInt(100)).Round(2)
	if pct.IsPositive() {
		return "+" + pct.StringFixed(2) + "%"
	}
	return pct.StringFixed(2) + "%"
}

// FormatForecast formats a forecast result into a Telegram message.
func FormatForecast(res *model.ForecastResult) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🔮 <b>%s forecast</b> | %s\n\n", html.EscapeString(res.Symbol), res.GeneratedAt.Format("2006-01-02")))
	b.WriteString(fmt.Sprintf("Last close: %s (%s)\n", Price(res.LastClose), res.LastDate.Format("2006-01-02")))
	b.WriteString(fmt.Sprintf("Model: %s, trained on %d days", res.Model, res.TrainSize))
	if res.HoldoutSize > 0 {
		b.WriteString(fmt.Sprintf(", holdout MAE %s", Price(res.HoldoutMAE)))
	}
	b.WriteString("\n\n")
	for k, p := range res.Points {
		b.WriteString(fmt.Sprintf("  +%d: %s\n", k+1, Price(p.Price)))
	}
	if n := len(res.Points); n > 0 {
		b.WriteString(fmt.Sprintf("\nTrend: %s over %d days\n", Change(res.LastClose, res.Points[n-1].Price), n))
	}
	return b.String()
}

// FormatPrice formats the latest bar of a series.
func FormatPrice(series *model.Series) string {
	last, ok := series.Last()
	if !ok {
		return fmt.Sprintf("No prices for %s", html.EscapeString(series.Symbol))
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("💵 <b>%s</b> %s\n", html.EscapeString(series.Symbol), last.Time.Format("2006-01-02")))
	b.WriteString(fmt.Sprintf("Close: %s", Price(last.Close)))
	if n := series.Len(); n > 1 {
		b.WriteString(fmt.Sprintf(" (%s)", Change(series.Bars[n-2].Close, last.Close)))
	}
	b.WriteString(fmt.Sprintf("\nO %s  H %s  L %s\n", Price(last.Open), Price(last.High), Price(last.Low)))
	b.WriteString(fmt.Sprintf("Volume: %s\n", decimal.NewFromFloat(last.Volume).Round(0).String()))
	return b.String()
}

// FormatProfile formats company metadata. Long summaries are cut at limit runes.
func FormatProfile(p *model.CompanyProfile, limit int) string {
	var b strings.Builder
	name := p.ShortName
	if name == "" {
		name = p.LongName
	}
	b.WriteString(fmt.Sprintf("🏢 <b>%s</b> (%s)\n", html.EscapeString(name), html.EscapeString(p.Symbol)))
	if p.Sector != "" || p.Industry != "" {
		b.WriteString(fmt.Sprintf("%s / %s\n", html.EscapeString(p.Sector), html.EscapeString(p.Industry)))
	}
	if p.Website != "" {
		b.WriteString(html.EscapeString(p.Website) + "\n")
	}
	if summary := truncate(p.LongBusinessSummary, limit); summary != "" {
		b.WriteString("\n" + html.EscapeString(summary) + "\n")
	}
	return b.String()
}

// FormatIndicators formats the latest moving averages of a set.
func FormatIndicators(set *model.IndicatorSet) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📈 <b>%s indicators</b>\n", html.EscapeString(set.Symbol)))
	if n := len(set.EMA); n > 0 {
		b.WriteString(fmt.Sprintf("EMA(%d): %s\n", set.EMASpan, Price(set.EMA[n-1].Value)))
	}
	if n := len(set.SMA); n > 0 {
		b.WriteString(fmt.Sprintf("SMA(%d): %s\n", set.SMAWin, Price(set.SMA[n-1].Value)))
	}
	b.WriteString(fmt.Sprintf("RSI: %.1f\n", set.RSI))
	b.WriteString(fmt.Sprintf("Range: %s – %s (position %.0f%%)\n", Price(set.Low), Price(set.High), set.Position*100))
	return b.String()
}

// DigestLine is one watchlist row.
type DigestLine struct {
	Symbol string
	Result *model.ForecastResult
	Err    error
}

// FormatDigest formats the scheduled watchlist forecast digest.
func FormatDigest(lines []DigestLine, horizon int, now time.Time) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📋 <b>Watchlist</b> | %s | %d-day outlook\n\n", now.Format("2006-01-02"), horizon))
	for _, l := range lines {
		if l.Err != nil || l.Result == nil || len(l.Result.Points) == 0 {
			b.WriteString(fmt.Sprintf("%s: unavailable\n", html.EscapeString(l.Symbol)))
			continue
		}
		end := l.Result.Points[len(l.Result.Points)-1].Price
		b.WriteString(fmt.Sprintf("%s: %s → %s (%s)\n", html.EscapeString(l.Symbol),
			Price(l.Result.LastClose), Price(end), Change(l.Result.LastClose, end)))
	}
	return b.String()
}

// FormatHelp lists the bot commands.
func FormatHelp() string {
	return "Commands:\n" +
		"/forecast SYMBOL [DAYS] - predict the next closes\n" +
		"/price SYMBOL - latest close\n" +
		"/info SYMBOL - company profile\n" +
		"/ema SYMBOL - moving averages\n" +
		"/help - this message"
}

func truncate(s string, limit int) string {
	r := []rune(strings.TrimSpace(s))
	if limit <= 0 || len(r) <= limit {
		return string(r)
	}
	return strings.TrimSpace(string(r[:limit])) + "…"
}
