package dashboard

import (
	"math"

	"github.com/raykavin/bullseye/pkg/core"
	"github.com/raykavin/bullseye/pkg/plot"
	"github.com/shopspring/decimal"
)

const (
	colorUp   = "green"
	colorDown = "red"
)

// FormatPrice renders a value with two decimals, or nothing when the value
// is not a number
func FormatPrice(value float64) string {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return ""
	}
	return decimal.NewFromFloat(value).StringFixed(2)
}

// NewSummary builds the display fields of a ticker page. A nil forecast
// leaves the forecast fields empty.
func NewSummary(quote core.Quote, forecast *float64) *plot.Summary {
	change := quote.Change()

	summary := &plot.Summary{
		Ticker:        quote.Ticker,
		Name:          quote.DisplayName(),
		Currency:      quote.Currency,
		Price:         FormatPrice(quote.Price),
		Change:        FormatPrice(change),
		ChangePercent: FormatPrice(quote.ChangePercent()),
		Color:         colorDown,
	}

	if change > 0 {
		summary.Plus = "+"
		summary.Color = colorUp
	}

	if forecast != nil {
		summary.Forecast = FormatPrice(*forecast)
		summary.ForecastColor = colorDown
		if *forecast > quote.Price {
			summary.ForecastColor = colorUp
		}
	}

	return summary
}
