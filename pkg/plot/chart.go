package plot

import (
	"fmt"
	"time"
)

const (
	forecastUp   = "green"
	forecastDown = "red"
)

// Chart is a complete figure: traces of every ticker, the selector entries
// switching between them and the layout
type Chart struct {
	Traces   []Trace         `json:"traces"`
	Selector []SelectorEntry `json:"selector"`
	Layout   Layout          `json:"layout"`
	Config   Config          `json:"config"`
	Active   int             `json:"active"`
}

// Tickers returns the tickers of the selector, in trace order
func (c Chart) Tickers() []string {
	if len(c.Selector) == 0 {
		return nil
	}

	tickers := make([]string, 0, len(c.Selector)-1)
	for _, entry := range c.Selector[1:] {
		tickers = append(tickers, entry.Label)
	}
	return tickers
}

// WithForecast returns a copy of the chart marking the forecast close of the
// trading day after last, widening the initial range to include that day.
// The trace list is left untouched.
func (c Chart) WithForecast(last time.Time, price, forecast float64) Chart {
	date := NextTradingDay(last).Format(dateLayout)
	color := forecastDown
	if forecast > price {
		color = forecastUp
	}

	annotations := make([]Annotation, len(c.Layout.Annotations), len(c.Layout.Annotations)+1)
	copy(annotations, c.Layout.Annotations)
	c.Layout.Annotations = append(annotations, Annotation{
		X:         date,
		Y:         forecast,
		XRef:      timeAxis,
		YRef:      priceAxis,
		Text:      fmt.Sprintf("Forecast %.2f", forecast),
		ShowArrow: true,
		ArrowHead: 2,
		Font:      &Font{Color: color},
	})

	shapes := make([]Shape, len(c.Layout.Shapes), len(c.Layout.Shapes)+1)
	copy(shapes, c.Layout.Shapes)
	c.Layout.Shapes = append(shapes, Shape{
		Type: "line",
		XRef: timeAxis,
		YRef: priceAxis,
		X0:   last.Format(dateLayout),
		X1:   date,
		Y0:   forecast,
		Y1:   forecast,
		Line: Line{Color: color, Dash: "dash", Width: 2},
	})

	// keep the marker inside the initial view
	if xRange := c.Layout.XAxis.Range; len(xRange) == 2 && xRange[1] < date {
		c.Layout.XAxis.Range = []string{xRange[0], date}
	}

	return c
}

// NextTradingDay returns the first weekday after t
func NextTradingDay(t time.Time) time.Time {
	next := t.AddDate(0, 0, 1)
	for next.Weekday() == time.Saturday || next.Weekday() == time.Sunday {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
