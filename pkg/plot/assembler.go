package plot

import (
	"fmt"
	"math"
	"time"

	"github.com/guregu/null/v5"
	"github.com/raykavin/bullseye/pkg/core"
	"github.com/samber/lo"
)

const (
	dateLayout   = time.DateOnly
	chartHeight  = 800
	volumeColor  = "blue"
	neutralLabel = "None"
	neutralTitle = "Select a ticker"
	timeAxis     = "x"
	priceAxis    = "y"
	volumeAxis   = "y2"
	noSelection  = -1

	// candlestick and volume are visible when a ticker is selected, the
	// remaining traces of its block start legend-only
	shownTraces = 2
)

var rangeButtons = []RangeButton{
	{Count: 1, Label: "1D", Step: "day", StepMode: "backward"},
	{Count: 5, Label: "5D", Step: "day", StepMode: "backward"},
	{Count: 1, Label: "1M", Step: "month", StepMode: "backward"},
	{Count: 6, Label: "6M", Step: "month", StepMode: "backward"},
	{Count: 1, Label: "YTD", Step: "year", StepMode: "todate"},
	{Count: 1, Label: "1Y", Step: "year", StepMode: "backward"},
	{Count: 5, Label: "5Y", Step: "year", StepMode: "backward"},
}

// AssemblerOption configures an Assembler
type AssemblerOption func(*Assembler)

// WithFieldLines toggles the raw field lines of every ticker
func WithFieldLines(enabled bool) AssemblerOption {
	return func(a *Assembler) {
		a.fieldLines = enabled
	}
}

// WithInitialSelection starts the figure with ticker index selected
func WithInitialSelection(index int) AssemblerOption {
	return func(a *Assembler) {
		a.initial = index
	}
}

// WithClock sets the time source of the initial x range
func WithClock(now func() time.Time) AssemblerOption {
	return func(a *Assembler) {
		a.now = now
	}
}

// Assembler turns derived dataframes into a single figure with one block of
// traces per ticker and a dropdown to switch between them
type Assembler struct {
	features   core.FeatureSet
	fieldLines bool
	initial    int
	now        func() time.Time
}

// NewAssembler creates an assembler for frames derived with features
func NewAssembler(features core.FeatureSet, options ...AssemblerOption) *Assembler {
	assembler := &Assembler{
		features:   features,
		fieldLines: true,
		initial:    noSelection,
		now:        time.Now,
	}

	for _, option := range options {
		option(assembler)
	}

	return assembler
}

// TracesPerTicker returns the size of the trace block of one ticker
func (a *Assembler) TracesPerTicker() int {
	count := 2 + a.features.Len()
	if a.fieldLines {
		count += len(a.features.Fields)
	}
	return count
}

// Title returns the figure title for a selected ticker
func Title(ticker string, quote core.Quote) string {
	name := quote.DisplayName()
	if name == "" || name == ticker {
		return ticker
	}
	return fmt.Sprintf("%s (%s)", name, ticker)
}

// Assemble builds the figure of the frames, in order. Frames must hold
// observations; empty tickers are dropped before assembly.
func (a *Assembler) Assemble(frames []*core.Dataframe) Chart {
	count := a.TracesPerTicker()
	traces := make([]Trace, 0, count*len(frames))
	for _, df := range frames {
		traces = append(traces, a.tickerTraces(df)...)
	}

	selector := make([]SelectorEntry, 0, len(frames)+1)
	selector = append(selector, SelectorEntry{
		Label:   neutralLabel,
		Title:   neutralTitle,
		Visible: make([]Visibility, len(traces)),
	})
	for i, df := range frames {
		selector = append(selector, SelectorEntry{
			Label:   df.Ticker,
			Title:   Title(df.Ticker, df.Quote),
			Visible: SelectionVector(count, len(frames), i),
		})
	}

	active := 0
	if a.initial >= 0 && a.initial < len(frames) {
		active = a.initial + 1
	}
	for i := range traces {
		traces[i].Visible = selector[active].Visible[i]
	}

	return Chart{
		Traces:   traces,
		Selector: selector,
		Layout:   a.layout(selector, active),
		Config:   Config{ScrollZoom: true, DoubleClick: "autosize", Responsive: true},
		Active:   active,
	}
}

// SelectionVector returns the visibility of count*tickers traces with the
// block of ticker selected shown and every other block hidden
func SelectionVector(count, tickers, selected int) []Visibility {
	vector := make([]Visibility, count*tickers)
	if selected < 0 || selected >= tickers {
		return vector
	}

	block := vector[count*selected : count*(selected+1)]
	for i := range block {
		block[i] = LegendOnly
		if i < shownTraces {
			block[i] = Visible
		}
	}
	return vector
}

func (a *Assembler) tickerTraces(df *core.Dataframe) []Trace {
	dates := lo.Map(df.Time, func(t time.Time, _ int) string {
		return t.Format(dateLayout)
	})

	traces := make([]Trace, 0, a.TracesPerTicker())
	traces = append(traces,
		Trace{
			Type:  "candlestick",
			Name:  "Candlestick",
			X:     dates,
			Open:  nullable(df.Open.Values()),
			High:  nullable(df.High.Values()),
			Low:   nullable(df.Low.Values()),
			Close: nullable(df.Close.Values()),
			XAxis: timeAxis,
			YAxis: priceAxis,
		},
		Trace{
			Type:       "bar",
			Name:       "Volume",
			X:          dates,
			Y:          nullable(df.Volume.Values()),
			Marker:     &Marker{Color: volumeColor},
			ShowLegend: lo.ToPtr(false),
			XAxis:      timeAxis,
			YAxis:      volumeAxis,
		},
	)

	if a.fieldLines {
		for _, field := range a.features.Fields {
			values, err := df.Field(field)
			if err != nil {
				values = nil
			}
			traces = append(traces, lineTrace(string(field), dates, nullable(values)))
		}
	}

	for _, feature := range a.features.Features() {
		name := feature.Name()
		column, ok := df.Column(name)
		if !ok {
			column = make([]null.Float, df.Len())
		}
		traces = append(traces, lineTrace(name, dates, column))
	}

	for i := range traces {
		traces[i].Meta = df.Ticker
		traces[i].LegendGroup = df.Ticker
	}

	return traces
}

func lineTrace(name string, dates []string, values []null.Float) Trace {
	return Trace{
		Type:  "scatter",
		Name:  name,
		Mode:  "lines",
		X:     dates,
		Y:     values,
		XAxis: timeAxis,
		YAxis: priceAxis,
	}
}

// nullable converts values for JSON, NaN and infinities becoming null
func nullable(values []float64) []null.Float {
	return lo.Map(values, func(value float64, _ int) null.Float {
		return null.NewFloat(value, !math.IsNaN(value) && !math.IsInf(value, 0))
	})
}

func (a *Assembler) layout(selector []SelectorEntry, active int) Layout {
	today := a.now()
	lastMonth := today.AddDate(0, -1, 0)

	layout := Layout{
		Title:  Text{Text: selector[active].Title},
		Height: chartHeight,
		XAxis: Axis{
			Type:          "date",
			Anchor:        volumeAxis,
			Range:         []string{lastMonth.Format(dateLayout), today.Format(dateLayout)},
			RangeSelector: &RangeSelector{Buttons: rangeButtons},
			RangeSlider:   &RangeSlider{Visible: false},
		},
		YAxis:  Axis{Domain: []float64{0.24, 1}, Anchor: timeAxis},
		YAxis2: Axis{Domain: []float64{0, 0.19}, Anchor: timeAxis},
		Legend: Legend{Orientation: "h"},
	}

	// the neutral entry plus at least one ticker
	if len(selector) > 1 {
		layout.UpdateMenus = []UpdateMenu{updateMenu(selector, active)}
	}

	return layout
}

func updateMenu(selector []SelectorEntry, active int) UpdateMenu {
	return UpdateMenu{
		Type:       "dropdown",
		Direction:  "down",
		Active:     active,
		ShowActive: true,
		X:          0,
		Y:          1.15,
		XAnchor:    "left",
		YAnchor:    "top",
		Buttons: lo.Map(selector, func(entry SelectorEntry, _ int) MenuButton {
			return MenuButton{
				Label:  entry.Label,
				Method: "update",
				Args: []any{
					map[string]any{"visible": entry.Visible},
					map[string]any{"title": Text{Text: entry.Title}},
				},
			}
		}),
	}
}
