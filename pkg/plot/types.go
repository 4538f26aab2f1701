package plot

import (
	"encoding/json"
	"fmt"

	"github.com/guregu/null/v5"
)

// Visibility is the display state of a trace
type Visibility int

const (
	Hidden Visibility = iota
	Visible
	LegendOnly
)

// MarshalJSON encodes the state the way Plotly expects it
func (v Visibility) MarshalJSON() ([]byte, error) {
	switch v {
	case Hidden:
		return []byte("false"), nil
	case Visible:
		return []byte("true"), nil
	case LegendOnly:
		return []byte(`"legendonly"`), nil
	}
	return nil, fmt.Errorf("invalid visibility %d", int(v))
}

// UnmarshalJSON decodes false, true and "legendonly"
func (v *Visibility) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case "false":
		*v = Hidden
	case "true":
		*v = Visible
	case `"legendonly"`:
		*v = LegendOnly
	default:
		return fmt.Errorf("invalid visibility %s", data)
	}
	return nil
}

func (v Visibility) String() string {
	switch v {
	case Visible:
		return "visible"
	case LegendOnly:
		return "legendonly"
	}
	return "hidden"
}

// Marker sets the colour of bar traces
type Marker struct {
	Color string `json:"color"`
}

// Line styles line traces and shapes
type Line struct {
	Color string  `json:"color,omitempty"`
	Dash  string  `json:"dash,omitempty"`
	Width float64 `json:"width,omitempty"`
}

// Trace is one renderable series of the figure
type Trace struct {
	Type        string       `json:"type"`
	Name        string       `json:"name"`
	Meta        string       `json:"meta"`
	LegendGroup string       `json:"legendgroup"`
	X           []string     `json:"x"`
	Y           []null.Float `json:"y,omitempty"`
	Open        []null.Float `json:"open,omitempty"`
	High        []null.Float `json:"high,omitempty"`
	Low         []null.Float `json:"low,omitempty"`
	Close       []null.Float `json:"close,omitempty"`
	Mode        string       `json:"mode,omitempty"`
	Marker      *Marker      `json:"marker,omitempty"`
	ShowLegend  *bool        `json:"showlegend,omitempty"`
	XAxis       string       `json:"xaxis"`
	YAxis       string       `json:"yaxis"`
	Visible     Visibility   `json:"visible"`
}

// SelectorEntry is one option of the ticker dropdown
type SelectorEntry struct {
	Label   string       `json:"label"`
	Title   string       `json:"title"`
	Visible []Visibility `json:"visible"`
}

// RangeButton is a quick zoom button above the price axis
type RangeButton struct {
	Count    int    `json:"count"`
	Label    string `json:"label"`
	Step     string `json:"step"`
	StepMode string `json:"stepmode"`
}

type RangeSelector struct {
	Buttons []RangeButton `json:"buttons"`
}

type RangeSlider struct {
	Visible bool `json:"visible"`
}

// Axis configures one axis of the figure
type Axis struct {
	Type          string         `json:"type,omitempty"`
	Domain        []float64      `json:"domain,omitempty"`
	Anchor        string         `json:"anchor,omitempty"`
	Range         []string       `json:"range,omitempty"`
	RangeSelector *RangeSelector `json:"rangeselector,omitempty"`
	RangeSlider   *RangeSlider   `json:"rangeslider,omitempty"`
}

type Legend struct {
	Orientation string `json:"orientation"`
}

type Text struct {
	Text string `json:"text"`
}

// MenuButton switches the figure to one selector entry
type MenuButton struct {
	Label  string `json:"label"`
	Method string `json:"method"`
	Args   []any  `json:"args"`
}

// UpdateMenu is the Plotly dropdown built from the selector
type UpdateMenu struct {
	Type       string       `json:"type"`
	Direction  string       `json:"direction"`
	Active     int          `json:"active"`
	ShowActive bool         `json:"showactive"`
	X          float64      `json:"x"`
	Y          float64      `json:"y"`
	XAnchor    string       `json:"xanchor"`
	YAnchor    string       `json:"yanchor"`
	Buttons    []MenuButton `json:"buttons"`
}

type Font struct {
	Color string `json:"color,omitempty"`
}

// Annotation labels a point of the figure
type Annotation struct {
	X         string  `json:"x"`
	Y         float64 `json:"y"`
	XRef      string  `json:"xref"`
	YRef      string  `json:"yref"`
	Text      string  `json:"text"`
	ShowArrow bool    `json:"showarrow"`
	ArrowHead int     `json:"arrowhead,omitempty"`
	Font      *Font   `json:"font,omitempty"`
}

// Shape draws a line over the figure
type Shape struct {
	Type string  `json:"type"`
	XRef string  `json:"xref"`
	YRef string  `json:"yref"`
	X0   string  `json:"x0"`
	X1   string  `json:"x1"`
	Y0   float64 `json:"y0"`
	Y1   float64 `json:"y1"`
	Line Line    `json:"line"`
}

// Layout is the figure layout
type Layout struct {
	Title       Text         `json:"title"`
	Height      int          `json:"height"`
	XAxis       Axis         `json:"xaxis"`
	YAxis       Axis         `json:"yaxis"`
	YAxis2      Axis         `json:"yaxis2"`
	Legend      Legend       `json:"legend"`
	UpdateMenus []UpdateMenu `json:"updatemenus,omitempty"`
	Annotations []Annotation `json:"annotations,omitempty"`
	Shapes      []Shape      `json:"shapes,omitempty"`
}

// Config holds the Plotly interaction settings
type Config struct {
	ScrollZoom  bool   `json:"scrollZoom"`
	DoubleClick string `json:"doubleClick"`
	Responsive  bool   `json:"responsive"`
}

// Summary holds the display fields of a single ticker page, prices already
// formatted with two decimals
type Summary struct {
	Ticker        string `json:"ticker"`
	Name          string `json:"name"`
	Currency      string `json:"currency,omitempty"`
	Price         string `json:"price"`
	Change        string `json:"change"`
	ChangePercent string `json:"change_percent"`
	Plus          string `json:"plus"`
	Color         string `json:"color"`
	Forecast      string `json:"forecast,omitempty"`
	ForecastColor string `json:"forecast_color,omitempty"`
}

// Page is what the chart server renders for one request
type Page struct {
	Chart    Chart    `json:"chart"`
	Summary  *Summary `json:"summary,omitempty"`
	Failures []string `json:"failures,omitempty"`
}

// MarshalJSON flattens the chart into the page object
func (p Page) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Traces   []Trace         `json:"traces"`
		Layout   Layout          `json:"layout"`
		Selector []SelectorEntry `json:"selector"`
		Config   Config          `json:"config"`
		Summary  *Summary        `json:"summary,omitempty"`
		Failures []string        `json:"failures,omitempty"`
	}{
		Traces:   p.Chart.Traces,
		Layout:   p.Chart.Layout,
		Selector: p.Chart.Selector,
		Config:   p.Chart.Config,
		Summary:  p.Summary,
		Failures: p.Failures,
	})
}
