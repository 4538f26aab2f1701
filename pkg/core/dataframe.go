package core

import (
	"fmt"
	"time"

	"github.com/guregu/null/v5"
)

// Dataframe is a columnar daily OHLCV table of one ticker, strictly
// increasing by date, plus derived moving average columns
type Dataframe struct {
	Ticker string
	Quote  Quote

	Close  Series[float64]
	Open   Series[float64]
	High   Series[float64]
	Low    Series[float64]
	Volume Series[float64]

	Time       []time.Time
	LastUpdate time.Time

	// Derived columns keyed by name; a null entry is undefined
	Derived map[string][]null.Float
}

// NewDataframe builds a dataframe from a fetched history
func NewDataframe(history History) (*Dataframe, error) {
	size := len(history.Candles)
	df := &Dataframe{
		Ticker:  history.Ticker,
		Quote:   history.Quote,
		Close:   make(Series[float64], 0, size),
		Open:    make(Series[float64], 0, size),
		High:    make(Series[float64], 0, size),
		Low:     make(Series[float64], 0, size),
		Volume:  make(Series[float64], 0, size),
		Time:    make([]time.Time, 0, size),
		Derived: make(map[string][]null.Float),
	}

	for i, candle := range history.Candles {
		if i > 0 && !candle.Time.After(history.Candles[i-1].Time) {
			return nil, fmt.Errorf("%w: %s at %s", ErrUnsortedHistory,
				history.Ticker, candle.Time.Format(time.DateOnly))
		}

		df.Close = append(df.Close, candle.Close)
		df.Open = append(df.Open, candle.Open)
		df.High = append(df.High, candle.High)
		df.Low = append(df.Low, candle.Low)
		df.Volume = append(df.Volume, candle.Volume)
		df.Time = append(df.Time, candle.Time)
		df.LastUpdate = candle.Time
	}

	return df, nil
}

// Len returns the number of rows
func (df *Dataframe) Len() int {
	return len(df.Time)
}

// Field returns the base column of a field
func (df *Dataframe) Field(field Field) (Series[float64], error) {
	switch field {
	case FieldOpen:
		return df.Open, nil
	case FieldHigh:
		return df.High, nil
	case FieldLow:
		return df.Low, nil
	case FieldClose:
		return df.Close, nil
	case FieldVolume:
		return df.Volume, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownField, field)
}

// Column returns a derived column by name
func (df *Dataframe) Column(name string) ([]null.Float, bool) {
	column, ok := df.Derived[name]
	return column, ok
}

// WithDerived returns a copy of the dataframe sharing the base columns and
// holding its own derived column map
func (df *Dataframe) WithDerived() *Dataframe {
	clone := *df
	clone.Derived = make(map[string][]null.Float, len(df.Derived))
	for name, column := range df.Derived {
		clone.Derived[name] = column
	}
	return &clone
}
