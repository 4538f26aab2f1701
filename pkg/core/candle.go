package core

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// Candle represents a daily OHLCV observation
type Candle struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Value returns the price of the given field
func (c Candle) Value(field Field) float64 {
	switch field {
	case FieldOpen:
		return c.Open
	case FieldHigh:
		return c.High
	case FieldLow:
		return c.Low
	case FieldClose:
		return c.Close
	case FieldVolume:
		return c.Volume
	}
	return 0
}

// Finite reports whether every price and the volume are real numbers
func (c Candle) Finite() bool {
	for _, field := range []Field{FieldOpen, FieldHigh, FieldLow, FieldClose, FieldVolume} {
		value := c.Value(field)
		if math.IsNaN(value) || math.IsInf(value, 0) {
			return false
		}
	}
	return true
}

// ToSlice converts a candle to a string slice for serialization
// with the specified decimal precision
func (c Candle) ToSlice(precision int) []string {
	return []string{
		fmt.Sprintf("%d", c.Time.Unix()),
		strconv.FormatFloat(c.Open, 'f', precision, 64),
		strconv.FormatFloat(c.Close, 'f', precision, 64),
		strconv.FormatFloat(c.Low, 'f', precision, 64),
		strconv.FormatFloat(c.High, 'f', precision, 64),
		strconv.FormatFloat(c.Volume, 'f', precision, 64),
	}
}
