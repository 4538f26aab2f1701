package indicator

import "github.com/markcheno/go-talib"

// SMA calculates the Simple Moving Average with a running window sum.
// The first period-1 values are zero; inputs shorter than the period and
// non-positive periods yield an all-zero slice instead of panicking.
func SMA(input []float64, period int) []float64 {
	if period <= 0 || len(input) < period {
		return make([]float64, len(input))
	}
	return talib.Sma(input, period)
}
