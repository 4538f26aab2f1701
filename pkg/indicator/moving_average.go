package indicator

import (
	"fmt"
	"math"

	"github.com/guregu/null/v5"
	"github.com/raykavin/bullseye/pkg/core"
)

// Derive returns a copy of the dataframe holding one trailing simple moving
// average column per feature. Base columns, row count and dates are shared
// with the input and left untouched.
func Derive(df *core.Dataframe, features core.FeatureSet) (*core.Dataframe, error) {
	if err := features.Validate(); err != nil {
		return nil, err
	}

	derived := df.WithDerived()
	for _, field := range features.Fields {
		values, err := df.Field(field)
		if err != nil {
			return nil, fmt.Errorf("derive %s: %w", df.Ticker, err)
		}

		for _, window := range features.Windows {
			derived.Derived[core.ColumnName(field, window)] = MovingAverage(values, window)
		}
	}

	return derived, nil
}

// MovingAverage computes the trailing simple moving average of values.
// Entry i is the mean of values[i-window+1:i+1]; entries before window-1
// are null, as is every window holding a NaN or infinite value.
func MovingAverage(values []float64, window int) []null.Float {
	result := make([]null.Float, len(values))
	if window <= 0 || len(values) < window {
		return result
	}

	// averages are computed per run of finite values
	start := 0
	for start < len(values) {
		if !finite(values[start]) {
			start++
			continue
		}

		end := start
		for end < len(values) && finite(values[end]) {
			end++
		}

		if end-start >= window {
			averages := SMA(values[start:end], window)
			for i := window - 1; i < end-start; i++ {
				result[start+i] = null.FloatFrom(averages[i])
			}
		}
		start = end
	}

	return result
}

func finite(value float64) bool {
	return !math.IsNaN(value) && !math.IsInf(value, 0)
}
