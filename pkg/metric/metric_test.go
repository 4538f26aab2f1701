package metric

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReturns(t *testing.T) {
	returns := Returns([]float64{100, 110, 99, 0, 10})

	assert.InDeltaSlice(t, []float64{0.1, -0.1, -1}, returns, 1e-12)
	assert.Nil(t, Returns([]float64{100}))
}

func TestMean(t *testing.T) {
	assert.Equal(t, 0.0, Mean(nil))
	assert.InDelta(t, 2.0, Mean([]float64{1, 2, 3}), 1e-12)
}

func TestCumulativeReturn(t *testing.T) {
	assert.InDelta(t, 0.5, CumulativeReturn([]float64{100, 90, 150}), 1e-12)
	assert.Equal(t, 0.0, CumulativeReturn([]float64{100}))
}

func TestRange(t *testing.T) {
	low, high := Range([]float64{3, -1, 7})
	assert.Equal(t, -1.0, low)
	assert.Equal(t, 7.0, high)
}

func TestBootstrap(t *testing.T) {
	constant := []float64{0.01, 0.01, 0.01, 0.01}

	interval := Bootstrap(constant, Mean, 200, 0.95)
	assert.InDelta(t, 0.01, interval.Mean, 1e-12)
	assert.InDelta(t, 0.01, interval.Lower, 1e-12)
	assert.InDelta(t, 0.01, interval.Upper, 1e-12)
	assert.InDelta(t, 0.0, interval.StdDev, 1e-12)

	spread := Bootstrap([]float64{-0.02, 0.01, 0.03, 0.00, 0.015}, Mean, 500, 0.95)
	assert.LessOrEqual(t, spread.Lower, spread.Mean)
	assert.LessOrEqual(t, spread.Mean, spread.Upper)
	assert.GreaterOrEqual(t, spread.Lower, -0.02)
	assert.LessOrEqual(t, spread.Upper, 0.03)

	assert.Equal(t, BootstrapInterval{}, Bootstrap(nil, Mean, 10, 0.95))
}
