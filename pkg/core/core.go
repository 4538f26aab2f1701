package core

import (
	"context"
)

// Feeder fetches the daily history of a ticker together with its quote.
// A single call is made per ticker and request.
type Feeder interface {
	History(ctx context.Context, ticker, period string) (History, error)
}

// Forecaster predicts the next closing price from a window of closes.
type Forecaster interface {
	Window() int
	Predict(closes []float64) (float64, error)
}
