package core

import "time"

// Quote contains the market summary of a ticker, fetched once together with
// its history
type Quote struct {
	Ticker        string  `json:"ticker"`
	Name          string  `json:"name"`
	Currency      string  `json:"currency"`
	Price         float64 `json:"price"`
	PreviousClose float64 `json:"previous_close"`
}

// DisplayName returns the long name of the ticker, falling back to the symbol
func (q Quote) DisplayName() string {
	if q.Name != "" {
		return q.Name
	}
	return q.Ticker
}

// Change returns the absolute price change since the previous close
func (q Quote) Change() float64 {
	return q.Price - q.PreviousClose
}

// ChangePercent returns the change relative to the current price
func (q Quote) ChangePercent() float64 {
	if q.Price == 0 {
		return 0
	}
	return q.Change() / q.Price * 100
}

// History is the immutable result of fetching a ticker
type History struct {
	Ticker    string    `json:"ticker"`
	Quote     Quote     `json:"quote"`
	Candles   []Candle  `json:"candles"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Empty reports whether the fetch returned no observations
func (h History) Empty() bool {
	return len(h.Candles) == 0
}

// QuoteFromCandles builds a quote from the last two candles, for sources that
// carry no market summary
func QuoteFromCandles(ticker string, candles []Candle) Quote {
	quote := Quote{Ticker: ticker}
	if n := len(candles); n > 0 {
		quote.Price = candles[n-1].Close
		quote.PreviousClose = candles[n-1].Close
		if n > 1 {
			quote.PreviousClose = candles[n-2].Close
		}
	}
	return quote
}
