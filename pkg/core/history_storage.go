package core

import "time"

// HistoryStorage defines the interface for caching fetched histories
type HistoryStorage interface {
	// Get returns a stored history, reporting whether it was found
	Get(ticker, period string) (History, bool, error)

	// Set stores a history for the given time to live; zero keeps it forever
	Set(period string, history History, ttl time.Duration) error
}
