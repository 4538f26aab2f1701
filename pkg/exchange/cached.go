package exchange

import (
	"context"
	"time"

	"github.com/raykavin/bullseye/pkg/core"
	"github.com/raykavin/bullseye/pkg/logger"
)

// CachedFeeder memoises non-empty histories of another feeder for a time to
// live. Failed and empty fetches are never stored.
type CachedFeeder struct {
	feeder  core.Feeder
	storage core.HistoryStorage
	ttl     time.Duration
	log     logger.Logger
}

// NewCachedFeeder wraps a feeder with a history storage
func NewCachedFeeder(feeder core.Feeder, storage core.HistoryStorage, ttl time.Duration, log logger.Logger) *CachedFeeder {
	return &CachedFeeder{
		feeder:  feeder,
		storage: storage,
		ttl:     ttl,
		log:     log,
	}
}

// History returns the cached history of a ticker or fetches it
func (c *CachedFeeder) History(ctx context.Context, ticker, period string) (core.History, error) {
	log := c.log.WithFields(map[string]any{"ticker": ticker, "period": period})

	history, found, err := c.storage.Get(ticker, period)
	if err != nil {
		log.WithError(err).Warn("Failed reading history cache")
	}
	if found {
		log.Debug("History cache hit")
		return history, nil
	}

	history, err = c.feeder.History(ctx, ticker, period)
	if err != nil || history.Empty() {
		return history, err
	}

	if err := c.storage.Set(period, history, c.ttl); err != nil {
		log.WithError(err).Warn("Failed writing history cache")
	}

	return history, nil
}
