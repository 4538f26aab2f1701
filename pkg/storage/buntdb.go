package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/raykavin/bullseye/pkg/core"
	"github.com/tidwall/buntdb"
)

// BuntStorage implements the core.HistoryStorage interface using BuntDB
type BuntStorage struct {
	db *buntdb.DB
}

// FromMemory creates an in-memory storage
func FromMemory() (*BuntStorage, error) {
	return NewBuntStorage(":memory:")
}

// FromFile creates a file-based storage
func FromFile(file string) (*BuntStorage, error) {
	return NewBuntStorage(file)
}

// NewBuntStorage creates a new BuntDB storage instance
func NewBuntStorage(sourceFile string) (*BuntStorage, error) {
	db, err := buntdb.Open(sourceFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open buntdb: %w", err)
	}

	err = db.CreateIndex("fetched_index", "history:*", buntdb.IndexJSON("fetched_at"))
	if err != nil {
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	return &BuntStorage{
		db: db,
	}, nil
}

func historyKey(ticker, period string) string {
	return fmt.Sprintf("history:%s:%s", period, core.NormalizeTicker(ticker))
}

// Get retrieves a stored history, reporting whether it was found and alive
func (b *BuntStorage) Get(ticker, period string) (core.History, bool, error) {
	var history core.History
	found := false

	err := b.db.View(func(tx *buntdb.Tx) error {
		content, err := tx.Get(historyKey(ticker, period))
		if errors.Is(err, buntdb.ErrNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read history: %w", err)
		}

		if err := json.Unmarshal([]byte(content), &history); err != nil {
			return fmt.Errorf("failed to unmarshal history: %w", err)
		}

		found = true
		return nil
	})
	if err != nil {
		return core.History{}, false, err
	}

	return history, found, nil
}

// Set stores a history; a positive ttl expires the entry
func (b *BuntStorage) Set(period string, history core.History, ttl time.Duration) error {
	return b.db.Update(func(tx *buntdb.Tx) error {
		content, err := json.Marshal(history)
		if err != nil {
			return fmt.Errorf("failed to marshal history: %w", err)
		}

		var options *buntdb.SetOptions
		if ttl > 0 {
			options = &buntdb.SetOptions{Expires: true, TTL: ttl}
		}

		_, _, err = tx.Set(historyKey(history.Ticker, period), string(content), options)
		if err != nil {
			return fmt.Errorf("failed to store history: %w", err)
		}

		return nil
	})
}

// Tickers lists the cached tickers ordered by fetch time
func (b *BuntStorage) Tickers() ([]string, error) {
	tickers := make([]string, 0)

	err := b.db.View(func(tx *buntdb.Tx) error {
		return tx.Ascend("fetched_index", func(_, value string) bool {
			var history core.History
			if err := json.Unmarshal([]byte(value), &history); err != nil {
				return true // Continue iteration
			}
			tickers = append(tickers, history.Ticker)
			return true
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to iterate over histories: %w", err)
	}

	return tickers, nil
}

// Close closes the database connection
func (b *BuntStorage) Close() error {
	if b.db != nil {
		return b.db.Close()
	}
	return nil
}
