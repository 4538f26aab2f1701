package storage

import (
	"testing"
	"time"

	"github.com/raykavin/bullseye/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuntStorage_SetGet(t *testing.T) {
	store, err := FromMemory()
	require.NoError(t, err)
	defer store.Close()

	history := core.History{
		Ticker: "AAPL",
		Quote:  core.Quote{Ticker: "AAPL", Name: "Apple Inc.", Price: 190.5, PreviousClose: 188},
		Candles: []core.Candle{
			{Time: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 100},
		},
		FetchedAt: time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC),
	}

	require.NoError(t, store.Set("5y", history, 0))

	got, found, err := store.Get("aapl", "5y")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, history.Quote, got.Quote)
	require.Len(t, got.Candles, 1)
	assert.True(t, history.Candles[0].Time.Equal(got.Candles[0].Time))
	assert.Equal(t, history.Candles[0].Close, got.Candles[0].Close)

	_, found, err = store.Get("AAPL", "1y")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestBuntStorage_Expires(t *testing.T) {
	store, err := FromMemory()
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Set("5y", core.History{Ticker: "MSFT"}, 10*time.Millisecond))
	time.Sleep(50 * time.Millisecond)

	_, found, err := store.Get("MSFT", "5y")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestBuntStorage_Tickers(t *testing.T) {
	store, err := FromMemory()
	require.NoError(t, err)
	defer store.Close()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.Set("5y", core.History{Ticker: "MSFT", FetchedAt: base.Add(time.Hour)}, 0))
	require.NoError(t, store.Set("5y", core.History{Ticker: "AAPL", FetchedAt: base}, 0))

	tickers, err := store.Tickers()
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "MSFT"}, tickers)
}
