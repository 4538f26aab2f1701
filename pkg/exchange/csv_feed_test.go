package exchange

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestCSVFeed_History(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "aapl.csv", "time,open,close,low,high,volume\n"+
		"1704067200,10,11,9,12,100\n"+ // 2024-01-01
		"1711929600,20,21,19,22,200\n"+ // 2024-04-01
		"1717200000,30,31,29,32,300\n") // 2024-06-01
	writeFile(t, dir, "msft.csv", "Date,Open,High,Low,Close,Volume\n"+
		"2024-06-03,1,3,0.5,2,10\n"+
		"2024-06-04,2,4,1.5,3,20\n")

	feed, err := NewCSVFeedFromDir(dir)
	require.NoError(t, err)

	history, err := feed.History(context.Background(), "AAPL", "max")
	require.NoError(t, err)
	require.Len(t, history.Candles, 3)
	assert.Equal(t, 31.0, history.Quote.Price)
	assert.Equal(t, 21.0, history.Quote.PreviousClose)

	limited, err := feed.History(context.Background(), "aapl", "3mo")
	require.NoError(t, err)
	require.Len(t, limited.Candles, 2)
	assert.Equal(t, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), limited.Candles[0].Time)

	msft, err := feed.History(context.Background(), "MSFT", "5y")
	require.NoError(t, err)
	require.Len(t, msft.Candles, 2)
	assert.Equal(t, 3.0, msft.Candles[1].Close)
	assert.Equal(t, 4.0, msft.Candles[1].High)
}

func TestCSVFeed_UnknownTicker(t *testing.T) {
	feed, err := NewCSVFeed()
	require.NoError(t, err)

	history, err := feed.History(context.Background(), "ZZZZ", "5y")
	require.NoError(t, err)
	assert.True(t, history.Empty())
}

func TestCSVFeed_NoHeader(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "x.csv", "1704067200,10,11,9,12,100\n")

	feed, err := NewCSVFeed(TickerFeed{Ticker: "x", File: path})
	require.NoError(t, err)
	require.Len(t, feed.Candles["X"], 1)
	assert.Equal(t, 11.0, feed.Candles["X"][0].Close)
}

func TestCSVFeed_SkipsNonFiniteBars(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "aapl.csv", "date,open,high,low,close,volume\n"+
		"2024-06-03,1,3,0.5,2,10\n"+
		"2024-06-04,NaN,4,1.5,3,20\n"+
		"2024-06-05,3,5,2.5,Inf,30\n"+
		"2024-06-06,4,6,3.5,5,40\n")

	feed, err := NewCSVFeedFromDir(dir)
	require.NoError(t, err)

	history, err := feed.History(context.Background(), "AAPL", "max")
	require.NoError(t, err)
	require.Len(t, history.Candles, 2)
	assert.Equal(t, 2.0, history.Candles[0].Close)
	assert.Equal(t, 5.0, history.Candles[1].Close)
	assert.Equal(t, 2.0, history.Quote.PreviousClose)
}

func TestCSVFeed_InvalidNumber(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "x.csv", "time,open,close,low,high,volume\n1704067200,abc,11,9,12,100\n")

	_, err := NewCSVFeed(TickerFeed{Ticker: "X", File: path})
	require.Error(t, err)
}

func TestPeriodStart(t *testing.T) {
	end := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)

	cases := map[string]time.Time{
		"5y":  time.Date(2019, 6, 15, 0, 0, 0, 0, time.UTC),
		"6mo": time.Date(2023, 12, 15, 0, 0, 0, 0, time.UTC),
		"ytd": time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		"5d":  time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC),
		"2w":  time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		"max": {},
	}

	for period, want := range cases {
		got, err := PeriodStart(period, end)
		require.NoError(t, err, period)
		assert.Equal(t, want, got, period)
	}

	for _, period := range []string{"", "xy", "0y", "-3mo", "soon"} {
		_, err := PeriodStart(period, end)
		assert.Error(t, err, period)
	}
}

func TestSymbolService(t *testing.T) {
	symbols := NewSymbolService(map[string]string{"dow": "^DJI", "spx": "^SPX"})

	assert.Equal(t, "^DJI", symbols.Symbol("Dow"))
	assert.Equal(t, "^SPX", symbols.Symbol("SPX"), "overrides win over defaults")
	assert.Equal(t, "^NDX", symbols.Symbol("ndx"))
	assert.Equal(t, "AAPL", symbols.Symbol(" aapl "))
}
