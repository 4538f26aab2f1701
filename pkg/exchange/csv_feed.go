package exchange

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/raykavin/bullseye/pkg/core"
	"github.com/samber/lo"
)

var defaultHeaderMap = map[string]int{
	"time": 0, "open": 1, "close": 2, "low": 3, "high": 4, "volume": 5,
}

// TickerFeed represents the CSV file of one ticker
type TickerFeed struct {
	Ticker string
	File   string
}

// CSVFeed implements core.Feeder over daily CSV files, such as those written
// by the download command
type CSVFeed struct {
	Feeds   map[string]TickerFeed
	Candles map[string][]core.Candle
}

// NewCSVFeed reads every feed file into memory
func NewCSVFeed(feeds ...TickerFeed) (*CSVFeed, error) {
	csvFeed := &CSVFeed{
		Feeds:   make(map[string]TickerFeed),
		Candles: make(map[string][]core.Candle),
	}

	for _, feed := range feeds {
		feed.Ticker = core.NormalizeTicker(feed.Ticker)
		csvFeed.Feeds[feed.Ticker] = feed

		candles, err := readCandlesFromCSV(feed)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", feed.File, err)
		}

		csvFeed.Candles[feed.Ticker] = candles
	}

	return csvFeed, nil
}

// NewCSVFeedFromDir loads every *.csv file of a directory, naming each
// ticker after its file
func NewCSVFeedFromDir(dir string) (*CSVFeed, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		return nil, err
	}

	feeds := lo.Map(files, func(file string, _ int) TickerFeed {
		return TickerFeed{
			Ticker: strings.TrimSuffix(filepath.Base(file), filepath.Ext(file)),
			File:   file,
		}
	})

	return NewCSVFeed(feeds...)
}

// parseHeaders analyses the CSV header and returns the column indexes
func parseHeaders(headers []string) (headerMap map[string]int, hasCustomHeaders bool) {
	// A numeric first cell means there is no header row
	if _, err := strconv.ParseInt(headers[0], 10, 64); err == nil {
		return defaultHeaderMap, false
	}

	headerMap = make(map[string]int)
	for index, header := range headers {
		headerMap[strings.ToLower(strings.TrimSpace(header))] = index
	}

	if index, ok := headerMap["date"]; ok {
		if _, ok := headerMap["time"]; !ok {
			headerMap["time"] = index
		}
	}

	for name := range defaultHeaderMap {
		if _, ok := headerMap[name]; !ok {
			headerMap[name] = -1
		}
	}

	return headerMap, true
}

// readCandlesFromCSV reads and parses the CSV file of a feed
func readCandlesFromCSV(feed TickerFeed) ([]core.Candle, error) {
	csvFile, err := os.Open(feed.File)
	if err != nil {
		return nil, err
	}
	defer csvFile.Close()

	csvLines, err := csv.NewReader(csvFile).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(csvLines) == 0 {
		return nil, nil
	}

	headerMap, hasCustomHeaders := parseHeaders(csvLines[0])
	if hasCustomHeaders {
		csvLines = csvLines[1:]
	}

	candles := make([]core.Candle, 0, len(csvLines))
	for line, record := range csvLines {
		candle, err := parseCandleFromLine(record, headerMap)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line+1, err)
		}
		if !candle.Finite() {
			continue // NaN or Inf bars carry no observation
		}
		candles = append(candles, candle)
	}

	return dedupeByDate(candles), nil
}

// parseCandleFromLine parses one CSV record into a candle
func parseCandleFromLine(line []string, headerMap map[string]int) (core.Candle, error) {
	var (
		candle core.Candle
		err    error
	)

	if candle.Time, err = parseTime(column(line, headerMap, "time")); err != nil {
		return core.Candle{}, err
	}

	fields := []struct {
		name  string
		value *float64
	}{
		{"open", &candle.Open},
		{"close", &candle.Close},
		{"low", &candle.Low},
		{"high", &candle.High},
		{"volume", &candle.Volume},
	}

	for _, field := range fields {
		if *field.value, err = strconv.ParseFloat(column(line, headerMap, field.name), 64); err != nil {
			return core.Candle{}, fmt.Errorf("%s: %w", field.name, err)
		}
	}

	return candle, nil
}

func column(line []string, headerMap map[string]int, name string) string {
	index := headerMap[name]
	if index < 0 || index >= len(line) {
		return ""
	}
	return strings.TrimSpace(line[index])
}

// parseTime accepts unix seconds or an ISO date
func parseTime(value string) (time.Time, error) {
	if timestamp, err := strconv.ParseInt(value, 10, 64); err == nil {
		return time.Unix(timestamp, 0).UTC(), nil
	}
	return time.Parse(time.DateOnly, value)
}

// History returns the candles of a ticker within the period, counted back
// from its last candle. Unknown tickers yield an empty history.
func (c *CSVFeed) History(_ context.Context, ticker, period string) (core.History, error) {
	ticker = core.NormalizeTicker(ticker)
	candles := c.Candles[ticker]

	if len(candles) > 0 {
		start, err := PeriodStart(period, candles[len(candles)-1].Time)
		if err != nil {
			return core.History{}, err
		}

		candles = lo.Filter(candles, func(candle core.Candle, _ int) bool {
			return !candle.Time.Before(start)
		})
	}

	return core.History{
		Ticker:    ticker,
		Quote:     core.QuoteFromCandles(ticker, candles),
		Candles:   candles,
		FetchedAt: time.Now().UTC(),
	}, nil
}
