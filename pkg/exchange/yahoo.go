package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/raykavin/bullseye/pkg/core"
	"github.com/raykavin/bullseye/pkg/logger"
)

const (
	DefaultYahooURL     = "https://query1.finance.yahoo.com"
	DefaultYahooTimeout = 30 * time.Second
	yahooUserAgent      = "Mozilla/5.0"
)

// YahooConfig holds the Yahoo Finance client configuration
type YahooConfig struct {
	BaseURL  string
	Timeout  time.Duration
	ProxyURL string
	Symbols  map[string]string // Extra ticker aliases
}

// Yahoo implements core.Feeder using the Yahoo Finance chart API.
// One request returns both the daily bars and the quote summary.
type Yahoo struct {
	client  *http.Client
	baseURL string
	symbols *SymbolService
	log     logger.Logger
}

// NewYahoo creates a new Yahoo Finance feeder
func NewYahoo(config YahooConfig, log logger.Logger) (*Yahoo, error) {
	if config.BaseURL == "" {
		config.BaseURL = DefaultYahooURL
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultYahooTimeout
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if config.ProxyURL != "" {
		proxy, err := url.Parse(config.ProxyURL)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy url: %w", err)
		}
		transport.Proxy = http.ProxyURL(proxy)
	}

	return &Yahoo{
		client: &http.Client{
			Timeout:   config.Timeout,
			Transport: transport,
		},
		baseURL: strings.TrimRight(config.BaseURL, "/"),
		symbols: NewSymbolService(config.Symbols),
		log:     log,
	}, nil
}

// yahooChart is the response structure from Yahoo Finance chart API
type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Currency           string  `json:"currency"`
				Symbol             string  `json:"symbol"`
				LongName           string  `json:"longName"`
				ShortName          string  `json:"shortName"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
				PreviousClose      float64 `json:"previousClose"`
				GMTOffset          int64   `json:"gmtoffset"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// History fetches the daily bars of a ticker over the period
func (y *Yahoo) History(ctx context.Context, ticker, period string) (core.History, error) {
	ticker = core.NormalizeTicker(ticker)
	if ticker == "" {
		return core.History{}, fmt.Errorf("%w: empty ticker", core.ErrInvalidTicker)
	}

	chart, err := y.fetchChart(ctx, y.symbols.Symbol(ticker), "1d", period)
	if err != nil {
		return core.History{}, fmt.Errorf("yahoo %s: %w", ticker, err)
	}

	return parseChart(ticker, chart), nil
}

func (y *Yahoo) fetchChart(ctx context.Context, symbol, interval, period string) (*yahooChart, error) {
	u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=%s&range=%s",
		y.baseURL, url.PathEscape(symbol), url.QueryEscape(interval), url.QueryEscape(period))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", yahooUserAgent)

	y.log.WithFields(map[string]any{"symbol": symbol, "range": period}).Debug("Fetching chart")

	resp, err := y.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	var chart yahooChart
	decodeErr := json.Unmarshal(body, &chart)

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", core.ErrInvalidTicker, symbol)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d, body: %s", resp.StatusCode, string(body))
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("decode: %w", decodeErr)
	}
	if chart.Chart.Error != nil {
		if strings.EqualFold(chart.Chart.Error.Code, "Not Found") {
			return nil, fmt.Errorf("%w: %s", core.ErrInvalidTicker, chart.Chart.Error.Description)
		}
		return nil, fmt.Errorf("api error: %s", chart.Chart.Error.Description)
	}

	return &chart, nil
}

// parseChart converts a chart response into a history, skipping null bars
// and keeping one bar per trading date
func parseChart(ticker string, chart *yahooChart) core.History {
	history := core.History{Ticker: ticker, FetchedAt: time.Now().UTC()}
	if len(chart.Chart.Result) == 0 {
		history.Quote = core.Quote{Ticker: ticker}
		return history
	}

	result := chart.Chart.Result[0]
	if len(result.Indicators.Quote) > 0 {
		quote := result.Indicators.Quote[0]
		candles := make([]core.Candle, 0, len(result.Timestamp))

		for i, ts := range result.Timestamp {
			o, h := valueAt(quote.Open, i), valueAt(quote.High, i)
			l, c := valueAt(quote.Low, i), valueAt(quote.Close, i)
			if o == nil || h == nil || l == nil || c == nil {
				continue // holidays and halted sessions
			}

			volume := 0.0
			if v := valueAt(quote.Volume, i); v != nil {
				volume = *v
			}

			candle := core.Candle{
				Time:   tradingDate(ts, result.Meta.GMTOffset),
				Open:   *o,
				High:   *h,
				Low:    *l,
				Close:  *c,
				Volume: volume,
			}
			if candle.Finite() {
				candles = append(candles, candle)
			}
		}

		history.Candles = dedupeByDate(candles)
	}

	history.Quote = core.QuoteFromCandles(ticker, history.Candles)
	history.Quote.Currency = result.Meta.Currency
	history.Quote.Name = result.Meta.LongName
	if history.Quote.Name == "" {
		history.Quote.Name = result.Meta.ShortName
	}
	if result.Meta.RegularMarketPrice > 0 {
		history.Quote.Price = result.Meta.RegularMarketPrice
	}
	if result.Meta.PreviousClose > 0 {
		history.Quote.PreviousClose = result.Meta.PreviousClose
	}

	return history
}

func valueAt(values []*float64, i int) *float64 {
	if i >= len(values) {
		return nil
	}
	return values[i]
}

// tradingDate returns the exchange-local date of a bar at midnight UTC
func tradingDate(ts, gmtOffset int64) time.Time {
	local := time.Unix(ts+gmtOffset, 0).UTC()
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}

// dedupeByDate sorts candles and keeps the last bar of each date
func dedupeByDate(candles []core.Candle) []core.Candle {
	sort.SliceStable(candles, func(i, j int) bool { return candles[i].Time.Before(candles[j].Time) })

	result := make([]core.Candle, 0, len(candles))
	for _, candle := range candles {
		if n := len(result); n > 0 && result[n-1].Time.Equal(candle.Time) {
			result[n-1] = candle
			continue
		}
		result = append(result, candle)
	}
	return result
}
