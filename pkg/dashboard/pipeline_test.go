package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/raykavin/bullseye/pkg/core"
	"github.com/raykavin/bullseye/pkg/forecast"
	"github.com/raykavin/bullseye/pkg/logger/zerolog"
	"github.com/raykavin/bullseye/pkg/plot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFeeder struct {
	sync.Mutex
	histories map[string]core.History
	err       error
	calls     []string
}

func (f *fakeFeeder) History(_ context.Context, ticker, _ string) (core.History, error) {
	f.Lock()
	f.calls = append(f.calls, ticker)
	f.Unlock()

	if f.err != nil {
		return core.History{}, f.err
	}
	return f.histories[ticker], nil
}

func history(ticker string, size int) core.History {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	candles := make([]core.Candle, size)
	for i := range candles {
		price := 100 + float64(i)
		candles[i] = core.Candle{
			Time:   start.AddDate(0, 0, i),
			Open:   price,
			High:   price + 1,
			Low:    price - 1,
			Close:  price,
			Volume: 1000,
		}
	}

	quote := core.QuoteFromCandles(ticker, candles)
	quote.Name = ticker + " Inc."
	return core.History{Ticker: ticker, Quote: quote, Candles: candles}
}

func lastCloseModel(t *testing.T) *forecast.Model {
	t.Helper()

	weights := make([]float64, forecast.DefaultWindow)
	weights[len(weights)-1] = 1

	model, err := forecast.New(forecast.Regressor{Weights: weights, Bias: 1}, forecast.Scaler{Min: 0, Scale: 1})
	require.NoError(t, err)
	return model
}

func newTestPipeline(t *testing.T, feeder core.Feeder, options ...Option) *Pipeline {
	t.Helper()

	settings := core.DefaultSettings()
	settings.Tickers = []string{"aapl", "MSFT", "AAPL"}

	pipeline, err := NewPipeline(feeder, settings, zerolog.Nop(), options...)
	require.NoError(t, err)
	return pipeline
}

func TestPipeline_LoadDropsEmptyTicker(t *testing.T) {
	feeder := &fakeFeeder{histories: map[string]core.History{
		"AAPL": history("AAPL", 65),
		"MSFT": history("MSFT", 65),
		"ZZZZ": {Ticker: "ZZZZ"},
	}}
	pipeline := newTestPipeline(t, feeder)

	frames, failures := pipeline.Load(context.Background(), []string{"AAPL", "ZZZZ", "MSFT"})

	require.Len(t, frames, 2)
	assert.Equal(t, "AAPL", frames[0].Ticker)
	assert.Equal(t, "MSFT", frames[1].Ticker)
	require.Len(t, failures, 1)
	assert.Equal(t, "ZZZZ", failures[0].Ticker)
	assert.ErrorIs(t, failures[0], core.ErrInvalidTicker)

	column, ok := frames[0].Column("Close 60 Day MA")
	assert.False(t, ok, "60 is not a default window")
	column, ok = frames[0].Column("Close 50 Day MA")
	require.True(t, ok)
	assert.Equal(t, 139.5, column[64].Float64)
}

func TestPipeline_Multi(t *testing.T) {
	feeder := &fakeFeeder{histories: map[string]core.History{
		"AAPL": history("AAPL", 65),
		"MSFT": history("MSFT", 65),
	}}
	registry := prometheus.NewRegistry()
	pipeline := newTestPipeline(t, feeder, WithMetrics(NewMetrics(registry)))

	page, err := pipeline.Multi(context.Background(), []string{"AAPL", "ZZZZ", "MSFT"})
	require.NoError(t, err)

	assert.Len(t, page.Chart.Traces, 68)
	assert.Equal(t, []string{"AAPL", "MSFT"}, page.Chart.Tickers())
	assert.Equal(t, []string{"ZZZZ"}, page.Failures)
	assert.Equal(t, 0, page.Chart.Active)
	assert.Nil(t, page.Summary)
	assert.Equal(t, 1.0, testutil.ToFloat64(pipeline.metrics.FetchFailures.WithLabelValues("invalid")))
}

func TestPipeline_MultiSingleSurvivor(t *testing.T) {
	feeder := &fakeFeeder{histories: map[string]core.History{"AAPL": history("AAPL", 65)}}
	pipeline := newTestPipeline(t, feeder)

	page, err := pipeline.Multi(context.Background(), []string{"AAPL", "ZZZZ"})
	require.NoError(t, err)

	assert.Equal(t, []string{"ZZZZ"}, page.Failures)
	assert.Equal(t, []string{"AAPL"}, page.Chart.Tickers())
	assert.Equal(t, "Select a ticker", page.Chart.Layout.Title.Text)

	require.Len(t, page.Chart.Layout.UpdateMenus, 1)
	buttons := page.Chart.Layout.UpdateMenus[0].Buttons
	require.Len(t, buttons, 2)
	assert.Equal(t, "AAPL", buttons[1].Label)
}

func TestPipeline_MultiDefaultsToSettings(t *testing.T) {
	feeder := &fakeFeeder{histories: map[string]core.History{
		"AAPL": history("AAPL", 10),
		"MSFT": history("MSFT", 10),
	}}
	pipeline := newTestPipeline(t, feeder)
	assert.Equal(t, []string{"AAPL", "MSFT"}, pipeline.Tickers())

	page, err := pipeline.Multi(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "MSFT"}, page.Chart.Tickers())
	assert.Empty(t, page.Failures)
}

func TestPipeline_ParallelKeepsOrder(t *testing.T) {
	histories := make(map[string]core.History)
	tickers := []string{"A", "B", "C", "D", "E", "F"}
	for _, ticker := range tickers {
		histories[ticker] = history(ticker, 5)
	}

	settings := core.DefaultSettings()
	settings.Parallelism = 3
	pipeline, err := NewPipeline(&fakeFeeder{histories: histories}, settings, zerolog.Nop())
	require.NoError(t, err)

	frames, failures := pipeline.Load(context.Background(), tickers)
	require.Empty(t, failures)
	require.Len(t, frames, len(tickers))
	for i, df := range frames {
		assert.Equal(t, tickers[i], df.Ticker)
	}
}

func TestPipeline_FetchError(t *testing.T) {
	feeder := &fakeFeeder{err: errors.New("timeout")}
	pipeline := newTestPipeline(t, feeder)

	frames, failures := pipeline.Load(context.Background(), []string{"AAPL"})
	assert.Empty(t, frames)
	require.Len(t, failures, 1)
	assert.NotErrorIs(t, failures[0], core.ErrInvalidTicker)

	_, err := pipeline.Single(context.Background(), "AAPL")
	require.Error(t, err)
}

func TestPipeline_SingleWithForecast(t *testing.T) {
	feeder := &fakeFeeder{histories: map[string]core.History{"AAPL": history("AAPL", 65)}}
	pipeline := newTestPipeline(t, feeder, WithForecaster(lastCloseModel(t)))

	page, err := pipeline.Single(context.Background(), " aapl ")
	require.NoError(t, err)

	assert.Len(t, page.Chart.Traces, 34)
	assert.Equal(t, 1, page.Chart.Active)
	assert.Equal(t, plot.Visible, page.Chart.Traces[0].Visible)

	require.NotNil(t, page.Summary)
	assert.Equal(t, "AAPL Inc.", page.Summary.Name)
	assert.Equal(t, "164.00", page.Summary.Price)
	assert.Equal(t, "1.00", page.Summary.Change)
	assert.Equal(t, "+", page.Summary.Plus)
	assert.Equal(t, "green", page.Summary.Color)
	assert.Equal(t, "165.00", page.Summary.Forecast)
	assert.Equal(t, "green", page.Summary.ForecastColor)

	require.Len(t, page.Chart.Layout.Annotations, 1)
	assert.Equal(t, 165.0, page.Chart.Layout.Annotations[0].Y)
}

func TestPipeline_SingleInsufficientHistory(t *testing.T) {
	feeder := &fakeFeeder{histories: map[string]core.History{"AAPL": history("AAPL", 59)}}
	pipeline := newTestPipeline(t, feeder, WithForecaster(lastCloseModel(t)))

	_, err := pipeline.Forecast(mustFrame(t, pipeline, "AAPL"))
	require.ErrorIs(t, err, core.ErrInsufficientHistory)

	page, err := pipeline.Single(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Len(t, page.Chart.Traces, 34)
	assert.Empty(t, page.Summary.Forecast)
	assert.Empty(t, page.Chart.Layout.Annotations)
}

func TestPipeline_SingleMissingClose(t *testing.T) {
	aapl := history("AAPL", 65)
	aapl.Candles[5].Close = math.NaN()
	feeder := &fakeFeeder{histories: map[string]core.History{"AAPL": aapl}}
	pipeline := newTestPipeline(t, feeder, WithForecaster(lastCloseModel(t)))

	_, err := pipeline.Forecast(mustFrame(t, pipeline, "AAPL"))
	require.ErrorIs(t, err, core.ErrMissingObservation)

	page, err := pipeline.Single(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Empty(t, page.Summary.Forecast)
	assert.Empty(t, page.Chart.Layout.Annotations)

	content, err := json.Marshal(page)
	require.NoError(t, err)
	assert.Contains(t, string(content), `"traces":`)
}

func TestPipeline_SingleWithoutModel(t *testing.T) {
	feeder := &fakeFeeder{histories: map[string]core.History{"AAPL": history("AAPL", 65)}}
	pipeline := newTestPipeline(t, feeder)

	_, err := pipeline.Forecast(mustFrame(t, pipeline, "AAPL"))
	require.ErrorIs(t, err, ErrNoForecaster)

	page, err := pipeline.Single(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Empty(t, page.Summary.Forecast)
}

func TestPipeline_SingleInvalidTicker(t *testing.T) {
	pipeline := newTestPipeline(t, &fakeFeeder{})

	for _, ticker := range []string{"ZZZZ", "", "  "} {
		_, err := pipeline.Single(context.Background(), ticker)
		require.ErrorIs(t, err, core.ErrInvalidTicker, ticker)
	}
}

func TestPipeline_UnsortedHistory(t *testing.T) {
	broken := history("AAPL", 5)
	broken.Candles[3].Time = broken.Candles[1].Time
	pipeline := newTestPipeline(t, &fakeFeeder{histories: map[string]core.History{"AAPL": broken}})

	_, failures := pipeline.Load(context.Background(), []string{"AAPL"})
	require.Len(t, failures, 1)
	assert.ErrorIs(t, failures[0], core.ErrUnsortedHistory)
}

func TestNewPipeline_InvalidFeatures(t *testing.T) {
	settings := core.DefaultSettings()
	settings.Features.Windows = []int{5, 0}

	_, err := NewPipeline(&fakeFeeder{}, settings, zerolog.Nop())
	require.ErrorIs(t, err, core.ErrInvalidWindow)
}

func mustFrame(t *testing.T, pipeline *Pipeline, ticker string) *core.Dataframe {
	t.Helper()
	df, err := pipeline.Frame(context.Background(), ticker)
	require.NoError(t, err)
	return df
}
