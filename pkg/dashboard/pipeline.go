package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/raykavin/bullseye/pkg/core"
	"github.com/raykavin/bullseye/pkg/indicator"
	"github.com/raykavin/bullseye/pkg/logger"
	"github.com/raykavin/bullseye/pkg/plot"
	"github.com/samber/lo"
)

// ErrNoForecaster is returned when forecasting without a loaded model
var ErrNoForecaster = errors.New("no forecast model configured")

var _ plot.Source = (*Pipeline)(nil)

// Failure records a ticker dropped from a request
type Failure struct {
	Ticker string
	Err    error
}

func (f Failure) Error() string {
	return fmt.Sprintf("%s: %v", f.Ticker, f.Err)
}

func (f Failure) Unwrap() error {
	return f.Err
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithForecaster enables the next close forecast on single ticker pages
func WithForecaster(forecaster core.Forecaster) Option {
	return func(p *Pipeline) {
		p.forecaster = forecaster
	}
}

// WithMetrics records pipeline metrics
func WithMetrics(metrics *Metrics) Option {
	return func(p *Pipeline) {
		p.metrics = metrics
	}
}

// WithClock sets the time source used for chart ranges
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		p.now = now
	}
}

// Pipeline fetches, derives and charts tickers for one request at a time.
// It holds no per-request state and is safe for concurrent use.
type Pipeline struct {
	feeder     core.Feeder
	forecaster core.Forecaster
	settings   core.Settings
	metrics    *Metrics
	now        func() time.Time
	log        logger.Logger
}

// NewPipeline creates a pipeline over a feeder
func NewPipeline(feeder core.Feeder, settings core.Settings, log logger.Logger, options ...Option) (*Pipeline, error) {
	if err := settings.Features.Validate(); err != nil {
		return nil, err
	}
	if settings.Period == "" {
		settings.Period = core.DefaultPeriod
	}
	if settings.Parallelism < 1 {
		settings.Parallelism = 1
	}
	settings.Tickers = settings.GetTickers()

	pipeline := &Pipeline{
		feeder:   feeder,
		settings: settings,
		now:      time.Now,
		log:      log,
	}

	for _, option := range options {
		option(pipeline)
	}

	return pipeline, nil
}

// Tickers returns the configured dashboard tickers
func (p *Pipeline) Tickers() []string {
	return p.settings.Tickers
}

// Features returns the feature set frames are derived with
func (p *Pipeline) Features() core.FeatureSet {
	return p.settings.Features
}

// Frame fetches one ticker and derives its moving averages. Empty fetches
// fail with core.ErrInvalidTicker.
func (p *Pipeline) Frame(ctx context.Context, ticker string) (*core.Dataframe, error) {
	ticker = core.NormalizeTicker(ticker)
	if ticker == "" {
		return nil, fmt.Errorf("%w: empty ticker", core.ErrInvalidTicker)
	}

	start := time.Now()
	history, err := p.feeder.History(ctx, ticker, p.settings.Period)
	if p.metrics != nil {
		p.metrics.FetchDuration.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		return nil, err
	}
	if history.Empty() {
		return nil, fmt.Errorf("%w: %s", core.ErrInvalidTicker, ticker)
	}

	df, err := core.NewDataframe(history)
	if err != nil {
		return nil, err
	}

	return indicator.Derive(df, p.settings.Features)
}

// Load fetches and derives every ticker, keeping input order. Tickers that
// fail or come back empty are returned as failures and left out of the
// frames.
func (p *Pipeline) Load(ctx context.Context, tickers []string) ([]*core.Dataframe, []Failure) {
	tickers = core.NormalizeTickers(tickers)

	frames := make([]*core.Dataframe, len(tickers))
	errs := make([]error, len(tickers))

	var (
		wg  sync.WaitGroup
		sem = make(chan struct{}, p.settings.Parallelism)
	)

	for i, ticker := range tickers {
		wg.Add(1)
		sem <- struct{}{}

		go func(i int, ticker string) {
			defer func() {
				<-sem
				wg.Done()
			}()
			frames[i], errs[i] = p.Frame(ctx, ticker)
		}(i, ticker)
	}
	wg.Wait()

	failures := make([]Failure, 0)
	for i, err := range errs {
		if err == nil {
			continue
		}

		failure := Failure{Ticker: tickers[i], Err: err}
		failures = append(failures, failure)

		reason := "error"
		if errors.Is(err, core.ErrInvalidTicker) {
			reason = "invalid"
		}
		if p.metrics != nil {
			p.metrics.FetchFailures.WithLabelValues(reason).Inc()
		}

		p.log.WithError(err).WithField("ticker", failure.Ticker).Warn("Dropping ticker")
	}

	return lo.Filter(frames, func(df *core.Dataframe, _ int) bool {
		return df != nil
	}), failures
}

// Forecast predicts the next close of a frame
func (p *Pipeline) Forecast(df *core.Dataframe) (float64, error) {
	if p.forecaster == nil {
		return 0, ErrNoForecaster
	}

	forecast, err := p.forecaster.Predict(df.Close.Values())
	p.observeForecast(err)
	return forecast, err
}

func (p *Pipeline) observeForecast(err error) {
	if p.metrics == nil {
		return
	}

	result := "ok"
	switch {
	case errors.Is(err, core.ErrInsufficientHistory):
		result = "insufficient"
	case errors.Is(err, core.ErrMissingObservation):
		result = "missing"
	case err != nil:
		result = "error"
	}
	p.metrics.Forecasts.WithLabelValues(result).Inc()
}

// Single builds the page of one ticker with its summary and, when a model
// is configured and the history allows it, the next close forecast
func (p *Pipeline) Single(ctx context.Context, ticker string) (plot.Page, error) {
	df, err := p.Frame(ctx, ticker)
	if err != nil {
		return plot.Page{}, err
	}

	chart := p.assembler(plot.WithInitialSelection(0)).Assemble([]*core.Dataframe{df})
	p.observeTickers(1)

	var forecast *float64
	value, err := p.Forecast(df)
	switch {
	case err == nil:
		forecast = &value
		chart = chart.WithForecast(df.LastUpdate, df.Quote.Price, value)
	case errors.Is(err, ErrNoForecaster):
	default:
		p.log.WithError(err).WithField("ticker", df.Ticker).Info("Forecast unavailable")
	}

	return plot.Page{
		Chart:   chart,
		Summary: NewSummary(df.Quote, forecast),
	}, nil
}

// Multi builds the dashboard of several tickers, defaulting to the
// configured list. Failed tickers are reported on the page.
func (p *Pipeline) Multi(ctx context.Context, tickers []string) (plot.Page, error) {
	if len(tickers) == 0 {
		tickers = p.settings.Tickers
	}

	frames, failures := p.Load(ctx, tickers)
	if err := ctx.Err(); err != nil {
		return plot.Page{}, err
	}
	p.observeTickers(len(frames))

	return plot.Page{
		Chart: p.assembler().Assemble(frames),
		Failures: lo.Map(failures, func(failure Failure, _ int) string {
			return failure.Ticker
		}),
	}, nil
}

func (p *Pipeline) assembler(options ...plot.AssemblerOption) *plot.Assembler {
	options = append([]plot.AssemblerOption{
		plot.WithFieldLines(p.settings.FieldLines),
		plot.WithClock(p.now),
	}, options...)
	return plot.NewAssembler(p.settings.Features, options...)
}

func (p *Pipeline) observeTickers(count int) {
	if p.metrics != nil {
		p.metrics.Tickers.Observe(float64(count))
	}
}
