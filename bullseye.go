package bullseye

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/olekukonko/tablewriter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/raykavin/bullseye/internal/config"
	"github.com/raykavin/bullseye/pkg/core"
	"github.com/raykavin/bullseye/pkg/dashboard"
	"github.com/raykavin/bullseye/pkg/exchange"
	"github.com/raykavin/bullseye/pkg/forecast"
	"github.com/raykavin/bullseye/pkg/logger"
	"github.com/raykavin/bullseye/pkg/metric"
	"github.com/raykavin/bullseye/pkg/plot"
	"github.com/raykavin/bullseye/pkg/storage"
)

const (
	bootstrapSamples   = 10000
	confidenceLevel    = 0.95
	histogramBins      = 15
	histogramMaxHeight = 10
)

// Bullseye wires the configured provider, cache, model and chart server
type Bullseye struct {
	config     *config.AppConfig
	settings   core.Settings
	feeder     core.Feeder
	forecaster core.Forecaster
	storage    *storage.BuntStorage
	registry   *prometheus.Registry
	pipeline   *dashboard.Pipeline
	log        logger.Logger
}

// New creates a Bullseye instance from the application configuration
func New(cfg *config.AppConfig, options ...Option) (*Bullseye, error) {
	settings, err := cfg.Settings()
	if err != nil {
		return nil, err
	}

	b := &Bullseye{
		config:   cfg,
		settings: settings,
		log:      DefaultLog,
	}

	for _, option := range options {
		option(b)
	}

	if b.registry == nil {
		b.registry = prometheus.NewRegistry()
		b.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	if err := b.initializeFeeder(); err != nil {
		return nil, err
	}

	if err := b.initializeForecaster(); err != nil {
		b.Close()
		return nil, err
	}

	pipelineOptions := []dashboard.Option{dashboard.WithMetrics(dashboard.NewMetrics(b.registry))}
	if b.forecaster != nil {
		pipelineOptions = append(pipelineOptions, dashboard.WithForecaster(b.forecaster))
	}

	b.pipeline, err = dashboard.NewPipeline(b.feeder, settings, b.log, pipelineOptions...)
	if err != nil {
		b.Close()
		return nil, err
	}

	return b, nil
}

// initializeFeeder builds the history provider and its optional cache
func (b *Bullseye) initializeFeeder() error {
	if b.feeder == nil {
		switch b.config.Provider {
		case config.ProviderCSV:
			feed, err := exchange.NewCSVFeedFromDir(b.config.CSVDir)
			if err != nil {
				return fmt.Errorf("load csv feed: %w", err)
			}
			b.feeder = feed
		default:
			yahoo, err := exchange.NewYahoo(exchange.YahooConfig{
				BaseURL:  b.config.Yahoo.BaseURL,
				Timeout:  b.config.Yahoo.Timeout,
				ProxyURL: b.config.Yahoo.Proxy,
				Symbols:  b.config.Yahoo.Symbols,
			}, b.log)
			if err != nil {
				return err
			}
			b.feeder = yahoo
		}
	}

	if b.config.Cache.TTL <= 0 {
		return nil
	}

	store, err := storage.NewBuntStorage(b.config.Cache.Path)
	if err != nil {
		return err
	}

	b.storage = store
	if cached, err := store.Tickers(); err == nil && len(cached) > 0 {
		b.log.WithField("tickers", strings.Join(cached, ",")).Debug("Cached histories available")
	}

	b.feeder = exchange.NewCachedFeeder(b.feeder, store, b.config.Cache.TTL, b.log)
	b.log.WithFields(map[string]any{
		"path": b.config.Cache.Path,
		"ttl":  b.config.Cache.TTL.String(),
	}).Info("History cache enabled")

	return nil
}

// initializeForecaster loads the model files when configured
func (b *Bullseye) initializeForecaster() error {
	if b.forecaster != nil || b.config.Model.Path == "" {
		return nil
	}

	model, err := forecast.Load(b.config.Model.Path, b.config.Model.ScalerPath)
	if err != nil {
		return fmt.Errorf("load forecast model: %w", err)
	}

	b.forecaster = model
	b.log.WithField("path", b.config.Model.Path).Info("Forecast model loaded")
	return nil
}

// Pipeline returns the request pipeline
func (b *Bullseye) Pipeline() *dashboard.Pipeline {
	return b.pipeline
}

// Feeder returns the history provider, cache included
func (b *Bullseye) Feeder() core.Feeder {
	return b.feeder
}

// Serve runs the chart server until the context is cancelled
func (b *Bullseye) Serve(ctx context.Context) error {
	options := []plot.Option{
		plot.WithPort(b.config.Port),
		plot.WithGatherer(b.registry),
	}
	if b.config.Debug {
		options = append(options, plot.WithDebug())
	}

	server, err := plot.NewServer(b.pipeline, b.log, options...)
	if err != nil {
		return err
	}

	b.log.WithField("tickers", strings.Join(b.pipeline.Tickers(), ",")).Info("Starting chart server")
	return server.Start(ctx)
}

// Summary prints a table of the latest values of each ticker, a histogram of
// their daily returns and the confidence interval of the mean daily return
func (b *Bullseye) Summary(ctx context.Context, tickers []string, w io.Writer) error {
	if len(tickers) == 0 {
		tickers = b.pipeline.Tickers()
	}

	frames, failures := b.pipeline.Load(ctx, tickers)
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(frames) == 0 {
		return fmt.Errorf("%w: no data for %s", core.ErrInvalidTicker, strings.Join(tickers, ","))
	}

	columns := b.summaryColumns()

	buffer := bytes.NewBuffer(nil)
	table := tablewriter.NewWriter(buffer)
	table.SetHeader(append(append([]string{"Ticker", "Name", "Close", "Change", "Change %"}, columns...), "Forecast"))
	table.SetAlignment(tablewriter.ALIGN_RIGHT)

	returnsPercent := make([]float64, 0)
	for _, df := range frames {
		row := []string{
			df.Ticker,
			df.Quote.DisplayName(),
			dashboard.FormatPrice(df.Quote.Price),
			dashboard.FormatPrice(df.Quote.Change()),
			dashboard.FormatPrice(df.Quote.ChangePercent()),
		}

		for _, name := range columns {
			value := "-"
			if column, ok := df.Column(name); ok && len(column) > 0 && column[len(column)-1].Valid {
				value = dashboard.FormatPrice(column[len(column)-1].Float64)
			}
			row = append(row, value)
		}

		prediction := "-"
		if value, err := b.pipeline.Forecast(df); err == nil {
			prediction = dashboard.FormatPrice(value)
		}
		table.Append(append(row, prediction))

		for _, r := range metric.Returns(df.Close.Values()) {
			returnsPercent = append(returnsPercent, r*100)
		}
	}
	table.Render()

	fmt.Fprintln(w, buffer.String())

	for _, failure := range failures {
		fmt.Fprintf(w, "No data for %s: %v\n", failure.Ticker, failure.Err)
	}

	if len(returnsPercent) > 0 {
		fmt.Fprintln(w, "------ DAILY RETURNS (%) -------")
		hist := histogram.Hist(histogramBins, returnsPercent)
		if err := histogram.Fprint(w, hist, histogram.Linear(histogramMaxHeight)); err != nil {
			return err
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "------ CONFIDENCE INTERVAL (%.0f%%) -------\n", confidenceLevel*100)
	for _, df := range frames {
		returns := metric.Returns(df.Close.Values())
		interval := metric.Bootstrap(returns, metric.Mean, bootstrapSamples, confidenceLevel)
		low, high := metric.Range(returns)

		fmt.Fprintf(w, "| %s |\n", df.Ticker)
		fmt.Fprintf(w, "MEAN DAILY RETURN: %.3f%% (%.3f%% ~ %.3f%%)\n",
			interval.Mean*100, interval.Lower*100, interval.Upper*100)
		fmt.Fprintf(w, "PERIOD RETURN:     %.2f%%\n", metric.CumulativeReturn(df.Close.Values())*100)
		fmt.Fprintf(w, "WORST / BEST DAY:  %.2f%% / %.2f%%\n", low*100, high*100)
	}
	fmt.Fprintln(w)

	return nil
}

// summaryColumns returns the moving averages of the close, or of the first
// configured field when the close is not derived
func (b *Bullseye) summaryColumns() []string {
	features := b.settings.Features
	if len(features.Fields) == 0 {
		return nil
	}

	field := features.Fields[0]
	for _, candidate := range features.Fields {
		if candidate == core.FieldClose {
			field = candidate
		}
	}

	columns := make([]string, 0, len(features.Windows))
	for _, window := range features.Windows {
		columns = append(columns, core.ColumnName(field, window))
	}
	return columns
}

// Close releases the history cache
func (b *Bullseye) Close() {
	if b.storage == nil {
		return
	}
	if err := b.storage.Close(); err != nil {
		b.log.WithError(err).Warn("Failed closing history cache")
	}
	b.storage = nil
}
