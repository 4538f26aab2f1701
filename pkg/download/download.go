package download

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/raykavin/bullseye/pkg/core"
	"github.com/raykavin/bullseye/pkg/logger"
	"github.com/schollz/progressbar/v3"
)

const (
	batchSize        = 250
	defaultPrecision = 4
)

// CSV header names
var csvHeaders = []string{"time", "open", "close", "low", "high", "volume"}

// Downloader writes ticker histories to CSV files readable by the CSV feed
type Downloader struct {
	feeder    core.Feeder
	precision int
	progress  bool
	log       logger.Logger
}

// Option configures a Downloader
type Option func(*Downloader)

// WithPrecision sets the decimals written for prices and volumes
func WithPrecision(precision int) Option {
	return func(d *Downloader) {
		d.precision = precision
	}
}

// WithoutProgress disables the terminal progress bar
func WithoutProgress() Option {
	return func(d *Downloader) {
		d.progress = false
	}
}

// NewDownloader creates a new downloader instance with the provided feeder
func NewDownloader(feeder core.Feeder, log logger.Logger, options ...Option) *Downloader {
	downloader := &Downloader{
		feeder:    feeder,
		precision: defaultPrecision,
		progress:  true,
		log:       log,
	}

	for _, option := range options {
		option(downloader)
	}

	return downloader
}

// Download fetches the history of a ticker and saves it to outputPath
func (d *Downloader) Download(ctx context.Context, ticker, period, outputPath string) error {
	ticker = core.NormalizeTicker(ticker)

	history, err := d.feeder.History(ctx, ticker, period)
	if err != nil {
		return err
	}
	if history.Empty() {
		return fmt.Errorf("%w: %s", core.ErrInvalidTicker, ticker)
	}

	recordFile, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	defer recordFile.Close()

	d.log.WithFields(map[string]any{"ticker": ticker, "period": period}).
		Infof("Downloading %d candles", len(history.Candles))

	if err := d.write(recordFile, history.Candles); err != nil {
		return err
	}

	d.log.WithField("file", outputPath).Info("Done!")
	return nil
}

// DownloadAll saves every ticker to {dir}/{TICKER}.csv, stopping at the
// first failure
func (d *Downloader) DownloadAll(ctx context.Context, tickers []string, period, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	for _, ticker := range core.NormalizeTickers(tickers) {
		if err := d.Download(ctx, ticker, period, filepath.Join(dir, ticker+".csv")); err != nil {
			return fmt.Errorf("download %s: %w", ticker, err)
		}
	}

	return nil
}

// write writes candles in batches, advancing the progress bar
func (d *Downloader) write(w io.Writer, candles []core.Candle) error {
	writer := csv.NewWriter(w)

	var progressBar *progressbar.ProgressBar
	if d.progress {
		progressBar = progressbar.Default(int64(len(candles)))
	}

	if err := writer.Write(csvHeaders); err != nil {
		return err
	}

	for start := 0; start < len(candles); start += batchSize {
		end := min(start+batchSize, len(candles))
		if err := writeCandles(writer, candles[start:end], d.precision); err != nil {
			return err
		}

		if progressBar != nil {
			if err := progressBar.Add(end - start); err != nil {
				d.log.Warnf("Failed to update progress bar: %s", err.Error())
			}
		}
	}

	if progressBar != nil {
		if err := progressBar.Close(); err != nil {
			d.log.Warnf("Failed to close progress bar: %s", err.Error())
		}
	}

	writer.Flush()
	return writer.Error()
}

// writeCandles writes a batch of candles to the CSV writer
func writeCandles(writer *csv.Writer, candles []core.Candle, precision int) error {
	for _, candle := range candles {
		if err := writer.Write(candle.ToSlice(precision)); err != nil {
			return err
		}
	}
	return nil
}
