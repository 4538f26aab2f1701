package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/raykavin/bullseye"
	"github.com/raykavin/bullseye/internal/config"
	"github.com/raykavin/bullseye/pkg/core"
	"github.com/raykavin/bullseye/pkg/download"
	"github.com/spf13/cobra"
)

// Command line flags
var (
	configPath string

	// Serve command flags
	port int

	// Download command flags
	tickers    []string
	period     string
	outputFile string
	outputDir  string

	// Summary command flags
	summaryTickers []string
)

func main() {
	// A missing .env file is not an error
	_ = godotenv.Load()

	// Create root command
	rootCmd := &cobra.Command{
		Use:     "bullseye",
		Short:   "Stock history dashboard with moving averages and next close forecast",
		Version: "1.0.0",
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default ./bullseye.yaml)")

	// Add commands
	rootCmd.AddCommand(buildServeCmd(), buildDownloadCmd(), buildSummaryCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Execute
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func buildServeCmd() *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the chart server",
		RunE:  runServe,
	}

	serveCmd.Flags().IntVarP(&port, "port", "p", 0, "HTTP port (overrides config)")

	return serveCmd
}

func buildDownloadCmd() *cobra.Command {
	downloadCmd := &cobra.Command{
		Use:   "download",
		Short: "Download daily history to CSV",
		RunE:  runDownload,
	}

	// Add flags
	downloadCmd.Flags().StringSliceVarP(&tickers, "ticker", "t", nil, "Ticker symbols (e.g. AAPL,MSFT)")
	downloadCmd.Flags().StringVar(&period, "period", "", "Lookback period (e.g. 5y, 6mo, ytd, max)")
	downloadCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file path for one ticker (e.g. ./aapl.csv)")
	downloadCmd.Flags().StringVarP(&outputDir, "dir", "d", "", "Output directory, one {TICKER}.csv per ticker")

	// Required flags
	downloadCmd.MarkFlagRequired("ticker")
	downloadCmd.MarkFlagsOneRequired("output", "dir")
	downloadCmd.MarkFlagsMutuallyExclusive("output", "dir")

	return downloadCmd
}

func buildSummaryCmd() *cobra.Command {
	summaryCmd := &cobra.Command{
		Use:   "summary",
		Short: "Print latest values, return histogram and confidence interval",
		RunE:  runSummary,
	}

	summaryCmd.Flags().StringSliceVarP(&summaryTickers, "ticker", "t", nil, "Ticker symbols (default from config)")

	return summaryCmd
}

func initialize() (*bullseye.Bullseye, *config.AppConfig, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}

	app, err := bullseye.New(cfg)
	if err != nil {
		return nil, nil, err
	}

	return app, cfg, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if port > 0 {
		cfg.Port = port
	}

	app, err := bullseye.New(cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	return app.Serve(cmd.Context())
}

func runDownload(cmd *cobra.Command, _ []string) error {
	app, cfg, err := initialize()
	if err != nil {
		return err
	}
	defer app.Close()

	if period == "" {
		period = cfg.Period
	}

	downloader := download.NewDownloader(app.Feeder(), bullseye.DefaultLog)
	if outputDir != "" {
		return downloader.DownloadAll(cmd.Context(), tickers, period, outputDir)
	}

	tickers = core.NormalizeTickers(tickers)
	if len(tickers) != 1 {
		return fmt.Errorf("--output takes exactly one ticker, use --dir for %d", len(tickers))
	}

	if err := os.MkdirAll(filepath.Dir(outputFile), 0o755); err != nil {
		return err
	}

	return downloader.Download(cmd.Context(), tickers[0], period, outputFile)
}

func runSummary(cmd *cobra.Command, _ []string) error {
	app, _, err := initialize()
	if err != nil {
		return err
	}
	defer app.Close()

	return app.Summary(cmd.Context(), summaryTickers, cmd.OutOrStdout())
}
