package plot

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/raykavin/bullseye/pkg/core"
	"github.com/raykavin/bullseye/pkg/logger"
)

// Static assets embedded in the binary
var (
	//go:embed assets
	staticFiles embed.FS
)

const shutdownTimeout = 10 * time.Second

// Source produces the pages served by the chart server
type Source interface {
	// Tickers returns the configured dashboard tickers
	Tickers() []string
	// Single builds the page of one ticker; unknown tickers fail with
	// core.ErrInvalidTicker
	Single(ctx context.Context, ticker string) (Page, error)
	// Multi builds the dashboard of several tickers, dropping the ones that
	// fail
	Multi(ctx context.Context, tickers []string) (Page, error)
	// Features returns the feature set the frames are derived with
	Features() core.FeatureSet
	// Frame returns the derived dataframe of one ticker
	Frame(ctx context.Context, ticker string) (*core.Dataframe, error)
}

// Server serves the chart pages and their data
type Server struct {
	port          int
	debug         bool
	source        Source
	gatherer      prometheus.Gatherer
	scriptContent string
	indexHTML     *template.Template
	chartHTML     *template.Template
	log           logger.Logger
}

// Option defines a function type for configuring a Server instance
type Option func(*Server)

// WithPort sets the HTTP server port
func WithPort(port int) Option {
	return func(server *Server) {
		server.port = port
	}
}

// WithDebug enables debug mode (disables minification)
func WithDebug() Option {
	return func(server *Server) {
		server.debug = true
	}
}

// WithGatherer sets the registry exposed on /metrics
func WithGatherer(gatherer prometheus.Gatherer) Option {
	return func(server *Server) {
		server.gatherer = gatherer
	}
}

// NewServer creates a new chart server with the provided options
func NewServer(source Source, log logger.Logger, options ...Option) (*Server, error) {
	server := &Server{
		port:     8080,
		source:   source,
		gatherer: prometheus.DefaultGatherer,
		log:      log,
	}

	for _, option := range options {
		option(server)
	}

	var err error
	server.indexHTML, err = template.ParseFS(staticFiles, "assets/layout.html", "assets/index.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse index template: %w", err)
	}

	server.chartHTML, err = template.ParseFS(staticFiles, "assets/layout.html", "assets/chart.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse chart template: %w", err)
	}

	// Read and transpile chart JavaScript
	chartJS, err := staticFiles.ReadFile("assets/chart.js")
	if err != nil {
		return nil, fmt.Errorf("failed to read chart.js: %w", err)
	}

	transpileChartJS := api.Transform(string(chartJS), api.TransformOptions{
		Loader:            api.LoaderJS,
		Target:            api.ES2015,
		MinifySyntax:      !server.debug,
		MinifyIdentifiers: !server.debug,
		MinifyWhitespace:  !server.debug,
	})

	if len(transpileChartJS.Errors) > 0 {
		return nil, fmt.Errorf("chart script failed with: %v", transpileChartJS.Errors)
	}

	server.scriptContent = string(transpileChartJS.Code)

	return server, nil
}

// Handler returns the routes of the server
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	assets, _ := fs.Sub(staticFiles, "assets")
	mux.Handle("/assets/", http.StripPrefix("/assets/", http.FileServer(http.FS(assets))))
	mux.HandleFunc("/assets/chart.js", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/javascript")
		fmt.Fprint(w, s.scriptContent)
	})

	mux.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/viz", s.handleViz)
	mux.HandleFunc("/dashboard", s.handleDashboard)
	mux.HandleFunc("/data", s.handleData)
	mux.HandleFunc("/history", s.handleHistory)
	mux.HandleFunc("/", s.handleIndex)

	return mux
}

// Start serves HTTP until the context is cancelled, then shuts down
// gracefully
func (s *Server) Start(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("Chart available at http://localhost:%d", s.port)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
