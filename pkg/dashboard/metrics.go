package dashboard

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus metrics of the pipeline
type Metrics struct {
	FetchDuration prometheus.Histogram
	FetchFailures *prometheus.CounterVec // labels: reason=invalid|error
	Forecasts     *prometheus.CounterVec // labels: result=ok|insufficient|missing|error
	Tickers       prometheus.Histogram
}

// NewMetrics creates the pipeline metrics and registers them on reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "bullseye_fetch_duration_seconds",
			Help:    "Duration of one ticker history fetch",
			Buckets: prometheus.DefBuckets,
		}),
		FetchFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bullseye_fetch_failures_total",
			Help: "Tickers dropped from a request",
		}, []string{"reason"}),
		Forecasts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bullseye_forecasts_total",
			Help: "Next close forecasts by result",
		}, []string{"result"}),
		Tickers: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "bullseye_request_tickers",
			Help:    "Tickers charted per request",
			Buckets: []float64{1, 2, 5, 10, 20, 50},
		}),
	}

	reg.MustRegister(
		m.FetchDuration,
		m.FetchFailures,
		m.Forecasts,
		m.Tickers,
	)

	return m
}
