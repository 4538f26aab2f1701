package bullseye

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/raykavin/bullseye/pkg/core"
	"github.com/raykavin/bullseye/pkg/logger"
)

// Option is a functional option for configuring a Bullseye instance
type Option func(*Bullseye)

// WithLogger replaces the default logger
func WithLogger(log logger.Logger) Option {
	return func(b *Bullseye) {
		b.log = log
	}
}

// WithFeeder replaces the configured history provider. The history cache
// still wraps it when a TTL is configured.
func WithFeeder(feeder core.Feeder) Option {
	return func(b *Bullseye) {
		b.feeder = feeder
	}
}

// WithForecaster replaces the model loaded from the configured files
func WithForecaster(forecaster core.Forecaster) Option {
	return func(b *Bullseye) {
		b.forecaster = forecaster
	}
}

// WithRegistry sets the Prometheus registry metrics are registered on and
// served from
func WithRegistry(registry *prometheus.Registry) Option {
	return func(b *Bullseye) {
		b.registry = registry
	}
}
