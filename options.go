package apm

import (
	"log/slog"

	"github.com/tphakala/go-audio-apm/engine"
	"github.com/tphakala/go-audio-apm/internal/builtin"
)

// Option customizes Create.
type Option func(*options)

type options struct {
	factory engine.Factory
	logger  *slog.Logger
	metrics *Metrics
}

// WithEngineFactory selects the engine implementation. The default is the
// built-in reference engine.
func WithEngineFactory(f engine.Factory) Option {
	return func(o *options) {
		o.factory = f
	}
}

// WithLogger sets the logger used for lifecycle events and failures.
// Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithMetrics enables Prometheus instrumentation.
func WithMetrics(m *Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

func newOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	o.logger = o.logger.With("component", "apm")
	if o.factory == nil {
		o.factory = builtin.Factory(o.logger)
	}
	return o
}
