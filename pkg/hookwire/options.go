package hookwire

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/go-drift/hookwire/pkg/config"
	"github.com/go-drift/hookwire/pkg/errors"
)

// Option configures a Runtime.
type Option func(*options)

type options struct {
	cfg        *config.Config
	registerer prometheus.Registerer
	handler    errors.ErrorHandler
	logger     *zerolog.Logger
	equal      func(a, b any) bool
}

// WithConfig sets the runtime configuration. Without it [config.Default] is
// used.
func WithConfig(cfg *config.Config) Option {
	return func(o *options) {
		o.cfg = cfg
	}
}

// WithMetrics enables the Prometheus collectors and registers them with reg.
// A nil reg means prometheus.DefaultRegisterer.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(o *options) {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		o.registerer = reg
	}
}

// WithErrorHandler sets the handler that receives isolated matcher failures
// while the runtime is installed.
func WithErrorHandler(h errors.ErrorHandler) Option {
	return func(o *options) {
		o.handler = h
	}
}

// WithLogger replaces the runtime's console logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = &logger
	}
}

// WithStateEquality replaces state.Same as the equality used to detect
// no-op state updates.
func WithStateEquality(equal func(a, b any) bool) Option {
	return func(o *options) {
		o.equal = equal
	}
}
