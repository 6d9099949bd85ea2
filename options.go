package sift

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/siftkit/sift/params"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	state *params.State

	logger     *slog.Logger
	metricsReg prometheus.Registerer

	onResult func(*Result)
	onError  func(error)
}

// WithState sets the initial parameter state. Defaults to params.New().
func WithState(st *params.State) Option {
	return optionFunc(func(c *clientConfig) {
		c.state = st
	})
}

// WithLogger enables structured logging for client operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers client metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}

// WithResultHandler sets the callback invoked for every accepted
// asynchronous result. Handlers run serialized: the sequencer never
// delivers two outcomes concurrently.
func WithResultHandler(fn func(*Result)) Option {
	return optionFunc(func(c *clientConfig) {
		c.onResult = fn
	})
}

// WithErrorHandler sets the callback invoked when an accepted
// asynchronous search fails.
func WithErrorHandler(fn func(error)) Option {
	return optionFunc(func(c *clientConfig) {
		c.onError = fn
	})
}
