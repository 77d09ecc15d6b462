package measurement

import (
	"time"

	"github.com/benbjohnson/clock"

	"go.viam.com/mlte/logging"
)

const (
	// DefaultPollInterval is the delay between two polls of a sampler.
	DefaultPollInterval = time.Second
	// DefaultTrials is the number of invocations of a latency measurement.
	DefaultTrials = 10000
	// DefaultPercentile is the quantile reported by TailLatency when none is given.
	DefaultPercentile = 0.99
)

// QueryErrorPolicy decides what a sampler does with a QueryFailed reading.
type QueryErrorPolicy int

const (
	// StopOnQueryError ends the session as if the subject had exited. The failure is logged.
	StopOnQueryError QueryErrorPolicy = iota
	// AbortOnQueryError ends the session with a *QueryError.
	AbortOnQueryError
)

// An Option configures a sampling session or a latency measurement.
type Option func(*options)

type options struct {
	interval     time.Duration
	onQueryError QueryErrorPolicy
	trials       int
	progress     func(done, total int)
	clock        clock.Clock
	logger       logging.Logger
}

func newOptions(opts []Option) options {
	o := options{
		interval:     DefaultPollInterval,
		onQueryError: StopOnQueryError,
		trials:       DefaultTrials,
		clock:        clock.New(),
		logger:       logging.NewBlankLogger("measurement"),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithPollInterval sets the delay between two polls.
func WithPollInterval(interval time.Duration) Option {
	return func(o *options) {
		o.interval = interval
	}
}

// WithQueryErrorPolicy sets how a sampler reacts to an inspector failure.
func WithQueryErrorPolicy(policy QueryErrorPolicy) Option {
	return func(o *options) {
		o.onQueryError = policy
	}
}

// WithTrials sets the number of latency trials.
func WithTrials(trials int) Option {
	return func(o *options) {
		o.trials = trials
	}
}

// WithProgress registers a callback invoked after every latency trial.
func WithProgress(progress func(done, total int)) Option {
	return func(o *options) {
		o.progress = progress
	}
}

// WithClock replaces the wall clock used for poll timers, sample timestamps and trial timing.
func WithClock(clk clock.Clock) Option {
	return func(o *options) {
		o.clock = clk
	}
}

// WithLogger sets the logger of the session.
func WithLogger(logger logging.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}
