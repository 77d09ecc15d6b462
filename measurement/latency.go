package measurement

import (
	"context"
	"math"
	"time"

	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"
)

// A Summary reduces the per-trial timings, in milliseconds, to a single number.
type Summary func(timings []float64) (float64, error)

// Mean summarizes timings by their arithmetic mean.
func Mean() Summary {
	return func(timings []float64) (float64, error) {
		if len(timings) == 0 {
			return 0, ErrNoSamplesCollected
		}
		return stats.Mean(timings)
	}
}

// Quantile summarizes timings by their p-quantile.
func Quantile(p float64, estimator Estimator) Summary {
	return func(timings []float64) (float64, error) {
		return quantileOf(timings, p, estimator)
	}
}

// CollectLatencies invokes unit once per trial with a fresh input from generate and returns the
// wall time of every invocation in milliseconds. A unit error stops the run immediately and is
// returned as a *UnitFailureError; no timings are returned with it.
func CollectLatencies[I any](ctx context.Context, unit func(I) error, generate func() I, opts ...Option) ([]float64, error) {
	if unit == nil || generate == nil {
		return nil, errors.New("unit and input generator are required")
	}
	o := newOptions(opts)
	if o.trials <= 0 {
		return nil, errors.Errorf("trial count must be positive, got %d", o.trials)
	}
	logger := o.logger.Sublogger("latency")

	timings := make([]float64, 0, o.trials)
	for trial := 0; trial < o.trials; trial++ {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrapf(err, "latency measurement canceled after %d trials", trial)
		}
		input := generate()
		start := o.clock.Now()
		if err := unit(input); err != nil {
			return nil, &UnitFailureError{Trial: trial, Err: err}
		}
		elapsed := o.clock.Since(start)
		timings = append(timings, float64(elapsed)/float64(time.Millisecond))
		if o.progress != nil {
			o.progress(trial+1, o.trials)
		}
	}
	logger.Debugw("latency trials done", "trials", o.trials)
	return timings, nil
}

// MeasureLatency runs the trials of CollectLatencies and reduces the timings with summary.
func MeasureLatency[I any](
	ctx context.Context,
	unit func(I) error,
	generate func() I,
	summary Summary,
	opts ...Option,
) (float64, error) {
	if summary == nil {
		return 0, errors.New("summary is required")
	}
	timings, err := CollectLatencies(ctx, unit, generate, opts...)
	if err != nil {
		return 0, err
	}
	return summary(timings)
}

// MeanLatency returns the mean latency of unit in milliseconds.
func MeanLatency[I any](ctx context.Context, unit func(I) error, generate func() I, opts ...Option) (float64, error) {
	return MeasureLatency(ctx, unit, generate, Mean(), opts...)
}

// TailLatency returns the latency of unit at percentile, in milliseconds, using linear
// interpolation between order statistics. percentile must be within [0, 1]; use
// DefaultPercentile for the 99th percentile.
func TailLatency[I any](
	ctx context.Context,
	unit func(I) error,
	generate func() I,
	percentile float64,
	opts ...Option,
) (float64, error) {
	if err := validatePercentile(percentile); err != nil {
		return 0, err
	}
	return MeasureLatency(ctx, unit, generate, Quantile(percentile, LinearInterpolation), opts...)
}

// LatencyProfile describes the latency distribution of one run, in milliseconds.
type LatencyProfile struct {
	Trials  int     `json:"trials"`
	Mean    float64 `json:"mean_ms"`
	StdDev  float64 `json:"stddev_ms"`
	Minimum float64 `json:"min_ms"`
	Maximum float64 `json:"max_ms"`
	P50     float64 `json:"p50_ms"`
	P90     float64 `json:"p90_ms"`
	P99     float64 `json:"p99_ms"`
}

// NewLatencyProfile summarizes timings in milliseconds.
func NewLatencyProfile(timings []float64, estimator Estimator) (LatencyProfile, error) {
	extrema, err := NewStatistics(timings)
	if err != nil {
		return LatencyProfile{}, err
	}
	profile := LatencyProfile{
		Trials:  len(timings),
		Mean:    extrema.Average,
		Minimum: extrema.Minimum,
		Maximum: extrema.Maximum,
	}
	if len(timings) > 1 {
		_, profile.StdDev = stat.MeanStdDev(timings, nil)
	}
	for _, q := range []struct {
		p   float64
		dst *float64
	}{{0.5, &profile.P50}, {0.9, &profile.P90}, {0.99, &profile.P99}} {
		if *q.dst, err = quantileOf(timings, q.p, estimator); err != nil {
			return LatencyProfile{}, err
		}
	}
	if math.IsNaN(profile.StdDev) {
		profile.StdDev = 0
	}
	return profile, nil
}

// ProfileLatency runs the trials once and returns the mean, spread, extrema and common quantiles.
func ProfileLatency[I any](
	ctx context.Context,
	unit func(I) error,
	generate func() I,
	estimator Estimator,
	opts ...Option,
) (LatencyProfile, error) {
	timings, err := CollectLatencies(ctx, unit, generate, opts...)
	if err != nil {
		return LatencyProfile{}, err
	}
	return NewLatencyProfile(timings, estimator)
}
