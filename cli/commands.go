package cli

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/pterm/pterm"
	"github.com/samber/lo"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"go.viam.com/mlte/measurement"
	"go.viam.com/mlte/measurement/inspect"
)

// pidResult is the outcome of one sampling session.
type pidResult[S any] struct {
	PID   int    `json:"pid"`
	Stats S      `json:"statistics"`
	Err   error  `json:"-"`
	Error string `json:"error,omitempty"`
}

func parsePIDs(c *cli.Context) ([]int, error) {
	if c.NArg() == 0 {
		return nil, errors.New("at least one pid is required")
	}
	pids := make([]int, 0, c.NArg())
	for _, arg := range c.Args().Slice() {
		pid, err := strconv.Atoi(arg)
		if err != nil {
			return nil, measurement.NewInvalidSubjectError("pid", arg, err)
		}
		pids = append(pids, pid)
	}
	return lo.Uniq(pids), nil
}

// samplePIDs runs one independent session per pid and waits for all of them. The returned error
// combines the failures of every session.
func samplePIDs[S any](
	ctx context.Context,
	pids []int,
	sample func(ctx context.Context, pid int) (S, error),
) ([]pidResult[S], error) {
	results := make([]pidResult[S], len(pids))
	var g errgroup.Group
	for i, pid := range pids {
		i, pid := i, pid
		g.Go(func() error {
			stats, err := sample(ctx, pid)
			results[i] = pidResult[S]{PID: pid, Stats: stats, Err: err}
			if err != nil {
				results[i].Error = err.Error()
				return errors.Wrapf(err, "pid %d", pid)
			}
			return nil
		})
	}
	// Wait reports the first failure only. Sessions are independent and none is canceled by
	// another's failure, so every failure is combined below.
	if err := g.Wait(); err == nil {
		return results, nil
	}

	var errs error
	for _, res := range results {
		if res.Err != nil {
			errs = multierr.Append(errs, errors.Wrapf(res.Err, "pid %d", res.PID))
		}
	}
	return results, errs
}

// CPUAction samples the cpu utilization of every pid argument.
func (r *runner) CPUAction(c *cli.Context) error {
	pids, err := parsePIDs(c)
	if err != nil {
		return err
	}
	inspector, err := r.processInspector()
	if err != nil {
		return err
	}
	results, err := samplePIDs(r.context(c), pids, func(ctx context.Context, pid int) (measurement.CPUStatistics, error) {
		return measurement.SampleCPU(ctx, inspector, pid, r.sampleOpts...)
	})
	if renderErr := writeSamples(c, r.format, "CPU utilization", results, func(s measurement.CPUStatistics) []string {
		return []string{
			fmt.Sprintf("%.1f%%", s.Average),
			fmt.Sprintf("%.1f%%", s.Minimum),
			fmt.Sprintf("%.1f%%", s.Maximum),
		}
	}); renderErr != nil {
		return multierr.Combine(err, renderErr)
	}
	return err
}

// MemoryAction samples the resident memory of every pid argument.
func (r *runner) MemoryAction(c *cli.Context) error {
	pids, err := parsePIDs(c)
	if err != nil {
		return err
	}
	inspector, err := r.processInspector()
	if err != nil {
		return err
	}
	results, err := samplePIDs(r.context(c), pids, func(ctx context.Context, pid int) (measurement.MemoryStatistics, error) {
		return measurement.SampleMemory(ctx, inspector, pid, r.sampleOpts...)
	})
	if renderErr := writeSamples(c, r.format, "Resident memory", results, func(s measurement.MemoryStatistics) []string {
		return []string{
			humanKB(s.Average),
			humanKB(float64(s.Minimum)),
			humanKB(float64(s.Maximum)),
		}
	}); renderErr != nil {
		return multierr.Combine(err, renderErr)
	}
	return err
}

// SizeAction reports the size of the path argument.
func (r *runner) SizeAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("exactly one path is required")
	}
	path := c.Args().First()
	size, err := measurement.ArtifactSize(path)
	if err != nil {
		return err
	}
	return r.renderSize(c, path, size)
}

// latencyReport is the outcome of the latency command.
type latencyReport struct {
	Estimator  string                     `json:"estimator"`
	Percentile float64                    `json:"percentile"`
	Tail       float64                    `json:"tail_ms"`
	Profile    measurement.LatencyProfile `json:"profile"`
}

// LatencyAction measures a demo unit that sleeps for a normally distributed number of
// milliseconds.
func (r *runner) LatencyAction(c *cli.Context) error {
	trials := demoTrials
	if r.fromFile {
		trials = r.cfg.Trials
	}
	if c.IsSet(flagTrials) {
		trials = c.Int(flagTrials)
	}
	percentile := r.cfg.Percentile
	if c.IsSet(flagPercentile) {
		percentile = c.Float64(flagPercentile)
	}
	estimatorName := r.cfg.Estimator
	if c.IsSet(flagEstimator) {
		estimatorName = c.String(flagEstimator)
	}
	estimator, err := measurement.EstimatorFromString(estimatorName)
	if err != nil {
		return err
	}
	if percentile < 0 || percentile > 1 {
		return errors.Errorf("percentile must be within [0, 1], got %v", percentile)
	}

	opts := []measurement.Option{measurement.WithTrials(trials), measurement.WithLogger(r.logger)}
	if c.Bool(flagProgress) && trials > 0 && isTerminal(c.App.ErrWriter) {
		bar, err := pterm.DefaultProgressbar.
			WithTotal(trials).
			WithTitle("latency trials").
			WithWriter(c.App.ErrWriter).
			Start()
		if err != nil {
			return err
		}
		defer func() {
			//nolint:errcheck
			bar.Stop()
		}()
		opts = append(opts, measurement.WithProgress(func(done, total int) {
			bar.Increment()
		}))
	}

	unit, generate := demoUnit(c.Float64(flagMeanMs), c.Float64(flagStdDevMs))
	timings, err := measurement.CollectLatencies(r.context(c), unit, generate, opts...)
	if err != nil {
		return err
	}
	profile, err := measurement.NewLatencyProfile(timings, estimator)
	if err != nil {
		return err
	}
	tail, err := measurement.Quantile(percentile, estimator)(timings)
	if err != nil {
		return err
	}
	if err := r.renderLatency(c, latencyReport{
		Estimator:  estimator.String(),
		Percentile: percentile,
		Tail:       tail,
		Profile:    profile,
	}); err != nil {
		return err
	}
	if bins := c.Int(flagHistogram); bins > 0 {
		return writeHistogram(c.App.Writer, timings, bins)
	}
	return nil
}

// demoUnit returns a unit sleeping for its input in milliseconds and a generator drawing inputs
// from a normal distribution. Negative draws sleep for zero.
func demoUnit(meanMs, stdDevMs float64) (func(float64) error, func() float64) {
	var mu sync.Mutex
	//nolint:gosec
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	unit := func(ms float64) error {
		time.Sleep(time.Duration(ms * float64(time.Millisecond)))
		return nil
	}
	generate := func() float64 {
		mu.Lock()
		defer mu.Unlock()
		return max(0, rng.NormFloat64()*stdDevMs+meanMs)
	}
	return unit, generate
}

// InspectorsAction lists the registered inspectors, marking the one in use.
func (r *runner) InspectorsAction(c *cli.Context) error {
	names := measurement.RegisteredInspectors()
	return r.renderInspectors(c, names, r.cfg.Inspector, inspect.DefaultInspector())
}
