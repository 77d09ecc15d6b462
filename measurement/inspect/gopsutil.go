package inspect

import (
	"context"
	"errors"
	"slices"

	"github.com/shirou/gopsutil/v3/process"

	"go.viam.com/mlte/logging"
	"go.viam.com/mlte/measurement"
)

// Gopsutil inspects processes through gopsutil, which works on every platform it supports.
type Gopsutil struct {
	logger logging.Logger
}

// NewGopsutil returns a gopsutil backed inspector.
func NewGopsutil(logger logging.Logger) *Gopsutil {
	return &Gopsutil{logger: logger}
}

// process looks up pid. A nil process comes with the outcome that ends the session and its cause.
func (g *Gopsutil) process(ctx context.Context, pid int) (*process.Process, measurement.Outcome, error) {
	proc, err := process.NewProcessWithContext(ctx, int32(pid))
	if err != nil {
		if errors.Is(err, process.ErrorProcessNotRunning) {
			return nil, measurement.SubjectGone, errNoSuchProcess
		}
		return nil, measurement.QueryFailed, err
	}
	// Not every platform reports a status; only a positive zombie answer counts.
	if status, err := proc.StatusWithContext(ctx); err == nil && slices.Contains(status, process.Zombie) {
		return nil, measurement.SubjectGone, errZombie
	}
	return proc, measurement.Sampled, nil
}

// failure classifies an error from a query on a process that existed a moment ago.
func (g *Gopsutil) failure(ctx context.Context, pid int, err error) (measurement.Outcome, error) {
	if exists, existsErr := process.PidExistsWithContext(ctx, int32(pid)); existsErr == nil && !exists {
		return measurement.SubjectGone, errNoSuchProcess
	}
	g.logger.Debugw("process query failed", "pid", pid, "error", err)
	return measurement.QueryFailed, err
}

// CPUPercent returns the lifetime cpu utilization of pid as a percentage of one core.
func (g *Gopsutil) CPUPercent(ctx context.Context, pid int) measurement.Reading[float64] {
	proc, outcome, err := g.process(ctx, pid)
	if proc == nil {
		return measurement.Reading[float64]{Outcome: outcome, Err: err}
	}
	percent, err := proc.CPUPercentWithContext(ctx)
	if err != nil {
		outcome, err := g.failure(ctx, pid, err)
		return measurement.Reading[float64]{Outcome: outcome, Err: err}
	}
	return measurement.Observed(percent)
}

// ResidentMemory returns the resident set size of pid in kilobytes.
func (g *Gopsutil) ResidentMemory(ctx context.Context, pid int) measurement.Reading[uint64] {
	proc, outcome, err := g.process(ctx, pid)
	if proc == nil {
		return measurement.Reading[uint64]{Outcome: outcome, Err: err}
	}
	info, err := proc.MemoryInfoWithContext(ctx)
	if err != nil {
		outcome, err := g.failure(ctx, pid, err)
		return measurement.Reading[uint64]{Outcome: outcome, Err: err}
	}
	return measurement.Observed(info.RSS / 1024)
}
